package extract

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"lcflow/internal/pdftext"
	"lcflow/internal/providers"
	"lcflow/internal/schema"
	"lcflow/internal/util"
)

const systemPrompt = "You are a precise document analysis engine for trade finance documents. " +
	"Respond with a single JSON object and nothing else."

// Result is one successful extraction: the decoded record plus the raw
// payload it was decoded from and the call that produced it.
type Result struct {
	SchemaKind       schema.Kind         `json:"schema"`
	Record           any                 `json:"record"`
	RawJSON          json.RawMessage     `json:"-"`
	PageCount        int                 `json:"page_count"`
	CharCount        int                 `json:"char_count"`
	UsedFileFallback bool                `json:"used_file_fallback"`
	Call             providers.CallInfo  `json:"call"`
	Timestamp        time.Time           `json:"timestamp"`
}

// Extractor turns a PDF into a schema-shaped record. Text extraction is
// local and deterministic; structuring goes through the completion service.
// When the PDF has no text layer the raw file is uploaded instead, and the
// free-text response is cleaned and validated before decoding.
type Extractor struct {
	completer providers.Completer
}

func New(completer providers.Completer) *Extractor {
	return &Extractor{completer: completer}
}

// ExtractFile runs the full pipeline for one PDF on disk.
func (e *Extractor) ExtractFile(ctx context.Context, path string, s schema.Schema) (*Result, error) {
	text, pages, err := pdftext.Extract(path)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return e.extractViaUpload(ctx, path, pages, s)
	}
	return e.structure(ctx, filepath.Base(path), text, pages, s)
}

// ExtractBytes runs the pipeline over an in-memory PDF. There is no upload
// fallback here; a PDF with no text layer is an error the caller handles.
func (e *Extractor) ExtractBytes(ctx context.Context, data []byte, s schema.Schema) (*Result, error) {
	text, pages, err := pdftext.ExtractBytes(data)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, util.ErrEmptyText
	}
	return e.structure(ctx, "", text, pages, s)
}

func (e *Extractor) structure(ctx context.Context, filename, text string, pages int, s schema.Schema) (*Result, error) {
	raw, call, err := e.completer.CompleteStructured(ctx, providers.StructuredRequest{
		Operation:  string(s.Kind()) + "_extraction",
		System:     systemPrompt,
		Prompt:     buildTextPrompt(s, filename, pages, text),
		SchemaName: string(s.Kind()),
		Schema:     s.JSONSchemaDoc(),
	})
	if err != nil {
		return nil, err
	}
	return e.decode(raw, pages, len(text), false, call, s)
}

func (e *Extractor) extractViaUpload(ctx context.Context, path string, pages int, s schema.Schema) (*Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read pdf for upload: %w", err)
	}
	content, call, err := e.completer.CompleteWithFile(ctx, providers.FileRequest{
		Operation: string(s.Kind()) + "_file_extraction",
		Prompt:    buildFilePrompt(s),
		Filename:  filepath.Base(path),
		FileData:  data,
	})
	if err != nil {
		return nil, err
	}
	cleaned, err := CleanJSON(content)
	if err != nil {
		return nil, err
	}
	return e.decode(json.RawMessage(cleaned), pages, 0, true, call, s)
}

func (e *Extractor) decode(raw json.RawMessage, pages, chars int, fallback bool, call providers.CallInfo, s schema.Schema) (*Result, error) {
	if err := s.ValidateJSON(raw); err != nil {
		return nil, err
	}
	record := s.NewRecord()
	if err := json.Unmarshal(raw, record); err != nil {
		return nil, fmt.Errorf("%w: %v", util.ErrMalformedCompletion, err)
	}
	return &Result{
		SchemaKind:       s.Kind(),
		Record:           record,
		RawJSON:          raw,
		PageCount:        pages,
		CharCount:        chars,
		UsedFileFallback: fallback,
		Call:             call,
		Timestamp:        time.Now().UTC(),
	}, nil
}

// IsRetryable reports whether an extraction error is worth retrying, as
// opposed to a permanent property of the document or the completion.
func IsRetryable(err error) bool {
	if errors.Is(err, util.ErrTransientService) {
		return true
	}
	switch providers.ClassifyError(err) {
	case providers.ErrorRate, providers.ErrorTransient:
		return true
	}
	return false
}

func buildTextPrompt(s schema.Schema, filename string, pages int, text string) string {
	var b strings.Builder
	b.WriteString(s.Instructions())
	b.WriteString("\n")
	if filename != "" {
		fmt.Fprintf(&b, "\nFile: %s", filename)
	}
	if pages > 0 {
		fmt.Fprintf(&b, "\nPages: %d", pages)
	}
	b.WriteString("\n\nDocument text:\n")
	b.WriteString(text)
	return b.String()
}

func buildFilePrompt(s schema.Schema) string {
	var b strings.Builder
	b.WriteString(s.Instructions())
	b.WriteString("\n\nReturn the result as a JSON object with exactly this structure:\n")
	b.WriteString(s.JSONExample())
	b.WriteString("\n\nRespond with the JSON object only, no other text.")
	return b.String()
}
