package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"lcflow/internal/providers"
	"lcflow/internal/schema"
	"lcflow/internal/util"
)

// onePagePDF renders a minimal single-page PDF. An empty text leaves the
// content stream blank, which is how a scanned page looks to the text
// extractor.
func onePagePDF(text string) []byte {
	var content string
	if text != "" {
		content = fmt.Sprintf("BT /F1 12 Tf 72 712 Td (%s) Tj ET", text)
	}

	var buf bytes.Buffer
	var offsets []int
	obj := func(format string, args ...any) {
		offsets = append(offsets, buf.Len())
		fmt.Fprintf(&buf, format, args...)
	}

	buf.WriteString("%PDF-1.4\n")
	obj("1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n")
	obj("2 0 obj\n<< /Type /Pages /Kids [3 0 R] /Count 1 >>\nendobj\n")
	obj("3 0 obj\n<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 5 0 R >> >> /Contents 4 0 R >>\nendobj\n")
	obj("4 0 obj\n<< /Length %d >>\nstream\n%s\nendstream\nendobj\n", len(content), content)
	obj("5 0 obj\n<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>\nendobj\n")

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(offsets)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(offsets)+1, xref)
	return buf.Bytes()
}

func writePDF(t *testing.T, name, text string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, onePagePDF(text), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// routeRecorder counts structured calls and fails the test if the file
// fallback is ever taken.
type routeRecorder struct {
	t          *testing.T
	structured int
	lastPrompt string
}

func (r *routeRecorder) CompleteStructured(ctx context.Context, req providers.StructuredRequest) (json.RawMessage, providers.CallInfo, error) {
	r.structured++
	r.lastPrompt = req.Prompt
	return json.RawMessage(`{"document_name": "Commercial Invoice", "summary": "s", "full_description": "d"}`),
		providers.CallInfo{Provider: "test", Model: "test-model"}, nil
}

func (r *routeRecorder) CompleteWithFile(ctx context.Context, req providers.FileRequest) (string, providers.CallInfo, error) {
	r.t.Fatal("file fallback invoked for a text-bearing pdf")
	return "", providers.CallInfo{}, nil
}

func TestExtractFileTextPathNeverUploads(t *testing.T) {
	path := writePDF(t, "invoice.pdf", "Commercial Invoice No 12345")
	s, err := schema.Lookup("simple")
	if err != nil {
		t.Fatal(err)
	}
	rec := &routeRecorder{t: t}

	res, err := New(rec).ExtractFile(context.Background(), path, s)
	if err != nil {
		t.Fatalf("ExtractFile: %v", err)
	}
	if res.UsedFileFallback {
		t.Fatal("text-bearing pdf marked as fallback extraction")
	}
	if rec.structured != 1 {
		t.Fatalf("structured calls = %d, want 1", rec.structured)
	}
	record, ok := res.Record.(*schema.SimpleDocumentAnalysis)
	if !ok || record.DocumentName != "Commercial Invoice" {
		t.Fatalf("unexpected record: %#v", res.Record)
	}
	if res.CharCount == 0 {
		t.Fatal("char count not recorded for text path")
	}
	if !strings.Contains(rec.lastPrompt, "File: invoice.pdf") {
		t.Fatalf("prompt missing file context:\n%s", rec.lastPrompt)
	}
}

func TestExtractFileEmptyTextUsesUploadFallback(t *testing.T) {
	path := writePDF(t, "scan.pdf", "")
	s, err := schema.Lookup("simple")
	if err != nil {
		t.Fatal(err)
	}

	res, err := New(providers.NewMockProvider()).ExtractFile(context.Background(), path, s)
	if err != nil {
		t.Fatalf("ExtractFile: %v", err)
	}
	if !res.UsedFileFallback {
		t.Fatal("empty-text pdf did not take the upload fallback")
	}
	record, ok := res.Record.(*schema.SimpleDocumentAnalysis)
	if !ok {
		t.Fatalf("unexpected record: %#v", res.Record)
	}
	if record.DocumentName != "Mock Document" {
		t.Fatalf("document name = %q", record.DocumentName)
	}
	if res.CharCount != 0 {
		t.Fatalf("char count = %d for fallback extraction", res.CharCount)
	}
}

func TestExtractBytesEmptyTextErrors(t *testing.T) {
	s, err := schema.Lookup("simple")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := New(providers.NewMockProvider()).ExtractBytes(context.Background(), onePagePDF(""), s); !errors.Is(err, util.ErrEmptyText) {
		t.Fatalf("expected ErrEmptyText, got %v", err)
	}
}

func TestBuildTextPromptIncludesFileContext(t *testing.T) {
	s, err := schema.Lookup("simple")
	if err != nil {
		t.Fatal(err)
	}
	prompt := buildTextPrompt(s, "invoice.pdf", 3, "body")
	for _, want := range []string{"File: invoice.pdf", "Pages: 3", "Document text:\nbody"} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("prompt missing %q:\n%s", want, prompt)
		}
	}

	prompt = buildTextPrompt(s, "", 0, "body")
	if strings.Contains(prompt, "File:") || strings.Contains(prompt, "Pages:") {
		t.Fatalf("unexpected file context in bytes-mode prompt:\n%s", prompt)
	}
}
