package providers

import (
	"context"
	"encoding/json"
)

type CallInfo struct {
	Provider string `json:"provider"`
	Model    string `json:"model"`
}

// StructuredRequest asks for a completion constrained to a JSON Schema.
type StructuredRequest struct {
	Operation  string          `json:"operation"`
	System     string          `json:"system"`
	Prompt     string          `json:"prompt"`
	SchemaName string          `json:"schema_name"`
	Schema     json.RawMessage `json:"schema"`
}

// FileRequest asks for a free-text completion over an uploaded file. The
// provider encodes the raw bytes as a data URL; the response is expected to
// contain a JSON object that the caller cleans and parses.
type FileRequest struct {
	Operation string `json:"operation"`
	Prompt    string `json:"prompt"`
	Filename  string `json:"filename"`
	FileData  []byte `json:"file_data"`
}

type StructuredCompleter interface {
	CompleteStructured(ctx context.Context, req StructuredRequest) (json.RawMessage, CallInfo, error)
}

type FileCompleter interface {
	CompleteWithFile(ctx context.Context, req FileRequest) (string, CallInfo, error)
}

// Completer is the full completion-service surface the extractor and the
// classification engine depend on.
type Completer interface {
	StructuredCompleter
	FileCompleter
}
