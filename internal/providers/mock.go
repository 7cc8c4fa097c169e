package providers

import (
	"context"
	"encoding/json"
	"strings"
)

// MockProvider returns deterministic output so the pipeline runs without an
// API key. Semantic quality is obviously nil; it exists for local smoke
// runs and tests.
type MockProvider struct{}

func NewMockProvider() *MockProvider { return &MockProvider{} }

func (m *MockProvider) info() CallInfo {
	return CallInfo{Provider: "mock", Model: "mock-llm-v1"}
}

func (m *MockProvider) CompleteStructured(ctx context.Context, req StructuredRequest) (json.RawMessage, CallInfo, error) {
	_ = ctx
	op := strings.ToLower(req.Operation)
	switch {
	case strings.Contains(op, "classification"):
		return json.RawMessage(`{
  "selected_lc_document_id": "OTHER",
  "selected_lc_document_name": "OTHER",
  "confidence": 0.6,
  "reason": "Mock classification - no LLM available"
}`), m.info(), nil
	case strings.Contains(strings.ToLower(req.SchemaName), "letter_of_credit"):
		return json.RawMessage(`{
  "LC_REFERENCE": "MOCK-LC-0001",
  "DOCUMENTS_REQUIRED": [
    {"name": "Commercial Invoice", "description": "Mock requirement", "quantity": 1, "validation_criteria": ["Must be signed"]}
  ]
}`), m.info(), nil
	default:
		return json.RawMessage(`{
  "document_name": "Mock Document",
  "summary": "Deterministic mock summary.",
  "full_description": "Deterministic mock description generated without a completion service."
}`), m.info(), nil
	}
}

func (m *MockProvider) CompleteWithFile(ctx context.Context, req FileRequest) (string, CallInfo, error) {
	_ = ctx
	return "```json\n{\n  \"document_name\": \"Mock Document\",\n  \"summary\": \"Deterministic mock summary.\",\n  \"full_description\": \"Mock OCR fallback output for " + req.Filename + ".\"\n}\n```", m.info(), nil
}
