package providers

import (
	"context"
	"testing"

	"lcflow/internal/schema"
)

// Mock output must stay decodable by the real schemas, otherwise local
// smoke runs break in ways a live provider would not.
func TestMockProviderOutputMatchesSchemas(t *testing.T) {
	m := NewMockProvider()
	ctx := context.Background()

	cases := map[string]struct {
		req    StructuredRequest
		schema string
	}{
		"simple extraction":  {StructuredRequest{Operation: "simple_extraction", SchemaName: "simple"}, "simple"},
		"lc extraction":      {StructuredRequest{Operation: "letter_of_credit_extraction", SchemaName: "letter_of_credit"}, "lc"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			raw, info, err := m.CompleteStructured(ctx, tc.req)
			if err != nil {
				t.Fatal(err)
			}
			if info.Provider != "mock" {
				t.Fatalf("provider = %q", info.Provider)
			}
			s, err := schema.Lookup(tc.schema)
			if err != nil {
				t.Fatal(err)
			}
			if err := s.ValidateJSON(raw); err != nil {
				t.Fatalf("mock output rejected by %s schema: %v", tc.schema, err)
			}
		})
	}
}

func TestMockProviderClassification(t *testing.T) {
	raw, _, err := NewMockProvider().CompleteStructured(context.Background(), StructuredRequest{Operation: "document_classification"})
	if err != nil {
		t.Fatal(err)
	}
	if string(raw) == "" {
		t.Fatal("empty classification payload")
	}
}
