package schema

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"lcflow/internal/util"
)

func TestLookupAliases(t *testing.T) {
	cases := map[string]Kind{
		"simple":           KindSimple,
		"default":          KindDefault,
		"general":          KindDefault,
		"lc":               KindLetterOfCredit,
		"letter_of_credit": KindLetterOfCredit,
		"  LC  ":           KindLetterOfCredit,
	}
	for name, want := range cases {
		s, err := Lookup(name)
		if err != nil {
			t.Fatalf("Lookup(%q): %v", name, err)
		}
		if s.Kind() != want {
			t.Fatalf("Lookup(%q) = %q, want %q", name, s.Kind(), want)
		}
	}
	if _, err := Lookup("mt999"); err == nil {
		t.Fatal("expected error for unknown schema")
	}
}

func TestSimpleSchemaValidateJSON(t *testing.T) {
	s := SimpleSchema{}
	valid := []byte(`{"document_name": "Invoice", "summary": "s", "full_description": "d"}`)
	if err := s.ValidateJSON(valid); err != nil {
		t.Fatalf("valid payload rejected: %v", err)
	}

	for name, payload := range map[string]string{
		"missing field": `{"document_name": "Invoice", "summary": "s"}`,
		"wrong type":    `{"document_name": 7, "summary": "s", "full_description": "d"}`,
		"not json":      `not even close`,
	} {
		t.Run(name, func(t *testing.T) {
			err := s.ValidateJSON([]byte(payload))
			if !errors.Is(err, util.ErrMalformedCompletion) {
				t.Fatalf("expected ErrMalformedCompletion, got %v", err)
			}
		})
	}
}

func TestLetterOfCreditSchemaDecode(t *testing.T) {
	s := LetterOfCreditSchema{}
	payload := []byte(`{
		"LC_REFERENCE": "ILC/2024/0042",
		"DOCUMENTS_REQUIRED": [
			{"name": "Commercial Invoice", "description": "signed", "quantity": 3, "validation_criteria": ["Must be signed"]}
		],
		"RULEBOOK_VERSIONS": {"UCP": "600"}
	}`)
	if err := s.ValidateJSON(payload); err != nil {
		t.Fatalf("ValidateJSON: %v", err)
	}
	rec := s.NewRecord()
	if err := json.Unmarshal(payload, rec); err != nil {
		t.Fatal(err)
	}
	lc, ok := rec.(*LetterOfCreditAnalysis)
	if !ok {
		t.Fatalf("NewRecord returned %T", rec)
	}
	if lc.LCReference == nil || *lc.LCReference != "ILC/2024/0042" {
		t.Fatalf("lc reference = %v", lc.LCReference)
	}
	if len(lc.DocumentsRequired) != 1 || lc.DocumentsRequired[0].Quantity != 3 {
		t.Fatalf("documents = %+v", lc.DocumentsRequired)
	}
	if lc.RulebookVersions["UCP"] != "600" {
		t.Fatalf("rulebooks = %v", lc.RulebookVersions)
	}
}

func TestLetterOfCreditSchemaRejectsBadQuantity(t *testing.T) {
	payload := []byte(`{"DOCUMENTS_REQUIRED": [{"name": "Invoice", "quantity": 0}]}`)
	if err := (LetterOfCreditSchema{}).ValidateJSON(payload); !errors.Is(err, util.ErrMalformedCompletion) {
		t.Fatalf("expected ErrMalformedCompletion, got %v", err)
	}
}

// Quantity phrase guidance drives how many copies the extraction reports,
// so the instruction block must keep spelling the folds out.
func TestLetterOfCreditInstructionsCoverQuantityPhrases(t *testing.T) {
	instructions := LetterOfCreditSchema{}.Instructions()
	for _, phrase := range []string{`"four fold" = 4`, `"duplicate" = 2`, `"triplicate" = 3`} {
		if !strings.Contains(instructions, phrase) {
			t.Fatalf("instructions missing %q", phrase)
		}
	}
}
