package classify

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"lcflow/internal/models"
	"lcflow/internal/providers"

	"github.com/stretchr/testify/require"
)

func conf(v float64) *float64 { return &v }

func TestDecideThreshold(t *testing.T) {
	cases := []struct {
		name    string
		sel     Selection
		matched bool
	}{
		{"above threshold", Selection{SelectedID: "doc_001", SelectedName: "Invoice", Confidence: conf(0.9), Reason: "r"}, true},
		{"below threshold", Selection{SelectedID: "doc_001", SelectedName: "Invoice", Confidence: conf(0.4), Reason: "r"}, false},
		{"exactly threshold", Selection{SelectedID: "doc_001", SelectedName: "Invoice", Confidence: conf(0.5), Reason: "r"}, false},
		{"other with high confidence", Selection{SelectedID: "OTHER", SelectedName: "OTHER", Confidence: conf(0.99), Reason: "r"}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := Decide(tc.sel)
			require.Equal(t, tc.matched, d.IsMatched)
			if !tc.matched {
				require.Empty(t, d.RequirementID)
				require.Empty(t, d.RequirementName)
			}
		})
	}
}

func TestDecideClampsConfidence(t *testing.T) {
	d := Decide(Selection{SelectedID: "doc_001", SelectedName: "Invoice", Confidence: conf(1.7), Reason: "r"})
	require.Equal(t, 1.0, d.Confidence)
	require.True(t, d.IsMatched)

	d = Decide(Selection{SelectedID: "doc_001", SelectedName: "Invoice", Confidence: conf(-0.3), Reason: "r"})
	require.Equal(t, 0.0, d.Confidence)
	require.False(t, d.IsMatched)
}

func TestDecideDefaults(t *testing.T) {
	d := Decide(Selection{})
	require.False(t, d.IsMatched)
	require.Equal(t, 0.1, d.Confidence)
	require.Equal(t, "No reason provided", d.Reasoning)

	d = Decide(Fallback("call blew up"))
	require.False(t, d.IsMatched)
	require.Equal(t, 0.1, d.Confidence)
	require.Equal(t, "call blew up", d.Reasoning)
}

type stubCompleter struct {
	raw json.RawMessage
	err error
}

func (s stubCompleter) CompleteStructured(context.Context, providers.StructuredRequest) (json.RawMessage, providers.CallInfo, error) {
	return s.raw, providers.CallInfo{Provider: "stub", Model: "stub"}, s.err
}

func TestClassifyDocumentNeverFails(t *testing.T) {
	doc := models.ExportDocument{DocumentID: "export_doc_001", DocumentName: "Invoice"}
	reqs := []models.LCRequirement{{RequirementID: "doc_001", Name: "Commercial Invoice"}}

	d := NewClassifier(stubCompleter{err: errors.New("service unavailable")}).ClassifyDocument(context.Background(), doc, reqs)
	require.False(t, d.IsMatched)
	require.Equal(t, 0.1, d.Confidence)
	require.Contains(t, d.Reasoning, "service unavailable")

	d = NewClassifier(stubCompleter{raw: json.RawMessage("not json at all")}).ClassifyDocument(context.Background(), doc, reqs)
	require.False(t, d.IsMatched)
	require.Equal(t, 0.1, d.Confidence)

	d = NewClassifier(stubCompleter{raw: json.RawMessage(`{
		"selected_lc_document_id": "doc_001",
		"selected_lc_document_name": "Commercial Invoice",
		"confidence": 0.92,
		"reason": "clearly an invoice"
	}`)}).ClassifyDocument(context.Background(), doc, reqs)
	require.True(t, d.IsMatched)
	require.Equal(t, "doc_001", d.RequirementID)
	require.Equal(t, 0.92, d.Confidence)
}

func TestBuildSelectionPromptTruncatesDescriptions(t *testing.T) {
	long := strings.Repeat("x", 500)
	doc := models.ExportDocument{DocumentName: "Packing List", Summary: "Lists goods per carton"}
	reqs := []models.LCRequirement{
		{RequirementID: "doc_001", Name: "Commercial Invoice", Description: long},
		{RequirementID: "doc_002", Name: "Packing List", Description: "short"},
	}

	prompt := BuildSelectionPrompt(doc, reqs)
	require.Contains(t, prompt, "doc_001")
	require.Contains(t, prompt, "doc_002")
	require.Contains(t, prompt, "Packing List")
	require.Contains(t, prompt, strings.Repeat("x", 200)+"...")
	require.NotContains(t, prompt, strings.Repeat("x", 201))
}
