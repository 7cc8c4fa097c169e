package classify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"lcflow/internal/models"

	"github.com/stretchr/testify/require"
)

var matcherDocs = []MatcherDocument{
	{Name: "invoice.pdf", Summary: "Commercial invoice", FullText: "Invoice No 123 for cotton shirts"},
	{Name: "bl.pdf", Summary: "Bill of lading", FullText: "Shipped on board MV Ever Given"},
}

func TestRequirementMatcherRun(t *testing.T) {
	raw := json.RawMessage(`{
		"matched_documents": ["invoice.pdf"],
		"confidence_scores": [0.9],
		"reasoning": "invoice matches",
		"status": "matched"
	}`)
	reqs := []models.LCRequirement{
		{RequirementID: "doc_001", Name: "Commercial Invoice"},
		{RequirementID: "doc_002", Name: "Bill of Lading"},
	}

	report := NewRequirementMatcher(stubCompleter{raw: raw}).Run(context.Background(), reqs, matcherDocs)
	require.True(t, report.ProcessingComplete)
	require.Equal(t, 2, report.TotalRequirements)
	require.Equal(t, 2, report.TotalDocuments)
	require.Empty(t, report.Errors)
	require.Len(t, report.ClassificationResults, 2)
	require.Equal(t, []string{"invoice.pdf"}, report.FinalAssignments["Commercial Invoice"])
	require.Equal(t, []string{"invoice.pdf"}, report.FinalAssignments["Bill of Lading"])
}

func TestRequirementMatcherFailureContinues(t *testing.T) {
	reqs := []models.LCRequirement{{RequirementID: "doc_001", Name: "Commercial Invoice"}}

	report := NewRequirementMatcher(stubCompleter{err: errors.New("boom")}).Run(context.Background(), reqs, matcherDocs)
	require.True(t, report.ProcessingComplete)
	require.Len(t, report.Errors, 1)
	require.Contains(t, report.Errors[0], "Commercial Invoice")
	require.Len(t, report.ClassificationResults, 1)
	require.Equal(t, "error", report.ClassificationResults[0].Status)
	require.Empty(t, report.FinalAssignments["Commercial Invoice"])
}

func TestRequirementMatcherDefensiveDecode(t *testing.T) {
	reqs := []models.LCRequirement{{RequirementID: "doc_001", Name: "Commercial Invoice"}}

	// Score list does not line up with the matches, so it is replaced with
	// a neutral score per match.
	raw := json.RawMessage(`{
		"matched_documents": ["invoice.pdf", "bl.pdf"],
		"confidence_scores": [0.9],
		"reasoning": "",
		"status": ""
	}`)
	report := NewRequirementMatcher(stubCompleter{raw: raw}).Run(context.Background(), reqs, matcherDocs)
	result := report.ClassificationResults[0]
	require.Equal(t, []float64{0.5, 0.5}, result.ConfidenceScores)
	require.Equal(t, "matched", result.Status)
	require.Equal(t, "No reasoning provided", result.Reasoning)

	raw = json.RawMessage(`{"matched_documents": [], "reasoning": "nothing fits", "status": ""}`)
	report = NewRequirementMatcher(stubCompleter{raw: raw}).Run(context.Background(), reqs, matcherDocs)
	require.Equal(t, "no_match", report.ClassificationResults[0].Status)
}

func TestRequirementMatcherValidatesInput(t *testing.T) {
	report := NewRequirementMatcher(stubCompleter{}).Run(context.Background(), nil, nil)
	require.True(t, report.ProcessingComplete)
	require.Contains(t, report.Errors, "No input documents provided")
	require.Contains(t, report.Errors, "No document requirements found in LC")

	bad := []MatcherDocument{{Name: "x.pdf", Summary: "", FullText: "text"}}
	report = NewRequirementMatcher(stubCompleter{raw: json.RawMessage(`{"matched_documents":[],"reasoning":"r","status":"no_match"}`)}).
		Run(context.Background(), []models.LCRequirement{{Name: "Invoice"}}, bad)
	require.Contains(t, report.Errors, "Document 1 missing or invalid field: summary")
}

func TestBuildMatchPromptTruncatesContent(t *testing.T) {
	long := make([]rune, 2000)
	for i := range long {
		long[i] = 'y'
	}
	docs := []MatcherDocument{{Name: "big.pdf", Summary: "s", FullText: string(long)}}
	prompt := buildMatchPrompt(models.LCRequirement{Name: "Invoice"}, docs)
	require.Contains(t, prompt, "big.pdf")
	require.NotContains(t, prompt, string(long[:900]))
	require.Contains(t, prompt, "No specific criteria")
	require.Contains(t, prompt, "No description")
}
