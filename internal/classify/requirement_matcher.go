package classify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"lcflow/internal/models"
	"lcflow/internal/providers"
)

const contentPreviewLimit = 800

// MatcherDocument is one input document for the per-requirement matcher:
// a name, a summary, and the full extracted text.
type MatcherDocument struct {
	Name     string `json:"name"`
	Summary  string `json:"summary"`
	FullText string `json:"full_text"`
}

// RequirementResult is the verdict for one LC requirement: which documents
// satisfy it, with one confidence score per matched document.
type RequirementResult struct {
	RequirementName        string    `json:"lc_requirement_name"`
	RequirementDescription string    `json:"lc_requirement_description"`
	MatchedDocuments       []string  `json:"matched_documents"`
	ConfidenceScores       []float64 `json:"confidence_scores"`
	Reasoning              string    `json:"reasoning"`
	Status                 string    `json:"status"`
}

// MatchReport is the complete per-requirement matching output.
// FinalAssignments maps each requirement name to the matched document
// names, paired positionally with the requirement list.
type MatchReport struct {
	FinalAssignments      map[string][]string `json:"final_assignments"`
	ClassificationResults []RequirementResult `json:"classification_results"`
	ProcessingComplete    bool                `json:"processing_complete"`
	TotalRequirements     int                 `json:"total_requirements"`
	TotalDocuments        int                 `json:"total_documents"`
	Errors                []string            `json:"errors"`
}

const matchJSONSchemaDoc = `{
  "type": "object",
  "properties": {
    "matched_documents": {"type": "array", "items": {"type": "string"}},
    "confidence_scores": {"type": "array", "items": {"type": "number"}},
    "reasoning": {"type": "string"},
    "status": {"type": "string"}
  },
  "required": ["matched_documents", "reasoning", "status"]
}`

// RequirementMatcher runs the inverse classification: instead of picking a
// category per document, it walks the LC's requirement list and asks which
// of the documents satisfy each one. The report is in-memory only; it is
// never mixed with the persisted per-document runs.
type RequirementMatcher struct {
	completer providers.StructuredCompleter
}

func NewRequirementMatcher(completer providers.StructuredCompleter) *RequirementMatcher {
	return &RequirementMatcher{completer: completer}
}

// Run matches every document against every requirement, one completion per
// requirement. A per-requirement failure becomes an error entry and the
// matching continues; the report is always complete.
func (m *RequirementMatcher) Run(ctx context.Context, reqs []models.LCRequirement, docs []MatcherDocument) *MatchReport {
	report := &MatchReport{
		FinalAssignments:  map[string][]string{},
		TotalRequirements: len(reqs),
		TotalDocuments:    len(docs),
	}
	report.Errors = append(report.Errors, validateDocuments(docs)...)
	if len(reqs) == 0 {
		report.Errors = append(report.Errors, "No document requirements found in LC")
	}

	for _, req := range reqs {
		result := m.matchRequirement(ctx, req, docs)
		if result.Status == "error" {
			report.Errors = append(report.Errors, fmt.Sprintf("Classification error for %s: %s", req.Name, result.Reasoning))
		}
		report.ClassificationResults = append(report.ClassificationResults, result)
	}

	for i, result := range report.ClassificationResults {
		if i < len(reqs) {
			report.FinalAssignments[reqs[i].Name] = result.MatchedDocuments
		}
	}
	report.ProcessingComplete = true
	return report
}

func (m *RequirementMatcher) matchRequirement(ctx context.Context, req models.LCRequirement, docs []MatcherDocument) RequirementResult {
	result := RequirementResult{
		RequirementName:        req.Name,
		RequirementDescription: req.Description,
		MatchedDocuments:       []string{},
		ConfidenceScores:       []float64{},
	}

	raw, _, err := m.completer.CompleteStructured(ctx, providers.StructuredRequest{
		Operation:  "requirement_matching",
		System:     matcherSystemPrompt,
		Prompt:     buildMatchPrompt(req, docs),
		SchemaName: "requirement_matching",
		Schema:     json.RawMessage(matchJSONSchemaDoc),
	})
	if err != nil {
		result.Reasoning = "Classification error: " + err.Error()
		result.Status = "error"
		return result
	}

	var decoded struct {
		MatchedDocuments []string  `json:"matched_documents"`
		ConfidenceScores []float64 `json:"confidence_scores"`
		Reasoning        string    `json:"reasoning"`
		Status           string    `json:"status"`
	}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		result.Reasoning = "Failed to parse matching response"
		result.Status = "error"
		return result
	}

	if decoded.MatchedDocuments != nil {
		result.MatchedDocuments = decoded.MatchedDocuments
	}
	result.ConfidenceScores = decoded.ConfidenceScores
	result.Reasoning = decoded.Reasoning
	if result.Reasoning == "" {
		result.Reasoning = "No reasoning provided"
	}
	result.Status = decoded.Status
	if result.Status == "" {
		if len(result.MatchedDocuments) == 0 {
			result.Status = "no_match"
		} else {
			result.Status = "matched"
		}
	}
	// One score per matched document; a mismatched list is replaced with a
	// neutral 0.5 per match rather than trusted partially.
	if len(result.ConfidenceScores) != len(result.MatchedDocuments) {
		result.ConfidenceScores = make([]float64, len(result.MatchedDocuments))
		for i := range result.ConfidenceScores {
			result.ConfidenceScores[i] = 0.5
		}
	}
	return result
}

const matcherSystemPrompt = `You are an expert in Letter of Credit (LC) document analysis and trade finance compliance.
Classify input documents against specific LC document requirements.

Be strict in your matching - false positives can cause compliance issues.
Return only valid JSON with the exact structure requested.`

func buildMatchPrompt(req models.LCRequirement, docs []MatcherDocument) string {
	var docsText strings.Builder
	for _, doc := range docs {
		fmt.Fprintf(&docsText, "Document: %s\nSummary: %s\nContent: %s...\n---\n",
			doc.Name, doc.Summary, truncateRunes(doc.FullText, contentPreviewLimit))
	}

	criteria := "No specific criteria"
	if len(req.ValidationCriteria) > 0 {
		criteria = strings.Join(req.ValidationCriteria, "; ")
	}
	description := req.Description
	if description == "" {
		description = "No description"
	}

	return fmt.Sprintf(`LC Document Requirement:
Name: %s
Description: %s
Validation Criteria: %s

Input Documents:
%s
Return JSON only:
{
    "matched_documents": ["doc1.pdf"],
    "confidence_scores": [0.95],
    "reasoning": "Brief explanation",
    "status": "matched"
}`, req.Name, description, criteria, docsText.String())
}

func validateDocuments(docs []MatcherDocument) []string {
	if len(docs) == 0 {
		return []string{"No input documents provided"}
	}
	var errs []string
	for i, doc := range docs {
		if strings.TrimSpace(doc.Name) == "" {
			errs = append(errs, fmt.Sprintf("Document %d missing or invalid field: name", i+1))
		}
		if strings.TrimSpace(doc.Summary) == "" {
			errs = append(errs, fmt.Sprintf("Document %d missing or invalid field: summary", i+1))
		}
		if strings.TrimSpace(doc.FullText) == "" {
			errs = append(errs, fmt.Sprintf("Document %d missing or invalid field: full_text", i+1))
		}
	}
	return errs
}
