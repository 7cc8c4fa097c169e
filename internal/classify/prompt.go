package classify

import (
	"fmt"
	"strings"

	"lcflow/internal/models"
)

const descPreviewLimit = 200

// BuildSelectionPrompt renders the single-document classification prompt:
// the export document's name and summary followed by the numbered
// requirement catalog. Requirement descriptions are truncated so one
// verbose requirement cannot crowd out the rest.
func BuildSelectionPrompt(doc models.ExportDocument, reqs []models.LCRequirement) string {
	var catalog strings.Builder
	for i, req := range reqs {
		fmt.Fprintf(&catalog, "%d. ID: %s | NAME: %s\n   Description: %s\n\n",
			i+1, req.RequirementID, req.Name, truncateRunes(req.Description, descPreviewLimit))
	}

	return fmt.Sprintf(`You are classifying an export document into one of the LC (Letter of Credit) required document categories.

EXPORT DOCUMENT:
Name: %s
Summary: %s

LC REQUIRED DOCUMENT CATEGORIES:
%s
INSTRUCTIONS:
- Analyze the export document name and summary
- Select the MOST APPROPRIATE LC requirement from the list above
- Look at both the ID and NAME to make your selection
- If none of the categories match well, use "OTHER" for both ID and NAME

You must respond with structured output containing:
- selected_lc_document_id: The document ID (e.g., "doc_001") or "OTHER"
- selected_lc_document_name: The document name or "OTHER"
- confidence: Score between 0.0 and 1.0
- reason: Brief explanation of your choice`, doc.DocumentName, doc.Summary, catalog.String())
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}
