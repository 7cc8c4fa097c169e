package classify

import (
	"context"
	"encoding/json"
	"strings"

	"lcflow/internal/models"
	"lcflow/internal/providers"
)

// Other is the sentinel selection for a document that fits no requirement.
const Other = "OTHER"

// MatchThreshold is the confidence a selection must exceed to count as a
// match. The comparison is strict; a confidence of exactly 0.5 does not
// match.
const MatchThreshold = 0.5

// Selection is the completion service's answer for one export document.
// Confidence is a pointer so an omitted field is distinguishable from 0.
type Selection struct {
	SelectedID   string   `json:"selected_lc_document_id"`
	SelectedName string   `json:"selected_lc_document_name"`
	Confidence   *float64 `json:"confidence"`
	Reason       string   `json:"reason"`
}

const selectionJSONSchemaDoc = `{
  "type": "object",
  "properties": {
    "selected_lc_document_id": {"type": "string"},
    "selected_lc_document_name": {"type": "string"},
    "confidence": {"type": "number", "minimum": 0, "maximum": 1},
    "reason": {"type": "string"}
  },
  "required": ["selected_lc_document_id", "selected_lc_document_name", "confidence", "reason"]
}`

// Decision is the normalized verdict for one export document. RequirementID
// and RequirementName are empty unless the document matched.
type Decision struct {
	RequirementID   string  `json:"requirement_id,omitempty"`
	RequirementName string  `json:"requirement_name,omitempty"`
	Confidence      float64 `json:"confidence"`
	Reasoning       string  `json:"reasoning"`
	IsMatched       bool    `json:"is_matched"`
}

// Fallback is the selection substituted when the completion service fails
// or returns garbage. The reason carries the diagnostic.
func Fallback(reason string) Selection {
	conf := 0.1
	return Selection{
		SelectedID:   Other,
		SelectedName: Other,
		Confidence:   &conf,
		Reason:       reason,
	}
}

// Decide normalizes a raw selection into a decision. It never fails:
// missing identifiers default to OTHER, a missing confidence defaults to
// 0.1, and confidence is clamped into [0, 1].
func Decide(sel Selection) Decision {
	id := strings.TrimSpace(sel.SelectedID)
	name := strings.TrimSpace(sel.SelectedName)
	if id == "" {
		id = Other
	}
	if name == "" {
		name = Other
	}
	conf := 0.1
	if sel.Confidence != nil {
		conf = clamp01(*sel.Confidence)
	}
	reason := sel.Reason
	if reason == "" {
		reason = "No reason provided"
	}

	d := Decision{Confidence: conf, Reasoning: reason}
	if id != Other && conf > MatchThreshold {
		d.IsMatched = true
		d.RequirementID = id
		d.RequirementName = name
	}
	return d
}

// Classifier asks the completion service to pick the best requirement for
// one export document.
type Classifier struct {
	completer providers.StructuredCompleter
}

func NewClassifier(completer providers.StructuredCompleter) *Classifier {
	return &Classifier{completer: completer}
}

// ClassifyDocument produces a decision for one export document. It never
// returns an error: a failed call or an undecodable payload yields the
// OTHER fallback with the diagnostic as the reasoning, so one bad document
// cannot sink a run.
func (c *Classifier) ClassifyDocument(ctx context.Context, doc models.ExportDocument, reqs []models.LCRequirement) Decision {
	raw, _, err := c.completer.CompleteStructured(ctx, providers.StructuredRequest{
		Operation:  "document_classification",
		System:     "You are classifying export shipment documents against Letter of Credit requirements. Respond with a single JSON object and nothing else.",
		Prompt:     BuildSelectionPrompt(doc, reqs),
		SchemaName: "document_classification",
		Schema:     json.RawMessage(selectionJSONSchemaDoc),
	})
	if err != nil {
		return Decide(Fallback("Classification call failed: " + err.Error()))
	}
	var sel Selection
	if err := json.Unmarshal(raw, &sel); err != nil {
		return Decide(Fallback("Failed to parse classification response: " + err.Error()))
	}
	return Decide(sel)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
