package schema

import (
	"encoding/json"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// DocumentMetadata carries general document metadata.
type DocumentMetadata struct {
	Title        string  `json:"title"`
	Author       *string `json:"author"`
	DocumentType string  `json:"document_type"`
	PageCount    int     `json:"page_count"`
	Language     string  `json:"language"`
}

// DocumentSection summarizes one section of a document.
type DocumentSection struct {
	Title          string `json:"title"`
	ContentSummary string `json:"content_summary"`
	PageRange      string `json:"page_range"`
}

// KeyPoint is one notable finding with context.
type KeyPoint struct {
	Point         string `json:"point"`
	Context       string `json:"context"`
	PageReference string `json:"page_reference"`
}

// DefaultDocumentAnalysis is the general-purpose document summary record.
type DefaultDocumentAnalysis struct {
	Metadata          DocumentMetadata  `json:"metadata"`
	ExecutiveSummary  string            `json:"executive_summary"`
	MainTopics        []string          `json:"main_topics"`
	Sections          []DocumentSection `json:"sections"`
	KeyPoints         []KeyPoint        `json:"key_points"`
	TargetAudience    string            `json:"target_audience"`
	ActionableItems   []string          `json:"actionable_items"`
	OverallAssessment string            `json:"overall_assessment"`
}

type DefaultSchema struct{}

func (DefaultSchema) Kind() Kind     { return KindDefault }
func (DefaultSchema) NewRecord() any { return &DefaultDocumentAnalysis{} }

func (DefaultSchema) Instructions() string {
	return `Analyze the document and extract:
1. Document metadata (title, author, type, language)
2. Executive summary (2-3 paragraphs)
3. Main topics covered
4. Key sections and their summaries
5. Important key points with context
6. Target audience
7. Actionable items or recommendations
8. Overall assessment of quality and usefulness`
}

func (DefaultSchema) JSONExample() string {
	return `{
  "metadata": {
    "title": "string",
    "author": "string or null",
    "document_type": "string",
    "page_count": 0,
    "language": "string"
  },
  "executive_summary": "string",
  "main_topics": ["string"],
  "sections": [{
    "title": "string",
    "content_summary": "string",
    "page_range": "string"
  }],
  "key_points": [{
    "point": "string",
    "context": "string",
    "page_reference": "string"
  }],
  "target_audience": "string",
  "actionable_items": ["string"],
  "overall_assessment": "string"
}`
}

const defaultJSONSchemaDoc = `{
  "type": "object",
  "properties": {
    "metadata": {
      "type": "object",
      "properties": {
        "title": {"type": "string"},
        "author": {"type": ["string", "null"]},
        "document_type": {"type": "string"},
        "page_count": {"type": "integer"},
        "language": {"type": "string"}
      },
      "required": ["title", "document_type"]
    },
    "executive_summary": {"type": "string"},
    "main_topics": {"type": "array", "items": {"type": "string"}},
    "sections": {"type": "array"},
    "key_points": {"type": "array"},
    "target_audience": {"type": "string"},
    "actionable_items": {"type": "array", "items": {"type": "string"}},
    "overall_assessment": {"type": "string"}
  },
  "required": ["metadata", "executive_summary"]
}`

var defaultJSONSchema = jsonschema.MustCompileString("default.json", defaultJSONSchemaDoc)

func (DefaultSchema) JSONSchemaDoc() json.RawMessage {
	return json.RawMessage(defaultJSONSchemaDoc)
}

func (DefaultSchema) ValidateJSON(data []byte) error {
	return validateAgainst(defaultJSONSchema, data)
}
