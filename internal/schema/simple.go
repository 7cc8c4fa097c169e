package schema

import (
	"encoding/json"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// SimpleDocumentAnalysis is the minimal name/summary/description record used
// for export shipment documents.
type SimpleDocumentAnalysis struct {
	DocumentName    string `json:"document_name"`
	Summary         string `json:"summary"`
	FullDescription string `json:"full_description"`
}

type SimpleSchema struct{}

func (SimpleSchema) Kind() Kind     { return KindSimple }
func (SimpleSchema) NewRecord() any { return &SimpleDocumentAnalysis{} }

func (SimpleSchema) Instructions() string {
	return `Analyze the document and extract:
1. A concise document name (max 50 characters) that describes what the document is
2. A brief summary (2-3 sentences) of the document's main purpose
3. A comprehensive, detailed description that includes:
   - Every single piece of information in the document
   - All data, numbers, figures, amounts, dates, names, addresses
   - All tables, charts, diagrams and their contents
   - All terms, conditions, requirements, specifications
   - All procedures, processes, steps described
   - Any forms, fields, or structured data
   - Contact information, references, citations
   - Legal clauses, regulations, compliance requirements
   - Technical specifications or requirements
   - Any other details, no matter how small

IMPORTANT: The full_description must be extremely comprehensive and include every detail from the document. Do not summarize or omit anything.`
}

func (SimpleSchema) JSONExample() string {
	return `{
  "document_name": "string (max 50 chars)",
  "summary": "string (2-3 sentences)",
  "full_description": "string (extremely detailed and comprehensive)"
}`
}

const simpleJSONSchemaDoc = `{
  "type": "object",
  "properties": {
    "document_name": {"type": "string"},
    "summary": {"type": "string"},
    "full_description": {"type": "string"}
  },
  "required": ["document_name", "summary", "full_description"]
}`

var simpleJSONSchema = jsonschema.MustCompileString("simple.json", simpleJSONSchemaDoc)

func (SimpleSchema) JSONSchemaDoc() json.RawMessage {
	return json.RawMessage(simpleJSONSchemaDoc)
}

func (SimpleSchema) ValidateJSON(data []byte) error {
	return validateAgainst(simpleJSONSchema, data)
}
