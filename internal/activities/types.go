package activities

import (
	"lcflow/internal/classify"
	"lcflow/internal/extract"
	"lcflow/internal/models"
)

type ListExportPDFsInput struct {
	InputDir string
}

type ListExportPDFsOutput struct {
	Paths []string
}

type ExtractExportDocInput struct {
	Path string
}

// ExtractExportDocOutput carries either the extracted fields or the failure
// message. Extraction failures are data, not activity errors; the batch
// must keep going.
type ExtractExportDocOutput struct {
	Filename        string
	FileSizeBytes   int64
	SHA256          string
	DocumentName    string
	Summary         string
	FullDescription string
	PageCount       int
	Model           string
	FailReason      string
}

type PersistExportDocInput struct {
	LCID string
	Doc  ExtractExportDocOutput
	Path string
}

type PersistExportDocOutput struct {
	DocumentID string
}

type WriteBatchArtifactInput struct {
	LCID     string
	Artifact extract.BatchArtifact
}

type WriteBatchArtifactOutput struct {
	Path string
}

type LoadRequirementsInput struct {
	LCID string
}

type LoadRequirementsOutput struct {
	Requirements []models.LCRequirement
}

type LoadExportDocsInput struct {
	LCID string
}

type LoadExportDocsOutput struct {
	Documents []models.ExportDocument
}

type CreateRunInput struct {
	Run models.ClassificationRun
}

type ClassifyDocumentInput struct {
	Document     models.ExportDocument
	Requirements []models.LCRequirement
}

type ClassifyDocumentOutput struct {
	Decision classify.Decision
}

type RecordDecisionInput struct {
	LCID     string
	RunID    string
	Decision models.ClassificationDecision
}

type FinalizeRunInput struct {
	LCID         string
	RunID        string
	Status       string
	MatchesFound int
	ErrorMessage string
}
