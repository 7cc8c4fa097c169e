package activities

import (
	"context"
	"os"
	"path/filepath"

	"lcflow/internal/classify"
	"lcflow/internal/config"
	"lcflow/internal/extract"
	"lcflow/internal/models"
	"lcflow/internal/providers"
	"lcflow/internal/schema"
	"lcflow/internal/storage"
	"lcflow/internal/util"

	"go.temporal.io/sdk/activity"
)

type Activities struct {
	cfg        config.Config
	lcRepo     *storage.LCRepo
	docRepo    *storage.ExportDocRepo
	runRepo    *storage.RunRepo
	extractor  *extract.Extractor
	classifier *classify.Classifier
}

func New(cfg config.Config, db *storage.DB) (*Activities, error) {
	completer, err := providers.New(cfg)
	if err != nil {
		return nil, err
	}
	return &Activities{
		cfg:        cfg,
		lcRepo:     storage.NewLCRepo(db),
		docRepo:    storage.NewExportDocRepo(db),
		runRepo:    storage.NewRunRepo(db),
		extractor:  extract.New(completer),
		classifier: classify.NewClassifier(completer),
	}, nil
}

func (a *Activities) ListExportPDFsActivity(ctx context.Context, in ListExportPDFsInput) (ListExportPDFsOutput, error) {
	_ = ctx
	paths, err := extract.ListPDFs(in.InputDir)
	if err != nil {
		return ListExportPDFsOutput{}, err
	}
	return ListExportPDFsOutput{Paths: paths}, nil
}

// ExtractExportDocActivity extracts one export document with the simple
// schema. A per-document extraction failure is reported in FailReason so
// the workflow can persist the document as failed and continue.
func (a *Activities) ExtractExportDocActivity(ctx context.Context, in ExtractExportDocInput) (ExtractExportDocOutput, error) {
	out := ExtractExportDocOutput{Filename: filepath.Base(in.Path)}
	if data, err := os.ReadFile(in.Path); err == nil {
		out.FileSizeBytes = int64(len(data))
		out.SHA256 = util.SHA256Hex(data)
	}

	s, err := schema.Lookup(string(schema.KindSimple))
	if err != nil {
		return ExtractExportDocOutput{}, err
	}
	res, err := a.extractor.ExtractFile(ctx, in.Path, s)
	if err != nil {
		if extract.IsRetryable(err) {
			return ExtractExportDocOutput{}, err
		}
		activity.GetLogger(ctx).Warn("export doc extraction failed", "path", in.Path, "error", err)
		out.FailReason = err.Error()
		return out, nil
	}

	record, ok := res.Record.(*schema.SimpleDocumentAnalysis)
	if !ok {
		out.FailReason = "unexpected extraction record shape"
		return out, nil
	}
	out.DocumentName = record.DocumentName
	out.Summary = record.Summary
	out.FullDescription = record.FullDescription
	out.PageCount = res.PageCount
	out.Model = res.Call.Model
	return out, nil
}

func (a *Activities) PersistExportDocActivity(ctx context.Context, in PersistExportDocInput) (PersistExportDocOutput, error) {
	doc := models.ExportDocument{
		LCID:            in.LCID,
		Filename:        in.Doc.Filename,
		FilePath:        in.Path,
		FileSizeBytes:   in.Doc.FileSizeBytes,
		DocumentName:    in.Doc.DocumentName,
		Summary:         in.Doc.Summary,
		FullDescription: in.Doc.FullDescription,
	}
	if in.Doc.FailReason != "" {
		doc.DocumentName = "EXTRACTION FAILED"
		doc.Summary = in.Doc.FailReason
	}
	docID, err := a.docRepo.InsertExportDoc(ctx, doc)
	if err != nil {
		return PersistExportDocOutput{}, err
	}
	return PersistExportDocOutput{DocumentID: docID}, nil
}

func (a *Activities) WriteBatchArtifactActivity(ctx context.Context, in WriteBatchArtifactInput) (WriteBatchArtifactOutput, error) {
	_ = ctx
	path := filepath.Join(a.cfg.DataOutRoot, in.LCID, "export_docs.json")
	if err := util.WriteJSONAtomic(path, in.Artifact); err != nil {
		return WriteBatchArtifactOutput{}, err
	}
	return WriteBatchArtifactOutput{Path: path}, nil
}

func (a *Activities) LoadRequirementsActivity(ctx context.Context, in LoadRequirementsInput) (LoadRequirementsOutput, error) {
	reqs, err := a.lcRepo.ListRequirements(ctx, in.LCID)
	if err != nil {
		return LoadRequirementsOutput{}, err
	}
	return LoadRequirementsOutput{Requirements: reqs}, nil
}

func (a *Activities) LoadExportDocsActivity(ctx context.Context, in LoadExportDocsInput) (LoadExportDocsOutput, error) {
	docs, err := a.docRepo.ListExportDocs(ctx, in.LCID)
	if err != nil {
		return LoadExportDocsOutput{}, err
	}
	return LoadExportDocsOutput{Documents: docs}, nil
}

func (a *Activities) CreateRunActivity(ctx context.Context, in CreateRunInput) error {
	return a.runRepo.CreateRun(ctx, in.Run)
}

// ClassifyDocumentActivity always returns a decision; a broken completion
// yields the OTHER fallback.
func (a *Activities) ClassifyDocumentActivity(ctx context.Context, in ClassifyDocumentInput) (ClassifyDocumentOutput, error) {
	decision := a.classifier.ClassifyDocument(ctx, in.Document, in.Requirements)
	activity.GetLogger(ctx).Info("classified export document",
		"document_id", in.Document.DocumentID,
		"requirement_id", decision.RequirementID,
		"confidence", decision.Confidence,
		"matched", decision.IsMatched)
	return ClassifyDocumentOutput{Decision: decision}, nil
}

func (a *Activities) RecordDecisionActivity(ctx context.Context, in RecordDecisionInput) error {
	d := in.Decision
	d.RunID = in.RunID
	return a.runRepo.RecordDecision(ctx, in.LCID, d)
}

// FinalizeRunActivity writes the run's terminal status and, for a completed
// run, dumps its decisions as a JSONL audit artifact next to the batch
// artifact.
func (a *Activities) FinalizeRunActivity(ctx context.Context, in FinalizeRunInput) error {
	if err := a.runRepo.FinalizeRun(ctx, in.RunID, in.Status, in.MatchesFound, in.ErrorMessage); err != nil {
		return err
	}
	if in.Status != models.RunStatusCompleted || in.LCID == "" {
		return nil
	}
	decisions, err := a.runRepo.ListDecisions(ctx, in.RunID)
	if err != nil {
		return err
	}
	rows := make([]any, 0, len(decisions))
	for _, d := range decisions {
		rows = append(rows, d)
	}
	return util.WriteJSONLinesAtomic(filepath.Join(a.cfg.DataOutRoot, in.LCID, "classifications.jsonl"), rows)
}
