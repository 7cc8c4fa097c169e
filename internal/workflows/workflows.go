package workflows

import (
	"path/filepath"
	"time"

	"lcflow/internal/activities"
	"lcflow/internal/extract"
	"lcflow/internal/models"
	"lcflow/internal/schema"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

const (
	QueryGetBatchProgress          = "GetBatchProgress"
	QueryGetClassificationProgress = "GetClassificationProgress"
)

// ExportBatchWorkflow extracts every PDF under the input directory into an
// export document row plus a batch artifact on disk. One failing document
// is persisted with a failure marker and the batch keeps going.
func ExportBatchWorkflow(ctx workflow.Context, input ExportBatchInput) (ExportBatchResult, error) {
	progress := ExportBatchProgress{
		LCID:        input.LCID,
		PerDocument: map[string]string{},
	}
	if err := workflow.SetQueryHandler(ctx, QueryGetBatchProgress, func() (ExportBatchProgress, error) {
		return progress, nil
	}); err != nil {
		return ExportBatchResult{}, err
	}

	ao := workflow.ActivityOptions{
		StartToCloseTimeout: 10 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    2 * time.Second,
			BackoffCoefficient: 2,
			MaximumInterval:    30 * time.Second,
			MaximumAttempts:    3,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, ao)

	var listOut activities.ListExportPDFsOutput
	if err := workflow.ExecuteActivity(ctx, "ListExportPDFsActivity", activities.ListExportPDFsInput{InputDir: input.InputDir}).Get(ctx, &listOut); err != nil {
		return ExportBatchResult{}, err
	}
	progress.Total = len(listOut.Paths)

	artifact := extract.BatchArtifact{
		ExtractionMetadata: extract.BatchMetadata{
			Timestamp:       workflow.Now(ctx).UTC().Format(time.RFC3339),
			Schema:          string(schema.KindSimple),
			SourceDirectory: input.InputDir,
			TotalDocuments:  len(listOut.Paths),
		},
		Documents: make([]extract.BatchDocument, 0, len(listOut.Paths)),
	}

	for _, path := range listOut.Paths {
		progress.PerDocument[path] = "extracting"

		var extOut activities.ExtractExportDocOutput
		if err := workflow.ExecuteActivity(ctx, "ExtractExportDocActivity", activities.ExtractExportDocInput{Path: path}).Get(ctx, &extOut); err != nil {
			extOut = activities.ExtractExportDocOutput{
				Filename:   filepath.Base(path),
				FailReason: err.Error(),
			}
		}

		var persistOut activities.PersistExportDocOutput
		if err := workflow.ExecuteActivity(ctx, "PersistExportDocActivity", activities.PersistExportDocInput{
			LCID: input.LCID,
			Doc:  extOut,
			Path: path,
		}).Get(ctx, &persistOut); err != nil {
			return ExportBatchResult{}, err
		}

		doc := extract.BatchDocument{
			DocumentID: persistOut.DocumentID,
			FileInfo: extract.FileInfo{
				Filename:            extOut.Filename,
				FilePath:            path,
				FileSizeBytes:       extOut.FileSizeBytes,
				SHA256:              extOut.SHA256,
				ExtractionTimestamp: workflow.Now(ctx).UTC().Format(time.RFC3339),
			},
		}
		if extOut.FailReason != "" {
			doc.Error = extOut.FailReason
			progress.Failed++
			progress.PerDocument[path] = "failed"
		} else {
			doc.ExtractionResult = schema.SimpleDocumentAnalysis{
				DocumentName:    extOut.DocumentName,
				Summary:         extOut.Summary,
				FullDescription: extOut.FullDescription,
			}
			artifact.ExtractionMetadata.Succeeded++
			if artifact.ExtractionMetadata.Model == "" {
				artifact.ExtractionMetadata.Model = extOut.Model
			}
			progress.PerDocument[path] = "done"
		}
		progress.Done++
		artifact.Documents = append(artifact.Documents, doc)
	}
	artifact.ExtractionMetadata.Failed = progress.Failed

	var artifactOut activities.WriteBatchArtifactOutput
	if err := workflow.ExecuteActivity(ctx, "WriteBatchArtifactActivity", activities.WriteBatchArtifactInput{
		LCID:     input.LCID,
		Artifact: artifact,
	}).Get(ctx, &artifactOut); err != nil {
		return ExportBatchResult{}, err
	}

	return ExportBatchResult{
		LCID:         input.LCID,
		Total:        progress.Total,
		Succeeded:    artifact.ExtractionMetadata.Succeeded,
		Failed:       progress.Failed,
		ArtifactPath: artifactOut.Path,
	}, nil
}

// ClassificationRunWorkflow classifies every export document of an LC in a
// plain loop with an explicit cursor. The cursor only advances after a
// decision is recorded, so a replay resumes exactly where it stopped. The
// run's terminal status is written exactly once, as the last mutation.
func ClassificationRunWorkflow(ctx workflow.Context, input ClassificationRunInput) (ClassificationRunResult, error) {
	progress := ClassificationProgress{
		RunID:       input.RunID,
		LCID:        input.LCID,
		PerDocument: map[string]bool{},
	}
	if err := workflow.SetQueryHandler(ctx, QueryGetClassificationProgress, func() (ClassificationProgress, error) {
		return progress, nil
	}); err != nil {
		return ClassificationRunResult{}, err
	}

	ao := workflow.ActivityOptions{
		StartToCloseTimeout: 10 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    2 * time.Second,
			BackoffCoefficient: 2,
			MaximumInterval:    30 * time.Second,
			MaximumAttempts:    3,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, ao)

	var reqsOut activities.LoadRequirementsOutput
	if err := workflow.ExecuteActivity(ctx, "LoadRequirementsActivity", activities.LoadRequirementsInput{LCID: input.LCID}).Get(ctx, &reqsOut); err != nil {
		return ClassificationRunResult{}, err
	}
	var docsOut activities.LoadExportDocsOutput
	if err := workflow.ExecuteActivity(ctx, "LoadExportDocsActivity", activities.LoadExportDocsInput{LCID: input.LCID}).Get(ctx, &docsOut); err != nil {
		return ClassificationRunResult{}, err
	}
	docs := docsOut.Documents
	progress.Total = len(docs)

	if err := workflow.ExecuteActivity(ctx, "CreateRunActivity", activities.CreateRunInput{
		Run: models.ClassificationRun{
			RunID:               input.RunID,
			LCID:                input.LCID,
			TotalExportDocs:     len(docs),
			TotalLCRequirements: len(reqsOut.Requirements),
			ModelUsed:           input.Model,
			Status:              models.RunStatusRunning,
		},
	}).Get(ctx, nil); err != nil {
		return ClassificationRunResult{}, err
	}

	matches := 0
	for i := progress.Cursor; i < len(docs); i++ {
		doc := docs[i]

		var clsOut activities.ClassifyDocumentOutput
		if err := workflow.ExecuteActivity(ctx, "ClassifyDocumentActivity", activities.ClassifyDocumentInput{
			Document:     doc,
			Requirements: reqsOut.Requirements,
		}).Get(ctx, &clsOut); err != nil {
			return failRun(ctx, input, matches, err)
		}
		d := clsOut.Decision

		if err := workflow.ExecuteActivity(ctx, "RecordDecisionActivity", activities.RecordDecisionInput{
			LCID:  input.LCID,
			RunID: input.RunID,
			Decision: models.ClassificationDecision{
				ExportDocumentID: doc.DocumentID,
				RequirementID:    d.RequirementID,
				ConfidenceScore:  d.Confidence,
				Reasoning:        d.Reasoning,
				IsMatched:        d.IsMatched,
			},
		}).Get(ctx, nil); err != nil {
			return failRun(ctx, input, matches, err)
		}

		if d.IsMatched {
			matches++
		}
		progress.Matches = matches
		progress.PerDocument[doc.DocumentID] = d.IsMatched
		progress.Cursor = i + 1
	}

	if err := workflow.ExecuteActivity(ctx, "FinalizeRunActivity", activities.FinalizeRunInput{
		LCID:         input.LCID,
		RunID:        input.RunID,
		Status:       models.RunStatusCompleted,
		MatchesFound: matches,
	}).Get(ctx, nil); err != nil {
		return ClassificationRunResult{}, err
	}

	return ClassificationRunResult{
		RunID:        input.RunID,
		TotalDocs:    len(docs),
		MatchesFound: matches,
		Status:       models.RunStatusCompleted,
	}, nil
}

func failRun(ctx workflow.Context, input ClassificationRunInput, matches int, cause error) (ClassificationRunResult, error) {
	_ = workflow.ExecuteActivity(ctx, "FinalizeRunActivity", activities.FinalizeRunInput{
		LCID:         input.LCID,
		RunID:        input.RunID,
		Status:       models.RunStatusFailed,
		MatchesFound: matches,
		ErrorMessage: cause.Error(),
	}).Get(ctx, nil)
	return ClassificationRunResult{}, cause
}
