package workflows

import (
	"context"
	"errors"
	"strings"
	"testing"

	"lcflow/internal/activities"
	"lcflow/internal/classify"
	"lcflow/internal/models"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/testsuite"
)

func registerActivityName[T any](env *testsuite.TestWorkflowEnvironment, name string, fn T) {
	env.RegisterActivityWithOptions(fn, activity.RegisterOptions{Name: name})
}

func registerExportBatchStubs(env *testsuite.TestWorkflowEnvironment) {
	registerActivityName(env, "ListExportPDFsActivity", func(ctx context.Context, in activities.ListExportPDFsInput) (activities.ListExportPDFsOutput, error) {
		return activities.ListExportPDFsOutput{}, nil
	})
	registerActivityName(env, "ExtractExportDocActivity", func(ctx context.Context, in activities.ExtractExportDocInput) (activities.ExtractExportDocOutput, error) {
		return activities.ExtractExportDocOutput{}, nil
	})
	registerActivityName(env, "PersistExportDocActivity", func(ctx context.Context, in activities.PersistExportDocInput) (activities.PersistExportDocOutput, error) {
		return activities.PersistExportDocOutput{}, nil
	})
	registerActivityName(env, "WriteBatchArtifactActivity", func(ctx context.Context, in activities.WriteBatchArtifactInput) (activities.WriteBatchArtifactOutput, error) {
		return activities.WriteBatchArtifactOutput{}, nil
	})
}

func TestExportBatchWorkflow(t *testing.T) {
	var ts testsuite.WorkflowTestSuite
	env := ts.NewTestWorkflowEnvironment()
	env.RegisterWorkflow(ExportBatchWorkflow)
	registerExportBatchStubs(env)

	env.OnActivity("ListExportPDFsActivity", mock.Anything, mock.Anything).Return(
		activities.ListExportPDFsOutput{Paths: []string{"/in/lc1/a.pdf", "/in/lc1/b.pdf"}}, nil)
	env.OnActivity("ExtractExportDocActivity", mock.Anything, mock.Anything).Return(
		func(ctx context.Context, in activities.ExtractExportDocInput) (activities.ExtractExportDocOutput, error) {
			out := activities.ExtractExportDocOutput{
				Filename:        strings.TrimPrefix(in.Path, "/in/lc1/"),
				FileSizeBytes:   1024,
				DocumentName:    "Commercial Invoice",
				Summary:         "invoice summary",
				FullDescription: "full invoice text",
				Model:           "test-model",
			}
			if strings.HasSuffix(in.Path, "b.pdf") {
				out = activities.ExtractExportDocOutput{
					Filename:   "b.pdf",
					FailReason: "no JSON object found in completion",
				}
			}
			return out, nil
		})
	persisted := 0
	env.OnActivity("PersistExportDocActivity", mock.Anything, mock.Anything).Return(
		func(ctx context.Context, in activities.PersistExportDocInput) (activities.PersistExportDocOutput, error) {
			persisted++
			return activities.PersistExportDocOutput{DocumentID: "export_doc_00" + string(rune('0'+persisted))}, nil
		})
	var written activities.WriteBatchArtifactInput
	env.OnActivity("WriteBatchArtifactActivity", mock.Anything, mock.Anything).Return(
		func(ctx context.Context, in activities.WriteBatchArtifactInput) (activities.WriteBatchArtifactOutput, error) {
			written = in
			return activities.WriteBatchArtifactOutput{Path: "/out/lc1/export_docs.json"}, nil
		})

	env.ExecuteWorkflow(ExportBatchWorkflow, ExportBatchInput{LCID: "lc1", InputDir: "/in/lc1"})
	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var result ExportBatchResult
	require.NoError(t, env.GetWorkflowResult(&result))
	require.Equal(t, 2, result.Total)
	require.Equal(t, 1, result.Succeeded)
	require.Equal(t, 1, result.Failed)
	require.Equal(t, "/out/lc1/export_docs.json", result.ArtifactPath)

	// The failed document still lands in the artifact, with the failure
	// recorded instead of an extraction result.
	require.Equal(t, 2, persisted)
	require.Len(t, written.Artifact.Documents, 2)
	require.NotNil(t, written.Artifact.Documents[0].ExtractionResult)
	require.Empty(t, written.Artifact.Documents[0].Error)
	require.Nil(t, written.Artifact.Documents[1].ExtractionResult)
	require.Contains(t, written.Artifact.Documents[1].Error, "no JSON object found")
	require.Equal(t, "test-model", written.Artifact.ExtractionMetadata.Model)
}

func registerClassificationStubs(env *testsuite.TestWorkflowEnvironment) {
	registerActivityName(env, "LoadRequirementsActivity", func(ctx context.Context, in activities.LoadRequirementsInput) (activities.LoadRequirementsOutput, error) {
		return activities.LoadRequirementsOutput{}, nil
	})
	registerActivityName(env, "LoadExportDocsActivity", func(ctx context.Context, in activities.LoadExportDocsInput) (activities.LoadExportDocsOutput, error) {
		return activities.LoadExportDocsOutput{}, nil
	})
	registerActivityName(env, "CreateRunActivity", func(ctx context.Context, in activities.CreateRunInput) error {
		return nil
	})
	registerActivityName(env, "ClassifyDocumentActivity", func(ctx context.Context, in activities.ClassifyDocumentInput) (activities.ClassifyDocumentOutput, error) {
		return activities.ClassifyDocumentOutput{}, nil
	})
	registerActivityName(env, "RecordDecisionActivity", func(ctx context.Context, in activities.RecordDecisionInput) error {
		return nil
	})
	registerActivityName(env, "FinalizeRunActivity", func(ctx context.Context, in activities.FinalizeRunInput) error {
		return nil
	})
}

var classificationFixtures = struct {
	reqs []models.LCRequirement
	docs []models.ExportDocument
}{
	reqs: []models.LCRequirement{{RequirementID: "doc_001", Name: "Commercial Invoice"}},
	docs: []models.ExportDocument{
		{DocumentID: "export_doc_001", DocumentName: "Invoice"},
		{DocumentID: "export_doc_002", DocumentName: "Random Leaflet"},
	},
}

func TestClassificationRunWorkflow(t *testing.T) {
	var ts testsuite.WorkflowTestSuite
	env := ts.NewTestWorkflowEnvironment()
	env.RegisterWorkflow(ClassificationRunWorkflow)
	registerClassificationStubs(env)

	env.OnActivity("LoadRequirementsActivity", mock.Anything, mock.Anything).Return(
		activities.LoadRequirementsOutput{Requirements: classificationFixtures.reqs}, nil)
	env.OnActivity("LoadExportDocsActivity", mock.Anything, mock.Anything).Return(
		activities.LoadExportDocsOutput{Documents: classificationFixtures.docs}, nil)

	var createdRun models.ClassificationRun
	env.OnActivity("CreateRunActivity", mock.Anything, mock.Anything).Return(
		func(ctx context.Context, in activities.CreateRunInput) error {
			createdRun = in.Run
			return nil
		})
	env.OnActivity("ClassifyDocumentActivity", mock.Anything, mock.Anything).Return(
		func(ctx context.Context, in activities.ClassifyDocumentInput) (activities.ClassifyDocumentOutput, error) {
			d := classify.Decision{Confidence: 0.2, Reasoning: "not a requirement"}
			if in.Document.DocumentID == "export_doc_001" {
				d = classify.Decision{RequirementID: "doc_001", RequirementName: "Commercial Invoice", Confidence: 0.9, Reasoning: "invoice", IsMatched: true}
			}
			return activities.ClassifyDocumentOutput{Decision: d}, nil
		})
	var recorded []activities.RecordDecisionInput
	env.OnActivity("RecordDecisionActivity", mock.Anything, mock.Anything).Return(
		func(ctx context.Context, in activities.RecordDecisionInput) error {
			recorded = append(recorded, in)
			return nil
		})
	var finalized activities.FinalizeRunInput
	env.OnActivity("FinalizeRunActivity", mock.Anything, mock.Anything).Return(
		func(ctx context.Context, in activities.FinalizeRunInput) error {
			finalized = in
			return nil
		})

	env.ExecuteWorkflow(ClassificationRunWorkflow, ClassificationRunInput{LCID: "lc1", RunID: "run1", Model: "test-model"})
	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var result ClassificationRunResult
	require.NoError(t, env.GetWorkflowResult(&result))
	require.Equal(t, "run1", result.RunID)
	require.Equal(t, 2, result.TotalDocs)
	require.Equal(t, 1, result.MatchesFound)
	require.Equal(t, models.RunStatusCompleted, result.Status)

	require.Equal(t, "run1", createdRun.RunID)
	require.Equal(t, models.RunStatusRunning, createdRun.Status)
	require.Equal(t, 2, createdRun.TotalExportDocs)

	require.Len(t, recorded, 2)
	require.Equal(t, "export_doc_001", recorded[0].Decision.ExportDocumentID)
	require.True(t, recorded[0].Decision.IsMatched)
	require.False(t, recorded[1].Decision.IsMatched)

	// Finalization happens exactly once, after the last decision.
	require.Equal(t, "lc1", finalized.LCID)
	require.Equal(t, models.RunStatusCompleted, finalized.Status)
	require.Equal(t, 1, finalized.MatchesFound)
	require.Empty(t, finalized.ErrorMessage)
}

func TestClassificationRunWorkflowFailureFinalizesRun(t *testing.T) {
	var ts testsuite.WorkflowTestSuite
	env := ts.NewTestWorkflowEnvironment()
	env.RegisterWorkflow(ClassificationRunWorkflow)
	registerClassificationStubs(env)

	env.OnActivity("LoadRequirementsActivity", mock.Anything, mock.Anything).Return(
		activities.LoadRequirementsOutput{Requirements: classificationFixtures.reqs}, nil)
	env.OnActivity("LoadExportDocsActivity", mock.Anything, mock.Anything).Return(
		activities.LoadExportDocsOutput{Documents: classificationFixtures.docs}, nil)
	env.OnActivity("CreateRunActivity", mock.Anything, mock.Anything).Return(nil)
	env.OnActivity("ClassifyDocumentActivity", mock.Anything, mock.Anything).Return(
		activities.ClassifyDocumentOutput{Decision: classify.Decision{IsMatched: true, RequirementID: "doc_001"}}, nil)
	env.OnActivity("RecordDecisionActivity", mock.Anything, mock.Anything).Return(errors.New("database is down"))

	var finalized activities.FinalizeRunInput
	env.OnActivity("FinalizeRunActivity", mock.Anything, mock.Anything).Return(
		func(ctx context.Context, in activities.FinalizeRunInput) error {
			finalized = in
			return nil
		})

	env.ExecuteWorkflow(ClassificationRunWorkflow, ClassificationRunInput{LCID: "lc1", RunID: "run2"})
	require.True(t, env.IsWorkflowCompleted())
	require.Error(t, env.GetWorkflowError())

	require.Equal(t, models.RunStatusFailed, finalized.Status)
	require.Contains(t, finalized.ErrorMessage, "database is down")
}
