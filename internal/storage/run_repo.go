package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"lcflow/internal/models"
)

// ErrNoRuns is returned when an LC has no classification runs yet.
var ErrNoRuns = errors.New("no classification runs for this lc")

type RunRepo struct {
	db *DB
}

func NewRunRepo(db *DB) *RunRepo {
	return &RunRepo{db: db}
}

func (r *RunRepo) CreateRun(ctx context.Context, run models.ClassificationRun) error {
	_, err := r.db.Pool.Exec(ctx, `
INSERT INTO classification_runs (run_id, lc_id, total_export_docs, total_lc_requirements, model_used, status)
VALUES ($1, $2, $3, $4, NULLIF($5,''), $6)`,
		run.RunID, run.LCID, run.TotalExportDocs, run.TotalLCRequirements, run.ModelUsed, run.Status,
	)
	if err != nil {
		return fmt.Errorf("create classification run: %w", err)
	}
	return nil
}

// RecordDecision stores one verdict and refreshes the export document's
// denormalized classification fields in the same transaction. Recording the
// same (run, document) pair again replaces the earlier verdict, which makes
// a replayed activity harmless.
func (r *RunRepo) RecordDecision(ctx context.Context, lcID string, d models.ClassificationDecision) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin record decision: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `
INSERT INTO classifications (run_id, export_document_id, lc_requirement_id, confidence_score, reasoning, is_matched)
VALUES ($1, $2, NULLIF($3,''), $4, NULLIF($5,''), $6)
ON CONFLICT (run_id, export_document_id)
DO UPDATE SET
  lc_requirement_id = EXCLUDED.lc_requirement_id,
  confidence_score = EXCLUDED.confidence_score,
  reasoning = EXCLUDED.reasoning,
  is_matched = EXCLUDED.is_matched,
  decided_at = NOW()`,
		d.RunID, d.ExportDocumentID, d.RequirementID, d.ConfidenceScore, d.Reasoning, d.IsMatched,
	); err != nil {
		return fmt.Errorf("insert classification: %w", err)
	}

	if _, err := tx.Exec(ctx, `
UPDATE export_documents SET
  matched_requirement_id = NULLIF($3,''),
  confidence_score = $4,
  reasoning = NULLIF($5,''),
  is_matched = $6,
  updated_at = NOW()
WHERE lc_id=$1 AND document_id=$2`,
		lcID, d.ExportDocumentID, d.RequirementID, d.ConfidenceScore, d.Reasoning, d.IsMatched,
	); err != nil {
		return fmt.Errorf("denormalize classification: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit record decision: %w", err)
	}
	return nil
}

// FinalizeRun is the run's single terminal mutation: status, match count
// and error message land together.
func (r *RunRepo) FinalizeRun(ctx context.Context, runID, status string, matches int, errorMessage string) error {
	_, err := r.db.Pool.Exec(ctx, `
UPDATE classification_runs
SET status=$2, total_matches_found=$3, error_message=NULLIF($4,'')
WHERE run_id=$1`,
		runID, status, matches, errorMessage,
	)
	if err != nil {
		return fmt.Errorf("finalize run: %w", err)
	}
	return nil
}

// Reset removes all classification state for an LC and clears the
// denormalized fields on its export documents. Running it twice is safe;
// the second call reports zero counts.
func (r *RunRepo) Reset(ctx context.Context, lcID string) (models.ResetResult, error) {
	var result models.ResetResult

	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return result, fmt.Errorf("begin reset: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
DELETE FROM classifications
WHERE run_id IN (SELECT run_id FROM classification_runs WHERE lc_id=$1)`, lcID)
	if err != nil {
		return result, fmt.Errorf("delete classifications: %w", err)
	}
	result.ClassificationsDeleted = int(tag.RowsAffected())

	tag, err = tx.Exec(ctx, `DELETE FROM classification_runs WHERE lc_id=$1`, lcID)
	if err != nil {
		return result, fmt.Errorf("delete classification runs: %w", err)
	}
	result.ClassificationRunsDeleted = int(tag.RowsAffected())

	tag, err = tx.Exec(ctx, `
UPDATE export_documents SET
  matched_requirement_id = NULL,
  confidence_score = NULL,
  reasoning = NULL,
  is_matched = FALSE,
  updated_at = NOW()
WHERE lc_id=$1
  AND (matched_requirement_id IS NOT NULL OR confidence_score IS NOT NULL OR reasoning IS NOT NULL OR is_matched)`,
		lcID)
	if err != nil {
		return result, fmt.Errorf("reset export documents: %w", err)
	}
	result.ExportDocumentsReset = int(tag.RowsAffected())

	if err := tx.Commit(ctx); err != nil {
		return result, fmt.Errorf("commit reset: %w", err)
	}
	return result, nil
}

func (r *RunRepo) LatestRun(ctx context.Context, lcID string) (models.ClassificationRun, error) {
	var run models.ClassificationRun
	err := r.db.Pool.QueryRow(ctx, `
SELECT run_id::text, lc_id::text, total_export_docs, total_lc_requirements, total_matches_found,
       COALESCE(model_used,''), status, COALESCE(error_message,''), run_timestamp
FROM classification_runs
WHERE lc_id=$1
ORDER BY run_timestamp DESC
LIMIT 1`, lcID).Scan(
		&run.RunID, &run.LCID, &run.TotalExportDocs, &run.TotalLCRequirements, &run.TotalMatchesFound,
		&run.ModelUsed, &run.Status, &run.ErrorMessage, &run.RunTimestamp,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.ClassificationRun{}, ErrNoRuns
	}
	if err != nil {
		return models.ClassificationRun{}, fmt.Errorf("get latest run: %w", err)
	}
	return run, nil
}

func (r *RunRepo) ListDecisions(ctx context.Context, runID string) ([]models.ClassificationDecision, error) {
	rows, err := r.db.Pool.Query(ctx, `
SELECT run_id::text, export_document_id, COALESCE(lc_requirement_id,''), confidence_score,
       COALESCE(reasoning,''), is_matched, decided_at
FROM classifications
WHERE run_id=$1
ORDER BY export_document_id`, runID)
	if err != nil {
		return nil, fmt.Errorf("list decisions: %w", err)
	}
	defer rows.Close()

	out := make([]models.ClassificationDecision, 0)
	for rows.Next() {
		var d models.ClassificationDecision
		if err := rows.Scan(&d.RunID, &d.ExportDocumentID, &d.RequirementID, &d.ConfidenceScore,
			&d.Reasoning, &d.IsMatched, &d.DecidedAt); err != nil {
			return nil, fmt.Errorf("scan decision: %w", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate decisions: %w", err)
	}
	return out, nil
}

// RequirementSummary reports, for one requirement, which export documents
// currently match it according to the denormalized fields.
type RequirementSummary struct {
	RequirementID string   `json:"requirement_id"`
	Name          string   `json:"name"`
	Quantity      int      `json:"quantity"`
	MatchedDocs   []string `json:"matched_documents"`
}

// Summarize groups the LC's export documents by the requirement they
// matched. Requirements with no matches appear with an empty list.
func (r *RunRepo) Summarize(ctx context.Context, lcID string) ([]RequirementSummary, error) {
	rows, err := r.db.Pool.Query(ctx, `
SELECT req.requirement_id, req.name, req.quantity,
       COALESCE(array_agg(doc.document_id ORDER BY doc.document_id)
                FILTER (WHERE doc.document_id IS NOT NULL), '{}')
FROM lc_requirements req
LEFT JOIN export_documents doc
  ON doc.lc_id = req.lc_id
 AND doc.matched_requirement_id = req.requirement_id
 AND doc.is_matched
WHERE req.lc_id=$1
GROUP BY req.requirement_id, req.name, req.quantity
ORDER BY req.requirement_id`, lcID)
	if err != nil {
		return nil, fmt.Errorf("summarize classifications: %w", err)
	}
	defer rows.Close()

	out := make([]RequirementSummary, 0)
	for rows.Next() {
		var s RequirementSummary
		if err := rows.Scan(&s.RequirementID, &s.Name, &s.Quantity, &s.MatchedDocs); err != nil {
			return nil, fmt.Errorf("scan summary: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate summary: %w", err)
	}
	return out, nil
}
