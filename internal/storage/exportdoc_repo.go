package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"lcflow/internal/models"
)

type ExportDocRepo struct {
	db *DB
}

func NewExportDocRepo(db *DB) *ExportDocRepo {
	return &ExportDocRepo{db: db}
}

const exportDocColumns = `lc_id::text, document_id, filename, COALESCE(file_path,''),
  file_size_bytes, COALESCE(document_name,''), COALESCE(summary,''), COALESCE(full_description,''),
  extraction_timestamp, COALESCE(matched_requirement_id,''), confidence_score,
  COALESCE(reasoning,''), is_matched, created_at, updated_at`

func scanExportDoc(row pgx.Row) (models.ExportDocument, error) {
	var d models.ExportDocument
	err := row.Scan(
		&d.LCID, &d.DocumentID, &d.Filename, &d.FilePath,
		&d.FileSizeBytes, &d.DocumentName, &d.Summary, &d.FullDescription,
		&d.ExtractionTimestamp, &d.MatchedRequirementID, &d.ConfidenceScore,
		&d.Reasoning, &d.IsMatched, &d.CreatedAt, &d.UpdatedAt,
	)
	return d, err
}

// InsertExportDoc stores a new export document under the LC and assigns the
// next export_doc_NNN id. The LC row is locked so concurrent inserts cannot
// claim the same number.
func (r *ExportDocRepo) InsertExportDoc(ctx context.Context, doc models.ExportDocument) (string, error) {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return "", fmt.Errorf("begin insert export doc: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`SELECT 1 FROM letters_of_credit WHERE lc_id=$1 FOR UPDATE`, doc.LCID); err != nil {
		return "", fmt.Errorf("lock lc for export doc insert: %w", err)
	}

	var count int
	if err := tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM export_documents WHERE lc_id=$1`, doc.LCID).Scan(&count); err != nil {
		return "", fmt.Errorf("count export docs: %w", err)
	}
	docID := fmt.Sprintf("export_doc_%03d", count+1)

	var extractedAt *time.Time
	if !doc.ExtractionTimestamp.IsZero() {
		extractedAt = &doc.ExtractionTimestamp
	}
	if _, err := tx.Exec(ctx, `
INSERT INTO export_documents (
  lc_id, document_id, filename, file_path, file_size_bytes,
  document_name, summary, full_description, extraction_timestamp
) VALUES ($1, $2, $3, NULLIF($4,''), $5, NULLIF($6,''), NULLIF($7,''), NULLIF($8,''), COALESCE($9, NOW()))`,
		doc.LCID, docID, doc.Filename, doc.FilePath, doc.FileSizeBytes,
		doc.DocumentName, doc.Summary, doc.FullDescription, extractedAt,
	); err != nil {
		return "", fmt.Errorf("insert export doc: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return "", fmt.Errorf("commit insert export doc: %w", err)
	}
	return docID, nil
}

func (r *ExportDocRepo) GetExportDoc(ctx context.Context, lcID, documentID string) (models.ExportDocument, error) {
	d, err := scanExportDoc(r.db.Pool.QueryRow(ctx,
		`SELECT `+exportDocColumns+` FROM export_documents WHERE lc_id=$1 AND document_id=$2`,
		lcID, documentID))
	if err != nil {
		return models.ExportDocument{}, fmt.Errorf("get export doc: %w", err)
	}
	return d, nil
}

func (r *ExportDocRepo) ListExportDocs(ctx context.Context, lcID string) ([]models.ExportDocument, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT `+exportDocColumns+` FROM export_documents WHERE lc_id=$1 ORDER BY document_id`, lcID)
	if err != nil {
		return nil, fmt.Errorf("list export docs: %w", err)
	}
	defer rows.Close()

	out := make([]models.ExportDocument, 0)
	for rows.Next() {
		d, err := scanExportDoc(rows)
		if err != nil {
			return nil, fmt.Errorf("scan export doc: %w", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate export docs: %w", err)
	}
	return out, nil
}
