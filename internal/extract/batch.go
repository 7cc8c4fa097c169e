package extract

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"lcflow/internal/schema"
	"lcflow/internal/util"
)

// FileInfo describes the source file of one extracted document.
type FileInfo struct {
	Filename            string `json:"filename"`
	FilePath            string `json:"file_path"`
	FileSizeBytes       int64  `json:"file_size_bytes"`
	SHA256              string `json:"sha256,omitempty"`
	ExtractionTimestamp string `json:"extraction_timestamp"`
}

// BatchDocument is one entry in a batch artifact. Exactly one of
// ExtractionResult and Error is set.
type BatchDocument struct {
	DocumentID       string    `json:"document_id"`
	FileInfo         FileInfo  `json:"file_info"`
	ExtractionResult any       `json:"extraction_result"`
	Error            string    `json:"error,omitempty"`
}

// BatchMetadata summarizes one batch run.
type BatchMetadata struct {
	Timestamp       string `json:"timestamp"`
	Schema          string `json:"schema"`
	Model           string `json:"model"`
	TotalDocuments  int    `json:"total_documents"`
	Succeeded       int    `json:"succeeded"`
	Failed          int    `json:"failed"`
	SourceDirectory string `json:"source_directory"`
}

// BatchArtifact is the JSON document a batch run writes.
type BatchArtifact struct {
	ExtractionMetadata BatchMetadata   `json:"extraction_metadata"`
	Documents          []BatchDocument `json:"documents"`
}

// BatchExtractor extracts every PDF in a directory into one artifact.
// Files are processed in sorted filename order so document IDs are stable
// across runs over the same directory.
type BatchExtractor struct {
	extractor *Extractor
	idPrefix  string
}

func NewBatchExtractor(extractor *Extractor, idPrefix string) *BatchExtractor {
	if idPrefix == "" {
		idPrefix = "export_doc"
	}
	return &BatchExtractor{extractor: extractor, idPrefix: idPrefix}
}

// ExtractDir runs extraction over every .pdf in dir. A per-file failure is
// recorded on its document entry and never aborts the batch.
func (b *BatchExtractor) ExtractDir(ctx context.Context, dir string, s schema.Schema) (*BatchArtifact, error) {
	paths, err := ListPDFs(dir)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no PDF files found in %s", dir)
	}

	artifact := &BatchArtifact{
		ExtractionMetadata: BatchMetadata{
			Timestamp:       time.Now().UTC().Format(time.RFC3339),
			Schema:          string(s.Kind()),
			SourceDirectory: dir,
			TotalDocuments:  len(paths),
		},
		Documents: make([]BatchDocument, 0, len(paths)),
	}

	for i, path := range paths {
		doc := BatchDocument{
			DocumentID: DocumentID(b.idPrefix, i+1),
			FileInfo:   fileInfo(path),
		}
		res, err := b.extractor.ExtractFile(ctx, path, s)
		if err != nil {
			doc.Error = err.Error()
			artifact.ExtractionMetadata.Failed++
		} else {
			doc.ExtractionResult = res.Record
			artifact.ExtractionMetadata.Succeeded++
			if artifact.ExtractionMetadata.Model == "" {
				artifact.ExtractionMetadata.Model = res.Call.Model
			}
		}
		artifact.Documents = append(artifact.Documents, doc)
	}
	return artifact, nil
}

// Save writes the artifact atomically.
func (a *BatchArtifact) Save(path string) error {
	return util.WriteJSONAtomic(path, a)
}

// ListPDFs returns the .pdf files directly under dir, sorted by filename.
func ListPDFs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read directory %s: %w", dir, err)
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(e.Name()), ".pdf") {
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(paths)
	return paths, nil
}

// DocumentID builds the zero-padded natural key for the n-th document in a
// batch, counted from 1.
func DocumentID(prefix string, n int) string {
	return fmt.Sprintf("%s_%03d", prefix, n)
}

func fileInfo(path string) FileInfo {
	info := FileInfo{
		Filename:            filepath.Base(path),
		FilePath:            path,
		ExtractionTimestamp: time.Now().UTC().Format(time.RFC3339),
	}
	if data, err := os.ReadFile(path); err == nil {
		info.FileSizeBytes = int64(len(data))
		info.SHA256 = util.SHA256Hex(data)
	}
	return info
}
