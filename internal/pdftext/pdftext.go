package pdftext

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"lcflow/internal/util"

	"github.com/ledongthuc/pdf"
	pdfcpu "github.com/pdfcpu/pdfcpu/pkg/api"
)

// Extract reads the text layer of a PDF file and returns page-delimited
// plain text plus the page count. Pages with no extractable text are
// skipped. Identical bytes always yield identical text.
func Extract(path string) (string, int, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return "", 0, fmt.Errorf("%w: %s", util.ErrFileNotFound, path)
		}
		return "", 0, fmt.Errorf("stat pdf: %w", err)
	}

	f, r, err := pdf.Open(path)
	if err != nil {
		return "", 0, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	text, err := assemble(r)
	if err != nil {
		return "", 0, err
	}
	return text, PageCount(path), nil
}

// ExtractBytes reads the text layer of an in-memory PDF. The page count is
// approximated from the page markers since no file is available for an
// independent count.
func ExtractBytes(data []byte) (string, int, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", 0, fmt.Errorf("open pdf bytes: %w", err)
	}
	text, err := assemble(r)
	if err != nil {
		return "", 0, err
	}
	return text, strings.Count(text, "--- Page "), nil
}

// PageCount counts pages independently of text extraction. A counting
// failure never fails the caller; it reports 0.
func PageCount(path string) int {
	n, err := pdfcpu.PageCountFile(path)
	if err != nil {
		return 0
	}
	return n
}

func assemble(r *pdf.Reader) (string, error) {
	parts := make([]string, 0, r.NumPage())
	for i := 1; i <= r.NumPage(); i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		pageText, err := p.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("extract text from page %d: %w", i, err)
		}
		if strings.TrimSpace(pageText) == "" {
			continue
		}
		parts = append(parts, fmt.Sprintf("--- Page %d ---\n%s\n", i, pageText))
	}
	return util.SanitizeText(strings.Join(parts, "\n")), nil
}
