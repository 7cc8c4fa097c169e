package pdftext

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"lcflow/internal/util"
)

func TestExtractMissingFile(t *testing.T) {
	_, _, err := Extract(filepath.Join(t.TempDir(), "nope.pdf"))
	if !errors.Is(err, util.ErrFileNotFound) {
		t.Fatalf("expected ErrFileNotFound, got %v", err)
	}
}

func TestExtractRejectsNonPDF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fake.pdf")
	if err := os.WriteFile(path, []byte("plain text masquerading as a pdf"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, _, err := Extract(path); err == nil {
		t.Fatal("expected error for non-PDF bytes")
	}
}

func TestExtractBytesRejectsGarbage(t *testing.T) {
	if _, _, err := ExtractBytes([]byte("garbage")); err == nil {
		t.Fatal("expected error for non-PDF bytes")
	}
}

func TestPageCountNeverFails(t *testing.T) {
	if n := PageCount(filepath.Join(t.TempDir(), "missing.pdf")); n != 0 {
		t.Fatalf("PageCount on missing file = %d, want 0", n)
	}
}
