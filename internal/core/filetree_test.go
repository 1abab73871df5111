package core

import (
	"path/filepath"
	"testing"
)

func TestCollectPDFs(t *testing.T) {
	t.Run("walks directories for pdf files", func(t *testing.T) {
		root := writeFiles(t, map[string]string{
			"a.pdf":                   "%PDF-1.4",
			"notes.txt":               "text",
			"nested/b.PDF":            "%PDF-1.4",
			"nested/c_compressed.pdf": "%PDF-1.4",
			".pdfpress-123.pdf":       "%PDF-1.4",
		})

		files, err := CollectPDFs([]Target{{Path: root, IsDir: true}})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		expected := []string{
			filepath.Join(root, "a.pdf"),
			filepath.Join(root, "nested", "b.PDF"),
		}
		if len(files) != len(expected) {
			t.Fatalf("expected %d files, got %d: %v", len(expected), len(files), files)
		}
		for i := range expected {
			if files[i] != expected[i] {
				t.Errorf("file %d: expected %s, got %s", i, expected[i], files[i])
			}
		}
	})

	t.Run("keeps named files and deduplicates", func(t *testing.T) {
		root := writeFiles(t, map[string]string{"doc.pdf": "%PDF-1.4"})
		file := filepath.Join(root, "doc.pdf")

		files, err := CollectPDFs([]Target{
			{Path: file},
			{Path: root, IsDir: true},
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(files) != 1 || files[0] != file {
			t.Errorf("expected [%s], got %v", file, files)
		}
	})

	t.Run("directory without pdfs is an error", func(t *testing.T) {
		root := writeFiles(t, map[string]string{"notes.txt": "text"})

		if _, err := CollectPDFs([]Target{{Path: root, IsDir: true}}); err == nil {
			t.Error("expected error when no PDFs are found")
		}
	})
}

func TestIsCompressedName(t *testing.T) {
	tests := []struct {
		name     string
		expected bool
	}{
		{"report.pdf", false},
		{"report_compressed.pdf", true},
		{"REPORT_COMPRESSED.PDF", true},
		{"compressed.pdf", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsCompressedName(tt.name); got != tt.expected {
				t.Errorf("IsCompressedName(%q) = %v, want %v", tt.name, got, tt.expected)
			}
		})
	}
}
