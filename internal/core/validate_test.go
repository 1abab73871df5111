package core

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"pdfpress/internal/core/coretest"
)

func assertValidationKind(t *testing.T, err error, kind ValidationKind) {
	t.Helper()
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %T (%v)", err, err)
	}
	if verr.Kind != kind {
		t.Errorf("expected kind %s, got %s", kind, verr.Kind)
	}
}

func TestValidator_Validate(t *testing.T) {
	v := NewValidator(1024)

	t.Run("accepts a minimal PDF", func(t *testing.T) {
		upload, err := v.Validate("report.pdf", coretest.MinimalPDF)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if upload.Filename != "report.pdf" {
			t.Errorf("expected filename report.pdf, got %s", upload.Filename)
		}
		if upload.Size != int64(len(coretest.MinimalPDF)) {
			t.Errorf("expected size %d, got %d", len(coretest.MinimalPDF), upload.Size)
		}
	})

	t.Run("extension check is case-insensitive", func(t *testing.T) {
		if _, err := v.Validate("SCAN.PDF", coretest.MinimalPDF); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("non-PDF bytes fail regardless of extension", func(t *testing.T) {
		inputs := [][]byte{
			[]byte("MZ\x90\x00\x03\x00\x00\x00"),
			[]byte("PK\x03\x04zipdata"),
			[]byte("hello world"),
			[]byte("<html><body>hi</body></html>"),
			{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'},
		}
		names := []string{"evil.pdf", "evil.exe", "notes.txt", "noext"}

		for _, data := range inputs {
			for _, name := range names {
				_, err := v.Validate(name, data)
				assertValidationKind(t, err, BadMagicBytes)
			}
		}
	})

	t.Run("pdf header must be at offset zero", func(t *testing.T) {
		tests := []struct {
			name string
			data []byte
		}{
			{"leading newline", []byte("\n%PDF-1.4\n%%EOF\n")},
			{"utf-8 bom", append([]byte{0xEF, 0xBB, 0xBF}, coretest.MinimalPDF...)},
			{"leading space", append([]byte(" "), coretest.MinimalPDF...)},
			{"lowercase header", []byte("%pdf-1.4\n%%EOF\n")},
			{"truncated header", []byte("%PDF")},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := v.Validate("doc.pdf", tt.data)
				assertValidationKind(t, err, BadMagicBytes)
			})
		}
	})

	t.Run("empty file fails magic check", func(t *testing.T) {
		_, err := v.Validate("empty.pdf", nil)
		assertValidationKind(t, err, BadMagicBytes)
	})

	t.Run("oversize fails before content checks", func(t *testing.T) {
		big := append(bytes.Clone(coretest.MinimalPDF), bytes.Repeat([]byte("x"), 2048)...)
		_, err := v.Validate("big.pdf", big)
		assertValidationKind(t, err, TooLarge)

		junk := bytes.Repeat([]byte("x"), 2048)
		_, err = v.Validate("junk.exe", junk)
		assertValidationKind(t, err, TooLarge)
	})

	t.Run("size at the limit is accepted", func(t *testing.T) {
		exact := append(bytes.Clone(coretest.MinimalPDF), bytes.Repeat([]byte(" "), 1024-len(coretest.MinimalPDF))...)
		if _, err := v.Validate("exact.pdf", exact); err != nil {
			t.Errorf("unexpected error at exact limit: %v", err)
		}
	})

	t.Run("PDF content with wrong extension", func(t *testing.T) {
		_, err := v.Validate("report.txt", coretest.MinimalPDF)
		assertValidationKind(t, err, BadExtension)
	})

	t.Run("path components are stripped", func(t *testing.T) {
		upload, err := v.Validate("../../etc/report.pdf", coretest.MinimalPDF)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if upload.Filename != "report.pdf" {
			t.Errorf("expected report.pdf, got %s", upload.Filename)
		}
	})
}

func TestValidator_CheckSize(t *testing.T) {
	v := NewValidator(100)
	if err := v.CheckSize(100); err != nil {
		t.Errorf("unexpected error at limit: %v", err)
	}
	assertValidationKind(t, v.CheckSize(101), TooLarge)
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"simple name", "file.pdf", "file.pdf"},
		{"strips directory", "/path/to/file.pdf", "file.pdf"},
		{"strips windows path", "C:\\Users\\test\\file.pdf", "file.pdf"},
		{"empty name", "", "document.pdf"},
		{"dot name", ".", "document.pdf"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := SanitizeFilename(tt.input)
			if result != tt.expected {
				t.Errorf("SanitizeFilename(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestSanitizeFilename_Long(t *testing.T) {
	t.Run("keeps extension when truncating", func(t *testing.T) {
		got := SanitizeFilename(strings.Repeat("a", 300) + ".pdf")
		if len(got) != 255 {
			t.Errorf("expected 255 bytes, got %d", len(got))
		}
		if !strings.HasSuffix(got, ".pdf") {
			t.Errorf("expected .pdf suffix, got %q", got[len(got)-8:])
		}
	})

	t.Run("oversized extension does not panic", func(t *testing.T) {
		got := SanitizeFilename("x." + strings.Repeat("e", 300))
		if len(got) > 255 {
			t.Errorf("expected at most 255 bytes, got %d", len(got))
		}
	})

	t.Run("does not split multibyte runes", func(t *testing.T) {
		got := SanitizeFilename(strings.Repeat("é", 200) + ".pdf")
		if !utf8.ValidString(got) {
			t.Errorf("result is not valid UTF-8: %q", got)
		}
		if len(got) > 255 || !strings.HasSuffix(got, ".pdf") {
			t.Errorf("unexpected result %q (%d bytes)", got, len(got))
		}
	})
}

func TestDownloadName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"report.pdf", "report_compressed.pdf"},
		{"Annual Report.PDF", "Annual Report_compressed.pdf"},
		{"", "document_compressed.pdf"},
		{"dir/.pdf", "document_compressed.pdf"},
	}

	for _, tt := range tests {
		if got := DownloadName(tt.input); got != tt.expected {
			t.Errorf("DownloadName(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}
