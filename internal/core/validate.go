package core

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
)

// ValidationKind classifies why an upload was rejected.
type ValidationKind string

const (
	BadExtension  ValidationKind = "bad_extension"
	TooLarge      ValidationKind = "too_large"
	BadMagicBytes ValidationKind = "bad_magic_bytes"
)

// ValidationError is returned when an upload fails a type or size check.
type ValidationError struct {
	Kind   ValidationKind
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid upload (%s): %s", e.Kind, e.Reason)
}

// PDFMimeType is the content type every accepted upload must sniff as.
const PDFMimeType = "application/pdf"

// PDFMagic is the prefix every accepted upload must start with.
var PDFMagic = []byte("%PDF-")

// maxFilenameBytes caps sanitized filenames.
const maxFilenameBytes = 255

// Upload is a PDF that passed validation.
type Upload struct {
	Filename string
	Size     int64
	Data     []byte
}

// Validator enforces the size and type rules for inbound PDFs.
type Validator struct {
	MaxSize int64
}

// NewValidator creates a validator accepting files up to maxSize bytes.
func NewValidator(maxSize int64) *Validator {
	return &Validator{MaxSize: maxSize}
}

// CheckSize rejects a declared size above the limit. It lets callers fail
// before reading a body into memory.
func (v *Validator) CheckSize(size int64) error {
	if size > v.MaxSize {
		return &ValidationError{
			Kind:   TooLarge,
			Reason: fmt.Sprintf("file exceeds the maximum size of %d bytes", v.MaxSize),
		}
	}
	return nil
}

// Validate checks size, magic bytes and extension, in that order.
func (v *Validator) Validate(filename string, data []byte) (*Upload, error) {
	if err := v.CheckSize(int64(len(data))); err != nil {
		return nil, err
	}

	if len(data) == 0 {
		return nil, &ValidationError{Kind: BadMagicBytes, Reason: "file is empty"}
	}
	// mimetype also matches a PDF header behind a BOM or leading newline, so
	// the prefix check decides and the sniff only confirms.
	if !bytes.HasPrefix(data, PDFMagic) || !mimetype.Detect(data).Is(PDFMimeType) {
		return nil, &ValidationError{Kind: BadMagicBytes, Reason: "content is not a PDF document"}
	}

	if !strings.EqualFold(filepath.Ext(normalizeSeparators(filename)), ".pdf") {
		return nil, &ValidationError{Kind: BadExtension, Reason: "only .pdf files are accepted"}
	}

	return &Upload{
		Filename: SanitizeFilename(filename),
		Size:     int64(len(data)),
		Data:     data,
	}, nil
}

func normalizeSeparators(name string) string {
	return strings.ReplaceAll(name, "\\", "/")
}

// SanitizeFilename strips directory components and limits length.
func SanitizeFilename(name string) string {
	name = filepath.Base(normalizeSeparators(name))

	if len(name) > maxFilenameBytes {
		ext := filepath.Ext(name)
		if len(ext) > maxFilenameBytes/2 {
			ext = ""
		}
		name = truncateUTF8(strings.TrimSuffix(name, ext), maxFilenameBytes-len(ext)) + ext
	}

	if name == "" || name == "." || name == "/" {
		name = "document.pdf"
	}

	return name
}

// truncateUTF8 shortens s to at most n bytes without splitting a rune.
func truncateUTF8(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// DownloadName derives the attachment name for a compressed copy.
func DownloadName(original string) string {
	base := SanitizeFilename(original)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if stem == "" {
		stem = "document"
	}
	return stem + "_compressed.pdf"
}
