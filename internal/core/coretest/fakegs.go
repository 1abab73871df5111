// Package coretest provides a stand-in for the Ghostscript binary so that
// compression paths can be exercised without Ghostscript installed.
package coretest

import (
	"os"
	"path/filepath"
	"testing"
)

// Behavior selects what the fake compressor does when invoked.
type Behavior string

const (
	// Copy writes the input file unchanged to the output path.
	Copy Behavior = "copy"
	// Fail prints to stderr and exits 1.
	Fail Behavior = "fail"
	// Hang sleeps far longer than any test timeout.
	Hang Behavior = "hang"
	// NoOutput exits 0 without writing anything.
	NoOutput Behavior = "no-output"
	// Inflate copies the input and appends 4 KiB, like Ghostscript does to
	// documents that are already small.
	Inflate Behavior = "inflate"
)

const argParser = `#!/bin/sh
out=""
in=""
prev=""
for a in "$@"; do
  case "$a" in
    -sOutputFile=*) out="${a#-sOutputFile=}" ;;
  esac
  if [ "$prev" = "-f" ]; then in="$a"; fi
  prev="$a"
done
`

var bodies = map[Behavior]string{
	Copy:     "cp \"$in\" \"$out\"\n",
	Fail:     "echo \"Error: /syntaxerror in --file--\" >&2\nexit 1\n",
	Hang:     "exec sleep 30\n",
	NoOutput: "exit 0\n",
	Inflate:  "cp \"$in\" \"$out\"\nhead -c 4096 /dev/zero >> \"$out\"\n",
}

// FakeGhostscript writes an executable script into a fresh temp directory and
// returns its path.
func FakeGhostscript(t *testing.T, behavior Behavior) string {
	t.Helper()

	body, ok := bodies[behavior]
	if !ok {
		t.Fatalf("unknown fake ghostscript behavior %q", behavior)
	}

	path := filepath.Join(t.TempDir(), "gs")
	if err := os.WriteFile(path, []byte(argParser+body), 0755); err != nil {
		t.Fatalf("failed to write fake ghostscript: %v", err)
	}
	return path
}

// MinimalPDF is a tiny but well-formed PDF document.
var MinimalPDF = []byte("%PDF-1.4\n" +
	"1 0 obj << /Type /Catalog /Pages 2 0 R >> endobj\n" +
	"2 0 obj << /Type /Pages /Kids [3 0 R] /Count 1 >> endobj\n" +
	"3 0 obj << /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] >> endobj\n" +
	"trailer << /Root 1 0 R >>\n" +
	"%%EOF\n")
