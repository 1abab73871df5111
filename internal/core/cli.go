package core

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ArgError reports a command-line path that cannot be used.
type ArgError struct {
	Arg   string
	Cause string
}

func (e *ArgError) Error() string {
	return fmt.Sprintf("invalid argument %q: %s", e.Arg, e.Cause)
}

// Target is a command-line argument resolved to a PDF file or a directory
// to scan for PDFs.
type Target struct {
	Path  string
	IsDir bool
}

// ResolveTargets checks every argument up front so that a typo fails the
// whole run before any file is compressed. Files must carry a .pdf
// extension and must not be the output of an earlier run.
func ResolveTargets(args []string) ([]Target, error) {
	if len(args) == 0 {
		return nil, &ArgError{Arg: "<files>", Cause: "no files provided"}
	}

	targets := make([]Target, 0, len(args))
	for _, raw := range args {
		p := filepath.Clean(raw)
		info, err := os.Stat(p)
		if err != nil {
			return nil, &ArgError{Arg: raw, Cause: "not found or not accessible"}
		}

		switch {
		case info.IsDir():
			targets = append(targets, Target{Path: p, IsDir: true})
		case !info.Mode().IsRegular():
			return nil, &ArgError{Arg: raw, Cause: "not a regular file"}
		case !strings.EqualFold(filepath.Ext(p), ".pdf"):
			return nil, &ArgError{Arg: raw, Cause: "not a .pdf file"}
		case IsCompressedName(filepath.Base(p)):
			return nil, &ArgError{Arg: raw, Cause: "already a compressed copy"}
		default:
			targets = append(targets, Target{Path: p})
		}
	}

	return targets, nil
}
