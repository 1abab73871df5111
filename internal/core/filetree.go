package core

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
)

// CollectPDFs expands targets into the list of PDF files to process.
// Directories are walked for *.pdf entries, skipping hidden files and
// earlier outputs.
func CollectPDFs(targets []Target) ([]string, error) {
	seen := make(map[string]bool)
	var files []string

	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			files = append(files, p)
		}
	}

	for _, target := range targets {
		if !target.IsDir {
			add(target.Path)
			continue
		}

		var found []string
		err := filepath.WalkDir(target.Path, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			if strings.HasPrefix(d.Name(), ".") {
				return nil
			}
			if strings.EqualFold(filepath.Ext(d.Name()), ".pdf") && !IsCompressedName(d.Name()) {
				found = append(found, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to walk %s: %w", target.Path, err)
		}

		sort.Strings(found)
		for _, p := range found {
			add(p)
		}
	}

	if len(files) == 0 {
		return nil, fmt.Errorf("no PDF files found")
	}

	return files, nil
}

// IsCompressedName reports whether name looks like output of a previous run.
func IsCompressedName(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), "_compressed.pdf")
}
