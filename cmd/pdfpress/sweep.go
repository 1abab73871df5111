package main

import (
	"fmt"
	"io"
	"time"

	"pdfpress/internal/server/storage"

	"github.com/spf13/cobra"
)

func newSweepCommand() *cobra.Command {
	var (
		dir    string
		maxAge time.Duration
		all    bool
	)

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Delete leftover temp files from the server's temp directory.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSweep(cmd.OutOrStdout(), storage.NewOSTempStore(dir), maxAge, all)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&dir, "dir", "/tmp/pdf-compressor", "temp directory to sweep")
	flags.DurationVar(&maxAge, "max-age", time.Hour, "delete files older than this")
	flags.BoolVar(&all, "all", false, "delete every file regardless of age")

	return cmd
}

func runSweep(out io.Writer, store storage.Store, maxAge time.Duration, all bool) error {
	var (
		removed int
		err     error
	)
	if all {
		removed, err = store.SweepAll()
	} else {
		removed, err = store.SweepStale(maxAge)
	}
	if err != nil {
		return fmt.Errorf("sweep failed: %w", err)
	}

	fmt.Fprintf(out, "removed %d file(s)\n", removed)
	return nil
}
