package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"pdfpress/internal/core"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

type compressOptions struct {
	resolution string
	quality    string
	outDir     string
	binary     string
	timeout    time.Duration
	maxSize    string
}

func newCompressCommand() *cobra.Command {
	opts := &compressOptions{}

	cmd := &cobra.Command{
		Use:   "compress [files or directories...]",
		Short: "Compress PDFs into <name>_compressed.pdf next to the originals.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompress(cmd.Context(), cmd.OutOrStdout(), opts, args)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.resolution, "resolution", "r", string(core.DefaultPreset.Resolution),
		"unchanged, print, ebook or screen")
	flags.StringVarP(&opts.quality, "quality", "q", string(core.DefaultPreset.Quality),
		"very_high, high or medium")
	flags.StringVarP(&opts.outDir, "out-dir", "o", "", "write results here instead of next to each input")
	flags.StringVar(&opts.binary, "gs", core.DefaultGhostscript, "Ghostscript binary")
	flags.DurationVar(&opts.timeout, "timeout", 2*time.Minute, "per-file compression timeout")
	flags.StringVar(&opts.maxSize, "max-size", "50MiB", "largest accepted input")

	return cmd
}

func runCompress(ctx context.Context, out io.Writer, opts *compressOptions, args []string) error {
	preset, err := core.ParsePreset(opts.resolution, opts.quality)
	if err != nil {
		return err
	}
	maxSize, err := humanize.ParseBytes(opts.maxSize)
	if err != nil {
		return fmt.Errorf("invalid --max-size: %w", err)
	}

	targets, err := core.ResolveTargets(args)
	if err != nil {
		return err
	}
	files, err := core.CollectPDFs(targets)
	if err != nil {
		return err
	}

	if opts.outDir != "" {
		if err := os.MkdirAll(opts.outDir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	validator := core.NewValidator(int64(maxSize))
	compressor := core.NewCompressor(opts.binary, opts.timeout)

	// written maps each output path to the input that produced it.
	written := make(map[string]string, len(files))

	failed := 0
	for _, path := range files {
		if err := compressFile(ctx, out, validator, compressor, preset, path, opts.outDir, written); err != nil {
			fmt.Fprintf(out, "✗ %s: %v\n", path, err)
			failed++
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(files))
	}
	return nil
}

func compressFile(ctx context.Context, out io.Writer, v *core.Validator, c *core.Compressor, preset core.Preset, path, outDir string, written map[string]string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	upload, err := v.Validate(filepath.Base(path), data)
	if err != nil {
		return err
	}

	dir := outDir
	if dir == "" {
		dir = filepath.Dir(path)
	}
	target := filepath.Join(dir, core.DownloadName(upload.Filename))
	if prev, ok := written[target]; ok {
		return fmt.Errorf("%s was already written from %s in this run", target, prev)
	}

	// Ghostscript writes next to the target and the result is renamed into
	// place only once it is complete.
	tmp, err := os.CreateTemp(dir, ".pdfpress-*.pdf")
	if err != nil {
		return fmt.Errorf("failed to create temp output: %w", err)
	}
	tmpPath := tmp.Name()
	tmp.Close()
	defer os.Remove(tmpPath)

	size, err := c.Run(ctx, path, tmpPath, preset)
	if err != nil {
		return err
	}

	if size > upload.Size {
		if err := os.WriteFile(tmpPath, upload.Data, 0644); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		size = upload.Size
	}

	if err := os.Rename(tmpPath, target); err != nil {
		return fmt.Errorf("failed to move output into place: %w", err)
	}
	written[target] = path

	fmt.Fprintf(out, "✓ %s → %s (%s → %s, %s)\n",
		path, target,
		humanize.Bytes(uint64(upload.Size)), humanize.Bytes(uint64(size)),
		savings(upload.Size, size),
	)
	return nil
}

func savings(before, after int64) string {
	if before == 0 {
		return "0%"
	}
	pct := 100 * float64(before-after) / float64(before)
	return fmt.Sprintf("%.0f%% smaller", pct)
}
