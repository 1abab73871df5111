package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	execute "github.com/alexellis/go-execute/v2"
)

// CompressionKind classifies a failed compression run.
type CompressionKind string

const (
	Timeout     CompressionKind = "timeout"
	ToolFailure CompressionKind = "tool_failure"
	IOFailure   CompressionKind = "io_failure"
	// Canceled means the caller went away before the run finished.
	Canceled CompressionKind = "canceled"
)

// CompressionError is returned when the external compressor cannot produce output.
type CompressionError struct {
	Kind   CompressionKind
	Stderr string
	Err    error
}

func (e *CompressionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("compression failed (%s): %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("compression failed (%s)", e.Kind)
}

func (e *CompressionError) Unwrap() error {
	return e.Err
}

// DefaultGhostscript is the binary looked up on PATH when none is configured.
const DefaultGhostscript = "gs"

// Compressor runs Ghostscript over files on disk.
type Compressor struct {
	Binary  string
	Timeout time.Duration
}

// NewCompressor creates a compressor for the given binary and per-run timeout.
func NewCompressor(binary string, timeout time.Duration) *Compressor {
	if binary == "" {
		binary = DefaultGhostscript
	}
	return &Compressor{Binary: binary, Timeout: timeout}
}

// Run compresses inputPath into outputPath using the preset. It returns the
// size of the output file.
func (c *Compressor) Run(ctx context.Context, inputPath, outputPath string, preset Preset) (int64, error) {
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	task := execute.ExecTask{
		Command: c.Binary,
		Args:    preset.Args(inputPath, outputPath),
	}

	start := time.Now()
	res, err := task.Execute(ctx)

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		slog.Warn("compressor timed out",
			"binary", c.Binary,
			"timeout", c.Timeout,
			"preset", preset.String(),
		)
		return 0, &CompressionError{Kind: Timeout, Err: fmt.Errorf("no result after %s", c.Timeout)}
	}
	if errors.Is(ctx.Err(), context.Canceled) {
		slog.Info("compressor run canceled", "preset", preset.String())
		return 0, &CompressionError{Kind: Canceled, Err: ctx.Err()}
	}
	if err != nil {
		return 0, &CompressionError{Kind: ToolFailure, Stderr: res.Stderr, Err: err}
	}
	if res.ExitCode != 0 {
		slog.Warn("compressor exited with non-zero code",
			"binary", c.Binary,
			"code", res.ExitCode,
			"stderr", strings.TrimSpace(res.Stderr),
		)
		return 0, &CompressionError{
			Kind:   ToolFailure,
			Stderr: res.Stderr,
			Err:    fmt.Errorf("exit code %d", res.ExitCode),
		}
	}

	info, err := os.Stat(outputPath)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, &CompressionError{Kind: ToolFailure, Err: errors.New("no output file produced")}
		}
		return 0, &CompressionError{Kind: IOFailure, Err: err}
	}
	if info.Size() == 0 {
		return 0, &CompressionError{Kind: ToolFailure, Err: errors.New("empty output file produced")}
	}

	slog.Debug("compressor finished",
		"preset", preset.String(),
		"output_bytes", info.Size(),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return info.Size(), nil
}
