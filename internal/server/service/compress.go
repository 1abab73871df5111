package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"pdfpress/internal/core"
	"pdfpress/internal/server/database"
	"pdfpress/internal/server/storage"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
)

// ErrStatsDisabled is returned by GetStats when no job store is configured.
var ErrStatsDisabled = errors.New("statistics are disabled")

// Runner runs the external compressor over files on disk.
type Runner interface {
	Run(ctx context.Context, inputPath, outputPath string, preset core.Preset) (int64, error)
}

// JobStore persists job metadata. Implemented by database.Repository.
type JobStore interface {
	RecordJob(ctx context.Context, job *database.Job) error
	GetStats(ctx context.Context) (*database.Stats, error)
}

// Result is a finished compression held entirely in memory.
type Result struct {
	JobID          string
	DownloadName   string
	Preset         core.Preset
	OriginalSize   int64
	CompressedSize int64
	Duration       time.Duration
	Data           []byte
}

// CompressService validates uploads and runs them through the compressor.
type CompressService struct {
	validator *core.Validator
	runner    Runner
	store     storage.Store
	jobs      JobStore
}

// NewCompressService creates a new compress service. jobs may be nil.
func NewCompressService(validator *core.Validator, runner Runner, store storage.Store, jobs JobStore) *CompressService {
	return &CompressService{
		validator: validator,
		runner:    runner,
		store:     store,
		jobs:      jobs,
	}
}

// ReadUpload reads an upload body into memory, failing with TooLarge as soon
// as either the declared or the actual size passes the limit.
func (s *CompressService) ReadUpload(r io.Reader, declaredSize int64) ([]byte, error) {
	if err := s.validator.CheckSize(declaredSize); err != nil {
		return nil, err
	}

	data, err := io.ReadAll(io.LimitReader(r, s.validator.MaxSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read upload data: %w", err)
	}
	if err := s.validator.CheckSize(int64(len(data))); err != nil {
		return nil, err
	}
	return data, nil
}

// Validate checks an upload without side effects.
func (s *CompressService) Validate(filename string, data []byte) (*core.Upload, error) {
	return s.validator.Validate(filename, data)
}

// Compress writes the upload to a temp file, runs the compressor and returns
// the output bytes. Both temp files are released before it returns, whatever
// the outcome.
func (s *CompressService) Compress(ctx context.Context, upload *core.Upload, preset core.Preset) (*Result, error) {
	jobID := uuid.NewString()
	start := time.Now()

	result, err := s.compress(ctx, upload, preset)

	duration := time.Since(start)
	s.record(ctx, jobID, upload, preset, result, duration, err)

	if err != nil {
		slog.Warn("compression failed",
			"job_id", jobID,
			"filename", upload.Filename,
			"preset", preset.String(),
			"error", err,
		)
		return nil, err
	}

	result.JobID = jobID
	result.Duration = duration

	slog.Info("compression finished",
		"job_id", jobID,
		"filename", upload.Filename,
		"preset", preset.String(),
		"original_size", humanize.Bytes(uint64(result.OriginalSize)),
		"compressed_size", humanize.Bytes(uint64(result.CompressedSize)),
		"duration_ms", duration.Milliseconds(),
	)
	return result, nil
}

func (s *CompressService) compress(ctx context.Context, upload *core.Upload, preset core.Preset) (*Result, error) {
	inputPath, err := s.store.Allocate("_input.pdf")
	if err != nil {
		return nil, &core.CompressionError{Kind: core.IOFailure, Err: err}
	}
	defer s.store.Release(inputPath)

	outputPath, err := s.store.Allocate("_output.pdf")
	if err != nil {
		return nil, &core.CompressionError{Kind: core.IOFailure, Err: err}
	}
	defer s.store.Release(outputPath)

	if err := s.store.WriteFile(inputPath, upload.Data); err != nil {
		return nil, &core.CompressionError{Kind: core.IOFailure, Err: err}
	}

	if _, err := s.runner.Run(ctx, inputPath, outputPath, preset); err != nil {
		return nil, err
	}

	data, err := s.store.ReadFile(outputPath)
	if err != nil {
		return nil, &core.CompressionError{Kind: core.IOFailure, Err: err}
	}

	// Never hand back something bigger than what was uploaded.
	if int64(len(data)) > upload.Size {
		slog.Info("compressed output larger than input, returning original",
			"filename", upload.Filename,
			"original_size", upload.Size,
			"output_size", len(data),
		)
		data = upload.Data
	}

	return &Result{
		DownloadName:   core.DownloadName(upload.Filename),
		Preset:         preset,
		OriginalSize:   upload.Size,
		CompressedSize: int64(len(data)),
		Data:           data,
	}, nil
}

// record stores job metadata best-effort; failures never reach the caller.
func (s *CompressService) record(ctx context.Context, jobID string, upload *core.Upload, preset core.Preset, result *Result, duration time.Duration, jobErr error) {
	if s.jobs == nil {
		return
	}

	job := &database.Job{
		ID:           jobID,
		Resolution:   string(preset.Resolution),
		Quality:      string(preset.Quality),
		OriginalSize: upload.Size,
		DurationMS:   duration.Milliseconds(),
		Outcome:      outcome(jobErr),
		CreatedAt:    time.Now().UTC(),
	}
	if result != nil {
		job.CompressedSize = result.CompressedSize
	}

	if err := s.jobs.RecordJob(context.WithoutCancel(ctx), job); err != nil {
		slog.Error("failed to record job", "job_id", jobID, "error", err)
	}
}

func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	var cerr *core.CompressionError
	if errors.As(err, &cerr) {
		return string(cerr.Kind)
	}
	return "error"
}

// GetStats returns aggregate compression statistics.
func (s *CompressService) GetStats(ctx context.Context) (*database.Stats, error) {
	if s.jobs == nil {
		return nil, ErrStatsDisabled
	}
	return s.jobs.GetStats(ctx)
}
