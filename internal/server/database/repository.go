package database

import (
	"context"
	"fmt"
	"time"
)

// Repository records compression jobs and reports on them.
type Repository struct {
	db *DB
}

// NewRepository creates a new Repository.
func NewRepository(db *DB) *Repository {
	return &Repository{db: db}
}

// RecordJob inserts a job record.
func (r *Repository) RecordJob(ctx context.Context, job *Job) error {
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO compression_jobs (
			id, resolution, quality, original_size, compressed_size,
			duration_ms, outcome, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`,
		job.ID,
		job.Resolution,
		job.Quality,
		job.OriginalSize,
		job.CompressedSize,
		job.DurationMS,
		job.Outcome,
		job.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record job: %w", err)
	}
	return nil
}

// DeleteOlderThan removes job records created before cutoff.
func (r *Repository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.db.Pool.Exec(ctx, "DELETE FROM compression_jobs WHERE created_at < $1", cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old jobs: %w", err)
	}
	return tag.RowsAffected(), nil
}

// GetStats returns aggregate compression statistics.
func (r *Repository) GetStats(ctx context.Context) (*Stats, error) {
	stats := &Stats{}

	err := r.db.Pool.QueryRow(ctx, `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE outcome = 'ok'),
			COUNT(*) FILTER (WHERE outcome <> 'ok'),
			COALESCE(SUM(original_size) FILTER (WHERE outcome = 'ok'), 0),
			COALESCE(SUM(compressed_size) FILTER (WHERE outcome = 'ok'), 0),
			COALESCE(AVG(duration_ms) FILTER (WHERE outcome = 'ok'), 0)::float8
		FROM compression_jobs
	`).Scan(
		&stats.TotalJobs,
		&stats.SucceededJobs,
		&stats.FailedJobs,
		&stats.BytesIn,
		&stats.BytesOut,
		&stats.AvgDurationMS,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get stats: %w", err)
	}
	return stats, nil
}
