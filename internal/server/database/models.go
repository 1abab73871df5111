package database

import "time"

// Job is the metadata of one compression request. File content is never stored.
type Job struct {
	ID             string
	Resolution     string
	Quality        string
	OriginalSize   int64
	CompressedSize int64
	DurationMS     int64
	Outcome        string // "ok" or an error kind
	CreatedAt      time.Time
}

// Stats holds aggregate compression statistics.
type Stats struct {
	TotalJobs     int64
	SucceededJobs int64
	FailedJobs    int64
	BytesIn       int64
	BytesOut      int64
	AvgDurationMS float64
}

// BytesSaved is the total reduction across successful jobs.
func (s *Stats) BytesSaved() int64 {
	return s.BytesIn - s.BytesOut
}
