package models

import (
	"time"
)

// JobStatus represents the status of an import job
type JobStatus string

const (
	JobStatusAwaitingConfirmation JobStatus = "awaiting_confirmation"
	JobStatusPending              JobStatus = "pending"
	JobStatusProcessing           JobStatus = "processing"
	JobStatusCompleted            JobStatus = "completed"
	JobStatusFailed               JobStatus = "failed"
	JobStatusCancelled            JobStatus = "cancelled"
)

// ImportJob tracks one uploaded file from preview through persistence
type ImportJob struct {
	ID             string       `json:"job_id" db:"id"`
	Status         JobStatus    `json:"status" db:"status"`
	IdempotencyKey string       `json:"idempotency_key,omitempty" db:"idempotency_key"`
	FileName       string       `json:"file_name" db:"file_name"`
	FilePath       string       `json:"-" db:"file_path"`
	Format         ImportFormat `json:"format,omitempty" db:"format"`
	TotalRows      int          `json:"total_rows" db:"total_rows"`
	ValidRows      int          `json:"valid_rows" db:"valid_rows"`
	RecordCount    int          `json:"record_count" db:"record_count"`
	ErrorCount     int          `json:"error_count" db:"error_count"`
	CreatedCount   int          `json:"created" db:"created_count"`
	UpdatedCount   int          `json:"updated" db:"updated_count"`
	FailedCount    int          `json:"failed" db:"failed_count"`
	DurationMs     int64        `json:"duration_ms,omitempty" db:"duration_ms"`
	RowsPerSec     float64      `json:"rows_per_sec,omitempty" db:"rows_per_sec"`
	CreatedAt      time.Time    `json:"created_at" db:"created_at"`
	StartedAt      *time.Time   `json:"started_at,omitempty" db:"started_at"`
	CompletedAt    *time.Time   `json:"completed_at,omitempty" db:"completed_at"`
}

// PersistedCount is the number of records written to the catalog
func (j *ImportJob) PersistedCount() int {
	return j.CreatedCount + j.UpdatedCount
}

// JobResponse is the API response for job status
type JobResponse struct {
	ImportJob
	Errors      []ValidationError `json:"errors,omitempty"`
	ErrorReport string            `json:"error_report_url,omitempty"`
}

// ImportRequest describes a file handed to the import service
type ImportRequest struct {
	FileName       string `json:"file_name"`
	FileURL        string `json:"file_url,omitempty"`
	IdempotencyKey string `json:"-"`
}

// ImportPreview is returned after a file has been parsed and validated,
// before anything is written to the catalog
type ImportPreview struct {
	JobID     string            `json:"job_id"`
	Status    JobStatus         `json:"status"`
	Format    ImportFormat      `json:"format"`
	Success   bool              `json:"success"`
	TotalRows int               `json:"total_rows"`
	ValidRows int               `json:"valid_rows"`
	Records   int               `json:"record_count"`
	Preview   []ImportedBookRow `json:"preview"`
	Errors    []string          `json:"errors"`
}
