package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/bookstore-catalog-api/internal/database"
	"github.com/bookstore-catalog-api/internal/models"
	"github.com/lib/pq"
)

const jobColumns = `id, status, idempotency_key, file_name, file_path, format, total_rows,
	valid_rows, record_count, error_count, created_count, updated_count, failed_count,
	duration_ms, rows_per_sec, created_at, started_at, completed_at`

// jobRepo is the concrete implementation of JobRepository
type jobRepo struct {
	db *database.DB
}

// NewJobRepo creates a new job repository
func NewJobRepo(db *database.DB) JobRepository {
	return &jobRepo{db: db}
}

// Create inserts a new job
func (r *jobRepo) Create(ctx context.Context, job *models.ImportJob) error {
	query := `
		INSERT INTO import_jobs (id, status, idempotency_key, file_name, file_path, format,
			total_rows, valid_rows, record_count, error_count, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := r.db.ExecContext(ctx, query,
		job.ID, job.Status, nullString(job.IdempotencyKey), job.FileName, job.FilePath,
		job.Format, job.TotalRows, job.ValidRows, job.RecordCount, job.ErrorCount, job.CreatedAt,
	)
	return err
}

// Update updates job status and counters
func (r *jobRepo) Update(ctx context.Context, job *models.ImportJob) error {
	query := `
		UPDATE import_jobs SET
			status = $1, error_count = $2, created_count = $3, updated_count = $4,
			failed_count = $5, duration_ms = $6, rows_per_sec = $7, started_at = $8,
			completed_at = $9
		WHERE id = $10
	`
	_, err := r.db.ExecContext(ctx, query,
		job.Status, job.ErrorCount, job.CreatedCount, job.UpdatedCount,
		job.FailedCount, job.DurationMs, job.RowsPerSec, job.StartedAt, job.CompletedAt, job.ID,
	)
	return err
}

// GetByID retrieves a job by ID
func (r *jobRepo) GetByID(ctx context.Context, id string) (*models.ImportJob, error) {
	query := `SELECT ` + jobColumns + ` FROM import_jobs WHERE id = $1`
	return r.getOne(ctx, query, id)
}

// GetByIdempotencyKey retrieves a job by idempotency key
func (r *jobRepo) GetByIdempotencyKey(ctx context.Context, key string) (*models.ImportJob, error) {
	query := `SELECT ` + jobColumns + ` FROM import_jobs WHERE idempotency_key = $1`
	return r.getOne(ctx, query, key)
}

func (r *jobRepo) getOne(ctx context.Context, query string, arg interface{}) (*models.ImportJob, error) {
	job, err := scanJob(r.db.QueryRowContext(ctx, query, arg))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return job, nil
}

// GetPendingJobs retrieves all confirmed jobs waiting to be persisted
func (r *jobRepo) GetPendingJobs(ctx context.Context) ([]*models.ImportJob, error) {
	query := `
		SELECT ` + jobColumns + `
		FROM import_jobs WHERE status = 'pending'
		ORDER BY created_at
		FOR UPDATE SKIP LOCKED
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []*models.ImportJob
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}

	return jobs, rows.Err()
}

// MarkJobAsProcessing atomically marks a pending job as processing
func (r *jobRepo) MarkJobAsProcessing(ctx context.Context, jobID string) (bool, error) {
	query := `
		UPDATE import_jobs SET status = 'processing', started_at = $1
		WHERE id = $2 AND status = 'pending'
	`
	result, err := r.db.ExecContext(ctx, query, time.Now(), jobID)
	if err != nil {
		return false, err
	}
	rows, _ := result.RowsAffected()
	return rows > 0, nil
}

// TransitionStatus moves a job between statuses with a compare-and-set update
func (r *jobRepo) TransitionStatus(ctx context.Context, jobID string, from, to models.JobStatus) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE import_jobs SET status = $1 WHERE id = $2 AND status = $3`,
		to, jobID, from,
	)
	if err != nil {
		return false, err
	}
	rows, _ := result.RowsAffected()
	return rows > 0, nil
}

// CountByStatus returns the number of jobs in each status
func (r *jobRepo) CountByStatus(ctx context.Context) (map[models.JobStatus]int, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM import_jobs GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[models.JobStatus]int)
	for rows.Next() {
		var status models.JobStatus
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

// AddErrors stores validation errors using the COPY protocol. Large files
// with many rejected rows produce tens of thousands of error rows.
func (r *jobRepo) AddErrors(ctx context.Context, jobID string, errors []models.ValidationError) error {
	if len(errors) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, pq.CopyIn("import_job_errors",
		"job_id", "line", "field", "message", "value",
	))
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, e := range errors {
		if _, err := stmt.ExecContext(ctx, jobID, e.Line, e.Field, e.Message, valueString(e.Value)); err != nil {
			return err
		}
	}

	// Flush the COPY buffer
	if _, err := stmt.ExecContext(ctx); err != nil {
		return err
	}

	return tx.Commit()
}

// GetErrors retrieves a job's errors in the order they were reported
func (r *jobRepo) GetErrors(ctx context.Context, jobID string, limit int) ([]models.ValidationError, error) {
	query := `SELECT line, field, message, value FROM import_job_errors WHERE job_id = $1 ORDER BY id`
	args := []interface{}{jobID}
	if limit > 0 {
		query += " LIMIT $2"
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	errors := []models.ValidationError{}
	for rows.Next() {
		var e models.ValidationError
		var value string
		if err := rows.Scan(&e.Line, &e.Field, &e.Message, &value); err != nil {
			return nil, err
		}
		if value != "" {
			e.Value = value
		}
		errors = append(errors, e)
	}

	return errors, rows.Err()
}

func scanJob(row rowScanner) (*models.ImportJob, error) {
	var job models.ImportJob
	var idempotencyKey sql.NullString
	var startedAt, completedAt sql.NullTime

	err := row.Scan(
		&job.ID, &job.Status, &idempotencyKey, &job.FileName, &job.FilePath, &job.Format,
		&job.TotalRows, &job.ValidRows, &job.RecordCount, &job.ErrorCount,
		&job.CreatedCount, &job.UpdatedCount, &job.FailedCount,
		&job.DurationMs, &job.RowsPerSec, &job.CreatedAt, &startedAt, &completedAt,
	)
	if err != nil {
		return nil, err
	}

	job.IdempotencyKey = idempotencyKey.String
	if startedAt.Valid {
		job.StartedAt = &startedAt.Time
	}
	if completedAt.Valid {
		job.CompletedAt = &completedAt.Time
	}
	return &job, nil
}

// valueString renders an error's offending value for storage
func valueString(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	default:
		return fmt.Sprint(val)
	}
}

// helper to convert empty string to NULL
func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
