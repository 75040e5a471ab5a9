package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/bookstore-catalog-api/internal/config"
	"github.com/bookstore-catalog-api/internal/csvimport"
	"github.com/bookstore-catalog-api/internal/metrics"
	"github.com/bookstore-catalog-api/internal/models"
	"github.com/bookstore-catalog-api/internal/repository"
	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog"
)

// fieldPersist tags errors raised while writing accepted records
const fieldPersist = "persist"

// importService is the concrete implementation of ImportService
type importService struct {
	jobRepo   repository.JobRepository
	books     BookService
	processor *csvimport.Processor
	// results caches parsed uploads between preview and persistence
	results *lru.Cache[string, *models.CSVProcessResult]
	cfg     config.ImportConfig
	metrics *metrics.Metrics
	log     zerolog.Logger
}

// newImportService creates a new ImportService
func newImportService(jobRepo repository.JobRepository, books BookService, processor *csvimport.Processor,
	cfg config.ImportConfig, m *metrics.Metrics, log zerolog.Logger) *importService {
	size := cfg.CacheSize
	if size < 1 {
		size = 1
	}
	// lru.New only fails for non-positive sizes
	cache, _ := lru.New[string, *models.CSVProcessResult](size)

	return &importService{
		jobRepo:   jobRepo,
		books:     books,
		processor: processor,
		results:   cache,
		cfg:       cfg,
		metrics:   m,
		log:       log.With().Str("service", "import").Logger(),
	}
}

// Preview stores the upload, runs the import pipeline and records an
// awaiting_confirmation job. A repeated idempotency key returns the
// existing job's preview without reading src.
func (s *importService) Preview(ctx context.Context, req *models.ImportRequest, src io.Reader) (*models.ImportPreview, error) {
	if req.IdempotencyKey != "" {
		existing, err := s.jobRepo.GetByIdempotencyKey(ctx, req.IdempotencyKey)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			s.log.Info().Str("job_id", existing.ID).Msg("Returning existing job for idempotency key")
			return s.preview(ctx, existing)
		}
	}

	jobID := uuid.New().String()
	filePath, err := s.store(jobID, src)
	if err != nil {
		return nil, err
	}

	result := s.processor.ProcessFile(filePath)

	job := &models.ImportJob{
		ID:             jobID,
		Status:         models.JobStatusAwaitingConfirmation,
		IdempotencyKey: req.IdempotencyKey,
		FileName:       req.FileName,
		FilePath:       filePath,
		Format:         result.Format,
		TotalRows:      result.TotalRows,
		ValidRows:      result.ValidRows,
		RecordCount:    len(result.Data),
		ErrorCount:     len(result.Issues),
		CreatedAt:      time.Now(),
	}

	if err := s.jobRepo.Create(ctx, job); err != nil {
		os.Remove(filePath)
		return nil, fmt.Errorf("failed to create import job: %w", err)
	}
	if err := s.jobRepo.AddErrors(ctx, job.ID, result.Issues); err != nil {
		s.log.Error().Err(err).Str("job_id", job.ID).Msg("Failed to store validation errors")
	}

	s.results.Add(job.ID, result)

	s.log.Info().
		Str("job_id", job.ID).
		Str("file", job.FileName).
		Str("format", string(job.Format)).
		Int("total_rows", job.TotalRows).
		Int("valid_rows", job.ValidRows).
		Int("records", job.RecordCount).
		Int("errors", job.ErrorCount).
		Msg("Import previewed")

	return s.buildPreview(job, result), nil
}

// store copies src into the upload directory, enforcing the size limit
func (s *importService) store(jobID string, src io.Reader) (string, error) {
	if err := os.MkdirAll(s.cfg.UploadDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create upload directory: %w", err)
	}

	filePath := filepath.Join(s.cfg.UploadDir, jobID+".csv")
	file, err := os.Create(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to create upload file: %w", err)
	}

	reader := src
	if s.cfg.MaxUploadSize > 0 {
		reader = io.LimitReader(src, s.cfg.MaxUploadSize+1)
	}
	written, err := io.Copy(file, reader)
	closeErr := file.Close()
	if err == nil {
		err = closeErr
	}
	if err == nil && s.cfg.MaxUploadSize > 0 && written > s.cfg.MaxUploadSize {
		err = ErrFileTooLarge
	}
	if err != nil {
		os.Remove(filePath)
		if errors.Is(err, ErrFileTooLarge) {
			return "", ErrFileTooLarge
		}
		return "", fmt.Errorf("failed to save upload: %w", err)
	}

	return filePath, nil
}

// GetPreview returns the preview of an existing job
func (s *importService) GetPreview(ctx context.Context, jobID string) (*models.ImportPreview, error) {
	job, err := s.jobRepo.GetByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, ErrJobNotFound
	}
	return s.preview(ctx, job)
}

func (s *importService) preview(ctx context.Context, job *models.ImportJob) (*models.ImportPreview, error) {
	if result, ok := s.load(job); ok {
		return s.buildPreview(job, result), nil
	}

	// Upload already consumed; fall back to the stored counts and errors
	stored, err := s.jobRepo.GetErrors(ctx, job.ID, jobErrorLimit)
	if err != nil {
		return nil, err
	}
	result := &models.CSVProcessResult{
		Success:   job.RecordCount > 0,
		Format:    job.Format,
		Data:      []models.ImportedBookRow{},
		Errors:    make([]string, 0, len(stored)),
		TotalRows: job.TotalRows,
		ValidRows: job.ValidRows,
	}
	for _, e := range stored {
		result.Errors = append(result.Errors, e.String())
	}
	return s.buildPreview(job, result), nil
}

// load returns the parsed upload for job from the cache, re-running the
// pipeline over the stored file on a miss. Processing is deterministic, so
// both paths yield the same records.
func (s *importService) load(job *models.ImportJob) (*models.CSVProcessResult, bool) {
	if result, ok := s.results.Get(job.ID); ok {
		return result, true
	}
	if job.FilePath == "" {
		return nil, false
	}
	if _, err := os.Stat(job.FilePath); err != nil {
		return nil, false
	}

	s.log.Debug().Str("job_id", job.ID).Msg("Preview cache miss, re-processing upload")
	result := s.processor.ProcessFile(job.FilePath)
	s.results.Add(job.ID, result)
	return result, true
}

func (s *importService) buildPreview(job *models.ImportJob, result *models.CSVProcessResult) *models.ImportPreview {
	limit := s.cfg.PreviewLimit
	if limit <= 0 {
		limit = 10
	}
	return &models.ImportPreview{
		JobID:     job.ID,
		Status:    job.Status,
		Format:    result.Format,
		Success:   result.Success,
		TotalRows: result.TotalRows,
		ValidRows: result.ValidRows,
		Records:   len(result.Data),
		Preview:   result.Preview(limit),
		Errors:    result.Errors,
	}
}

// Confirm queues an awaiting job for persistence
func (s *importService) Confirm(ctx context.Context, jobID string) (*models.ImportJob, error) {
	job, err := s.jobRepo.GetByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, ErrJobNotFound
	}
	if job.Status != models.JobStatusAwaitingConfirmation {
		return nil, ErrInvalidJobState
	}
	if job.RecordCount == 0 {
		return nil, ErrNothingToImport
	}

	moved, err := s.jobRepo.TransitionStatus(ctx, jobID, models.JobStatusAwaitingConfirmation, models.JobStatusPending)
	if err != nil {
		return nil, err
	}
	if !moved {
		return nil, ErrInvalidJobState
	}
	job.Status = models.JobStatusPending

	s.log.Info().Str("job_id", job.ID).Int("records", job.RecordCount).Msg("Import confirmed")
	return job, nil
}

// Cancel discards an awaiting job and its upload
func (s *importService) Cancel(ctx context.Context, jobID string) error {
	job, err := s.jobRepo.GetByID(ctx, jobID)
	if err != nil {
		return err
	}
	if job == nil {
		return ErrJobNotFound
	}

	moved, err := s.jobRepo.TransitionStatus(ctx, jobID, models.JobStatusAwaitingConfirmation, models.JobStatusCancelled)
	if err != nil {
		return err
	}
	if !moved {
		return ErrInvalidJobState
	}

	s.discard(job)
	s.log.Info().Str("job_id", job.ID).Msg("Import cancelled")
	return nil
}

func (s *importService) discard(job *models.ImportJob) {
	s.results.Remove(job.ID)
	if job.FilePath == "" {
		return
	}
	if err := os.Remove(job.FilePath); err != nil && !os.IsNotExist(err) {
		s.log.Warn().Err(err).Str("job_id", job.ID).Msg("Failed to remove upload")
	}
}

// ProcessImport writes every accepted record of a confirmed job to the
// catalog. A record that fails to save is recorded as a job error and
// does not stop the rest.
func (s *importService) ProcessImport(ctx context.Context, job *models.ImportJob) error {
	startTime := time.Now()
	job.Status = models.JobStatusProcessing
	job.StartedAt = &startTime
	if err := s.jobRepo.Update(ctx, job); err != nil {
		s.log.Error().Err(err).Str("job_id", job.ID).Msg("Failed to mark job as processing")
	}

	s.log.Info().
		Str("job_id", job.ID).
		Int("records", job.RecordCount).
		Msg("Starting import processing")

	err := s.persist(ctx, job)

	duration := time.Since(startTime)
	job.DurationMs = duration.Milliseconds()
	if processed := job.PersistedCount() + job.FailedCount; processed > 0 && duration.Seconds() > 0 {
		job.RowsPerSec = float64(processed) / duration.Seconds()
	}

	completedAt := time.Now()
	job.CompletedAt = &completedAt

	if err != nil {
		job.Status = models.JobStatusFailed
		s.log.Error().Err(err).Str("job_id", job.ID).Msg("Import failed")
	} else {
		job.Status = models.JobStatusCompleted
		s.discard(job)
		s.log.Info().
			Str("job_id", job.ID).
			Int("created", job.CreatedCount).
			Int("updated", job.UpdatedCount).
			Int("failed", job.FailedCount).
			Int64("duration_ms", job.DurationMs).
			Float64("rows_per_sec", job.RowsPerSec).
			Msg("Import completed")
	}

	// Use a fresh context so the final state is recorded during shutdown
	if updateErr := s.jobRepo.Update(context.WithoutCancel(ctx), job); updateErr != nil {
		s.log.Error().Err(updateErr).Str("job_id", job.ID).Msg("Failed to record job result")
	}

	return err
}

func (s *importService) persist(ctx context.Context, job *models.ImportJob) error {
	result, ok := s.load(job)
	if !ok {
		return fmt.Errorf("upload for job %s is no longer available", job.ID)
	}
	if len(result.Data) == 0 {
		return ErrNothingToImport
	}

	var failures []models.ValidationError
	defer func() {
		if len(failures) == 0 {
			return
		}
		job.ErrorCount += len(failures)
		if err := s.jobRepo.AddErrors(context.WithoutCancel(ctx), job.ID, failures); err != nil {
			s.log.Error().Err(err).Str("job_id", job.ID).Msg("Failed to store persistence errors")
		}
	}()

	for i := range result.Data {
		if err := ctx.Err(); err != nil {
			return err
		}

		record := &result.Data[i]
		_, created, err := s.books.Upsert(ctx, record)
		switch {
		case err != nil:
			job.FailedCount++
			s.metrics.IncPersisted("failed")
			failure := models.ValidationError{
				Line:    i + 1,
				Field:   fieldPersist,
				Message: fmt.Sprintf("Failed to save %q by %s: %v", record.Title, record.Author, err),
			}
			if record.ISBN != "" {
				failure.Value = record.ISBN
			}
			failures = append(failures, failure)
		case created:
			job.CreatedCount++
			s.metrics.IncPersisted("created")
		default:
			job.UpdatedCount++
			s.metrics.IncPersisted("updated")
		}
	}

	return nil
}
