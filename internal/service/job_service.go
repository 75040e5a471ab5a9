package service

import (
	"context"
	"sync"
	"time"

	"github.com/bookstore-catalog-api/internal/config"
	"github.com/bookstore-catalog-api/internal/metrics"
	"github.com/bookstore-catalog-api/internal/models"
	"github.com/bookstore-catalog-api/internal/repository"
	"github.com/rs/zerolog"
)

// jobErrorLimit caps the errors embedded in a job status response
const jobErrorLimit = 100

// jobService is the concrete implementation of JobService
type jobService struct {
	jobRepo       repository.JobRepository
	importService ImportService
	metrics       *metrics.Metrics
	interval      time.Duration
	log           zerolog.Logger
	ctx           context.Context
	cancel        context.CancelFunc
	wg            sync.WaitGroup
	running       bool
	mu            sync.Mutex
	// sem bounds the number of confirmed imports persisted at once
	sem chan struct{}
}

// newJobService creates a new JobService with a bounded worker pool
func newJobService(jobRepo repository.JobRepository, cfg config.ImportConfig, m *metrics.Metrics, log zerolog.Logger) *jobService {
	workers := cfg.JobWorkers
	if workers < 1 {
		workers = 1
	}
	interval := cfg.PollInterval
	if interval <= 0 {
		interval = 2 * time.Second
	}

	log.Info().Int("max_workers", workers).Dur("poll_interval", interval).Msg("Initializing job service worker pool")

	return &jobService{
		jobRepo:  jobRepo,
		metrics:  m,
		interval: interval,
		log:      log.With().Str("service", "job").Logger(),
		sem:      make(chan struct{}, workers),
	}
}

// SetImportService sets the import service for job processing
func (s *jobService) SetImportService(importService ImportService) {
	s.importService = importService
}

// StartProcessor polls for confirmed imports until ctx is cancelled or
// StopProcessor is called. It blocks.
func (s *jobService) StartProcessor(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.mu.Unlock()

	s.log.Info().Msg("Job processor started")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			s.log.Info().Msg("Job processor stopping")
			return
		case <-ticker.C:
			s.processPendingJobs()
		}
	}
}

// StopProcessor stops the background job processor and waits for
// in-flight jobs
func (s *jobService) StopProcessor() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}

	s.cancel()
	s.wg.Wait()
	s.running = false
	s.log.Info().Msg("Job processor stopped")
}

// processPendingJobs claims and processes every pending job
func (s *jobService) processPendingJobs() {
	jobs, err := s.jobRepo.GetPendingJobs(s.ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to get pending jobs")
		return
	}

	for _, job := range jobs {
		// Blocks while every worker is busy
		select {
		case s.sem <- struct{}{}:
		case <-s.ctx.Done():
			return
		}

		// Mark as processing atomically
		marked, err := s.jobRepo.MarkJobAsProcessing(s.ctx, job.ID)
		if err != nil || !marked {
			<-s.sem
			continue // Another worker already picked it up
		}

		s.wg.Add(1)
		go func(j *models.ImportJob) {
			defer s.wg.Done()
			defer func() { <-s.sem }()

			s.metrics.JobStarted()
			defer s.metrics.JobFinished()

			defer func() {
				if r := recover(); r != nil {
					s.log.Error().
						Interface("panic", r).
						Str("job_id", j.ID).
						Msg("Job processing panicked - recovered")
					j.Status = models.JobStatusFailed
					now := time.Now()
					j.CompletedAt = &now
					s.jobRepo.Update(s.ctx, j)
				}
			}()
			s.processJob(j)
		}(job)
	}
}

// processJob persists a single confirmed import
func (s *jobService) processJob(job *models.ImportJob) {
	select {
	case <-s.ctx.Done():
		s.log.Warn().Str("job_id", job.ID).Msg("Job processing cancelled due to shutdown")
		return
	default:
	}

	s.log.Info().Str("job_id", job.ID).Str("file", job.FileName).Msg("Processing job")

	if s.importService == nil {
		s.log.Error().Str("job_id", job.ID).Msg("No import service configured")
		return
	}
	if err := s.importService.ProcessImport(s.ctx, job); err != nil {
		s.log.Error().Err(err).Str("job_id", job.ID).Msg("Import processing failed")
	}
}

// GetJob retrieves a job by ID with its first errors
func (s *jobService) GetJob(ctx context.Context, id string) (*models.JobResponse, error) {
	job, err := s.jobRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, nil
	}

	errors, err := s.jobRepo.GetErrors(ctx, id, jobErrorLimit)
	if err != nil {
		s.log.Error().Err(err).Str("job_id", id).Msg("Failed to get job errors")
	}

	response := &models.JobResponse{
		ImportJob: *job,
		Errors:    errors,
	}

	if job.ErrorCount > 0 {
		response.ErrorReport = "/v1/imports/" + job.ID + "/errors"
	}

	return response, nil
}

// GetJobByIdempotencyKey retrieves a job by idempotency key
func (s *jobService) GetJobByIdempotencyKey(ctx context.Context, key string) (*models.ImportJob, error) {
	return s.jobRepo.GetByIdempotencyKey(ctx, key)
}

// GetJobErrors retrieves all errors recorded for a job
func (s *jobService) GetJobErrors(ctx context.Context, id string) ([]models.ValidationError, error) {
	return s.jobRepo.GetErrors(ctx, id, 0)
}

// CountByStatus returns the number of jobs in each status
func (s *jobService) CountByStatus(ctx context.Context) (map[models.JobStatus]int, error) {
	return s.jobRepo.CountByStatus(ctx)
}
