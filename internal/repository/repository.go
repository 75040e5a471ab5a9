package repository

import (
	"context"

	"github.com/bookstore-catalog-api/internal/database"
	"github.com/bookstore-catalog-api/internal/models"
)

// BookRepository defines the interface for catalog data operations
type BookRepository interface {
	// Upsert inserts the book or updates the existing row with the same
	// ISBN (or, without an ISBN, the same title and author). On update the
	// stored id and created_at are copied back into book.
	Upsert(ctx context.Context, book *models.Book) (created bool, err error)
	Update(ctx context.Context, book *models.Book) (bool, error)
	GetByID(ctx context.Context, id string) (*models.Book, error)
	List(ctx context.Context, limit, offset int) ([]*models.Book, error)
	Count(ctx context.Context) (int, error)
	StreamAll(ctx context.Context, callback func(*models.Book) error) error
	Delete(ctx context.Context, id string) (bool, error)
}

// JobRepository defines the interface for import job data operations
type JobRepository interface {
	Create(ctx context.Context, job *models.ImportJob) error
	Update(ctx context.Context, job *models.ImportJob) error
	GetByID(ctx context.Context, id string) (*models.ImportJob, error)
	GetByIdempotencyKey(ctx context.Context, key string) (*models.ImportJob, error)
	GetPendingJobs(ctx context.Context) ([]*models.ImportJob, error)
	MarkJobAsProcessing(ctx context.Context, jobID string) (bool, error)
	// TransitionStatus moves a job from one status to another, returning
	// false when the job was not in the from status
	TransitionStatus(ctx context.Context, jobID string, from, to models.JobStatus) (bool, error)
	CountByStatus(ctx context.Context) (map[models.JobStatus]int, error)
	AddErrors(ctx context.Context, jobID string, errors []models.ValidationError) error
	GetErrors(ctx context.Context, jobID string, limit int) ([]models.ValidationError, error)
}

// Repositories holds all repository interfaces
type Repositories struct {
	Book BookRepository
	Job  JobRepository
}

// New creates all repositories with the given database connection
func New(db *database.DB) *Repositories {
	return &Repositories{
		Book: NewBookRepo(db),
		Job:  NewJobRepo(db),
	}
}
