package mocks

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/bookstore-catalog-api/internal/models"
)

// MockBookRepository is a mock implementation of BookRepository
type MockBookRepository struct {
	mu          sync.Mutex
	Books       map[string]*models.Book
	order       []string
	UpsertError error
	// UpsertFunc overrides Upsert when set
	UpsertFunc  func(ctx context.Context, book *models.Book) (bool, error)
	UpsertCalls int
}

func NewMockBookRepository() *MockBookRepository {
	return &MockBookRepository{
		Books: make(map[string]*models.Book),
	}
}

func (m *MockBookRepository) Upsert(ctx context.Context, book *models.Book) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.UpsertCalls++
	if m.UpsertFunc != nil {
		return m.UpsertFunc(ctx, book)
	}
	if m.UpsertError != nil {
		return false, m.UpsertError
	}

	if existing := m.findByKey(book); existing != nil {
		book.ID = existing.ID
		book.CreatedAt = existing.CreatedAt
		m.Books[book.ID] = book
		return false, nil
	}
	m.Books[book.ID] = book
	m.order = append(m.order, book.ID)
	return true, nil
}

func (m *MockBookRepository) findByKey(book *models.Book) *models.Book {
	for _, id := range m.order {
		b := m.Books[id]
		if book.ISBN != "" && b.ISBN == book.ISBN {
			return b
		}
		if book.ISBN == "" && b.ISBN == "" &&
			strings.EqualFold(b.Title, book.Title) && strings.EqualFold(b.Author, book.Author) {
			return b
		}
	}
	return nil
}

func (m *MockBookRepository) Update(ctx context.Context, book *models.Book) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.Books[book.ID]
	if !ok {
		return false, nil
	}
	book.CreatedAt = existing.CreatedAt
	m.Books[book.ID] = book
	return true, nil
}

func (m *MockBookRepository) GetByID(ctx context.Context, id string) (*models.Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Books[id], nil
}

func (m *MockBookRepository) List(ctx context.Context, limit, offset int) ([]*models.Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	books := []*models.Book{}
	for i := offset; i < len(m.order) && len(books) < limit; i++ {
		books = append(books, m.Books[m.order[i]])
	}
	return books, nil
}

func (m *MockBookRepository) Count(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Books), nil
}

func (m *MockBookRepository) StreamAll(ctx context.Context, callback func(*models.Book) error) error {
	m.mu.Lock()
	books := make([]*models.Book, 0, len(m.order))
	for _, id := range m.order {
		books = append(books, m.Books[id])
	}
	m.mu.Unlock()

	for _, book := range books {
		if err := callback(book); err != nil {
			return err
		}
	}
	return nil
}

func (m *MockBookRepository) Delete(ctx context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.Books[id]; !ok {
		return false, nil
	}
	delete(m.Books, id)
	for i, oid := range m.order {
		if oid == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return true, nil
}

// MockJobRepository is a mock implementation of JobRepository
type MockJobRepository struct {
	mu              sync.Mutex
	Jobs            map[string]*models.ImportJob
	IdempotencyJobs map[string]*models.ImportJob
	Errors          map[string][]models.ValidationError
	CreateError     error
	UpdateError     error
}

func NewMockJobRepository() *MockJobRepository {
	return &MockJobRepository{
		Jobs:            make(map[string]*models.ImportJob),
		IdempotencyJobs: make(map[string]*models.ImportJob),
		Errors:          make(map[string][]models.ValidationError),
	}
}

func (m *MockJobRepository) Create(ctx context.Context, job *models.ImportJob) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.CreateError != nil {
		return m.CreateError
	}
	stored := m.copyOf(job)
	m.Jobs[job.ID] = stored
	if job.IdempotencyKey != "" {
		m.IdempotencyJobs[job.IdempotencyKey] = stored
	}
	return nil
}

func (m *MockJobRepository) Update(ctx context.Context, job *models.ImportJob) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.UpdateError != nil {
		return m.UpdateError
	}
	m.Jobs[job.ID] = m.copyOf(job)
	return nil
}

func (m *MockJobRepository) GetByID(ctx context.Context, id string) (*models.ImportJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.copyOf(m.Jobs[id]), nil
}

func (m *MockJobRepository) GetByIdempotencyKey(ctx context.Context, key string) (*models.ImportJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	job := m.IdempotencyJobs[key]
	if job == nil {
		return nil, nil
	}
	return m.copyOf(m.Jobs[job.ID]), nil
}

// copyOf returns a snapshot so callers see repository state, not aliases
func (m *MockJobRepository) copyOf(job *models.ImportJob) *models.ImportJob {
	if job == nil {
		return nil
	}
	c := *job
	return &c
}

func (m *MockJobRepository) GetPendingJobs(ctx context.Context) ([]*models.ImportJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var pending []*models.ImportJob
	for _, job := range m.Jobs {
		if job.Status == models.JobStatusPending {
			pending = append(pending, m.copyOf(job))
		}
	}
	sort.Slice(pending, func(i, j int) bool { return pending[i].CreatedAt.Before(pending[j].CreatedAt) })
	return pending, nil
}

func (m *MockJobRepository) MarkJobAsProcessing(ctx context.Context, jobID string) (bool, error) {
	return m.TransitionStatus(ctx, jobID, models.JobStatusPending, models.JobStatusProcessing)
}

func (m *MockJobRepository) TransitionStatus(ctx context.Context, jobID string, from, to models.JobStatus) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	job, exists := m.Jobs[jobID]
	if !exists || job.Status != from {
		return false, nil
	}
	job.Status = to
	return true, nil
}

func (m *MockJobRepository) CountByStatus(ctx context.Context) (map[models.JobStatus]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	counts := make(map[models.JobStatus]int)
	for _, job := range m.Jobs {
		counts[job.Status]++
	}
	return counts, nil
}

func (m *MockJobRepository) AddErrors(ctx context.Context, jobID string, errors []models.ValidationError) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Errors[jobID] = append(m.Errors[jobID], errors...)
	return nil
}

func (m *MockJobRepository) GetErrors(ctx context.Context, jobID string, limit int) ([]models.ValidationError, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	errors := append([]models.ValidationError{}, m.Errors[jobID]...)
	if limit > 0 && len(errors) > limit {
		return errors[:limit], nil
	}
	return errors, nil
}
