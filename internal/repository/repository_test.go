package repository_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bookstore-catalog-api/internal/mocks"
	"github.com/bookstore-catalog-api/internal/models"
	"github.com/bookstore-catalog-api/internal/repository"
)

var (
	_ repository.BookRepository = (*mocks.MockBookRepository)(nil)
	_ repository.JobRepository  = (*mocks.MockJobRepository)(nil)
)

func TestMockBookRepository_UpsertByISBN(t *testing.T) {
	repo := mocks.NewMockBookRepository()
	ctx := context.Background()

	created, err := repo.Upsert(ctx, &models.Book{ID: "book-1", Title: "Dune", Author: "Frank Herbert", ISBN: "9780441013593", Price: 3500})
	if err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	if !created {
		t.Error("First upsert should create")
	}

	update := &models.Book{ID: "book-2", Title: "Dune (Deluxe)", Author: "Frank Herbert", ISBN: "9780441013593", Price: 5000}
	created, err = repo.Upsert(ctx, update)
	if err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	if created {
		t.Error("Second upsert with the same ISBN should update")
	}
	if update.ID != "book-1" {
		t.Errorf("Update should adopt the stored id, got %s", update.ID)
	}

	count, _ := repo.Count(ctx)
	if count != 1 {
		t.Errorf("Expected 1 book, got %d", count)
	}
	stored, _ := repo.GetByID(ctx, "book-1")
	if stored.Price != 5000 {
		t.Errorf("Expected updated price 5000, got %v", stored.Price)
	}
}

func TestMockBookRepository_UpsertByTitleAndAuthor(t *testing.T) {
	repo := mocks.NewMockBookRepository()
	ctx := context.Background()

	repo.Upsert(ctx, &models.Book{ID: "book-1", Title: "Book A", Author: "Jane Doe", Price: 3000})
	created, _ := repo.Upsert(ctx, &models.Book{ID: "book-2", Title: "book a", Author: "JANE DOE", Price: 3500})
	if created {
		t.Error("Title and author match should be case-insensitive")
	}

	created, _ = repo.Upsert(ctx, &models.Book{ID: "book-3", Title: "Book A", Author: "John Roe", Price: 3000})
	if !created {
		t.Error("Different author should create a new book")
	}
}

func TestMockBookRepository_ListAndDelete(t *testing.T) {
	repo := mocks.NewMockBookRepository()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		repo.Upsert(ctx, &models.Book{
			ID:     fmt.Sprintf("book-%d", i),
			Title:  fmt.Sprintf("Title %d", i),
			Author: "Author",
		})
	}

	page, _ := repo.List(ctx, 2, 1)
	if len(page) != 2 || page[0].ID != "book-1" || page[1].ID != "book-2" {
		t.Errorf("Unexpected page: %+v", page)
	}

	deleted, _ := repo.Delete(ctx, "book-1")
	if !deleted {
		t.Error("Delete should report the removed book")
	}
	deleted, _ = repo.Delete(ctx, "book-1")
	if deleted {
		t.Error("Deleting twice should report nothing removed")
	}

	var streamed []string
	repo.StreamAll(ctx, func(b *models.Book) error {
		streamed = append(streamed, b.ID)
		return nil
	})
	if len(streamed) != 4 || streamed[1] != "book-2" {
		t.Errorf("Unexpected stream order: %v", streamed)
	}
}

func TestMockJobRepository_PendingJobs(t *testing.T) {
	repo := mocks.NewMockJobRepository()
	ctx := context.Background()
	now := time.Now()

	jobs := []*models.ImportJob{
		{ID: "job-1", Status: models.JobStatusPending, CreatedAt: now.Add(2 * time.Second)},
		{ID: "job-2", Status: models.JobStatusProcessing, CreatedAt: now},
		{ID: "job-3", Status: models.JobStatusPending, CreatedAt: now.Add(time.Second)},
		{ID: "job-4", Status: models.JobStatusAwaitingConfirmation, CreatedAt: now},
	}
	for _, job := range jobs {
		repo.Create(ctx, job)
	}

	pending, err := repo.GetPendingJobs(ctx)
	if err != nil {
		t.Fatalf("GetPendingJobs failed: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("Expected 2 pending jobs, got %d", len(pending))
	}
	if pending[0].ID != "job-3" {
		t.Errorf("Pending jobs should be oldest first, got %s", pending[0].ID)
	}
}

func TestMockJobRepository_TransitionStatus(t *testing.T) {
	repo := mocks.NewMockJobRepository()
	ctx := context.Background()

	repo.Create(ctx, &models.ImportJob{ID: "job-1", Status: models.JobStatusAwaitingConfirmation})

	moved, err := repo.TransitionStatus(ctx, "job-1", models.JobStatusAwaitingConfirmation, models.JobStatusPending)
	if err != nil {
		t.Fatalf("TransitionStatus failed: %v", err)
	}
	if !moved {
		t.Error("Job should move to pending")
	}

	moved, _ = repo.TransitionStatus(ctx, "job-1", models.JobStatusAwaitingConfirmation, models.JobStatusCancelled)
	if moved {
		t.Error("Job is no longer awaiting confirmation")
	}

	marked, _ := repo.MarkJobAsProcessing(ctx, "job-1")
	if !marked {
		t.Error("Pending job should be marked as processing")
	}
	marked, _ = repo.MarkJobAsProcessing(ctx, "job-1")
	if marked {
		t.Error("Job should not be marked again")
	}

	counts, _ := repo.CountByStatus(ctx)
	if counts[models.JobStatusProcessing] != 1 {
		t.Errorf("Unexpected counts: %v", counts)
	}
}

func TestMockJobRepository_ValidationErrors(t *testing.T) {
	repo := mocks.NewMockJobRepository()
	ctx := context.Background()

	repo.Create(ctx, &models.ImportJob{ID: "job-1", Status: models.JobStatusAwaitingConfirmation})

	errors := []models.ValidationError{
		{Line: 1, Field: "price", Message: "price must be a number", Value: "abc"},
		{Line: 2, Field: "isbn", Message: "isbn is required"},
		{Line: 5, Field: "author", Message: "Missing or invalid author"},
	}
	repo.AddErrors(ctx, "job-1", errors)

	retrieved, err := repo.GetErrors(ctx, "job-1", 0)
	if err != nil {
		t.Fatalf("GetErrors failed: %v", err)
	}
	if len(retrieved) != 3 {
		t.Errorf("Expected 3 errors, got %d", len(retrieved))
	}

	retrieved, _ = repo.GetErrors(ctx, "job-1", 2)
	if len(retrieved) != 2 {
		t.Errorf("Expected 2 errors with limit, got %d", len(retrieved))
	}
}

func TestMockJobRepository_IdempotencyKey(t *testing.T) {
	repo := mocks.NewMockJobRepository()
	ctx := context.Background()

	repo.Create(ctx, &models.ImportJob{
		ID:             "job-1",
		Status:         models.JobStatusAwaitingConfirmation,
		IdempotencyKey: "unique-key-123",
	})

	retrieved, err := repo.GetByIdempotencyKey(ctx, "unique-key-123")
	if err != nil {
		t.Fatalf("GetByIdempotencyKey failed: %v", err)
	}
	if retrieved == nil {
		t.Fatal("Job should be found by idempotency key")
	}
	if retrieved.ID != "job-1" {
		t.Errorf("Expected job-1, got %s", retrieved.ID)
	}

	retrieved, _ = repo.GetByIdempotencyKey(ctx, "non-existent")
	if retrieved != nil {
		t.Error("Should not find job with non-existent key")
	}
}
