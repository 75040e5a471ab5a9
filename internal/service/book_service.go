package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bookstore-catalog-api/internal/models"
	"github.com/bookstore-catalog-api/internal/repository"
	"github.com/bookstore-catalog-api/internal/validation"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Page size bounds for List
const (
	DefaultPageSize = 50
	MaxPageSize     = 500
)

// bookService is the concrete implementation of BookService
type bookService struct {
	repo repository.BookRepository
	log  zerolog.Logger
}

// newBookService creates a new BookService
func newBookService(repo repository.BookRepository, log zerolog.Logger) *bookService {
	return &bookService{
		repo: repo,
		log:  log.With().Str("service", "book").Logger(),
	}
}

// Upsert writes one imported record to the catalog. The bool reports
// whether a new book was created.
func (s *bookService) Upsert(ctx context.Context, row *models.ImportedBookRow) (*models.Book, bool, error) {
	book := row.ToBook()
	book.ID = uuid.New().String()

	created, err := s.repo.Upsert(ctx, book)
	if err != nil {
		return nil, false, err
	}
	return book, created, nil
}

// Save creates a book from an API request, or updates the book with the
// same ISBN (or title and author)
func (s *bookService) Save(ctx context.Context, req *models.BookRequest) (*models.Book, bool, error) {
	book, err := bookFromRequest(req)
	if err != nil {
		return nil, false, err
	}
	book.ID = uuid.New().String()

	created, err := s.repo.Upsert(ctx, book)
	if err != nil {
		return nil, false, err
	}

	s.log.Info().Str("book_id", book.ID).Bool("created", created).Msg("Book saved")
	return book, created, nil
}

// Update overwrites an existing book
func (s *bookService) Update(ctx context.Context, id string, req *models.BookRequest) (*models.Book, error) {
	book, err := bookFromRequest(req)
	if err != nil {
		return nil, err
	}
	book.ID = id

	found, err := s.repo.Update(ctx, book)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrBookNotFound
	}
	return book, nil
}

// Get retrieves a book by ID
func (s *bookService) Get(ctx context.Context, id string) (*models.Book, error) {
	book, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if book == nil {
		return nil, ErrBookNotFound
	}
	return book, nil
}

// List returns one page of the catalog. limit is clamped to
// [1, MaxPageSize]; zero selects DefaultPageSize.
func (s *bookService) List(ctx context.Context, limit, offset int) (*models.BookPage, error) {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	if offset < 0 {
		offset = 0
	}

	books, err := s.repo.List(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	total, err := s.repo.Count(ctx)
	if err != nil {
		return nil, err
	}

	return &models.BookPage{Books: books, Total: total, Limit: limit, Offset: offset}, nil
}

// Delete removes a book
func (s *bookService) Delete(ctx context.Context, id string) error {
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrBookNotFound
	}
	s.log.Info().Str("book_id", id).Msg("Book deleted")
	return nil
}

// Count returns the number of books in the catalog
func (s *bookService) Count(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}

// bookFromRequest converts a bound request into a book. Binding tags cover
// ranges; ISBN shape and genre cleanup are checked here against the same
// rules the importer uses.
func bookFromRequest(req *models.BookRequest) (*models.Book, error) {
	isbn := strings.TrimSpace(req.ISBN)
	if isbn != "" {
		f, _ := validation.Lookup(validation.FieldISBN)
		if err := f.Check(isbn); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidBook, err)
		}
		isbn = validation.NormalizeISBN(isbn)
	}

	book := &models.Book{
		Title:         strings.TrimSpace(req.Title),
		Author:        strings.TrimSpace(req.Author),
		Description:   req.Description,
		Price:         req.Price,
		CoverImage:    req.CoverImage,
		ISBN:          isbn,
		Publisher:     req.Publisher,
		PageCount:     req.PageCount,
		StockQuantity: req.StockQuantity,
		Rating:        req.Rating,
		Genre:         []string{},
	}
	if book.Title == "" || book.Author == "" {
		return nil, fmt.Errorf("%w: title and author must not be blank", ErrInvalidBook)
	}

	for _, g := range req.Genre {
		if g = strings.TrimSpace(g); g != "" {
			book.Genre = append(book.Genre, g)
		}
	}

	if req.PublicationDate != "" {
		t, err := time.Parse("2006-01-02", req.PublicationDate)
		if err != nil {
			return nil, fmt.Errorf("%w: publication_date must be YYYY-MM-DD", ErrInvalidBook)
		}
		book.PublicationDate = &t
	}

	return book, nil
}
