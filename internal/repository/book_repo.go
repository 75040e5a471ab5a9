package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/bookstore-catalog-api/internal/database"
	"github.com/bookstore-catalog-api/internal/models"
	"github.com/lib/pq"
)

const bookColumns = `id, title, author, description, price, cover_image, isbn, publisher,
	publication_date, page_count, stock_quantity, rating, genre, created_at, updated_at`

// bookRepo is the concrete implementation of BookRepository
type bookRepo struct {
	db *database.DB
}

// NewBookRepo creates a new book repository
func NewBookRepo(db *database.DB) BookRepository {
	return &bookRepo{db: db}
}

// Upsert inserts or updates a book. xmax is zero only for a freshly
// inserted tuple, which tells creates from updates in one round trip.
func (r *bookRepo) Upsert(ctx context.Context, book *models.Book) (bool, error) {
	conflict := `ON CONFLICT (isbn) WHERE isbn <> ''`
	if book.ISBN == "" {
		conflict = `ON CONFLICT (LOWER(title), LOWER(author)) WHERE isbn = ''`
	}

	query := `
		INSERT INTO books (` + bookColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		` + conflict + ` DO UPDATE SET
			title = EXCLUDED.title,
			author = EXCLUDED.author,
			description = EXCLUDED.description,
			price = EXCLUDED.price,
			cover_image = EXCLUDED.cover_image,
			publisher = EXCLUDED.publisher,
			publication_date = EXCLUDED.publication_date,
			page_count = EXCLUDED.page_count,
			stock_quantity = EXCLUDED.stock_quantity,
			rating = EXCLUDED.rating,
			genre = EXCLUDED.genre,
			updated_at = EXCLUDED.updated_at
		RETURNING id, created_at, (xmax = 0) AS inserted
	`

	now := time.Now()
	if book.CreatedAt.IsZero() {
		book.CreatedAt = now
	}
	book.UpdatedAt = now

	var inserted bool
	err := r.db.QueryRowContext(ctx, query,
		book.ID, book.Title, book.Author, book.Description, book.Price, book.CoverImage,
		book.ISBN, book.Publisher, book.PublicationDate, book.PageCount, book.StockQuantity,
		book.Rating, pq.Array(genres(book.Genre)), book.CreatedAt, book.UpdatedAt,
	).Scan(&book.ID, &book.CreatedAt, &inserted)
	if err != nil {
		return false, err
	}
	return inserted, nil
}

// Update overwrites the book with the given ID
func (r *bookRepo) Update(ctx context.Context, book *models.Book) (bool, error) {
	query := `
		UPDATE books SET
			title = $1, author = $2, description = $3, price = $4, cover_image = $5,
			isbn = $6, publisher = $7, publication_date = $8, page_count = $9,
			stock_quantity = $10, rating = $11, genre = $12, updated_at = $13
		WHERE id = $14
		RETURNING created_at
	`
	book.UpdatedAt = time.Now()

	err := r.db.QueryRowContext(ctx, query,
		book.Title, book.Author, book.Description, book.Price, book.CoverImage,
		book.ISBN, book.Publisher, book.PublicationDate, book.PageCount,
		book.StockQuantity, book.Rating, pq.Array(genres(book.Genre)), book.UpdatedAt, book.ID,
	).Scan(&book.CreatedAt)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// GetByID retrieves a book by ID
func (r *bookRepo) GetByID(ctx context.Context, id string) (*models.Book, error) {
	query := `SELECT ` + bookColumns + ` FROM books WHERE id = $1`

	book, err := scanBook(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return book, nil
}

// List returns one page of the catalog, oldest first
func (r *bookRepo) List(ctx context.Context, limit, offset int) ([]*models.Book, error) {
	query := `SELECT ` + bookColumns + ` FROM books ORDER BY created_at, id LIMIT $1 OFFSET $2`
	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	books := []*models.Book{}
	for rows.Next() {
		book, err := scanBook(rows)
		if err != nil {
			return nil, err
		}
		books = append(books, book)
	}
	return books, rows.Err()
}

// Count returns the total number of books
func (r *bookRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM books").Scan(&count)
	return count, err
}

// StreamAll streams all books for export (memory efficient)
func (r *bookRepo) StreamAll(ctx context.Context, callback func(*models.Book) error) error {
	query := `SELECT ` + bookColumns + ` FROM books ORDER BY created_at, id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		book, err := scanBook(rows)
		if err != nil {
			return err
		}
		if err := callback(book); err != nil {
			return err
		}
	}

	return rows.Err()
}

// Delete removes a book by ID
func (r *bookRepo) Delete(ctx context.Context, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx, "DELETE FROM books WHERE id = $1", id)
	if err != nil {
		return false, err
	}
	n, _ := result.RowsAffected()
	return n > 0, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanBook(row rowScanner) (*models.Book, error) {
	var book models.Book
	var publicationDate sql.NullTime
	var genre pq.StringArray

	err := row.Scan(
		&book.ID, &book.Title, &book.Author, &book.Description, &book.Price,
		&book.CoverImage, &book.ISBN, &book.Publisher, &publicationDate,
		&book.PageCount, &book.StockQuantity, &book.Rating, &genre,
		&book.CreatedAt, &book.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if publicationDate.Valid {
		book.PublicationDate = &publicationDate.Time
	}
	book.Genre = genres(genre)
	return &book, nil
}

func genres(g []string) []string {
	if g == nil {
		return []string{}
	}
	return g
}
