package models

import (
	"time"
)

// Book represents a book listed in the catalog
type Book struct {
	ID              string     `json:"id" db:"id"`
	Title           string     `json:"title" db:"title"`
	Author          string     `json:"author" db:"author"`
	Description     string     `json:"description" db:"description"`
	Price           float64    `json:"price" db:"price"`
	CoverImage      string     `json:"cover_image,omitempty" db:"cover_image"`
	ISBN            string     `json:"isbn,omitempty" db:"isbn"`
	Publisher       string     `json:"publisher,omitempty" db:"publisher"`
	PublicationDate *time.Time `json:"publication_date,omitempty" db:"publication_date"`
	PageCount       int        `json:"page_count,omitempty" db:"page_count"`
	StockQuantity   int        `json:"stock_quantity" db:"stock_quantity"`
	Rating          float64    `json:"rating,omitempty" db:"rating"`
	Genre           []string   `json:"genre" db:"genre"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at" db:"updated_at"`
}

// BookRequest is the JSON body accepted by the create/update book endpoints
type BookRequest struct {
	Title           string   `json:"title" binding:"required,max=200"`
	Author          string   `json:"author" binding:"required,max=100"`
	Description     string   `json:"description"`
	Price           float64  `json:"price" binding:"gte=0,lte=10000"`
	CoverImage      string   `json:"cover_image" binding:"omitempty,url"`
	ISBN            string   `json:"isbn"`
	Publisher       string   `json:"publisher"`
	PublicationDate string   `json:"publication_date" binding:"omitempty,datetime=2006-01-02"`
	PageCount       int      `json:"page_count" binding:"omitempty,min=1,max=10000"`
	StockQuantity   int      `json:"stock_quantity" binding:"gte=0"`
	Rating          float64  `json:"rating" binding:"gte=0,lte=5"`
	Genre           []string `json:"genre"`
}

// ImportedBookRow is one record produced by the CSV import pipeline
type ImportedBookRow struct {
	Title           string   `json:"title" yaml:"title"`
	Author          string   `json:"author" yaml:"author"`
	Description     string   `json:"description" yaml:"description,omitempty"`
	Price           float64  `json:"price" yaml:"price"`
	CoverImage      string   `json:"coverImage,omitempty" yaml:"coverImage,omitempty"`
	ISBN            string   `json:"isbn" yaml:"isbn,omitempty"`
	Publisher       string   `json:"publisher" yaml:"publisher,omitempty"`
	PublicationDate string   `json:"publicationDate,omitempty" yaml:"publicationDate,omitempty"`
	PageCount       int      `json:"pageCount,omitempty" yaml:"pageCount,omitempty"`
	StockQuantity   int      `json:"stockQuantity" yaml:"stockQuantity"`
	Rating          float64  `json:"rating,omitempty" yaml:"rating,omitempty"`
	Genre           []string `json:"genre" yaml:"genre,omitempty"`
}

// ToBook converts an imported row into a catalog book. The id and
// timestamps are assigned by the caller.
func (r *ImportedBookRow) ToBook() *Book {
	book := &Book{
		Title:         r.Title,
		Author:        r.Author,
		Description:   r.Description,
		Price:         r.Price,
		CoverImage:    r.CoverImage,
		ISBN:          r.ISBN,
		Publisher:     r.Publisher,
		PageCount:     r.PageCount,
		StockQuantity: r.StockQuantity,
		Rating:        r.Rating,
		Genre:         r.Genre,
	}
	if r.PublicationDate != "" {
		if t, err := time.Parse("2006-01-02", r.PublicationDate); err == nil {
			book.PublicationDate = &t
		}
	}
	if book.Genre == nil {
		book.Genre = []string{}
	}
	return book
}

// BookPage is one page of the catalog listing
type BookPage struct {
	Books  []*Book `json:"books"`
	Total  int     `json:"total"`
	Limit  int     `json:"limit"`
	Offset int     `json:"offset"`
}
