package csvimport

import (
	"bytes"
	"encoding/csv"
	"io"
)

// TemplateHeader is the column order of the downloadable import template
var TemplateHeader = []string{
	"title", "author", "description", "price", "cover_image", "isbn",
	"publisher", "publication_date", "page_count", "stock_quantity", "rating", "genre",
}

var templateRows = [][]string{
	{
		"The Great Gatsby", "F. Scott Fitzgerald", "A portrait of the Jazz Age on Long Island",
		"4000", "https://example.com/covers/the-great-gatsby.jpg", "978-0-7432-7356-5",
		"Scribner", "1925-04-10", "180", "2", "4.5", "Fiction, Classics",
	},
	{
		"Dune", "Frank Herbert", "Desert planet politics and prophecy",
		"3500", "https://example.com/covers/dune.jpg", "978-0-441-01359-3",
		"Ace Books", "1965-08-01", "412", "1", "4.7", "Science Fiction",
	},
}

// WriteTemplate writes the import template: header row plus two samples
func WriteTemplate(w io.Writer) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(TemplateHeader); err != nil {
		return err
	}
	if err := writer.WriteAll(templateRows); err != nil {
		return err
	}
	return writer.Error()
}

// Template returns the import template as bytes
func Template() []byte {
	var buf bytes.Buffer
	// Writes to a bytes.Buffer cannot fail.
	_ = WriteTemplate(&buf)
	return buf.Bytes()
}
