package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/bookstore-catalog-api/internal/models"
	"github.com/bookstore-catalog-api/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// BookHandler handles catalog endpoints
type BookHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewBookHandler creates a new BookHandler
func NewBookHandler(services *service.Services, log zerolog.Logger) *BookHandler {
	return &BookHandler{
		services: services,
		log:      log.With().Str("handler", "book").Logger(),
	}
}

// ListBooks handles GET /v1/books?limit=&offset=
func (h *BookHandler) ListBooks(c *gin.Context) {
	limit, err := queryInt(c, "limit", 0)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be an integer"})
		return
	}
	offset, err := queryInt(c, "offset", 0)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "offset must be an integer"})
		return
	}

	page, err := h.services.Book.List(c.Request.Context(), limit, offset)
	if err != nil {
		h.writeError(c, err, "failed to list books")
		return
	}
	c.JSON(http.StatusOK, page)
}

// CreateBook handles POST /v1/books. An existing book with the same ISBN,
// or the same title and author when no ISBN is given, is updated instead.
func (h *BookHandler) CreateBook(c *gin.Context) {
	var req models.BookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	book, created, err := h.services.Book.Save(c.Request.Context(), &req)
	if err != nil {
		h.writeError(c, err, "failed to save book")
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, book)
}

// GetBook handles GET /v1/books/:id
func (h *BookHandler) GetBook(c *gin.Context) {
	book, err := h.services.Book.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err, "failed to get book")
		return
	}
	c.JSON(http.StatusOK, book)
}

// UpdateBook handles PUT /v1/books/:id
func (h *BookHandler) UpdateBook(c *gin.Context) {
	var req models.BookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	book, err := h.services.Book.Update(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		h.writeError(c, err, "failed to update book")
		return
	}
	c.JSON(http.StatusOK, book)
}

// DeleteBook handles DELETE /v1/books/:id
func (h *BookHandler) DeleteBook(c *gin.Context) {
	if err := h.services.Book.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.writeError(c, err, "failed to delete book")
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *BookHandler) writeError(c *gin.Context, err error, msg string) {
	switch {
	case errors.Is(err, service.ErrBookNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "book not found"})
	case errors.Is(err, service.ErrInvalidBook):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		h.log.Error().Err(err).Str("book_id", c.Param("id")).Msg(msg)
		c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
	}
}

// queryInt reads an integer query parameter, returning def when it is absent
func queryInt(c *gin.Context, key string, def int) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}
