package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/bookstore-catalog-api/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// ExportHandler handles export endpoints
type ExportHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewExportHandler creates a new ExportHandler
func NewExportHandler(services *service.Services, log zerolog.Logger) *ExportHandler {
	return &ExportHandler{
		services: services,
		log:      log.With().Str("handler", "export").Logger(),
	}
}

// StreamExport handles GET /v1/exports?format=...
// Streams the catalog directly to the response; csv is the default.
func (h *ExportHandler) StreamExport(c *gin.Context) {
	format := c.DefaultQuery("format", service.FormatCSV)

	err := h.services.Export.StreamBooks(c.Request.Context(), c.Writer, format)
	if errors.Is(err, service.ErrUnsupportedFormat) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "format must be one of: " + strings.Join(service.ExportFormats, ", "),
		})
		return
	}
	if err != nil {
		// Can't return error JSON after streaming has started
		h.log.Error().Err(err).Str("format", format).Msg("Export failed")
	}
}
