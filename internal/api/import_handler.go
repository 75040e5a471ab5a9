package api

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/bookstore-catalog-api/internal/config"
	"github.com/bookstore-catalog-api/internal/csvimport"
	"github.com/bookstore-catalog-api/internal/models"
	"github.com/bookstore-catalog-api/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// templateFileName is the download name of the import template
const templateFileName = "book_import_template.csv"

// ImportHandler handles import endpoints
type ImportHandler struct {
	services *service.Services
	cfg      *config.Config
	log      zerolog.Logger
}

// NewImportHandler creates a new ImportHandler
func NewImportHandler(services *service.Services, cfg *config.Config, log zerolog.Logger) *ImportHandler {
	return &ImportHandler{
		services: services,
		cfg:      cfg,
		log:      log.With().Str("handler", "import").Logger(),
	}
}

type fileURLRequest struct {
	FileURL string `json:"file_url" binding:"required,url"`
}

// CreateImport handles POST /v1/imports
// Accepts a multipart "file" upload or a JSON body with file_url and
// returns the preview of the parsed file.
func (h *ImportHandler) CreateImport(c *gin.Context) {
	ctx := c.Request.Context()

	req := &models.ImportRequest{
		IdempotencyKey: c.GetHeader("Idempotency-Key"),
	}

	var src io.Reader
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		file, header, err := c.Request.FormFile("file")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "file field is required"})
			return
		}
		defer file.Close()

		if h.cfg.Import.MaxUploadSize > 0 && header.Size > h.cfg.Import.MaxUploadSize {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{
				"error": fmt.Sprintf("file too large, max size is %d MB", h.cfg.Import.MaxUploadSize/(1024*1024)),
			})
			return
		}
		req.FileName = header.Filename
		src = file
	} else {
		var body fileURLRequest
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "file upload or file_url is required"})
			return
		}

		download, err := h.services.Downloader.Fetch(ctx, body.FileURL)
		if err != nil {
			h.writeError(c, err, "failed to download file")
			return
		}
		defer download.Body.Close()

		req.FileName = download.FileName
		req.FileURL = body.FileURL
		src = download.Body
	}

	preview, err := h.services.Import.Preview(ctx, req, src)
	if err != nil {
		h.writeError(c, err, "failed to process import")
		return
	}

	c.JSON(http.StatusOK, preview)
}

// GetTemplate handles GET /v1/imports/template
func (h *ImportHandler) GetTemplate(c *gin.Context) {
	c.Header("Content-Disposition", "attachment; filename="+templateFileName)
	c.Data(http.StatusOK, "text/csv", csvimport.Template())
}

// GetPreview handles GET /v1/imports/:job_id/preview
func (h *ImportHandler) GetPreview(c *gin.Context) {
	preview, err := h.services.Import.GetPreview(c.Request.Context(), c.Param("job_id"))
	if err != nil {
		h.writeError(c, err, "failed to get preview")
		return
	}
	c.JSON(http.StatusOK, preview)
}

// ConfirmImport handles POST /v1/imports/:job_id/confirm
func (h *ImportHandler) ConfirmImport(c *gin.Context) {
	jobID := c.Param("job_id")

	job, err := h.services.Import.Confirm(c.Request.Context(), jobID)
	if err != nil {
		h.writeError(c, err, "failed to confirm import")
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"job_id":  job.ID,
		"status":  job.Status,
		"message": "Import confirmed and queued for processing",
	})
}

// CancelImport handles DELETE /v1/imports/:job_id
func (h *ImportHandler) CancelImport(c *gin.Context) {
	if err := h.services.Import.Cancel(c.Request.Context(), c.Param("job_id")); err != nil {
		h.writeError(c, err, "failed to cancel import")
		return
	}
	c.Status(http.StatusNoContent)
}

// GetImportStatus handles GET /v1/imports/:job_id
func (h *ImportHandler) GetImportStatus(c *gin.Context) {
	ctx := c.Request.Context()
	jobID := c.Param("job_id")

	job, err := h.services.Job.GetJob(ctx, jobID)
	if err != nil {
		h.log.Error().Err(err).Str("job_id", jobID).Msg("Failed to get job")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get job status"})
		return
	}
	if job == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
		return
	}

	c.JSON(http.StatusOK, job)
}

// GetImportErrors handles GET /v1/imports/:job_id/errors
func (h *ImportHandler) GetImportErrors(c *gin.Context) {
	ctx := c.Request.Context()
	jobID := c.Param("job_id")

	job, err := h.services.Job.GetJob(ctx, jobID)
	if err != nil {
		h.log.Error().Err(err).Str("job_id", jobID).Msg("Failed to get job")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get errors"})
		return
	}
	if job == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
		return
	}

	issues, err := h.services.Job.GetJobErrors(ctx, jobID)
	if err != nil {
		h.log.Error().Err(err).Str("job_id", jobID).Msg("Failed to get job errors")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get errors"})
		return
	}

	if c.Query("format") == "csv" {
		c.Header("Content-Type", "text/csv")
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=errors_%s.csv", jobID))
		writer := csv.NewWriter(c.Writer)
		writer.Write([]string{"line", "field", "message", "value"})
		for _, e := range issues {
			value := ""
			if e.Value != nil {
				value = fmt.Sprintf("%v", e.Value)
			}
			writer.Write([]string{strconv.Itoa(e.Line), e.Field, e.Message, value})
		}
		writer.Flush()
		if err := writer.Error(); err != nil {
			h.log.Error().Err(err).Str("job_id", jobID).Msg("Failed to write error report")
		}
		return
	}

	if issues == nil {
		issues = []models.ValidationError{}
	}
	c.JSON(http.StatusOK, gin.H{
		"job_id":      jobID,
		"error_count": len(issues),
		"errors":      issues,
	})
}

// writeError maps service errors to HTTP responses
func (h *ImportHandler) writeError(c *gin.Context, err error, msg string) {
	jobID := c.Param("job_id")
	switch {
	case errors.Is(err, service.ErrJobNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
	case errors.Is(err, service.ErrInvalidJobState), errors.Is(err, service.ErrNothingToImport):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrFileTooLarge):
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidURL):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		h.log.Error().Err(err).Str("job_id", jobID).Msg(msg)
		c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
	}
}
