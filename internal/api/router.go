package api

import (
	"context"
	"net/http"
	"time"

	"github.com/bookstore-catalog-api/internal/config"
	"github.com/bookstore-catalog-api/internal/metrics"
	"github.com/bookstore-catalog-api/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// healthTimeout bounds the database ping behind /health
const healthTimeout = 2 * time.Second

// HealthChecker reports whether a backing store is reachable
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// NewRouter creates and configures the Gin router. m may be nil, in which
// case /metrics is not registered; db may be nil to skip the database ping.
func NewRouter(services *service.Services, cfg *config.Config, m *metrics.Metrics, db HealthChecker, log zerolog.Logger) *gin.Engine {
	router := gin.New()
	router.MaxMultipartMemory = 8 << 20

	// Middleware
	router.Use(recoveryMiddleware(log))
	router.Use(loggingMiddleware(log))
	router.Use(corsMiddleware())

	// Handlers
	importHandler := NewImportHandler(services, cfg, log)
	bookHandler := NewBookHandler(services, log)
	exportHandler := NewExportHandler(services, log)

	router.GET("/health", healthCheck(db, log))
	router.GET("/stats", statsHandler(services, log))
	if m != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})))
	}

	// API v1
	v1 := router.Group("/v1")
	{
		imports := v1.Group("/imports")
		{
			imports.POST("", importHandler.CreateImport)
			imports.GET("/template", importHandler.GetTemplate)
			imports.GET("/:job_id", importHandler.GetImportStatus)
			imports.GET("/:job_id/errors", importHandler.GetImportErrors)
			imports.GET("/:job_id/preview", importHandler.GetPreview)
			imports.POST("/:job_id/confirm", importHandler.ConfirmImport)
			imports.DELETE("/:job_id", importHandler.CancelImport)
		}

		books := v1.Group("/books")
		{
			books.GET("", bookHandler.ListBooks)
			books.POST("", bookHandler.CreateBook)
			books.GET("/:id", bookHandler.GetBook)
			books.PUT("/:id", bookHandler.UpdateBook)
			books.DELETE("/:id", bookHandler.DeleteBook)
		}

		v1.GET("/exports", exportHandler.StreamExport)
	}

	return router
}

// healthCheck returns the health status
func healthCheck(db HealthChecker, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if db != nil {
			ctx, cancel := contextWithTimeout(c, healthTimeout)
			defer cancel()
			if err := db.HealthCheck(ctx); err != nil {
				log.Error().Err(err).Msg("Database health check failed")
				c.JSON(http.StatusServiceUnavailable, gin.H{
					"status":    "unhealthy",
					"timestamp": time.Now().Format(time.RFC3339),
					"service":   "bookstore-catalog-api",
					"error":     "database unavailable",
				})
				return
			}
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"timestamp": time.Now().Format(time.RFC3339),
			"service":   "bookstore-catalog-api",
		})
	}
}

// statsHandler returns catalog and import job counts
func statsHandler(services *service.Services, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		books, err := services.Export.GetCount(ctx)
		if err != nil {
			log.Error().Err(err).Msg("Failed to count books")
		}
		jobs, err := services.Job.CountByStatus(ctx)
		if err != nil {
			log.Error().Err(err).Msg("Failed to count import jobs")
		}

		byStatus := gin.H{}
		for status, n := range jobs {
			byStatus[string(status)] = n
		}

		c.JSON(http.StatusOK, gin.H{
			"database": gin.H{
				"books":       books,
				"import_jobs": byStatus,
			},
			"timestamp": time.Now().Format(time.RFC3339),
		})
	}
}

// recoveryMiddleware handles panics
func recoveryMiddleware(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				log.Error().Interface("error", err).Str("path", c.Request.URL.Path).Msg("Panic recovered")
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error": "Internal server error",
				})
			}
		}()
		c.Next()
	}
}

// loggingMiddleware logs requests
func loggingMiddleware(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		statusCode := c.Writer.Status()

		event := log.Info()
		if statusCode >= 400 {
			event = log.Warn()
		}
		if statusCode >= 500 {
			event = log.Error()
		}

		event.
			Str("method", c.Request.Method).
			Str("path", path).
			Int("status", statusCode).
			Dur("duration", time.Since(start)).
			Str("client_ip", c.ClientIP()).
			Msg("Request completed")
	}
}

// corsMiddleware handles CORS
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Idempotency-Key")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// contextWithTimeout creates a context with timeout for handlers
func contextWithTimeout(c *gin.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), timeout)
}
