package handlers

import (
	"database/sql"
	_ "embed"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"ecoadvisor-service/config"
	"ecoadvisor-service/service"
	"ecoadvisor-service/version"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"
)

//go:embed web/index.html
var indexHTML string

// acceptedImageTypes are the upload formats the analyze endpoint accepts.
var acceptedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
}

// Handlers represents the HTTP handlers
type Handlers struct {
	cfg     *config.Config
	svc     *service.Service
	started time.Time
}

// NewHandlers creates new HTTP handlers
func NewHandlers(cfg *config.Config, svc *service.Service) *Handlers {
	return &Handlers{
		cfg:     cfg,
		svc:     svc,
		started: time.Now(),
	}
}

// Index serves the single-page UI
func (h *Handlers) Index(c *gin.Context) {
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.String(http.StatusOK, indexHTML)
}

// HealthCheck handles health check requests
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "ecoadvisor-service",
	})
}

// Version returns build information
func (h *Handlers) Version(c *gin.Context) {
	c.JSON(http.StatusOK, version.Get("ecoadvisor-service"))
}

// Status reports whether analysis is available and which features are on.
// The UI uses this to show its disabled banner when no credential is set.
func (h *Handlers) Status(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service":         "ecoadvisor-service",
		"enabled":         h.svc.Enabled(),
		"provider":        h.svc.Source(),
		"history_enabled": h.svc.HistoryEnabled(),
		"uptime_seconds":  int(time.Since(h.started).Seconds()),
	})
}

// Analyze accepts a multipart image upload, runs the analysis and returns
// the sectioned result.
func (h *Handlers) Analyze(c *gin.Context) {
	fileHeader, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Please upload an image first."})
		return
	}

	if fileHeader.Size > h.cfg.MaxUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{
			"error": "The image is too large.",
			"limit": h.cfg.MaxUploadBytes,
		})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		log.Errorf("Failed to open uploaded file: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Could not read the uploaded image."})
		return
	}
	defer file.Close()

	imageData, err := io.ReadAll(file)
	if err != nil {
		log.Errorf("Failed to read uploaded file: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Could not read the uploaded image."})
		return
	}

	mimeType := http.DetectContentType(imageData)
	if !acceptedImageTypes[mimeType] {
		c.JSON(http.StatusUnsupportedMediaType, gin.H{
			"error": "Unsupported image format. Please upload a JPEG or PNG file.",
		})
		return
	}

	result, err := h.svc.Analyze(imageData, mimeType)
	if err != nil {
		h.respondAnalysisError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// respondAnalysisError maps analysis error codes to HTTP responses. An
// empty provider reply is "no content returned", not an error page.
func (h *Handlers) respondAnalysisError(c *gin.Context, err error) {
	var aerr *service.Error
	if !errors.As(err, &aerr) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Unexpected error during analysis."})
		return
	}

	switch aerr.Code {
	case service.CodeEmptyInput:
		c.JSON(http.StatusBadRequest, gin.H{"error": aerr.Message})
	case service.CodeMissingCredential:
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": aerr.Message})
	case service.CodeProviderBlocked:
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": aerr.Message})
	case service.CodeEmptyResult:
		c.JSON(http.StatusOK, gin.H{
			"source":   h.svc.Source(),
			"sections": []any{},
			"notice":   "The analysis returned no content.",
		})
	default:
		// provider_interrupted without partial text, provider_other
		c.JSON(http.StatusBadGateway, gin.H{"error": aerr.Message})
	}
}

// ListAnalyses returns recent analysis history records
func (h *Handlers) ListAnalyses(c *gin.Context) {
	db := h.svc.History()
	if db == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Analysis history is not enabled."})
		return
	}

	limit := 20
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}

	records, err := db.ListRecent(limit)
	if err != nil {
		log.Errorf("Failed to list analysis history: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load analysis history."})
		return
	}

	// Raw reply text can be large; trim it from the listing.
	for _, rec := range records {
		rec.RawText = truncate(rec.RawText, 200)
	}

	c.JSON(http.StatusOK, gin.H{"analyses": records})
}

// GetAnalysis returns one analysis history record by id
func (h *Handlers) GetAnalysis(c *gin.Context) {
	db := h.svc.History()
	if db == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Analysis history is not enabled."})
		return
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid analysis id."})
		return
	}

	rec, err := db.GetAnalysisByID(id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Analysis not found."})
			return
		}
		log.Errorf("Failed to load analysis %d: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load the analysis."})
		return
	}

	c.JSON(http.StatusOK, rec)
}

// GetStats returns statistics about recorded analyses
func (h *Handlers) GetStats(c *gin.Context) {
	db := h.svc.History()
	if db == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Analysis history is not enabled."})
		return
	}

	total, bySource, err := db.GetStats()
	if err != nil {
		log.Errorf("Failed to load analysis stats: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load analysis stats."})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"total_analyses": total,
		"by_source":      bySource,
	})
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return strings.TrimSpace(s[:max]) + "…"
}
