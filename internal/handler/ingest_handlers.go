package handler

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/salescope/salescope/internal/model"
	"github.com/salescope/salescope/internal/service"
)

// allowedExtensions gates which upload types the ingestor can route.
var allowedExtensions = map[string]bool{
	".csv":  true,
	".xlsx": true,
	".pdf":  true,
}

var allowedContentTypes = map[string]bool{
	"text/csv":                 true,
	"application/vnd.ms-excel": true,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": true,
	"application/pdf": true,
}

type IngestHandler struct {
	ingestService *service.IngestService
	maxBytes      int64
}

func NewIngestHandler(ingestService *service.IngestService, maxBytes int64) *IngestHandler {
	if maxBytes <= 0 {
		maxBytes = 100 * 1024 * 1024
	}
	return &IngestHandler{
		ingestService: ingestService,
		maxBytes:      maxBytes,
	}
}

// Upload retains the file and queues it for background ingestion. The
// caller is acknowledged immediately; normalization failures after
// this point surface only in logs and the recent-batches listing.
func (h *IngestHandler) Upload(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "multipart field 'file' is required"})
		return
	}

	contentType := file.Header.Get("Content-Type")
	if !allowedContentTypes[contentType] {
		c.JSON(http.StatusUnsupportedMediaType, gin.H{"error": fmt.Sprintf("unsupported content type: %s", contentType)})
		return
	}
	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !allowedExtensions[ext] {
		c.JSON(http.StatusUnsupportedMediaType, gin.H{"error": fmt.Sprintf("unsupported file extension: %s", ext)})
		return
	}

	if file.Size > h.maxBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": fmt.Sprintf("file exceeds the %d byte limit", h.maxBytes)})
		return
	}

	sourceFile := filepath.Base(file.Filename)
	if sourceFile == "" || sourceFile == "." {
		sourceFile = "sales_report" + ext
	}

	ingestionID := h.ingestService.NewIngestionID()
	dest := h.ingestService.DestPath(ingestionID, sourceFile)
	if err := c.SaveUploadedFile(file, dest); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store upload"})
		return
	}

	if err := h.ingestService.Queue(dest, sourceFile, ingestionID); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusAccepted, model.IngestionResponse{
		IngestionID:  ingestionID,
		SourceFile:   sourceFile,
		Status:       "queued",
		RowsIngested: 0,
	})
}

// Recent lists recent ingestion batches with row counts and date
// ranges derived from the fact table.
func (h *IngestHandler) Recent(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be an integer"})
			return
		}
		limit = v
	}

	batches, err := h.ingestService.RecentBatches(c.Request.Context(), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, batches)
}
