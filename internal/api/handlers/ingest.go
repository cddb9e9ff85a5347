package handlers

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/PlateWatch-ANPR/Ingest-Service/internal/models"
	"github.com/PlateWatch-ANPR/Ingest-Service/internal/pipeline"
	"github.com/PlateWatch-ANPR/Ingest-Service/internal/services"
)

// Processor runs one submission through the ingestion pipeline.
type Processor interface {
	Process(ctx context.Context, sub models.Submission) (models.Result, error)
}

// Scanner optionally vets raw image bytes before the pipeline runs.
type Scanner interface {
	ScanBytes(ctx context.Context, content []byte) error
}

type IngestHandler struct {
	pipeline Processor
	scanner  Scanner
	location *time.Location
	log      *zap.Logger
}

// NewIngestHandler wires the handler. scanner may be nil; location is the
// fixed civil timezone used to stamp captures regardless of server locale.
func NewIngestHandler(p Processor, scanner Scanner, location *time.Location, log *zap.Logger) *IngestHandler {
	return &IngestHandler{pipeline: p, scanner: scanner, location: location, log: log}
}

type ingestRequest struct {
	Image     string `json:"image"`
	ImageName string `json:"image_name"`
}

func (h *IngestHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// ProcessImage handles POST /. Malformed input is rejected before any
// upstream call; pipeline failures come back as 500 with the failing
// stage named in the error string.
func (h *IngestHandler) ProcessImage(c *gin.Context) {
	var req ingestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body"})
		return
	}
	if req.Image == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "image is required"})
		return
	}

	content, err := base64.StdEncoding.DecodeString(req.Image)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid base64 image"})
		return
	}

	now := time.Now().In(h.location)
	imageName := req.ImageName
	if imageName == "" {
		imageName = fmt.Sprintf("esp32cam_%s.jpg", now.Format("150405"))
	}

	if h.scanner != nil {
		if err := h.scanner.ScanBytes(c.Request.Context(), content); err != nil {
			if errors.Is(err, services.ErrInfected) {
				h.log.Warn("rejected infected upload", zap.String("image_name", imageName), zap.Error(err))
				c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "image rejected by malware scan"})
				return
			}
			// Scan infrastructure trouble should not block ingestion.
			h.log.Warn("malware scan unavailable", zap.Error(err))
		}
	}

	result, err := h.pipeline.Process(c.Request.Context(), models.Submission{
		Content:    content,
		ImageName:  imageName,
		CapturedAt: now,
	})
	if err != nil {
		h.log.Error("pipeline failed", zap.String("image_name", imageName), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

var _ Processor = (*pipeline.Pipeline)(nil)
