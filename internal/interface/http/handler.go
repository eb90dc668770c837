package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/weatherlens/internal/domain/job"
	"github.com/yanqian/weatherlens/internal/domain/prompt"
	"github.com/yanqian/weatherlens/internal/domain/weather"
)

// multipartOverhead leaves room for form boundaries and the prompt field on
// top of the image size limit.
const multipartOverhead = 1 << 20

// Pipeline is the request pipeline the handlers drive.
type Pipeline interface {
	Weather(ctx context.Context, req weather.Request) (weather.Snapshot, error)
	Prompt(ctx context.Context, req prompt.Request) (prompt.Response, error)
	ProcessImage(ctx context.Context, upload job.Upload, editPrompt string) (job.Result, error)
}

// Handler wires the HTTP transport to the pipeline.
type Handler struct {
	pipeline       Pipeline
	maxUploadBytes int64
	logger         *slog.Logger
}

// NewHandler constructs the root HTTP handler.
func NewHandler(pipeline Pipeline, maxUploadBytes int64, logger *slog.Logger) *Handler {
	return &Handler{
		pipeline:       pipeline,
		maxUploadBytes: maxUploadBytes,
		logger:         logger.With("component", "http.handler"),
	}
}

// Weather geocodes a place and returns the weather at the requested hour.
func (h *Handler) Weather(c *gin.Context) {
	var req weather.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", "Location and datetime are required", err))
		return
	}

	snap, err := h.pipeline.Weather(c.Request.Context(), req)
	if err != nil {
		abortWithError(c, fromDomainError(err))
		return
	}
	c.JSON(http.StatusOK, snap)
}

// GeneratePrompt turns a previously returned snapshot into an edit prompt.
func (h *Handler) GeneratePrompt(c *gin.Context) {
	var body struct {
		WeatherData json.RawMessage `json:"weatherData"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", "Request body must be JSON", err))
		return
	}
	raw := bytes.TrimSpace(body.WeatherData)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", "Weather data is required", nil))
		return
	}
	if err := weather.ValidateSnapshotJSON(raw); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", err.Error(), err))
		return
	}
	var snap weather.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", "Weather data is malformed", err))
		return
	}

	resp, err := h.pipeline.Prompt(c.Request.Context(), prompt.Request{WeatherData: &snap})
	if err != nil {
		abortWithError(c, fromDomainError(err))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ProcessImage accepts a multipart image plus prompt and returns the edited image URL.
func (h *Handler) ProcessImage(c *gin.Context) {
	if h.maxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes+multipartOverhead)
	}

	fileHeader, err := c.FormFile("image")
	if err != nil {
		if isBodyTooLarge(err) {
			abortWithError(c, NewHTTPError(http.StatusRequestEntityTooLarge, "payload_too_large", "Image exceeds maximum allowed size", err))
			return
		}
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", "No image file provided", err))
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", "Uploaded image could not be read", err))
		return
	}
	defer file.Close()

	upload := job.Upload{
		Filename: fileHeader.Filename,
		MimeType: partContentType(fileHeader),
		Content:  file,
	}
	res, err := h.pipeline.ProcessImage(c.Request.Context(), upload, c.PostForm("prompt"))
	if err != nil {
		abortWithError(c, fromDomainError(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

// Health reports liveness.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func partContentType(fh *multipart.FileHeader) string {
	return strings.TrimSpace(fh.Header.Get("Content-Type"))
}

func isBodyTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return true
	}
	// multipart flattens some read errors into plain text.
	return strings.Contains(err.Error(), "request body too large")
}
