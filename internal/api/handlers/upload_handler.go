// internal/api/handlers/upload_handler.go
package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/sirjoon/azure-s3-uploader/internal/config"
	"github.com/sirjoon/azure-s3-uploader/internal/domain"
	"github.com/sirjoon/azure-s3-uploader/internal/metrics"
	"github.com/sirjoon/azure-s3-uploader/internal/relay"
)

// Uploader relays one file and returns a display-ready report.
type Uploader interface {
	Upload(ctx context.Context, upload domain.UploadRequest) (*domain.UploadReport, error)
}

type UploadHandler struct {
	uploads  Uploader
	upstream config.UpstreamConfig
}

func NewUploadHandler(uploads Uploader, upstream config.UpstreamConfig) *UploadHandler {
	return &UploadHandler{uploads: uploads, upstream: upstream}
}

// Index renders the upload form
func (h *UploadHandler) Index(c *gin.Context) {
	c.HTML(http.StatusOK, "index.tmpl", gin.H{
		"DirectLimit": metrics.FormatSize(domain.DirectUploadLimitBytes),
	})
}

// Upload relays the submitted PDF with the chosen method
func (h *UploadHandler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.fail(c, http.StatusRequestEntityTooLarge, fmt.Sprintf("File is larger than %s.", metrics.FormatSize(tooLarge.Limit)))
			return
		}
		h.fail(c, http.StatusBadRequest, "No file uploaded.")
		return
	}

	data, err := readFormFile(fileHeader)
	if err != nil {
		h.fail(c, http.StatusBadRequest, "Could not read uploaded file.")
		return
	}

	report, err := h.uploads.Upload(c.Request.Context(), domain.UploadRequest{
		FileBytes: data,
		FileName:  fileHeader.Filename,
		Strategy:  domain.ParseStrategy(c.PostForm("method")),
	})
	if err != nil {
		log.Error().Err(err).Str("filename", fileHeader.Filename).Msg("upload failed")
		h.fail(c, statusForError(err), err.Error())
		return
	}

	switch c.NegotiateFormat(gin.MIMEHTML, gin.MIMEJSON) {
	case gin.MIMEJSON:
		c.JSON(http.StatusOK, report)
	default:
		c.HTML(http.StatusOK, "result.tmpl", report)
	}
}

// Health reports liveness and which upstream endpoints are configured
func (h *UploadHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":           "healthy",
		"timestamp":        time.Now().UTC(),
		"apiKeyConfigured": h.upstream.APIKey != "",
		"presignUrl":       h.upstream.PresignURL,
		"directUploadUrl":  h.upstream.DirectUploadURL,
	})
}

func (h *UploadHandler) fail(c *gin.Context, status int, message string) {
	switch c.NegotiateFormat(gin.MIMEHTML, gin.MIMEJSON) {
	case gin.MIMEJSON:
		c.JSON(status, gin.H{"error": message})
	default:
		c.HTML(status, "error.tmpl", gin.H{
			"Status":  status,
			"Message": message,
		})
	}
}

// statusForError maps relay failures onto the response status.
func statusForError(err error) int {
	var (
		cfgErr       *relay.ConfigurationError
		upstreamErr  *relay.UpstreamError
		malformedErr *relay.MalformedResponseError
	)

	switch {
	case errors.Is(err, relay.ErrEmptyPayload):
		return http.StatusBadRequest
	case errors.As(err, &cfgErr):
		return http.StatusInternalServerError
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.As(err, &upstreamErr), errors.As(err, &malformedErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func readFormFile(fileHeader *multipart.FileHeader) ([]byte, error) {
	file, err := fileHeader.Open()
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return io.ReadAll(file)
}
