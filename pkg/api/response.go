package api

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"mediafetch-api-server/pkg/media"
)

type MetadataResponse struct {
	Success bool              `json:"success"`
	Data    *media.MediaAsset `json:"data,omitempty"`
	Error   string            `json:"error,omitempty"`
}

type PrepareRequest struct {
	URL      string `json:"url"`
	Quality  string `json:"quality,omitempty"`   // YouTube preset: best, 1080p, 720p, 480p, 360p, audio
	Variant  string `json:"variant,omitempty"`   // TikTok: nowatermark, watermark, audio
	Title    string `json:"title,omitempty"`     // used for the filename
	FormatID string `json:"format_id,omitempty"` // tried before the preset
	Entry    *int   `json:"entry,omitempty"`     // Instagram carousel slide, 0-based
}

type PrepareResponse struct {
	Success      bool   `json:"success"`
	DownloadPath string `json:"download_path,omitempty"`
	Filename     string `json:"filename,omitempty"`
	Error        string `json:"error,omitempty"`
}

// ErrorResponse is the failure envelope of the download endpoint
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// fail logs err with full detail and answers with its user-safe message
func fail(c *gin.Context, err error, body func(msg string) any) {
	status := media.HTTPStatus(err)
	entry := logrus.WithFields(logrus.Fields{
		"request_id": c.GetString(requestIDKey),
		"platform":   c.Param("platform"),
		"status":     status,
	}).WithError(err)

	switch {
	case errors.Is(err, media.ErrInvalidInput), errors.Is(err, media.ErrUnsupportedContent):
		entry.Info("request rejected")
	case status == media.StatusClientClosedRequest:
		entry.Debug("client went away")
	default:
		entry.Error("request failed")
	}

	if c.Writer.Written() {
		c.Abort()
		return
	}
	c.AbortWithStatusJSON(status, body(media.UserMessage(err)))
}

func metadataError(c *gin.Context, err error) {
	fail(c, err, func(msg string) any { return MetadataResponse{Error: msg} })
}

func prepareError(c *gin.Context, err error) {
	fail(c, err, func(msg string) any { return PrepareResponse{Error: msg} })
}

func downloadError(c *gin.Context, err error) {
	fail(c, err, func(msg string) any { return ErrorResponse{Error: msg} })
}

func invalid(message string) error {
	return media.NewError(media.ErrInvalidInput, message, nil)
}
