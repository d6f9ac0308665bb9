package api

import (
	"fmt"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"mediafetch-api-server/pkg/filename"
	"mediafetch-api-server/pkg/platform"
	"mediafetch-api-server/pkg/strategy"
	"mediafetch-api-server/pkg/urls"
)

// DownloadPath is the prefix of the streaming endpoint handed out by prepare
const DownloadPath = "/internal/download/"

var platformNames = map[platform.Platform]string{
	platform.YouTube:   "YouTube",
	platform.TikTok:    "TikTok",
	platform.Instagram: "Instagram",
}

// target parses the platform path parameter and canonicalizes raw
func target(c *gin.Context, raw string) (platform.Platform, string, error) {
	p, err := platform.Parse(c.Param("platform"))
	if err != nil {
		return "", "", invalid("Unsupported platform")
	}
	if strings.TrimSpace(raw) == "" {
		return p, "", invalid("URL parameter is required")
	}

	canonical := urls.Normalize(p, strings.TrimSpace(raw))
	if !urls.IsValid(p, canonical) {
		return p, "", invalid(fmt.Sprintf("Invalid %s URL", platformNames[p]))
	}
	return p, canonical, nil
}

func (s *Server) metadataHandler(c *gin.Context) {
	p, canonical, err := target(c, c.Query("url"))
	if err != nil {
		metadataError(c, err)
		return
	}

	asset, err := s.Resolver.Resolve(c.Request.Context(), p, canonical)
	if err != nil {
		metadataError(c, err)
		return
	}

	c.JSON(http.StatusOK, MetadataResponse{Success: true, Data: asset})
}

// prepareHandler validates a download request and returns the same-origin path that
// streams it. Nothing is resolved here; selection happens when the path is fetched.
func (s *Server) prepareHandler(c *gin.Context) {
	var req PrepareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		prepareError(c, invalid("Invalid request body"))
		return
	}

	p, canonical, err := target(c, req.URL)
	if err != nil {
		prepareError(c, err)
		return
	}
	if err := validateOptions(p, req.Quality, req.Variant, req.FormatID, req.Entry); err != nil {
		prepareError(c, err)
		return
	}

	_, ext := strategy.Output(p, req.Quality, req.Variant)
	name := filename.Sanitize(p, req.Title, ext)

	q := url.Values{}
	q.Set("url", canonical)
	q.Set("filename", name)
	switch p {
	case platform.YouTube:
		q.Set("quality", orDefault(req.Quality, strategy.DefaultQuality))
	case platform.TikTok:
		q.Set("variant", orDefault(req.Variant, strategy.DefaultVariant))
	}
	if req.FormatID != "" {
		q.Set("format_id", req.FormatID)
	}
	if req.Entry != nil {
		q.Set("entry", strconv.Itoa(*req.Entry))
	}

	c.JSON(http.StatusOK, PrepareResponse{
		Success:      true,
		DownloadPath: DownloadPath + string(p) + "?" + q.Encode(),
		Filename:     name,
	})
}

func (s *Server) downloadHandler(c *gin.Context) {
	p, canonical, err := target(c, c.Query("url"))
	if err != nil {
		downloadError(c, err)
		return
	}

	req := strategy.Request{
		Platform: p,
		URL:      canonical,
		Quality:  c.Query("quality"),
		Variant:  c.Query("variant"),
		FormatID: c.Query("format_id"),
	}
	if raw := c.Query("entry"); raw != "" {
		entry, convErr := strconv.Atoi(raw)
		if convErr != nil {
			downloadError(c, invalid("Invalid slide index"))
			return
		}
		req.Entry = &entry
	}
	if err := validateOptions(p, req.Quality, req.Variant, req.FormatID, req.Entry); err != nil {
		downloadError(c, err)
		return
	}

	strat, err := s.Selector.Select(c.Request.Context(), req)
	if err != nil {
		downloadError(c, err)
		return
	}

	requested := c.Query("filename")
	name := filename.Sanitize(p, strings.TrimSuffix(requested, path.Ext(requested)), strat.Ext)

	logrus.WithFields(logrus.Fields{
		"request_id": c.GetString(requestIDKey),
		"platform":   p,
		"url":        canonical,
		"strategy":   strat.Kind,
	}).Info("starting download")

	if err := s.Relay.Serve(c.Writer, c.Request, strat, name); err != nil {
		downloadError(c, err)
	}
}

// validateOptions rejects presets and variants the platform does not know
func validateOptions(p platform.Platform, quality, variant, formatID string, entry *int) error {
	switch {
	case p == platform.YouTube && !strategy.ValidQuality(quality):
		return invalid(fmt.Sprintf("Unknown quality %q", quality))
	case p == platform.TikTok && !strategy.ValidVariant(variant):
		return invalid(fmt.Sprintf("Unknown variant %q", variant))
	case formatID != "" && !strategy.ValidFormatID(formatID):
		return invalid("Invalid format")
	case entry != nil && (p != platform.Instagram || *entry < 0):
		return invalid("Invalid slide index")
	}
	return nil
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
