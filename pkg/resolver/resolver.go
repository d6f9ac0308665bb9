// Package resolver turns a canonical post URL into a media.MediaAsset by asking the
// extractor for its info JSON.
package resolver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"mediafetch-api-server/pkg/extractor"
	"mediafetch-api-server/pkg/media"
	"mediafetch-api-server/pkg/platform"
	"mediafetch-api-server/pkg/preview"
	"mediafetch-api-server/pkg/urls"
)

const (
	DefaultTimeout = 45 * time.Second
	DefaultRetries = 2

	rawLogLimit = 300
)

// Resolver is stateless apart from its configuration and safe to share
type Resolver struct {
	Runner  extractor.Runner
	Timeout time.Duration
	Retries int
	// ThumbnailURL rewrites Instagram CDN thumbnails to a same-origin proxy
	ThumbnailURL func(string) string
}

// New creates a Resolver with the default timeout and retry count
func New(runner extractor.Runner) *Resolver {
	return &Resolver{
		Runner:       runner,
		Timeout:      DefaultTimeout,
		Retries:      DefaultRetries,
		ThumbnailURL: preview.ThumbnailURL,
	}
}

// Resolve fetches metadata for canonicalURL. The URL must already be normalized and
// validated.
func (r *Resolver) Resolve(ctx context.Context, p platform.Platform, canonicalURL string) (*media.MediaAsset, error) {
	log := logrus.WithFields(logrus.Fields{"platform": p, "url": canonicalURL})

	if p == platform.Instagram && urls.MediaKindFromURL(canonicalURL) == "story" {
		return nil, media.NewError(media.ErrUnsupportedContent,
			"Stories require an Instagram login. Only public posts and reels are supported.", nil)
	}

	timeout := r.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	out, err := r.Runner.Output(ctx, extractor.MetadataArgs(p, canonicalURL, r.Retries)...)
	if err != nil {
		log.WithError(err).Warn("metadata extraction failed")
		return nil, classify(p, err, timeout)
	}
	log.WithField("elapsed", time.Since(start).Round(time.Millisecond)).Debug("metadata extracted")

	data, err := decode(out)
	if err != nil {
		log.WithField("raw", truncate(out, rawLogLimit)).Error("failed to parse extractor output")
		return nil, err
	}

	switch p {
	case platform.YouTube:
		return mapYouTube(data), nil
	case platform.TikTok:
		return mapTikTok(data), nil
	case platform.Instagram:
		return r.mapInstagram(data, urls.MediaKindFromURL(canonicalURL)), nil
	}
	return nil, media.NewError(media.ErrInvalidInput, "Unsupported platform", nil)
}

// decode is the only place untyped extractor output enters the system
func decode(out []byte) (fields, error) {
	out = bytes.TrimSpace(out)
	if len(out) == 0 {
		return nil, media.NewError(media.ErrExtractionFailed, "", errors.New("extractor produced no output"))
	}

	dec := json.NewDecoder(bytes.NewReader(out))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, media.NewError(media.ErrResolutionParse, "", err)
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, media.NewError(media.ErrResolutionParse, "", fmt.Errorf("expected a JSON object, got %T", v))
	}
	return fields(m), nil
}

func classify(p platform.Platform, err error, timeout time.Duration) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return media.NewError(media.ErrTimedOut, "", fmt.Errorf("metadata resolution exceeded %s: %w", timeout, err))
	case errors.Is(err, context.Canceled):
		return err
	}

	var runErr *extractor.RunError
	if p == platform.Instagram && errors.As(err, &runErr) && isLoginGated(runErr.Stderr) {
		return media.NewError(media.ErrUnsupportedContent, "This content is private or requires a login.", err)
	}
	return media.NewError(media.ErrExtractionFailed, "", err)
}

func isLoginGated(stderr string) bool {
	s := strings.ToLower(stderr)
	return strings.Contains(s, "login") || strings.Contains(s, "private")
}

func truncate(b []byte, n int) string {
	if len(b) > n {
		b = b[:n]
	}
	return string(b)
}
