// Package strategy decides how the bytes of a post reach the client.
package strategy

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"mediafetch-api-server/pkg/extractor"
	"mediafetch-api-server/pkg/media"
	"mediafetch-api-server/pkg/platform"
)

// DefaultLocatorTimeout bounds the "-g" locator resolution
const DefaultLocatorTimeout = 20 * time.Second

// Kind is the delivery mechanism
type Kind int

const (
	// DirectSingle redirects the client to the locator
	DirectSingle Kind = iota
	// DirectRangeable proxies the locator and honours Range requests
	DirectRangeable
	// ServerRelay pipes the extractor's stdout to the client
	ServerRelay
)

func (k Kind) String() string {
	switch k {
	case DirectSingle:
		return "direct_single"
	case DirectRangeable:
		return "direct_rangeable"
	case ServerRelay:
		return "server_relay"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Strategy is the selected delivery plan
type Strategy struct {
	Kind Kind
	// URL is the CDN locator for the direct kinds
	URL string
	// Args is the extractor invocation for ServerRelay
	Args        extractor.Args
	ContentType string
	Ext         string
}

// Request names what the client wants delivered. URL must be canonical.
type Request struct {
	Platform platform.Platform
	URL      string
	Quality  string
	Variant  string
	FormatID string
	// Entry is the 0-based carousel slide, nil for the whole post
	Entry *int
}

var formatIDPattern = regexp.MustCompile(`^[\w.-]{1,64}$`)

// Selector builds strategies. It holds configuration only.
type Selector struct {
	Runner         extractor.Runner
	LocatorTimeout time.Duration
	// DirectRedirect sends single YouTube locators as a redirect instead of proxying them
	DirectRedirect bool
}

// New creates a Selector with the default locator timeout
func New(runner extractor.Runner) *Selector {
	return &Selector{Runner: runner, LocatorTimeout: DefaultLocatorTimeout}
}

// Select picks a strategy for req
func (s *Selector) Select(ctx context.Context, req Request) (*Strategy, error) {
	if req.FormatID != "" && !ValidFormatID(req.FormatID) {
		return nil, media.NewError(media.ErrInvalidInput, "Invalid format", nil)
	}

	switch req.Platform {
	case platform.YouTube:
		return s.youtube(ctx, req)
	case platform.TikTok:
		return tiktok(req)
	case platform.Instagram:
		return instagram(req)
	}
	return nil, media.NewError(media.ErrInvalidInput, "Unsupported platform", nil)
}

// ValidQuality reports whether q names a YouTube preset. Empty means the default.
func ValidQuality(q string) bool {
	_, ok := YouTubePresets[orDefault(q, DefaultQuality)]
	return ok
}

// ValidFormatID reports whether id is a plain extractor format id
func ValidFormatID(id string) bool {
	return formatIDPattern.MatchString(id)
}

// ValidVariant reports whether v names a TikTok variant. Empty means the default.
func ValidVariant(v string) bool {
	_, ok := TikTokVariants[orDefault(v, DefaultVariant)]
	return ok
}

// Output describes the file a request produces, without resolving anything
func Output(p platform.Platform, quality, variant string) (contentType, ext string) {
	switch {
	case p == platform.YouTube && orDefault(quality, DefaultQuality) == AudioQuality:
		return "audio/mp4", "m4a"
	case p == platform.TikTok && variant == AudioVariant:
		return "audio/mpeg", "mp3"
	}
	return "video/mp4", "mp4"
}

func (s *Selector) youtube(ctx context.Context, req Request) (*Strategy, error) {
	quality := orDefault(req.Quality, DefaultQuality)
	chain, ok := YouTubePresets[quality]
	if !ok {
		return nil, media.NewError(media.ErrInvalidInput, fmt.Sprintf("Unknown quality %q", req.Quality), nil)
	}
	if req.FormatID != "" {
		chain = chain.Prepend(req.FormatID+"+bestaudio", req.FormatID)
	}
	contentType, ext := Output(platform.YouTube, quality, "")

	locators, err := s.locators(ctx, req.URL, chain)
	if err != nil {
		return nil, err
	}

	log := logrus.WithFields(logrus.Fields{"url": req.URL, "quality": quality, "locators": len(locators)})

	switch len(locators) {
	case 0:
		return nil, media.NewError(media.ErrNoLocators, "", nil)
	case 1:
		kind := DirectRangeable
		if s.DirectRedirect {
			kind = DirectSingle
		}
		log.WithField("strategy", kind).Debug("strategy selected")
		return &Strategy{Kind: kind, URL: locators[0], ContentType: contentType, Ext: ext}, nil
	}

	log.WithField("strategy", ServerRelay).Debug("strategy selected")
	return &Strategy{
		Kind:        ServerRelay,
		Args:        extractor.StreamArgs(platform.YouTube, req.URL, chain.String()),
		ContentType: contentType,
		Ext:         ext,
	}, nil
}

// locators asks the extractor for the CDN URL of each track the chain selects
func (s *Selector) locators(ctx context.Context, url string, chain FormatChain) ([]string, error) {
	timeout := s.LocatorTimeout
	if timeout <= 0 {
		timeout = DefaultLocatorTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	out, err := s.Runner.Output(ctx, extractor.LocatorArgs(url, chain.String())...)
	if err != nil {
		logrus.WithError(err).WithField("url", url).Warn("locator resolution failed")
		switch {
		case errors.Is(err, context.DeadlineExceeded):
			return nil, media.NewError(media.ErrTimedOut, "", fmt.Errorf("locator resolution exceeded %s: %w", timeout, err))
		case errors.Is(err, context.Canceled):
			return nil, err
		}
		return nil, media.NewError(media.ErrExtractionFailed, "", err)
	}
	return parseLocators(out), nil
}

func parseLocators(out []byte) []string {
	var locators []string
	sc := bufio.NewScanner(bytes.NewReader(out))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if strings.HasPrefix(line, "http://") || strings.HasPrefix(line, "https://") {
			locators = append(locators, line)
		}
	}
	return locators
}

func tiktok(req Request) (*Strategy, error) {
	variant := orDefault(req.Variant, DefaultVariant)
	chain, ok := TikTokVariants[variant]
	if !ok {
		return nil, media.NewError(media.ErrInvalidInput, fmt.Sprintf("Unknown variant %q", req.Variant), nil)
	}
	if req.FormatID != "" {
		chain = chain.Prepend(req.FormatID)
	}
	contentType, ext := Output(platform.TikTok, "", variant)

	return &Strategy{
		Kind:        ServerRelay,
		Args:        extractor.StreamArgs(platform.TikTok, req.URL, chain.String()),
		ContentType: contentType,
		Ext:         ext,
	}, nil
}

func instagram(req Request) (*Strategy, error) {
	chain := InstagramChain
	if req.FormatID != "" {
		chain = chain.Prepend(req.FormatID+"+bestaudio", req.FormatID)
	}

	args := extractor.StreamArgs(platform.Instagram, req.URL, chain.String())
	if req.Entry != nil {
		if *req.Entry < 0 {
			return nil, media.NewError(media.ErrInvalidInput, "Invalid slide index", nil)
		}
		args = args.PlaylistItems(*req.Entry + 1)
	}

	contentType, ext := Output(platform.Instagram, "", "")
	return &Strategy{Kind: ServerRelay, Args: args, ContentType: contentType, Ext: ext}, nil
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
