// Package preview re-serves Instagram CDN thumbnails from our own origin, since the CDN
// refuses cross-origin image loads.
package preview

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"mediafetch-api-server/pkg/extractor"
)

// Path is where the proxy is mounted
const Path = "/internal/preview/instagram"

const (
	defaultContentType = "image/jpeg"
	cacheControl       = "public, max-age=3600"
	fetchTimeout       = 15 * time.Second
	maxRedirects       = 10
)

var errRedirectNotAllowed = errors.New("redirect leaves the allow-list")

// DefaultAllowedHosts are the Instagram and Facebook CDN domains
var DefaultAllowedHosts = []string{"fbcdn.net", "cdninstagram.com", "instagram.com"}

// ThumbnailURL returns the same-origin path serving raw through the proxy
func ThumbnailURL(raw string) string {
	return Path + "?url=" + url.QueryEscape(raw)
}

// Proxy fetches an allow-listed image and streams it back
type Proxy struct {
	HTTPClient   *http.Client
	AllowedHosts []string
}

// New creates a Proxy restricted to DefaultAllowedHosts
func New() *Proxy {
	return &Proxy{
		HTTPClient:   &http.Client{Timeout: fetchTimeout},
		AllowedHosts: DefaultAllowedHosts,
	}
}

// Allowed reports whether host equals an allowed domain or is a subdomain of one
func (p *Proxy) Allowed(host string) bool {
	host = strings.ToLower(strings.TrimSuffix(host, "."))
	return lo.SomeBy(p.AllowedHosts, func(d string) bool {
		return host == d || strings.HasSuffix(host, "."+d)
	})
}

func (p *Proxy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("url")
	if raw == "" {
		http.Error(w, "Missing url", http.StatusBadRequest)
		return
	}

	target, err := url.Parse(raw)
	if err != nil || target.Hostname() == "" || (target.Scheme != "http" && target.Scheme != "https") {
		http.Error(w, "Invalid url", http.StatusBadRequest)
		return
	}
	if !p.Allowed(target.Hostname()) {
		http.Error(w, "Domain not allowed", http.StatusForbidden)
		return
	}

	log := logrus.WithField("host", target.Hostname())

	resp, err := p.fetch(r.Context(), target.String())
	if errors.Is(err, errRedirectNotAllowed) {
		log.WithError(err).Warn("thumbnail redirect refused")
		http.Error(w, "Domain not allowed", http.StatusForbidden)
		return
	}
	if err != nil {
		log.WithError(err).Warn("thumbnail fetch failed")
		http.Error(w, "Proxy error", http.StatusBadGateway)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.WithField("status", resp.StatusCode).Warn("thumbnail upstream rejected request")
		http.Error(w, "Failed to fetch thumbnail", resp.StatusCode)
		return
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = defaultContentType
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", cacheControl)
	if cl := resp.Header.Get("Content-Length"); cl != "" {
		w.Header().Set("Content-Length", cl)
	}
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, resp.Body); err != nil {
		log.WithError(err).Debug("thumbnail copy interrupted")
	}
}

func (p *Proxy) fetch(ctx context.Context, target string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", extractor.MobileUserAgent)
	req.Header.Set("Referer", extractor.InstagramReferer)

	client := http.Client{}
	if p.HTTPClient != nil {
		client = *p.HTTPClient
	}
	client.CheckRedirect = p.checkRedirect
	return client.Do(req)
}

// checkRedirect holds every hop to the same scheme and host rules as the first request
func (p *Proxy) checkRedirect(req *http.Request, via []*http.Request) error {
	if len(via) >= maxRedirects {
		return errors.New("stopped after 10 redirects")
	}
	if req.URL.Scheme != "http" && req.URL.Scheme != "https" {
		return fmt.Errorf("%w: scheme %q", errRedirectNotAllowed, req.URL.Scheme)
	}
	if !p.Allowed(req.URL.Hostname()) {
		return fmt.Errorf("%w: host %q", errRedirectNotAllowed, req.URL.Hostname())
	}
	return nil
}
