// Package relay delivers media bytes to the client according to a strategy.Strategy.
package relay

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"mediafetch-api-server/pkg/extractor"
	"mediafetch-api-server/pkg/media"
	"mediafetch-api-server/pkg/strategy"
)

const bufferSize = 32 * 1024

// errClientGone marks a failed write to the client
var errClientGone = errors.New("client went away")

// Relay is stateless apart from its collaborators
type Relay struct {
	Runner     extractor.Runner
	HTTPClient *http.Client
	// UserAgent is sent to the CDN on direct downloads
	UserAgent string
}

// New creates a Relay using http.DefaultClient for CDN fetches
func New(runner extractor.Runner) *Relay {
	return &Relay{
		Runner:     runner,
		HTTPClient: http.DefaultClient,
		UserAgent:  extractor.DesktopUserAgent,
	}
}

// Serve writes the media described by s to w.
//
// A non-nil error means nothing was written and the caller should render it. Once bytes
// have been sent, an upstream failure aborts the connection with http.ErrAbortHandler so
// the client never mistakes a truncated file for a complete one. A client that goes away
// is not an error; the upstream process or fetch is torn down before Serve returns.
func (rl *Relay) Serve(w http.ResponseWriter, r *http.Request, s *strategy.Strategy, filename string) error {
	switch s.Kind {
	case strategy.DirectSingle:
		http.Redirect(w, r, s.URL, http.StatusFound)
		return nil
	case strategy.DirectRangeable:
		return rl.serveDirect(w, r, s, filename)
	case strategy.ServerRelay:
		return rl.serveProcess(w, r, s, filename)
	}
	return fmt.Errorf("unknown strategy %s", s.Kind)
}

func (rl *Relay) serveDirect(w http.ResponseWriter, r *http.Request, s *strategy.Strategy, filename string) error {
	log := logrus.WithFields(logrus.Fields{"strategy": s.Kind, "filename": filename})

	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, s.URL, nil)
	if err != nil {
		return media.NewError(media.ErrExtractionFailed, "", err)
	}
	req.Header.Set("User-Agent", rl.UserAgent)
	if rng := r.Header.Get("Range"); rng != "" {
		req.Header.Set("Range", rng)
	}

	client := rl.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		if r.Context().Err() != nil {
			return r.Context().Err()
		}
		return media.NewError(media.ErrExtractionFailed, "", fmt.Errorf("cdn request failed: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusRequestedRangeNotSatisfiable {
		if cr := resp.Header.Get("Content-Range"); cr != "" {
			w.Header().Set("Content-Range", cr)
		}
		w.WriteHeader(resp.StatusCode)
		return nil
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusPartialContent {
		return media.NewError(media.ErrExtractionFailed, "", fmt.Errorf("cdn answered %s", resp.Status))
	}

	h := w.Header()
	for _, k := range []string{"Content-Length", "Content-Range"} {
		if v := resp.Header.Get(k); v != "" {
			h.Set(k, v)
		}
	}
	h.Set("Content-Type", s.ContentType)
	h.Set("Content-Disposition", ContentDisposition(filename))
	h.Set("Accept-Ranges", "bytes")
	h.Set("Cache-Control", "no-store")
	w.WriteHeader(resp.StatusCode)

	start := time.Now()
	n, err := copyStream(w, resp.Body, nil)
	rl.finish(r.Context(), log, n, start, err)
	return nil
}

func (rl *Relay) serveProcess(w http.ResponseWriter, r *http.Request, s *strategy.Strategy, filename string) error {
	log := logrus.WithFields(logrus.Fields{"strategy": s.Kind, "filename": filename})

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	stream, err := rl.Runner.Stream(ctx, s.Args...)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return media.NewError(media.ErrExtractionFailed, "", err)
	}
	defer stream.Close()

	// Headers are committed only once the extractor has produced something, so early
	// failures can still become a proper error response.
	buf := make([]byte, bufferSize)
	first, err := readFirst(stream, buf)
	if first == 0 {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err == nil || errors.Is(err, io.EOF) {
			err = errors.New("extractor produced no output")
		}
		log.WithError(err).Warn("relay failed before first byte")
		return media.NewError(media.ErrExtractionFailed, "", err)
	}

	h := w.Header()
	h.Set("Content-Type", s.ContentType)
	h.Set("Content-Disposition", ContentDisposition(filename))
	h.Set("Transfer-Encoding", "chunked")
	h.Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)

	// the first read may already have ended the stream
	src := io.Reader(stream)
	if err != nil {
		src = nil
	}

	start := time.Now()
	n, copyErr := copyStream(w, src, buf[:first])
	if copyErr == nil && err != nil && !errors.Is(err, io.EOF) {
		copyErr = err
	}
	rl.finish(ctx, log, n, start, copyErr)
	return nil
}

// finish logs the outcome and aborts the response on upstream failure. A read error caused
// by the request context ending counts as the client leaving.
func (rl *Relay) finish(ctx context.Context, log *logrus.Entry, n int64, start time.Time, err error) {
	log = log.WithFields(logrus.Fields{"bytes": n, "elapsed": time.Since(start).Round(time.Millisecond)})
	switch {
	case err == nil:
		log.Info("relay complete")
	case errors.Is(err, errClientGone) || ctx.Err() != nil:
		log.WithError(err).Info("client disconnected, upstream torn down")
	default:
		log.WithError(media.NewError(media.ErrStream, "", err)).Error("upstream failed mid-stream, aborting response")
		panic(http.ErrAbortHandler)
	}
}

// readFirst blocks until src yields at least one byte or fails
func readFirst(src io.Reader, buf []byte) (int, error) {
	for {
		n, err := src.Read(buf)
		if n > 0 || err != nil {
			return n, err
		}
	}
}

// copyStream writes pending, then copies src (if any) to w flushing every chunk. Write
// failures are wrapped in errClientGone, read failures are returned as is.
func copyStream(w http.ResponseWriter, src io.Reader, pending []byte) (int64, error) {
	rc := http.NewResponseController(w)
	var written int64

	write := func(p []byte) error {
		n, err := w.Write(p)
		written += int64(n)
		if err != nil {
			return fmt.Errorf("%w: %v", errClientGone, err)
		}
		_ = rc.Flush()
		return nil
	}

	if len(pending) > 0 {
		if err := write(pending); err != nil {
			return written, err
		}
	}
	if src == nil {
		return written, nil
	}

	buf := make([]byte, bufferSize)
	for {
		n, err := src.Read(buf)
		if n > 0 {
			if werr := write(buf[:n]); werr != nil {
				return written, werr
			}
		}
		if errors.Is(err, io.EOF) {
			return written, nil
		}
		if err != nil {
			return written, err
		}
	}
}
