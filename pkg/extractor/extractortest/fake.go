// Package extractortest provides an in-memory extractor.Runner for tests.
package extractortest

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/samber/lo"
)

// Call records the arguments of one invocation
type Call struct {
	Stream bool
	Args   []string
}

// Has reports whether flag appears in the call's arguments
func (c Call) Has(flag string) bool {
	return lo.Contains(c.Args, flag)
}

// Value returns the argument following flag, or ""
func (c Call) Value(flag string) string {
	for i, a := range c.Args {
		if a == flag && i+1 < len(c.Args) {
			return c.Args[i+1]
		}
	}
	return ""
}

// Runner answers Output and Stream from the configured funcs. Nil funcs fail the call.
type Runner struct {
	OutputFunc func(ctx context.Context, args []string) ([]byte, error)
	StreamFunc func(ctx context.Context, args []string) (io.ReadCloser, error)

	mu    sync.Mutex
	calls []Call
}

// Output returns out for every call
func Output(out string) *Runner {
	return &Runner{OutputFunc: func(context.Context, []string) ([]byte, error) { return []byte(out), nil }}
}

// Failing returns err for every call
func Failing(err error) *Runner {
	return &Runner{
		OutputFunc: func(context.Context, []string) ([]byte, error) { return nil, err },
		StreamFunc: func(context.Context, []string) (io.ReadCloser, error) { return nil, err },
	}
}

func (r *Runner) Output(ctx context.Context, args ...string) ([]byte, error) {
	r.record(Call{Args: args})
	if r.OutputFunc == nil {
		return nil, errors.New("extractortest: unexpected Output call")
	}
	return r.OutputFunc(ctx, args)
}

func (r *Runner) Stream(ctx context.Context, args ...string) (io.ReadCloser, error) {
	r.record(Call{Stream: true, Args: args})
	if r.StreamFunc == nil {
		return nil, errors.New("extractortest: unexpected Stream call")
	}
	return r.StreamFunc(ctx, args)
}

// Calls returns a copy of every recorded invocation
func (r *Runner) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Call(nil), r.calls...)
}

func (r *Runner) record(c Call) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, c)
}

// Stream is a scripted process output. It yields Chunks in order, then Err (or io.EOF).
// Close records that the process was torn down.
type Stream struct {
	Chunks []string
	Err    error
	// Block makes Read wait for Close or ctx cancellation once Chunks are exhausted
	Block bool

	mu     sync.Mutex
	closed bool
	done   chan struct{}
	once   sync.Once
}

// NewStream creates a stream yielding chunks then err
func NewStream(err error, chunks ...string) *Stream {
	return &Stream{Chunks: chunks, Err: err}
}

func (s *Stream) init() {
	s.once.Do(func() { s.done = make(chan struct{}) })
}

func (s *Stream) Read(p []byte) (int, error) {
	s.init()
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return 0, errors.New("extractortest: read after close")
	}
	if len(s.Chunks) > 0 {
		n := copy(p, s.Chunks[0])
		if n < len(s.Chunks[0]) {
			s.Chunks[0] = s.Chunks[0][n:]
		} else {
			s.Chunks = s.Chunks[1:]
		}
		s.mu.Unlock()
		return n, nil
	}
	block := s.Block
	s.mu.Unlock()

	if block {
		<-s.done
		return 0, errors.New("extractortest: killed")
	}
	if s.Err != nil {
		return 0, s.Err
	}
	return 0, io.EOF
}

func (s *Stream) Close() error {
	s.init()
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.done)
	}
	return nil
}

// Closed reports whether Close was called
func (s *Stream) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
