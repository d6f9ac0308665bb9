// Package extractor runs yt-dlp as a subprocess, either collecting its output or exposing
// its stdout as an owned byte stream.
package extractor

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"time"

	"github.com/alessio/shellescape"
	"github.com/sirupsen/logrus"
)

const (
	stderrTail       = 4 * 1024
	defaultWaitDelay = 5 * time.Second
)

// Runner is the subprocess boundary. Output collects stdout of a short invocation,
// Stream hands stdout of a long one to the caller, who must Close it.
type Runner interface {
	Output(ctx context.Context, args ...string) ([]byte, error)
	Stream(ctx context.Context, args ...string) (io.ReadCloser, error)
}

// Client invokes the yt-dlp binary at Path
type Client struct {
	Path      string
	WaitDelay time.Duration
}

// New creates a Client for the given binary
func New(path string) *Client {
	return &Client{Path: path, WaitDelay: defaultWaitDelay}
}

// RunError is a failed or interrupted extractor invocation
type RunError struct {
	Err    error
	Stderr string
}

func (e *RunError) Error() string {
	if e.Stderr == "" {
		return fmt.Sprintf("yt-dlp: %v", e.Err)
	}
	return fmt.Sprintf("yt-dlp: %v: %s", e.Err, e.Stderr)
}

func (e *RunError) Unwrap() error {
	return e.Err
}

func (c *Client) command(ctx context.Context, args []string) (*exec.Cmd, *tailBuffer) {
	logrus.WithField("cmd", shellescape.QuoteCommand(append([]string{c.Path}, args...))).Debug("running extractor")

	cmd := exec.CommandContext(ctx, c.Path, args...)
	setProcessGroup(cmd)
	cmd.Cancel = func() error {
		return killProcessGroup(cmd)
	}
	cmd.WaitDelay = c.WaitDelay
	if cmd.WaitDelay <= 0 {
		cmd.WaitDelay = defaultWaitDelay
	}

	stderr := &tailBuffer{max: stderrTail}
	cmd.Stderr = stderr
	return cmd, stderr
}

// Output runs the extractor to completion and returns its stdout
func (c *Client) Output(ctx context.Context, args ...string) ([]byte, error) {
	cmd, stderr := c.command(ctx, args)

	var stdout bytes.Buffer
	cmd.Stdout = &stdout

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
		}
		return nil, &RunError{Err: err, Stderr: stderr.String()}
	}
	return stdout.Bytes(), nil
}

// Stream starts the extractor and returns its stdout. Cancelling ctx or closing the
// stream kills the process.
func (c *Client) Stream(ctx context.Context, args ...string) (io.ReadCloser, error) {
	cmd, stderr := c.command(ctx, args)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, &RunError{Err: err}
	}

	logrus.WithField("pid", cmd.Process.Pid).Debug("extractor stream started")
	return &Process{ctx: ctx, cmd: cmd, stdout: stdout, stderr: stderr}, nil
}

// Process is a running extractor exclusively owned by one request
type Process struct {
	ctx    context.Context
	cmd    *exec.Cmd
	stdout io.ReadCloser
	stderr *tailBuffer

	mu       sync.Mutex
	waited   bool
	waitOnce sync.Once
	waitErr  error
}

// Read returns stdout bytes. A non-zero exit turns the final io.EOF into an error so a
// failed download is never mistaken for a complete one.
func (p *Process) Read(b []byte) (int, error) {
	n, err := p.stdout.Read(b)
	if err == io.EOF {
		if werr := p.wait(); werr != nil {
			return n, werr
		}
	}
	return n, err
}

// Close kills the process if it is still running and reaps it
func (p *Process) Close() error {
	p.mu.Lock()
	waited := p.waited
	p.mu.Unlock()

	if !waited {
		_ = killProcessGroup(p.cmd)
	}
	_ = p.wait()
	return nil
}

// Pid returns the operating system process id
func (p *Process) Pid() int {
	return p.cmd.Process.Pid
}

func (p *Process) wait() error {
	p.waitOnce.Do(func() {
		err := p.cmd.Wait()
		p.mu.Lock()
		p.waited = true
		p.mu.Unlock()
		if err != nil {
			if ctxErr := p.ctx.Err(); ctxErr != nil {
				err = ctxErr
			}
			p.waitErr = &RunError{Err: err, Stderr: p.stderr.String()}
		}
	})
	return p.waitErr
}

// tailBuffer keeps the last max bytes written to it
type tailBuffer struct {
	mu  sync.Mutex
	max int
	buf []byte
}

func (t *tailBuffer) Write(b []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.buf = append(t.buf, b...)
	if over := len(t.buf) - t.max; over > 0 {
		t.buf = t.buf[over:]
	}
	return len(b), nil
}

func (t *tailBuffer) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return string(bytes.TrimSpace(t.buf))
}
