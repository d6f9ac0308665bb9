//go:build !windows

package extractor

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"syscall"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

// fakeBinary writes a shell script standing in for yt-dlp
func fakeBinary(t *testing.T, script string) string {
	path := filepath.Join(t.TempDir(), "yt-dlp")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+script+"\n"), 0755); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestClientOutput(t *testing.T) {
	Convey("Client.Output", t, func() {
		Convey("Should return stdout of a successful run", func() {
			c := New(fakeBinary(t, `echo '{"id":"abc"}'`))
			out, err := c.Output(context.Background(), "-J")
			So(err, ShouldBeNil)
			So(string(out), ShouldEqual, "{\"id\":\"abc\"}\n")
		})

		Convey("Should surface stderr on failure", func() {
			c := New(fakeBinary(t, `echo "ERROR: Unsupported URL" >&2; exit 1`))
			_, err := c.Output(context.Background())
			So(err, ShouldNotBeNil)

			var runErr *RunError
			So(errors.As(err, &runErr), ShouldBeTrue)
			So(runErr.Stderr, ShouldContainSubstring, "Unsupported URL")
		})

		Convey("Should report a deadline as such", func() {
			c := New(fakeBinary(t, `sleep 5`))
			ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
			defer cancel()

			start := time.Now()
			_, err := c.Output(ctx)
			So(errors.Is(err, context.DeadlineExceeded), ShouldBeTrue)
			So(time.Since(start), ShouldBeLessThan, 3*time.Second)
		})

		Convey("Should fail when the binary is missing", func() {
			c := New(filepath.Join(t.TempDir(), "missing"))
			_, err := c.Output(context.Background())
			So(err, ShouldNotBeNil)
		})
	})
}

func TestClientStream(t *testing.T) {
	Convey("Client.Stream", t, func() {
		Convey("Should stream stdout to EOF", func() {
			c := New(fakeBinary(t, `printf 'hello world'`))
			rc, err := c.Stream(context.Background())
			So(err, ShouldBeNil)
			defer rc.Close()

			data, err := io.ReadAll(rc)
			So(err, ShouldBeNil)
			So(string(data), ShouldEqual, "hello world")
		})

		Convey("Should turn a failing exit into a read error", func() {
			c := New(fakeBinary(t, `printf 'partial'; echo "ERROR: fragment 3 not found" >&2; exit 3`))
			rc, err := c.Stream(context.Background())
			So(err, ShouldBeNil)
			defer rc.Close()

			data, err := io.ReadAll(rc)
			So(string(data), ShouldEqual, "partial")
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "fragment 3 not found")
		})

		Convey("Should kill the process on Close", func() {
			c := New(fakeBinary(t, `while true; do echo chunk; done`))
			rc, err := c.Stream(context.Background())
			So(err, ShouldBeNil)

			buf := make([]byte, 16)
			_, err = io.ReadFull(rc, buf)
			So(err, ShouldBeNil)

			pid := rc.(*Process).Pid()
			So(rc.Close(), ShouldBeNil)
			So(syscall.Kill(pid, 0), ShouldEqual, syscall.ESRCH)
		})

		Convey("Should stop when the context is cancelled", func() {
			c := New(fakeBinary(t, `while true; do echo chunk; sleep 0.01; done`))
			ctx, cancel := context.WithCancel(context.Background())
			rc, err := c.Stream(ctx)
			So(err, ShouldBeNil)
			defer rc.Close()

			go func() {
				time.Sleep(50 * time.Millisecond)
				cancel()
			}()
			_, err = io.ReadAll(rc)
			So(errors.Is(err, context.Canceled), ShouldBeTrue)
		})
	})
}
