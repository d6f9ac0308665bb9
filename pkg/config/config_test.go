package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/spf13/viper"
)

// setenv sets an environment variable for the current Convey scope only
func setenv(key, value string) {
	So(os.Setenv(key, value), ShouldBeNil)
	Reset(func() { os.Unsetenv(key) })
}

func TestSetup(t *testing.T) {
	Convey("Config Setup", t, func() {
		viper.Reset()
		Reset(viper.Reset)

		Convey("Should load defaults without a config file", func() {
			So(Setup(""), ShouldBeNil)
			c := Load()
			So(c.Server.Port, ShouldEqual, 8080)
			So(c.Server.AllowedOrigins, ShouldResemble, []string{"http://localhost:3000", "http://localhost:3001"})
			So(c.Extractor.MetadataTimeout, ShouldEqual, 45*time.Second)
			So(c.Extractor.LocatorTimeout, ShouldEqual, 20*time.Second)
			So(c.Extractor.Retries, ShouldEqual, 2)
			So(c.Log.Level, ShouldEqual, "info")
			So(c.RateLimit.RPS, ShouldEqual, 0.0)
		})

		Convey("Should honour prefixed and legacy environment variables", func() {
			setenv("PORT", "9090")
			setenv("YTDLP_BINARY_PATH", "/opt/yt-dlp")
			setenv("MEDIAFETCH_SERVER_ALLOWED_ORIGINS", "https://a.example, https://b.example")
			setenv("MEDIAFETCH_EXTRACTOR_METADATA_TIMEOUT", "10s")
			setenv("MEDIAFETCH_YOUTUBE_DIRECT_REDIRECT", "true")

			So(Setup(""), ShouldBeNil)
			c := Load()
			So(c.Server.Port, ShouldEqual, 9090)
			So(c.Extractor.Path, ShouldEqual, "/opt/yt-dlp")
			So(c.Server.AllowedOrigins, ShouldResemble, []string{"https://a.example", "https://b.example"})
			So(c.Extractor.MetadataTimeout, ShouldEqual, 10*time.Second)
			So(c.YouTube.DirectRedirect, ShouldBeTrue)
		})

		Convey("Should read bare numeric timeouts as seconds", func() {
			setenv("MEDIAFETCH_EXTRACTOR_METADATA_TIMEOUT", "45")
			setenv("MEDIAFETCH_EXTRACTOR_LOCATOR_TIMEOUT", "1.5")

			So(Setup(""), ShouldBeNil)
			c := Load()
			So(c.Extractor.MetadataTimeout, ShouldEqual, 45*time.Second)
			So(c.Extractor.LocatorTimeout, ShouldEqual, 1500*time.Millisecond)
		})

		Convey("Should read numeric timeouts from the config file as seconds", func() {
			path := filepath.Join(t.TempDir(), "mediafetch.yaml")
			So(os.WriteFile(path, []byte("extractor:\n  metadata_timeout: 30\n  locator_timeout: 5s\n"), 0o644), ShouldBeNil)

			So(Setup(path), ShouldBeNil)
			c := Load()
			So(c.Extractor.MetadataTimeout, ShouldEqual, 30*time.Second)
			So(c.Extractor.LocatorTimeout, ShouldEqual, 5*time.Second)
		})

		Convey("Should read an explicit config file", func() {
			path := filepath.Join(t.TempDir(), "mediafetch.yaml")
			So(os.WriteFile(path, []byte("server:\n  port: 7000\nlog:\n  level: debug\n"), 0o644), ShouldBeNil)

			So(Setup(path), ShouldBeNil)
			c := Load()
			So(c.Server.Port, ShouldEqual, 7000)
			So(c.Log.Level, ShouldEqual, "debug")
		})

		Convey("Should fail on a missing explicit config file", func() {
			So(Setup(filepath.Join(t.TempDir(), "nope.yaml")), ShouldNotBeNil)
		})
	})
}

func TestFields(t *testing.T) {
	Convey("Fields", t, func() {
		fields := Fields()
		So(len(fields), ShouldEqual, len(Default))
		So(fields[0].Key, ShouldBeLessThan, fields[1].Key)

		f := Default[ServerPort]
		So(f.Env(), ShouldEqual, "MEDIAFETCH_SERVER_PORT")
		So(f.Aliases, ShouldContain, "PORT")
	})
}
