package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	. "github.com/smartystreets/goconvey/convey"
)

func TestSetup(t *testing.T) {
	Convey("Setup", t, func() {
		var buf bytes.Buffer
		Reset(func() { Setup("info", false, nil) })

		Convey("Should emit JSON at the requested level", func() {
			Setup("debug", true, &buf)
			So(logrus.GetLevel(), ShouldEqual, logrus.DebugLevel)

			logrus.WithField("platform", "youtube").Debug("hello")
			var entry map[string]any
			So(json.Unmarshal(buf.Bytes(), &entry), ShouldBeNil)
			So(entry["msg"], ShouldEqual, "hello")
			So(entry["platform"], ShouldEqual, "youtube")
		})

		Convey("Should fall back to info on an unknown level", func() {
			Setup("chatty", false, &buf)
			So(logrus.GetLevel(), ShouldEqual, logrus.InfoLevel)
			So(buf.String(), ShouldContainSubstring, "unknown log level")
		})
	})
}
