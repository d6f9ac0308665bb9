package platform

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestParse(t *testing.T) {
	Convey("Parse", t, func() {
		Convey("Should accept known platforms case-insensitively", func() {
			p, err := Parse(" YouTube ")
			So(err, ShouldBeNil)
			So(p, ShouldEqual, YouTube)

			p, err = Parse("instagram")
			So(err, ShouldBeNil)
			So(p, ShouldEqual, Instagram)
		})
		Convey("Should reject unknown platforms", func() {
			_, err := Parse("vimeo")
			So(err, ShouldNotBeNil)
		})
	})
}

func TestDefaultStem(t *testing.T) {
	Convey("DefaultStem", t, func() {
		So(YouTube.DefaultStem(), ShouldEqual, "video")
		So(TikTok.DefaultStem(), ShouldEqual, "tiktok")
		So(Instagram.DefaultStem(), ShouldEqual, "instagram")
	})
}
