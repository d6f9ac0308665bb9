package urls

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"mediafetch-api-server/pkg/platform"
)

func TestNormalizeYouTube(t *testing.T) {
	Convey("NormalizeYouTube", t, func() {
		Convey("Should drop tracking parameters from watch links", func() {
			So(NormalizeYouTube("https://www.youtube.com/watch?v=abc12345678&t=30"),
				ShouldEqual, "https://www.youtube.com/watch?v=abc12345678")
			So(NormalizeYouTube("https://m.youtube.com/watch?feature=share&v=abc12345678"),
				ShouldEqual, "https://www.youtube.com/watch?v=abc12345678")
		})
		Convey("Should expand short links", func() {
			So(NormalizeYouTube("https://youtu.be/abc12345678?si=xyz"),
				ShouldEqual, "https://www.youtube.com/watch?v=abc12345678")
			So(NormalizeYouTube("youtu.be/abc12345678"),
				ShouldEqual, "https://www.youtube.com/watch?v=abc12345678")
		})
		Convey("Should rewrite shorts", func() {
			So(NormalizeYouTube("https://www.youtube.com/shorts/abc12345678?feature=share"),
				ShouldEqual, "https://www.youtube.com/watch?v=abc12345678")
		})
		Convey("Should return unparsable input unchanged", func() {
			So(NormalizeYouTube("::not a url"), ShouldEqual, "::not a url")
			So(NormalizeYouTube(""), ShouldEqual, "")
		})
	})
}

func TestIsValidYouTube(t *testing.T) {
	Convey("IsValidYouTube", t, func() {
		So(IsValidYouTube("https://www.youtube.com/watch?v=abc12345678"), ShouldBeTrue)
		So(IsValidYouTube("https://youtu.be/abc12345678"), ShouldBeTrue)
		So(IsValidYouTube("https://www.youtube.com/shorts/abc12345678"), ShouldBeTrue)
		So(IsValidYouTube("https://www.youtube.com/watch?v=short"), ShouldBeFalse)
		So(IsValidYouTube("https://www.youtube.com/channel/abc12345678"), ShouldBeFalse)
		So(IsValidYouTube("https://evil.example/watch?v=abc12345678"), ShouldBeFalse)
	})
}

func TestTikTok(t *testing.T) {
	Convey("TikTok links", t, func() {
		Convey("Should strip query parameters", func() {
			So(NormalizeTikTok("https://www.tiktok.com/@some.user/video/7234567890123456789?is_from_webapp=1&sender_device=pc"),
				ShouldEqual, "https://www.tiktok.com/@some.user/video/7234567890123456789")
			So(NormalizeTikTok("https://www.tiktok.com/@some.user/video/7234567890123456789%3Fx%3D1"),
				ShouldEqual, "https://www.tiktok.com/@some.user/video/7234567890123456789%3Fx%3D1")
		})
		Convey("Should keep short links as-is", func() {
			So(NormalizeTikTok("https://vm.tiktok.com/ZMabc123/?utm=1"), ShouldEqual, "https://vm.tiktok.com/ZMabc123/")
			So(IsValidTikTok("https://vt.tiktok.com/ZSabc/"), ShouldBeTrue)
		})
		Convey("Should validate path shapes", func() {
			So(IsValidTikTok("https://www.tiktok.com/@user/video/123"), ShouldBeTrue)
			So(IsValidTikTok("https://m.tiktok.com/v/123456.html"), ShouldBeTrue)
			So(IsValidTikTok("https://www.tiktok.com/@user"), ShouldBeFalse)
			So(IsValidTikTok("https://www.tiktok.com/@user/video/abc"), ShouldBeFalse)
		})
	})
}

func TestInstagram(t *testing.T) {
	Convey("Instagram links", t, func() {
		Convey("Should collapse host variants and drop the query", func() {
			So(NormalizeInstagram("https://instagram.com/reel/Cabc123/?igsh=xyz"),
				ShouldEqual, "https://www.instagram.com/reel/Cabc123/")
			So(NormalizeInstagram("https://m.instagram.com/p/Cabc123"),
				ShouldEqual, "https://www.instagram.com/p/Cabc123")
		})
		Convey("Should leave foreign hosts alone", func() {
			So(NormalizeInstagram("https://example.com/p/Cabc123"), ShouldEqual, "https://example.com/p/Cabc123")
		})
		Convey("Should validate path prefixes", func() {
			for _, s := range []string{
				"https://www.instagram.com/p/Cabc123/",
				"https://www.instagram.com/reel/Cabc123/",
				"https://www.instagram.com/reels/Cabc123/",
				"https://www.instagram.com/tv/Cabc123/",
				"https://www.instagram.com/stories/some.user/3123456789/",
			} {
				So(IsValidInstagram(s), ShouldBeTrue)
			}
			So(IsValidInstagram("https://www.instagram.com/some.user/"), ShouldBeFalse)
		})
		Convey("Should infer the media kind", func() {
			So(MediaKindFromURL("https://www.instagram.com/reels/abc/"), ShouldEqual, "reel")
			So(MediaKindFromURL("https://www.instagram.com/tv/abc/"), ShouldEqual, "igtv")
			So(MediaKindFromURL("https://www.instagram.com/stories/u/1/"), ShouldEqual, "story")
			So(MediaKindFromURL("https://www.instagram.com/p/abc/"), ShouldEqual, "post")
		})
		Convey("Should classify by the first path segment only", func() {
			So(MediaKindFromURL("https://www.instagram.com/stories/reel/3312345678901234567/"), ShouldEqual, "story")
			So(MediaKindFromURL("https://www.instagram.com/stories/tv/3312345678901234567/"), ShouldEqual, "story")
			So(MediaKindFromURL("https://www.instagram.com/p/tv/"), ShouldEqual, "post")
		})
		Convey("Should keep escaped characters escaped", func() {
			So(NormalizeInstagram("https://www.instagram.com/p/Cabc%3Fx%3D1/"),
				ShouldEqual, "https://www.instagram.com/p/Cabc%3Fx%3D1/")
		})
	})
}

func TestForeignHostsRejected(t *testing.T) {
	Convey("Foreign hosts are invalid for every platform", t, func() {
		for _, p := range platform.All {
			So(IsValid(p, "https://vimeo.com/123"), ShouldBeFalse)
			So(IsValid(p, Normalize(p, "https://vimeo.com/123")), ShouldBeFalse)
		}
	})
}
