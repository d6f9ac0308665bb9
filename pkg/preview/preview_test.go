package preview

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func get(p *Proxy, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, ThumbnailURL(target), nil)
	rec := httptest.NewRecorder()
	p.ServeHTTP(rec, req)
	return rec
}

func TestProxy(t *testing.T) {
	Convey("Proxy", t, func() {
		var gotUA, gotReferer string
		upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotUA, gotReferer = r.UserAgent(), r.Referer()
			switch r.URL.Path {
			case "/img.png":
				w.Header().Set("Content-Type", "image/png")
				w.Write([]byte("PNGDATA"))
			case "/untyped":
				w.Header()["Content-Type"] = nil
				w.Write([]byte("raw"))
			default:
				http.NotFound(w, r)
			}
		}))
		defer upstream.Close()

		p := New()
		p.AllowedHosts = append(p.AllowedHosts, "127.0.0.1")

		Convey("Should re-serve an allowed image with cache headers", func() {
			rec := get(p, upstream.URL+"/img.png")
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(rec.Body.String(), ShouldEqual, "PNGDATA")
			So(rec.Header().Get("Content-Type"), ShouldEqual, "image/png")
			So(rec.Header().Get("Cache-Control"), ShouldEqual, "public, max-age=3600")
			So(gotReferer, ShouldEqual, "https://www.instagram.com/")
			So(gotUA, ShouldContainSubstring, "iPhone")
		})

		Convey("Should default the content type to JPEG", func() {
			rec := get(p, upstream.URL+"/untyped")
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(rec.Header().Get("Content-Type"), ShouldEqual, "image/jpeg")
		})

		Convey("Should pass through upstream failures", func() {
			rec := get(p, upstream.URL+"/missing")
			So(rec.Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("Should reject a missing url", func() {
			rec := httptest.NewRecorder()
			p.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, Path, nil))
			So(rec.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("Should reject an unparsable url", func() {
			So(get(p, "not a url").Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("Should forbid hosts outside the allow-list", func() {
			So(get(New(), upstream.URL+"/img.png").Code, ShouldEqual, http.StatusForbidden)
			So(get(New(), "https://evil.example.com/a.jpg").Code, ShouldEqual, http.StatusForbidden)
		})

		Convey("Should refuse redirects to hosts outside the allow-list", func() {
			internal := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte("internal-secret"))
			}))
			defer internal.Close()
			_, port, _ := strings.Cut(strings.TrimPrefix(internal.URL, "http://"), ":")

			hop := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				http.Redirect(w, r, "http://localhost:"+port+"/secret", http.StatusFound)
			}))
			defer hop.Close()

			rec := get(p, hop.URL+"/img.png")
			So(rec.Code, ShouldEqual, http.StatusForbidden)
			So(rec.Body.String(), ShouldNotContainSubstring, "internal-secret")
		})

		Convey("Should follow redirects that stay on allowed hosts", func() {
			hop := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				http.Redirect(w, r, upstream.URL+"/img.png", http.StatusFound)
			}))
			defer hop.Close()

			rec := get(p, hop.URL+"/start")
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(rec.Body.String(), ShouldEqual, "PNGDATA")
		})

		Convey("Should guard a caller supplied client too", func() {
			internal := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte("internal-secret"))
			}))
			defer internal.Close()
			_, port, _ := strings.Cut(strings.TrimPrefix(internal.URL, "http://"), ":")
			hop := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				http.Redirect(w, r, "http://localhost:"+port+"/secret", http.StatusFound)
			}))
			defer hop.Close()

			p.HTTPClient = &http.Client{}
			So(get(p, hop.URL+"/img.png").Code, ShouldEqual, http.StatusForbidden)
			So(p.HTTPClient.CheckRedirect, ShouldBeNil)
		})

		Convey("Should answer 502 when the fetch fails", func() {
			dead := httptest.NewServer(http.NotFoundHandler())
			addr := dead.URL
			dead.Close()
			So(get(p, addr+"/img.png").Code, ShouldEqual, http.StatusBadGateway)
		})
	})
}

func TestAllowed(t *testing.T) {
	Convey("Allowed", t, func() {
		p := New()
		So(p.Allowed("scontent-lhr8-1.cdninstagram.com"), ShouldBeTrue)
		So(p.Allowed("instagram.fxyz1-1.fna.fbcdn.net"), ShouldBeTrue)
		So(p.Allowed("instagram.com"), ShouldBeTrue)
		So(p.Allowed("notinstagram.com"), ShouldBeFalse)
		So(p.Allowed("fbcdn.net.evil.com"), ShouldBeFalse)
	})
}

func TestThumbnailURL(t *testing.T) {
	Convey("ThumbnailURL should escape the target", t, func() {
		raw := "https://scontent.cdninstagram.com/v/t51.jpg?stp=dst&oh=abc"
		got := ThumbnailURL(raw)
		So(got, ShouldStartWith, Path+"?url=")

		u, err := url.Parse(got)
		So(err, ShouldBeNil)
		So(u.Query().Get("url"), ShouldEqual, raw)
	})
}
