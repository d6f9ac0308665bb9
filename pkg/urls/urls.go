// Package urls canonicalizes and validates the post links accepted for each platform.
//
// Normalization fails open: anything that cannot be parsed is returned unchanged and left
// for the validator, which fails closed.
package urls

import (
	"errors"
	"net/url"
	"regexp"
	"strings"

	"github.com/samber/lo"

	"mediafetch-api-server/pkg/platform"
)

var (
	youtubeIDPattern   = regexp.MustCompile(`^[\w-]{11}$`)
	tiktokPathPattern  = regexp.MustCompile(`^/(@[\w.-]+/video/\d+|v/\d+)`)
	instagramPattern   = regexp.MustCompile(`^/(p|reel|reels|tv|stories)/[\w.-]+`)
	errNoHost          = errors.New("url has no host")
	youtubeHosts       = []string{"youtube.com", "www.youtube.com", "m.youtube.com", "music.youtube.com"}
	tiktokShortHosts   = []string{"vm.tiktok.com", "vt.tiktok.com"}
	instagramCanonical = "https://www.instagram.com"
)

// Normalize returns the canonical form of rawURL for platform p
func Normalize(p platform.Platform, rawURL string) string {
	switch p {
	case platform.YouTube:
		return NormalizeYouTube(rawURL)
	case platform.TikTok:
		return NormalizeTikTok(rawURL)
	case platform.Instagram:
		return NormalizeInstagram(rawURL)
	}
	return rawURL
}

// IsValid reports whether u has a recognized post shape for platform p
func IsValid(p platform.Platform, u string) bool {
	switch p {
	case platform.YouTube:
		return IsValidYouTube(u)
	case platform.TikTok:
		return IsValidTikTok(u)
	case platform.Instagram:
		return IsValidInstagram(u)
	}
	return false
}

// NormalizeYouTube reduces watch, shorts and youtu.be links to https://www.youtube.com/watch?v=<id>
func NormalizeYouTube(rawURL string) string {
	u, err := parse(rawURL)
	if err != nil {
		return rawURL
	}
	if id := youtubeID(u); id != "" {
		return "https://www.youtube.com/watch?v=" + id
	}
	return rawURL
}

// IsValidYouTube requires an 11 character video id in a watch, shorts or youtu.be link
func IsValidYouTube(s string) bool {
	u, err := parse(s)
	if err != nil {
		return false
	}
	return youtubeIDPattern.MatchString(youtubeID(u))
}

func youtubeID(u *url.URL) string {
	host := strings.ToLower(u.Hostname())
	switch {
	case host == "youtu.be":
		return firstSegment(u.Path)
	case lo.Contains(youtubeHosts, host):
		if u.Path == "/watch" {
			return u.Query().Get("v")
		}
		if rest, ok := strings.CutPrefix(u.Path, "/shorts/"); ok {
			return firstSegment(rest)
		}
	}
	return ""
}

// NormalizeTikTok drops tracking query parameters. Short links are left for the extractor
// to follow.
func NormalizeTikTok(rawURL string) string {
	u, err := parse(rawURL)
	if err != nil {
		return rawURL
	}
	host := strings.ToLower(u.Hostname())
	if lo.Contains(tiktokShortHosts, host) {
		return strings.SplitN(strings.TrimSpace(rawURL), "?", 2)[0]
	}
	if isTikTokHost(host) {
		return u.Scheme + "://" + u.Host + u.EscapedPath()
	}
	return rawURL
}

// IsValidTikTok accepts @handle/video/<id>, /v/<id> and vm./vt. short links
func IsValidTikTok(s string) bool {
	u, err := parse(s)
	if err != nil {
		return false
	}
	host := strings.ToLower(u.Hostname())
	if lo.Contains(tiktokShortHosts, host) {
		return true
	}
	return isTikTokHost(host) && tiktokPathPattern.MatchString(u.Path)
}

func isTikTokHost(host string) bool {
	return host == "tiktok.com" || strings.HasSuffix(host, ".tiktok.com")
}

// NormalizeInstagram rewrites any instagram.com host variant to www and drops the query
func NormalizeInstagram(rawURL string) string {
	u, err := parse(rawURL)
	if err != nil {
		return rawURL
	}
	if !isInstagramHost(strings.ToLower(u.Hostname())) {
		return rawURL
	}
	return instagramCanonical + u.EscapedPath()
}

// IsValidInstagram accepts /p/, /reel/, /reels/, /tv/ and /stories/ links
func IsValidInstagram(s string) bool {
	u, err := parse(s)
	if err != nil {
		return false
	}
	return isInstagramHost(strings.ToLower(u.Hostname())) && instagramPattern.MatchString(u.Path)
}

func isInstagramHost(host string) bool {
	return host == "instagram.com" || strings.HasSuffix(host, ".instagram.com")
}

// MediaKindFromURL infers reel, igtv, story or post from the first path segment of an
// Instagram link
func MediaKindFromURL(s string) string {
	u, err := parse(s)
	if err != nil {
		return "post"
	}
	first, _, _ := strings.Cut(strings.TrimPrefix(u.Path, "/"), "/")
	switch strings.ToLower(first) {
	case "reel", "reels":
		return "reel"
	case "tv":
		return "igtv"
	case "stories":
		return "story"
	}
	return "post"
}

func parse(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if u.Host == "" {
		return nil, errNoHost
	}
	return u, nil
}

func firstSegment(p string) string {
	p = strings.TrimPrefix(p, "/")
	if i := strings.IndexByte(p, '/'); i >= 0 {
		return p[:i]
	}
	return p
}
