package extractor

import (
	"strconv"

	"mediafetch-api-server/pkg/platform"
)

const (
	// MobileUserAgent is sent to Instagram, which serves public posts more reliably to phones
	MobileUserAgent = "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1"
	// DesktopUserAgent is a generic browser user agent
	DesktopUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

	TikTokReferer    = "https://www.tiktok.com/"
	InstagramReferer = "https://www.instagram.com/"

	// MergeContainer is the output container of server-side merges
	MergeContainer = "mp4"
)

var commonFlags = []string{"--no-warnings", "--no-check-certificate"}

// Args is a yt-dlp argument list, built up with the chainable helpers below
type Args []string

// NewArgs starts an argument list for url
func NewArgs(url string) Args {
	return Args{url}
}

// Flags appends raw flags
func (a Args) Flags(flags ...string) Args {
	return append(a, flags...)
}

// Header injects an HTTP header into every request the extractor makes
func (a Args) Header(name, value string) Args {
	return append(a, "--add-header", name+":"+value)
}

// Headers appends each header pair in order
func (a Args) Headers(headers [][2]string) Args {
	for _, h := range headers {
		a = a.Header(h[0], h[1])
	}
	return a
}

// Format sets the format-selection expression
func (a Args) Format(expr string) Args {
	return append(a, "-f", expr)
}

// PlaylistItems restricts a playlist result to the 1-based item n
func (a Args) PlaylistItems(n int) Args {
	return append(a, "--playlist-items", strconv.Itoa(n))
}

// MetadataArgs dumps the info JSON without downloading the payload
func MetadataArgs(p platform.Platform, url string, retries int) Args {
	a := NewArgs(url).Flags("-J", "--skip-download")
	if p == platform.YouTube {
		a = a.Flags("--no-playlist")
	}
	a = a.Flags(commonFlags...).Flags("--extractor-retries", strconv.Itoa(retries))
	return a.Headers(MetadataHeaders(p))
}

// LocatorArgs prints the direct CDN URL of each selected format, one per line
func LocatorArgs(url, format string) Args {
	return NewArgs(url).Flags("-g").Format(format).Flags("--no-playlist").Flags(commonFlags...)
}

// StreamArgs writes the selected payload to stdout
func StreamArgs(p platform.Platform, url, format string) Args {
	a := NewArgs(url).Format(format)
	if p == platform.YouTube {
		a = a.Flags("--no-playlist", "--merge-output-format", MergeContainer)
	}
	a = a.Flags("-o", "-").Flags(commonFlags...)
	return a.Headers(DownloadHeaders(p))
}

// MetadataHeaders are the headers sent while probing a post
func MetadataHeaders(p platform.Platform) [][2]string {
	switch p {
	case platform.TikTok:
		return [][2]string{{"Referer", TikTokReferer}}
	case platform.Instagram:
		return [][2]string{{"User-Agent", MobileUserAgent}}
	}
	return nil
}

// DownloadHeaders are the headers sent while fetching the payload
func DownloadHeaders(p platform.Platform) [][2]string {
	switch p {
	case platform.TikTok:
		return [][2]string{{"Referer", TikTokReferer}, {"User-Agent", DesktopUserAgent}}
	case platform.Instagram:
		return [][2]string{{"User-Agent", MobileUserAgent}, {"Referer", InstagramReferer}}
	}
	return nil
}
