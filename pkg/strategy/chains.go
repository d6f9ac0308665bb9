package strategy

import "strings"

// FormatChain is an ordered list of format expressions. The extractor applies the first
// alternative that yields a usable result.
type FormatChain []string

// String renders the chain in the extractor's "a/b/c" syntax
func (c FormatChain) String() string {
	return strings.Join(c, "/")
}

// Prepend returns a new chain with alts tried before c
func (c FormatChain) Prepend(alts ...string) FormatChain {
	return append(append(FormatChain{}, alts...), c...)
}

const (
	DefaultQuality = "best"
	DefaultVariant = "nowatermark"

	AudioQuality = "audio"
	AudioVariant = "audio"
)

// YouTubePresets maps a quality preset to its fallback chain
var YouTubePresets = map[string]FormatChain{
	"best": {
		"best[ext=mp4]",
		"bestvideo[ext=mp4]+bestaudio[ext=m4a]",
	},
	"1080p": {
		"bestvideo[height<=1080][ext=mp4]+bestaudio[ext=m4a]",
		"bestvideo[height<=1080]+bestaudio",
	},
	"720p": {
		"best[height<=720][ext=mp4]",
		"bestvideo[height<=720][ext=mp4]+bestaudio[ext=m4a]",
	},
	"480p": {
		"best[height<=480][ext=mp4]",
		"bestvideo[height<=480]+bestaudio",
	},
	"360p": {
		"best[height<=360][ext=mp4]",
		"best[height<=360]",
	},
	"audio": {
		"bestaudio[ext=m4a]",
		"bestaudio",
	},
}

// TikTokVariants maps a variant to its fallback chain. Whether a rendition actually carries
// the overlay is decided by the extractor's format ids, so this is best effort.
var TikTokVariants = map[string]FormatChain{
	"nowatermark": {
		"h264_1080p_randomcover",
		"h264_720p_randomcover",
		"h264_540p_randomcover",
		"h264_360p_randomcover",
		"best[ext=mp4]",
		"best",
	},
	"watermark": {
		"h264_540p_download",
		"h264_360p_download",
		"download",
		"best[ext=mp4]",
		"best",
	},
	"audio": {
		"bestaudio",
		"best",
	},
}

// InstagramChain prefers a merged mp4, then any mp4, then anything
var InstagramChain = FormatChain{
	"bestvideo[ext=mp4]+bestaudio",
	"best[ext=mp4]",
	"best",
}
