// Package media holds the platform-agnostic description of a resolved post.
package media

import (
	"slices"

	"github.com/samber/lo"
)

// CodecNone is the codec value the extractor reports for an absent track
const CodecNone = "none"

// Format describes one encoding the extractor can deliver
type Format struct {
	FormatID   string   `json:"format_id"`
	Ext        string   `json:"ext"`
	Resolution string   `json:"resolution"`
	FPS        *float64 `json:"fps"`
	Filesize   *int64   `json:"filesize"`
	VideoCodec string   `json:"vcodec"`
	AudioCodec string   `json:"acodec"`
	FormatNote string   `json:"format_note,omitempty"`
	// Quality orders formats, higher is better
	Quality float64 `json:"quality"`

	// URL is the direct CDN locator, only kept for YouTube
	URL string `json:"url,omitempty"`
	// HasBoth marks muxed TikTok renditions
	HasBoth *bool `json:"has_both,omitempty"`
}

// HasVideoTrack reports whether the format carries video
func (f Format) HasVideoTrack() bool {
	return f.VideoCodec != "" && f.VideoCodec != CodecNone
}

// HasAudioTrack reports whether the format carries audio
func (f Format) HasAudioTrack() bool {
	return f.AudioCodec != "" && f.AudioCodec != CodecNone
}

// MediaAsset is the uniform result of resolving a post on any platform
type MediaAsset struct {
	ID               string   `json:"id"`
	Title            string   `json:"title"`
	Thumbnail        string   `json:"thumbnail"`
	Duration         float64  `json:"duration"`
	OwnerHandle      string   `json:"owner_handle,omitempty"`
	OwnerDisplayName string   `json:"uploader"`
	Formats          []Format `json:"formats"`

	ViewCount int64 `json:"view_count,omitempty"`
	LikeCount int64 `json:"like_count,omitempty"`

	// Instagram only
	Description      string  `json:"description,omitempty"`
	Timestamp        int64   `json:"timestamp,omitempty"`
	MediaKind        string  `json:"media_kind,omitempty"`
	HasPlayableVideo bool    `json:"has_playable_video"`
	Slides           []Slide `json:"slides,omitempty"`
}

// Slide is one entry of an Instagram carousel
type Slide struct {
	MediaAsset
	Index   int  `json:"index"`
	IsVideo bool `json:"is_video"`
}

// IsCarousel reports whether the asset is a multi-slide post
func (a *MediaAsset) IsCarousel() bool {
	return len(a.Slides) > 0
}

// SortFormats orders formats by quality, best first, keeping resolver order on ties
func SortFormats(formats []Format) {
	slices.SortStableFunc(formats, func(a, b Format) int {
		switch {
		case a.Quality > b.Quality:
			return -1
		case a.Quality < b.Quality:
			return 1
		}
		return 0
	})
}

// HasVideo reports whether any format carries a video track
func HasVideo(formats []Format) bool {
	return lo.SomeBy(formats, Format.HasVideoTrack)
}
