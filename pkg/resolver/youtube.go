package resolver

import (
	"mediafetch-api-server/pkg/media"
)

func mapYouTube(d fields) *media.MediaAsset {
	formats := d.formats("audio only", nil, func(raw fields, f *media.Format) {
		f.URL = raw.str("url")
	})

	return &media.MediaAsset{
		ID:               d.str("id"),
		Title:            d.strOr("Unknown", "title"),
		Thumbnail:        d.str("thumbnail"),
		Duration:         d.float("duration"),
		OwnerHandle:      d.str("uploader_id", "channel_id"),
		OwnerDisplayName: d.strOr("Unknown", "uploader", "channel"),
		Formats:          formats,
		ViewCount:        d.int("view_count"),
		HasPlayableVideo: media.HasVideo(formats),
	}
}
