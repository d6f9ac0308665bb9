package resolver

import (
	"github.com/samber/lo"

	"mediafetch-api-server/pkg/media"
)

// TikTok nearly always serves muxed files, so every format records whether it carries
// audio and downloads never need a merge.
func mapTikTok(d fields) *media.MediaAsset {
	formats := d.formats("unknown", media.Format.HasVideoTrack, func(_ fields, f *media.Format) {
		f.HasBoth = lo.ToPtr(f.HasAudioTrack())
	})

	return &media.MediaAsset{
		ID:               d.str("id"),
		Title:            d.strOr("TikTok Video", "title", "description"),
		Thumbnail:        d.str("thumbnail"),
		Duration:         d.float("duration"),
		OwnerHandle:      d.str("uploader_id", "channel_id"),
		OwnerDisplayName: d.strOr("Unknown", "uploader", "creator"),
		Formats:          formats,
		ViewCount:        d.int("view_count"),
		LikeCount:        d.int("like_count"),
		HasPlayableVideo: media.HasVideo(formats),
	}
}
