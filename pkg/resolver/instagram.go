package resolver

import (
	"fmt"

	"github.com/samber/lo"

	"mediafetch-api-server/pkg/media"
)

const titleFromDescriptionLimit = 80

func (r *Resolver) mapInstagram(d fields, kind string) *media.MediaAsset {
	asset := &media.MediaAsset{
		ID:               d.str("id"),
		Description:      d.str("description"),
		Thumbnail:        r.thumbnail(d.str("thumbnail")),
		OwnerHandle:      d.str("uploader_id", "channel_id"),
		OwnerDisplayName: d.strOr("Unknown", "uploader", "channel"),
		Timestamp:        d.int("timestamp"),
		LikeCount:        d.int("like_count"),
		MediaKind:        kind,
		Formats:          make([]media.Format, 0),
	}

	if _, isList := d["entries"].([]any); d.str("_type") == "playlist" && isList {
		asset.Title = instagramTitle(d, "Instagram Post")
		for i, entry := range d.list("entries") {
			asset.Slides = append(asset.Slides, r.slide(entry, i))
		}
		if asset.Thumbnail == "" && len(asset.Slides) > 0 {
			asset.Thumbnail = asset.Slides[0].Thumbnail
		}
		asset.HasPlayableVideo = lo.SomeBy(asset.Slides, func(s media.Slide) bool { return s.IsVideo })
		return asset
	}

	asset.Title = instagramTitle(d, "Instagram Video")
	asset.Duration = d.float("duration")
	asset.Formats = d.formats("unknown", media.Format.HasVideoTrack, nil)
	asset.HasPlayableVideo = len(asset.Formats) > 0
	return asset
}

// slide maps one carousel entry. A slide is a video iff any of its formats has video.
func (r *Resolver) slide(e fields, i int) media.Slide {
	formats := e.formats("unknown", media.Format.HasVideoTrack, nil)
	isVideo := len(formats) > 0

	return media.Slide{
		MediaAsset: media.MediaAsset{
			ID:               e.strOr(fmt.Sprintf("entry_%d", i), "id"),
			Title:            e.strOr(fmt.Sprintf("Slide %d", i+1), "title"),
			Thumbnail:        r.thumbnail(e.str("thumbnail")),
			Duration:         e.float("duration"),
			Formats:          formats,
			HasPlayableVideo: isVideo,
		},
		Index:   i,
		IsVideo: isVideo,
	}
}

func (r *Resolver) thumbnail(raw string) string {
	if raw == "" || r.ThumbnailURL == nil {
		return raw
	}
	return r.ThumbnailURL(raw)
}

func instagramTitle(d fields, fallback string) string {
	if t := d.str("title"); t != "" {
		return t
	}
	if desc := d.str("description"); desc != "" {
		return lo.Substring(desc, 0, titleFromDescriptionLimit)
	}
	return fallback
}
