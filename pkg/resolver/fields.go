package resolver

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/cast"

	"mediafetch-api-server/pkg/media"
)

// fields is one decoded JSON object from the extractor. Nothing about its shape is trusted:
// every accessor tolerates missing keys, nulls and wrong types.
type fields map[string]any

// str returns the first key holding a non-empty scalar, as a string
func (f fields) str(keys ...string) string {
	for _, k := range keys {
		v, ok := f[k]
		if !ok || v == nil {
			continue
		}
		switch v.(type) {
		case map[string]any, []any:
			continue
		}
		if s := strings.TrimSpace(cast.ToString(v)); s != "" {
			return s
		}
	}
	return ""
}

func (f fields) strOr(fallback string, keys ...string) string {
	if s := f.str(keys...); s != "" {
		return s
	}
	return fallback
}

func (f fields) float(key string) float64 {
	v, err := cast.ToFloat64E(f[key])
	if err != nil {
		return 0
	}
	return v
}

func (f fields) int(key string) int64 {
	v, err := cast.ToInt64E(f[key])
	if err != nil {
		// integers may arrive as floats, e.g. 12.0
		return int64(f.float(key))
	}
	return v
}

// optFloat is nil when the key is absent, null or not numeric
func (f fields) optFloat(key string) *float64 {
	v, ok := f[key]
	if !ok || v == nil {
		return nil
	}
	n, err := cast.ToFloat64E(v)
	if err != nil {
		return nil
	}
	return &n
}

// optInt returns the first key holding a number
func (f fields) optInt(keys ...string) *int64 {
	for _, k := range keys {
		if n := f.optFloat(k); n != nil {
			return lo.ToPtr(int64(*n))
		}
	}
	return nil
}

// list returns the objects stored under key, skipping nulls and non-objects
func (f fields) list(key string) []fields {
	items, ok := f[key].([]any)
	if !ok {
		return nil
	}
	out := make([]fields, 0, len(items))
	for _, item := range items {
		if m, ok := item.(map[string]any); ok {
			out = append(out, fields(m))
		}
	}
	return out
}

func (f fields) resolution(fallback string) string {
	if s := f.str("resolution"); s != "" {
		return s
	}
	w, h := f.int("width"), f.int("height")
	if w > 0 && h > 0 {
		return fmt.Sprintf("%dx%d", w, h)
	}
	return fallback
}

// format maps one entry of the extractor's formats array
func (f fields) format(fallbackResolution string) media.Format {
	return media.Format{
		FormatID:   f.str("format_id"),
		Ext:        f.strOr("mp4", "ext"),
		Resolution: f.resolution(fallbackResolution),
		FPS:        f.optFloat("fps"),
		Filesize:   f.optInt("filesize", "filesize_approx"),
		VideoCodec: f.strOr(media.CodecNone, "vcodec"),
		AudioCodec: f.strOr(media.CodecNone, "acodec"),
		FormatNote: f.str("format_note"),
		Quality:    f.float("quality"),
	}
}

// formats maps, filters and sorts the formats array. Formats with neither track are
// always dropped.
func (f fields) formats(fallbackResolution string, keep func(media.Format) bool, decorate func(fields, *media.Format)) []media.Format {
	out := make([]media.Format, 0)
	for _, raw := range f.list("formats") {
		mf := raw.format(fallbackResolution)
		if !mf.HasVideoTrack() && !mf.HasAudioTrack() {
			continue
		}
		if keep != nil && !keep(mf) {
			continue
		}
		if decorate != nil {
			decorate(raw, &mf)
		}
		out = append(out, mf)
	}
	media.SortFormats(out)
	return out
}
