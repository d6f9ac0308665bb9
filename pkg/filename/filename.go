// Package filename builds safe download names from post titles.
package filename

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"mediafetch-api-server/pkg/platform"
)

// MaxStem is the longest stem, in runes, kept from a title
const MaxStem = 80

const forbidden = `<>:"/\|?*`

// Sanitize returns "<stem>.<ext>" where the stem is title with characters that are unsafe
// in filenames or headers removed. Instagram titles also lose '#'. An empty result falls
// back to the platform's default stem.
func Sanitize(p platform.Platform, title, ext string) string {
	title = strings.ToValidUTF8(title, "")

	var b strings.Builder
	for _, r := range title {
		if r == utf8.RuneError || unicode.IsControl(r) || strings.ContainsRune(forbidden, r) {
			continue
		}
		if r == '#' && p == platform.Instagram {
			continue
		}
		b.WriteRune(r)
	}

	stem := strings.TrimSpace(b.String())
	if runes := []rune(stem); len(runes) > MaxStem {
		stem = strings.TrimSpace(string(runes[:MaxStem]))
	}
	if stem == "" {
		stem = p.DefaultStem()
	}

	ext = strings.TrimPrefix(strings.TrimSpace(ext), ".")
	if ext == "" {
		return stem
	}
	return stem + "." + ext
}
