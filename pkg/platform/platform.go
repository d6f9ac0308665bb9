package platform

import (
	"fmt"
	"strings"
)

// Platform identifies one of the supported source sites
type Platform string

const (
	YouTube   Platform = "youtube"
	TikTok    Platform = "tiktok"
	Instagram Platform = "instagram"
)

// All lists every supported platform in display order
var All = []Platform{YouTube, TikTok, Instagram}

// Parse converts a path segment or config value into a Platform
func Parse(s string) (Platform, error) {
	switch Platform(strings.ToLower(strings.TrimSpace(s))) {
	case YouTube:
		return YouTube, nil
	case TikTok:
		return TikTok, nil
	case Instagram:
		return Instagram, nil
	}
	return "", fmt.Errorf("unsupported platform %q", s)
}

func (p Platform) String() string {
	return string(p)
}

// DefaultStem is the filename stem used when a title sanitizes to nothing
func (p Platform) DefaultStem() string {
	switch p {
	case TikTok:
		return "tiktok"
	case Instagram:
		return "instagram"
	default:
		return "video"
	}
}
