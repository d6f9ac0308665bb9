package config

import (
	"sort"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Field is one registered setting
type Field struct {
	Key         string
	Value       any
	Description string
	// Aliases are extra environment variables read for this key
	Aliases []string
}

// Env returns the environment variable name for this field
func (f *Field) Env() string {
	return strings.ToUpper(EnvPrefix + "_" + EnvKeyReplacer.Replace(f.Key))
}

// Current returns the effective value
func (f *Field) Current() any {
	return viper.Get(f.Key)
}

// Default holds every registered field by key
var Default = make(map[string]Field)

func register(k string, v any, desc string, aliases ...string) {
	if _, exists := Default[k]; exists {
		panic("duplicate config key: " + k)
	}
	Default[k] = Field{Key: k, Value: v, Description: desc, Aliases: aliases}
}

func init() {
	register(ServerPort, 8080, "Port the HTTP server listens on", "PORT")
	register(ServerAllowedOrigins, []string{"http://localhost:3000", "http://localhost:3001"}, "Origins allowed by CORS, comma separated in the environment")
	register(ServerReleaseMode, false, "Run gin in release mode")

	register(ExtractorPath, "", "Path to the yt-dlp binary. Looked up in ~/.mediafetch/bin and PATH when empty", "YTDLP_BINARY_PATH")
	register(ExtractorMetadataTimeout, 45*time.Second, "Upper bound for a metadata lookup (bare numbers are seconds)")
	register(ExtractorLocatorTimeout, 20*time.Second, "Upper bound for resolving direct CDN locators (bare numbers are seconds)")
	register(ExtractorRetries, 2, "Retries the extractor performs internally while fetching metadata")

	register(YouTubeDirectRedirect, false, "Redirect clients to single muxed YouTube locators instead of proxying them")

	register(RateLimitRPS, 0.0, "Requests per second allowed per client IP on /api, 0 disables limiting")
	register(RateLimitBurst, 10, "Burst size of the per-IP limiter")

	register(LogLevel, "info", "One of: panic, fatal, error, warn, info, debug, trace")
	register(LogJSON, false, "Emit logs as JSON")
}

// Fields returns every registered field ordered by key
func Fields() []Field {
	fields := make([]Field, 0, len(Default))
	for _, f := range Default {
		fields = append(fields, f)
	}
	sort.Slice(fields, func(i, j int) bool { return fields[i].Key < fields[j].Key })
	return fields
}
