package config

// Configuration keys
const (
	ServerPort           = "server.port"
	ServerAllowedOrigins = "server.allowed_origins"
	ServerReleaseMode    = "server.release_mode"

	ExtractorPath            = "extractor.path"
	ExtractorMetadataTimeout = "extractor.metadata_timeout"
	ExtractorLocatorTimeout  = "extractor.locator_timeout"
	ExtractorRetries         = "extractor.retries"

	YouTubeDirectRedirect = "youtube.direct_redirect"

	RateLimitRPS   = "ratelimit.rps"
	RateLimitBurst = "ratelimit.burst"

	LogLevel = "log.level"
	LogJSON  = "log.json"
)
