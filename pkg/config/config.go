// Package config registers the server's settings and loads them from defaults, an optional
// mediafetch.yaml and the environment.
package config

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/spf13/viper"
)

const (
	EnvPrefix = "MEDIAFETCH"
	FileName  = "mediafetch"
)

// EnvKeyReplacer maps config keys to environment variable names
var EnvKeyReplacer = strings.NewReplacer(".", "_")

// Config is the typed view of the settings
type Config struct {
	Server struct {
		Port           int
		AllowedOrigins []string
		ReleaseMode    bool
	}
	Extractor struct {
		Path            string
		MetadataTimeout time.Duration
		LocatorTimeout  time.Duration
		Retries         int
	}
	YouTube struct {
		DirectRedirect bool
	}
	RateLimit struct {
		RPS   float64
		Burst int
	}
	Log struct {
		Level string
		JSON  bool
	}
}

// Setup registers defaults and environment bindings on the global viper instance and
// reads the config file if one exists. file overrides the search path when set.
func Setup(file string) error {
	if file != "" {
		viper.SetConfigFile(file)
	} else {
		viper.SetConfigName(FileName)
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/.mediafetch")
	}

	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(EnvKeyReplacer)
	for _, f := range Default {
		viper.SetDefault(f.Key, f.Value)
		names := append([]string{f.Env()}, f.Aliases...)
		if err := viper.BindEnv(append([]string{f.Key}, names...)...); err != nil {
			return err
		}
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return err
	}
	return nil
}

// Load returns the current settings
func Load() *Config {
	c := &Config{}

	c.Server.Port = viper.GetInt(ServerPort)
	c.Server.AllowedOrigins = splitList(viper.GetStringSlice(ServerAllowedOrigins))
	c.Server.ReleaseMode = viper.GetBool(ServerReleaseMode)

	c.Extractor.Path = viper.GetString(ExtractorPath)
	c.Extractor.MetadataTimeout = duration(ExtractorMetadataTimeout)
	c.Extractor.LocatorTimeout = duration(ExtractorLocatorTimeout)
	c.Extractor.Retries = viper.GetInt(ExtractorRetries)

	c.YouTube.DirectRedirect = viper.GetBool(YouTubeDirectRedirect)

	c.RateLimit.RPS = viper.GetFloat64(RateLimitRPS)
	c.RateLimit.Burst = viper.GetInt(RateLimitBurst)

	c.Log.Level = viper.GetString(LogLevel)
	c.Log.JSON = viper.GetBool(LogJSON)

	return c
}

// splitList accepts both YAML lists and comma separated environment values
func splitList(items []string) []string {
	return lo.Compact(lo.FlatMap(items, func(item string, _ int) []string {
		return lo.Map(strings.Split(item, ","), func(s string, _ int) string {
			return strings.TrimSpace(s)
		})
	}))
}

// duration reads key as a Go duration string, or as seconds when it is a bare number
func duration(key string) time.Duration {
	if d, ok := viper.Get(key).(time.Duration); ok {
		return d
	}
	if n, err := strconv.ParseFloat(strings.TrimSpace(viper.GetString(key)), 64); err == nil {
		return time.Duration(n * float64(time.Second))
	}
	return viper.GetDuration(key)
}
