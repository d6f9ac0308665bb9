// Package api exposes the metadata, prepare and download endpoints over gin.
package api

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
	"golang.org/x/time/rate"

	"mediafetch-api-server/pkg/config"
	"mediafetch-api-server/pkg/extractor"
	"mediafetch-api-server/pkg/preview"
	"mediafetch-api-server/pkg/relay"
	"mediafetch-api-server/pkg/resolver"
	"mediafetch-api-server/pkg/strategy"
)

// Server wires the pipeline stages to HTTP. Every field is read-only after construction.
type Server struct {
	Resolver *resolver.Resolver
	Selector *strategy.Selector
	Relay    *relay.Relay
	Preview  http.Handler

	AllowedOrigins []string
	// RateLimit is requests per second per client IP on /api, zero disables it
	RateLimit rate.Limit
	Burst     int
}

// New builds a Server around runner using cfg
func New(runner extractor.Runner, cfg *config.Config) *Server {
	res := resolver.New(runner)
	if cfg.Extractor.MetadataTimeout > 0 {
		res.Timeout = cfg.Extractor.MetadataTimeout
	}
	res.Retries = cfg.Extractor.Retries

	sel := strategy.New(runner)
	if cfg.Extractor.LocatorTimeout > 0 {
		sel.LocatorTimeout = cfg.Extractor.LocatorTimeout
	}
	sel.DirectRedirect = cfg.YouTube.DirectRedirect

	return &Server{
		Resolver:       res,
		Selector:       sel,
		Relay:          relay.New(runner),
		Preview:        preview.New(),
		AllowedOrigins: cfg.Server.AllowedOrigins,
		RateLimit:      rate.Limit(cfg.RateLimit.RPS),
		Burst:          cfg.RateLimit.Burst,
	}
}

// Router returns the gin engine serving every route
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(requestID(), accessLog(), recovery())

	corsConfig := cors.DefaultConfig()
	if len(s.AllowedOrigins) == 0 || lo.Contains(s.AllowedOrigins, "*") {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = s.AllowedOrigins
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Content-Type", "Authorization", "Range"}
	corsConfig.ExposeHeaders = []string{"Content-Range", "Content-Length", "Content-Disposition", "Accept-Ranges", RequestIDHeader}
	router.Use(cors.New(corsConfig))

	api := router.Group("/api")
	if s.RateLimit > 0 {
		api.Use(rateLimit(newIPLimiter(s.RateLimit, s.Burst)))
	}
	{
		api.GET("/:platform/metadata", s.metadataHandler)
		api.POST("/:platform/prepare", s.prepareHandler)
	}

	internal := router.Group("/internal")
	{
		internal.GET("/download/:platform", s.downloadHandler)
		internal.GET("/preview/instagram", gin.WrapH(s.Preview))
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	return router
}
