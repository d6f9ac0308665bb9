package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const (
	limiterIdle     = 10 * time.Minute
	limiterMaxPeers = 10000
)

type peer struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// ipLimiter hands out one token bucket per client IP
type ipLimiter struct {
	limit rate.Limit
	burst int

	mu    sync.Mutex
	peers map[string]*peer
}

func newIPLimiter(limit rate.Limit, burst int) *ipLimiter {
	if burst < 1 {
		burst = 1
	}
	return &ipLimiter{limit: limit, burst: burst, peers: make(map[string]*peer)}
}

func (l *ipLimiter) allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	p, ok := l.peers[ip]
	if !ok {
		if len(l.peers) >= limiterMaxPeers {
			l.evict(now)
		}
		p = &peer{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.peers[ip] = p
	}
	p.lastSeen = now
	return p.limiter.AllowN(now, 1)
}

// evict drops idle peers, must hold mu
func (l *ipLimiter) evict(now time.Time) {
	for ip, p := range l.peers {
		if now.Sub(p.lastSeen) > limiterIdle {
			delete(l.peers, ip)
		}
	}
}

func rateLimit(l *ipLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !l.allow(c.ClientIP()) {
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, ErrorResponse{Error: "Too many requests, please slow down"})
			return
		}
		c.Next()
	}
}
