package api

import (
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	RequestIDHeader = "X-Request-ID"
	requestIDKey    = "request_id"
)

// requestID tags every request with an id, reusing a well-formed one from the caller
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// accessLog logs one line per request. It runs deferred so aborted streams are logged too.
func accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		defer func() {
			entry := logrus.WithFields(logrus.Fields{
				"request_id": c.GetString(requestIDKey),
				"method":     c.Request.Method,
				"path":       path,
				"status":     c.Writer.Status(),
				"bytes":      c.Writer.Size(),
				"client_ip":  c.ClientIP(),
				"latency":    time.Since(start).Round(time.Millisecond),
			})
			if rec := recover(); rec != nil {
				entry.Warn("request aborted")
				panic(rec)
			}
			entry.Info("request served")
		}()

		c.Next()
	}
}

// recovery turns handler panics into a 500. http.ErrAbortHandler is re-raised so the
// server drops the connection instead of ending a half-sent body cleanly.
func recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}

			logrus.WithFields(logrus.Fields{
				"request_id": c.GetString(requestIDKey),
				"panic":      rec,
				"stack":      string(debug.Stack()),
			}).Error("handler panicked")

			if c.Writer.Written() {
				c.Abort()
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{Error: "Something went wrong"})
		}()

		c.Next()
	}
}
