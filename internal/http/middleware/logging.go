// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// logging.go covers request correlation and panic recovery. RedactingLogger
// (redact_logger.go) builds on both.
package middleware

import (
	"net/http"
	"regexp"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	requestIDKey    = "requestID"
	requestIDHeader = "X-Request-ID"
	loggerKey       = "logger"

	maxRequestIDLength = 128
	maxQueryLogLength  = 2048
)

// Client-supplied ids end up in every log line; anything outside this set is
// replaced.
var requestIDRE = regexp.MustCompile(`^[A-Za-z0-9._:\-]+$`)

// RequestID reuses a well-formed X-Request-ID from the client or generates a
// UUID. The id is echoed on the response and stored in the Gin context.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(requestIDHeader)
		if !validRequestID(rid) {
			rid = uuid.NewString()
		}
		c.Set(requestIDKey, rid)
		c.Writer.Header().Set(requestIDHeader, rid)
		c.Next()
	}
}

func validRequestID(s string) bool {
	return s != "" && len(s) <= maxRequestIDLength && requestIDRE.MatchString(s)
}

// Recovery turns a panic into the standard 500 envelope. If the handler had
// already written a response only the status is forced.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			rid := requestIDFrom(c)
			LoggerFrom(c).Error().
				Interface("panic", rec).
				Bytes("stack", debug.Stack()).
				Str("request_id", rid).
				Msg("panic recovered")

			if c.Writer.Written() {
				c.AbortWithStatus(http.StatusInternalServerError)
				return
			}
			c.Header(requestIDHeader, rid)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"request_id": rid,
				"code":       "internal_error",
				"message":    "internal server error",
			})
		}()
		c.Next()
	}
}

// LoggerFrom returns the logger RedactingLogger attached to c, or the global
// logger. Never nil.
func LoggerFrom(c *gin.Context) *zerolog.Logger {
	if lg, ok := c.Value(loggerKey).(*zerolog.Logger); ok && lg != nil {
		return lg
	}
	return &log.Logger
}

func requestIDFrom(c *gin.Context) string {
	if rid := c.GetString(requestIDKey); rid != "" {
		return rid
	}
	return c.Writer.Header().Get(requestIDHeader)
}

// truncate caps s at max bytes. max <= 0 disables it.
func truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	return s[:max] + "…"
}
