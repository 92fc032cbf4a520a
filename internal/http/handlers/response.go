// Package handlers implements the public HTTP API on top of the services
// layer.
//
// Every error leaves through fail, so clients always see the same envelope:
//
//	HTTP/1.1 400 Bad Request
//	{"request_id":"123e4567-e89b-12d3-a456-426614174000","code":"bad_request","message":"invalid JSON body"}
//
// Domain outcomes such as a failed login are not errors: they answer 200
// with {"success":false,"message":...}.
package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/aoubot-backend/internal/http/middleware"
)

// ErrorResponse is the error envelope of every endpoint.
type ErrorResponse struct {
	// Correlates server logs and client errors
	RequestID string `json:"request_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
	// Stable, machine-readable code (see errors.go constants)
	Code string `json:"code" example:"not_found"`
	// Human-readable message (safe to show to users)
	Message string `json:"message" example:"resource not found"`
}

// fail aborts c with the envelope. 5xx are logged with the request-scoped
// logger, including any causes attached through c.Error.
func fail(c *gin.Context, status int, code, msg string) {
	if status >= http.StatusInternalServerError {
		ev := middleware.LoggerFrom(c).Error().
			Int("status", status).
			Str("code", code)
		if len(c.Errors) > 0 {
			ev = ev.Str("cause", c.Errors.Last().Error())
		}
		ev.Msg(msg)
	}

	c.AbortWithStatusJSON(status, ErrorResponse{
		RequestID: c.Writer.Header().Get("X-Request-ID"),
		Code:      code,
		Message:   msg,
	})
}

// Fail is fail for callers outside the package (router fallbacks).
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

func ok(c *gin.Context, status int, body any) {
	c.JSON(status, body)
}

// internalError answers 500 with a generic message. err stays server-side.
func internalError(c *gin.Context, err error) {
	if err != nil {
		_ = c.Error(err)
	}
	fail(c, http.StatusInternalServerError, ErrCodeInternal, "internal server error")
}

// notModified sets the ETag header and, when If-None-Match already names
// etag (or is "*"), writes 304 and returns true.
func notModified(c *gin.Context, etag string) bool {
	c.Header("ETag", etag)
	for _, tag := range strings.Split(c.GetHeader("If-None-Match"), ",") {
		if t := strings.TrimSpace(tag); t == etag || t == "*" {
			c.Status(http.StatusNotModified)
			return true
		}
	}
	return false
}
