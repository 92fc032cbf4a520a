// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements idempotency support for unsafe HTTP methods (POST
// /chat). It validates an Idempotency-Key request header and stashes the
// normalized key in the Gin context so the handler can pass it to the chat
// service, which owns the replay lookup because only it knows the user and
// session the key is scoped to.
//
// Handlers that serve a stored answer call MarkReplayed, which sets the
// Idempotent-Replayed response header and the IsReplay flag.
package middleware

import (
	"net/http"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"
)

// HeaderIdempotencyKey is the request header carrying the idempotency key.
const HeaderIdempotencyKey = "Idempotency-Key"

// HeaderIdempotentReplay is set to "true" on responses served from a stored
// answer.
const HeaderIdempotentReplay = "Idempotent-Replayed"

const (
	ctxKeyIdemKey    = "idem.key"
	ctxKeyIdemReplay = "idem.replay"
)

var defaultKeyPattern = regexp.MustCompile(`^[A-Za-z0-9._~\-:]+$`)

// GetIdempotencyKey returns the validated key stored by Idempotency. The
// second return value reports presence.
func GetIdempotencyKey(c *gin.Context) (string, bool) {
	v, ok := c.Get(ctxKeyIdemKey)
	if !ok {
		return "", false
	}
	s, _ := v.(string)
	return s, s != ""
}

// MarkReplayed flags the response as a replay of a stored answer.
func MarkReplayed(c *gin.Context) {
	c.Set(ctxKeyIdemReplay, true)
	c.Header(HeaderIdempotentReplay, "true")
}

// IsReplay reports whether MarkReplayed was called for this request.
func IsReplay(c *gin.Context) bool {
	v, ok := c.Get(ctxKeyIdemReplay)
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

// IdempotencyOptions configures header validation for Idempotency.
type IdempotencyOptions struct {
	// MaxLen caps the accepted key length. Values <= 0 default to 200.
	MaxLen int
	// Pattern restricts allowed characters. Nil means ^[A-Za-z0-9._~\-:]+$.
	Pattern *regexp.Regexp
	// Methods lists the methods the header is honored on. Empty means POST.
	Methods []string
}

// Idempotency validates the Idempotency-Key header on the configured methods
// and stashes it for GetIdempotencyKey.
//
// Behavior:
//   - Header absent, or method not covered: no-op.
//   - Header invalid: 400 with the standard error envelope.
//   - Otherwise the trimmed key is stored and the chain continues.
func Idempotency(opts IdempotencyOptions) gin.HandlerFunc {
	maxLen := opts.MaxLen
	if maxLen <= 0 {
		maxLen = 200
	}
	pat := opts.Pattern
	if pat == nil {
		pat = defaultKeyPattern
	}
	methods := map[string]struct{}{}
	for _, m := range opts.Methods {
		methods[strings.ToUpper(m)] = struct{}{}
	}
	if len(methods) == 0 {
		methods[http.MethodPost] = struct{}{}
	}

	return func(c *gin.Context) {
		if _, ok := methods[c.Request.Method]; !ok {
			c.Next()
			return
		}
		key := strings.TrimSpace(c.GetHeader(HeaderIdempotencyKey))
		if key == "" {
			c.Next()
			return
		}
		if len(key) > maxLen || !pat.MatchString(key) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"request_id": requestIDFrom(c),
				"code":       "bad_request",
				"message":    "invalid Idempotency-Key",
			})
			return
		}
		c.Set(ctxKeyIdemKey, key)
		c.Next()
	}
}
