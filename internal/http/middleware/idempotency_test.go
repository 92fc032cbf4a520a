package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func newIdemRouter(opts IdempotencyOptions) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID(), Idempotency(opts))
	h := func(c *gin.Context) {
		key, ok := GetIdempotencyKey(c)
		if key == "replay-me" {
			MarkReplayed(c)
		}
		c.JSON(http.StatusOK, gin.H{"key": key, "present": ok, "replay": IsReplay(c)})
	}
	r.POST("/chat", h)
	r.GET("/chat", h)
	return r
}

func doIdem(r http.Handler, method, key string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, "/chat", strings.NewReader(`{}`))
	if key != "" {
		req.Header.Set(HeaderIdempotencyKey, key)
	}
	r.ServeHTTP(w, req)
	return w
}

func decodeIdem(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &m); err != nil {
		t.Fatalf("bad json %q: %v", w.Body.String(), err)
	}
	return m
}

func TestIdempotency_StashesValidKey(t *testing.T) {
	r := newIdemRouter(IdempotencyOptions{})
	w := doIdem(r, http.MethodPost, "  abc-123:x  ")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	m := decodeIdem(t, w)
	if m["key"] != "abc-123:x" || m["present"] != true || m["replay"] != false {
		t.Fatalf("unexpected body: %v", m)
	}
	if w.Header().Get(HeaderIdempotentReplay) != "" {
		t.Fatalf("replay header set on fresh request")
	}
}

func TestIdempotency_NoHeaderIsNoop(t *testing.T) {
	r := newIdemRouter(IdempotencyOptions{})
	m := decodeIdem(t, doIdem(r, http.MethodPost, ""))
	if m["present"] != false || m["key"] != "" {
		t.Fatalf("unexpected body: %v", m)
	}
}

func TestIdempotency_RejectsInvalidKeys(t *testing.T) {
	r := newIdemRouter(IdempotencyOptions{MaxLen: 8})
	for _, key := range []string{"has space", "semi;colon", "way-too-long-key"} {
		w := doIdem(r, http.MethodPost, key)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("key %q: status=%d; want 400", key, w.Code)
		}
		m := decodeIdem(t, w)
		if m["code"] != "bad_request" || m["request_id"] == "" {
			t.Fatalf("key %q: unexpected envelope %v", key, m)
		}
	}
}

func TestIdempotency_IgnoresUncoveredMethods(t *testing.T) {
	r := newIdemRouter(IdempotencyOptions{})
	w := doIdem(r, http.MethodGet, "bad key with spaces")
	if w.Code != http.StatusOK {
		t.Fatalf("GET should pass through, got %d", w.Code)
	}
	if m := decodeIdem(t, w); m["present"] != false {
		t.Fatalf("key should not be stashed on GET: %v", m)
	}
}

func TestIdempotency_CustomPatternAndMethods(t *testing.T) {
	r := newIdemRouter(IdempotencyOptions{
		Pattern: regexp.MustCompile(`^[0-9]+$`),
		Methods: []string{"get"},
	})
	if w := doIdem(r, http.MethodGet, "abc"); w.Code != http.StatusBadRequest {
		t.Fatalf("custom pattern not enforced on GET: %d", w.Code)
	}
	if m := decodeIdem(t, doIdem(r, http.MethodGet, "123")); m["key"] != "123" {
		t.Fatalf("numeric key not stashed: %v", m)
	}
	// POST no longer covered.
	if m := decodeIdem(t, doIdem(r, http.MethodPost, "123")); m["present"] != false {
		t.Fatalf("POST should be uncovered: %v", m)
	}
}

func TestMarkReplayed_SetsHeaderAndFlag(t *testing.T) {
	r := newIdemRouter(IdempotencyOptions{})
	w := doIdem(r, http.MethodPost, "replay-me")
	if w.Header().Get(HeaderIdempotentReplay) != "true" {
		t.Fatalf("missing %s header", HeaderIdempotentReplay)
	}
	if m := decodeIdem(t, w); m["replay"] != true {
		t.Fatalf("IsReplay false after MarkReplayed: %v", m)
	}
}
