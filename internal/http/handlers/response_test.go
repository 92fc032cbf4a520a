package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

func Test_fail_Envelope(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name    string
		status  int
		code    string
		cause   error
		wantLog string
	}{
		{"client error is not logged", http.StatusNotFound, ErrCodeNotFound, nil, ""},
		{"server error logged", http.StatusInternalServerError, ErrCodeInternal, nil, `"level":"error"`},
		{"server error logs cause", http.StatusInternalServerError, ErrCodeInternal, errors.New("database is locked"), `"cause":"database is locked"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := zerolog.New(&buf)

			r := gin.New()
			r.Use(func(c *gin.Context) {
				c.Writer.Header().Set("X-Request-ID", "rid-1")
				c.Set("logger", &logger)
				c.Next()
			})
			r.GET("/x", func(c *gin.Context) {
				if tt.cause != nil {
					_ = c.Error(tt.cause)
				}
				Fail(c, tt.status, tt.code, "something")
			})

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))

			if w.Code != tt.status {
				t.Fatalf("status = %d; want %d", w.Code, tt.status)
			}
			var er ErrorResponse
			if err := json.Unmarshal(w.Body.Bytes(), &er); err != nil {
				t.Fatalf("json: %v", err)
			}
			if er != (ErrorResponse{RequestID: "rid-1", Code: tt.code, Message: "something"}) {
				t.Fatalf("unexpected body: %+v", er)
			}
			if tt.wantLog == "" && buf.Len() != 0 {
				t.Fatalf("unexpected log: %s", buf.String())
			}
			if tt.wantLog != "" && !strings.Contains(buf.String(), tt.wantLog) {
				t.Fatalf("log %q missing from: %s", tt.wantLog, buf.String())
			}
		})
	}
}

func Test_ok(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/ok", func(c *gin.Context) {
		ok(c, http.StatusOK, SuccessResponse{Success: true, Message: "Login successful."})
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ok", nil))
	if w.Code != http.StatusOK || w.Body.String() != `{"success":true,"message":"Login successful."}` {
		t.Fatalf("got %d %s", w.Code, w.Body.String())
	}
}

func Test_internalError_HidesCause(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	var recorded string
	r.Use(func(c *gin.Context) {
		c.Next()
		recorded = c.Errors.String()
	})
	r.GET("/db", func(c *gin.Context) {
		internalError(c, errors.New("disk I/O error"))
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/db", nil))

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status=%d", w.Code)
	}
	if strings.Contains(w.Body.String(), "disk") {
		t.Fatalf("cause leaked to client: %s", w.Body.String())
	}
	var er ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &er); err != nil {
		t.Fatalf("json: %v", err)
	}
	if er.Code != ErrCodeInternal || er.Message != "internal server error" {
		t.Fatalf("unexpected body: %+v", er)
	}
	if !strings.Contains(recorded, "disk I/O error") {
		t.Fatalf("cause not recorded on context: %q", recorded)
	}
}

func Test_notModified(t *testing.T) {
	gin.SetMode(gin.TestMode)
	const etag = `W/"history:1:2:3"`
	r := gin.New()
	r.GET("/x", func(c *gin.Context) {
		if notModified(c, etag) {
			return
		}
		ok(c, http.StatusOK, []string{})
	})

	cases := []struct {
		inm  string
		want int
	}{
		{"", http.StatusOK},
		{`W/"other"`, http.StatusOK},
		{etag, http.StatusNotModified},
		{`W/"other", ` + etag, http.StatusNotModified},
		{"*", http.StatusNotModified},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		if tc.inm != "" {
			req.Header.Set("If-None-Match", tc.inm)
		}
		r.ServeHTTP(w, req)
		if w.Code != tc.want {
			t.Fatalf("If-None-Match %q: status=%d want %d", tc.inm, w.Code, tc.want)
		}
		if w.Header().Get("ETag") != etag {
			t.Fatalf("ETag header = %q", w.Header().Get("ETag"))
		}
	}
}
