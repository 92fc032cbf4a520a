package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/aoubot-backend/internal/domain"
	"github.com/tbourn/aoubot-backend/internal/http/middleware"
	"github.com/tbourn/aoubot-backend/internal/knowledge"
	"github.com/tbourn/aoubot-backend/internal/llm"
	"github.com/tbourn/aoubot-backend/internal/services"
)

// ---------- test DB + fakes ----------

func newHandlerDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:handlers_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	if err := db.AutoMigrate(&domain.User{}, &domain.ChatSession{}, &domain.ChatMessage{}, &domain.Idempotency{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

type fakeProvider struct {
	mu     sync.Mutex
	answer string
	err    error
	calls  int
	last   []llm.Message
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Complete(_ context.Context, msgs []llm.Message, _ float64) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.last = append([]llm.Message(nil), msgs...)
	return f.answer, f.err
}

type staticKnowledge string

func (k staticKnowledge) ForQuestion(string) knowledge.Document {
	return knowledge.Document{Text: string(k), Available: true}
}

// testEnv wires real services over an in-memory DB.
type testEnv struct {
	db       *gorm.DB
	provider *fakeProvider
	router   *gin.Engine
}

func newEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db := newHandlerDB(t)
	p := &fakeProvider{answer: "Fees are due in May."}

	auth := services.NewAuthService(db)
	auth.Cost = bcrypt.MinCost
	h := New(auth, services.NewSessionService(db), services.NewChatService(db, p, staticKnowledge("Fees are due in May.")))

	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Idempotency(middleware.IdempotencyOptions{}))
	mount(r, h)
	return &testEnv{db: db, provider: p, router: r}
}

func mount(r *gin.Engine, h *Handlers) {
	r.GET("/health", Health)
	r.GET("/", Index)
	r.POST("/chat", h.Chat)
	r.POST("/register", h.Register)
	r.POST("/login", h.Login)
	r.POST("/session/title", h.SetSessionTitle)
	r.DELETE("/session", h.DeleteSession)
	r.GET("/history", h.History)
	r.GET("/sessions", h.Sessions)
}

func (e *testEnv) do(t *testing.T, method, path string, body any, hdr ...string) *httptest.ResponseRecorder {
	t.Helper()
	return doReq(t, e.router, method, path, body, hdr...)
}

// doReq sends body as JSON (a string is sent raw). hdr holds key/value pairs.
func doReq(t *testing.T, r http.Handler, method, path string, body any, hdr ...string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		if err := json.NewEncoder(&buf).Encode(b); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(hdr); i += 2 {
		req.Header.Set(hdr[i], hdr[i+1])
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return v
}

func (e *testEnv) register(t *testing.T, username, email, password string) {
	t.Helper()
	w := e.do(t, http.MethodPost, "/register", RegisterRequest{Username: username, Email: email, Password: password})
	if res := decode[SuccessResponse](t, w); !res.Success {
		t.Fatalf("register %s: %+v", email, res)
	}
}

// ---------- failing services for 500 paths ----------

var errDB = errors.New("database is locked")

type brokenAuth struct{}

func (brokenAuth) Register(context.Context, string, string, string) (services.Result, error) {
	return services.Result{}, errDB
}
func (brokenAuth) Login(context.Context, string, string) (services.Result, error) {
	return services.Result{}, errDB
}
func (brokenAuth) UserID(context.Context, string) (uint, error) { return 0, errDB }

type okAuth struct{}

func (okAuth) Register(context.Context, string, string, string) (services.Result, error) {
	return services.Result{Success: true}, nil
}
func (okAuth) Login(context.Context, string, string) (services.Result, error) {
	return services.Result{Success: true}, nil
}
func (okAuth) UserID(context.Context, string) (uint, error) { return 7, nil }

type brokenSessions struct{}

func (brokenSessions) History(context.Context, uint, string) ([]services.HistoryItem, error) {
	return nil, errDB
}
func (brokenSessions) Sessions(context.Context, uint) ([]services.SessionSummary, error) {
	return nil, errDB
}
func (brokenSessions) UpsertTitle(context.Context, uint, string, string) (bool, error) {
	return false, errDB
}
func (brokenSessions) DeleteSession(context.Context, uint, string) (int64, error) { return 0, errDB }
func (brokenSessions) SessionsETag(context.Context, uint) (string, error)        { return `W/"s"`, nil }
func (brokenSessions) HistoryETag(context.Context, uint, string) (string, error) { return `W/"h"`, nil }

type brokenChat struct{}

func (brokenChat) Ask(context.Context, services.AskInput) (services.Reply, error) {
	return services.Reply{}, errDB
}

func TestHandlers_StorageFailuresAre500(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		name         string
		h            *Handlers
		method, path string
		body         any
	}{
		{"register", New(brokenAuth{}, brokenSessions{}, brokenChat{}), http.MethodPost, "/register", RegisterRequest{Username: "a", Email: "a@x", Password: "p"}},
		{"login", New(brokenAuth{}, brokenSessions{}, brokenChat{}), http.MethodPost, "/login", LoginRequest{Email: "a@x", Password: "p"}},
		{"history lookup", New(brokenAuth{}, brokenSessions{}, brokenChat{}), http.MethodGet, "/history?email=a@x&session_id=s", nil},
		{"sessions lookup", New(brokenAuth{}, brokenSessions{}, brokenChat{}), http.MethodGet, "/sessions?email=a@x", nil},
		{"history read", New(okAuth{}, brokenSessions{}, brokenChat{}), http.MethodGet, "/history?email=a@x&session_id=s", nil},
		{"sessions read", New(okAuth{}, brokenSessions{}, brokenChat{}), http.MethodGet, "/sessions?email=a@x", nil},
		{"title", New(okAuth{}, brokenSessions{}, brokenChat{}), http.MethodPost, "/session/title", SessionTitleRequest{Email: "a@x", SessionID: "s", Title: "t"}},
		{"delete", New(okAuth{}, brokenSessions{}, brokenChat{}), http.MethodDelete, "/session", DeleteSessionRequest{Email: "a@x", SessionID: "s"}},
		{"chat", New(okAuth{}, brokenSessions{}, brokenChat{}), http.MethodPost, "/chat", ChatRequest{Message: "hi"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := gin.New()
			mount(r, tc.h)
			w := doReq(t, r, tc.method, tc.path, tc.body)
			if w.Code != http.StatusInternalServerError {
				t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
			}
			er := decode[ErrorResponse](t, w)
			if er.Code != ErrCodeInternal || er.Message != "internal server error" {
				t.Fatalf("unexpected envelope: %+v", er)
			}
		})
	}
}

func TestHealthAndIndex(t *testing.T) {
	e := newEnv(t)

	w := e.do(t, http.MethodGet, "/health", nil)
	if w.Code != http.StatusOK || w.Body.String() != "ok" {
		t.Fatalf("health: %d %q", w.Code, w.Body.String())
	}
	w = e.do(t, http.MethodGet, "/", nil)
	if w.Code != http.StatusOK || w.Body.String() != IndexText {
		t.Fatalf("index: %d %q", w.Code, w.Body.String())
	}
}
