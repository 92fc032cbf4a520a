// Package handlers provides HTTP handler implementations for the public API.
//
// Handlers are transport-thin: they bind input, resolve the caller's email to
// a user id, call application services and translate results into JSON
// (including conditional 304 responses).
package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/aoubot-backend/internal/services"
)

//
// Service contracts (context-aware)
//

// AuthService registers users, checks credentials and resolves emails.
type AuthService interface {
	Register(ctx context.Context, username, email, password string) (services.Result, error)
	Login(ctx context.Context, email, password string) (services.Result, error)
	// UserID returns 0 for an unknown or empty email.
	UserID(ctx context.Context, email string) (uint, error)
}

// SessionService reads and maintains a user's chat sessions.
type SessionService interface {
	History(ctx context.Context, userID uint, sessionID string) ([]services.HistoryItem, error)
	Sessions(ctx context.Context, userID uint) ([]services.SessionSummary, error)
	UpsertTitle(ctx context.Context, userID uint, sessionID, title string) (bool, error)
	DeleteSession(ctx context.Context, userID uint, sessionID string) (int64, error)
	SessionsETag(ctx context.Context, userID uint) (string, error)
	HistoryETag(ctx context.Context, userID uint, sessionID string) (string, error)
}

// ChatService answers a question.
type ChatService interface {
	Ask(ctx context.Context, in services.AskInput) (services.Reply, error)
}

//
// Handler wiring
//

// Handlers groups HTTP endpoints for accounts, sessions and chat.
type Handlers struct {
	authSvc    AuthService
	sessionSvc SessionService
	chatSvc    ChatService
}

// New constructs Handlers bound to the given services.
func New(authSvc AuthService, sessionSvc SessionService, chatSvc ChatService) *Handlers {
	return &Handlers{authSvc: authSvc, sessionSvc: sessionSvc, chatSvc: chatSvc}
}

// userID resolves email through the auth service; an unknown email yields 0.
func (h *Handlers) userID(c *gin.Context, email string) (uint, error) {
	return h.authSvc.UserID(c.Request.Context(), email)
}

// SuccessResponse is returned by account and session mutations.
type SuccessResponse struct {
	Success bool   `json:"success" example:"false"`
	Message string `json:"message,omitempty" example:"Missing email or session ID."`
}
