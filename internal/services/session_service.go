// Package services – SessionService
//
// This file implements SessionService, which owns chat sessions and their
// messages: appending messages (creating the session row on first use),
// reading a session's history, listing a user's sessions with activity
// stats, renaming and deleting sessions.
//
// Every method takes a resolved user id. A zero user id or an empty session
// id is not an error: reads return empty results and writes are skipped.
// Storage errors are returned unchanged.
package services

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/text/unicode/norm"
	"gorm.io/gorm"

	"github.com/tbourn/aoubot-backend/internal/domain"
	"github.com/tbourn/aoubot-backend/internal/repo"
)

// HistoryItem is one message of a session as exchanged with clients.
type HistoryItem struct {
	Role string `json:"role" example:"user"`
	Text string `json:"text" example:"When does registration open?"`
}

// SessionSummary describes one session in a user's listing.
type SessionSummary struct {
	SessionID     string
	Title         *string
	MessagesCount int64
	LastActivity  time.Time
}

// SessionService coordinates session and message persistence.
type SessionService struct {
	DB *gorm.DB

	// TitleMaxLen caps stored titles by rune length.
	TitleMaxLen int
}

// NewSessionService constructs a SessionService with a 255 rune title cap.
func NewSessionService(db *gorm.DB) *SessionService {
	return &SessionService{DB: db, TitleMaxLen: 255}
}

// SaveMessage appends a message to (userID, sessionID) and creates the
// session row if it does not exist yet. Both writes share one transaction.
// It is a no-op returning (nil, nil) when userID or sessionID is missing or
// text is blank.
func (s *SessionService) SaveMessage(ctx context.Context, userID uint, sessionID, role, text string) (*domain.ChatMessage, error) {
	return s.saveMessage(ctx, s.DB, userID, sessionID, role, text)
}

// saveMessage is SaveMessage on db, which may be an open transaction.
func (s *SessionService) saveMessage(ctx context.Context, db *gorm.DB, userID uint, sessionID, role, text string) (*domain.ChatMessage, error) {
	if userID == 0 || sessionID == "" || strings.TrimSpace(text) == "" {
		return nil, nil
	}

	tr := otel.Tracer("services/SessionService")
	ctx, span := tr.Start(ctx, "SaveMessage",
		trace.WithAttributes(
			attribute.Int64("user.id", int64(userID)),
			attribute.String("session.id", sessionID),
			attribute.String("message.role", role),
		),
	)
	defer span.End()

	var msg *domain.ChatMessage
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		m, err := repo.CreateMessage(ctx, tx, userID, sessionID, domain.NormalizeRole(role), text)
		if err != nil {
			return err
		}
		if err := repo.EnsureSession(ctx, tx, userID, sessionID, nil); err != nil {
			return err
		}
		msg = m
		return nil
	})
	if err != nil {
		return nil, err
	}
	return msg, nil
}

// History returns every message of (userID, sessionID) oldest first.
func (s *SessionService) History(ctx context.Context, userID uint, sessionID string) ([]HistoryItem, error) {
	if userID == 0 || sessionID == "" {
		return []HistoryItem{}, nil
	}

	tr := otel.Tracer("services/SessionService")
	ctx, span := tr.Start(ctx, "History",
		trace.WithAttributes(
			attribute.Int64("user.id", int64(userID)),
			attribute.String("session.id", sessionID),
		),
	)
	defer span.End()

	msgs, err := repo.ListMessages(ctx, s.DB, userID, sessionID)
	if err != nil {
		return nil, err
	}
	out := make([]HistoryItem, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, HistoryItem{Role: m.Role, Text: m.Message})
	}
	span.SetAttributes(attribute.Int("history.len", len(out)))
	return out, nil
}

// Sessions lists every session of userID, including sessions without
// messages, most recently active first. Sessions with equal activity keep
// their creation order.
func (s *SessionService) Sessions(ctx context.Context, userID uint) ([]SessionSummary, error) {
	if userID == 0 {
		return []SessionSummary{}, nil
	}

	tr := otel.Tracer("services/SessionService")
	ctx, span := tr.Start(ctx, "Sessions",
		trace.WithAttributes(attribute.Int64("user.id", int64(userID))),
	)
	defer span.End()

	rows, err := repo.ListSessions(ctx, s.DB, userID)
	if err != nil {
		return nil, err
	}
	activity, err := repo.SessionActivity(ctx, s.DB, userID)
	if err != nil {
		return nil, err
	}

	out := make([]SessionSummary, 0, len(rows))
	for _, r := range rows {
		sum := SessionSummary{
			SessionID:    r.SessionID,
			Title:        r.Title,
			LastActivity: r.CreatedAt,
		}
		if a, ok := activity[r.SessionID]; ok && a.Count > 0 {
			sum.MessagesCount = a.Count
			sum.LastActivity = a.LastAt
		}
		out = append(out, sum)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].LastActivity.After(out[j].LastActivity)
	})
	span.SetAttributes(attribute.Int("sessions.len", len(out)))
	return out, nil
}

// UpsertTitle creates (userID, sessionID) if needed and sets its title. An
// empty title stores NULL. It returns false only when userID or sessionID is
// missing.
func (s *SessionService) UpsertTitle(ctx context.Context, userID uint, sessionID, title string) (bool, error) {
	if userID == 0 || sessionID == "" {
		return false, nil
	}

	tr := otel.Tracer("services/SessionService")
	ctx, span := tr.Start(ctx, "UpsertTitle",
		trace.WithAttributes(
			attribute.Int64("user.id", int64(userID)),
			attribute.String("session.id", sessionID),
		),
	)
	defer span.End()

	var t *string
	if v := s.clip(normalizeTitle(title)); v != "" {
		t = &v
	}
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := repo.EnsureSession(ctx, tx, userID, sessionID, t); err != nil {
			return err
		}
		return repo.SetSessionTitle(ctx, tx, userID, sessionID, t)
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

// DeleteSession removes the messages of (userID, sessionID) and then the
// session row. It returns how many messages were deleted; an absent session
// yields 0.
func (s *SessionService) DeleteSession(ctx context.Context, userID uint, sessionID string) (int64, error) {
	if userID == 0 || sessionID == "" {
		return 0, nil
	}

	tr := otel.Tracer("services/SessionService")
	ctx, span := tr.Start(ctx, "DeleteSession",
		trace.WithAttributes(
			attribute.Int64("user.id", int64(userID)),
			attribute.String("session.id", sessionID),
		),
	)
	defer span.End()

	var deleted int64
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		n, err := repo.DeleteSessionCascade(ctx, tx, userID, sessionID)
		deleted = n
		return err
	})
	if err != nil {
		return 0, err
	}
	span.SetAttributes(attribute.Int64("messages.deleted", deleted))
	return deleted, nil
}

// SessionsETag returns a weak ETag covering everything that can change the
// session listing of userID.
func (s *SessionService) SessionsETag(ctx context.Context, userID uint) (string, error) {
	sessions, messages, lastID, lastUpdate, err := repo.SessionsStats(ctx, s.DB, userID)
	if err != nil {
		return "", err
	}
	var ts int64
	if lastUpdate != nil {
		ts = lastUpdate.UnixNano()
	}
	return fmt.Sprintf(`W/"sessions:%d:%d:%d:%d:%d"`, userID, sessions, messages, lastID, ts), nil
}

// HistoryETag returns a weak ETag for the history of (userID, sessionID).
func (s *SessionService) HistoryETag(ctx context.Context, userID uint, sessionID string) (string, error) {
	count, lastID, err := repo.HistoryStats(ctx, s.DB, userID, sessionID)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(`W/"history:%d:%d:%d"`, userID, count, lastID), nil
}

// clip truncates a title to the configured maximum rune length.
func (s *SessionService) clip(title string) string {
	if s.TitleMaxLen > 0 && utf8.RuneCountInString(title) > s.TitleMaxLen {
		return strings.TrimSpace(string([]rune(title)[:s.TitleMaxLen]))
	}
	return title
}

// normalizeTitle trims, collapses whitespace runs and applies NFC.
func normalizeTitle(s string) string {
	s = whitespaceRE.ReplaceAllString(strings.TrimSpace(s), " ")
	return norm.NFC.String(s)
}

// whitespaceRE collapses consecutive whitespace to a single space.
var whitespaceRE = regexp.MustCompile(`\s+`)
