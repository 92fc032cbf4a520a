// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the
// ChatSession model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions. They follow the "thin repository"
// approach: no business logic, only persistence and query composition.
//
// Functions:
//
//   - EnsureSession(ctx, db, userID, sessionID, title) -> error
//     Inserts the (userID, sessionID) row if absent; never touches an
//     existing row.
//
//   - SetSessionTitle(ctx, db, userID, sessionID, title) -> error
//     Overwrites the title (nil stores NULL).
//
//   - ListSessions(ctx, db, userID) -> []domain.ChatSession, error
//     All session rows of a user in row order.
//
//   - SessionActivity(ctx, db, userID) -> map[string]Activity, error
//     Message count and latest message per session id.
//
//   - DeleteSessionCascade(ctx, db, userID, sessionID) -> int64, error
//     Removes the messages and then the session row.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/aoubot-backend/internal/domain"
)

// Activity summarizes the messages stored under one session id.
type Activity struct {
	SessionID string
	Count     int64
	LastID    uint
	LastAt    time.Time
}

// EnsureSession inserts a chat_sessions row for (userID, sessionID) unless
// one already exists. title is only applied when the row is created.
func EnsureSession(ctx context.Context, db *gorm.DB, userID uint, sessionID string, title *string) error {
	s := &domain.ChatSession{
		UserID:    userID,
		SessionID: sessionID,
		Title:     title,
	}
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "session_id"}},
			DoNothing: true,
		}).
		Create(s).Error
}

// SetSessionTitle overwrites the title of (userID, sessionID). A nil title
// stores NULL. Missing rows are not an error.
func SetSessionTitle(ctx context.Context, db *gorm.DB, userID uint, sessionID string, title *string) error {
	var v any
	if title != nil {
		v = *title
	}
	return db.WithContext(ctx).
		Model(&domain.ChatSession{}).
		Where("user_id = ? AND session_id = ?", userID, sessionID).
		Updates(map[string]any{"title": v}).Error
}

// GetSession fetches one session row, or ErrNotFound.
func GetSession(ctx context.Context, db *gorm.DB, userID uint, sessionID string) (*domain.ChatSession, error) {
	var s domain.ChatSession
	err := db.WithContext(ctx).
		Where("user_id = ? AND session_id = ?", userID, sessionID).
		First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// ListSessions returns every session row of userID ordered by row id.
func ListSessions(ctx context.Context, db *gorm.DB, userID uint) ([]domain.ChatSession, error) {
	var out []domain.ChatSession
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id ASC").
		Find(&out).Error
	return out, err
}

// SessionActivity aggregates the messages of userID per session id: the
// message count, the id of the newest message and its created_at.
func SessionActivity(ctx context.Context, db *gorm.DB, userID uint) (map[string]Activity, error) {
	var rows []struct {
		SessionID string
		Count     int64
		LastID    uint
	}
	err := db.WithContext(ctx).
		Model(&domain.ChatMessage{}).
		Select("session_id, COUNT(*) AS count, MAX(id) AS last_id").
		Where("user_id = ?", userID).
		Group("session_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make(map[string]Activity, len(rows))
	if len(rows) == 0 {
		return out, nil
	}

	ids := make([]uint, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.LastID)
	}
	// Timestamps come from the rows themselves (avoid MAX() -> TEXT in SQLite).
	var last []domain.ChatMessage
	if err := db.WithContext(ctx).
		Select("id", "created_at").
		Where("id IN ?", ids).
		Find(&last).Error; err != nil {
		return nil, err
	}
	at := make(map[uint]time.Time, len(last))
	for _, m := range last {
		at[m.ID] = m.CreatedAt
	}

	for _, r := range rows {
		out[r.SessionID] = Activity{
			SessionID: r.SessionID,
			Count:     r.Count,
			LastID:    r.LastID,
			LastAt:    at[r.LastID],
		}
	}
	return out, nil
}

// DeleteSessionCascade deletes all messages of (userID, sessionID), their
// idempotency records and then the session row. It returns the number of
// deleted messages; zero matches at any step are not an error. Callers wrap
// it in a transaction.
func DeleteSessionCascade(ctx context.Context, db *gorm.DB, userID uint, sessionID string) (int64, error) {
	res := db.WithContext(ctx).
		Where("user_id = ? AND session_id = ?", userID, sessionID).
		Delete(&domain.ChatMessage{})
	if res.Error != nil {
		return 0, res.Error
	}
	if err := db.WithContext(ctx).
		Where("user_id = ? AND session_id = ?", userID, sessionID).
		Delete(&domain.Idempotency{}).Error; err != nil {
		return 0, err
	}
	if err := db.WithContext(ctx).
		Where("user_id = ? AND session_id = ?", userID, sessionID).
		Delete(&domain.ChatSession{}).Error; err != nil {
		return 0, err
	}
	return res.RowsAffected, nil
}
