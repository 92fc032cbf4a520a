// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides small aggregate queries used for
// conditional responses (ETag generation) on the listing endpoints.
package repo

import (
	"context"
	"database/sql"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/aoubot-backend/internal/domain"
)

// SessionsStats summarizes everything that can change a user's session
// listing.
//
// Return values:
//   - sessions:   number of chat_sessions rows
//   - messages:   number of chats rows
//   - lastID:     greatest message id, 0 if none
//   - lastUpdate: greatest session updated_at, nil if none recorded
//   - err:        database error, if any
func SessionsStats(ctx context.Context, db *gorm.DB, userID uint) (sessions, messages int64, lastID uint, lastUpdate *time.Time, err error) {
	q := db.WithContext(ctx).Model(&domain.ChatSession{}).Where("user_id = ?", userID)
	if err = q.Count(&sessions).Error; err != nil {
		return 0, 0, 0, nil, err
	}
	if messages, lastID, err = messageStats(ctx, db, "user_id = ?", userID); err != nil {
		return 0, 0, 0, nil, err
	}
	if sessions == 0 {
		return sessions, messages, lastID, nil, nil
	}

	// Get latest updated_at (avoid MAX() -> TEXT in SQLite). Rows written
	// before the column existed hold NULL.
	var row struct {
		UpdatedAt sql.NullTime
	}
	if err = db.WithContext(ctx).
		Model(&domain.ChatSession{}).
		Where("user_id = ? AND updated_at IS NOT NULL", userID).
		Select("updated_at").
		Order("updated_at DESC").
		Limit(1).
		Scan(&row).Error; err != nil {
		return 0, 0, 0, nil, err
	}
	if row.UpdatedAt.Valid {
		ts := row.UpdatedAt.Time
		lastUpdate = &ts
	}
	return sessions, messages, lastID, lastUpdate, nil
}

// HistoryStats returns the message count and greatest message id of
// (userID, sessionID).
func HistoryStats(ctx context.Context, db *gorm.DB, userID uint, sessionID string) (count int64, lastID uint, err error) {
	return messageStats(ctx, db, "user_id = ? AND session_id = ?", userID, sessionID)
}

func messageStats(ctx context.Context, db *gorm.DB, where string, args ...any) (count int64, lastID uint, err error) {
	var row struct {
		Count  int64
		LastID sql.NullInt64
	}
	err = db.WithContext(ctx).
		Model(&domain.ChatMessage{}).
		Select("COUNT(*) AS count, MAX(id) AS last_id").
		Where(where, args...).
		Scan(&row).Error
	if err != nil {
		return 0, 0, err
	}
	if row.LastID.Valid {
		lastID = uint(row.LastID.Int64)
	}
	return row.Count, lastID, nil
}
