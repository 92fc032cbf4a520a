// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the
// ChatMessage model.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/aoubot-backend/internal/domain"
)

// CreateMessage appends a message row and returns it with its assigned id.
func CreateMessage(ctx context.Context, db *gorm.DB, userID uint, sessionID, role, text string) (*domain.ChatMessage, error) {
	m := &domain.ChatMessage{
		UserID:    userID,
		SessionID: sessionID,
		Role:      role,
		Message:   text,
		CreatedAt: time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(m).Error; err != nil {
		return nil, err
	}
	return m, nil
}

// ListMessages returns the messages of (userID, sessionID) in id order.
func ListMessages(ctx context.Context, db *gorm.DB, userID uint, sessionID string) ([]domain.ChatMessage, error) {
	var out []domain.ChatMessage
	err := db.WithContext(ctx).
		Where("user_id = ? AND session_id = ?", userID, sessionID).
		Order("id ASC").
		Find(&out).Error
	return out, err
}

// GetMessage fetches a message by id, or ErrNotFound.
func GetMessage(ctx context.Context, db *gorm.DB, id uint) (*domain.ChatMessage, error) {
	var m domain.ChatMessage
	if err := db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		return nil, err
	}
	return &m, nil
}
