package domain

import "time"

// Idempotency records the assistant message produced for a /chat request
// carrying an Idempotency-Key, keyed by (user_id, session_id, key). A retry
// with the same key replays the stored answer instead of calling the
// completion provider again.
type Idempotency struct {
	ID        string    `gorm:"type:TEXT NOT NULL;primaryKey"`
	UserID    uint      `gorm:"type:INTEGER NOT NULL;uniqueIndex:ux_idem_user_session_key,priority:1"`
	SessionID string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_idem_user_session_key,priority:2"`
	Key       string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_idem_user_session_key,priority:3"`
	MessageID uint      `gorm:"type:INTEGER NOT NULL"`
	CreatedAt time.Time `gorm:"type:DATETIME NOT NULL;autoCreateTime"`
	ExpiresAt time.Time `gorm:"type:DATETIME NOT NULL;index"`
}

// TableName implements the GORM tabler interface.
func (Idempotency) TableName() string { return "idempotency" }
