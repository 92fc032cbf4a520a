// Package domain defines the persistence models for users, chat sessions and
// chat messages. These types are mapped with GORM and keep the table and
// column names of the existing users.db deployment so it can be opened in
// place.
package domain

import "time"

// Role values accepted for a ChatMessage.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// User is a registered account. Email is the identity used by every
// session and history lookup.
//
// Fields:
//   - ID: autoincrement primary key.
//   - Username / Email: both unique.
//   - PasswordHash: bcrypt hash; rows created before the bcrypt migration
//     hold a hex SHA-256 digest and are upgraded on the next login.
type User struct {
	ID           uint   `json:"id"       gorm:"primaryKey;autoIncrement"`
	Username     string `json:"username" gorm:"type:text;not null;uniqueIndex:ux_users_username"`
	Email        string `json:"email"    gorm:"type:text;not null;uniqueIndex:ux_users_email"`
	PasswordHash string `json:"-"        gorm:"column:password;type:text;not null"`
}

// TableName returns the database table name for User.
func (User) TableName() string { return "users" }

// ChatSession is the per-user container of a conversation. A row is created
// the first time a message is saved for (UserID, SessionID) or when a title
// is set; there is at most one row per pair. UpdatedAt moves on title
// changes and feeds the listing ETag.
type ChatSession struct {
	ID        uint      `json:"id"         gorm:"primaryKey;autoIncrement"`
	UserID    uint      `json:"user_id"    gorm:"not null;uniqueIndex:ux_chat_sessions_user_session,priority:1"`
	SessionID string    `json:"session_id" gorm:"type:text;not null;uniqueIndex:ux_chat_sessions_user_session,priority:2"`
	Title     *string   `json:"title"      gorm:"type:text;default:null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name for ChatSession.
func (ChatSession) TableName() string { return "chat_sessions" }

// ChatMessage is one turn of a conversation. Rows are append-only; the
// autoincrement ID gives chronological order inside a session.
type ChatMessage struct {
	ID        uint      `json:"id"         gorm:"primaryKey;autoIncrement;index:idx_chats_user_session,priority:3"`
	UserID    uint      `json:"user_id"    gorm:"not null;index:idx_chats_user_session,priority:1"`
	SessionID string    `json:"session_id" gorm:"type:text;not null;index:idx_chats_user_session,priority:2"`
	Role      string    `json:"role"       gorm:"type:text;not null;check:role IN ('user','assistant')"`
	Message   string    `json:"message"    gorm:"type:text;not null"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName returns the database table name for ChatMessage.
func (ChatMessage) TableName() string { return "chats" }

// NormalizeRole maps any role other than "user" to "assistant".
func NormalizeRole(role string) string {
	if role == RoleUser {
		return RoleUser
	}
	return RoleAssistant
}
