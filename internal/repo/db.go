// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file contains database bootstrapping helpers for
// SQLite (pure Go driver), schema migrations and shared error mapping.
package repo

import (
	"errors"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/plugin/opentelemetry/tracing"

	"github.com/tbourn/aoubot-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound so callers can use either.
var ErrNotFound = gorm.ErrRecordNotFound

// ErrDuplicate indicates a unique constraint violation.
var ErrDuplicate = errors.New("duplicate")

// connPragmas are applied by the driver to every new pooled connection.
var connPragmas = []string{
	"journal_mode(WAL)",
	"synchronous(NORMAL)",
	"foreign_keys(ON)",
	"busy_timeout(5000)",
}

// sqliteDSN appends the connection PRAGMAs to path.
func sqliteDSN(path string) string {
	q := url.Values{}
	for _, p := range connPragmas {
		q.Add("_pragma", p)
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + q.Encode()
}

// OpenSQLite opens (or creates) the database file at path. An existing file
// from an earlier deployment is opened in place; AutoMigrate only adds what
// is missing.
func OpenSQLite(path string) (*gorm.DB, error) {
	// A missing parent directory otherwise surfaces as "out of memory (14)".
	if dir := filepath.Dir(path); dir != "." {
		if _, err := os.Stat(dir); err != nil {
			return nil, err
		}
	}

	db, err := gorm.Open(sqlite.Open(sqliteDSN(path)), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	// Surface a bad file (not a database, permissions) at startup.
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	return db, nil
}

// EnableTracing registers the OpenTelemetry GORM plugin so every statement
// becomes a child span of the request span carried in ctx.
func EnableTracing(db *gorm.DB) error {
	return db.Use(tracing.NewPlugin(tracing.WithoutMetrics()))
}

// AutoMigrate creates or updates the tables used by the service.
//
// A users.db written by the earlier deployment lacks the NOT NULL and CHECK
// constraints of the models, so SQLite rebuilds those tables (copy, drop,
// rename). Dropping users while chats references it needs foreign keys off,
// which is only possible outside a transaction and per connection: the
// whole migration runs on one pinned connection with enforcement restored
// afterwards.
func AutoMigrate(db *gorm.DB) error {
	return db.Connection(func(conn *gorm.DB) error {
		if err := conn.Exec("PRAGMA foreign_keys = OFF").Error; err != nil {
			return err
		}
		migrateErr := conn.AutoMigrate(
			&domain.User{},
			&domain.ChatSession{},
			&domain.ChatMessage{},
			&domain.Idempotency{},
		)
		if err := conn.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
			return errors.Join(migrateErr, err)
		}
		return migrateErr
	})
}

// isDuplicate reports whether err is a unique constraint violation.
// glebarez/sqlite often returns plain-text errors for UNIQUE violations.
func isDuplicate(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	low := strings.ToLower(err.Error())
	return strings.Contains(low, "unique constraint failed") ||
		strings.Contains(low, "constraint failed: unique")
}
