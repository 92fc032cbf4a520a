package repo

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite (no CGO)
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/aoubot-backend/internal/domain"
)

// newTestDB opens a unique in-memory database per test to avoid schema
// leaking across tests. Pass models to migrate; none leaves the DB empty.
func newTestDB(t *testing.T, migrate ...any) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:repo_%s?mode=memory&cache=shared", uuid.NewString())
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
	if len(migrate) > 0 {
		if err := db.AutoMigrate(migrate...); err != nil {
			t.Fatalf("automigrate: %v", err)
		}
	}
	return db
}

func allModels() []any {
	return []any{&domain.User{}, &domain.ChatSession{}, &domain.ChatMessage{}, &domain.Idempotency{}}
}

func TestOpenSQLite_ErrorOnBadPath(t *testing.T) {
	base := t.TempDir()
	bad := filepath.Join(base, "does-not-exist", "app.db")

	db, err := OpenSQLite(bad)
	if err == nil || db != nil {
		t.Fatalf("expected error opening %q, got db=%v err=%v", bad, db, err)
	}

	lower := strings.ToLower(err.Error())
	if !(os.IsNotExist(err) ||
		strings.Contains(lower, "unable to open database file") ||
		strings.Contains(lower, "no such file or directory") ||
		strings.Contains(lower, "out of memory")) {
		t.Fatalf("unexpected error opening %q: %v", bad, err)
	}
}

func TestOpenSQLite_SetsPragmas_Pool_AndAutoMigrate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.db")

	db, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db.DB(): %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })

	var (
		journalMode string
		syncVal     int
		busyMS      int
	)
	if err := db.Raw("PRAGMA journal_mode;").Row().Scan(&journalMode); err != nil {
		t.Fatalf("PRAGMA journal_mode: %v", err)
	}
	if strings.ToLower(journalMode) != "wal" {
		t.Fatalf("expected journal_mode=wal, got %q", journalMode)
	}
	if err := db.Raw("PRAGMA synchronous;").Row().Scan(&syncVal); err != nil {
		t.Fatalf("PRAGMA synchronous: %v", err)
	}
	if syncVal != 1 {
		t.Fatalf("expected synchronous=1 (NORMAL), got %d", syncVal)
	}
	if err := db.Raw("PRAGMA busy_timeout;").Row().Scan(&busyMS); err != nil {
		t.Fatalf("PRAGMA busy_timeout: %v", err)
	}
	if busyMS != 5000 {
		t.Fatalf("expected busy_timeout=5000, got %d", busyMS)
	}
	if stats := sqlDB.Stats(); stats.MaxOpenConnections != 10 {
		t.Fatalf("expected MaxOpenConnections=10, got %d", stats.MaxOpenConnections)
	}

	if err := AutoMigrate(db); err != nil {
		t.Fatalf("AutoMigrate: %v", err)
	}
	// Second run is a no-op on an existing schema.
	if err := AutoMigrate(db); err != nil {
		t.Fatalf("AutoMigrate (again): %v", err)
	}
	m := db.Migrator()
	for _, tbl := range allModels() {
		if !m.HasTable(tbl) {
			t.Fatalf("expected table for %T to exist", tbl)
		}
	}
}

func TestOpenSQLite_PragmasOnEveryConnection(t *testing.T) {
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "pool.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	sqlDB, _ := db.DB()
	t.Cleanup(func() { _ = sqlDB.Close() })

	ctx := context.Background()
	// Hold two connections at once so the pool has to dial a second one.
	for i := 0; i < 2; i++ {
		conn, err := sqlDB.Conn(ctx)
		if err != nil {
			t.Fatalf("conn %d: %v", i, err)
		}
		defer conn.Close()

		var busy, fk int
		if err := conn.QueryRowContext(ctx, "PRAGMA busy_timeout").Scan(&busy); err != nil {
			t.Fatalf("busy_timeout: %v", err)
		}
		if err := conn.QueryRowContext(ctx, "PRAGMA foreign_keys").Scan(&fk); err != nil {
			t.Fatalf("foreign_keys: %v", err)
		}
		if busy != 5000 || fk != 1 {
			t.Fatalf("conn %d: busy_timeout=%d foreign_keys=%d", i, busy, fk)
		}
	}
}

func Test_sqliteDSN(t *testing.T) {
	got := sqliteDSN("users.db")
	if !strings.HasPrefix(got, "users.db?_pragma=") || strings.Count(got, "_pragma=") != len(connPragmas) {
		t.Fatalf("sqliteDSN = %q", got)
	}
	if got := sqliteDSN("file:users.db?mode=rwc"); !strings.HasPrefix(got, "file:users.db?mode=rwc&_pragma=") {
		t.Fatalf("existing query not extended: %q", got)
	}
}

func TestOpenSQLite_NotADatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "junk.db")
	if err := os.WriteFile(path, []byte(strings.Repeat("not sqlite ", 200)), 0o600); err != nil {
		t.Fatal(err)
	}
	if db, err := OpenSQLite(path); err == nil {
		sqlDB, _ := db.DB()
		_ = sqlDB.Close()
		t.Fatalf("expected error for a non-database file")
	}
}

// legacySchema is the DDL of the users.db files written before the move to
// GORM.
var legacySchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT UNIQUE NOT NULL,
		email    TEXT UNIQUE NOT NULL,
		password TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS chats (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id    INTEGER,
		session_id TEXT,
		role       TEXT,
		message    TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY(user_id) REFERENCES users(id)
	)`,
	`CREATE TABLE IF NOT EXISTS chat_sessions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id    INTEGER NOT NULL,
		session_id TEXT    NOT NULL,
		title      TEXT    DEFAULT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		UNIQUE (user_id, session_id),
		FOREIGN KEY(user_id) REFERENCES users(id)
	)`,
}

func TestAutoMigrate_LegacyDatabaseInPlace(t *testing.T) {
	ctx := context.Background()
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "users.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	sqlDB, _ := db.DB()
	t.Cleanup(func() { _ = sqlDB.Close() })

	seed := append(append([]string{}, legacySchema...),
		// sha256("pw1")
		`INSERT INTO users (username, email, password) VALUES ('alice', 'a@x.com', 'c592df4a86933b92addc9842402ddf198c638ea9be58916ee6e3734e1e3152f8')`,
		`INSERT INTO chats (user_id, session_id, role, message) VALUES (1, 's1', 'user', 'When does registration open?')`,
		`INSERT INTO chats (user_id, session_id, role, message) VALUES (1, 's1', 'assistant', 'On 1 September.')`,
		`INSERT INTO chat_sessions (user_id, session_id, title) VALUES (1, 's1', 'Registration')`,
	)
	for _, stmt := range seed {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("seed %q: %v", stmt, err)
		}
	}

	if err := AutoMigrate(db); err != nil {
		t.Fatalf("AutoMigrate on legacy db: %v", err)
	}
	if err := AutoMigrate(db); err != nil {
		t.Fatalf("AutoMigrate (again): %v", err)
	}

	u, err := GetUserByEmail(ctx, db, "a@x.com")
	if err != nil || u.Username != "alice" || len(u.PasswordHash) != 64 {
		t.Fatalf("legacy user = %+v, %v", u, err)
	}
	msgs, err := ListMessages(ctx, db, u.ID, "s1")
	if err != nil || len(msgs) != 2 {
		t.Fatalf("legacy messages = %+v, %v", msgs, err)
	}
	if msgs[0].Role != "user" || msgs[1].Message != "On 1 September." || msgs[0].CreatedAt.IsZero() {
		t.Fatalf("legacy messages not preserved: %+v", msgs)
	}
	sess, err := GetSession(ctx, db, u.ID, "s1")
	if err != nil || sess.Title == nil || *sess.Title != "Registration" {
		t.Fatalf("legacy session = %+v, %v", sess, err)
	}

	// New writes work against the migrated tables.
	if _, err := CreateMessage(ctx, db, u.ID, "s1", "user", "And fees?"); err != nil {
		t.Fatalf("CreateMessage after migration: %v", err)
	}
	if err := db.Exec(`INSERT INTO chats (user_id, session_id, role, message, created_at) VALUES (1, 's1', 'system', 'x', CURRENT_TIMESTAMP)`).Error; err == nil {
		t.Fatalf("role CHECK constraint missing after migration")
	}

	// Enforcement is back on for pooled connections.
	var fk int
	for i := 0; i < 3; i++ {
		if err := db.Raw("PRAGMA foreign_keys").Row().Scan(&fk); err != nil || fk != 1 {
			t.Fatalf("foreign_keys = %d, %v", fk, err)
		}
	}
}

func TestEnableTracing_RegistersPlugin(t *testing.T) {
	db := newTestDB(t, allModels()...)
	if err := EnableTracing(db); err != nil {
		t.Fatalf("EnableTracing: %v", err)
	}
	// Queries still work with the callbacks installed.
	if _, err := UserIDByEmail(context.Background(), db, "nobody@x.io"); err != nil {
		t.Fatalf("query after tracing: %v", err)
	}
}

func TestIsDuplicate(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{gorm.ErrDuplicatedKey, true},
		{fmt.Errorf("wrap: %w", gorm.ErrDuplicatedKey), true},
		{errors.New("UNIQUE constraint failed: users.email"), true},
		{errors.New("constraint failed: UNIQUE constraint failed (2067)"), true},
		{errors.New("no such table: users"), false},
	}
	for _, tc := range cases {
		if got := isDuplicate(tc.err); got != tc.want {
			t.Fatalf("isDuplicate(%v) = %v; want %v", tc.err, got, tc.want)
		}
	}
}

// Compile-time guard to ensure signature stability.
var _ func(string) (*gorm.DB, error) = OpenSQLite
