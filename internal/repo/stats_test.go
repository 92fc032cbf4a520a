package repo

import (
	"context"
	"testing"
	"time"

	"github.com/tbourn/aoubot-backend/internal/domain"
)

func TestSessionsStats_Error_NoTable(t *testing.T) {
	db := newTestDB(t /* no migrations */)
	if _, _, _, _, err := SessionsStats(context.Background(), db, 1); err == nil {
		t.Fatalf("expected error due to missing chat_sessions table")
	}
}

func TestSessionsStats_EmptyUser(t *testing.T) {
	db := newTestDB(t, allModels()...)
	s, m, last, ts, err := SessionsStats(context.Background(), db, 1)
	if err != nil || s != 0 || m != 0 || last != 0 || ts != nil {
		t.Fatalf("empty user: s=%d m=%d last=%d ts=%v err=%v", s, m, last, ts, err)
	}
}

func TestSessionsStats_TracksMessagesAndTitles(t *testing.T) {
	db := newTestDB(t, allModels()...)
	ctx := context.Background()

	if err := EnsureSession(ctx, db, 1, "s1", nil); err != nil {
		t.Fatalf("EnsureSession: %v", err)
	}
	msg, err := CreateMessage(ctx, db, 1, "s1", domain.RoleUser, "hi")
	if err != nil {
		t.Fatalf("CreateMessage: %v", err)
	}

	s, m, last, ts, err := SessionsStats(ctx, db, 1)
	if err != nil || s != 1 || m != 1 || last != msg.ID || ts == nil {
		t.Fatalf("stats: s=%d m=%d last=%d ts=%v err=%v", s, m, last, ts, err)
	}

	time.Sleep(2 * time.Millisecond)
	if err := SetSessionTitle(ctx, db, 1, "s1", strp("Renamed")); err != nil {
		t.Fatalf("SetSessionTitle: %v", err)
	}
	_, _, _, ts2, err := SessionsStats(ctx, db, 1)
	if err != nil || ts2 == nil || !ts2.After(*ts) {
		t.Fatalf("rename must advance last update: before=%v after=%v err=%v", ts, ts2, err)
	}
}

func TestHistoryStats(t *testing.T) {
	db := newTestDB(t, allModels()...)
	ctx := context.Background()

	n, last, err := HistoryStats(ctx, db, 1, "s1")
	if err != nil || n != 0 || last != 0 {
		t.Fatalf("empty: n=%d last=%d err=%v", n, last, err)
	}

	var lastMsg *domain.ChatMessage
	for i := 0; i < 2; i++ {
		if lastMsg, err = CreateMessage(ctx, db, 1, "s1", domain.RoleUser, "x"); err != nil {
			t.Fatalf("CreateMessage: %v", err)
		}
	}
	n, last, err = HistoryStats(ctx, db, 1, "s1")
	if err != nil || n != 2 || last != lastMsg.ID {
		t.Fatalf("history stats: n=%d last=%d err=%v", n, last, err)
	}
}
