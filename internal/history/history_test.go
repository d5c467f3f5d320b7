package history

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewStore(db), mock
}

// ============================================================================
// Session Tests
// ============================================================================

func TestCreateSession(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec("INSERT INTO chat_sessions").
		WithArgs(sqlmock.AnyArg(), "My Chat", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	session, err := store.CreateSession(context.Background(), "My Chat")
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	if session.ID == "" {
		t.Error("expected a generated session ID")
	}
	if session.Title != "My Chat" {
		t.Errorf("title = %q", session.Title)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestEnsureSessionKeepsExisting(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("s-1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	id, err := store.EnsureSession(context.Background(), "s-1")
	if err != nil {
		t.Fatalf("EnsureSession failed: %v", err)
	}
	if id != "s-1" {
		t.Errorf("expected existing session kept, got %q", id)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestEnsureSessionReplacesStale(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("gone").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectExec("INSERT INTO chat_sessions").
		WillReturnResult(sqlmock.NewResult(0, 1))

	id, err := store.EnsureSession(context.Background(), "gone")
	if err != nil {
		t.Fatalf("EnsureSession failed: %v", err)
	}
	if id == "" || id == "gone" {
		t.Errorf("expected a fresh session ID, got %q", id)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestEnsureSessionEmptyIDCreates(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec("INSERT INTO chat_sessions").
		WillReturnResult(sqlmock.NewResult(0, 1))

	id, err := store.EnsureSession(context.Background(), "")
	if err != nil {
		t.Fatalf("EnsureSession failed: %v", err)
	}
	if id == "" {
		t.Error("expected a fresh session ID")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestListSessionsSkipsArchived(t *testing.T) {
	store, mock := newMockStore(t)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "title", "archived", "created_at"}).
		AddRow("s-2", "Second", false, now).
		AddRow("s-1", "First", false, now.Add(-time.Hour))
	mock.ExpectQuery("FROM chat_sessions WHERE archived = false").WillReturnRows(rows)

	sessions, err := store.ListSessions(context.Background())
	if err != nil {
		t.Fatalf("ListSessions failed: %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(sessions))
	}
	if sessions[0].ID != "s-2" {
		t.Errorf("expected newest first, got %q", sessions[0].ID)
	}
}

func TestRenameAndArchiveSession(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec("UPDATE chat_sessions SET title").
		WithArgs("Renamed", "s-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE chat_sessions SET archived").
		WithArgs("s-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := store.RenameSession(context.Background(), "s-1", "Renamed"); err != nil {
		t.Fatalf("RenameSession failed: %v", err)
	}
	if err := store.ArchiveSession(context.Background(), "s-1"); err != nil {
		t.Fatalf("ArchiveSession failed: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

// ============================================================================
// Message Tests
// ============================================================================

func TestSaveMessage(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec("INSERT INTO chat_messages").
		WithArgs("s-1", "user", "hello").
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := store.SaveMessage(context.Background(), "s-1", "user", "hello"); err != nil {
		t.Fatalf("SaveMessage failed: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestListMessagesOldestFirst(t *testing.T) {
	store, mock := newMockStore(t)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "session_id", "role", "content", "created_at"}).
		AddRow(int64(1), "s-1", "user", "question", now.Add(-time.Minute)).
		AddRow(int64(2), "s-1", "assistant", "answer", now)
	mock.ExpectQuery("FROM chat_messages WHERE session_id").
		WithArgs("s-1").
		WillReturnRows(rows)

	messages, err := store.ListMessages(context.Background(), "s-1")
	if err != nil {
		t.Fatalf("ListMessages failed: %v", err)
	}
	if len(messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(messages))
	}
	if messages[0].Role != "user" || messages[1].Role != "assistant" {
		t.Errorf("unexpected order: %q then %q", messages[0].Role, messages[1].Role)
	}
}

// ============================================================================
// Analytics Tests
// ============================================================================

func TestAnalytics(t *testing.T) {
	store, mock := newMockStore(t)

	day := time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery("FROM chat_sessions").
		WillReturnRows(sqlmock.NewRows([]string{"date", "count"}).AddRow(day, 4))
	mock.ExpectQuery("EXTRACT\\(HOUR FROM created_at\\)").
		WillReturnRows(sqlmock.NewRows([]string{"hour", "count"}).
			AddRow(9, 12).
			AddRow(10, 7))
	mock.ExpectQuery("GROUP BY role").
		WillReturnRows(sqlmock.NewRows([]string{"role", "count"}).
			AddRow("user", 10).
			AddRow("assistant", 9))
	mock.ExpectQuery("total_sessions").
		WillReturnRows(sqlmock.NewRows([]string{"total_sessions", "total_messages", "user_messages", "assistant_messages"}).
			AddRow(4, 19, 10, 9))

	analytics, err := store.Analytics(context.Background())
	if err != nil {
		t.Fatalf("Analytics failed: %v", err)
	}

	if len(analytics.SessionsByDate) != 1 || analytics.SessionsByDate[0].Count != 4 {
		t.Errorf("sessions by date = %+v", analytics.SessionsByDate)
	}
	if len(analytics.MessagesByHour) != 2 || analytics.MessagesByHour[0].Hour != 9 {
		t.Errorf("messages by hour = %+v", analytics.MessagesByHour)
	}
	if len(analytics.MessageDistribution) != 2 {
		t.Errorf("message distribution = %+v", analytics.MessageDistribution)
	}
	if analytics.Totals.TotalMessages != 19 || analytics.Totals.AssistantMessages != 9 {
		t.Errorf("totals = %+v", analytics.Totals)
	}
}
