package numerator

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	corenumerator "stockledger/internal/core/numerator"
)

// Mock objects
type mockRow struct {
	val int64
	err error
}

func (m *mockRow) Scan(dest ...any) error {
	if m.err != nil {
		return m.err
	}
	if len(dest) > 0 {
		if ptr, ok := dest[0].(*int64); ok {
			*ptr = m.val
		}
	}
	return nil
}

type mockQuerier struct {
	mu       sync.Mutex
	maxValue int64 // Simulates MAX(number) of already stored rows
	execSQL  []string
	lastSQL  string
	lastArgs []any
	execErr  error
	rowErr   error
}

func (m *mockQuerier) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.execSQL = append(m.execSQL, sql)
	return pgconn.CommandTag{}, m.execErr
}

func (m *mockQuerier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastSQL = sql
	m.lastArgs = args
	return &mockRow{val: m.maxValue, err: m.rowErr}
}

func TestNext_EmptySeries(t *testing.T) {
	q := &mockQuerier{}
	svc := New(q)

	num, err := svc.Next(context.Background(), corenumerator.JournalConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if num != "J000001" {
		t.Errorf("expected J000001, got %s", num)
	}
	if len(q.execSQL) != 1 || !strings.Contains(q.execSQL[0], "pg_advisory_xact_lock") {
		t.Errorf("expected advisory lock before reading max, got %v", q.execSQL)
	}
}

func TestNext_MaxPlusOne(t *testing.T) {
	q := &mockQuerier{maxValue: 41}
	svc := NewWithResolver(func(context.Context) Querier { return q })

	num, err := svc.Next(context.Background(), corenumerator.JournalConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if num != "J000042" {
		t.Errorf("expected J000042, got %s", num)
	}

	if !strings.Contains(q.lastSQL, `FROM "journal_entries"`) {
		t.Errorf("expected quoted table name, got %s", q.lastSQL)
	}
	if len(q.lastArgs) != 2 || q.lastArgs[0] != 2 || q.lastArgs[1] != "^J[0-9]+$" {
		t.Errorf("unexpected args: %v", q.lastArgs)
	}
}

func TestNext_Errors(t *testing.T) {
	ctx := context.Background()

	locked := &mockQuerier{execErr: errors.New("lock timeout")}
	if _, err := New(locked).Next(ctx, corenumerator.JournalConfig()); err == nil {
		t.Fatal("expected lock error")
	}

	broken := &mockQuerier{rowErr: errors.New("relation does not exist")}
	if _, err := New(broken).Next(ctx, corenumerator.JournalConfig()); err == nil {
		t.Fatal("expected scan error")
	}

	if _, err := New(&mockQuerier{}).Next(ctx, corenumerator.Config{Prefix: "J"}); err == nil {
		t.Fatal("expected config error for missing table")
	}

	var nilSvc *Service
	if _, err := nilSvc.Next(ctx, corenumerator.JournalConfig()); err == nil {
		t.Fatal("expected error from nil service")
	}
}

func TestFormatAndParse(t *testing.T) {
	cfg := corenumerator.Config{Prefix: "J", PadWidth: 4}
	if got := Format(cfg, 7); got != "J0007" {
		t.Errorf("expected J0007, got %s", got)
	}
	if got := Format(corenumerator.Config{Prefix: "J"}, 1234567); got != "J1234567" {
		t.Errorf("expected J1234567, got %s", got)
	}

	tests := []struct {
		in   string
		want int64
	}{
		{"J000042", 42},
		{"J1", 1},
		{"X000042", -1},
		{"J", -1},
		{"J12a", -1},
	}
	for _, tt := range tests {
		if got := ParseNumber("J", tt.in); got != tt.want {
			t.Errorf("ParseNumber(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
