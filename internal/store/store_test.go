package store

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"transit-backend/internal/config"
)

func TestNormalizeValue(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want any
	}{
		{"nil", nil, nil},
		{"bytes", []byte("12.50"), "12.50"},
		{"int", int64(7), int64(7)},
		{"date", time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), "2024-03-05"},
		{"datetime", time.Date(2024, 3, 5, 10, 15, 30, 0, time.UTC), "2024-03-05 10:15:30"},
		{"string", "Bus", "Bus"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := normalizeValue(tt.in); got != tt.want {
				t.Fatalf("normalizeValue(%v) = %#v, want %#v", tt.in, got, tt.want)
			}
		})
	}
}

func TestToInt64(t *testing.T) {
	cases := []struct {
		in   any
		want int64
	}{
		{int64(3), 3},
		{3, 3},
		{float64(4), 4},
		{"42", 42},
		{"42.9", 42},
		{"x", 0},
		{nil, 0},
	}
	for _, c := range cases {
		if got := ToInt64(c.in); got != c.want {
			t.Errorf("ToInt64(%#v) = %d, want %d", c.in, got, c.want)
		}
	}
}

func openSQLite(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()
	s, err := New(ctx, config.DatabaseConfig{Driver: "sqlite", Path: t.TempDir(), Name: "store"})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(s.Close)
	if _, err := s.DB.ExecContext(ctx, `CREATE TABLE zone (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		zona_kod TEXT NOT NULL UNIQUE,
		zona_naziv TEXT
	)`); err != nil {
		t.Fatalf("create table: %v", err)
	}
	return s
}

func TestSQLiteRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openSQLite(t)

	id, err := InsertReturningID(ctx, s.DB, s.Dialect,
		"INSERT INTO zone (zona_kod, zona_naziv) VALUES (?1, ?2)", "id", "A", "Centar")
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if id != int64(1) {
		t.Fatalf("expected generated id 1, got %#v", id)
	}

	row, err := QueryRow(ctx, s.DB, "SELECT id, zona_kod, zona_naziv FROM zone WHERE id = ?1", id)
	if err != nil {
		t.Fatalf("query row: %v", err)
	}
	if row["zona_kod"] != "A" || row["zona_naziv"] != "Centar" {
		t.Fatalf("unexpected row: %v", row)
	}

	n, err := Exec(ctx, s.DB, "UPDATE zone SET zona_naziv = ?1 WHERE id = ?2", "Centar grada", 999)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected 0 affected rows for missing id, got %d", n)
	}

	_, err = QueryRow(ctx, s.DB, "SELECT id FROM zone WHERE id = ?1", 999)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	_, err = InsertReturningID(ctx, s.DB, s.Dialect,
		"INSERT INTO zone (zona_kod) VALUES (?1)", "id", "A")
	if !errors.Is(MapError(s.Dialect, err), ErrUniqueViolation) {
		t.Fatalf("expected unique violation, got %v", err)
	}
}

func TestWrapAndPing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wrap.db")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	s := Wrap(db, NewDialect("sqlite"))
	defer s.Close()
	if err := s.Ping(context.Background()); err != nil {
		t.Fatalf("ping: %v", err)
	}
}
