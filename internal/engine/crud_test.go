package engine

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"transit-backend/internal/metadata"
	"transit-backend/internal/store"
)

// countingQuerier fails every call and records that it was made.
type countingQuerier struct {
	calls int
}

var errUnexpectedQuery = errors.New("unexpected query")

func (q *countingQuerier) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	q.calls++
	return nil, errUnexpectedQuery
}

func (q *countingQuerier) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	q.calls++
	return nil
}

func (q *countingQuerier) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	q.calls++
	return nil, errUnexpectedQuery
}

func assertAppError(t *testing.T, err error, code string, status int) {
	t.Helper()
	var appErr *AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected *AppError, got %T: %v", err, err)
	}
	if appErr.Code != code || appErr.Status != status {
		t.Fatalf("got %s/%d, want %s/%d", appErr.Code, appErr.Status, code, status)
	}
}

func TestCRUD_UnknownTableNeverTouchesStore(t *testing.T) {
	q := &countingQuerier{}
	e := NewCRUD(q, &store.MySQLDialect{}, metadata.Default(), nil)
	ctx := context.Background()

	for _, name := range []string{"users", "linije_stanice", "ZONE", "zone;--"} {
		_, err := e.List(ctx, name, NewQuerySpec(1, 25, "", nil))
		assertAppError(t, err, CodeUnknownTable, 404)
		_, err = e.Get(ctx, name, "1")
		assertAppError(t, err, CodeUnknownTable, 404)
		_, err = e.Insert(ctx, name, map[string]any{"naziv": "x"})
		assertAppError(t, err, CodeUnknownTable, 404)
		_, err = e.Update(ctx, name, "1", map[string]any{"naziv": "x"})
		assertAppError(t, err, CodeUnknownTable, 404)
		_, err = e.Delete(ctx, name, "1")
		assertAppError(t, err, CodeUnknownTable, 404)
	}
	if q.calls != 0 {
		t.Fatalf("expected no store calls, got %d", q.calls)
	}
}

func TestCRUD_EmptyPayloadIsInvalidInput(t *testing.T) {
	q := &countingQuerier{}
	e := NewCRUD(q, &store.MySQLDialect{}, metadata.Default(), nil)

	// Only the primary key and unknown keys: nothing left to write.
	payload := map[string]any{"id": float64(9), "bogus": "x"}
	_, err := e.Insert(context.Background(), "stanice", payload)
	assertAppError(t, err, CodeInvalidInput, 400)
	_, err = e.Update(context.Background(), "stanice", "1", payload)
	assertAppError(t, err, CodeInvalidInput, 400)

	if q.calls != 0 {
		t.Fatalf("expected no store calls, got %d", q.calls)
	}
}

func TestCRUD_RegistryRuleViolationIsInvalidInput(t *testing.T) {
	reg, err := metadata.NewRegistry([]*metadata.TableDescriptor{{
		Name:       "prituzbe",
		PrimaryKey: []string{"id"},
		Columns:    []string{"id", "korisnik_id", "status_rjesavanja"},
		Rules: []*metadata.Rule{
			metadata.OneOf("status_rjesavanja", metadata.ComplaintStatuses, "Neispravan status_rjesavanja."),
		},
	}}, nil)
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	q := &countingQuerier{}
	e := NewCRUD(q, &store.MySQLDialect{}, reg, nil)

	_, err = e.Insert(context.Background(), "prituzbe", map[string]any{"status_rjesavanja": "Zatvoreno"})
	assertAppError(t, err, CodeInvalidInput, 400)

	var appErr *AppError
	errors.As(err, &appErr)
	if len(appErr.Details) != 1 || appErr.Details[0].Field != "status_rjesavanja" {
		t.Fatalf("unexpected details: %+v", appErr.Details)
	}
	if q.calls != 0 {
		t.Fatalf("expected no store calls, got %d", q.calls)
	}
}

func TestCRUD_DefaultTablesCarryNoWriteRules(t *testing.T) {
	for _, name := range metadata.Default().Names() {
		td, _ := metadata.Default().Resolve(name)
		if len(td.Rules) != 0 {
			t.Fatalf("%s: expected no write rules, got %d", name, len(td.Rules))
		}
	}
}

func TestCRUD_PrepareDropsPrimaryKeyAndExtraneous(t *testing.T) {
	e := NewCRUD(nil, &store.MySQLDialect{}, metadata.Default(), nil)
	td, _ := metadata.Default().Resolve("zaposlenik")

	cols, vals, err := e.prepare(context.Background(), td, map[string]any{
		"id":               float64(99),
		"hacker":           "x",
		"prezime":          " Kos ",
		"ime":              "Ana",
		"datum_zaposlenja": "2024-03-05T10:15:30.000Z",
	}, "empty")
	if err != nil {
		t.Fatalf("prepare: %v", err)
	}

	wantCols := []string{"ime", "prezime", "datum_zaposlenja"}
	if len(cols) != len(wantCols) {
		t.Fatalf("cols = %v, want %v", cols, wantCols)
	}
	for i := range wantCols {
		if cols[i] != wantCols[i] {
			t.Fatalf("cols = %v, want %v", cols, wantCols)
		}
	}
	wantVals := []any{"Ana", "Kos", "2024-03-05"}
	for i := range wantVals {
		if vals[i] != wantVals[i] {
			t.Fatalf("vals = %#v, want %#v", vals, wantVals)
		}
	}
}

func TestAssociation_MissingFieldsNoWrite(t *testing.T) {
	q := &countingQuerier{}
	a := NewAssociation(q, &store.MySQLDialect{}, metadata.LineStops())
	ctx := context.Background()

	err := a.Insert(ctx, map[string]any{"linija_id": float64(1), "stanica_id": float64(2)})
	assertAppError(t, err, CodeInvalidInput, 400)

	err = a.Insert(ctx, map[string]any{"linija_id": float64(1), "stanica_id": float64(2), "redoslijed": nil})
	assertAppError(t, err, CodeInvalidInput, 400)

	_, err = a.UpdateOrder(ctx, map[string]any{"linija_id": float64(1), "redoslijed": float64(3)})
	assertAppError(t, err, CodeInvalidInput, 400)

	_, err = a.Delete(ctx, map[string]any{"stanica_id": float64(2)})
	assertAppError(t, err, CodeInvalidInput, 400)

	if q.calls != 0 {
		t.Fatalf("expected no store calls, got %d", q.calls)
	}
}

func TestAssociation_ZeroIsPresent(t *testing.T) {
	if err := requireFields(map[string]any{"linija_id": float64(0), "stanica_id": float64(0), "redoslijed": float64(0)},
		"linija_id", "stanica_id", "redoslijed"); err != nil {
		t.Fatalf("zero values must count as present: %v", err)
	}
}
