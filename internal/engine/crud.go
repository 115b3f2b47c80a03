package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"transit-backend/internal/instrument"
	"transit-backend/internal/metadata"
	"transit-backend/internal/store"
)

// ListResult is the JSON shape of a list response.
type ListResult struct {
	Page     int              `json:"page"`
	PageSize int              `json:"pageSize"`
	Total    int64            `json:"total"`
	Rows     []map[string]any `json:"rows"`
}

// CRUD runs list/get/insert/update/delete against any registered table.
// Every operation resolves the table first, so an unknown name fails before
// the store is touched.
type CRUD struct {
	db         store.Querier
	dialect    store.Dialect
	registry   *metadata.Registry
	normalizer Normalizer
}

func NewCRUD(db store.Querier, dialect store.Dialect, reg *metadata.Registry, n Normalizer) *CRUD {
	if n == nil {
		n = NewHeuristicNormalizer()
	}
	return &CRUD{db: db, dialect: dialect, registry: reg, normalizer: n}
}

// Resolve looks a table up by exact name.
func (e *CRUD) Resolve(name string) (*metadata.TableDescriptor, error) {
	t, ok := e.registry.Resolve(name)
	if !ok {
		return nil, UnknownTableError()
	}
	return t, nil
}

// List returns one page plus the total match count. The two queries are
// independent, so under concurrent writes they may disagree.
func (e *CRUD) List(ctx context.Context, table string, q QuerySpec) (*ListResult, error) {
	t, err := e.Resolve(table)
	if err != nil {
		return nil, err
	}
	ctx, span := instrument.GetInstrumenter(ctx).StartSpan(ctx, "engine", "crud.list")
	defer span.End()
	span.SetTable(t.Name, "")

	cr := BuildCountSQL(t, q, e.dialect)
	countRow, err := store.QueryRow(ctx, e.db, cr.SQL, cr.Params...)
	if err != nil {
		span.SetStatus("error")
		return nil, fmt.Errorf("count %s: %w", t.Name, err)
	}

	qr := BuildSelectSQL(t, q, e.dialect)
	rows, err := store.QueryRows(ctx, e.db, qr.SQL, qr.Params...)
	if err != nil {
		span.SetStatus("error")
		return nil, fmt.Errorf("list %s: %w", t.Name, err)
	}
	if rows == nil {
		rows = []map[string]any{}
	}

	span.SetStatus("ok")
	span.SetAttr("rows", len(rows))
	return &ListResult{
		Page:     q.Page,
		PageSize: q.PageSize,
		Total:    store.ToInt64(countRow["total"]),
		Rows:     rows,
	}, nil
}

// Get returns the row whose canonical key equals id.
func (e *CRUD) Get(ctx context.Context, table, id string) (map[string]any, error) {
	t, err := e.Resolve(table)
	if err != nil {
		return nil, err
	}
	pb := e.dialect.NewParamBuilder()
	sql := fmt.Sprintf("SELECT %s FROM %s WHERE %s = %s LIMIT 1",
		strings.Join(t.Columns, ", "), t.Name, t.PK(), pb.Add(bindID(id)))

	row, err := store.QueryRow(ctx, e.db, sql, pb.Params()...)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, NotFoundError()
		}
		return nil, fmt.Errorf("get %s/%s: %w", t.Name, id, err)
	}
	return row, nil
}

// Insert writes a new row from the allowed, normalized payload keys and
// returns the generated key.
func (e *CRUD) Insert(ctx context.Context, table string, payload map[string]any) (any, error) {
	t, err := e.Resolve(table)
	if err != nil {
		return nil, err
	}
	cols, vals, err := e.prepare(ctx, t, payload, "Nema podataka za insert.")
	if err != nil {
		return nil, err
	}

	ctx, span := instrument.GetInstrumenter(ctx).StartSpan(ctx, "engine", "crud.insert")
	defer span.End()
	span.SetTable(t.Name, "")

	pb := e.dialect.NewParamBuilder()
	placeholders := make([]string, len(vals))
	for i, v := range vals {
		placeholders[i] = pb.Add(v)
	}
	sql := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		t.Name, strings.Join(cols, ", "), strings.Join(placeholders, ", "))

	id, err := store.InsertReturningID(ctx, e.db, e.dialect, sql, t.PK(), pb.Params()...)
	if err != nil {
		span.SetStatus("error")
		return nil, fmt.Errorf("insert %s: %w", t.Name, store.MapError(e.dialect, err))
	}
	span.SetStatus("ok")

	recordID := fmt.Sprint(id)
	span.SetTable(t.Name, recordID)
	instrument.GetInstrumenter(ctx).Audit(ctx, "insert", t.Name, recordID, map[string]any{"columns": cols})
	return id, nil
}

// Update changes the row matching id and returns the affected row count,
// which is 0 for a missing id.
func (e *CRUD) Update(ctx context.Context, table, id string, payload map[string]any) (int64, error) {
	t, err := e.Resolve(table)
	if err != nil {
		return 0, err
	}
	cols, vals, err := e.prepare(ctx, t, payload, "Nema podataka za update.")
	if err != nil {
		return 0, err
	}

	ctx, span := instrument.GetInstrumenter(ctx).StartSpan(ctx, "engine", "crud.update")
	defer span.End()
	span.SetTable(t.Name, id)

	pb := e.dialect.NewParamBuilder()
	sets := make([]string, len(cols))
	for i, c := range cols {
		sets[i] = fmt.Sprintf("%s = %s", c, pb.Add(vals[i]))
	}
	sql := fmt.Sprintf("UPDATE %s SET %s WHERE %s = %s",
		t.Name, strings.Join(sets, ", "), t.PK(), pb.Add(bindID(id)))

	affected, err := store.Exec(ctx, e.db, sql, pb.Params()...)
	if err != nil {
		span.SetStatus("error")
		return 0, fmt.Errorf("update %s/%s: %w", t.Name, id, store.MapError(e.dialect, err))
	}
	span.SetStatus("ok")
	if affected > 0 {
		instrument.GetInstrumenter(ctx).Audit(ctx, "update", t.Name, id, map[string]any{"columns": cols})
	}
	return affected, nil
}

// Delete removes the row matching id and returns the affected row count.
func (e *CRUD) Delete(ctx context.Context, table, id string) (int64, error) {
	t, err := e.Resolve(table)
	if err != nil {
		return 0, err
	}

	ctx, span := instrument.GetInstrumenter(ctx).StartSpan(ctx, "engine", "crud.delete")
	defer span.End()
	span.SetTable(t.Name, id)

	pb := e.dialect.NewParamBuilder()
	sql := fmt.Sprintf("DELETE FROM %s WHERE %s = %s", t.Name, t.PK(), pb.Add(bindID(id)))

	affected, err := store.Exec(ctx, e.db, sql, pb.Params()...)
	if err != nil {
		span.SetStatus("error")
		return 0, fmt.Errorf("delete %s/%s: %w", t.Name, id, store.MapError(e.dialect, err))
	}
	span.SetStatus("ok")
	if affected > 0 {
		instrument.GetInstrumenter(ctx).Audit(ctx, "delete", t.Name, id, nil)
	}
	return affected, nil
}

// prepare keeps the writable columns present in payload, in declaration
// order, normalizes their values and runs the table's write rules.
func (e *CRUD) prepare(ctx context.Context, t *metadata.TableDescriptor, payload map[string]any, emptyMsg string) ([]string, []any, error) {
	record := make(map[string]any, len(payload))
	var cols []string
	for _, c := range t.WritableColumns() {
		v, ok := payload[c]
		if !ok {
			continue
		}
		record[c] = e.normalizer.Normalize(c, v)
		cols = append(cols, c)
	}
	if len(cols) == 0 {
		return nil, nil, InvalidInputError(emptyMsg)
	}

	if errs := EvaluateRules(ctx, t, record); len(errs) > 0 {
		return nil, nil, ValidationError(errs)
	}

	vals := make([]any, len(cols))
	for i, c := range cols {
		vals[i] = bindValue(record[c])
	}
	return cols, vals, nil
}
