package engine

import (
	"context"
	"fmt"
	"strings"

	"transit-backend/internal/instrument"
	"transit-backend/internal/metadata"
	"transit-backend/internal/store"
)

// Association manages linije_stanice, whose key is the (linija_id,
// stanica_id) pair and whose only mutable column is redoslijed.
type Association struct {
	db      store.Querier
	dialect store.Dialect
	table   *metadata.TableDescriptor
}

func NewAssociation(db store.Querier, dialect store.Dialect, t *metadata.TableDescriptor) *Association {
	return &Association{db: db, dialect: dialect, table: t}
}

// List returns every pair ordered by line, then stop order.
func (a *Association) List(ctx context.Context) ([]map[string]any, error) {
	sql := fmt.Sprintf("SELECT %s FROM %s ORDER BY linija_id ASC, redoslijed ASC",
		strings.Join(a.table.Columns, ", "), a.table.Name)
	rows, err := store.QueryRows(ctx, a.db, sql)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", a.table.Name, err)
	}
	if rows == nil {
		rows = []map[string]any{}
	}
	return rows, nil
}

// Insert adds a pair. All three columns are required.
func (a *Association) Insert(ctx context.Context, payload map[string]any) error {
	if err := requireFields(payload, "linija_id", "stanica_id", "redoslijed"); err != nil {
		return err
	}
	pb := a.dialect.NewParamBuilder()
	sql := fmt.Sprintf("INSERT INTO %s (linija_id, stanica_id, redoslijed) VALUES (%s, %s, %s)",
		a.table.Name,
		pb.Add(bindValue(payload["linija_id"])),
		pb.Add(bindValue(payload["stanica_id"])),
		pb.Add(bindValue(payload["redoslijed"])))

	if _, err := store.Exec(ctx, a.db, sql, pb.Params()...); err != nil {
		return fmt.Errorf("insert %s: %w", a.table.Name, store.MapError(a.dialect, err))
	}
	instrument.GetInstrumenter(ctx).Audit(ctx, "insert", a.table.Name, pairID(payload), nil)
	return nil
}

// UpdateOrder sets redoslijed for an existing pair.
func (a *Association) UpdateOrder(ctx context.Context, payload map[string]any) (int64, error) {
	if err := requireFields(payload, "linija_id", "stanica_id", "redoslijed"); err != nil {
		return 0, err
	}
	pb := a.dialect.NewParamBuilder()
	sql := fmt.Sprintf("UPDATE %s SET redoslijed = %s WHERE linija_id = %s AND stanica_id = %s",
		a.table.Name,
		pb.Add(bindValue(payload["redoslijed"])),
		pb.Add(bindValue(payload["linija_id"])),
		pb.Add(bindValue(payload["stanica_id"])))

	affected, err := store.Exec(ctx, a.db, sql, pb.Params()...)
	if err != nil {
		return 0, fmt.Errorf("update %s: %w", a.table.Name, store.MapError(a.dialect, err))
	}
	if affected > 0 {
		instrument.GetInstrumenter(ctx).Audit(ctx, "update", a.table.Name, pairID(payload), nil)
	}
	return affected, nil
}

// Delete removes a pair.
func (a *Association) Delete(ctx context.Context, payload map[string]any) (int64, error) {
	if err := requireFields(payload, "linija_id", "stanica_id"); err != nil {
		return 0, err
	}
	pb := a.dialect.NewParamBuilder()
	sql := fmt.Sprintf("DELETE FROM %s WHERE linija_id = %s AND stanica_id = %s",
		a.table.Name,
		pb.Add(bindValue(payload["linija_id"])),
		pb.Add(bindValue(payload["stanica_id"])))

	affected, err := store.Exec(ctx, a.db, sql, pb.Params()...)
	if err != nil {
		return 0, fmt.Errorf("delete %s: %w", a.table.Name, store.MapError(a.dialect, err))
	}
	if affected > 0 {
		instrument.GetInstrumenter(ctx).Audit(ctx, "delete", a.table.Name, pairID(payload), nil)
	}
	return affected, nil
}

func requireFields(payload map[string]any, fields ...string) error {
	for _, f := range fields {
		if v, ok := payload[f]; !ok || v == nil {
			return InvalidInputError(strings.Join(fields, ", ") + " su obavezni.")
		}
	}
	return nil
}

func pairID(payload map[string]any) string {
	return fmt.Sprintf("%v:%v", bindValue(payload["linija_id"]), bindValue(payload["stanica_id"]))
}
