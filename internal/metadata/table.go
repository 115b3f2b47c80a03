package metadata

import (
	"errors"
	"fmt"
	"slices"
)

// TableDescriptor describes one administered table: its key, the columns the
// API may read and write, and the columns free-text search runs over.
type TableDescriptor struct {
	Name          string   `json:"name"`
	PrimaryKey    []string `json:"primary_key"`
	Columns       []string `json:"columns"`
	SearchColumns []string `json:"search_columns"`
	Rules         []*Rule  `json:"rules,omitempty"`
}

// PK returns the canonical single-column key used for get/update/delete.
func (t *TableDescriptor) PK() string {
	return t.PrimaryKey[0]
}

// HasColumn returns true if name is one of the exposed columns.
func (t *TableDescriptor) HasColumn(name string) bool {
	return slices.Contains(t.Columns, name)
}

// IsPrimaryKey returns true if name is part of the primary key.
func (t *TableDescriptor) IsPrimaryKey(name string) bool {
	return slices.Contains(t.PrimaryKey, name)
}

// WritableColumns returns the columns a client may set on insert/update,
// in declaration order. Primary key columns are never client-supplied.
func (t *TableDescriptor) WritableColumns() []string {
	cols := make([]string, 0, len(t.Columns))
	for _, c := range t.Columns {
		if !t.IsPrimaryKey(c) {
			cols = append(cols, c)
		}
	}
	return cols
}

// Validate checks the descriptor's structural invariants.
func (t *TableDescriptor) Validate() error {
	if t.Name == "" {
		return errors.New("table name is required")
	}
	if len(t.PrimaryKey) == 0 {
		return fmt.Errorf("%s: primary key is required", t.Name)
	}
	seen := make(map[string]bool, len(t.Columns))
	for _, c := range t.Columns {
		if seen[c] {
			return fmt.Errorf("%s: duplicate column %s", t.Name, c)
		}
		seen[c] = true
	}
	for _, pk := range t.PrimaryKey {
		if !seen[pk] {
			return fmt.Errorf("%s: primary key %s is not an exposed column", t.Name, pk)
		}
	}
	for _, c := range t.SearchColumns {
		if !seen[c] {
			return fmt.Errorf("%s: search column %s is not an exposed column", t.Name, c)
		}
	}
	for _, r := range t.Rules {
		if r.Field != "" && !seen[r.Field] {
			return fmt.Errorf("%s: rule references unknown column %s", t.Name, r.Field)
		}
		if err := r.Compile(); err != nil {
			return fmt.Errorf("%s: %w", t.Name, err)
		}
	}
	return nil
}
