package store

import (
	"fmt"
	"strings"
)

// Dialect abstracts database-specific SQL generation and behavior.
type Dialect interface {
	// Name returns "mysql", "postgres" or "sqlite".
	Name() string

	// DriverName returns the database/sql driver name ("mysql", "pgx" or "sqlite").
	DriverName() string

	// NewParamBuilder creates a dialect-aware parameter builder.
	NewParamBuilder() ParamBuilder

	// CastText renders expr as a text value, for substring matching on
	// non-text columns.
	CastText(expr string) string

	// CastInt renders the leading digits of a text expr as an integer,
	// used for natural ordering of line labels like "6" < "14" < "14A".
	CastInt(expr string) string

	// Concat joins SQL expressions into one string expression.
	Concat(parts ...string) string

	// FilterCountExpr returns SQL for conditional counting.
	// PostgreSQL: "COUNT(*) FILTER (WHERE condition)"
	// MySQL/SQLite: "COALESCE(SUM(CASE WHEN condition THEN 1 ELSE 0 END), 0)"
	FilterCountExpr(condition string) string

	// ReturningID reports whether INSERT must use a RETURNING clause to hand
	// back the generated key (PostgreSQL) instead of LastInsertId.
	ReturningID() bool

	// MapError inspects a driver error and returns a well-known sentinel error if applicable.
	MapError(err error) error
}

// ParamBuilder accumulates query parameters and generates dialect-specific placeholders.
type ParamBuilder interface {
	// Add appends a value and returns the placeholder string.
	Add(v any) string

	// Params returns all accumulated parameter values.
	Params() []any

	// Count returns the number of parameters added so far.
	Count() int
}

// NewDialect creates a Dialect for the given driver name. Unknown names fall
// back to MySQL.
func NewDialect(driver string) Dialect {
	switch driver {
	case "sqlite":
		return &SQLiteDialect{}
	case "postgres":
		return &PostgresDialect{}
	default:
		return &MySQLDialect{}
	}
}

// --- MySQL ParamBuilder ---

type mysqlParamBuilder struct {
	params []any
}

func (p *mysqlParamBuilder) Add(v any) string {
	p.params = append(p.params, v)
	return "?"
}

func (p *mysqlParamBuilder) Params() []any { return p.params }
func (p *mysqlParamBuilder) Count() int    { return len(p.params) }

// --- PostgreSQL ParamBuilder ---

type pgParamBuilder struct {
	params []any
	n      int
}

func (p *pgParamBuilder) Add(v any) string {
	p.n++
	p.params = append(p.params, v)
	return fmt.Sprintf("$%d", p.n)
}

func (p *pgParamBuilder) Params() []any { return p.params }
func (p *pgParamBuilder) Count() int    { return p.n }

// --- SQLite ParamBuilder ---

type sqliteParamBuilder struct {
	params []any
	n      int
}

func (p *sqliteParamBuilder) Add(v any) string {
	p.n++
	p.params = append(p.params, v)
	return fmt.Sprintf("?%d", p.n)
}

func (p *sqliteParamBuilder) Params() []any { return p.params }
func (p *sqliteParamBuilder) Count() int    { return p.n }

func sumCaseExpr(condition string) string {
	return fmt.Sprintf("COALESCE(SUM(CASE WHEN %s THEN 1 ELSE 0 END), 0)", condition)
}

func concatFunc(parts []string) string {
	return "CONCAT(" + strings.Join(parts, ", ") + ")"
}
