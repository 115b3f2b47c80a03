package engine

import (
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"transit-backend/internal/metadata"
	"transit-backend/internal/store"
)

const (
	DefaultPageSize = 25
	MaxPageSize     = 200
)

// QuerySpec is a parsed list request. Use NewQuerySpec to get the clamping.
type QuerySpec struct {
	Page     int
	PageSize int
	Search   string
	Filters  map[string]any
}

type QueryResult struct {
	SQL    string
	Params []any
}

// NewQuerySpec floors page at 1 and clamps pageSize to [1, MaxPageSize].
func NewQuerySpec(page, pageSize int, search string, filters map[string]any) QuerySpec {
	return QuerySpec{
		Page:     max(1, page),
		PageSize: min(MaxPageSize, max(1, pageSize)),
		Search:   strings.TrimSpace(search),
		Filters:  filters,
	}
}

// Offset is the number of rows skipped before the requested page.
func (q QuerySpec) Offset() int {
	return (q.Page - 1) * q.PageSize
}

// ParseQuerySpec reads page, pageSize, search and filters from the query
// string. Missing or non-numeric page values fall back to their defaults and
// malformed filters JSON means no filters.
func ParseQuerySpec(c *fiber.Ctx) QuerySpec {
	page := intQuery(c, "page", 1)
	pageSize := intQuery(c, "pageSize", DefaultPageSize)

	var filters map[string]any
	if raw := c.Query("filters"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &filters); err != nil {
			filters = nil
		}
	}
	return NewQuerySpec(page, pageSize, c.Query("search"), filters)
}

func intQuery(c *fiber.Ctx, key string, def int) int {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return def
	}
	if v, err := strconv.Atoi(raw); err == nil {
		return v
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		return int(f)
	}
	return def
}

// buildWhere renders the search disjunction and the filter equalities.
// Only column names taken from t are ever written into the SQL text.
func buildWhere(t *metadata.TableDescriptor, q QuerySpec, d store.Dialect, pb store.ParamBuilder) string {
	var where []string

	if q.Search != "" && len(t.SearchColumns) > 0 {
		like := make([]string, 0, len(t.SearchColumns))
		pattern := "%" + q.Search + "%"
		for _, col := range t.SearchColumns {
			like = append(like, fmt.Sprintf("%s LIKE %s", d.CastText(col), pb.Add(pattern)))
		}
		where = append(where, "("+strings.Join(like, " OR ")+")")
	}

	keys := make([]string, 0, len(q.Filters))
	for k, v := range q.Filters {
		if t.HasColumn(k) && isScalar(v) {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)
	for _, k := range keys {
		where = append(where, fmt.Sprintf("%s = %s", k, pb.Add(bindValue(q.Filters[k]))))
	}

	if len(where) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(where, " AND ")
}

// BuildSelectSQL builds the page query: newest primary key first.
func BuildSelectSQL(t *metadata.TableDescriptor, q QuerySpec, d store.Dialect) QueryResult {
	pb := d.NewParamBuilder()
	sql := fmt.Sprintf("SELECT %s FROM %s", strings.Join(t.Columns, ", "), t.Name)
	sql += buildWhere(t, q, d, pb)
	sql += fmt.Sprintf(" ORDER BY %s DESC", t.PK())
	limit := pb.Add(q.PageSize)
	offset := pb.Add(q.Offset())
	sql += fmt.Sprintf(" LIMIT %s OFFSET %s", limit, offset)
	return QueryResult{SQL: sql, Params: pb.Params()}
}

// BuildCountSQL counts every row matching the same predicates as the select.
func BuildCountSQL(t *metadata.TableDescriptor, q QuerySpec, d store.Dialect) QueryResult {
	pb := d.NewParamBuilder()
	sql := fmt.Sprintf("SELECT COUNT(*) AS total FROM %s", t.Name) + buildWhere(t, q, d, pb)
	return QueryResult{SQL: sql, Params: pb.Params()}
}

// bindValue turns whole JSON numbers back into integers so key comparisons
// bind as integers on every driver.
func bindValue(v any) any {
	if f, ok := v.(float64); ok && f == math.Trunc(f) && math.Abs(f) < 1<<53 {
		return int64(f)
	}
	return v
}

func isScalar(v any) bool {
	switch v.(type) {
	case map[string]any, []any:
		return false
	}
	return true
}

// bindID binds a path id as an integer when it looks like one.
func bindID(id string) any {
	if n, err := strconv.ParseInt(id, 10, 64); err == nil {
		return n
	}
	return id
}
