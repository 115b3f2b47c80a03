package engine

import (
	"regexp"
	"strings"
)

// Normalizer converts a client-supplied value into the form stored in column.
type Normalizer interface {
	Normalize(column string, v any) any
}

var isoDateTime = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(\.\d{3})?Z?$`)

// DateOnlyColumns are DATE columns; every other column receiving an ISO
// timestamp is treated as DATETIME.
var DateOnlyColumns = []string{"datum_zaposlenja", "datum_servisa", "datum_rodenja"}

// HeuristicNormalizer rewrites ISO-8601 timestamps sent by browsers into
// MySQL DATE or DATETIME literals, choosing by column name. Everything else
// is trimmed and passed through.
type HeuristicNormalizer struct {
	dateOnly map[string]bool
}

func NewHeuristicNormalizer(dateOnlyColumns ...string) *HeuristicNormalizer {
	if len(dateOnlyColumns) == 0 {
		dateOnlyColumns = DateOnlyColumns
	}
	n := &HeuristicNormalizer{dateOnly: make(map[string]bool, len(dateOnlyColumns))}
	for _, c := range dateOnlyColumns {
		n.dateOnly[c] = true
	}
	return n
}

func (n *HeuristicNormalizer) Normalize(column string, v any) any {
	s, ok := v.(string)
	if !ok {
		return v
	}
	s = strings.TrimSpace(s)
	if s == "" || !isoDateTime.MatchString(s) {
		return s
	}
	if n.dateOnly[column] {
		return s[:10]
	}
	// 2024-03-05T10:15:30.000Z -> 2024-03-05 10:15:30
	s = s[:10] + " " + s[11:]
	s = strings.TrimSuffix(s, "Z")
	if len(s) == len("2006-01-02 15:04:05.000") {
		s = s[:len("2006-01-02 15:04:05")]
	}
	return s
}
