package engine

import "testing"

func TestHeuristicNormalizer(t *testing.T) {
	n := NewHeuristicNormalizer()
	tests := []struct {
		name   string
		column string
		in     any
		want   any
	}{
		{"date-only column", "datum_zaposlenja", "2024-03-05T10:15:30.000Z", "2024-03-05"},
		{"datetime column", "datum_kupnje", "2024-03-05T10:15:30.000Z", "2024-03-05 10:15:30"},
		{"no millis no zone", "datum_prekrsaja", "2024-03-05T10:15:30", "2024-03-05 10:15:30"},
		{"zone without millis", "datum_prituzbe", "2024-03-05T10:15:30Z", "2024-03-05 10:15:30"},
		{"birth date", "datum_rodenja", "1990-07-21T00:00:00Z", "1990-07-21"},
		{"service date", "datum_servisa", "2024-01-15T23:00:00.000Z", "2024-01-15"},
		{"plain string", "ime", "hello", "hello"},
		{"trimmed", "ime", "  Ana  ", "Ana"},
		{"whitespace only", "napomena", "   ", ""},
		{"partial iso", "datum_kupnje", "2024-03-05T10:15", "2024-03-05T10:15"},
		{"plain date untouched", "datum_servisa", "2024-03-05", "2024-03-05"},
		{"nil", "ime", nil, nil},
		{"number", "kapacitet_putnika", float64(90), float64(90)},
		{"bool", "u_prometu", true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := n.Normalize(tt.column, tt.in); got != tt.want {
				t.Fatalf("Normalize(%q, %#v) = %#v, want %#v", tt.column, tt.in, got, tt.want)
			}
		})
	}
}

func TestHeuristicNormalizer_CustomColumns(t *testing.T) {
	n := NewHeuristicNormalizer("vrijedi_do")
	if got := n.Normalize("vrijedi_do", "2024-03-05T10:15:30Z"); got != "2024-03-05" {
		t.Fatalf("got %#v", got)
	}
	if got := n.Normalize("datum_servisa", "2024-03-05T10:15:30Z"); got != "2024-03-05 10:15:30" {
		t.Fatalf("got %#v", got)
	}
}
