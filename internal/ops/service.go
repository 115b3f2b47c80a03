// Package ops serves the operations dashboard: KPI charts, timetable lookup,
// complaint/fine/maintenance views and their few mutations.
package ops

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"transit-backend/internal/instrument"
	"transit-backend/internal/metadata"
	"transit-backend/internal/store"
)

// listLimit caps the complaint, fine and maintenance views.
const listLimit = 500

// ChartPoint is one bar of a dashboard chart.
type ChartPoint struct {
	Label any   `json:"label"`
	Value int64 `json:"value"`
}

type VehicleKPI struct {
	InService    int64 `json:"u_prometu"`
	OutOfService int64 `json:"van_prometa"`
	Total        int64 `json:"ukupno"`
}

type Dashboard struct {
	Vehicles VehicleKPI              `json:"vozila"`
	Charts   map[string][]ChartPoint `json:"charts"`
}

type Timetable struct {
	Line  map[string]any   `json:"line"`
	Rows  []map[string]any `json:"rows"`
	Stops []map[string]any `json:"stops"`
}

// ComplaintFilter, FineFilter and MaintenanceFilter hold the optional list
// filters; zero values are ignored.
type ComplaintFilter struct {
	Status   string
	Category string
	LineID   int64
}

type FineFilter struct {
	Status string
	From   string
	To     string
}

type MaintenanceFilter struct {
	ServiceType string
	From        string
	To          string
}

// NewMaintenance is a validated maintenance record ready for insert.
type NewMaintenance struct {
	VehicleID   int64
	EmployeeID  int64
	Date        string
	ServiceType string
	Cost        float64
	Description string
}

type Service struct {
	db      store.Querier
	dialect store.Dialect
}

func NewService(db store.Querier, dialect store.Dialect) *Service {
	return &Service{db: db, dialect: dialect}
}

// charts maps each dashboard chart to its grouped count query.
var charts = []struct {
	key string
	sql string
}{
	{"vozila_po_gorivu", `SELECT vrsta_goriva AS label, COUNT(*) AS value FROM vozila GROUP BY vrsta_goriva ORDER BY value DESC, label ASC`},
	{"prituzbe_po_statusu", `SELECT status_rjesavanja AS label, COUNT(*) AS value FROM prituzbe GROUP BY status_rjesavanja ORDER BY value DESC, label ASC`},
	{"prituzbe_po_kategoriji", `SELECT kategorija_prituzbe AS label, COUNT(*) AS value FROM prituzbe GROUP BY kategorija_prituzbe ORDER BY value DESC, label ASC`},
	{"prekrsaji_po_statusu", `SELECT status_placanja AS label, COUNT(*) AS value FROM prekrsaji GROUP BY status_placanja ORDER BY value DESC, label ASC`},
	{"servisi_po_vrsti", `SELECT vrsta_servisa AS label, COUNT(*) AS value FROM odrzavanje_vozila GROUP BY vrsta_servisa ORDER BY value DESC, label ASC`},
	{"zaposlenici_po_ulozi", `SELECT naziv_uloge AS label, COUNT(*) AS value FROM zaposlenik GROUP BY naziv_uloge ORDER BY value DESC, label ASC`},
	{"prodane_karte_po_tipu", `SELECT tk.tip_naziv AS label, COUNT(*) AS value
		FROM karta k JOIN tip_karte tk ON tk.id = k.tip_karte_id
		GROUP BY tk.id, tk.tip_naziv ORDER BY value DESC, tk.tip_naziv ASC`},
}

func (s *Service) Dashboard(ctx context.Context) (*Dashboard, error) {
	ctx, span := instrument.GetInstrumenter(ctx).StartSpan(ctx, "ops", "dashboard")
	defer span.End()

	kpiSQL := fmt.Sprintf("SELECT %s AS u_prometu, %s AS van_prometa, COUNT(*) AS ukupno FROM vozila",
		s.dialect.FilterCountExpr("u_prometu = 1"), s.dialect.FilterCountExpr("u_prometu = 0"))
	kpi, err := store.QueryRow(ctx, s.db, kpiSQL)
	if err != nil {
		span.SetStatus("error")
		return nil, fmt.Errorf("vehicle kpi: %w", err)
	}

	d := &Dashboard{
		Vehicles: VehicleKPI{
			InService:    store.ToInt64(kpi["u_prometu"]),
			OutOfService: store.ToInt64(kpi["van_prometa"]),
			Total:        store.ToInt64(kpi["ukupno"]),
		},
		Charts: make(map[string][]ChartPoint, len(charts)),
	}
	for _, c := range charts {
		rows, err := store.QueryRows(ctx, s.db, c.sql)
		if err != nil {
			span.SetStatus("error")
			return nil, fmt.Errorf("chart %s: %w", c.key, err)
		}
		points := make([]ChartPoint, 0, len(rows))
		for _, r := range rows {
			points = append(points, ChartPoint{Label: r["label"], Value: store.ToInt64(r["value"])})
		}
		d.Charts[c.key] = points
	}
	span.SetStatus("ok")
	return d, nil
}

// Lines orders lines by the numeric part of their label, so 6 sorts before 14.
func (s *Service) Lines(ctx context.Context) ([]map[string]any, error) {
	sql := fmt.Sprintf("SELECT id, oznaka, naziv, tip_linije FROM linije ORDER BY %s, oznaka", s.dialect.CastInt("oznaka"))
	return s.rows(ctx, "lines", sql)
}

func (s *Service) Vehicles(ctx context.Context) ([]map[string]any, error) {
	return s.rows(ctx, "vehicles",
		"SELECT id, tip_vozila, u_prometu, vrsta_goriva, kapacitet_putnika FROM vozila ORDER BY tip_vozila, id")
}

// Mechanics lists employees who can be assigned to maintenance.
func (s *Service) Mechanics(ctx context.Context) ([]map[string]any, error) {
	pb := s.dialect.NewParamBuilder()
	sql := fmt.Sprintf("SELECT id, %s AS label FROM zaposlenik WHERE naziv_uloge = %s ORDER BY prezime, ime",
		s.dialect.Concat("ime", "' '", "prezime"), pb.Add(metadata.MechanicRole))
	return s.rows(ctx, "mechanics", sql, pb.Params()...)
}

// Timetable returns a line's departures and ordered stops. Line is nil when
// the id does not exist.
func (s *Service) Timetable(ctx context.Context, lineID int64) (*Timetable, error) {
	pb := s.dialect.NewParamBuilder()
	line, err := store.QueryRow(ctx, s.db,
		"SELECT id, oznaka, naziv, tip_linije FROM linije WHERE id = "+pb.Add(lineID)+" LIMIT 1", pb.Params()...)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("timetable line: %w", err)
	}

	pb = s.dialect.NewParamBuilder()
	rows, err := s.rows(ctx, "timetable", `SELECT vr.id, vr.vrijeme_polaska, v.tip_vozila, k.kalendar_naziv
		FROM vozni_red vr
		JOIN vozila v ON v.id = vr.vozilo_id
		JOIN kalendari k ON k.id = vr.kalendar_id
		WHERE vr.linija_id = `+pb.Add(lineID)+`
		ORDER BY vr.vrijeme_polaska ASC`, pb.Params()...)
	if err != nil {
		return nil, err
	}

	pb = s.dialect.NewParamBuilder()
	stops, err := s.rows(ctx, "timetable stops", `SELECT ls.redoslijed, s.naziv AS stanica, z.zona_kod
		FROM linije_stanice ls
		JOIN stanice s ON s.id = ls.stanica_id
		JOIN zone z ON z.id = s.zona_id
		WHERE ls.linija_id = `+pb.Add(lineID)+`
		ORDER BY ls.redoslijed ASC`, pb.Params()...)
	if err != nil {
		return nil, err
	}

	return &Timetable{Line: line, Rows: rows, Stops: stops}, nil
}

func (s *Service) Complaints(ctx context.Context, f ComplaintFilter) ([]map[string]any, error) {
	pb := s.dialect.NewParamBuilder()
	var where []string
	if f.Status != "" {
		where = append(where, "pr.status_rjesavanja = "+pb.Add(f.Status))
	}
	if f.Category != "" {
		where = append(where, "pr.kategorija_prituzbe = "+pb.Add(f.Category))
	}
	if f.LineID != 0 {
		where = append(where, "pr.linija_id = "+pb.Add(f.LineID))
	}

	sql := fmt.Sprintf(`SELECT pr.id, pr.datum_prituzbe, pr.kategorija_prituzbe, pr.status_rjesavanja, pr.tekst_prituzbe,
			%s AS korisnik_ime, k.email AS korisnik_email,
			l.oznaka AS linija_oznaka, l.naziv AS linija_naziv
		FROM prituzbe pr
		JOIN korisnici k ON k.id = pr.korisnik_id
		LEFT JOIN linije l ON l.id = pr.linija_id%s
		ORDER BY pr.datum_prituzbe DESC
		LIMIT %d`, s.dialect.Concat("k.ime", "' '", "k.prezime"), whereSQL(where), listLimit)
	return s.rows(ctx, "complaints", sql, pb.Params()...)
}

func (s *Service) Fines(ctx context.Context, f FineFilter) ([]map[string]any, error) {
	pb := s.dialect.NewParamBuilder()
	var where []string
	if f.Status != "" {
		where = append(where, "p.status_placanja = "+pb.Add(f.Status))
	}
	if f.From != "" {
		where = append(where, "p.datum_prekrsaja >= "+pb.Add(f.From))
	}
	if f.To != "" {
		where = append(where, "p.datum_prekrsaja <= "+pb.Add(f.To))
	}

	sql := fmt.Sprintf(`SELECT p.id, p.datum_prekrsaja, p.iznos_kazne, p.status_placanja, p.napomena,
			%s AS korisnik_ime, k.email AS korisnik_email
		FROM prekrsaji p
		JOIN korisnici k ON k.id = p.korisnik_id%s
		ORDER BY p.datum_prekrsaja DESC
		LIMIT %d`, s.dialect.Concat("k.ime", "' '", "k.prezime"), whereSQL(where), listLimit)
	return s.rows(ctx, "fines", sql, pb.Params()...)
}

func (s *Service) Maintenance(ctx context.Context, f MaintenanceFilter) ([]map[string]any, error) {
	pb := s.dialect.NewParamBuilder()
	var where []string
	if f.ServiceType != "" {
		where = append(where, "o.vrsta_servisa = "+pb.Add(f.ServiceType))
	}
	if f.From != "" {
		where = append(where, "o.datum_servisa >= "+pb.Add(f.From))
	}
	if f.To != "" {
		where = append(where, "o.datum_servisa <= "+pb.Add(f.To))
	}

	sql := fmt.Sprintf(`SELECT o.id, o.datum_servisa, o.vrsta_servisa, o.trosak_servisa, o.opis_radova,
			v.tip_vozila, v.vrsta_goriva, v.kapacitet_putnika,
			%s AS mehanicar
		FROM odrzavanje_vozila o
		JOIN vozila v ON v.id = o.vozilo_id
		JOIN zaposlenik z ON z.id = o.zaposlenik_id%s
		ORDER BY o.datum_servisa DESC
		LIMIT %d`, s.dialect.Concat("z.ime", "' '", "z.prezime"), whereSQL(where), listLimit)
	return s.rows(ctx, "maintenance", sql, pb.Params()...)
}

// SetComplaintStatus changes status_rjesavanja of one complaint.
func (s *Service) SetComplaintStatus(ctx context.Context, id int64, status string) (int64, error) {
	return s.setStatus(ctx, "prituzbe", "status_rjesavanja", id, status)
}

// SetFineStatus changes status_placanja of one fine.
func (s *Service) SetFineStatus(ctx context.Context, id int64, status string) (int64, error) {
	return s.setStatus(ctx, "prekrsaji", "status_placanja", id, status)
}

func (s *Service) setStatus(ctx context.Context, table, column string, id int64, status string) (int64, error) {
	pb := s.dialect.NewParamBuilder()
	sql := fmt.Sprintf("UPDATE %s SET %s = %s WHERE id = %s", table, column, pb.Add(status), pb.Add(id))
	affected, err := store.Exec(ctx, s.db, sql, pb.Params()...)
	if err != nil {
		return 0, fmt.Errorf("update %s status: %w", table, store.MapError(s.dialect, err))
	}
	if affected > 0 {
		instrument.GetInstrumenter(ctx).Audit(ctx, "update", table, fmt.Sprint(id), map[string]any{column: status})
	}
	return affected, nil
}

// AddMaintenance inserts a maintenance record and returns its id.
func (s *Service) AddMaintenance(ctx context.Context, m NewMaintenance) (any, error) {
	pb := s.dialect.NewParamBuilder()
	var desc any
	if m.Description != "" {
		desc = m.Description
	}
	sql := fmt.Sprintf(`INSERT INTO odrzavanje_vozila (vozilo_id, zaposlenik_id, datum_servisa, vrsta_servisa, trosak_servisa, opis_radova)
		VALUES (%s, %s, %s, %s, %s, %s)`,
		pb.Add(m.VehicleID), pb.Add(m.EmployeeID), pb.Add(m.Date), pb.Add(m.ServiceType), pb.Add(m.Cost), pb.Add(desc))

	id, err := store.InsertReturningID(ctx, s.db, s.dialect, sql, "id", pb.Params()...)
	if err != nil {
		return nil, fmt.Errorf("insert maintenance: %w", store.MapError(s.dialect, err))
	}
	instrument.GetInstrumenter(ctx).Audit(ctx, "insert", "odrzavanje_vozila", fmt.Sprint(id), nil)
	return id, nil
}

func (s *Service) rows(ctx context.Context, what, sql string, args ...any) ([]map[string]any, error) {
	rows, err := store.QueryRows(ctx, s.db, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", what, err)
	}
	if rows == nil {
		rows = []map[string]any{}
	}
	return rows, nil
}

func whereSQL(where []string) string {
	if len(where) == 0 {
		return ""
	}
	return "\n\t\tWHERE " + strings.Join(where, " AND ")
}
