package ops

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"

	"transit-backend/internal/engine"
	"transit-backend/internal/testutil"
)

func testApp(t *testing.T) *fiber.App {
	t.Helper()
	s := testutil.SeededDB(t)
	app := fiber.New(fiber.Config{ErrorHandler: engine.ErrorHandler})
	RegisterRoutes(app.Group("/api/ops"), NewHandler(NewService(s.DB, s.Dialect), nil))
	return app
}

func call(t *testing.T, app *fiber.App, method, path string, body any) (int, map[string]any) {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("%s %s: decode: %v", method, path, err)
	}
	return resp.StatusCode, out
}

func rowsOf(t *testing.T, body map[string]any) []map[string]any {
	t.Helper()
	raw, ok := body["rows"].([]any)
	if !ok {
		t.Fatalf("expected rows array, got %v", body)
	}
	rows := make([]map[string]any, len(raw))
	for i, r := range raw {
		rows[i] = r.(map[string]any)
	}
	return rows
}

func TestDashboard(t *testing.T) {
	app := testApp(t)
	status, body := call(t, app, "GET", "/api/ops/dashboard", nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d: %v", status, body)
	}

	kpi := body["vozila"].(map[string]any)
	if kpi["u_prometu"] != float64(2) || kpi["van_prometa"] != float64(1) || kpi["ukupno"] != float64(3) {
		t.Fatalf("unexpected kpi: %v", kpi)
	}

	charts := body["charts"].(map[string]any)
	for _, key := range []string{
		"vozila_po_gorivu", "prituzbe_po_statusu", "prituzbe_po_kategoriji", "prekrsaji_po_statusu",
		"servisi_po_vrsti", "zaposlenici_po_ulozi", "prodane_karte_po_tipu",
	} {
		if _, ok := charts[key].([]any); !ok {
			t.Fatalf("missing chart %s", key)
		}
	}

	fuel := charts["vozila_po_gorivu"].([]any)
	first := fuel[0].(map[string]any)
	if first["label"] != "Dizel" || first["value"] != float64(2) {
		t.Fatalf("expected Dizel first, got %v", fuel)
	}

	// Equal counts fall back to label order.
	fines := charts["prekrsaji_po_statusu"].([]any)
	if fines[0].(map[string]any)["label"] != "Neplaćeno" || fines[1].(map[string]any)["label"] != "Plaćeno" {
		t.Fatalf("expected label tiebreak, got %v", fines)
	}

	tickets := charts["prodane_karte_po_tipu"].([]any)
	if tickets[0].(map[string]any)["label"] != "Pojedinačna" || tickets[0].(map[string]any)["value"] != float64(2) {
		t.Fatalf("unexpected ticket chart: %v", tickets)
	}
}

func TestLines_NumericOrder(t *testing.T) {
	app := testApp(t)
	_, body := call(t, app, "GET", "/api/ops/lines", nil)
	rows := rowsOf(t, body)

	want := []string{"6", "14", "268"}
	if len(rows) != len(want) {
		t.Fatalf("expected %d lines, got %d", len(want), len(rows))
	}
	for i, w := range want {
		if rows[i]["oznaka"] != w {
			t.Fatalf("line %d = %v, want %s", i, rows[i]["oznaka"], w)
		}
	}
}

func TestVehiclesAndMechanics(t *testing.T) {
	app := testApp(t)

	_, body := call(t, app, "GET", "/api/ops/vehicles", nil)
	vehicles := rowsOf(t, body)
	if len(vehicles) != 3 || vehicles[0]["tip_vozila"] != "Autobus" || vehicles[0]["id"] != float64(2) {
		t.Fatalf("unexpected vehicles: %v", vehicles)
	}

	_, body = call(t, app, "GET", "/api/ops/mechanics", nil)
	mechanics := rowsOf(t, body)
	if len(mechanics) != 2 {
		t.Fatalf("expected 2 mechanics, got %v", mechanics)
	}
	if mechanics[0]["label"] != "Petra Anić" || mechanics[1]["label"] != "Marko Babić" {
		t.Fatalf("unexpected mechanic labels: %v", mechanics)
	}
}

func TestTimetable(t *testing.T) {
	app := testApp(t)

	status, body := call(t, app, "GET", "/api/ops/timetable?linija_id=1", nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if line := body["line"].(map[string]any); line["oznaka"] != "14" {
		t.Fatalf("unexpected line: %v", line)
	}
	rows := rowsOf(t, body)
	if len(rows) != 2 || rows[0]["vrijeme_polaska"] != "05:45:00" || rows[0]["kalendar_naziv"] != "Radni dan" {
		t.Fatalf("unexpected departures: %v", rows)
	}
	stops := body["stops"].([]any)
	if len(stops) != 2 {
		t.Fatalf("expected 2 stops, got %v", stops)
	}
	if s := stops[0].(map[string]any); s["stanica"] != "Glavni kolodvor" || s["zona_kod"] != "A" {
		t.Fatalf("unexpected first stop: %v", s)
	}

	_, body = call(t, app, "GET", "/api/ops/timetable?linija_id=999", nil)
	if body["line"] != nil || len(body["rows"].([]any)) != 0 {
		t.Fatalf("expected empty timetable, got %v", body)
	}

	for _, q := range []string{"", "?linija_id=", "?linija_id=abc", "?linija_id=-1", "?linija_id=0"} {
		status, body := call(t, app, "GET", "/api/ops/timetable"+q, nil)
		if status != http.StatusBadRequest || body["error"] != "linija_id je obavezan." {
			t.Fatalf("%q: expected 400, got %d %v", q, status, body)
		}
	}
}

func TestComplaints(t *testing.T) {
	app := testApp(t)

	_, body := call(t, app, "GET", "/api/ops/complaints", nil)
	rows := rowsOf(t, body)
	if len(rows) != 3 || rows[0]["id"] != float64(3) {
		t.Fatalf("expected newest first, got %v", rows)
	}
	if rows[0]["linija_oznaka"] != nil || rows[0]["korisnik_ime"] != "Luka Perić" {
		t.Fatalf("complaint without a line must still be listed: %v", rows[0])
	}

	tests := []struct {
		query string
		want  int
	}{
		{"?status=Novo", 2},
		{"?kategorija=%C4%8Cisto%C4%87a", 1},
		{"?linija_id=1", 2},
		{"?status=Novo&linija_id=1", 1},
		{"?linija_id=abc", 3},
	}
	for _, tt := range tests {
		_, body := call(t, app, "GET", "/api/ops/complaints"+tt.query, nil)
		if got := len(rowsOf(t, body)); got != tt.want {
			t.Fatalf("%s: got %d rows, want %d", tt.query, got, tt.want)
		}
	}
}

func TestUpdateComplaintStatus(t *testing.T) {
	app := testApp(t)

	status, body := call(t, app, "PATCH", "/api/ops/complaints/1", map[string]any{"status_rjesavanja": "Riješeno"})
	if status != http.StatusOK || body["ok"] != true || body["affectedRows"] != float64(1) {
		t.Fatalf("unexpected response: %d %v", status, body)
	}
	_, body = call(t, app, "GET", "/api/ops/complaints?status=Rije%C5%A1eno", nil)
	if rows := rowsOf(t, body); len(rows) != 1 || rows[0]["id"] != float64(1) {
		t.Fatalf("expected complaint 1 resolved, got %v", rows)
	}

	_, body = call(t, app, "PATCH", "/api/ops/complaints/999", map[string]any{"status_rjesavanja": "Novo"})
	if body["affectedRows"] != float64(0) {
		t.Fatalf("expected 0 rows for missing complaint, got %v", body)
	}

	status, body = call(t, app, "PATCH", "/api/ops/complaints/1", map[string]any{"status_rjesavanja": "Zatvoreno"})
	if status != http.StatusBadRequest || body["error"] != "Neispravan status_rjesavanja." {
		t.Fatalf("expected 400, got %d %v", status, body)
	}

	status, body = call(t, app, "PATCH", "/api/ops/complaints/abc", map[string]any{"status_rjesavanja": "Novo"})
	if status != http.StatusBadRequest || body["error"] != "id je obavezan." {
		t.Fatalf("expected 400, got %d %v", status, body)
	}
}

func TestFines(t *testing.T) {
	app := testApp(t)

	_, body := call(t, app, "GET", "/api/ops/fines?status=Pla%C4%87eno", nil)
	if rows := rowsOf(t, body); len(rows) != 1 || rows[0]["id"] != float64(2) {
		t.Fatalf("unexpected paid fines: %v", rows)
	}
	_, body = call(t, app, "GET", "/api/ops/fines?from=2024-03-01", nil)
	if rows := rowsOf(t, body); len(rows) != 1 {
		t.Fatalf("expected 1 fine since March, got %v", rows)
	}
	_, body = call(t, app, "GET", "/api/ops/fines?to=2024-03-01", nil)
	if rows := rowsOf(t, body); len(rows) != 1 || rows[0]["korisnik_ime"] != "Luka Perić" {
		t.Fatalf("unexpected fines before March: %v", rows)
	}

	status, body := call(t, app, "PATCH", "/api/ops/fines/1", map[string]any{"status_placanja": "U postupku"})
	if status != http.StatusOK || body["affectedRows"] != float64(1) {
		t.Fatalf("unexpected response: %d %v", status, body)
	}
	status, _ = call(t, app, "PATCH", "/api/ops/fines/1", map[string]any{"status_placanja": ""})
	if status != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty status, got %d", status)
	}
}

func TestMaintenance(t *testing.T) {
	app := testApp(t)

	_, body := call(t, app, "GET", "/api/ops/maintenance?vrsta=Redovni", nil)
	rows := rowsOf(t, body)
	if len(rows) != 1 || rows[0]["mehanicar"] != "Marko Babić" || rows[0]["tip_vozila"] != "Autobus" {
		t.Fatalf("unexpected maintenance rows: %v", rows)
	}

	status, body := call(t, app, "POST", "/api/ops/maintenance", map[string]any{
		"vozilo_id":      1,
		"zaposlenik_id":  3,
		"datum_servisa":  "2024-05-01T08:00:00.000Z",
		"vrsta_servisa":  "Tehnički pregled",
		"trosak_servisa": "80.5",
	})
	if status != http.StatusCreated {
		t.Fatalf("expected 201, got %d %v", status, body)
	}
	if id, ok := body["id"].(float64); !ok || id != 3 {
		t.Fatalf("expected id 3, got %v", body["id"])
	}

	_, body = call(t, app, "GET", "/api/ops/maintenance?from=2024-05-01", nil)
	rows = rowsOf(t, body)
	if len(rows) != 1 {
		t.Fatalf("expected the new record, got %v", rows)
	}
	if rows[0]["datum_servisa"] != "2024-05-01" || rows[0]["opis_radova"] != nil || rows[0]["trosak_servisa"] != 80.5 {
		t.Fatalf("unexpected stored record: %v", rows[0])
	}
}

func TestCreateMaintenance_Validation(t *testing.T) {
	app := testApp(t)
	valid := func() map[string]any {
		return map[string]any{
			"vozilo_id": 1, "zaposlenik_id": 2, "datum_servisa": "2024-05-01",
			"vrsta_servisa": "Redovni", "trosak_servisa": 10,
		}
	}

	tests := []struct {
		name   string
		mutate func(map[string]any)
		want   string
	}{
		{"missing vehicle", func(m map[string]any) { delete(m, "vozilo_id") }, "vozilo_id je obavezan."},
		{"missing employee", func(m map[string]any) { m["zaposlenik_id"] = "x" }, "zaposlenik_id je obavezan."},
		{"missing date", func(m map[string]any) { m["datum_servisa"] = "" }, "datum_servisa je obavezan."},
		{"bad service type", func(m map[string]any) { m["vrsta_servisa"] = "Pranje" }, "Neispravan vrsta_servisa."},
		{"negative cost", func(m map[string]any) { m["trosak_servisa"] = -1 }, "trosak_servisa mora biti broj >= 0."},
		{"missing cost", func(m map[string]any) { delete(m, "trosak_servisa") }, "trosak_servisa mora biti broj >= 0."},
		{"non-numeric cost", func(m map[string]any) { m["trosak_servisa"] = "skupo" }, "trosak_servisa mora biti broj >= 0."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := valid()
			tt.mutate(body)
			status, out := call(t, app, "POST", "/api/ops/maintenance", body)
			if status != http.StatusBadRequest || out["error"] != tt.want {
				t.Fatalf("expected 400 %q, got %d %v", tt.want, status, out)
			}
		})
	}

	_, body := call(t, app, "GET", "/api/ops/maintenance", nil)
	if rows := rowsOf(t, body); len(rows) != 2 {
		t.Fatalf("rejected requests must not write, got %d rows", len(rows))
	}
}

func TestToID(t *testing.T) {
	tests := []struct {
		in   any
		want int64
	}{
		{"12", 12},
		{" 7 ", 7},
		{float64(3), 3},
		{1.5, 0},
		{"abc", 0},
		{"", 0},
		{nil, 0},
		{true, 0},
		{"-4", -4},
	}
	for _, tt := range tests {
		if got := toID(tt.in); got != tt.want {
			t.Fatalf("toID(%#v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
