package ops

import (
	"context"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"transit-backend/internal/engine"
	"transit-backend/internal/metadata"
)

type Handler struct {
	svc        *Service
	normalizer engine.Normalizer
}

func NewHandler(svc *Service, n engine.Normalizer) *Handler {
	if n == nil {
		n = engine.NewHeuristicNormalizer()
	}
	return &Handler{svc: svc, normalizer: n}
}

// Dashboard handles GET /api/ops/dashboard
func (h *Handler) Dashboard(c *fiber.Ctx) error {
	d, err := h.svc.Dashboard(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(d)
}

// Lines handles GET /api/ops/lines
func (h *Handler) Lines(c *fiber.Ctx) error {
	return rowsResponse(c)(h.svc.Lines(c.UserContext()))
}

// Vehicles handles GET /api/ops/vehicles
func (h *Handler) Vehicles(c *fiber.Ctx) error {
	return rowsResponse(c)(h.svc.Vehicles(c.UserContext()))
}

// Mechanics handles GET /api/ops/mechanics
func (h *Handler) Mechanics(c *fiber.Ctx) error {
	return rowsResponse(c)(h.svc.Mechanics(c.UserContext()))
}

// Timetable handles GET /api/ops/timetable?linija_id=
func (h *Handler) Timetable(c *fiber.Ctx) error {
	lineID := toID(c.Query("linija_id"))
	if lineID <= 0 {
		return engine.InvalidInputError("linija_id je obavezan.")
	}
	tt, err := h.svc.Timetable(c.UserContext(), lineID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"line": nullableRow(tt.Line), "rows": tt.Rows, "stops": tt.Stops})
}

// Complaints handles GET /api/ops/complaints
func (h *Handler) Complaints(c *fiber.Ctx) error {
	f := ComplaintFilter{
		Status:   c.Query("status"),
		Category: c.Query("kategorija"),
		LineID:   toID(c.Query("linija_id")),
	}
	return rowsResponse(c)(h.svc.Complaints(c.UserContext(), f))
}

// Fines handles GET /api/ops/fines
func (h *Handler) Fines(c *fiber.Ctx) error {
	f := FineFilter{Status: c.Query("status"), From: c.Query("from"), To: c.Query("to")}
	return rowsResponse(c)(h.svc.Fines(c.UserContext(), f))
}

// Maintenance handles GET /api/ops/maintenance
func (h *Handler) Maintenance(c *fiber.Ctx) error {
	f := MaintenanceFilter{ServiceType: c.Query("vrsta"), From: c.Query("from"), To: c.Query("to")}
	return rowsResponse(c)(h.svc.Maintenance(c.UserContext(), f))
}

// UpdateComplaint handles PATCH /api/ops/complaints/:id
func (h *Handler) UpdateComplaint(c *fiber.Ctx) error {
	return h.patchStatus(c, "status_rjesavanja", metadata.ComplaintStatuses, h.svc.SetComplaintStatus)
}

// UpdateFine handles PATCH /api/ops/fines/:id
func (h *Handler) UpdateFine(c *fiber.Ctx) error {
	return h.patchStatus(c, "status_placanja", metadata.FineStatuses, h.svc.SetFineStatus)
}

func (h *Handler) patchStatus(c *fiber.Ctx, field string, allowed []string,
	set func(ctx context.Context, id int64, status string) (int64, error)) error {
	id := toID(c.Params("id"))
	if id == 0 {
		return engine.InvalidInputError("id je obavezan.")
	}
	body, err := engine.ParseBody(c)
	if err != nil {
		return err
	}
	status := stringField(body, field)
	if !slices.Contains(allowed, status) {
		return engine.InvalidInputError("Neispravan " + field + ".")
	}

	affected, err := set(c.UserContext(), id, status)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"ok": true, "affectedRows": affected})
}

// CreateMaintenance handles POST /api/ops/maintenance
func (h *Handler) CreateMaintenance(c *fiber.Ctx) error {
	body, err := engine.ParseBody(c)
	if err != nil {
		return err
	}
	m, err := h.parseMaintenance(body)
	if err != nil {
		return err
	}
	id, err := h.svc.AddMaintenance(c.UserContext(), m)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"id": id})
}

func (h *Handler) parseMaintenance(body map[string]any) (NewMaintenance, error) {
	m := NewMaintenance{
		VehicleID:   toID(body["vozilo_id"]),
		EmployeeID:  toID(body["zaposlenik_id"]),
		ServiceType: stringField(body, "vrsta_servisa"),
		Description: stringField(body, "opis_radova"),
	}
	if m.VehicleID == 0 {
		return m, engine.InvalidInputError("vozilo_id je obavezan.")
	}
	if m.EmployeeID == 0 {
		return m, engine.InvalidInputError("zaposlenik_id je obavezan.")
	}
	m.Date, _ = h.normalizer.Normalize("datum_servisa", stringField(body, "datum_servisa")).(string)
	if m.Date == "" {
		return m, engine.InvalidInputError("datum_servisa je obavezan.")
	}
	if !slices.Contains(metadata.ServiceTypes, m.ServiceType) {
		return m, engine.InvalidInputError("Neispravan vrsta_servisa.")
	}
	cost, ok := toNumber(body["trosak_servisa"])
	if !ok || cost < 0 {
		return m, engine.InvalidInputError("trosak_servisa mora biti broj >= 0.")
	}
	m.Cost = cost
	return m, nil
}

func rowsResponse(c *fiber.Ctx) func([]map[string]any, error) error {
	return func(rows []map[string]any, err error) error {
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"rows": rows})
	}
}

// nullableRow keeps a missing row as JSON null rather than {}.
func nullableRow(row map[string]any) any {
	if row == nil {
		return nil
	}
	return row
}

func stringField(body map[string]any, key string) string {
	switch v := body[key].(type) {
	case string:
		return v
	case nil:
		return ""
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return ""
	}
}

// toID reads an integer id from a query value or JSON number. Anything
// non-integral reads as 0.
func toID(v any) int64 {
	f, ok := toNumber(v)
	if !ok || f != math.Trunc(f) || math.Abs(f) > 1<<53 {
		return 0
	}
	return int64(f)
}

func toNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, !math.IsNaN(n) && !math.IsInf(n, 0)
	case int64:
		return float64(n), true
	case int:
		return float64(n), true
	case string:
		s := strings.TrimSpace(n)
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}
