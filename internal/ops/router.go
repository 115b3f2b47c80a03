package ops

import "github.com/gofiber/fiber/v2"

// RegisterRoutes mounts the reporting endpoints on r (usually /api/ops).
func RegisterRoutes(r fiber.Router, h *Handler) {
	r.Get("/dashboard", h.Dashboard)
	r.Get("/lines", h.Lines)
	r.Get("/vehicles", h.Vehicles)
	r.Get("/mechanics", h.Mechanics)
	r.Get("/timetable", h.Timetable)

	r.Get("/complaints", h.Complaints)
	r.Patch("/complaints/:id", h.UpdateComplaint)
	r.Get("/fines", h.Fines)
	r.Patch("/fines/:id", h.UpdateFine)
	r.Get("/maintenance", h.Maintenance)
	r.Post("/maintenance", h.CreateMaintenance)
}
