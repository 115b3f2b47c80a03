package engine

import "github.com/gofiber/fiber/v2"

// RegisterRoutes mounts the generic CRUD and linije-stanice endpoints on api.
func RegisterRoutes(api fiber.Router, h *Handler) {
	crud := api.Group("/crud")
	crud.Get("/:table", h.List)
	crud.Get("/:table/:id", h.GetByID)
	crud.Post("/:table", h.Create)
	crud.Put("/:table/:id", h.Update)
	crud.Delete("/:table/:id", h.Delete)

	api.Get("/linije-stanice", h.ListLineStops)
	api.Post("/linije-stanice", h.CreateLineStop)
	api.Put("/linije-stanice", h.UpdateLineStop)
	api.Delete("/linije-stanice", h.DeleteLineStop)
}
