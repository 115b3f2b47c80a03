// Package admin exposes read-only introspection of the table registry for
// the admin front-end.
package admin

import (
	"github.com/gofiber/fiber/v2"

	"transit-backend/internal/engine"
	"transit-backend/internal/metadata"
)

type Handler struct {
	registry *metadata.Registry
}

func NewHandler(reg *metadata.Registry) *Handler {
	return &Handler{registry: reg}
}

func RegisterRoutes(api fiber.Router, h *Handler) {
	api.Get("/health", h.Health)
	api.Get("/tables", h.ListTables)
	api.Get("/tables/:name", h.GetTable)
}

func (h *Handler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"ok": true})
}

// ListTables returns the registered table names in declaration order, plus
// the association tables that have their own endpoint.
func (h *Handler) ListTables(c *fiber.Ctx) error {
	special := []string{}
	if a := h.registry.Association(); a != nil {
		special = append(special, a.Name)
	}
	return c.JSON(fiber.Map{"tables": h.registry.Names(), "special": special})
}

func (h *Handler) GetTable(c *fiber.Ctx) error {
	name := c.Params("name")
	if a := h.registry.Association(); a != nil && a.Name == name {
		return c.JSON(a)
	}
	td, ok := h.registry.Resolve(name)
	if !ok {
		return engine.UnknownTableError()
	}
	return c.JSON(td)
}
