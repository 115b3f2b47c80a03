package engine

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

type Handler struct {
	crud  *CRUD
	assoc *Association
}

func NewHandler(crud *CRUD, assoc *Association) *Handler {
	return &Handler{crud: crud, assoc: assoc}
}

// List handles GET /api/crud/:table
func (h *Handler) List(c *fiber.Ctx) error {
	result, err := h.crud.List(c.UserContext(), c.Params("table"), ParseQuerySpec(c))
	if err != nil {
		return err
	}
	return c.JSON(result)
}

// GetByID handles GET /api/crud/:table/:id
func (h *Handler) GetByID(c *fiber.Ctx) error {
	row, err := h.crud.Get(c.UserContext(), c.Params("table"), idParam(c))
	if err != nil {
		return err
	}
	return c.JSON(row)
}

// Create handles POST /api/crud/:table
func (h *Handler) Create(c *fiber.Ctx) error {
	body, err := ParseBody(c)
	if err != nil {
		return err
	}
	id, err := h.crud.Insert(c.UserContext(), c.Params("table"), body)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"id": id})
}

// Update handles PUT /api/crud/:table/:id
func (h *Handler) Update(c *fiber.Ctx) error {
	body, err := ParseBody(c)
	if err != nil {
		return err
	}
	affected, err := h.crud.Update(c.UserContext(), c.Params("table"), idParam(c), body)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"affectedRows": affected})
}

// Delete handles DELETE /api/crud/:table/:id
func (h *Handler) Delete(c *fiber.Ctx) error {
	affected, err := h.crud.Delete(c.UserContext(), c.Params("table"), idParam(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"affectedRows": affected})
}

// ListLineStops handles GET /api/linije-stanice
func (h *Handler) ListLineStops(c *fiber.Ctx) error {
	rows, err := h.assoc.List(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"rows": rows})
}

// CreateLineStop handles POST /api/linije-stanice
func (h *Handler) CreateLineStop(c *fiber.Ctx) error {
	body, err := ParseBody(c)
	if err != nil {
		return err
	}
	if err := h.assoc.Insert(c.UserContext(), body); err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"ok": true})
}

// UpdateLineStop handles PUT /api/linije-stanice
func (h *Handler) UpdateLineStop(c *fiber.Ctx) error {
	body, err := ParseBody(c)
	if err != nil {
		return err
	}
	affected, err := h.assoc.UpdateOrder(c.UserContext(), body)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"affectedRows": affected})
}

// DeleteLineStop handles DELETE /api/linije-stanice; the pair comes in the body.
func (h *Handler) DeleteLineStop(c *fiber.Ctx) error {
	body, err := ParseBody(c)
	if err != nil {
		return err
	}
	affected, err := h.assoc.Delete(c.UserContext(), body)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"affectedRows": affected})
}

// ParseBody decodes a JSON object body. An empty body is an empty object.
func ParseBody(c *fiber.Ctx) (map[string]any, error) {
	body := map[string]any{}
	raw := c.Body()
	if len(raw) == 0 {
		return body, nil
	}
	if err := c.App().Config().JSONDecoder(raw, &body); err != nil {
		return nil, InvalidInputError("Neispravan JSON.")
	}
	if body == nil {
		body = map[string]any{}
	}
	return body, nil
}

// idParam copies the :id param; fiber reuses its buffer after the handler
// returns and the id can outlive the request in audit events.
func idParam(c *fiber.Ctx) string {
	return strings.Clone(c.Params("id"))
}
