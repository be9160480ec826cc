package api

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"formdesk/internal/entity"
	"formdesk/internal/listing"
	"formdesk/internal/store"
)

// Handler translates query-string parameters into listing engine calls and
// formats responses as JSON pages or CSV attachments. Both collections go
// through the same code paths; only the entity gateway differs.
type Handler struct {
	engine *listing.Engine
}

func NewHandler(engine *listing.Engine) *Handler {
	return &Handler{engine: engine}
}

func (h *Handler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// List handles GET /api/questions and GET /api/forms.
func (h *Handler) List(ent *entity.Entity) fiber.Handler {
	return func(c *fiber.Ctx) error {
		q, err := listing.ParseQuery(c, ent)
		if err != nil {
			return err
		}
		result, err := h.engine.List(c.Context(), ent, q)
		if err != nil {
			return err
		}
		return c.JSON(result)
	}
}

// GetByID handles GET /api/questions/:id and GET /api/forms/:id. The row is
// returned bare, not wrapped in an envelope.
func (h *Handler) GetByID(ent *entity.Entity) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := c.Params("id")
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return listing.NotFoundError(ent.Name, raw)
		}
		row, err := h.engine.Get(c.Context(), ent, id)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return listing.NotFoundError(ent.Name, raw)
			}
			return fmt.Errorf("get %s/%d: %w", ent.Name, id, err)
		}
		return c.JSON(row)
	}
}

// ExportCSV handles GET /api/questions.csv and GET /api/forms.csv.
func (h *Handler) ExportCSV(ent *entity.Entity, filename string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var buf bytes.Buffer
		if err := h.engine.ExportCSV(c.Context(), ent, c.Query("search"), &buf); err != nil {
			return err
		}
		c.Set(fiber.HeaderContentType, "text/csv")
		c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename=%s`, filename))
		return c.Send(buf.Bytes())
	}
}
