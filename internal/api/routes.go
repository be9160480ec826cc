package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"

	"formdesk/internal/entity"
)

// RegisterRoutes mounts the REST surface under /api. Health is open; every
// other route goes through the shared-secret check.
func RegisterRoutes(app *fiber.App, h *Handler, apiKey string) {
	questions := entity.Questions()
	forms := entity.CompletedForms()
	key := RequireKey(apiKey)

	group := app.Group("/api", cors.New())
	group.Get("/health", h.Health)

	group.Get("/questions", key, h.List(questions))
	group.Get("/questions.csv", key, h.ExportCSV(questions, "questions.csv"))
	group.Get("/questions/:id", key, h.GetByID(questions))
	group.Get("/forms", key, h.List(forms))
	group.Get("/forms.csv", key, h.ExportCSV(forms, "forms.csv"))
	group.Get("/forms/:id", key, h.GetByID(forms))
}
