package web

import "github.com/gofiber/fiber/v2"

func RegisterRoutes(app *fiber.App, h *Handler) {
	app.Get("/", h.Index)
	app.Get("/templates", h.TemplateList)
	app.Get("/fill/:name", h.FillForm)
	app.Post("/fill/:name", h.SubmitForm)
	app.Get("/view/:id", h.ViewForm)
	app.Get("/upload", h.UploadForm)
	app.Post("/upload", h.UploadTemplate)
	app.Get("/edit-template/:name", h.EditTemplateForm)
	app.Post("/edit-template/:name", h.EditTemplate)
	app.Get("/edit-data/:id", h.EditDataForm)
	app.Post("/edit-data/:id", h.EditData)
}
