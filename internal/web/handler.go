package web

import (
	"errors"
	"fmt"
	"html/template"
	"io"
	"net/url"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/microcosm-cc/bluemonday"

	"formdesk/internal/forms"
	"formdesk/internal/records"
	"formdesk/internal/store"
)

// Handler serves the server-rendered pages: listing and filling templates,
// viewing and editing submissions, and managing template documents. It is a
// consumer of the template store, renderer, and records repository; no
// listing-engine logic lives here.
type Handler struct {
	templates *forms.Store
	records   *records.Repository
	sanitizer *bluemonday.Policy
	maxUpload int64
}

func NewHandler(templates *forms.Store, repo *records.Repository, maxUpload int64) *Handler {
	return &Handler{
		templates: templates,
		records:   repo,
		// Template documents are editable by admins only, but their info
		// text is still untrusted markup once rendered inline.
		sanitizer: bluemonday.UGCPolicy(),
		maxUpload: maxUpload,
	}
}

// fieldView is the per-field render model for fill and edit pages.
type fieldView struct {
	Label    string
	Type     string
	Options  []string
	Value    string
	InfoHTML template.HTML
}

func (h *Handler) fieldViews(rendered []forms.RenderedField) []fieldView {
	views := make([]fieldView, 0, len(rendered))
	for _, rf := range rendered {
		fv := fieldView{
			Label:   rf.Spec.Label,
			Type:    rf.Spec.Type,
			Options: rf.Spec.Options,
			Value:   rf.Value,
		}
		if rf.Spec.Type == forms.FieldInfo {
			text := rf.Spec.Text
			if text == "" {
				text = rf.Spec.Label
			}
			fv.InfoHTML = template.HTML(h.sanitizer.Sanitize(text))
		}
		views = append(views, fv)
	}
	return views
}

func (h *Handler) Index(c *fiber.Ctx) error {
	rows, err := h.records.Recent(c.Context())
	if err != nil {
		return err
	}
	return c.Render("index", fiber.Map{
		"Rows": rows,
		"Msg":  c.Query("msg"),
	})
}

func (h *Handler) TemplateList(c *fiber.Ctx) error {
	return c.Render("templates", fiber.Map{
		"Templates": h.templates.All(),
		"Msg":       c.Query("msg"),
	})
}

func (h *Handler) FillForm(c *fiber.Ctx) error {
	name := c.Params("name")
	tmpl, ok := h.templates.Get(name)
	if !ok {
		return redirectMsg(c, "/templates", "Template not found.")
	}
	return c.Render("fill", fiber.Map{
		"TemplateName": tmpl.Name,
		"Fields":       h.fieldViews(forms.RenderFields(tmpl, nil)),
	})
}

func (h *Handler) SubmitForm(c *fiber.Ctx) error {
	name := c.Params("name")
	tmpl, ok := h.templates.Get(name)
	if !ok {
		return redirectMsg(c, "/templates", "Template not found.")
	}

	data := forms.ExtractSubmission(tmpl, postedValues(c))
	if _, err := h.records.Create(c.Context(), tmpl.Name, data); err != nil {
		return err
	}
	return redirectMsg(c, "/", "Form submitted successfully.")
}

func (h *Handler) ViewForm(c *fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return redirectMsg(c, "/", "Form not found.")
	}
	rec, err := h.records.Get(c.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return redirectMsg(c, "/", "Form not found.")
		}
		return err
	}

	return c.Render("view", fiber.Map{
		"ID":           rec.ID,
		"TemplateName": rec.TemplateName,
		"Timestamp":    rec.Timestamp.Format(time.RFC3339),
		"Entries":      orderedEntries(rec.Data),
		"Msg":          c.Query("msg"),
	})
}

func (h *Handler) UploadForm(c *fiber.Ctx) error {
	return c.Render("upload", fiber.Map{"Msg": c.Query("msg")})
}

func (h *Handler) UploadTemplate(c *fiber.Ctx) error {
	fh, err := c.FormFile("template_file")
	if err != nil {
		return redirectMsg(c, "/upload", "Please upload a valid JSON file.")
	}
	if filepath.Ext(fh.Filename) != ".json" {
		return redirectMsg(c, "/upload", "Please upload a valid JSON file.")
	}
	if fh.Size > h.maxUpload {
		return redirectMsg(c, "/upload", "File too large.")
	}

	f, err := fh.Open()
	if err != nil {
		return fmt.Errorf("open uploaded template: %w", err)
	}
	defer f.Close()
	content, err := io.ReadAll(f)
	if err != nil {
		return fmt.Errorf("read uploaded template: %w", err)
	}

	if err := h.templates.Add(filepath.Base(fh.Filename), content); err != nil {
		if errors.Is(err, forms.ErrInvalidContent) {
			return redirectMsg(c, "/upload", "Error loading template: "+err.Error())
		}
		return err
	}
	return redirectMsg(c, "/templates", "Uploaded and loaded template: "+filepath.Base(fh.Filename))
}

func (h *Handler) EditTemplateForm(c *fiber.Ctx) error {
	name := c.Params("name")
	raw, err := h.templates.RawContent(name)
	if err != nil {
		return redirectMsg(c, "/templates", "Template not found.")
	}
	return c.Render("edit_template", fiber.Map{
		"TemplateName": name,
		"Content":      string(raw),
	})
}

func (h *Handler) EditTemplate(c *fiber.Ctx) error {
	name := c.Params("name")
	content := c.FormValue("template_json")

	err := h.templates.Save(name, []byte(content))
	if err == nil {
		return redirectMsg(c, "/templates", "Template "+name+" updated.")
	}
	if errors.Is(err, forms.ErrNotFound) {
		return redirectMsg(c, "/templates", "Template not found.")
	}
	if errors.Is(err, forms.ErrInvalidContent) {
		// Re-render the editor with the rejected content so nothing is lost.
		return c.Render("edit_template", fiber.Map{
			"TemplateName": name,
			"Content":      content,
			"Error":        err.Error(),
		})
	}
	return err
}

func (h *Handler) EditDataForm(c *fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return redirectMsg(c, "/", "Form entry not found.")
	}
	rec, err := h.records.Get(c.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return redirectMsg(c, "/", "Form entry not found.")
		}
		return err
	}
	tmpl, ok := h.templates.Get(rec.TemplateName)
	if !ok {
		return redirectMsg(c, "/", "Template not found for this entry.")
	}

	return c.Render("edit_data", fiber.Map{
		"ID":           rec.ID,
		"TemplateName": rec.TemplateName,
		"Timestamp":    rec.Timestamp.Format(time.RFC3339),
		"Fields":       h.fieldViews(forms.RenderFields(tmpl, rec.Data)),
	})
}

func (h *Handler) EditData(c *fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return redirectMsg(c, "/", "Form entry not found.")
	}
	rec, err := h.records.Get(c.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return redirectMsg(c, "/", "Form entry not found.")
		}
		return err
	}
	tmpl, ok := h.templates.Get(rec.TemplateName)
	if !ok {
		return redirectMsg(c, "/", "Template not found for this entry.")
	}

	// The current template defines the shape: stale stored fields are
	// dropped, newly added fields come through empty unless submitted.
	updated := forms.ExtractSubmission(tmpl, postedValues(c))
	if err := h.records.UpdateData(c.Context(), id, updated); err != nil {
		return err
	}
	return redirectMsg(c, fmt.Sprintf("/view/%d", id), fmt.Sprintf("Form #%d updated.", id))
}

type entry struct {
	Label string
	Value string
}

func orderedEntries(data map[string]string) []entry {
	labels := make([]string, 0, len(data))
	for label := range data {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	entries := make([]entry, 0, len(labels))
	for _, label := range labels {
		entries = append(entries, entry{Label: label, Value: data[label]})
	}
	return entries
}

func postedValues(c *fiber.Ctx) map[string]string {
	raw := make(map[string]string)
	c.Request().PostArgs().VisitAll(func(k, v []byte) {
		raw[string(k)] = string(v)
	})
	return raw
}

func redirectMsg(c *fiber.Ctx, path, msg string) error {
	return c.Redirect(path+"?msg="+url.QueryEscape(msg), fiber.StatusFound)
}
