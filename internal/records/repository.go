// Package records persists completed-form submissions. A record is created
// at submit time, replaced wholesale at edit time, and never partially
// patched. The JSON-text boundary for form_data lives here on the write
// side; the entity gateway owns it on the read side.
package records

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"formdesk/internal/store"
)

type CompletedForm struct {
	ID           int64
	TemplateName string
	Timestamp    time.Time
	Data         map[string]string
}

// Summary is the listing row for the index page.
type Summary struct {
	ID           int64
	TemplateName string
	Timestamp    time.Time
}

type Repository struct {
	store *store.Store
}

func NewRepository(s *store.Store) *Repository {
	return &Repository{store: s}
}

// Create inserts a new completed form and returns its id.
func (r *Repository) Create(ctx context.Context, templateName string, data map[string]string) (int64, error) {
	encoded, err := json.Marshal(data)
	if err != nil {
		return 0, fmt.Errorf("encode form data: %w", err)
	}

	d := r.store.Dialect
	pb := d.NewParamBuilder()
	sqlStr := fmt.Sprintf(
		"INSERT INTO completed_forms (template_name, timestamp, form_data) VALUES (%s, %s, %s) RETURNING id",
		pb.Add(templateName), pb.Add(d.TimeParam(time.Now().UTC())), pb.Add(string(encoded)))

	var id int64
	if err := r.store.DB.QueryRowContext(ctx, sqlStr, pb.Params()...).Scan(&id); err != nil {
		return 0, fmt.Errorf("insert completed form: %w", err)
	}
	return id, nil
}

// Get fetches a completed form by id, rehydrating its value map.
func (r *Repository) Get(ctx context.Context, id int64) (*CompletedForm, error) {
	pb := r.store.Dialect.NewParamBuilder()
	sqlStr := fmt.Sprintf(
		"SELECT id, template_name, timestamp, form_data FROM completed_forms WHERE id = %s", pb.Add(id))
	row, err := store.QueryRow(ctx, r.store.DB, sqlStr, pb.Params()...)
	if err != nil {
		return nil, err
	}

	form := &CompletedForm{
		ID:           toInt64(row["id"]),
		TemplateName: asString(row["template_name"]),
		Data:         map[string]string{},
	}
	if ts, ok := row["timestamp"].(time.Time); ok {
		form.Timestamp = ts
	}
	if raw := asString(row["form_data"]); raw != "" {
		if err := json.Unmarshal([]byte(raw), &form.Data); err != nil {
			return nil, fmt.Errorf("decode form data for %d: %w", id, err)
		}
	}
	return form, nil
}

// UpdateData replaces a record's entire value map. Returns store.ErrNotFound
// if the record does not exist.
func (r *Repository) UpdateData(ctx context.Context, id int64, data map[string]string) error {
	encoded, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode form data: %w", err)
	}

	pb := r.store.Dialect.NewParamBuilder()
	sqlStr := fmt.Sprintf("UPDATE completed_forms SET form_data = %s WHERE id = %s",
		pb.Add(string(encoded)), pb.Add(id))
	affected, err := store.Exec(ctx, r.store.DB, sqlStr, pb.Params()...)
	if err != nil {
		return fmt.Errorf("update completed form %d: %w", id, err)
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

// Recent lists submissions newest-first for the index page.
func (r *Repository) Recent(ctx context.Context) ([]Summary, error) {
	rows, err := store.QueryRows(ctx, r.store.DB,
		"SELECT id, template_name, timestamp FROM completed_forms ORDER BY id DESC")
	if err != nil {
		return nil, fmt.Errorf("list completed forms: %w", err)
	}

	summaries := make([]Summary, 0, len(rows))
	for _, row := range rows {
		s := Summary{
			ID:           toInt64(row["id"]),
			TemplateName: asString(row["template_name"]),
		}
		if ts, ok := row["timestamp"].(time.Time); ok {
			s.Timestamp = ts
		}
		summaries = append(summaries, s)
	}
	return summaries, nil
}

func toInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case float64:
		return int64(n)
	default:
		return 0
	}
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}
