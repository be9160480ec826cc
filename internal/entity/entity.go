// Package entity declares the tabular collections exposed through the
// listing engine: each Entity names its columns, which of them are
// free-text searchable, and how raw database values are serialized for
// responses. The engine itself carries no per-collection logic; adding a
// listable collection means adding one declaration here.
package entity

import (
	"encoding/json"
	"time"
)

// Column types understood by the per-column serializer.
const (
	TypeInt       = "int"
	TypeText      = "text"
	TypeTimestamp = "timestamp"
	TypeJSON      = "json" // structured value stored as serialized text
)

type Column struct {
	Name       string
	Type       string
	Searchable bool
}

type Entity struct {
	Name       string
	Table      string
	PrimaryKey string
	Columns    []Column
}

// GetColumn returns a pointer to the column with the given name, or nil.
func (e *Entity) GetColumn(name string) *Column {
	for i := range e.Columns {
		if e.Columns[i].Name == name {
			return &e.Columns[i]
		}
	}
	return nil
}

// HasColumn returns true if the entity has a column with the given name.
// Every declared column is sortable.
func (e *Entity) HasColumn(name string) bool {
	return e.GetColumn(name) != nil
}

// ColumnNames returns all column names in declaration order. The order
// defines JSON and CSV field order.
func (e *Entity) ColumnNames() []string {
	names := make([]string, len(e.Columns))
	for i, c := range e.Columns {
		names[i] = c.Name
	}
	return names
}

// SearchableColumns returns the names of the free-text searchable columns.
func (e *Entity) SearchableColumns() []string {
	var names []string
	for _, c := range e.Columns {
		if c.Searchable {
			names = append(names, c.Name)
		}
	}
	return names
}

// SerializeRow applies the per-column serializers to a raw database row:
// timestamps become ISO-8601 strings, JSON-text columns are parsed and
// embedded as structured values, everything else passes through.
func (e *Entity) SerializeRow(row map[string]any) map[string]any {
	out := make(map[string]any, len(e.Columns))
	for _, c := range e.Columns {
		out[c.Name] = serializeValue(c.Type, row[c.Name])
	}
	return out
}

func serializeValue(colType string, v any) any {
	if v == nil {
		return nil
	}
	switch colType {
	case TypeJSON:
		if s, ok := v.(string); ok {
			var parsed any
			if err := json.Unmarshal([]byte(s), &parsed); err == nil {
				return parsed
			}
		}
		// Unparseable stored text is returned as-is rather than dropped.
		return v
	case TypeTimestamp:
		if t, ok := v.(time.Time); ok {
			return t.UTC().Format(time.RFC3339)
		}
		return v
	default:
		return v
	}
}

// Questions is the read-only reference table of question rows.
func Questions() *Entity {
	return &Entity{
		Name:       "question",
		Table:      "questions",
		PrimaryKey: "id",
		Columns: []Column{
			{Name: "id", Type: TypeInt},
			{Name: "title", Type: TypeText, Searchable: true},
			{Name: "text", Type: TypeText, Searchable: true},
			{Name: "created_at", Type: TypeTimestamp},
			{Name: "updated_at", Type: TypeTimestamp},
		},
	}
}

// CompletedForms is the collection of persisted form submissions.
func CompletedForms() *Entity {
	return &Entity{
		Name:       "form",
		Table:      "completed_forms",
		PrimaryKey: "id",
		Columns: []Column{
			{Name: "id", Type: TypeInt},
			{Name: "template_name", Type: TypeText, Searchable: true},
			{Name: "timestamp", Type: TypeTimestamp},
			{Name: "form_data", Type: TypeJSON},
		},
	}
}
