package forms

import "encoding/json"

// Field types. Everything except info participates in submissions; info
// fields are display-only.
const (
	FieldText     = "text"
	FieldTextarea = "textarea"
	FieldNumber   = "number"
	FieldDropdown = "dropdown"
	FieldInfo     = "info"
)

type FieldSpec struct {
	Label   string   `json:"label,omitempty"`
	Type    string   `json:"type,omitempty"`
	Text    string   `json:"text,omitempty"` // display text for info fields
	Options []string `json:"options,omitempty"`
}

// Submits returns true if the field contributes a value to submissions.
func (f FieldSpec) Submits() bool {
	return f.Label != "" && f.Type != FieldInfo
}

// Template is a loaded form definition. Name is the resolved map key;
// SourcePath points back at the document on disk so edits can be written
// in place even when the template's id differs from the file name.
type Template struct {
	Name       string
	Fields     []FieldSpec
	SourcePath string
}

// templateDoc is the on-disk JSON shape. Extra keys are ignored.
type templateDoc struct {
	ID     string      `json:"id"`
	Name   string      `json:"name"`
	Fields []FieldSpec `json:"fields"`
}

func parseTemplate(content []byte, fallbackName string) (*Template, error) {
	var doc templateDoc
	if err := json.Unmarshal(content, &doc); err != nil {
		return nil, err
	}
	name := doc.ID
	if name == "" {
		name = doc.Name
	}
	if name == "" {
		name = fallbackName
	}
	return &Template{Name: name, Fields: doc.Fields}, nil
}
