package forms

// RenderedField pairs a field spec with the value an HTML form should show
// for it. Info fields always carry an empty value.
type RenderedField struct {
	Spec  FieldSpec
	Value string
}

// RenderFields produces the ordered field list needed to render (or
// re-render) a form, pre-filled from existing values where present.
func RenderFields(t *Template, existing map[string]string) []RenderedField {
	fields := make([]RenderedField, 0, len(t.Fields))
	for _, f := range t.Fields {
		rf := RenderedField{Spec: f}
		if f.Submits() {
			rf.Value = existing[f.Label]
		}
		fields = append(fields, rf)
	}
	return fields
}

// ExtractSubmission flattens raw form values into a label-to-value map.
// The template defines the shape: the result's key set is exactly the
// template's labeled non-info fields, regardless of what was submitted.
// Unknown keys are dropped, missing keys default to the empty string, and
// values pass through as strings with no coercion
// (number/dropdown/textarea included).
func ExtractSubmission(t *Template, raw map[string]string) map[string]string {
	data := make(map[string]string)
	for _, f := range t.Fields {
		if !f.Submits() {
			continue
		}
		data[f.Label] = raw[f.Label]
	}
	return data
}
