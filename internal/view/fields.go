package view

import (
	"sort"

	"github.com/odyssey-erp/odyssey-backoffice/internal/forms"
)

// Input types understood by partials/field.html.
const (
	InputText      = "text"
	InputTextarea  = "textarea"
	InputEmail     = "email"
	InputNumber    = "number"
	InputDate      = "date"
	InputSelect    = "select"
	InputCheckbox  = "checkbox"
	InputTags      = "tags"
	InputSignature = "signature"
	InputChecklist = "checklist"
	InputHidden    = "hidden"
)

// Option is one choice of a select input.
type Option struct {
	Value string
	Label string
}

// Field is one rendered form control.
type Field struct {
	Name     string
	Label    string
	Type     string
	Value    string
	Checked  bool
	Required bool
	Help     string
	Error    string
	Options  []Option
	// Values holds the selected options of a checklist.
	Values []string
}

// Repeater is a table of rows sharing the same columns, such as the
// devices of a shop. Field names carry the row index: devices[0].name.
type Repeater struct {
	Name    string
	Legend  string
	Columns []Field
	Rows    [][]Field
}

// Fieldset groups fields under a legend.
type Fieldset struct {
	Legend string
	Fields []Field
}

// WithErrors copies field errors onto the matching fields.
func WithErrors(fields []Field, errs forms.FieldErrors) []Field {
	if len(errs) == 0 {
		return fields
	}
	out := make([]Field, len(fields))
	for i, f := range fields {
		f.Error = errs[f.Name]
		out[i] = f
	}
	return out
}

// UnmatchedErrors returns messages whose key matches none of fields, so the
// form can still show them.
func UnmatchedErrors(fields []Field, errs forms.FieldErrors) []string {
	known := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		known[f.Name] = struct{}{}
	}
	var out []string
	for k, msg := range errs {
		if _, ok := known[k]; !ok {
			out = append(out, msg)
		}
	}
	sort.Strings(out)
	return out
}
