package view

import "github.com/odyssey-erp/odyssey-backoffice/internal/shared"

// ListRow is one table row with its record id.
type ListRow struct {
	ID    string
	Cells []string
}

// ListPage drives pages/list.html.
type ListPage struct {
	Heading  string
	Singular string
	BasePath string
	Headers  []string
	Rows     []ListRow
	Query    string
	Search   string
	Pager    shared.Pager
	PrevURL  string
	NextURL  string
	Error    string
	// Printable adds a print link per row.
	Printable bool
	// ReadOnly hides edit and delete actions.
	ReadOnly bool
	// NewIsPost makes "New" a POST to BasePath/new.
	NewIsPost bool
}

// FormPage drives pages/form.html.
type FormPage struct {
	Heading     string
	Action      string
	CancelURL   string
	SubmitLabel string
	Fieldsets   []Fieldset
	Errors      []string
}

// ConfirmPage drives pages/confirm.html.
type ConfirmPage struct {
	Heading   string
	Message   string
	Action    string
	CancelURL string
}

// ErrorPage drives pages/error.html.
type ErrorPage struct {
	Heading  string
	Message  string
	RetryURL string
	BackURL  string
}
