package categories

import (
	"context"
	"log/slog"

	"github.com/odyssey-erp/odyssey-backoffice/internal/listing"
	"github.com/odyssey-erp/odyssey-backoffice/internal/masterdata/shared"
	"github.com/odyssey-erp/odyssey-backoffice/internal/view"
)

// BasePath is where the category screens are mounted.
const BasePath = "/masterdata/categories"

type Handler = shared.Handler[Category, *Form]

// Columns are shown in the list and exported to xlsx.
var Columns = []listing.Column[Category]{
	{Header: "ID", Value: func(c Category) any { return c.ID }},
	{Header: "Name", Value: func(c Category) any { return c.Name }},
	{Header: "Description", Value: func(c Category) any { return c.Description }},
}

func NewHandler(service *Service, pages *view.Pages, logger *slog.Logger, pageSize int) *Handler {
	return shared.NewHandler(shared.Config[Category, *Form]{
		Title:     "Categories",
		Singular:  "category",
		BasePath:  BasePath,
		Columns:   Columns,
		ID:        func(c Category) int64 { return c.ID },
		Label:     func(c Category) string { return c.Name },
		ParseForm: parseForm,
		FromModel: fromModel,
		EmptyForm: func() *Form { return &Form{} },
		Fields:    fields,
	}, service, pages, logger, pageSize)
}

func fields(_ context.Context, f *Form) ([]view.Fieldset, error) {
	return []view.Fieldset{{Fields: []view.Field{
		{Name: "name", Label: "Name", Type: view.InputText, Value: f.Name, Required: true},
		{Name: "description", Label: "Description", Type: view.InputTextarea, Value: f.Description},
		{Name: "organizationId", Label: "Organization ID", Type: view.InputText, Value: f.OrganizationID, Help: "Leave blank to use your own organization."},
	}}}, nil
}
