package suppliers

import (
	"context"
	"log/slog"

	"github.com/odyssey-erp/odyssey-backoffice/internal/listing"
	"github.com/odyssey-erp/odyssey-backoffice/internal/masterdata/categories"
	"github.com/odyssey-erp/odyssey-backoffice/internal/masterdata/shared"
	"github.com/odyssey-erp/odyssey-backoffice/internal/view"
)

const BasePath = "/masterdata/suppliers"

type Handler = shared.Handler[Supplier, *Form]

var Columns = []listing.Column[Supplier]{
	{Header: "Company", Value: func(s Supplier) any { return s.CompanyName }},
	{Header: "Contact", Value: func(s Supplier) any { return s.ContactName }},
	{Header: "Tel", Value: func(s Supplier) any { return s.ContactTel }},
	{Header: "Email", Value: func(s Supplier) any { return s.ContactEmail }},
	{Header: "Address", Value: func(s Supplier) any { return s.Address }},
	{Header: "Active", Value: func(s Supplier) any { return s.IsActive }},
}

func NewHandler(service *Service, cats categories.Repository, pages *view.Pages, logger *slog.Logger, pageSize int) *Handler {
	return shared.NewHandler(shared.Config[Supplier, *Form]{
		Title:     "Suppliers",
		Singular:  "supplier",
		BasePath:  BasePath,
		Columns:   Columns,
		ID:        func(s Supplier) int64 { return s.ID },
		Label:     func(s Supplier) string { return s.CompanyName },
		ParseForm: parseForm,
		FromModel: fromModel,
		EmptyForm: func() *Form { return &Form{IsActive: true} },
		Fields: func(ctx context.Context, f *Form) ([]view.Fieldset, error) {
			categoryOpts, err := shared.CollectOptions(ctx, cats, pageSize,
				func(c categories.Category) int64 { return c.ID },
				func(c categories.Category) string { return c.Name })
			if err != nil {
				return nil, err
			}
			return []view.Fieldset{
				{Fields: []view.Field{
					{Name: "companyName", Label: "Company name", Type: view.InputText, Value: f.CompanyName, Required: true},
					{Name: "categoryId", Label: "Category", Type: view.InputSelect, Value: f.CategoryID, Options: categoryOpts},
					{Name: "address", Label: "Address", Type: view.InputTextarea, Value: f.Address},
					{Name: "isActive", Label: "Active", Type: view.InputCheckbox, Checked: f.IsActive},
				}},
				{Legend: "Contact", Fields: []view.Field{
					{Name: "contactName", Label: "Name", Type: view.InputText, Value: f.ContactName},
					{Name: "contactTel", Label: "Tel", Type: view.InputText, Value: f.ContactTel},
					{Name: "contactEmail", Label: "Email", Type: view.InputEmail, Value: f.ContactEmail},
				}},
			}, nil
		},
	}, service, pages, logger, pageSize)
}
