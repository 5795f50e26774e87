package warehouses

import (
	"context"
	"log/slog"

	"github.com/odyssey-erp/odyssey-backoffice/internal/listing"
	"github.com/odyssey-erp/odyssey-backoffice/internal/masterdata/shared"
	"github.com/odyssey-erp/odyssey-backoffice/internal/view"
)

const BasePath = "/masterdata/warehouses"

type Handler = shared.Handler[Warehouse, *Form]

var Columns = []listing.Column[Warehouse]{
	{Header: "Name", Value: func(w Warehouse) any { return w.Name }},
	{Header: "Location", Value: func(w Warehouse) any { return w.Location }},
	{Header: "Contact", Value: func(w Warehouse) any { return w.ContactName }},
	{Header: "Tel", Value: func(w Warehouse) any { return w.ContactTel }},
	{Header: "Email", Value: func(w Warehouse) any { return w.ContactEmail }},
	{Header: "Receives email", Value: func(w Warehouse) any { return w.ReceiveEmail }},
}

func NewHandler(service *Service, branches shared.Lister[Branch], pages *view.Pages, logger *slog.Logger, pageSize int) *Handler {
	return shared.NewHandler(shared.Config[Warehouse, *Form]{
		Title:     "Warehouses",
		Singular:  "warehouse",
		BasePath:  BasePath,
		Columns:   Columns,
		ID:        func(w Warehouse) int64 { return w.ID },
		Label:     func(w Warehouse) string { return w.Name },
		ParseForm: parseForm,
		FromModel: fromModel,
		EmptyForm: func() *Form { return &Form{} },
		Fields: func(ctx context.Context, f *Form) ([]view.Fieldset, error) {
			branchOpts, err := shared.CollectOptions(ctx, branches, pageSize,
				func(b Branch) int64 { return b.ID },
				func(b Branch) string { return b.Name })
			if err != nil {
				return nil, err
			}
			return []view.Fieldset{
				{Fields: []view.Field{
					{Name: "name", Label: "Name", Type: view.InputText, Value: f.Name, Required: true},
					{Name: "location", Label: "Location", Type: view.InputTextarea, Value: f.Location},
					{Name: "branchId", Label: "Branch", Type: view.InputSelect, Value: f.BranchID, Options: branchOpts},
					{Name: "organizationId", Label: "Organization ID", Type: view.InputText, Value: f.OrganizationID},
				}},
				{Legend: "Contact", Fields: []view.Field{
					{Name: "contactName", Label: "Name", Type: view.InputText, Value: f.ContactName},
					{Name: "contactTel", Label: "Tel", Type: view.InputText, Value: f.ContactTel},
					{Name: "contactEmail", Label: "Email", Type: view.InputEmail, Value: f.ContactEmail},
					{Name: "receiveEmail", Label: "Receive stock emails", Type: view.InputCheckbox, Checked: f.ReceiveEmail},
				}},
			}, nil
		},
	}, service, pages, logger, pageSize)
}
