package units

import (
	"context"
	"log/slog"

	"github.com/odyssey-erp/odyssey-backoffice/internal/listing"
	"github.com/odyssey-erp/odyssey-backoffice/internal/masterdata/shared"
	"github.com/odyssey-erp/odyssey-backoffice/internal/view"
)

const BasePath = "/masterdata/units"

type Handler = shared.Handler[Unit, *Form]

var Columns = []listing.Column[Unit]{
	{Header: "ID", Value: func(u Unit) any { return u.ID }},
	{Header: "Name", Value: func(u Unit) any { return u.Name }},
	{Header: "Abbreviation", Value: func(u Unit) any { return u.Abbreviation }},
}

func NewHandler(service *Service, pages *view.Pages, logger *slog.Logger, pageSize int) *Handler {
	return shared.NewHandler(shared.Config[Unit, *Form]{
		Title:     "Units",
		Singular:  "unit",
		BasePath:  BasePath,
		Columns:   Columns,
		ID:        func(u Unit) int64 { return u.ID },
		Label:     Unit.Label,
		ParseForm: parseForm,
		FromModel: fromModel,
		EmptyForm: func() *Form { return &Form{} },
		Fields: func(_ context.Context, f *Form) ([]view.Fieldset, error) {
			return []view.Fieldset{{Fields: []view.Field{
				{Name: "name", Label: "Name", Type: view.InputText, Value: f.Name, Required: true},
				{Name: "abbreviation", Label: "Abbreviation", Type: view.InputText, Value: f.Abbreviation},
			}}}, nil
		},
	}, service, pages, logger, pageSize)
}
