package items

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/odyssey-erp/odyssey-backoffice/internal/listing"
	"github.com/odyssey-erp/odyssey-backoffice/internal/masterdata/categories"
	"github.com/odyssey-erp/odyssey-backoffice/internal/masterdata/shared"
	"github.com/odyssey-erp/odyssey-backoffice/internal/masterdata/units"
	"github.com/odyssey-erp/odyssey-backoffice/internal/view"
)

const BasePath = "/masterdata/items"

type Handler = shared.Handler[StockItem, *Form]

var Columns = []listing.Column[StockItem]{
	{Header: "Code", Value: func(s StockItem) any { return s.Code }},
	{Header: "Name", Value: func(s StockItem) any { return s.Name }},
	{Header: "Category", Value: func(s StockItem) any { return s.CategoryID }},
	{Header: "Stock", Value: func(s StockItem) any { return s.StockLevel }},
	{Header: "Reorder level", Value: func(s StockItem) any { return s.ReorderLevel }},
	{Header: "Reorder", Value: func(s StockItem) any { return s.BelowReorder() }},
	{Header: "Next expiry", Value: func(s StockItem) any { return s.NextExpiry().Time }},
}

// Options are the select sources of the item form.
type Options struct {
	Categories categories.Repository
	Units      units.Repository
	PageSize   int
}

func NewHandler(service *Service, opts Options, pages *view.Pages, logger *slog.Logger, pageSize int) *Handler {
	return shared.NewHandler(shared.Config[StockItem, *Form]{
		Title:     "Stock items",
		Singular:  "stock item",
		BasePath:  BasePath,
		Columns:   Columns,
		ID:        func(s StockItem) int64 { return s.ID },
		Label:     func(s StockItem) string { return s.Code + " " + s.Name },
		ParseForm: parseForm,
		FromModel: fromModel,
		EmptyForm: func() *Form { return &Form{StockLevel: "0", ReorderLevel: "0"} },
		Fields:    opts.fields,
	}, service, pages, logger, pageSize)
}

func (o Options) fields(ctx context.Context, f *Form) ([]view.Fieldset, error) {
	var categoryOpts, unitOpts []view.Option
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		categoryOpts, err = shared.CollectOptions(gctx, o.Categories, o.PageSize,
			func(c categories.Category) int64 { return c.ID },
			func(c categories.Category) string { return c.Name })
		return err
	})
	g.Go(func() error {
		var err error
		unitOpts, err = shared.CollectOptions(gctx, o.Units, o.PageSize,
			func(u units.Unit) int64 { return u.ID }, units.Unit.Label)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return []view.Fieldset{
		{Fields: []view.Field{
			{Name: "code", Label: "Code", Type: view.InputText, Value: f.Code, Required: true},
			{Name: "name", Label: "Name", Type: view.InputText, Value: f.Name, Required: true},
			{Name: "categoryId", Label: "Category", Type: view.InputSelect, Value: f.CategoryID, Options: categoryOpts, Required: true},
		}},
		{Legend: "Units", Fields: []view.Field{
			{Name: "displayUnitId", Label: "Display unit", Type: view.InputSelect, Value: f.DisplayUnitID, Options: unitOpts, Required: true},
			{Name: "baseUnitId", Label: "Base unit", Type: view.InputSelect, Value: f.BaseUnitID, Options: unitOpts, Required: true},
		}},
		{Legend: "Stock", Fields: []view.Field{
			{Name: "stockLevel", Label: "Stock level", Type: view.InputNumber, Value: f.StockLevel},
			{Name: "reorderLevel", Label: "Reorder level", Type: view.InputNumber, Value: f.ReorderLevel},
			{Name: "expirationDates", Label: "Expiration dates", Type: view.InputText, Value: f.ExpirationDates, Help: "YYYY-MM-DD, comma separated."},
		}},
	}, nil
}
