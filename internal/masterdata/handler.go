package masterdata

import (
	"log/slog"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/odyssey-backoffice/internal/api"
	"github.com/odyssey-erp/odyssey-backoffice/internal/masterdata/categories"
	"github.com/odyssey-erp/odyssey-backoffice/internal/masterdata/items"
	"github.com/odyssey-erp/odyssey-backoffice/internal/masterdata/suppliers"
	"github.com/odyssey-erp/odyssey-backoffice/internal/masterdata/units"
	"github.com/odyssey-erp/odyssey-backoffice/internal/masterdata/warehouses"
	"github.com/odyssey-erp/odyssey-backoffice/internal/querycache"
	"github.com/odyssey-erp/odyssey-backoffice/internal/view"
)

// Handler mounts the master data screens.
type Handler struct {
	Categories *categories.Handler
	Units      *units.Handler
	Items      *items.Handler
	Suppliers  *suppliers.Handler
	Warehouses *warehouses.Handler
}

// NewHandler wires every master data entity against the backend client.
func NewHandler(logger *slog.Logger, client *api.Client, cache *querycache.Cache, pages *view.Pages, pageSize int) *Handler {
	catRepo := categories.NewRepository(client, cache)
	unitRepo := units.NewRepository(client, cache)
	itemRepo := items.NewRepository(client, cache)
	supplierRepo := suppliers.NewRepository(client, cache)
	warehouseRepo := warehouses.NewRepository(client, cache)
	branchRepo := warehouses.NewBranchRepository(client, cache)

	return &Handler{
		Categories: categories.NewHandler(categories.NewService(catRepo, cache, logger), pages, logger, pageSize),
		Units:      units.NewHandler(units.NewService(unitRepo, cache, logger), pages, logger, pageSize),
		Items: items.NewHandler(items.NewService(itemRepo, cache, logger), items.Options{
			Categories: catRepo,
			Units:      unitRepo,
			PageSize:   pageSize,
		}, pages, logger, pageSize),
		Suppliers:  suppliers.NewHandler(suppliers.NewService(supplierRepo, cache, logger), catRepo, pages, logger, pageSize),
		Warehouses: warehouses.NewHandler(warehouses.NewService(warehouseRepo, cache, logger), branchRepo, pages, logger, pageSize),
	}
}

// MountRoutes registers master data routes below r.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/categories", h.Categories.MountRoutes)
	r.Route("/units", h.Units.MountRoutes)
	r.Route("/items", h.Items.MountRoutes)
	r.Route("/suppliers", h.Suppliers.MountRoutes)
	r.Route("/warehouses", h.Warehouses.MountRoutes)
}
