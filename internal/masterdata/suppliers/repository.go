package suppliers

import (
	"github.com/odyssey-erp/odyssey-backoffice/internal/api"
	"github.com/odyssey-erp/odyssey-backoffice/internal/masterdata/shared"
	"github.com/odyssey-erp/odyssey-backoffice/internal/querycache"
)

const Resource = "supplier"

type Repository = shared.Repository[Supplier]

func NewRepository(client *api.Client, cache *querycache.Cache) Repository {
	return shared.NewRepository(api.NewResource[Supplier](client, Resource), cache)
}
