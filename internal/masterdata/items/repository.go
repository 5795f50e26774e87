package items

import (
	"github.com/odyssey-erp/odyssey-backoffice/internal/api"
	"github.com/odyssey-erp/odyssey-backoffice/internal/masterdata/shared"
	"github.com/odyssey-erp/odyssey-backoffice/internal/querycache"
)

const Resource = "item"

type Repository = shared.Repository[StockItem]

func NewRepository(client *api.Client, cache *querycache.Cache) Repository {
	return shared.NewRepository(api.NewResource[StockItem](client, Resource), cache)
}
