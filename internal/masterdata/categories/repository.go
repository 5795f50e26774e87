package categories

import (
	"github.com/odyssey-erp/odyssey-backoffice/internal/api"
	"github.com/odyssey-erp/odyssey-backoffice/internal/masterdata/shared"
	"github.com/odyssey-erp/odyssey-backoffice/internal/querycache"
)

// Resource is the backend collection name.
const Resource = "category"

// Repository reads and writes categories.
type Repository = shared.Repository[Category]

// NewRepository binds the category resource.
func NewRepository(client *api.Client, cache *querycache.Cache) Repository {
	return shared.NewRepository(api.NewResource[Category](client, Resource), cache)
}
