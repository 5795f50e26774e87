package units

import (
	"github.com/odyssey-erp/odyssey-backoffice/internal/api"
	"github.com/odyssey-erp/odyssey-backoffice/internal/masterdata/shared"
	"github.com/odyssey-erp/odyssey-backoffice/internal/querycache"
)

const Resource = "unit"

type Repository = shared.Repository[Unit]

func NewRepository(client *api.Client, cache *querycache.Cache) Repository {
	return shared.NewRepository(api.NewResource[Unit](client, Resource), cache)
}
