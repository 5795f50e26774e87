package warehouses

import (
	"github.com/odyssey-erp/odyssey-backoffice/internal/api"
	"github.com/odyssey-erp/odyssey-backoffice/internal/masterdata/shared"
	"github.com/odyssey-erp/odyssey-backoffice/internal/querycache"
)

const (
	Resource       = "warehouse"
	BranchResource = "branch"
)

type Repository = shared.Repository[Warehouse]

func NewRepository(client *api.Client, cache *querycache.Cache) Repository {
	return shared.NewRepository(api.NewResource[Warehouse](client, Resource), cache)
}

// NewBranchRepository reads branch options. Only List is used.
func NewBranchRepository(client *api.Client, cache *querycache.Cache) shared.Repository[Branch] {
	return shared.NewRepository(api.NewResource[Branch](client, BranchResource), cache)
}
