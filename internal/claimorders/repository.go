package claimorders

import (
	"log/slog"

	"github.com/odyssey-erp/odyssey-backoffice/internal/api"
	"github.com/odyssey-erp/odyssey-backoffice/internal/masterdata/shared"
	"github.com/odyssey-erp/odyssey-backoffice/internal/querycache"
)

const Resource = "claimorder"

type Repository = shared.Repository[ClaimOrder]

func NewRepository(client *api.Client, cache *querycache.Cache) Repository {
	return shared.NewRepository(api.NewResource[ClaimOrder](client, Resource), cache)
}

type Service = shared.Service[ClaimOrder]

func NewService(repo Repository, cache shared.Invalidator, logger *slog.Logger) *Service {
	return shared.NewService(repo, cache, logger)
}
