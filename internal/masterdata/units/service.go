package units

import (
	"log/slog"

	"github.com/odyssey-erp/odyssey-backoffice/internal/masterdata/shared"
)

type Service = shared.Service[Unit]

func NewService(repo Repository, cache shared.Invalidator, logger *slog.Logger) *Service {
	return shared.NewService(repo, cache, logger)
}
