package shared

import (
	"net/http"
	"strings"

	"github.com/odyssey-erp/odyssey-backoffice/internal/api"
	internalShared "github.com/odyssey-erp/odyssey-backoffice/internal/shared"
)

// ListFilters represents standard list page filters.
type ListFilters struct {
	Page int
	// Search is passed to the backend as free-text search.
	Search string
	// Query filters the loaded page locally.
	Query string
}

// FiltersFromRequest reads page, search and q from the query string.
func FiltersFromRequest(r *http.Request) ListFilters {
	q := r.URL.Query()
	return ListFilters{
		Page:   internalShared.PageFromQuery(q),
		Search: strings.TrimSpace(q.Get("search")),
		Query:  q.Get("q"),
	}
}

// Params converts the filters into backend list parameters.
func (f ListFilters) Params() api.ListParams {
	return api.ListParams{Page: f.Page, Search: f.Search}
}
