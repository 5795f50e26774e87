package categories_test

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-backoffice/internal/masterdata/categories"
	"github.com/odyssey-erp/odyssey-backoffice/internal/testing/webtest"
)

func newRouter(env *webtest.Env) http.Handler {
	repo := categories.NewRepository(env.Client, env.Cache)
	h := categories.NewHandler(categories.NewService(repo, env.Cache, env.Logger), env.Pages, env.Logger, 20)
	return env.Router(func(r chi.Router) {
		r.Route(categories.BasePath, h.MountRoutes)
	})
}

func TestCategoryLifecycle(t *testing.T) {
	env := webtest.New(t)
	router := newRouter(env)

	// Prime the list cache so later reads prove invalidation.
	list := env.Get(router, categories.BasePath)
	require.Equal(t, http.StatusOK, list.Code)
	assert.NotContains(t, list.Body.String(), "Printers")

	created := env.PostForm(router, categories.BasePath+"/new", url.Values{"name": {"Printers"}})
	list = env.Follow(router, created)
	require.Equal(t, http.StatusOK, list.Code)
	assert.Contains(t, list.Body.String(), "Printers")
	assert.Contains(t, list.Body.String(), "created.")
	require.Len(t, env.Backend.Records(categories.Resource), 1)

	edit := env.Get(router, categories.BasePath+"/1/edit")
	require.Equal(t, http.StatusOK, edit.Code)
	assert.Contains(t, edit.Body.String(), `value="Printers"`)

	updated := env.PostForm(router, categories.BasePath+"/1/edit", url.Values{
		"name":        {"Printers"},
		"description": {"Thermal and inkjet"},
	})
	list = env.Follow(router, updated)
	assert.Contains(t, list.Body.String(), "Thermal and inkjet")

	confirm := env.Get(router, categories.BasePath+"/1/delete")
	require.Equal(t, http.StatusOK, confirm.Code)
	assert.Contains(t, confirm.Body.String(), "Delete category Printers?")

	unconfirmed := env.PostForm(router, categories.BasePath+"/1/delete", url.Values{})
	assert.Equal(t, http.StatusOK, unconfirmed.Code)
	assert.Empty(t, env.Backend.Calls(categories.Resource, http.MethodDelete))

	deleted := env.PostForm(router, categories.BasePath+"/1/delete", url.Values{"confirm": {"yes"}})
	list = env.Follow(router, deleted)
	assert.Contains(t, list.Body.String(), "Category deleted.")
	assert.NotContains(t, list.Body.String(), "Printers")
	assert.Len(t, env.Backend.Calls(categories.Resource, http.MethodDelete), 1)
}

func TestCategoryEmptyNameNeverReachesBackend(t *testing.T) {
	env := webtest.New(t)
	router := newRouter(env)

	before := env.Backend.CallCount()
	rec := env.PostForm(router, categories.BasePath+"/new", url.Values{"name": {"   "}, "description": {"kept"}})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "This field is required.")
	assert.Contains(t, rec.Body.String(), "kept")
	assert.Equal(t, before, env.Backend.CallCount())
}

func TestCategoryListFiltersLocally(t *testing.T) {
	env := webtest.New(t)
	env.Backend.Seed(categories.Resource,
		map[string]any{"name": "Printers", "description": "Thermal"},
		map[string]any{"name": "Scanners", "description": "Barcode"},
	)
	router := newRouter(env)

	rec := env.Get(router, categories.BasePath+"?q=barcode")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Scanners")
	assert.NotContains(t, rec.Body.String(), "Printers")
}

func TestCategoryBackendFailureKeepsInput(t *testing.T) {
	env := webtest.New(t)
	router := newRouter(env)

	env.Backend.FailNext(categories.Resource, http.StatusInternalServerError)
	rec := env.PostForm(router, categories.BasePath+"/new", url.Values{"name": {"Printers"}})

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), `value="Printers"`)
	assert.Contains(t, rec.Body.String(), "Could not save category.")
	assert.Empty(t, env.Backend.Records(categories.Resource))
}

func TestCategoryListSignedOutRedirectsToLogin(t *testing.T) {
	env := webtest.New(t)
	env.Token = ""
	router := newRouter(env)

	rec := env.Get(router, categories.BasePath)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/auth/login?next=%2Fmasterdata%2Fcategories", rec.Header().Get("Location"))
}

func TestCategoryExports(t *testing.T) {
	env := webtest.New(t)
	env.Backend.Seed(categories.Resource, map[string]any{"name": "Printers"})
	router := newRouter(env)

	xlsx := env.Get(router, categories.BasePath+"/export.xlsx")
	require.Equal(t, http.StatusOK, xlsx.Code)
	assert.Contains(t, xlsx.Header().Get("Content-Disposition"), "categories-page-1.xlsx")
	assert.NotEmpty(t, xlsx.Body.Bytes())

	proxied := env.Get(router, categories.BasePath+"/export")
	require.Equal(t, http.StatusOK, proxied.Code)
	assert.Equal(t, "text/csv", proxied.Header().Get("Content-Type"))
	assert.Contains(t, proxied.Body.String(), "Printers")
}
