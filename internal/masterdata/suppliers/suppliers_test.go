package suppliers

import (
	"encoding/json"
	"net/http"
	"net/url"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-backoffice/internal/masterdata/categories"
	"github.com/odyssey-erp/odyssey-backoffice/internal/testing/webtest"
)

func TestFormRejectsBadEmail(t *testing.T) {
	form := parseForm(url.Values{"companyName": {"Acme"}, "contactEmail": {"not-an-email"}})
	res := form.Validate()
	require.False(t, res.OK())
	assert.Equal(t, "Enter a valid email address.", res.Errors["contactEmail"])
}

func TestCreateSupplierWithCategory(t *testing.T) {
	env := webtest.New(t)
	env.Backend.Seed(categories.Resource, map[string]any{"id": 4, "name": "Paper"})
	catRepo := categories.NewRepository(env.Client, env.Cache)
	h := NewHandler(NewService(NewRepository(env.Client, env.Cache), env.Cache, env.Logger), catRepo, env.Pages, env.Logger, 20)
	router := env.Router(func(r chi.Router) { r.Route(BasePath, h.MountRoutes) })

	form := env.Get(router, BasePath+"/new")
	require.Equal(t, http.StatusOK, form.Code)
	assert.Contains(t, form.Body.String(), `<option value="4">Paper</option>`)

	rec := env.PostForm(router, BasePath+"/new", url.Values{
		"companyName":  {"Acme Paper"},
		"categoryId":   {"4"},
		"contactEmail": {"sales@acme.test"},
		"isActive":     {"on"},
	})
	require.Equal(t, http.StatusSeeOther, rec.Code)

	posts := env.Backend.Calls(Resource, http.MethodPost)
	require.Len(t, posts, 1)
	assert.Equal(t, "Acme Paper", posts[0].Body["companyName"])
	assert.Equal(t, json.Number("4"), posts[0].Body["categoryId"])
	assert.Equal(t, true, posts[0].Body["isActive"])
}
