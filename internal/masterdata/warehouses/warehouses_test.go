package warehouses

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-backoffice/internal/testing/webtest"
)

func TestReceiveEmailNeedsAddress(t *testing.T) {
	form := parseForm(url.Values{"name": {"Main"}, "receiveEmail": {"on"}})
	res := form.Validate()
	require.False(t, res.OK())
	assert.True(t, res.Errors.Has("contactEmail"))

	form.ContactEmail = "stock@example.test"
	assert.True(t, form.Validate().OK())
}

func TestPayloadOptionalIDs(t *testing.T) {
	body, err := parseForm(url.Values{"name": {"Main"}, "branchId": {"9"}}).Payload()
	require.NoError(t, err)
	w := body.(Warehouse)
	require.NotNil(t, w.BranchID)
	assert.Equal(t, int64(9), *w.BranchID)
	assert.Nil(t, w.OrganizationID)
}

func TestEditShowsBranchOptions(t *testing.T) {
	env := webtest.New(t)
	env.Backend.Seed(BranchResource, map[string]any{"id": 9, "name": "Bandung"})
	env.Backend.Seed(Resource, map[string]any{"id": 3, "name": "Main", "branchId": 9})
	h := NewHandler(NewService(NewRepository(env.Client, env.Cache), env.Cache, env.Logger),
		NewBranchRepository(env.Client, env.Cache), env.Pages, env.Logger, 20)
	router := env.Router(func(r chi.Router) { r.Route(BasePath, h.MountRoutes) })

	rec := env.Get(router, BasePath+"/3/edit")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `<option value="9" selected>Bandung</option>`)
}

func TestMissingWarehouseRendersNotFound(t *testing.T) {
	env := webtest.New(t)
	h := NewHandler(NewService(NewRepository(env.Client, env.Cache), env.Cache, env.Logger),
		NewBranchRepository(env.Client, env.Cache), env.Pages, env.Logger, 20)
	router := env.Router(func(r chi.Router) { r.Route(BasePath, h.MountRoutes) })

	assert.Equal(t, http.StatusNotFound, env.Get(router, BasePath+"/99/edit").Code)
	assert.Equal(t, http.StatusBadRequest, env.Get(router, BasePath+"/abc/edit").Code)
}
