package items

import (
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-backoffice/internal/api"
	"github.com/odyssey-erp/odyssey-backoffice/internal/masterdata/categories"
	"github.com/odyssey-erp/odyssey-backoffice/internal/masterdata/units"
	"github.com/odyssey-erp/odyssey-backoffice/internal/testing/webtest"
)

func TestFormValidation(t *testing.T) {
	form := parseForm(url.Values{
		"code":            {"SKU-1"},
		"name":            {"Paper roll"},
		"categoryId":      {"2"},
		"displayUnitId":   {"1"},
		"baseUnitId":      {"1"},
		"stockLevel":      {"-3"},
		"reorderLevel":    {"abc"},
		"expirationDates": {"2025-01-01, tomorrow"},
	})
	res := form.Validate()
	require.False(t, res.OK())
	assert.True(t, res.Errors.Has("stockLevel"))
	assert.True(t, res.Errors.Has("reorderLevel"))
	assert.True(t, res.Errors.Has("expirationDates"))
	assert.False(t, res.Errors.Has("code"))
}

func TestFormPayload(t *testing.T) {
	form := parseForm(url.Values{
		"code":            {"SKU-1"},
		"name":            {"Paper roll"},
		"categoryId":      {"2"},
		"displayUnitId":   {"3"},
		"baseUnitId":      {"4"},
		"stockLevel":      {"12.5"},
		"reorderLevel":    {"5"},
		"expirationDates": {"2025-03-01, 2025-01-15"},
	})
	require.True(t, form.Validate().OK())

	body, err := form.Payload()
	require.NoError(t, err)
	item := body.(StockItem)
	assert.Equal(t, int64(2), item.CategoryID)
	assert.Equal(t, int64(4), item.BaseUnitID)
	assert.True(t, decimal.RequireFromString("12.5").Equal(item.StockLevel))
	require.Len(t, item.ExpirationDates, 2)
	assert.Equal(t, "2025-01-15", item.NextExpiry().DateString())

	back := fromModel(item)
	assert.Equal(t, "2025-03-01, 2025-01-15", back.ExpirationDates)
	assert.Equal(t, "12.5", back.StockLevel)
}

func TestBelowReorder(t *testing.T) {
	item := StockItem{StockLevel: decimal.NewFromInt(5), ReorderLevel: decimal.NewFromInt(5)}
	assert.True(t, item.BelowReorder())
	item.StockLevel = decimal.NewFromInt(6)
	assert.False(t, item.BelowReorder())
	assert.False(t, StockItem{}.BelowReorder())
}

func TestNextExpirySkipsZero(t *testing.T) {
	day := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	item := StockItem{ExpirationDates: []api.Timestamp{{}, api.NewTimestamp(day)}}
	assert.Equal(t, "2025-06-01", item.NextExpiry().DateString())
	assert.True(t, StockItem{}.NextExpiry().IsZero())
}

func TestNewFormLoadsOptions(t *testing.T) {
	env := webtest.New(t)
	env.Backend.Seed(categories.Resource, map[string]any{"name": "Consumables"})
	env.Backend.Seed(units.Resource, map[string]any{"name": "Piece", "abbreviation": "pcs"})

	catRepo := categories.NewRepository(env.Client, env.Cache)
	unitRepo := units.NewRepository(env.Client, env.Cache)
	h := NewHandler(NewService(NewRepository(env.Client, env.Cache), env.Cache, env.Logger),
		Options{Categories: catRepo, Units: unitRepo, PageSize: 20}, env.Pages, env.Logger, 20)
	router := env.Router(func(r chi.Router) { r.Route(BasePath, h.MountRoutes) })

	rec := env.Get(router, BasePath+"/new")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Consumables")
	assert.Contains(t, rec.Body.String(), "pcs")
}
