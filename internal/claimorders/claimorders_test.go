package claimorders

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/url"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-backoffice/internal/signature"
	"github.com/odyssey-erp/odyssey-backoffice/internal/testing/webtest"
	"github.com/odyssey-erp/odyssey-backoffice/internal/view"
)

type fakePDF struct {
	html []byte
	err  error
}

func (f *fakePDF) RenderHTML(_ context.Context, html []byte) ([]byte, error) {
	f.html = html
	if f.err != nil {
		return nil, f.err
	}
	return []byte("%PDF-fake"), nil
}

func signaturePNG(t *testing.T) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 2))
	img.Set(1, 1, color.Black)
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return signature.Encode(buf.Bytes())
}

func newRouter(t *testing.T, env *webtest.Env, pdf PDFRenderer) http.Handler {
	t.Helper()
	engine, err := view.NewEngine()
	require.NoError(t, err)
	svc := NewService(NewRepository(env.Client, env.Cache), env.Cache, env.Logger)
	h := NewHandler(svc, engine, env.Pages, pdf, env.Logger, 20)
	return env.Router(func(r chi.Router) { r.Route(BasePath, h.MountRoutes) })
}

func validValues(t *testing.T) url.Values {
	return url.Values{
		"documentType":       {"internal"},
		"categories":         {"Printer, printer, Thermal"},
		"model":              {"TM-T82"},
		"serialNumber":       {"SN-001"},
		"symptom":            {"Paper jam"},
		"price":              {"150000"},
		"accessories":        {"Adapter"},
		"customer.name":      {"Budi"},
		"customer.signature": {signaturePNG(t)},
		"customer.date":      {"2024-05-02"},
	}
}

func TestPartyListOrder(t *testing.T) {
	order := ClaimOrder{
		Customer:   Party{Name: "a"},
		Receiver:   Party{Name: "b", Signature: "x"},
		Technician: Party{Name: "c"},
		Returner:   Party{Name: "d"},
	}
	names := []string{}
	for _, p := range order.PartyList() {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{"a", "b", "c", "d"}, names)
	assert.Equal(t, 1, order.Signed())
}

func TestFormValidation(t *testing.T) {
	values := validValues(t)
	require.True(t, parseForm(values).Validate().OK())

	values.Set("customer.signature", "data:image/png;base64,bm90IGEgcG5n")
	values.Set("receiver.date", "2024-05-03")
	values.Set("documentType", "other")
	res := parseForm(values).Validate()
	assert.Equal(t, "The signature image could not be read.", res.Errors["customer.signature"])
	assert.True(t, res.Errors.Has("receiver.name"))
	assert.True(t, res.Errors.Has("documentType"))
}

func TestPayloadAndBack(t *testing.T) {
	form := parseForm(validValues(t))
	body, err := form.Payload()
	require.NoError(t, err)
	order := body.(ClaimOrder)
	assert.Equal(t, []string{"Printer", "Thermal"}, order.Categories)
	assert.Equal(t, "2024-05-02", order.Customer.Date.DateString())
	assert.True(t, order.Receiver.Date.IsZero())
	assert.Equal(t, "150000", order.Price.String())

	back := fromModel(order)
	assert.Equal(t, "Printer, Thermal", back.Categories)
	assert.Equal(t, "2024-05-02", back.Customer.Date)
	assert.Equal(t, "", back.Receiver.Date)
}

func TestCreateClaimOrder(t *testing.T) {
	env := webtest.New(t)
	router := newRouter(t, env, nil)

	rec := env.PostForm(router, BasePath+"/new", validValues(t))
	list := env.Follow(router, rec)
	require.Equal(t, http.StatusOK, list.Code)
	assert.Contains(t, list.Body.String(), "TM-T82")
	assert.Contains(t, list.Body.String(), "/claim-orders/1/print")

	posts := env.Backend.Calls(Resource, http.MethodPost)
	require.Len(t, posts, 1)
	assert.Equal(t, "150000", posts[0].Body["price"])
	customer := posts[0].Body["customer"].(map[string]any)
	assert.Equal(t, "Budi", customer["name"])
	assert.Contains(t, customer["signature"], "data:image/png;base64,")
}

func TestInvalidSignatureNeverReachesBackend(t *testing.T) {
	env := webtest.New(t)
	router := newRouter(t, env, nil)
	values := validValues(t)
	values.Set("customer.signature", "data:image/gif;base64,R0lGOD")

	before := env.Backend.CallCount()
	rec := env.PostForm(router, BasePath+"/new", values)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "The signature image could not be read.")
	assert.Equal(t, before, env.Backend.CallCount())
}

func TestPrint(t *testing.T) {
	env := webtest.New(t)
	env.Backend.Seed(Resource, map[string]any{
		"id": 5, "documentType": "external", "model": "TM-T82", "price": "99000",
		"customer": map[string]any{"name": "Budi", "signature": signaturePNG(t), "date": "2024-05-02"},
	})
	pdf := &fakePDF{}
	router := newRouter(t, env, pdf)

	html := env.Get(router, BasePath+"/5/print?format=html")
	require.Equal(t, http.StatusOK, html.Code)
	assert.Contains(t, html.Body.String(), "Claim order #5")
	assert.Contains(t, html.Body.String(), "Budi")
	assert.Contains(t, html.Body.String(), "02 May 2024")
	assert.Nil(t, pdf.html)

	rec := env.Get(router, BasePath+"/5/print")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Equal(t, "%PDF-fake", rec.Body.String())
	assert.Contains(t, string(pdf.html), "TM-T82")

	pdf.err = errors.New("gotenberg down")
	assert.Equal(t, http.StatusBadGateway, env.Get(router, BasePath+"/5/print").Code)
	assert.Equal(t, http.StatusNotFound, env.Get(router, BasePath+"/6/print").Code)
}
