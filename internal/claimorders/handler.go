package claimorders

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/odyssey-backoffice/internal/api"
	"github.com/odyssey-erp/odyssey-backoffice/internal/listing"
	"github.com/odyssey-erp/odyssey-backoffice/internal/masterdata/shared"
	"github.com/odyssey-erp/odyssey-backoffice/internal/view"
)

// BasePath is where the claim order screens are mounted.
const BasePath = "/claim-orders"

// PDFRenderer converts an HTML document to PDF.
type PDFRenderer interface {
	RenderHTML(ctx context.Context, html []byte) ([]byte, error)
}

var Columns = []listing.Column[ClaimOrder]{
	{Header: "ID", Value: func(c ClaimOrder) any { return c.ID }},
	{Header: "Type", Value: func(c ClaimOrder) any { return string(c.DocumentType) }},
	{Header: "Customer", Value: func(c ClaimOrder) any { return c.Customer.Name }},
	{Header: "Model", Value: func(c ClaimOrder) any { return c.Model }},
	{Header: "Serial number", Value: func(c ClaimOrder) any { return c.SerialNumber }},
	{Header: "Symptom", Value: func(c ClaimOrder) any { return c.Symptom }},
	{Header: "Price", Value: func(c ClaimOrder) any { return c.Price }},
	{Header: "Signatures", Value: func(c ClaimOrder) any { return fmt.Sprintf("%d/4", c.Signed()) }},
	{Header: "Created", Value: func(c ClaimOrder) any { return c.CreatedAt.Time }},
}

// Handler serves the claim order CRUD screens and the printable receipt.
type Handler struct {
	crud    *shared.Handler[ClaimOrder, *Form]
	service *Service
	engine  *view.Engine
	pages   *view.Pages
	pdf     PDFRenderer
	logger  *slog.Logger
}

// NewHandler wires the claim order screens. pdf may be nil, in which case
// print returns the HTML receipt.
func NewHandler(service *Service, engine *view.Engine, pages *view.Pages, pdf PDFRenderer, logger *slog.Logger, pageSize int) *Handler {
	crud := shared.NewHandler(shared.Config[ClaimOrder, *Form]{
		Title:     "Claim orders",
		Singular:  "claim order",
		BasePath:  BasePath,
		Columns:   Columns,
		ID:        func(c ClaimOrder) int64 { return c.ID },
		Label:     func(c ClaimOrder) string { return fmt.Sprintf("#%d %s", c.ID, c.Model) },
		ParseForm: parseForm,
		FromModel: fromModel,
		EmptyForm: func() *Form { return &Form{DocumentType: string(DocumentInternal), Price: "0"} },
		Fields:    fields,
		Printable: true,
	}, service, pages, logger, pageSize)
	return &Handler{crud: crud, service: service, engine: engine, pages: pages, pdf: pdf, logger: logger}
}

// MountRoutes registers the CRUD routes plus /{id}/print.
func (h *Handler) MountRoutes(r chi.Router) {
	h.crud.MountRoutes(r)
	r.Get("/{id}/print", h.Print)
}

// Print renders the receipt as PDF, or as HTML with ?format=html.
func (h *Handler) Print(w http.ResponseWriter, r *http.Request) {
	id, err := shared.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		shared.RenderError(h.pages, w, r, err, BasePath)
		return
	}
	order, err := h.service.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, api.ErrUnauthorized) {
			view.RedirectToLogin(w, r)
			return
		}
		shared.RenderError(h.pages, w, r, err, BasePath)
		return
	}

	var buf bytes.Buffer
	if err := h.engine.Execute(&buf, "print/claim_order.html", order); err != nil {
		h.logger.Error("render receipt", slog.Int64("id", id), slog.Any("error", err))
		shared.RenderError(h.pages, w, r, err, BasePath)
		return
	}
	if h.pdf == nil || r.URL.Query().Get("format") == "html" {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(buf.Bytes())
		return
	}

	pdf, err := h.pdf.RenderHTML(r.Context(), buf.Bytes())
	if err != nil {
		h.logger.Error("convert receipt", slog.Int64("id", id), slog.Any("error", err))
		shared.RenderError(h.pages, w, r, fmt.Errorf("%w: %w", api.ErrUpstream, err), BasePath+"/"+chi.URLParam(r, "id")+"/edit")
		return
	}
	shared.WriteDownload(w, fmt.Sprintf("claim-order-%d.pdf", id), "application/pdf", pdf)
}

func fields(_ context.Context, f *Form) ([]view.Fieldset, error) {
	sets := []view.Fieldset{
		{Legend: "Device", Fields: []view.Field{
			{Name: "documentType", Label: "Document type", Type: view.InputSelect, Value: f.DocumentType, Required: true, Options: []view.Option{
				{Value: string(DocumentInternal), Label: "Internal"},
				{Value: string(DocumentExternal), Label: "External"},
			}},
			{Name: "categories", Label: "Categories", Type: view.InputTags, Value: f.Categories},
			{Name: "model", Label: "Model", Type: view.InputText, Value: f.Model, Required: true},
			{Name: "serialNumber", Label: "Serial number", Type: view.InputText, Value: f.SerialNumber, Required: true},
			{Name: "warranty", Label: "Under warranty", Type: view.InputCheckbox, Checked: f.Warranty},
			{Name: "accessories", Label: "Accessories", Type: view.InputTags, Value: f.Accessories},
		}},
		{Legend: "Service", Fields: []view.Field{
			{Name: "referenceNo", Label: "Reference no.", Type: view.InputText, Value: f.ReferenceNo},
			{Name: "trackingNo", Label: "Tracking no.", Type: view.InputText, Value: f.TrackingNo},
			{Name: "symptom", Label: "Symptom", Type: view.InputTextarea, Value: f.Symptom, Required: true},
			{Name: "resolution", Label: "Resolution", Type: view.InputTextarea, Value: f.Resolution},
			{Name: "price", Label: "Price", Type: view.InputNumber, Value: f.Price},
			{Name: "address", Label: "Address", Type: view.InputTextarea, Value: f.Address},
		}},
	}
	labels := map[string]string{"customer": "Customer", "receiver": "Receiver", "technician": "Technician", "returner": "Returned by"}
	for _, role := range f.roles() {
		sets = append(sets, view.Fieldset{Legend: labels[role.prefix], Fields: []view.Field{
			{Name: role.prefix + ".name", Label: "Name", Type: view.InputText, Value: role.party.Name, Required: role.prefix == "customer"},
			{Name: role.prefix + ".signature", Label: "Signature", Type: view.InputSignature, Value: role.party.Signature},
			{Name: role.prefix + ".date", Label: "Date", Type: view.InputDate, Value: role.party.Date},
		}})
	}
	return sets, nil
}
