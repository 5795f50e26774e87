package shared

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/odyssey-backoffice/internal/api"
	"github.com/odyssey-erp/odyssey-backoffice/internal/forms"
	"github.com/odyssey-erp/odyssey-backoffice/internal/listing"
	internalShared "github.com/odyssey-erp/odyssey-backoffice/internal/shared"
	"github.com/odyssey-erp/odyssey-backoffice/internal/view"
)

// Config describes one entity's CRUD screens.
type Config[T any, F Form] struct {
	Title    string
	Singular string
	BasePath string
	Columns  []listing.Column[T]
	// ID returns the record id of a row.
	ID func(T) int64
	// Label names a record in confirmations and flashes.
	Label     func(T) string
	ParseForm func(url.Values) F
	FromModel func(T) F
	EmptyForm func() F
	// Fields builds the form controls, loading select options as needed.
	Fields    func(ctx context.Context, form F) ([]view.Fieldset, error)
	Printable bool
	// NewIsPost makes the list's "New" button a POST, for entities whose
	// creation starts server-side state.
	NewIsPost bool
}

// Handler serves list, form, delete and export pages for one entity.
type Handler[T any, F Form] struct {
	cfg      Config[T, F]
	service  *Service[T]
	pages    *view.Pages
	logger   *slog.Logger
	pageSize int
}

// NewHandler constructs a Handler.
func NewHandler[T any, F Form](cfg Config[T, F], service *Service[T], pages *view.Pages, logger *slog.Logger, pageSize int) *Handler[T, F] {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Handler[T, F]{cfg: cfg, service: service, pages: pages, logger: logger.With(slog.String("resource", service.Resource())), pageSize: pageSize}
}

// MountRoutes registers the entity routes.
func (h *Handler[T, F]) MountRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Get("/export.xlsx", h.ExportRows)
	r.Get("/export", h.ExportBackend)
	r.Get("/new", h.Form)
	r.Post("/", h.Create)
	r.Post("/new", h.Create)
	r.Get("/{id}/edit", h.EditForm)
	r.Post("/{id}/edit", h.Update)
	r.Get("/{id}/delete", h.ConfirmDelete)
	r.Post("/{id}/delete", h.Delete)
}

// Rows loads the current page and applies the local filter.
func (h *Handler[T, F]) Rows(ctx context.Context, filters ListFilters) ([]T, int, error) {
	rows, err := h.service.List(ctx, filters)
	if err != nil {
		return nil, 0, err
	}
	return listing.Filter(rows, filters.Query), len(rows), nil
}

func (h *Handler[T, F]) List(w http.ResponseWriter, r *http.Request) {
	filters := FiltersFromRequest(r)
	page := view.ListPage{
		Heading:   h.cfg.Title,
		Singular:  h.cfg.Singular,
		BasePath:  h.cfg.BasePath,
		Headers:   listing.Headers(h.cfg.Columns),
		Query:     filters.Query,
		Search:    filters.Search,
		Printable: h.cfg.Printable,
		NewIsPost: h.cfg.NewIsPost,
	}

	rows, loaded, err := h.Rows(r.Context(), filters)
	status := http.StatusOK
	if err != nil {
		if errors.Is(err, api.ErrUnauthorized) {
			view.RedirectToLogin(w, r)
			return
		}
		h.logger.Error("list failed", slog.Any("error", err))
		page.Error = internalShared.UserSafeMessage(err)
		status = http.StatusBadGateway
	}
	for _, row := range rows {
		page.Rows = append(page.Rows, view.ListRow{
			ID:    strconv.FormatInt(h.cfg.ID(row), 10),
			Cells: listing.Cells(h.cfg.Columns, row),
		})
	}
	page.Pager = internalShared.NewPager(filters.Page, h.pageSize, loaded)
	if page.Pager.HasPrev {
		page.PrevURL = internalShared.PageURL(r.URL.Query(), page.Pager.PrevPage)
	}
	if page.Pager.HasNext {
		page.NextURL = internalShared.PageURL(r.URL.Query(), page.Pager.NextPage)
	}
	h.pages.Render(w, r, "pages/list.html", h.cfg.Title, page, status)
}

// ExportRows downloads the filtered rows of the current page as xlsx.
func (h *Handler[T, F]) ExportRows(w http.ResponseWriter, r *http.Request) {
	filters := FiltersFromRequest(r)
	rows, _, err := h.Rows(r.Context(), filters)
	if err != nil {
		h.fail(w, r, err, h.cfg.BasePath)
		return
	}
	data, err := listing.WriteXLSX(h.cfg.Title, h.cfg.Columns, rows)
	if err != nil {
		h.fail(w, r, err, h.cfg.BasePath)
		return
	}
	filename := fmt.Sprintf("%s-page-%d.xlsx", slug(h.cfg.Title), filters.Page)
	WriteDownload(w, filename, listing.XLSXContentType, data)
}

// ExportBackend proxies the backend's own export.
func (h *Handler[T, F]) ExportBackend(w http.ResponseWriter, r *http.Request) {
	blob, err := h.service.Export(r.Context(), FiltersFromRequest(r))
	if err != nil {
		h.fail(w, r, err, h.cfg.BasePath)
		return
	}
	WriteDownload(w, blob.Filename, blob.ContentType, blob.Data)
}

func (h *Handler[T, F]) Form(w http.ResponseWriter, r *http.Request) {
	h.renderForm(w, r, h.cfg.EmptyForm(), nil, h.cfg.BasePath, http.StatusOK)
}

func (h *Handler[T, F]) Create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	form := h.cfg.ParseForm(r.PostForm)
	created, err := h.service.Create(r.Context(), form)
	if err != nil {
		h.formError(w, r, form, err, h.cfg.BasePath, h.cfg.BasePath+"/new")
		return
	}
	view.RedirectWithFlash(w, r, h.cfg.BasePath, internalShared.FlashMessage{
		Kind:    internalShared.FlashSuccess,
		Message: fmt.Sprintf("%s %q created.", capitalize(h.cfg.Singular), h.cfg.Label(created)),
	})
}

func (h *Handler[T, F]) EditForm(w http.ResponseWriter, r *http.Request) {
	id, err := ParseID(chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err, h.cfg.BasePath)
		return
	}
	record, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, err, h.cfg.BasePath)
		return
	}
	h.renderForm(w, r, h.cfg.FromModel(record), nil, h.itemPath(id, "edit"), http.StatusOK)
}

func (h *Handler[T, F]) Update(w http.ResponseWriter, r *http.Request) {
	id, err := ParseID(chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err, h.cfg.BasePath)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	form := h.cfg.ParseForm(r.PostForm)
	updated, err := h.service.Update(r.Context(), id, form)
	if err != nil {
		action := h.itemPath(id, "edit")
		h.formError(w, r, form, err, action, action)
		return
	}
	view.RedirectWithFlash(w, r, h.cfg.BasePath, internalShared.FlashMessage{
		Kind:    internalShared.FlashSuccess,
		Message: fmt.Sprintf("%s %q updated.", capitalize(h.cfg.Singular), h.cfg.Label(updated)),
	})
}

func (h *Handler[T, F]) ConfirmDelete(w http.ResponseWriter, r *http.Request) {
	id, err := ParseID(chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err, h.cfg.BasePath)
		return
	}
	record, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, err, h.cfg.BasePath)
		return
	}
	h.renderConfirm(w, r, id, h.cfg.Label(record), http.StatusOK)
}

// Delete requires confirm=yes; anything else re-renders the confirmation.
func (h *Handler[T, F]) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := ParseID(chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err, h.cfg.BasePath)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	if r.PostForm.Get("confirm") != ConfirmValue {
		h.renderConfirm(w, r, id, "#"+strconv.FormatInt(id, 10), http.StatusOK)
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		if errors.Is(err, api.ErrUnauthorized) {
			view.RedirectToLogin(w, r)
			return
		}
		h.logger.Error("delete failed", slog.Int64("id", id), slog.Any("error", err))
		view.RedirectWithFlash(w, r, h.cfg.BasePath, internalShared.FlashMessage{
			Kind:    internalShared.FlashError,
			Message: fmt.Sprintf("Could not delete %s. %s", h.cfg.Singular, internalShared.UserSafeMessage(err)),
			Action:  h.itemPath(id, "delete"),
		})
		return
	}
	view.RedirectWithFlash(w, r, h.cfg.BasePath, internalShared.FlashMessage{
		Kind:    internalShared.FlashSuccess,
		Message: fmt.Sprintf("%s deleted.", capitalize(h.cfg.Singular)),
	})
}

func (h *Handler[T, F]) renderForm(w http.ResponseWriter, r *http.Request, form F, errs forms.FieldErrors, action string, status int) {
	fieldsets, err := h.cfg.Fields(r.Context(), form)
	if err != nil {
		h.fail(w, r, err, h.cfg.BasePath)
		return
	}
	var all []view.Field
	for i := range fieldsets {
		fieldsets[i].Fields = view.WithErrors(fieldsets[i].Fields, errs)
		all = append(all, fieldsets[i].Fields...)
	}
	heading := "New " + h.cfg.Singular
	if action != h.cfg.BasePath {
		heading = "Edit " + h.cfg.Singular
	}
	h.pages.Render(w, r, "pages/form.html", heading, view.FormPage{
		Heading:   heading,
		Action:    action,
		CancelURL: h.cfg.BasePath,
		Fieldsets: fieldsets,
		Errors:    view.UnmatchedErrors(all, errs),
	}, status)
}

// formError re-renders the form with the user's input. Validation errors
// show inline; other failures add a flash whose retry link reopens retryURL.
func (h *Handler[T, F]) formError(w http.ResponseWriter, r *http.Request, form F, err error, action, retryURL string) {
	if errors.Is(err, api.ErrUnauthorized) {
		view.RedirectToLogin(w, r)
		return
	}
	if fields, ok := FieldErrorsOf(err); ok {
		h.renderForm(w, r, form, fields, action, http.StatusBadRequest)
		return
	}
	h.logger.Error("save failed", slog.Any("error", err))
	if sess := internalShared.SessionFromContext(r.Context()); sess != nil {
		sess.AddFlash(internalShared.FlashMessage{
			Kind:    internalShared.FlashError,
			Message: fmt.Sprintf("Could not save %s. %s", h.cfg.Singular, internalShared.UserSafeMessage(err)),
			Action:  retryURL,
		})
	}
	h.renderForm(w, r, form, nil, action, StatusFor(err))
}

func (h *Handler[T, F]) renderConfirm(w http.ResponseWriter, r *http.Request, id int64, label string, status int) {
	h.pages.Render(w, r, "pages/confirm.html", "Delete "+h.cfg.Singular, view.ConfirmPage{
		Heading:   "Delete " + h.cfg.Singular,
		Message:   fmt.Sprintf("Delete %s %s? This cannot be undone.", h.cfg.Singular, label),
		Action:    h.itemPath(id, "delete"),
		CancelURL: h.cfg.BasePath,
	}, status)
}

// fail renders an error page for failures outside a form.
func (h *Handler[T, F]) fail(w http.ResponseWriter, r *http.Request, err error, back string) {
	if errors.Is(err, api.ErrUnauthorized) {
		view.RedirectToLogin(w, r)
		return
	}
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", slog.String("path", r.URL.Path), slog.Any("error", err))
	}
	RenderError(h.pages, w, r, err, back)
}

// RenderError shows pages/error.html with a status derived from err.
func RenderError(pages *view.Pages, w http.ResponseWriter, r *http.Request, err error, back string) {
	status := StatusFor(err)
	page := view.ErrorPage{
		Heading: http.StatusText(status),
		Message: internalShared.UserSafeMessage(err),
		BackURL: back,
	}
	if status >= http.StatusInternalServerError {
		page.RetryURL = r.URL.RequestURI()
	}
	pages.Render(w, r, "pages/error.html", page.Heading, page, status)
}

// StatusFor maps an error onto the HTTP status of the error page.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, ErrInvalidID):
		return http.StatusBadRequest
	case errors.Is(err, api.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, forms.ErrInvalid), errors.Is(err, api.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, api.ErrUpstream):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler[T, F]) itemPath(id int64, action string) string {
	return h.cfg.BasePath + "/" + strconv.FormatInt(id, 10) + "/" + action
}

// WriteDownload sends data as an attachment.
func WriteDownload(w http.ResponseWriter, filename, contentType string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func slug(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), " ", "-")
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
