package implementation

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/odyssey-erp/odyssey-backoffice/internal/api"
	"github.com/odyssey-erp/odyssey-backoffice/internal/forms"
	"github.com/odyssey-erp/odyssey-backoffice/internal/listing"
	"github.com/odyssey-erp/odyssey-backoffice/internal/masterdata/shared"
	"github.com/odyssey-erp/odyssey-backoffice/internal/platform/httpx"
	internalShared "github.com/odyssey-erp/odyssey-backoffice/internal/shared"
	"github.com/odyssey-erp/odyssey-backoffice/internal/view"
)

// BasePath is where the wizard is mounted.
const BasePath = "/implementation"

var Columns = []listing.Column[Record]{
	{Header: "ID", Value: func(r Record) any { return r.ID }},
	{Header: "Shop", Value: func(r Record) any { return r.ShopInfo.ShopName }},
	{Header: "Owner", Value: func(r Record) any { return r.ShopInfo.OwnerName }},
	{Header: "Tel", Value: func(r Record) any { return r.ShopInfo.Tel }},
	{Header: "Steps done", Value: func(r Record) any { return fmt.Sprintf("%d/%d", r.Completed(), StepCount) }},
	{Header: "Delivered", Value: func(r Record) any { return r.Deliver.Date.Time }},
	{Header: "Updated", Value: func(r Record) any { return r.UpdatedAt.Time }},
}

type stepLink struct {
	Number  int
	Title   string
	URL     string
	Current bool
	Done    bool
}

type stepPage struct {
	Step        Step
	Steps       []stepLink
	RecordID    int64
	ShopName    string
	Errors      []string
	Action      string
	AutosaveURL string
	Fieldsets   []view.Fieldset
	Repeaters   []view.Repeater
	BackURL     string
	IsLast      bool
}

type summaryPage struct {
	RecordID int64
	Steps    []stepLink
	Record   Record
}

// Handler serves the record list and the wizard pages.
type Handler struct {
	list     *shared.Handler[Record, submission]
	service  *Service
	autosave *Autosaver
	pages    *view.Pages
	logger   *slog.Logger
}

func NewHandler(service *Service, autosave *Autosaver, pages *view.Pages, logger *slog.Logger, pageSize int) *Handler {
	list := shared.NewHandler(shared.Config[Record, submission]{
		Title:     "Implementations",
		Singular:  "implementation",
		BasePath:  BasePath,
		Columns:   Columns,
		ID:        func(r Record) int64 { return r.ID },
		Label:     func(r Record) string { return r.ShopInfo.ShopName },
		NewIsPost: true,
	}, service.Records(), pages, logger, pageSize)
	return &Handler{list: list, service: service, autosave: autosave, pages: pages, logger: logger}
}

// MountRoutes registers the wizard routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list.List)
	r.Get("/export.xlsx", h.list.ExportRows)
	r.Get("/export", h.list.ExportBackend)
	r.Post("/new", h.New)
	r.Get("/{id}/edit", h.Edit)
	r.Get("/{id}/delete", h.list.ConfirmDelete)
	r.Post("/{id}/delete", h.list.Delete)
	r.Get("/steps/{step}", h.Import)
	r.Route("/drafts/{draft}", func(r chi.Router) {
		r.Get("/steps/{step}", h.ShowStep)
		r.Post("/steps/{step}", h.SubmitStep)
		r.Post("/steps/{step}/autosave", h.Autosave)
		r.Get("/summary", h.Summary)
	})
}

// New opens an empty draft at step 1.
func (h *Handler) New(w http.ResponseWriter, r *http.Request) {
	draft, err := h.service.StartDraft(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	http.Redirect(w, r, stepURL(draft.ID, StepShopInfo), http.StatusSeeOther)
}

// Edit opens a draft seeded from an existing record.
func (h *Handler) Edit(w http.ResponseWriter, r *http.Request) {
	id, err := shared.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	draft, err := h.service.EditRecord(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	http.Redirect(w, r, stepURL(draft.ID, StepShopInfo), http.StatusSeeOther)
}

// Import accepts the parameters in the address, moves them into a draft
// and redirects to the same step of that draft.
func (h *Handler) Import(w http.ResponseWriter, r *http.Request) {
	step, err := ParseStep(chi.URLParam(r, "step"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	draft, err := h.service.ImportDraft(r.Context(), ParamsFromQuery(r.URL.Query()), step)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	http.Redirect(w, r, stepURL(draft.ID, step), http.StatusSeeOther)
}

func (h *Handler) ShowStep(w http.ResponseWriter, r *http.Request) {
	draft, step, ok := h.load(w, r)
	if !ok {
		return
	}
	form, err := h.service.StepForm(draft, step)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.renderStep(w, r, draft, form, nil, http.StatusOK)
}

func (h *Handler) SubmitStep(w http.ResponseWriter, r *http.Request) {
	draftID, step, ok := h.params(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	if h.autosave != nil {
		release := h.autosave.Hold(draftID)
		defer release()
	}
	draft, form, err := h.service.SubmitStep(r.Context(), draftID, step, r.PostForm)
	if err != nil {
		h.submitError(w, r, draft, form, err)
		return
	}
	if next, more := step.Next(); more {
		view.RedirectWithFlash(w, r, stepURL(draftID, next), internalShared.FlashMessage{
			Kind:    internalShared.FlashSuccess,
			Message: step.Title() + " saved.",
		})
		return
	}
	view.RedirectWithFlash(w, r, summaryURL(draftID), internalShared.FlashMessage{
		Kind:    internalShared.FlashSuccess,
		Message: "Implementation saved.",
	})
}

// Autosave buffers a JSON object of field values for the step.
func (h *Handler) Autosave(w http.ResponseWriter, r *http.Request) {
	draftID, step, ok := h.params(w, r)
	if !ok {
		return
	}
	if h.autosave == nil {
		httpx.Problem(w, http.StatusServiceUnavailable, "Autosave Disabled", "")
		return
	}
	var body map[string]any
	if err := httpx.DecodeJSON(r, &body); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", "expected a JSON object of field values")
		return
	}
	if _, err := h.service.Draft(r.Context(), draftID); err != nil {
		httpx.RespondError(w, draftError(err))
		return
	}
	if !h.autosave.Queue(draftID, step, fieldStrings(body)) {
		httpx.Problem(w, http.StatusServiceUnavailable, "Shutting Down", "")
		return
	}
	httpx.JSON(w, http.StatusAccepted, map[string]string{"status": "queued"})
}

func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	draftID, err := uuid.Parse(chi.URLParam(r, "draft"))
	if err != nil {
		h.fail(w, r, ErrDraftNotFound)
		return
	}
	draft, err := h.service.Draft(r.Context(), draftID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	rec, err := h.service.Summary(r.Context(), draft)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.pages.Render(w, r, "pages/implementation_summary.html", "Implementation", summaryPage{
		RecordID: rec.ID,
		Steps:    stepLinks(draft, 0),
		Record:   rec,
	}, http.StatusOK)
}

func (h *Handler) submitError(w http.ResponseWriter, r *http.Request, draft Draft, form stepForm, err error) {
	switch {
	case errors.Is(err, api.ErrUnauthorized):
		view.RedirectToLogin(w, r)
		return
	case errors.Is(err, ErrDraftNotFound):
		h.fail(w, r, err)
		return
	}
	if fields, ok := shared.FieldErrorsOf(err); ok {
		h.renderStep(w, r, draft, form, fields, http.StatusBadRequest)
		return
	}
	sess := internalShared.SessionFromContext(r.Context())
	if errors.Is(err, ErrMissingRecordID) {
		if sess != nil {
			sess.AddFlash(internalShared.FlashMessage{
				Kind:    internalShared.FlashError,
				Message: "This implementation has no saved record yet. Save the shop info step first.",
				Action:  stepURL(draft.ID, StepShopInfo),
			})
		}
		h.renderStep(w, r, draft, form, nil, http.StatusConflict)
		return
	}
	h.logger.Error("implementation step failed", slog.Int("step", int(form.Step())), slog.Any("error", err))
	if sess != nil {
		sess.AddFlash(internalShared.FlashMessage{
			Kind:    internalShared.FlashError,
			Message: fmt.Sprintf("Could not save %s. %s", strings.ToLower(form.Step().Title()), internalShared.UserSafeMessage(err)),
			Action:  stepURL(draft.ID, form.Step()),
		})
	}
	h.renderStep(w, r, draft, form, nil, shared.StatusFor(err))
}

func (h *Handler) renderStep(w http.ResponseWriter, r *http.Request, draft Draft, form stepForm, errs forms.FieldErrors, status int) {
	step := form.Step()
	fieldsets := form.fieldsets()
	repeaters := form.repeaters()
	var all []view.Field
	for i := range fieldsets {
		fieldsets[i].Fields = view.WithErrors(fieldsets[i].Fields, errs)
		all = append(all, fieldsets[i].Fields...)
	}
	for i := range repeaters {
		for j := range repeaters[i].Rows {
			repeaters[i].Rows[j] = view.WithErrors(repeaters[i].Rows[j], errs)
			all = append(all, repeaters[i].Rows[j]...)
		}
	}
	page := stepPage{
		Step:        step,
		Steps:       stepLinks(draft, step),
		Errors:      view.UnmatchedErrors(all, errs),
		Action:      stepURL(draft.ID, step),
		AutosaveURL: stepURL(draft.ID, step) + "/autosave",
		Fieldsets:   fieldsets,
		Repeaters:   repeaters,
		IsLast:      step == StepDeliver,
	}
	if h.autosave == nil {
		page.AutosaveURL = ""
	}
	page.RecordID, _ = draft.Params.RecordID()
	page.ShopName = draft.Params[KeyShopName]
	if step > StepShopInfo {
		page.BackURL = stepURL(draft.ID, step-1)
	}
	h.pages.Render(w, r, "pages/implementation_step.html", "Implementation · "+step.Title(), page, status)
}

// load resolves the draft and step of a wizard address.
func (h *Handler) load(w http.ResponseWriter, r *http.Request) (Draft, Step, bool) {
	draftID, step, ok := h.params(w, r)
	if !ok {
		return Draft{}, 0, false
	}
	draft, err := h.service.Draft(r.Context(), draftID)
	if err != nil {
		h.fail(w, r, err)
		return Draft{}, 0, false
	}
	return draft, step, true
}

func (h *Handler) params(w http.ResponseWriter, r *http.Request) (uuid.UUID, Step, bool) {
	draftID, err := uuid.Parse(chi.URLParam(r, "draft"))
	if err != nil {
		h.fail(w, r, ErrDraftNotFound)
		return uuid.Nil, 0, false
	}
	step, err := ParseStep(chi.URLParam(r, "step"))
	if err != nil {
		h.fail(w, r, err)
		return uuid.Nil, 0, false
	}
	return draftID, step, true
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, api.ErrUnauthorized) {
		view.RedirectToLogin(w, r)
		return
	}
	if strings.HasSuffix(r.URL.Path, "/autosave") {
		httpx.RespondError(w, draftError(err))
		return
	}
	err = draftError(err)
	if shared.StatusFor(err) >= http.StatusInternalServerError {
		h.logger.Error("implementation request failed", slog.String("path", r.URL.Path), slog.Any("error", err))
	}
	shared.RenderError(h.pages, w, r, err, BasePath)
}

// draftError classifies wizard errors for the shared error pages.
func draftError(err error) error {
	switch {
	case errors.Is(err, ErrDraftNotFound), errors.Is(err, ErrUnknownStep):
		return fmt.Errorf("%w: %w", api.ErrNotFound, err)
	case errors.Is(err, ErrMissingRecordID):
		return fmt.Errorf("%w: %w", shared.ErrInvalidID, err)
	}
	return err
}

func stepLinks(draft Draft, current Step) []stepLink {
	links := make([]stepLink, 0, StepCount)
	for _, s := range AllSteps() {
		links = append(links, stepLink{
			Number:  int(s),
			Title:   s.Title(),
			URL:     stepURL(draft.ID, s),
			Current: s == current,
			Done:    s < draft.Step || (current == 0 && draft.Step == StepDeliver),
		})
	}
	return links
}

func stepURL(draftID uuid.UUID, step Step) string {
	return BasePath + "/drafts/" + draftID.String() + "/steps/" + strconv.Itoa(int(step))
}

func summaryURL(draftID uuid.UUID) string {
	return BasePath + "/drafts/" + draftID.String() + "/summary"
}

// fieldStrings flattens autosave values; lists are comma joined.
func fieldStrings(body map[string]any) map[string]string {
	out := make(map[string]string, len(body))
	for k, v := range body {
		switch x := v.(type) {
		case nil:
			out[k] = ""
		case string:
			out[k] = x
		case []any:
			parts := make([]string, 0, len(x))
			for _, item := range x {
				parts = append(parts, fmt.Sprint(item))
			}
			out[k] = strings.Join(parts, ",")
		default:
			out[k] = fmt.Sprint(x)
		}
	}
	return out
}
