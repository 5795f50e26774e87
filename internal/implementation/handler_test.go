package implementation

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-backoffice/internal/masterdata/shared"
	"github.com/odyssey-erp/odyssey-backoffice/internal/signature"
	"github.com/odyssey-erp/odyssey-backoffice/internal/testing/webtest"
)

func signaturePNG(t *testing.T) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, 8, 4))))
	return signature.Encode(buf.Bytes())
}

type wizard struct {
	env      *webtest.Env
	router   http.Handler
	drafts   *MemoryDraftStore
	autosave *Autosaver
}

func newWizard(t *testing.T) *wizard {
	return newWizardWith(t, nil)
}

// newWizardWith lets a test wrap the store the autosaver writes through.
func newWizardWith(t *testing.T, wrap func(DraftStore) DraftStore) *wizard {
	t.Helper()
	env := webtest.New(t)
	drafts := NewMemoryDraftStore()
	records := shared.NewService(NewRecords(env.Client, env.Cache), env.Cache, env.Logger)
	service := NewService(records, drafts, env.Logger)
	var autosaveStore DraftStore = drafts
	if wrap != nil {
		autosaveStore = wrap(drafts)
	}
	autosave := NewAutosaver(autosaveStore, 10*time.Millisecond, env.Logger)
	t.Cleanup(autosave.Close)
	h := NewHandler(service, autosave, env.Pages, env.Logger, 20)
	return &wizard{
		env:      env,
		drafts:   drafts,
		autosave: autosave,
		router: env.Router(func(r chi.Router) {
			r.Route(BasePath, h.MountRoutes)
		}),
	}
}

// start opens a draft and returns the address prefix of its steps.
func (w *wizard) start(t *testing.T) string {
	t.Helper()
	rec := w.env.PostForm(w.router, BasePath+"/new", url.Values{})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	loc := rec.Header().Get("Location")
	require.Regexp(t, `^/implementation/drafts/[0-9a-f-]{36}/steps/1$`, loc)
	return strings.TrimSuffix(loc, "1")
}

func draftID(t *testing.T, steps string) uuid.UUID {
	t.Helper()
	raw := strings.TrimSuffix(strings.TrimPrefix(steps, BasePath+"/drafts/"), "/steps/")
	id, err := uuid.Parse(raw)
	require.NoError(t, err)
	return id
}

func TestWizardSixStepsBuildOneRecord(t *testing.T) {
	w := newWizard(t)
	steps := w.start(t)

	first := w.env.Get(w.router, steps+"1")
	require.Equal(t, http.StatusOK, first.Code)
	assert.Contains(t, first.Body.String(), "Shop info")
	assert.Contains(t, first.Body.String(), `name="devices[0].name"`)

	rec := w.env.PostForm(w.router, steps+"1", url.Values{
		"shopName":            {"Demo Shop"},
		"ownerName":           {"Rina"},
		"devices[0].name":     {"Tablet"},
		"devices[0].quantity": {"2"},
		"devices[1].name":     {""},
	})
	require.Equal(t, steps+"2", rec.Header().Get("Location"))
	second := w.env.Follow(w.router, rec)
	require.Equal(t, http.StatusOK, second.Code)
	assert.Contains(t, second.Body.String(), "Demo Shop")
	assert.Contains(t, second.Body.String(), "record #1")
	assert.Contains(t, second.Body.String(), "Shop info saved.")

	submissions := []url.Values{
		{"choice": {SetupNew}, "checklist": {"install-app", "tax-settings"}},
		{"choice": {BranchSingle}, "notes": {"one outlet"}},
		{"checklist": {"sales-transaction"}},
		{"checklist": {"cashier", "reports"}},
		{"checklist": {"go-live"}, "signature": {signaturePNG(t)}, "date": {"2026-10-18"}},
	}
	for i, form := range submissions {
		step := Step(i + 2)
		rec = w.env.PostForm(w.router, steps+step.String(), form)
		require.Equal(t, http.StatusSeeOther, rec.Code, "step %d: %s", step, rec.Body.String())
	}
	require.Equal(t, BasePath+"/drafts/"+draftID(t, steps).String()+"/summary", rec.Header().Get("Location"))

	assert.Len(t, w.env.Backend.Calls(Resource, http.MethodPost), 1)
	patches := w.env.Backend.Calls(Resource, http.MethodPatch)
	require.Len(t, patches, 5)
	assert.Equal(t, "1", patches[0].ID)
	assert.Contains(t, patches[0].Body, "setupSystem")
	assert.Len(t, patches[0].Body, 1)

	stored := w.env.Backend.Records(Resource)
	require.Len(t, stored, 1)
	for _, step := range AllSteps() {
		assert.Contains(t, stored[0], step.Fragment())
	}

	summary := w.env.Get(w.router, BasePath+"/drafts/"+draftID(t, steps).String()+"/summary")
	require.Equal(t, http.StatusOK, summary.Code)
	body := summary.Body.String()
	assert.Contains(t, body, "Demo Shop")
	assert.Contains(t, body, "Tablet")
	assert.Contains(t, body, "go-live")
	assert.Contains(t, body, "18 Oct 2026")

	list := w.env.Get(w.router, BasePath)
	require.Equal(t, http.StatusOK, list.Code)
	assert.Contains(t, list.Body.String(), "6/6")
}

func TestStepNeedingRecordIDNeverCallsBackend(t *testing.T) {
	w := newWizard(t)

	rec := w.env.Get(w.router, BasePath+"/steps/2?shopName=Legacy+Shop")
	require.Equal(t, http.StatusSeeOther, rec.Code)
	loc := rec.Header().Get("Location")
	require.True(t, strings.HasSuffix(loc, "/steps/2"), loc)

	page := w.env.Follow(w.router, rec)
	assert.Contains(t, page.Body.String(), "Legacy Shop")

	submitted := w.env.PostForm(w.router, loc, url.Values{"choice": {SetupMigrate}})
	assert.Equal(t, http.StatusConflict, submitted.Code)
	assert.Contains(t, submitted.Body.String(), "no saved record yet")
	assert.Zero(t, w.env.Backend.CallCount())
}

func TestLegacyAddressKeepsCarriedID(t *testing.T) {
	w := newWizard(t)
	w.env.Backend.Seed(Resource, map[string]any{"id": 7, "shopInfo": map[string]any{"shopName": "Old Shop"}})

	rec := w.env.Get(w.router, BasePath+"/steps/3?id=7&shopName=Old+Shop&setupSystem.choice=new")
	page := w.env.Follow(w.router, rec)
	require.Equal(t, http.StatusOK, page.Code)
	assert.Contains(t, page.Body.String(), "record #7")

	loc := rec.Header().Get("Location")
	saved := w.env.PostForm(w.router, loc, url.Values{"choice": {BranchMulti}})
	require.Equal(t, http.StatusSeeOther, saved.Code)
	patches := w.env.Backend.Calls(Resource, http.MethodPatch)
	require.Len(t, patches, 1)
	assert.Equal(t, "7", patches[0].ID)
}

func TestInvalidStepRerendersWithoutBackendCall(t *testing.T) {
	w := newWizard(t)
	steps := w.start(t)

	rec := w.env.PostForm(w.router, steps+"1", url.Values{
		"devices[0].serialNumber": {"S1"},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `value="S1"`)
	assert.Contains(t, rec.Body.String(), "This field is required.")
	assert.Zero(t, w.env.Backend.CallCount())
}

func TestBackendFailureKeepsInput(t *testing.T) {
	w := newWizard(t)
	steps := w.start(t)
	require.Equal(t, http.StatusSeeOther, w.env.PostForm(w.router, steps+"1", url.Values{"shopName": {"Demo Shop"}}).Code)

	w.env.Backend.FailNext(Resource, http.StatusInternalServerError)
	rec := w.env.PostForm(w.router, steps+"2", url.Values{"choice": {SetupMigrate}})
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "Could not save setup system.")
	assert.Contains(t, rec.Body.String(), steps+"2\">Try again")

	draft, err := w.drafts.Get(context.Background(), draftID(t, steps))
	require.NoError(t, err)
	assert.Equal(t, SetupMigrate, draft.Params[KeySetupChoice])
	assert.Equal(t, StepSetupSystem, draft.Step)
}

func TestEditSeedsDraftFromRecord(t *testing.T) {
	w := newWizard(t)
	w.env.Backend.Seed(Resource, map[string]any{"id": 5, "shopInfo": map[string]any{"shopName": "Seeded Shop"}})

	list := w.env.Get(w.router, BasePath)
	assert.Contains(t, list.Body.String(), "Seeded Shop")
	assert.Contains(t, list.Body.String(), "1/6")

	rec := w.env.Get(w.router, BasePath+"/5/edit")
	page := w.env.Follow(w.router, rec)
	require.Equal(t, http.StatusOK, page.Code)
	assert.Contains(t, page.Body.String(), `value="Seeded Shop"`)

	assert.Equal(t, http.StatusBadRequest, w.env.Get(w.router, BasePath+"/abc/edit").Code)
}

func TestUnknownDraftOrStep(t *testing.T) {
	w := newWizard(t)
	steps := w.start(t)

	assert.Equal(t, http.StatusNotFound, w.env.Get(w.router, BasePath+"/drafts/"+uuid.NewString()+"/steps/1").Code)
	assert.Equal(t, http.StatusNotFound, w.env.Get(w.router, BasePath+"/drafts/not-a-uuid/steps/1").Code)
	assert.Equal(t, http.StatusNotFound, w.env.Get(w.router, steps+"7").Code)
	assert.Equal(t, http.StatusNotFound, w.env.Get(w.router, BasePath+"/steps/0").Code)
}

func TestSignedOutRedirectsToLogin(t *testing.T) {
	w := newWizard(t)
	w.env.Token = ""
	rec := w.env.Get(w.router, BasePath)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Location"), "/auth/login"))
}

func TestAutosaveStoresPartialInput(t *testing.T) {
	w := newWizard(t)
	flushed := make(chan error, 1)
	w.autosave.flushed = func(_ uuid.UUID, err error) { flushed <- err }
	steps := w.start(t)

	rec := w.env.PostJSON(w.router, steps+"1/autosave",
		`{"shopName":"Half typed","devices[0].name":"Tab","devices[0].quantity":"tw","csrf_token":"x"}`)
	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.JSONEq(t, `{"status":"queued"}`, rec.Body.String())

	select {
	case err := <-flushed:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("autosave never flushed")
	}

	draft, err := w.drafts.Get(context.Background(), draftID(t, steps))
	require.NoError(t, err)
	shop, err := draft.Params.ShopInfo()
	require.NoError(t, err)
	assert.Equal(t, "Half typed", shop.ShopName)
	require.Len(t, shop.Devices, 1)
	assert.Equal(t, Device{Name: "Tab"}, shop.Devices[0])
	assert.NotContains(t, draft.Params, "csrf_token")
	assert.Zero(t, w.env.Backend.CallCount())

	page := w.env.Get(w.router, steps+"1")
	assert.Contains(t, page.Body.String(), `value="Half typed"`)
}

func TestAutosaveRejectsUnknownDraftAndBadBody(t *testing.T) {
	w := newWizard(t)
	steps := w.start(t)

	rec := w.env.PostJSON(w.router, BasePath+"/drafts/"+uuid.NewString()+"/steps/1/autosave", `{"shopName":"x"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = w.env.PostJSON(w.router, steps+"1/autosave", `["not","an","object"]`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSubmitDiscardsPendingAutosave(t *testing.T) {
	w := newWizard(t)
	w.autosave.quiet = time.Hour
	steps := w.start(t)

	require.Equal(t, http.StatusAccepted, w.env.PostJSON(w.router, steps+"1/autosave", `{"shopName":"Stale"}`).Code)
	require.Equal(t, http.StatusSeeOther, w.env.PostForm(w.router, steps+"1", url.Values{"shopName": {"Final"}}).Code)
	w.autosave.Close()

	draft, err := w.drafts.Get(context.Background(), draftID(t, steps))
	require.NoError(t, err)
	assert.Equal(t, "Final", draft.Params[KeyShopName])
}

// slowSave holds the first Save until release is closed.
type slowSave struct {
	DraftStore
	entered chan struct{}
	release chan struct{}
}

func (s *slowSave) Save(ctx context.Context, d Draft) (Draft, error) {
	select {
	case s.entered <- struct{}{}:
	default:
	}
	<-s.release
	return s.DraftStore.Save(ctx, d)
}

func TestFlushInProgressCannotOverwriteSubmittedStep(t *testing.T) {
	slow := &slowSave{entered: make(chan struct{}, 1), release: make(chan struct{})}
	w := newWizardWith(t, func(s DraftStore) DraftStore {
		slow.DraftStore = s
		return slow
	})
	steps := w.start(t)

	require.Equal(t, http.StatusAccepted, w.env.PostJSON(w.router, steps+"1/autosave", `{"shopName":"Stale"}`).Code)
	select {
	case <-slow.entered:
	case <-time.After(2 * time.Second):
		t.Fatal("autosave never reached the store")
	}

	submitted := make(chan int, 1)
	go func() {
		submitted <- w.env.PostForm(w.router, steps+"1", url.Values{"shopName": {"Final"}}).Code
	}()
	select {
	case <-submitted:
		t.Fatal("submit ran while an autosave was writing the draft")
	case <-time.After(50 * time.Millisecond):
	}
	close(slow.release)

	select {
	case code := <-submitted:
		require.Equal(t, http.StatusSeeOther, code)
	case <-time.After(2 * time.Second):
		t.Fatal("submit never finished")
	}

	draft, err := w.drafts.Get(context.Background(), draftID(t, steps))
	require.NoError(t, err)
	assert.Equal(t, StepSetupSystem, draft.Step)
	assert.Equal(t, "Final", draft.Params[KeyShopName])
	id, err := draft.Params.RecordID()
	require.NoError(t, err)
	assert.EqualValues(t, 1, id)

	rec := w.env.PostForm(w.router, steps+"2", url.Values{"choice": {SetupNew}, "checklist": {"install-app"}})
	require.Equal(t, http.StatusSeeOther, rec.Code, rec.Body.String())
	assert.Len(t, w.env.Backend.Calls(Resource, http.MethodPost), 1)
	patches := w.env.Backend.Calls(Resource, http.MethodPatch)
	require.Len(t, patches, 1)
	assert.Equal(t, "1", patches[0].ID)
}

func TestEditsTakenByAWaitingFlushAreDroppedOnSubmit(t *testing.T) {
	w := newWizard(t)
	w.autosave.quiet = time.Hour
	steps := w.start(t)
	id := draftID(t, steps)

	require.True(t, w.autosave.Queue(id, StepShopInfo, map[string]string{KeyShopName: "Stale"}))
	release := w.autosave.lock(id)
	done := make(chan struct{})
	go func() {
		w.autosave.flush(id)
		close(done)
	}()
	require.Eventually(t, func() bool {
		w.autosave.mu.Lock()
		defer w.autosave.mu.Unlock()
		return w.autosave.flushing[id] != nil
	}, 2*time.Second, 5*time.Millisecond)

	w.autosave.Discard(id)
	release()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("flush never returned")
	}

	draft, err := w.drafts.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Empty(t, draft.Params[KeyShopName])
}

func TestOverlongQuantityIsAFieldError(t *testing.T) {
	w := newWizard(t)
	steps := w.start(t)

	rec := w.env.PostForm(w.router, steps+"1", url.Values{
		"shopName":            {"Demo Shop"},
		"devices[0].name":     {"Tablet"},
		"devices[0].quantity": {"99999999999999999999"},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Enter a whole number from 0 to 1000000.")
	assert.Contains(t, rec.Body.String(), `value="99999999999999999999"`)
	assert.Zero(t, w.env.Backend.CallCount())
}
