package jobs

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-backoffice/internal/implementation"
	jobmetrics "github.com/odyssey-erp/odyssey-backoffice/internal/jobs"
)

type purgerFunc func(ctx context.Context, cutoff time.Time) (int64, error)

func (f purgerFunc) PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	return f(ctx, cutoff)
}

func discard() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestDraftPurgeUsesRetentionWindow(t *testing.T) {
	now := time.Date(2026, 10, 18, 3, 15, 0, 0, time.UTC)
	var got time.Time
	p := &DraftPurge{
		Store: purgerFunc(func(_ context.Context, cutoff time.Time) (int64, error) {
			got = cutoff
			return 4, nil
		}),
		DefaultTTL: 30 * 24 * time.Hour,
		Metrics:    jobmetrics.NewMetrics(prometheus.NewRegistry()),
		Logger:     discard(),
		Now:        func() time.Time { return now },
	}

	n, err := p.Run(context.Background(), 0)
	require.NoError(t, err)
	assert.EqualValues(t, 4, n)
	assert.Equal(t, now.Add(-30*24*time.Hour), got)

	task, err := NewPurgeDraftsTask(time.Hour)
	require.NoError(t, err)
	require.NoError(t, p.Handle(context.Background(), task))
	assert.Equal(t, now.Add(-time.Hour), got)
}

func TestDraftPurgeAgainstMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := implementation.NewMemoryDraftStore()
	_, err := store.Create(ctx, implementation.Params{})
	require.NoError(t, err)

	registry := prometheus.NewRegistry()
	p := &DraftPurge{
		Store:      store,
		DefaultTTL: time.Hour,
		Metrics:    jobmetrics.NewMetrics(registry),
		Logger:     discard(),
		Now:        func() time.Time { return time.Now().Add(2 * time.Hour) },
	}
	n, err := p.Run(ctx, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	count, err := testutil.GatherAndCount(registry, "backoffice_drafts_purged_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestDraftPurgeErrors(t *testing.T) {
	boom := errors.New("db down")
	p := &DraftPurge{
		Store:      purgerFunc(func(context.Context, time.Time) (int64, error) { return 0, boom }),
		DefaultTTL: time.Hour,
		Logger:     discard(),
	}
	_, err := p.Run(context.Background(), 0)
	assert.ErrorIs(t, err, boom)

	p.DefaultTTL = 0
	_, err = p.Run(context.Background(), 0)
	assert.ErrorContains(t, err, "no retention window")

	err = p.Handle(context.Background(), asynq.NewTask(TaskPurgeDrafts, []byte("{")))
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

type fakeInspector struct {
	info *asynq.QueueInfo
	err  error
}

func (f fakeInspector) GetQueueInfo(string) (*asynq.QueueInfo, error) { return f.info, f.err }

func TestHealthEndpoint(t *testing.T) {
	serve := func(h *Handler) *httptest.ResponseRecorder {
		r := chi.NewRouter()
		r.Route("/jobs", h.MountRoutes)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/jobs/health", nil))
		return rec
	}

	rec := serve(NewHandler(nil, discard()))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"queue":"default","pending":0,"active":0,"scheduled":0,"retry":0,"failed_today":0}`, rec.Body.String())

	rec = serve(NewHandler(fakeInspector{info: &asynq.QueueInfo{Queue: "default", Pending: 3, Retry: 1}}, discard()))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"queue":"default","pending":3,"active":0,"scheduled":0,"retry":1,"failed_today":0}`, rec.Body.String())

	rec = serve(NewHandler(fakeInspector{err: errors.New("redis gone")}, discard()))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestNewServeMuxSkipsIncompleteHandlers(t *testing.T) {
	called := 0
	mux := NewServeMux([]TaskHandler{
		{Type: TaskPurgeDrafts, Handler: func(context.Context, *asynq.Task) error { called++; return nil }},
		{Type: "", Handler: func(context.Context, *asynq.Task) error { return nil }},
		{Type: "noop"},
	})
	require.NoError(t, mux.ProcessTask(context.Background(), asynq.NewTask(TaskPurgeDrafts, nil)))
	assert.Equal(t, 1, called)
	assert.Error(t, mux.ProcessTask(context.Background(), asynq.NewTask("noop", nil)))
}
