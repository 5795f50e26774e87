// Package webtest assembles the pieces a page handler needs in tests: a
// fake backend, a miniredis backed query cache and a signed-in session.
package webtest

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-backoffice/internal/api"
	"github.com/odyssey-erp/odyssey-backoffice/internal/querycache"
	"github.com/odyssey-erp/odyssey-backoffice/internal/shared"
	"github.com/odyssey-erp/odyssey-backoffice/internal/testing/backend"
	_ "github.com/odyssey-erp/odyssey-backoffice/internal/testing/guard"
	"github.com/odyssey-erp/odyssey-backoffice/internal/view"
)

// Env is a ready-to-use test environment.
type Env struct {
	T       testing.TB
	Backend *backend.Server
	Redis   *miniredis.Miniredis
	RDB     *redis.Client
	Client  *api.Client
	Cache   *querycache.Cache
	Pages   *view.Pages
	Logger  *slog.Logger
	Session *shared.Session
	// Token is placed in every request context; clear it to act signed out.
	Token string
}

// New builds an Env.
func New(t testing.TB) *Env {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	engine, err := view.NewEngine()
	require.NoError(t, err)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	fake := backend.New(t)

	return &Env{
		T:       t,
		Backend: fake,
		Redis:   mr,
		RDB:     rdb,
		Client:  api.NewClient(fake.URL, 5*time.Second),
		Cache:   querycache.New(rdb, time.Minute),
		Pages:   view.NewPages(engine, shared.NewCSRFManager("test-secret"), logger),
		Logger:  logger,
		Session: &shared.Session{ID: "test-session"},
		Token:   backend.Token,
	}
}

// Router wraps mount with middleware injecting the session and token.
func (e *Env) Router(mount func(chi.Router)) http.Handler {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx := shared.ContextWithSession(req.Context(), e.Session)
			if e.Token != "" {
				ctx = api.ContextWithToken(ctx, e.Token)
			}
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	})
	mount(r)
	return r
}

// Get issues a GET against h.
func (e *Env) Get(h http.Handler, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

// PostForm issues a form POST against h.
func (e *Env) PostForm(h http.Handler, target string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

// PostJSON issues a JSON POST against h.
func (e *Env) PostJSON(h http.Handler, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

// Follow renders the page a 303 points at.
func (e *Env) Follow(h http.Handler, rec *httptest.ResponseRecorder) *httptest.ResponseRecorder {
	e.T.Helper()
	require.Equal(e.T, http.StatusSeeOther, rec.Code, rec.Body.String())
	return e.Get(h, rec.Header().Get("Location"))
}
