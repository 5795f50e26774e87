package auth_test

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-backoffice/internal/api"
	"github.com/odyssey-erp/odyssey-backoffice/internal/auth"
	"github.com/odyssey-erp/odyssey-backoffice/internal/shared"
	"github.com/odyssey-erp/odyssey-backoffice/internal/testing/backend"
	"github.com/odyssey-erp/odyssey-backoffice/internal/testing/webtest"
)

func newRouter(env *webtest.Env) http.Handler {
	sessions := shared.NewSessionManager(env.RDB, "test_session", "secret", time.Hour, false)
	h := auth.NewHandler(env.Logger, auth.NewService(env.Client, env.Logger), env.Pages, sessions)
	return env.Router(func(r chi.Router) {
		r.Route("/auth", h.MountRoutes)
	})
}

func signed(t *testing.T, claims jwt.RegisteredClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("backend-key"))
	require.NoError(t, err)
	return token
}

func TestLoginStoresTokenAndRenewsSession(t *testing.T) {
	env := webtest.New(t)
	env.Token = ""
	router := newRouter(env)

	page := env.Get(router, "/auth/login?next=%2Fmasterdata%2Fcategories")
	require.Equal(t, http.StatusOK, page.Code)
	assert.Contains(t, page.Body.String(), `value="/masterdata/categories"`)

	rec := env.PostForm(router, "/auth/login", url.Values{
		"username": {"admin"},
		"password": {"secret"},
		"next":     {"/masterdata/categories"},
	})
	require.Equal(t, http.StatusSeeOther, rec.Code, rec.Body.String())
	assert.Equal(t, "/masterdata/categories", rec.Header().Get("Location"))
	assert.Equal(t, backend.Token, env.Session.Get(shared.TokenSessionKey))
	assert.NotEqual(t, "test-session", env.Session.ID)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	env := webtest.New(t)
	router := newRouter(env)

	rec := env.PostForm(router, "/auth/login", url.Values{"username": {"admin"}, "password": {"wrong"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Username or password is incorrect.")
	assert.Contains(t, rec.Body.String(), `value="admin"`)
	assert.Empty(t, env.Session.Get(shared.TokenSessionKey))
}

func TestLoginRequiresFields(t *testing.T) {
	env := webtest.New(t)
	router := newRouter(env)

	rec := env.PostForm(router, "/auth/login", url.Values{"password": {"secret"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "This field is required.")
	assert.Empty(t, env.Session.Get(shared.TokenSessionKey))
}

func TestLogoutRedirectsToLogin(t *testing.T) {
	env := webtest.New(t)
	router := newRouter(env)

	rec := env.PostForm(router, "/auth/logout", url.Values{})
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/auth/login", rec.Header().Get("Location"))
}

func TestSafeNext(t *testing.T) {
	cases := map[string]string{
		"":                       "/",
		"/implementation":        "/implementation",
		"/masterdata/items?q=ab": "/masterdata/items?q=ab",
		"https://evil.test/":     "/",
		"//evil.test/":           "/",
		"/\\evil.test":           "/",
		"relative":               "/",
		"/auth/login?next=/":     "/",
	}
	for in, want := range cases {
		assert.Equal(t, want, auth.SafeNext(in), in)
	}
}

func TestInspectToken(t *testing.T) {
	exp := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
	token := signed(t, jwt.RegisteredClaims{Subject: "42", ExpiresAt: jwt.NewNumericDate(exp)})

	info, ok := auth.InspectToken(token)
	require.True(t, ok)
	assert.Equal(t, "42", info.Subject)
	assert.True(t, exp.Equal(info.ExpiresAt))

	assert.False(t, auth.Expired(token, exp.Add(-time.Hour)))
	assert.True(t, auth.Expired(token, exp.Add(-10*time.Second)))
	assert.True(t, auth.Expired(token, exp.Add(time.Hour)))

	_, ok = auth.InspectToken(backend.Token)
	assert.False(t, ok)
	assert.False(t, auth.Expired(backend.Token, exp))
	assert.False(t, auth.Expired(signed(t, jwt.RegisteredClaims{Subject: "7"}), exp))
}

func TestLoadTokenMiddleware(t *testing.T) {
	now := time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)
	valid := signed(t, jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour))})
	expired := signed(t, jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(now.Add(-time.Minute))})
	env := webtest.New(t)

	var seen string
	h := auth.LoadToken(env.Logger, func() time.Time { return now })(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = api.TokenFromContext(r.Context())
	}))
	serve := func(sess *shared.Session) {
		seen = ""
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req = req.WithContext(shared.ContextWithSession(req.Context(), sess))
		h.ServeHTTP(httptest.NewRecorder(), req)
	}

	sess := &shared.Session{ID: "s"}
	sess.Set(shared.TokenSessionKey, valid)
	serve(sess)
	assert.Equal(t, valid, seen)

	sess.Set(shared.TokenSessionKey, expired)
	serve(sess)
	assert.Empty(t, seen)
	assert.Empty(t, sess.Get(shared.TokenSessionKey))

	serve(&shared.Session{ID: "anonymous"})
	assert.Empty(t, seen)
}

func TestRequireToken(t *testing.T) {
	called := false
	h := auth.RequireToken(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true }))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/implementation?page=2", nil))
	assert.False(t, called)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/auth/login?next=%2Fimplementation%3Fpage%3D2", rec.Header().Get("Location"))

	req := httptest.NewRequest(http.MethodGet, "/implementation", nil)
	h.ServeHTTP(httptest.NewRecorder(), req.WithContext(api.ContextWithToken(req.Context(), "t")))
	assert.True(t, called)
}
