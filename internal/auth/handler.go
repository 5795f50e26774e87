package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/odyssey-backoffice/internal/forms"
	"github.com/odyssey-erp/odyssey-backoffice/internal/shared"
	"github.com/odyssey-erp/odyssey-backoffice/internal/view"
)

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger         *slog.Logger
	service        *Service
	pages          *view.Pages
	sessionManager *shared.SessionManager
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, pages *view.Pages, sessions *shared.SessionManager) *Handler {
	return &Handler{logger: logger, service: service, pages: pages, sessionManager: sessions}
}

// MountRoutes registers auth routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/login", h.showLogin)
	r.Post("/login", h.handleLogin)
	r.Post("/logout", h.handleLogout)
}

type loginForm struct {
	Username string `form:"username" validate:"required,max=120"`
	Password string `form:"password" validate:"required"`
}

type loginPageData struct {
	Username string
	Next     string
	Errors   forms.FieldErrors
}

func (h *Handler) showLogin(w http.ResponseWriter, r *http.Request) {
	data := loginPageData{Next: SafeNext(r.URL.Query().Get("next")), Errors: forms.FieldErrors{}}
	h.pages.Render(w, r, "pages/login.html", "Sign in", data, http.StatusOK)
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	form := loginForm{
		Username: forms.Text(r.PostForm, "username"),
		Password: r.PostFormValue("password"),
	}
	data := loginPageData{Username: form.Username, Next: SafeNext(r.PostFormValue("next"))}
	sess := shared.SessionFromContext(r.Context())

	if res := forms.Default().Check(form); !res.OK() {
		data.Errors = res.Errors
		h.pages.Render(w, r, "pages/login.html", "Sign in", data, http.StatusBadRequest)
		return
	}

	token, err := h.service.Authenticate(r.Context(), form.Username, form.Password)
	if err != nil {
		status := http.StatusBadRequest
		msg := "Username or password is incorrect."
		if !errors.Is(err, shared.ErrInvalidCredentials) {
			h.logger.Error("login failed", slog.Any("error", err))
			status = http.StatusBadGateway
			msg = shared.UserSafeMessage(err)
		}
		if sess != nil {
			sess.AddFlash(shared.FlashMessage{Kind: shared.FlashError, Message: msg})
		}
		data.Errors = forms.FieldErrors{}
		h.pages.Render(w, r, "pages/login.html", "Sign in", data, status)
		return
	}

	if sess == nil {
		h.logger.Error("session missing during login")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	h.sessionManager.Renew(sess)
	sess.Set(shared.TokenSessionKey, token)
	sess.AddFlash(shared.FlashMessage{Kind: shared.FlashSuccess, Message: "Signed in."})
	http.Redirect(w, r, data.Next, http.StatusSeeOther)
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		h.sessionManager.Destroy(sess)
	}
	http.Redirect(w, r, view.LoginPath, http.StatusSeeOther)
}

// SafeNext keeps redirects after login on this site.
func SafeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return "/"
	}
	u, err := url.Parse(next)
	if err != nil || u.IsAbs() || u.Host != "" || strings.HasPrefix(u.Path, view.LoginPath) {
		return "/"
	}
	return next
}
