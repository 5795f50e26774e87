package view

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/odyssey-erp/odyssey-backoffice/internal/api"
	"github.com/odyssey-erp/odyssey-backoffice/internal/shared"
)

// Pages renders full pages with the per-request chrome (CSRF token, flash).
type Pages struct {
	engine *Engine
	csrf   *shared.CSRFManager
	logger *slog.Logger
}

// NewPages constructs Pages.
func NewPages(engine *Engine, csrf *shared.CSRFManager, logger *slog.Logger) *Pages {
	return &Pages{engine: engine, csrf: csrf, logger: logger}
}

// Render writes the named page with status.
func (p *Pages) Render(w http.ResponseWriter, r *http.Request, name, title string, data any, status int) {
	sess := shared.SessionFromContext(r.Context())
	var token string
	var flashes []shared.FlashMessage
	if sess != nil {
		token, _ = p.csrf.EnsureToken(sess)
		flashes = sess.PopFlashes()
	}
	payload := TemplateData{
		Title:       title,
		CSRFToken:   token,
		Flashes:     flashes,
		CurrentPath: r.URL.Path,
		SignedIn:    api.TokenFromContext(r.Context()) != "",
		Data:        data,
	}
	var buf bytes.Buffer
	if err := p.engine.Execute(&buf, name, payload); err != nil {
		p.logger.Error("render page", slog.String("template", name), slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

// RedirectWithFlash queues flash and sends a 303 to target.
func RedirectWithFlash(w http.ResponseWriter, r *http.Request, target string, flash shared.FlashMessage) {
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		sess.AddFlash(flash)
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// LoginPath is where unauthenticated requests are sent.
const LoginPath = "/auth/login"

// RedirectToLogin drops the stored token and sends the user to sign in,
// returning afterwards to the current page.
func RedirectToLogin(w http.ResponseWriter, r *http.Request) {
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		sess.Delete(shared.TokenSessionKey)
		sess.AddFlash(shared.FlashMessage{Kind: shared.FlashInfo, Message: "Please sign in to continue."})
	}
	next := r.URL.Path
	if r.Method != http.MethodGet {
		next = "/"
	} else if r.URL.RawQuery != "" {
		next += "?" + r.URL.RawQuery
	}
	http.Redirect(w, r, LoginPath+"?next="+url.QueryEscape(next), http.StatusSeeOther)
}
