// Package backend is an in-memory stand-in for the REST backend used by
// handler tests. Every collection lives at /api/{resource}.
package backend

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
)

// Token is the bearer token accepted by the fake.
const Token = "test-token"

// Call records one request seen by the fake.
type Call struct {
	Method   string
	Resource string
	ID       string
	Body     map[string]any
}

// Server is a running fake backend.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	records  map[string][]map[string]any
	nextID   int64
	calls    []Call
	failures map[string]int
	PageSize int
}

// New starts a fake backend that is closed when t finishes.
func New(t testing.TB) *Server {
	t.Helper()
	s := &Server{records: map[string][]map[string]any{}, nextID: 1, failures: map[string]int{}, PageSize: 20}
	r := chi.NewRouter()
	r.Post("/api/auth/login", s.login)
	r.Group(func(r chi.Router) {
		r.Use(s.requireToken)
		r.Get("/api/{resource}", s.list)
		r.Post("/api/{resource}", s.create)
		r.Get("/api/{resource}/export", s.export)
		r.Get("/api/{resource}/{id}", s.get)
		r.Patch("/api/{resource}/{id}", s.update)
		r.Delete("/api/{resource}/{id}", s.remove)
	})
	s.Server = httptest.NewServer(r)
	t.Cleanup(s.Close)
	return s
}

// Seed stores records under resource, assigning ids where missing.
func (s *Server) Seed(resource string, records ...map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range records {
		s.insert(resource, rec)
	}
}

// Records returns a copy of the stored records of resource.
func (s *Server) Records(resource string) []map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]map[string]any, 0, len(s.records[resource]))
	for _, rec := range s.records[resource] {
		out = append(out, clone(rec))
	}
	return out
}

// Calls returns the requests made against resource with method.
func (s *Server) Calls(resource, method string) []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Call
	for _, c := range s.calls {
		if c.Resource == resource && c.Method == method {
			out = append(out, c)
		}
	}
	return out
}

// CallCount counts every request seen so far.
func (s *Server) CallCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

// FailNext makes the next request to resource answer with status.
func (s *Server) FailNext(resource string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[resource] = status
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Password != "secret" {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"message": "invalid credentials"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"token": Token})
}

func (s *Server) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+Token {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"message": "unauthorized"})
			return
		}
		resource := chi.URLParam(r, "resource")
		s.mu.Lock()
		status, fail := s.failures[resource]
		delete(s.failures, resource)
		s.mu.Unlock()
		if fail {
			writeJSON(w, status, map[string]any{"message": http.StatusText(status)})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) list(w http.ResponseWriter, r *http.Request) {
	resource := chi.URLParam(r, "resource")
	s.record(Call{Method: http.MethodGet, Resource: resource})
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	search := strings.ToLower(r.URL.Query().Get("search"))

	s.mu.Lock()
	var matched []map[string]any
	for _, rec := range s.records[resource] {
		if search == "" || containsText(rec, search) {
			matched = append(matched, clone(rec))
		}
	}
	s.mu.Unlock()

	start := (page - 1) * s.PageSize
	if start > len(matched) {
		start = len(matched)
	}
	end := start + s.PageSize
	if end > len(matched) {
		end = len(matched)
	}
	rows := matched[start:end]
	if rows == nil {
		rows = []map[string]any{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": rows})
}

func (s *Server) get(w http.ResponseWriter, r *http.Request) {
	resource, id := chi.URLParam(r, "resource"), chi.URLParam(r, "id")
	s.record(Call{Method: http.MethodGet, Resource: resource, ID: id})
	s.mu.Lock()
	rec, _ := s.find(resource, id)
	s.mu.Unlock()
	if rec == nil {
		writeJSON(w, http.StatusNotFound, map[string]any{"message": "not found"})
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) create(w http.ResponseWriter, r *http.Request) {
	resource := chi.URLParam(r, "resource")
	body, ok := decodeBody(w, r)
	if !ok {
		return
	}
	s.record(Call{Method: http.MethodPost, Resource: resource, Body: body})
	s.mu.Lock()
	rec := s.insert(resource, body)
	s.mu.Unlock()
	writeJSON(w, http.StatusCreated, rec)
}

func (s *Server) update(w http.ResponseWriter, r *http.Request) {
	resource, id := chi.URLParam(r, "resource"), chi.URLParam(r, "id")
	body, ok := decodeBody(w, r)
	if !ok {
		return
	}
	s.record(Call{Method: http.MethodPatch, Resource: resource, ID: id, Body: body})
	s.mu.Lock()
	rec, _ := s.find(resource, id)
	if rec != nil {
		for k, v := range body {
			if k != "id" {
				rec[k] = v
			}
		}
		rec = clone(rec)
	}
	s.mu.Unlock()
	if rec == nil {
		writeJSON(w, http.StatusNotFound, map[string]any{"message": "not found"})
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) remove(w http.ResponseWriter, r *http.Request) {
	resource, id := chi.URLParam(r, "resource"), chi.URLParam(r, "id")
	s.record(Call{Method: http.MethodDelete, Resource: resource, ID: id})
	s.mu.Lock()
	_, idx := s.find(resource, id)
	if idx >= 0 {
		rows := s.records[resource]
		s.records[resource] = append(rows[:idx:idx], rows[idx+1:]...)
	}
	s.mu.Unlock()
	if idx < 0 {
		writeJSON(w, http.StatusNotFound, map[string]any{"message": "not found"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) export(w http.ResponseWriter, r *http.Request) {
	resource := chi.URLParam(r, "resource")
	s.record(Call{Method: http.MethodGet, Resource: resource, ID: "export"})
	s.mu.Lock()
	var b strings.Builder
	for _, rec := range s.records[resource] {
		keys := make([]string, 0, len(rec))
		for k := range rec {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		cells := make([]string, 0, len(keys))
		for _, k := range keys {
			cells = append(cells, fmt.Sprint(rec[k]))
		}
		b.WriteString(strings.Join(cells, ",") + "\n")
	}
	s.mu.Unlock()
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", resource+".csv"))
	_, _ = w.Write([]byte(b.String()))
}

func (s *Server) record(c Call) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, c)
}

// insert must be called with mu held.
func (s *Server) insert(resource string, rec map[string]any) map[string]any {
	rec = clone(rec)
	if _, ok := rec["id"]; !ok {
		rec["id"] = s.nextID
	}
	if id, err := strconv.ParseInt(fmt.Sprint(rec["id"]), 10, 64); err == nil && id >= s.nextID {
		s.nextID = id + 1
	}
	s.records[resource] = append(s.records[resource], rec)
	return clone(rec)
}

// find must be called with mu held.
func (s *Server) find(resource, id string) (map[string]any, int) {
	for i, rec := range s.records[resource] {
		if fmt.Sprint(rec["id"]) == id {
			return rec, i
		}
	}
	return nil, -1
}

func decodeBody(w http.ResponseWriter, r *http.Request) (map[string]any, bool) {
	body := map[string]any{}
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"message": "invalid body"})
		return nil, false
	}
	return body, true
}

func containsText(rec map[string]any, needle string) bool {
	for _, v := range rec {
		if s, ok := v.(string); ok && strings.Contains(strings.ToLower(s), needle) {
			return true
		}
	}
	return false
}

func clone(rec map[string]any) map[string]any {
	out := make(map[string]any, len(rec))
	for k, v := range rec {
		out[k] = v
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
