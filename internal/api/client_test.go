package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type widget struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type recordingObserver struct {
	mu    sync.Mutex
	calls []string
}

func (o *recordingObserver) ObserveUpstream(resource, method string, status int, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.calls = append(o.calls, resource+" "+method)
}

func TestResourceListAcceptsArrayAndEnvelope(t *testing.T) {
	var enveloped bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/widget", r.URL.Path)
		require.Equal(t, "2", r.URL.Query().Get("page"))
		require.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		rows := []widget{{ID: "1", Name: "Alpha"}}
		if enveloped {
			_ = json.NewEncoder(w).Encode(map[string]any{"data": rows})
			return
		}
		_ = json.NewEncoder(w).Encode(rows)
	}))
	defer srv.Close()

	obs := &recordingObserver{}
	res := NewResource[widget](NewClient(srv.URL, time.Second, WithObserver(obs)), "widget")
	ctx := ContextWithToken(context.Background(), "tok")

	rows, err := res.List(ctx, ListParams{Page: 2})
	require.NoError(t, err)
	require.Equal(t, []widget{{ID: "1", Name: "Alpha"}}, rows)

	enveloped = true
	rows, err = res.List(ctx, ListParams{Page: 2})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, []string{"widget GET", "widget GET"}, obs.calls)
}

func TestResourceCRUD(t *testing.T) {
	var lastMethod string
	var lastBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lastMethod = r.Method
		lastBody = nil
		if r.Body != nil {
			_ = json.NewDecoder(r.Body).Decode(&lastBody)
		}
		switch r.Method {
		case http.MethodDelete:
			w.WriteHeader(http.StatusNoContent)
		case http.MethodPost:
			require.Equal(t, "/api/widget", r.URL.Path)
			_ = json.NewEncoder(w).Encode(widget{ID: "9", Name: "New"})
		default:
			require.Equal(t, "/api/widget/9", r.URL.Path)
			_ = json.NewEncoder(w).Encode(widget{ID: "9", Name: "Patched"})
		}
	}))
	defer srv.Close()

	res := NewResource[widget](NewClient(srv.URL, time.Second), "widget")
	ctx := context.Background()

	created, err := res.Create(ctx, map[string]string{"name": "New"})
	require.NoError(t, err)
	require.Equal(t, "9", created.ID)
	require.Equal(t, "New", lastBody["name"])

	updated, err := res.Update(ctx, "9", map[string]string{"name": "Patched"})
	require.NoError(t, err)
	require.Equal(t, http.MethodPatch, lastMethod)
	require.Equal(t, "Patched", updated.Name)

	require.NoError(t, res.Delete(ctx, "9"))
	require.Equal(t, http.MethodDelete, lastMethod)
}

func TestErrorClassification(t *testing.T) {
	cases := []struct {
		status int
		body   string
		want   error
	}{
		{http.StatusUnauthorized, `{"message":"expired"}`, ErrUnauthorized},
		{http.StatusNotFound, ``, ErrNotFound},
		{http.StatusUnprocessableEntity, `{"message":"invalid","errors":{"name":["required"]}}`, ErrValidation},
		{http.StatusInternalServerError, `boom`, ErrUpstream},
	}
	for _, tc := range cases {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
			_, _ = w.Write([]byte(tc.body))
		}))
		_, err := NewResource[widget](NewClient(srv.URL, time.Second), "widget").Get(context.Background(), "1")
		srv.Close()
		require.Error(t, err)
		require.True(t, errors.Is(err, tc.want), "status %d: %v", tc.status, err)
	}
}

func TestFieldErrorsFromValidationResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"errors":[{"field":"name","message":"taken"}]}`))
	}))
	defer srv.Close()

	_, err := NewResource[widget](NewClient(srv.URL, time.Second), "widget").Create(context.Background(), widget{Name: "x"})
	fields, ok := FieldErrors(err)
	require.True(t, ok)
	require.Equal(t, map[string]string{"name": "taken"}, fields)
}

func TestExportReturnsBlob(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/widget/export", r.URL.Path)
		require.Equal(t, "alp", r.URL.Query().Get("search"))
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="widgets.csv"`)
		_, _ = w.Write([]byte("id,name\n1,Alpha\n"))
	}))
	defer srv.Close()

	blob, err := NewResource[widget](NewClient(srv.URL, time.Second), "widget").Export(context.Background(), ListParams{Search: "alp"})
	require.NoError(t, err)
	require.Equal(t, "widgets.csv", blob.Filename)
	require.Equal(t, "text/csv", blob.ContentType)
	require.Contains(t, string(blob.Data), "Alpha")
}

func TestLogin(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/auth/login", r.URL.Path)
		var body loginRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if body.Password != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"token": "abc"})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, time.Second)
	token, err := client.Login(context.Background(), "admin", "secret")
	require.NoError(t, err)
	require.Equal(t, "abc", token)

	_, err = client.Login(context.Background(), "admin", "wrong")
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestTimestampAcceptsDateOnly(t *testing.T) {
	var ts Timestamp
	require.NoError(t, json.Unmarshal([]byte(`"2024-03-05"`), &ts))
	require.Equal(t, "2024-03-05", ts.DateString())
	require.Equal(t, "2024-03-05T00:00:00Z", ts.String())

	require.NoError(t, json.Unmarshal([]byte(`"2024-03-05T10:11:12.5+07:00"`), &ts))
	require.Equal(t, "2024-03-05T03:11:12Z", ts.String())

	require.NoError(t, json.Unmarshal([]byte(`null`), &ts))
	require.True(t, ts.IsZero())

	out, err := json.Marshal(Timestamp{})
	require.NoError(t, err)
	require.Equal(t, "null", string(out))
}
