package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// Resource is a typed view over one backend collection.
type Resource[T any] struct {
	client *Client
	name   string
}

// NewResource binds the collection at /api/{name}.
func NewResource[T any](client *Client, name string) *Resource[T] {
	return &Resource[T]{client: client, name: strings.Trim(name, "/")}
}

// Name returns the resource name used in paths and cache keys.
func (r *Resource[T]) Name() string { return r.name }

func (r *Resource[T]) collectionPath() string { return "/api/" + r.name }

func (r *Resource[T]) itemPath(id string) string {
	return r.collectionPath() + "/" + url.PathEscape(id)
}

// List fetches one page of the collection.
func (r *Resource[T]) List(ctx context.Context, params ListParams) ([]T, error) {
	raw, _, err := r.client.do(ctx, r.name, http.MethodGet, r.collectionPath(), params.values(), nil)
	if err != nil {
		return nil, err
	}
	return decodeList[T](raw)
}

// Get fetches one record by id.
func (r *Resource[T]) Get(ctx context.Context, id string) (T, error) {
	var out T
	raw, _, err := r.client.do(ctx, r.name, http.MethodGet, r.itemPath(id), nil, nil)
	if err != nil {
		return out, err
	}
	return decodeItem[T](raw)
}

// Create posts a new record and returns the server representation.
func (r *Resource[T]) Create(ctx context.Context, body any) (T, error) {
	var out T
	raw, _, err := r.client.do(ctx, r.name, http.MethodPost, r.collectionPath(), nil, body)
	if err != nil {
		return out, err
	}
	return decodeItem[T](raw)
}

// Update patches the record identified by id.
func (r *Resource[T]) Update(ctx context.Context, id string, body any) (T, error) {
	var out T
	raw, _, err := r.client.do(ctx, r.name, http.MethodPatch, r.itemPath(id), nil, body)
	if err != nil {
		return out, err
	}
	return decodeItem[T](raw)
}

// Delete removes the record identified by id.
func (r *Resource[T]) Delete(ctx context.Context, id string) error {
	_, _, err := r.client.do(ctx, r.name, http.MethodDelete, r.itemPath(id), nil, nil)
	return err
}

// Export downloads the backend's rendering of the collection.
func (r *Resource[T]) Export(ctx context.Context, params ListParams) (Blob, error) {
	raw, header, err := r.client.do(ctx, r.name, http.MethodGet, r.collectionPath()+"/export", params.values(), nil)
	if err != nil {
		return Blob{}, err
	}
	contentType := header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return Blob{
		Filename:    filenameFrom(header, r.name+"-export"),
		ContentType: contentType,
		Data:        raw,
	}, nil
}

type envelope struct {
	Data json.RawMessage `json:"data"`
}

// unwrap strips an optional {"data": ...} envelope.
func unwrap(raw []byte) []byte {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return trimmed
	}
	var env envelope
	if err := json.Unmarshal(trimmed, &env); err != nil || len(env.Data) == 0 {
		return trimmed
	}
	return env.Data
}

func decodeList[T any](raw []byte) ([]T, error) {
	body := unwrap(raw)
	if len(body) == 0 || bytes.Equal(body, []byte("null")) {
		return []T{}, nil
	}
	var out []T
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("api: decode list: %w", err)
	}
	if out == nil {
		out = []T{}
	}
	return out, nil
}

func decodeItem[T any](raw []byte) (T, error) {
	var out T
	body := unwrap(raw)
	if len(body) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return out, fmt.Errorf("api: decode item: %w", err)
	}
	return out, nil
}
