// Package api is the data-access layer for the back-office REST backend.
// Every resource follows the same conventions: GET/POST /api/{resource},
// GET/PATCH/DELETE /api/{resource}/{id} and GET /api/{resource}/export.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Observer receives one notification per backend round trip.
type Observer interface {
	ObserveUpstream(resource, method string, status int, elapsed time.Duration)
}

// Client issues authenticated requests against the backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	observer   Observer
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithObserver attaches an upstream call observer.
func WithObserver(o Observer) Option {
	return func(c *Client) { c.observer = o }
}

// NewClient constructs a Client for the backend rooted at baseURL.
func NewClient(baseURL string, timeout time.Duration, opts ...Option) *Client {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ListParams are the query parameters accepted by list and export endpoints.
type ListParams struct {
	Page   int
	Search string
}

func (p ListParams) values() url.Values {
	v := url.Values{}
	if p.Page > 0 {
		v.Set("page", strconv.Itoa(p.Page))
	}
	if s := strings.TrimSpace(p.Search); s != "" {
		v.Set("search", s)
	}
	return v
}

// Blob is a binary download returned by an export endpoint.
type Blob struct {
	Filename    string
	ContentType string
	Data        []byte
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token       string `json:"token"`
	AccessToken string `json:"accessToken"`
}

// Login exchanges credentials for a bearer token.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	var out loginResponse
	if err := c.doJSON(ctx, "auth", http.MethodPost, "/api/auth/login", nil, loginRequest{Username: username, Password: password}, &out); err != nil {
		return "", err
	}
	token := out.Token
	if token == "" {
		token = out.AccessToken
	}
	if token == "" {
		return "", fmt.Errorf("api: login response without token: %w", ErrUpstream)
	}
	return token, nil
}

func (c *Client) doJSON(ctx context.Context, resource, method, path string, query url.Values, body, out any) error {
	raw, _, err := c.do(ctx, resource, method, path, query, body)
	if err != nil {
		return err
	}
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("api: decode %s %s: %w", method, path, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, resource, method, path string, query url.Values, body any) ([]byte, http.Header, error) {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, nil, fmt.Errorf("api: encode %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, nil, fmt.Errorf("api: build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := TokenFromContext(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.observe(resource, method, 0, start)
		return nil, nil, fmt.Errorf("api: %s %s: %v: %w", method, path, err, ErrUpstream)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	c.observe(resource, method, resp.StatusCode, start)

	if resp.StatusCode >= 400 {
		return nil, nil, decodeError(method, path, resp)
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("api: read %s %s: %v: %w", method, path, err, ErrUpstream)
	}
	return raw, resp.Header, nil
}

func (c *Client) observe(resource, method string, status int, start time.Time) {
	if c.observer == nil {
		return
	}
	c.observer.ObserveUpstream(resource, method, status, time.Since(start))
}

func filenameFrom(header http.Header, fallback string) string {
	disposition := header.Get("Content-Disposition")
	if disposition == "" {
		return fallback
	}
	_, params, err := mime.ParseMediaType(disposition)
	if err != nil || params["filename"] == "" {
		return fallback
	}
	return params["filename"]
}
