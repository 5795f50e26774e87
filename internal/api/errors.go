package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Sentinel errors used to classify backend failures with errors.Is.
var (
	ErrUnauthorized = errors.New("api: unauthorized")
	ErrNotFound     = errors.New("api: not found")
	ErrValidation   = errors.New("api: validation failed")
	ErrUpstream     = errors.New("api: upstream failure")
)

// Error is returned for every non-2xx backend response.
type Error struct {
	Method  string
	Path    string
	Status  int
	Message string
	Fields  map[string]string
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	return fmt.Sprintf("api: %s %s: %d %s", e.Method, e.Path, e.Status, msg)
}

// Unwrap maps the HTTP status onto the sentinel errors.
func (e *Error) Unwrap() error {
	switch {
	case e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden:
		return ErrUnauthorized
	case e.Status == http.StatusNotFound:
		return ErrNotFound
	case e.Status == http.StatusBadRequest || e.Status == http.StatusUnprocessableEntity:
		return ErrValidation
	default:
		return ErrUpstream
	}
}

// FieldErrors extracts per-field messages from a backend validation error.
func FieldErrors(err error) (map[string]string, bool) {
	var apiErr *Error
	if !errors.As(err, &apiErr) || len(apiErr.Fields) == 0 {
		return nil, false
	}
	return apiErr.Fields, true
}

type errorBody struct {
	Message string          `json:"message"`
	Detail  string          `json:"detail"`
	Title   string          `json:"title"`
	Errors  json.RawMessage `json:"errors"`
}

func decodeError(method, path string, resp *http.Response) error {
	apiErr := &Error{Method: method, Path: path, Status: resp.StatusCode}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil || len(raw) == 0 {
		return apiErr
	}
	var body errorBody
	if err := json.Unmarshal(raw, &body); err != nil {
		apiErr.Message = strings.TrimSpace(string(raw))
		return apiErr
	}
	switch {
	case body.Message != "":
		apiErr.Message = body.Message
	case body.Detail != "":
		apiErr.Message = body.Detail
	default:
		apiErr.Message = body.Title
	}
	apiErr.Fields = decodeFieldErrors(body.Errors)
	return apiErr
}

// decodeFieldErrors accepts {"field": "msg"}, {"field": ["msg", ...]} and
// [{"field": "...", "message": "..."}].
func decodeFieldErrors(raw json.RawMessage) map[string]string {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	fields := make(map[string]string)
	var asMap map[string]json.RawMessage
	if err := json.Unmarshal(raw, &asMap); err == nil {
		for field, value := range asMap {
			var single string
			if err := json.Unmarshal(value, &single); err == nil {
				fields[field] = single
				continue
			}
			var many []string
			if err := json.Unmarshal(value, &many); err == nil && len(many) > 0 {
				fields[field] = strings.Join(many, "; ")
			}
		}
		return fields
	}
	var asList []struct {
		Field   string `json:"field"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &asList); err == nil {
		for _, item := range asList {
			if item.Field == "" {
				continue
			}
			if prev, ok := fields[item.Field]; ok {
				fields[item.Field] = prev + "; " + item.Message
				continue
			}
			fields[item.Field] = item.Message
		}
	}
	if len(fields) == 0 {
		return nil
	}
	return fields
}
