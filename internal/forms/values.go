package forms

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Text returns the trimmed value of key.
func Text(values url.Values, key string) string {
	return strings.TrimSpace(values.Get(key))
}

// Checked reports whether a checkbox was submitted.
func Checked(values url.Values, key string) bool {
	switch strings.ToLower(values.Get(key)) {
	case "on", "true", "1", "yes":
		return true
	default:
		return false
	}
}

// Tags splits a comma separated tag input, dropping blanks and duplicates
// while keeping the first-seen order.
func Tags(raw string) []string {
	seen := make(map[string]struct{})
	out := []string{}
	for _, part := range strings.Split(raw, ",") {
		tag := strings.TrimSpace(part)
		if tag == "" {
			continue
		}
		key := strings.ToLower(tag)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, tag)
	}
	return out
}

// Decimal parses a validated decimal field, treating blank as zero.
func Decimal(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}

// ParseDateList parses comma separated YYYY-MM-DD dates.
func ParseDateList(raw string) ([]time.Time, error) {
	out := []time.Time{}
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		t, err := time.Parse(time.DateOnly, part)
		if err != nil {
			return nil, fmt.Errorf("forms: date %q: %w", part, err)
		}
		out = append(out, t)
	}
	return out, nil
}
