// Package listing implements the table layer shared by every list page:
// substring filtering over the loaded page and spreadsheet export.
package listing

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Filter keeps the rows whose stringified field values contain query,
// compared case-insensitively. Only the empty query keeps every row; a
// query made of spaces is matched literally like any other substring.
func Filter[T any](rows []T, query string) []T {
	needle := strings.ToLower(query)
	if needle == "" {
		return rows
	}
	out := make([]T, 0, len(rows))
	for _, row := range rows {
		if Matches(row, needle) {
			out = append(out, row)
		}
	}
	return out
}

// Matches reports whether any field value of row contains the lowercased needle.
func Matches(row any, needle string) bool {
	raw, err := json.Marshal(row)
	if err != nil {
		return false
	}
	var tree any
	if err := json.Unmarshal(raw, &tree); err != nil {
		return false
	}
	found := false
	walk(tree, func(s string) {
		if !found && strings.Contains(strings.ToLower(s), needle) {
			found = true
		}
	})
	return found
}

// walk visits the string form of every scalar leaf. Object keys are not
// field values and are skipped.
func walk(node any, visit func(string)) {
	switch v := node.(type) {
	case map[string]any:
		for _, child := range v {
			walk(child, visit)
		}
	case []any:
		for _, child := range v {
			walk(child, visit)
		}
	case string:
		visit(v)
	case float64:
		visit(strconv.FormatFloat(v, 'f', -1, 64))
	case bool:
		visit(strconv.FormatBool(v))
	}
}
