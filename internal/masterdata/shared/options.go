package shared

import (
	"context"
	"strconv"

	"github.com/odyssey-erp/odyssey-backoffice/internal/view"
)

// maxOptionPages bounds how far option loading pages through a collection.
const maxOptionPages = 10

// Lister is the read side of a Repository.
type Lister[T any] interface {
	List(ctx context.Context, filters ListFilters) ([]T, error)
}

// CollectOptions pages through src and turns each row into a select option.
func CollectOptions[T any](ctx context.Context, src Lister[T], pageSize int, id func(T) int64, label func(T) string) ([]view.Option, error) {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	var out []view.Option
	for page := 1; page <= maxOptionPages; page++ {
		rows, err := src.List(ctx, ListFilters{Page: page})
		if err != nil {
			return nil, err
		}
		for _, row := range rows {
			out = append(out, view.Option{Value: strconv.FormatInt(id(row), 10), Label: label(row)})
		}
		if len(rows) < pageSize {
			break
		}
	}
	return out, nil
}

// OptionalID formats an optional id for a form value.
func OptionalID(id *int64) string {
	if id == nil || *id <= 0 {
		return ""
	}
	return strconv.FormatInt(*id, 10)
}

// ParseOptionalID parses a validated optional id.
func ParseOptionalID(raw string) *int64 {
	id, err := ParseID(raw)
	if err != nil {
		return nil
	}
	return &id
}
