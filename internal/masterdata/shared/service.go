package shared

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/odyssey-erp/odyssey-backoffice/internal/api"
	"github.com/odyssey-erp/odyssey-backoffice/internal/forms"
)

// Form is a submitted entity form.
type Form interface {
	Validate() forms.Result
	// Payload is the request body sent to the backend.
	Payload() (any, error)
}

// Invalidator marks a cached resource stale.
type Invalidator interface {
	Invalidate(ctx context.Context, resource string) error
}

// Service runs validation and keeps the cache consistent with writes.
type Service[T any] struct {
	repo   Repository[T]
	cache  Invalidator
	logger *slog.Logger
}

// NewService constructs a Service.
func NewService[T any](repo Repository[T], cache Invalidator, logger *slog.Logger) *Service[T] {
	return &Service[T]{repo: repo, cache: cache, logger: logger}
}

// Resource names the backend collection.
func (s *Service[T]) Resource() string { return s.repo.Resource() }

func (s *Service[T]) List(ctx context.Context, filters ListFilters) ([]T, error) {
	return s.repo.List(ctx, filters)
}

func (s *Service[T]) Get(ctx context.Context, id int64) (T, error) {
	if id <= 0 {
		var zero T
		return zero, ErrInvalidID
	}
	return s.repo.Get(ctx, id)
}

// Create validates form and posts it. Invalid forms never reach the backend.
func (s *Service[T]) Create(ctx context.Context, form Form) (T, error) {
	var zero T
	body, err := s.prepare(form)
	if err != nil {
		return zero, err
	}
	created, err := s.repo.Create(ctx, body)
	if err != nil {
		return zero, err
	}
	s.invalidate(ctx)
	return created, nil
}

// Update validates form and patches record id.
func (s *Service[T]) Update(ctx context.Context, id int64, form Form) (T, error) {
	var zero T
	if id <= 0 {
		return zero, ErrInvalidID
	}
	body, err := s.prepare(form)
	if err != nil {
		return zero, err
	}
	updated, err := s.repo.Update(ctx, id, body)
	if err != nil {
		return zero, err
	}
	s.invalidate(ctx)
	return updated, nil
}

func (s *Service[T]) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return ErrInvalidID
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

func (s *Service[T]) Export(ctx context.Context, filters ListFilters) (api.Blob, error) {
	return s.repo.Export(ctx, filters)
}

func (s *Service[T]) prepare(form Form) (any, error) {
	if err := form.Validate().Err(); err != nil {
		return nil, err
	}
	body, err := form.Payload()
	if err != nil {
		return nil, fmt.Errorf("%s payload: %w", s.repo.Resource(), err)
	}
	return body, nil
}

func (s *Service[T]) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, s.repo.Resource()); err != nil {
		s.logger.Warn("cache invalidation failed", slog.String("resource", s.repo.Resource()), slog.Any("error", err))
	}
}

// FieldErrorsOf returns the inline errors carried by err, whether they
// came from local validation or from a backend 400/422 response.
func FieldErrorsOf(err error) (forms.FieldErrors, bool) {
	var verr *forms.ValidationError
	if errors.As(err, &verr) {
		return verr.Fields, true
	}
	if fields, ok := api.FieldErrors(err); ok {
		return forms.FieldErrors(fields), true
	}
	return nil, false
}
