package shared

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strconv"

	"github.com/odyssey-erp/odyssey-backoffice/internal/api"
	"github.com/odyssey-erp/odyssey-backoffice/internal/querycache"
)

// Repository is the data-access contract every master data service uses.
type Repository[T any] interface {
	Resource() string
	List(ctx context.Context, filters ListFilters) ([]T, error)
	Get(ctx context.Context, id int64) (T, error)
	Create(ctx context.Context, body any) (T, error)
	Update(ctx context.Context, id int64, body any) (T, error)
	Delete(ctx context.Context, id int64) error
	Export(ctx context.Context, filters ListFilters) (api.Blob, error)
}

type repository[T any] struct {
	res   *api.Resource[T]
	cache *querycache.Cache
}

// NewRepository reads through cache and writes straight to the backend.
func NewRepository[T any](res *api.Resource[T], cache *querycache.Cache) Repository[T] {
	return &repository[T]{res: res, cache: cache}
}

func (r *repository[T]) Resource() string { return r.res.Name() }

func (r *repository[T]) List(ctx context.Context, filters ListFilters) ([]T, error) {
	key := querycache.NewKey(r.res.Name(), scope(ctx), "list", strconv.Itoa(filters.Page), filters.Search)
	return querycache.FetchJSON(ctx, r.cache, key, func(ctx context.Context) ([]T, error) {
		return r.res.List(ctx, filters.Params())
	})
}

func (r *repository[T]) Get(ctx context.Context, id int64) (T, error) {
	key := querycache.NewKey(r.res.Name(), scope(ctx), "item", strconv.FormatInt(id, 10))
	return querycache.FetchJSON(ctx, r.cache, key, func(ctx context.Context) (T, error) {
		return r.res.Get(ctx, strconv.FormatInt(id, 10))
	})
}

func (r *repository[T]) Create(ctx context.Context, body any) (T, error) {
	return r.res.Create(ctx, body)
}

func (r *repository[T]) Update(ctx context.Context, id int64, body any) (T, error) {
	return r.res.Update(ctx, strconv.FormatInt(id, 10), body)
}

func (r *repository[T]) Delete(ctx context.Context, id int64) error {
	return r.res.Delete(ctx, strconv.FormatInt(id, 10))
}

func (r *repository[T]) Export(ctx context.Context, filters ListFilters) (api.Blob, error) {
	return r.res.Export(ctx, filters.Params())
}

// scope keeps cached reads of different bearer tokens apart.
func scope(ctx context.Context) string {
	sum := sha256.Sum256([]byte(api.TokenFromContext(ctx)))
	return hex.EncodeToString(sum[:8])
}
