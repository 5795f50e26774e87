// Package querycache is the resource cache in front of the backend API.
// Entries live in Redis under a per-resource version; invalidating a
// resource bumps its version so every entry for it becomes unreachable.
package querycache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// State describes what Read knows about a key.
type State int

const (
	// Idle means nothing is cached and no load is running.
	Idle State = iota
	// Pending means a load for the key is in flight.
	Pending
	// Ready means data is cached for the current version.
	Ready
	// Failed means the last load for the current version failed.
	Failed
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	default:
		return "idle"
	}
}

// Entry is a snapshot of one key.
type Entry struct {
	State State
	Data  []byte
	Err   error
}

// Key addresses one cached query of a resource.
type Key struct {
	Resource string
	Query    string
}

// NewKey builds a Key; parts are joined into the query component.
func NewKey(resource string, parts ...string) Key {
	return Key{Resource: resource, Query: strings.Join(parts, "|")}
}

// Observer is told about every Fetch outcome.
type Observer interface {
	ObserveCache(resource, outcome string)
}

// Cache outcomes reported to the Observer.
const (
	OutcomeHit   = "hit"
	OutcomeMiss  = "miss"
	OutcomeError = "error"
)

// Cache coalesces and stores backend reads.
type Cache struct {
	client      *redis.Client
	ttl         time.Duration
	loadTimeout time.Duration
	prefix      string
	observer    Observer

	group singleflight.Group

	mu       sync.Mutex
	inflight map[string]int
	failures map[string]error
}

// Option customises a Cache.
type Option func(*Cache)

// WithObserver attaches a hit/miss observer.
func WithObserver(o Observer) Option {
	return func(c *Cache) { c.observer = o }
}

// WithPrefix namespaces Redis keys.
func WithPrefix(prefix string) Option {
	return func(c *Cache) { c.prefix = prefix }
}

// WithLoadTimeout bounds a shared load once it has been detached from the
// caller that started it.
func WithLoadTimeout(d time.Duration) Option {
	return func(c *Cache) { c.loadTimeout = d }
}

// New constructs a Cache.
func New(client *redis.Client, ttl time.Duration, opts ...Option) *Cache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	c := &Cache{
		client:      client,
		ttl:         ttl,
		loadTimeout: 30 * time.Second,
		prefix:      "qc",
		inflight:    make(map[string]int),
		failures:    make(map[string]error),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Invalidate marks every entry of resource stale.
func (c *Cache) Invalidate(ctx context.Context, resource string) error {
	if err := c.client.Incr(ctx, c.versionKey(resource)).Err(); err != nil {
		return fmt.Errorf("querycache: invalidate %s: %w", resource, err)
	}
	stale := c.prefix + ":" + resource + ":"
	c.mu.Lock()
	for k := range c.failures {
		if strings.HasPrefix(k, stale) {
			delete(c.failures, k)
		}
	}
	c.mu.Unlock()
	return nil
}

// Read reports the state of key without triggering a load.
func (c *Cache) Read(ctx context.Context, key Key) Entry {
	dataKey, err := c.dataKey(ctx, key)
	if err != nil {
		return Entry{State: Failed, Err: err}
	}
	c.mu.Lock()
	pending := c.inflight[dataKey] > 0
	failure := c.failures[dataKey]
	c.mu.Unlock()
	if pending {
		return Entry{State: Pending}
	}
	data, err := c.client.Get(ctx, dataKey).Bytes()
	if err == nil {
		return Entry{State: Ready, Data: data}
	}
	if !errors.Is(err, redis.Nil) {
		return Entry{State: Failed, Err: err}
	}
	if failure != nil {
		return Entry{State: Failed, Err: failure}
	}
	return Entry{State: Idle}
}

// Fetch returns cached bytes for key or runs load once for all concurrent
// callers of the same key and version.
func (c *Cache) Fetch(ctx context.Context, key Key, load func(context.Context) ([]byte, error)) ([]byte, error) {
	dataKey, err := c.dataKey(ctx, key)
	if err != nil {
		// Redis is down: serve straight from the backend.
		c.observe(key.Resource, OutcomeError)
		return load(ctx)
	}
	if data, err := c.client.Get(ctx, dataKey).Bytes(); err == nil {
		c.observe(key.Resource, OutcomeHit)
		return data, nil
	}
	c.observe(key.Resource, OutcomeMiss)

	ch := c.group.DoChan(dataKey, func() (any, error) {
		c.begin(dataKey)
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.loadTimeout)
		defer cancel()
		data, err := load(loadCtx)
		c.finish(dataKey, err)
		if err != nil {
			return nil, err
		}
		_ = c.client.Set(loadCtx, dataKey, data, c.ttl).Err()
		return data, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]byte), nil
	}
}

// FetchJSON is Fetch for JSON-encodable values.
func FetchJSON[T any](ctx context.Context, c *Cache, key Key, load func(context.Context) (T, error)) (T, error) {
	var out T
	raw, err := c.Fetch(ctx, key, func(ctx context.Context) ([]byte, error) {
		v, err := load(ctx)
		if err != nil {
			return nil, err
		}
		return json.Marshal(v)
	})
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("querycache: decode %s: %w", key.Resource, err)
	}
	return out, nil
}

func (c *Cache) begin(dataKey string) {
	c.mu.Lock()
	c.inflight[dataKey]++
	c.mu.Unlock()
}

func (c *Cache) finish(dataKey string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inflight[dataKey]--; c.inflight[dataKey] <= 0 {
		delete(c.inflight, dataKey)
	}
	if err != nil {
		c.failures[dataKey] = err
		return
	}
	delete(c.failures, dataKey)
}

func (c *Cache) observe(resource, outcome string) {
	if c.observer != nil {
		c.observer.ObserveCache(resource, outcome)
	}
}

func (c *Cache) versionKey(resource string) string {
	return c.prefix + ":ver:" + resource
}

func (c *Cache) dataKey(ctx context.Context, key Key) (string, error) {
	version, err := c.client.Get(ctx, c.versionKey(key.Resource)).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return "", fmt.Errorf("querycache: version %s: %w", key.Resource, err)
	}
	return c.prefix + ":" + key.Resource + ":" + strconv.FormatInt(version, 10) + ":" + key.Query, nil
}
