package cache

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"golang.org/x/sync/singleflight"
)

var (
	ErrCacheMiss = errors.New("cache: key not found")
)

// Lookup results reported to an Observer.
const (
	ResultHit    = "hit"
	ResultMiss   = "miss"
	ResultShared = "shared"
	ResultError  = "error"
)

// Observer is notified of every GetOrCompute outcome.
type Observer func(result string)

type Option func(*options)

type options struct {
	observer Observer
}

// WithObserver reports hits, misses and failures, e.g. to metrics.
func WithObserver(o Observer) Option {
	return func(opts *options) {
		opts.observer = o
	}
}

// Keyed is an in-process cache that computes each key at most once at a time
// and keeps successful values for the life of the process. Failed computations
// are never stored.
type Keyed[V any] struct {
	mu    sync.RWMutex
	data  map[string]V
	group singleflight.Group
	opts  options
}

// NewKeyed creates an empty cache.
func NewKeyed[V any](opts ...Option) *Keyed[V] {
	c := &Keyed[V]{data: make(map[string]V)}
	for _, opt := range opts {
		opt(&c.opts)
	}
	return c
}

func (c *Keyed[V]) Get(key string) (V, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	v, ok := c.data[key]
	if !ok {
		return v, ErrCacheMiss
	}
	return v, nil
}

func (c *Keyed[V]) Set(key string, v V) {
	c.mu.Lock()
	c.data[key] = v
	c.mu.Unlock()
}

func (c *Keyed[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.data)
}

// Keys returns the stored keys in sorted order.
func (c *Keyed[V]) Keys() []string {
	c.mu.RLock()
	keys := make([]string, 0, len(c.data))
	for k := range c.data {
		keys = append(keys, k)
	}
	c.mu.RUnlock()
	sort.Strings(keys)
	return keys
}

// GetOrCompute returns the stored value for key, or runs compute once for all
// concurrent callers that miss on the same key. compute runs detached from
// ctx cancellation so an abandoned request still completes and fills the
// cache; ctx only bounds how long this caller waits.
func (c *Keyed[V]) GetOrCompute(ctx context.Context, key string, compute func(context.Context) (V, error)) (V, error) {
	if v, err := c.Get(key); err == nil {
		c.observe(ResultHit)
		return v, nil
	}

	ch := c.group.DoChan(key, func() (interface{}, error) {
		// Another flight may have stored the key between Get and DoChan.
		if v, err := c.Get(key); err == nil {
			return v, nil
		}
		v, err := compute(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}
		c.Set(key, v)
		return v, nil
	})

	var zero V
	select {
	case res := <-ch:
		if res.Err != nil {
			c.observe(ResultError)
			return zero, res.Err
		}
		if res.Shared {
			c.observe(ResultShared)
		} else {
			c.observe(ResultMiss)
		}
		v, ok := res.Val.(V)
		if !ok {
			return zero, fmt.Errorf("cache: unexpected value type %T for key %q", res.Val, key)
		}
		return v, nil
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

func (c *Keyed[V]) observe(result string) {
	if c.opts.observer != nil {
		c.opts.observer(result)
	}
}
