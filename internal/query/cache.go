// Package query is a small keyed read cache. Each key maps to an
// explicit {value, validity flag} entry; invalidation is a plain map
// write, and subscribers are told so they can refetch.
package query

import (
	"context"
	"slices"
	"sync"
)

type entry[T any] struct {
	value T
	valid bool
	// seen is true once the first fetch succeeded, so Peek can hand
	// out the last snapshot even while the entry is invalid.
	seen bool
	// gen is bumped by every Invalidate so a fetch that was already in
	// flight when the invalidation landed cannot re-mark the entry
	// valid with its stale result.
	gen uint64
}

type Cache[T any] struct {
	mu      sync.Mutex
	fetch   map[string]func(context.Context) (T, error)
	entries map[string]*entry[T]
	subs    []*subscriber
}

type subscriber struct {
	fn func(key string)
}

func New[T any]() *Cache[T] {
	return &Cache[T]{
		fetch:   map[string]func(context.Context) (T, error){},
		entries: map[string]*entry[T]{},
	}
}

// Register binds key to a fetch function. Registering again replaces
// the function and drops any cached value.
func (c *Cache[T]) Register(key string, fetch func(context.Context) (T, error)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fetch[key] = fetch
	c.entries[key] = &entry[T]{}
}

// Get returns the cached value for key, fetching when the entry is
// missing or invalid. A failed fetch leaves the entry invalid; the
// previous snapshot stays available through Peek.
func (c *Cache[T]) Get(ctx context.Context, key string) (T, error) {
	c.mu.Lock()
	e, fetch := c.entries[key], c.fetch[key]
	if e != nil && e.valid {
		v := e.value
		c.mu.Unlock()
		return v, nil
	}
	var startGen uint64
	if e != nil {
		startGen = e.gen
	}
	c.mu.Unlock()

	var zero T
	if fetch == nil {
		return zero, &UnknownKeyError{Key: key}
	}
	v, err := fetch(ctx)
	if err != nil {
		return zero, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	cur := c.entries[key]
	if cur == nil || cur != e {
		// Register replaced the entry mid-fetch; leave it alone
		return v, nil
	}
	cur.value = v
	cur.seen = true
	// an Invalidate that landed during the fetch wins: the value is
	// still the freshest read we have for Peek, but the entry stays
	// invalid so the next Get refetches
	cur.valid = cur.gen == startGen
	return v, nil
}

// Peek returns the last successfully fetched value for key without
// fetching, whether or not the entry is still valid.
func (c *Cache[T]) Peek(key string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e := c.entries[key]; e != nil && e.seen {
		return e.value, true
	}
	var zero T
	return zero, false
}

// Invalidate marks key stale so the next Get refetches.
func (c *Cache[T]) Invalidate(key string) {
	c.mu.Lock()
	if e := c.entries[key]; e != nil {
		e.valid = false
		e.gen++
	}
	subs := slices.Clone(c.subs)
	c.mu.Unlock()

	for _, s := range subs {
		s.fn(key)
	}
}

// Subscribe registers fn to run on every invalidation. The returned
// func cancels the subscription.
func (c *Cache[T]) Subscribe(fn func(key string)) func() {
	s := &subscriber{fn: fn}
	c.mu.Lock()
	c.subs = append(c.subs, s)
	c.mu.Unlock()
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if i := slices.Index(c.subs, s); 0 <= i {
			c.subs = slices.Delete(slices.Clone(c.subs), i, i+1)
		}
	}
}

// UnknownKeyError reports a Get for a key nothing was registered
// under.
type UnknownKeyError struct {
	Key string
}

func (e *UnknownKeyError) Error() string {
	return "no query registered under key " + e.Key
}
