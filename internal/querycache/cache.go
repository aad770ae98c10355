// Package querycache keeps per-user snapshots of list queries. Entries expire
// after a TTL, the least recently used entry is evicted when the cache is
// full, and concurrent loads of the same key share one backend call.
// Mutations invalidate the dependent keys through the event bus.
package querycache

import (
	"container/list"
	"context"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

type Query string

const (
	QueryTransactions Query = "transactions"
	QueryCategories   Query = "categories"
	QueryBudgets      Query = "budgets"
	QueryGoals        Query = "goals"
	QueryDashboard    Query = "dashboard"
)

type Key struct {
	UserID string
	Query  Query
}

func (k Key) String() string {
	return k.UserID + "/" + string(k.Query)
}

type entry struct {
	key       Key
	value     any
	expiresAt time.Time
}

// pendingLoad tracks one caller waiting on a load of a key. It lives only
// until the load finishes or the caller gives up.
type pendingLoad struct {
	running  bool
	released bool
	stale    bool
}

type Stats struct {
	Hits    uint64
	Misses  uint64
	Entries int
	// Pending counts keys with a load in flight.
	Pending int
}

type Cache struct {
	mu         sync.Mutex
	maxEntries int
	ttl        time.Duration
	items      map[Key]*list.Element
	lru        *list.List
	pending    map[Key][]*pendingLoad
	hits       uint64
	misses     uint64
	group      singleflight.Group
	now        func() time.Time
}

type Option func(*Cache)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

func New(maxEntries int, ttl time.Duration, opts ...Option) *Cache {
	if maxEntries <= 0 {
		maxEntries = 1024
	}
	if ttl <= 0 {
		ttl = time.Minute
	}
	c := &Cache{
		maxEntries: maxEntries,
		ttl:        ttl,
		items:      make(map[Key]*list.Element),
		lru:        list.New(),
		pending:    make(map[Key][]*pendingLoad),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// lookup returns the cached value, or registers the caller as waiting on a
// load of key.
func (c *Cache) lookup(key Key) (any, *pendingLoad, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		e := elem.Value.(*entry)
		if !c.now().After(e.expiresAt) {
			c.lru.MoveToFront(elem)
			c.hits++
			return e.value, nil, true
		}
		c.removeElement(elem)
	}
	c.misses++
	p := &pendingLoad{}
	c.pending[key] = append(c.pending[key], p)
	return nil, p, false
}

func (c *Cache) start(p *pendingLoad) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p.running = true
}

// release drops a caller that is not running the load itself.
func (c *Cache) release(key Key, p *pendingLoad) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if p.running {
		return
	}
	p.released = true
	c.dropPending(key, p)
}

// finish stores value unless key was invalidated after the load began or
// the caller that started it already left.
func (c *Cache) finish(key Key, p *pendingLoad, value any, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.dropPending(key, p)
	if !ok || p.stale || p.released {
		return
	}
	e := &entry{key: key, value: value, expiresAt: c.now().Add(c.ttl)}
	if elem, found := c.items[key]; found {
		elem.Value = e
		c.lru.MoveToFront(elem)
		return
	}
	c.items[key] = c.lru.PushFront(e)
	for c.lru.Len() > c.maxEntries {
		c.removeElement(c.lru.Back())
	}
}

func (c *Cache) dropPending(key Key, p *pendingLoad) {
	loads := c.pending[key]
	for i, q := range loads {
		if q == p {
			loads = slices.Delete(loads, i, i+1)
			break
		}
	}
	if len(loads) == 0 {
		delete(c.pending, key)
		return
	}
	c.pending[key] = loads
}

func (c *Cache) removeElement(elem *list.Element) {
	e := elem.Value.(*entry)
	delete(c.items, e.key)
	c.lru.Remove(elem)
}

// Invalidate drops the user's entries for queries and makes any in-flight
// load of them discard its result. Later callers start a new load instead
// of joining the stale one. A nil cache is a no-op.
func (c *Cache) Invalidate(userID string, queries ...Query) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, q := range queries {
		key := Key{UserID: userID, Query: q}
		for _, p := range c.pending[key] {
			p.stale = true
		}
		delete(c.pending, key)
		c.group.Forget(key.String())
		if elem, ok := c.items[key]; ok {
			c.removeElement(elem)
		}
	}
}

// CleanExpired removes expired entries and returns how many were dropped.
func (c *Cache) CleanExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for elem := c.lru.Front(); elem != nil; {
		next := elem.Next()
		if now.After(elem.Value.(*entry).expiresAt) {
			c.removeElement(elem)
			removed++
		}
		elem = next
	}
	return removed
}

func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{Hits: c.hits, Misses: c.misses, Entries: len(c.items), Pending: len(c.pending)}
}

// Fetch returns the cached value for key or loads it. Callers receive
// clone(value) so the cached snapshot is never shared. A nil cache always
// loads.
func Fetch[T any](ctx context.Context, c *Cache, key Key, load func(context.Context) (T, error), clone func(T) T) (T, error) {
	if c == nil {
		return load(ctx)
	}
	v, p, ok := c.lookup(key)
	if ok {
		return clone(v.(T)), nil
	}
	defer c.release(key, p)

	ch := c.group.DoChan(key.String(), func() (any, error) {
		c.start(p)
		v, err := load(context.WithoutCancel(ctx))
		c.finish(key, p, v, err == nil)
		if err != nil {
			return nil, err
		}
		return v, nil
	})

	var zero T
	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		return clone(res.Val.(T)), nil
	}
}

// FetchList is Fetch for slices of values.
func FetchList[T any](ctx context.Context, c *Cache, key Key, load func(context.Context) ([]T, error)) ([]T, error) {
	return Fetch(ctx, c, key, load, func(s []T) []T { return slices.Clone(s) })
}
