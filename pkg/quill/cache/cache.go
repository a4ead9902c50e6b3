// Package cache implements quill's concurrent mirror of the remote
// accessibility tree.
//
// The store is sharded: lookups take a per-shard read lock, and every item
// additionally carries its own read/write lock guarding its fields, so
// readers of different items never block each other. Cross-references
// between items are identities, never pointers. Operations that touch two
// items at once (parent/child fixups) acquire both item locks in identity
// order to prevent deadlock, and no lock is ever held across a fetch.
package cache

import (
	"context"
	"hash/fnv"
	"iter"
	"log/slog"
	"sync"
	"time"

	"github.com/quillreader/quill/pkg/quill/a11y"
	"github.com/quillreader/quill/pkg/quill/errors"
)

// Fetcher is the external accessibility-bus client's fetch-by-id
// primitive, used only on cache miss.
type Fetcher interface {
	FetchObject(ctx context.Context, id a11y.Identity) (a11y.CacheItem, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, id a11y.Identity) (a11y.CacheItem, error)

// FetchObject implements Fetcher.
func (f FetcherFunc) FetchObject(ctx context.Context, id a11y.Identity) (a11y.CacheItem, error) {
	return f(ctx, id)
}

// shardCount must be a power of two.
const shardCount = 64

// MaxTreeDepth bounds every tree traversal. A well-formed accessibility
// tree is nowhere near this deep; hitting the bound means an invariant
// violation, and the traversal truncates rather than spinning.
const MaxTreeDepth = 128

// Config configures a Cache.
type Config struct {
	// Fetcher resolves identities absent from the cache. Optional; without
	// it a miss is simply NotFound.
	Fetcher Fetcher

	// FetchTimeout bounds a single fetch. Default: 2s.
	FetchTimeout time.Duration

	// Logger for debug/warn output. Optional.
	Logger *slog.Logger

	// OnLookup is called after every Get with the hit/miss outcome.
	OnLookup func(id a11y.Identity, hit bool)

	// OnFetch is called after every fetch attempt.
	OnFetch func(id a11y.Identity, duration time.Duration, err error)
}

// DefaultConfig provides reasonable defaults.
var DefaultConfig = Config{
	FetchTimeout: 2 * time.Second,
}

type entry struct {
	mu   sync.RWMutex
	item a11y.CacheItem
}

type shard struct {
	mu    sync.RWMutex
	items map[a11y.Identity]*entry
}

// Cache is the concurrent accessible-object store. It is the only
// process-wide shared mutable aggregate in quill; every task holds the
// same *Cache handle.
type Cache struct {
	config Config
	shards [shardCount]shard
}

// New creates an empty cache.
func New(config Config) *Cache {
	if config.FetchTimeout <= 0 {
		config.FetchTimeout = DefaultConfig.FetchTimeout
	}
	c := &Cache{config: config}
	for i := range c.shards {
		c.shards[i].items = make(map[a11y.Identity]*entry)
	}
	return c
}

func (c *Cache) shardFor(id a11y.Identity) *shard {
	h := fnv.New32a()
	h.Write([]byte(id.Sender))
	h.Write([]byte{0})
	h.Write([]byte(id.Path))
	return &c.shards[h.Sum32()&(shardCount-1)]
}

// lookup returns the live entry for id, or nil.
func (c *Cache) lookup(id a11y.Identity) *entry {
	s := c.shardFor(id)
	s.mu.RLock()
	e := s.items[id]
	s.mu.RUnlock()
	return e
}

// Get returns a snapshot of the item for id. The snapshot is a deep copy;
// mutating it does not affect the cache.
func (c *Cache) Get(id a11y.Identity) (a11y.CacheItem, bool) {
	e := c.lookup(id)
	if c.config.OnLookup != nil {
		c.config.OnLookup(id, e != nil)
	}
	if e == nil {
		return a11y.CacheItem{}, false
	}
	e.mu.RLock()
	item := e.item.Clone()
	e.mu.RUnlock()
	return item, true
}

// Resolve returns the item for id, fetching it through the external client
// on a miss and inserting the result. Only the calling task suspends
// during the fetch; no cache lock is held across it.
func (c *Cache) Resolve(ctx context.Context, id a11y.Identity) (a11y.CacheItem, error) {
	if item, ok := c.Get(id); ok {
		return item, nil
	}
	if c.config.Fetcher == nil {
		return a11y.CacheItem{}, &errors.NotFoundError{ID: id}
	}

	fetchCtx, cancel := context.WithTimeout(ctx, c.config.FetchTimeout)
	defer cancel()

	start := time.Now()
	item, err := c.config.Fetcher.FetchObject(fetchCtx, id)
	if c.config.OnFetch != nil {
		c.config.OnFetch(id, time.Since(start), err)
	}
	if err != nil {
		if c.config.Logger != nil {
			c.config.Logger.Debug("fetch failed",
				slog.String("id", id.String()),
				slog.String("error", err.Error()),
			)
		}
		return a11y.CacheItem{}, &errors.NotFoundError{ID: id, Err: err}
	}

	c.Upsert(item)
	// Return the stored form so parent/children fixups are visible.
	if stored, ok := c.Get(id); ok {
		return stored, nil
	}
	return item, nil
}

// Upsert inserts or replaces the item, then fixes up the named parent's
// children sequence and the named children's parent fields. Each fixup is
// atomic under an identity-ordered dual item lock, so readers of either
// side observe a pre- or post-fixup state, never a torn one.
func (c *Cache) Upsert(item a11y.CacheItem) {
	id := item.Object
	s := c.shardFor(id)

	s.mu.Lock()
	e, ok := s.items[id]
	if !ok {
		e = &entry{}
		s.items[id] = e
	}
	s.mu.Unlock()

	e.mu.Lock()
	e.item = item.Clone()
	e.mu.Unlock()

	// Parent fixup: make sure the parent's children sequence names us.
	// A self-parented item is skipped; lockPair requires distinct entries.
	if !item.Parent.IsZero() && item.Parent != id {
		if pe := c.lookup(item.Parent); pe != nil {
			unlock := lockPair(id, e, item.Parent, pe)
			insertChild(&pe.item, id, item.IndexInParent)
			unlock()
		}
	}

	// Children fixup: point each cached child's parent field at us.
	for _, childID := range item.Children {
		ce := c.lookup(childID)
		if ce == nil || childID == id {
			continue
		}
		unlock := lockPair(id, e, childID, ce)
		ce.item.Parent = id
		unlock()
	}
}

// UpsertAll inserts every item, then runs the reference fixups. Used for
// full-tree walks where the order of arrival is arbitrary.
func (c *Cache) UpsertAll(items []a11y.CacheItem) {
	for _, item := range items {
		c.Upsert(item)
	}
}

// Remove detaches the item from its parent's children sequence, then
// removes the item and every transitive descendant. No reference to a
// removed identity survives the call.
func (c *Cache) Remove(id a11y.Identity) {
	e := c.lookup(id)
	if e == nil {
		return
	}

	e.mu.RLock()
	parentID := e.item.Parent
	e.mu.RUnlock()

	// Detach from the parent first so concurrent traversals cannot re-enter
	// the subtree being torn down.
	if !parentID.IsZero() && parentID != id {
		if pe := c.lookup(parentID); pe != nil {
			unlock := lockPair(id, e, parentID, pe)
			removeChild(&pe.item, id)
			unlock()
		}
	}

	c.removeSubtree(id, make(map[a11y.Identity]bool), 0)
}

// removeSubtree deletes id and recurses over its children. The visited set
// and depth bound keep the recursion finite even on a corrupted tree.
func (c *Cache) removeSubtree(id a11y.Identity, visited map[a11y.Identity]bool, depth int) {
	if visited[id] || depth > MaxTreeDepth {
		if c.config.Logger != nil {
			c.config.Logger.Warn("subtree removal truncated",
				slog.String("id", id.String()),
				slog.Int("depth", depth),
			)
		}
		return
	}
	visited[id] = true

	s := c.shardFor(id)
	s.mu.Lock()
	e, ok := s.items[id]
	if ok {
		delete(s.items, id)
	}
	s.mu.Unlock()
	if !ok {
		return
	}

	e.mu.RLock()
	children := make([]a11y.Identity, len(e.item.Children))
	copy(children, e.item.Children)
	e.mu.RUnlock()

	for _, childID := range children {
		c.removeSubtree(childID, visited, depth+1)
	}
}

// RemoveApplication removes every item belonging to the given bus sender.
// Used when an application disconnects.
func (c *Cache) RemoveApplication(sender string) int {
	var ids []a11y.Identity
	for i := range c.shards {
		s := &c.shards[i]
		s.mu.RLock()
		for id := range s.items {
			if id.Sender == sender {
				ids = append(ids, id)
			}
		}
		s.mu.RUnlock()
	}
	for _, id := range ids {
		s := c.shardFor(id)
		s.mu.Lock()
		delete(s.items, id)
		s.mu.Unlock()
	}
	return len(ids)
}

// Modify applies fn to the item for id under its write lock. Returns false
// if the item is absent. fn must not call back into the cache.
func (c *Cache) Modify(id a11y.Identity, fn func(*a11y.CacheItem)) bool {
	e := c.lookup(id)
	if e == nil {
		return false
	}
	e.mu.Lock()
	fn(&e.item)
	e.mu.Unlock()
	return true
}

// Len returns the number of cached items.
func (c *Cache) Len() int {
	n := 0
	for i := range c.shards {
		s := &c.shards[i]
		s.mu.RLock()
		n += len(s.items)
		s.mu.RUnlock()
	}
	return n
}

// Clear drops every item. Used at shutdown.
func (c *Cache) Clear() {
	for i := range c.shards {
		s := &c.shards[i]
		s.mu.Lock()
		s.items = make(map[a11y.Identity]*entry)
		s.mu.Unlock()
	}
}

// lockPair write-locks two entries in identity order and returns the
// unlock function. The entries must be distinct.
func lockPair(idA a11y.Identity, a *entry, idB a11y.Identity, b *entry) func() {
	if idA.Less(idB) {
		a.mu.Lock()
		b.mu.Lock()
	} else {
		b.mu.Lock()
		a.mu.Lock()
	}
	return func() {
		a.mu.Unlock()
		b.mu.Unlock()
	}
}

// insertChild adds child to parent.Children at index when valid, appending
// otherwise. Idempotent.
func insertChild(parent *a11y.CacheItem, child a11y.Identity, index int) {
	for _, existing := range parent.Children {
		if existing == child {
			return
		}
	}
	if index >= 0 && index < len(parent.Children) {
		parent.Children = append(parent.Children, a11y.Identity{})
		copy(parent.Children[index+1:], parent.Children[index:])
		parent.Children[index] = child
		return
	}
	parent.Children = append(parent.Children, child)
}

// removeChild drops child from parent.Children.
func removeChild(parent *a11y.CacheItem, child a11y.Identity) {
	for i, existing := range parent.Children {
		if existing == child {
			parent.Children = append(parent.Children[:i], parent.Children[i+1:]...)
			return
		}
	}
}

// Ancestors returns a lazy sequence walking parent links from id toward
// the root, starting with id's own item. The walk is restartable, stops
// early on a missing parent, and is depth-bounded so an accidental cycle
// yields a truncated sequence instead of an infinite one.
func (c *Cache) Ancestors(id a11y.Identity) iter.Seq[a11y.CacheItem] {
	return func(yield func(a11y.CacheItem) bool) {
		current := id
		for depth := 0; depth <= MaxTreeDepth; depth++ {
			item, ok := c.Get(current)
			if !ok {
				return
			}
			if !yield(item) {
				return
			}
			if item.Parent.IsZero() || item.Parent == current {
				return
			}
			current = item.Parent
		}
		if c.config.Logger != nil {
			c.config.Logger.Warn("ancestor walk truncated",
				slog.String("id", id.String()),
				slog.Int("depth", MaxTreeDepth),
			)
		}
	}
}

// Descendants returns a lazy pre-order sequence over the subtree rooted at
// id, starting with id's own item. Finite and restartable; cycles and
// excessive depth truncate the walk.
func (c *Cache) Descendants(id a11y.Identity) iter.Seq[a11y.CacheItem] {
	return func(yield func(a11y.CacheItem) bool) {
		type frame struct {
			id    a11y.Identity
			depth int
		}
		visited := make(map[a11y.Identity]bool)
		stack := []frame{{id: id}}

		for len(stack) > 0 {
			f := stack[len(stack)-1]
			stack = stack[:len(stack)-1]

			if visited[f.id] || f.depth > MaxTreeDepth {
				continue
			}
			visited[f.id] = true

			item, ok := c.Get(f.id)
			if !ok {
				continue
			}
			if !yield(item) {
				return
			}

			// Push children in reverse so the first child pops first.
			for i := len(item.Children) - 1; i >= 0; i-- {
				stack = append(stack, frame{id: item.Children[i], depth: f.depth + 1})
			}
		}
	}
}
