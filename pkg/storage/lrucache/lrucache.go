/*
Copyright 2026 The Hub Authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

     http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

/*
Package lrucache implements a write-back LRU cache tier over a pair
of storage providers: a fast, byte-budgeted cache in front of a
slower, authoritative next layer.

A Tier is itself a storage Provider, so tiers stack: NewChain folds a
list of providers and budgets into memory → disk → object-store style
hierarchies. Writes land in the cache and are marked dirty; dirty
blobs reach the next layer when they are evicted or on Flush.
*/
package lrucache // import "github.com/snarkai/hub/pkg/storage/lrucache"

import (
	"container/list"
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/snarkai/hub/pkg/storage"
)

// Tier is a byte-budgeted write-back LRU over a cache provider in
// front of a next provider. It implements storage.Provider.
//
// All state mutations (recency order, dirty set, byte accounting)
// happen under a single per-tier mutex; a Tier is safe for concurrent
// use if its two underlying providers are.
type Tier struct {
	cache    storage.Provider
	next     storage.Provider
	maxBytes int64

	mu    sync.Mutex
	ll    *list.List // front = most recently used
	items map[string]*list.Element
	dirty map[string]struct{}
	used  int64 // sum of entry sizes; <= maxBytes except for one oversized entry
}

type entry struct {
	key  string
	size int64
}

var _ storage.Provider = (*Tier)(nil)

// NewTier returns a tier caching next's blobs in cache, holding at
// most maxBytes of cached payload. A single blob larger than maxBytes
// is still stored; the budget then overshoots by that one entry.
func NewTier(cache, next storage.Provider, maxBytes int64) *Tier {
	return &Tier{
		cache:    cache,
		next:     next,
		maxBytes: maxBytes,
		ll:       list.New(),
		items:    make(map[string]*list.Element),
		dirty:    make(map[string]struct{}),
	}
}

func (t *Tier) String() string {
	return fmt.Sprintf("\"lrucache\" tier of %d bytes over (%v, %v)", t.maxBytes, t.cache, t.next)
}

func (t *Tier) Get(ctx context.Context, key string) ([]byte, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if ele, ok := t.items[key]; ok {
		b, err := t.cache.Get(ctx, key)
		if err != nil {
			return nil, err
		}
		t.ll.MoveToFront(ele)
		return b, nil
	}
	b, err := t.next.Get(ctx, key)
	if err != nil {
		return nil, err // ErrNotFound only if absent in both
	}
	// Promote. The copy is clean: next already holds it.
	if err := t.cache.Put(ctx, key, b); err != nil {
		return nil, err
	}
	t.insertLocked(key, int64(len(b)), false)
	if err := t.evictLocked(ctx); err != nil {
		return nil, err
	}
	return b, nil
}

func (t *Tier) GetRange(ctx context.Context, key string, offset, length int64) ([]byte, error) {
	b, err := t.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if offset < 0 || offset > int64(len(b)) {
		return nil, fmt.Errorf("lrucache: %q: range offset %d out of bounds", key, offset)
	}
	end := offset + length
	if end > int64(len(b)) {
		end = int64(len(b)) // short read
	}
	return b[offset:end], nil
}

func (t *Tier) Put(ctx context.Context, key string, data []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.cache.Put(ctx, key, data); err != nil {
		return err
	}
	t.insertLocked(key, int64(len(data)), true)
	return t.evictLocked(ctx)
}

func (t *Tier) PutRange(ctx context.Context, key string, data []byte, offset int64, overwrite bool) error {
	if offset < 0 {
		return fmt.Errorf("lrucache: %q: negative range offset %d", key, offset)
	}
	old, err := t.Get(ctx, key)
	if err != nil && !storage.IsNotFound(err) {
		return err
	}
	return t.Put(ctx, key, storage.ApplyRange(old, data, offset, overwrite))
}

func (t *Tier) Contains(ctx context.Context, key string) (bool, error) {
	t.mu.Lock()
	_, cached := t.items[key]
	t.mu.Unlock()
	if cached {
		return true, nil
	}
	return t.next.Contains(ctx, key)
}

func (t *Tier) Delete(ctx context.Context, key string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	var deleted bool
	if ele, ok := t.items[key]; ok {
		if err := t.cache.Delete(ctx, key); err != nil {
			return err
		}
		t.removeLocked(ele)
		deleted = true
	}
	inNext, err := t.next.Contains(ctx, key)
	if err != nil {
		return err
	}
	if inNext {
		if err := t.next.Delete(ctx, key); err != nil {
			return err
		}
		deleted = true
	}
	if !deleted {
		return fmt.Errorf("lrucache: %q: %w", key, storage.ErrNotFound)
	}
	return nil
}

func (t *Tier) EnumerateKeys(ctx context.Context, dest chan<- string, after string, limit int) error {
	defer close(dest)
	keys, err := t.unionKeys(ctx)
	if err != nil {
		return err
	}
	n := 0
	for _, k := range keys {
		if k <= after {
			continue
		}
		select {
		case dest <- k:
		case <-ctx.Done():
			return ctx.Err()
		}
		n++
		if limit > 0 && n == limit {
			break
		}
	}
	return nil
}

func (t *Tier) Len(ctx context.Context) (int, error) {
	keys, err := t.unionKeys(ctx)
	if err != nil {
		return 0, err
	}
	return len(keys), nil
}

// unionKeys returns the de-duplicated union of cached and next-layer
// keys, sorted.
func (t *Tier) unionKeys(ctx context.Context) ([]string, error) {
	seen := make(map[string]struct{})
	t.mu.Lock()
	for k := range t.items {
		seen[k] = struct{}{}
	}
	t.mu.Unlock()
	err := storage.EnumerateAll(ctx, t.next, func(key string) error {
		seen[key] = struct{}{}
		return nil
	})
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

// Flush writes every dirty blob to the next layer, leaving the cache
// contents in place, then flushes the next layer.
func (t *Tier) Flush(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	keys := make([]string, 0, len(t.dirty))
	for k := range t.dirty {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		b, err := t.cache.Get(ctx, k)
		if err != nil {
			return err
		}
		if err := t.next.Put(ctx, k, b); err != nil {
			return err
		}
		delete(t.dirty, k)
	}
	return t.next.Flush(ctx)
}

// insertLocked records key with the given cached size as most
// recently used. t.mu must be held; the payload must already be in
// t.cache.
func (t *Tier) insertLocked(key string, size int64, markDirty bool) {
	if ele, ok := t.items[key]; ok {
		ent := ele.Value.(*entry)
		t.used += size - ent.size
		ent.size = size
		t.ll.MoveToFront(ele)
	} else {
		t.items[key] = t.ll.PushFront(&entry{key, size})
		t.used += size
	}
	if markDirty {
		t.dirty[key] = struct{}{}
	}
}

// removeLocked drops ele from the recency list, the dirty set and the
// byte accounting. t.mu must be held.
func (t *Tier) removeLocked(ele *list.Element) {
	ent := ele.Value.(*entry)
	t.ll.Remove(ele)
	delete(t.items, ent.key)
	delete(t.dirty, ent.key)
	t.used -= ent.size
}

// evictLocked evicts least-recently-used entries until the byte
// budget holds again, writing dirty victims back to the next layer
// first. A single entry larger than the whole budget is left in
// place. t.mu must be held.
func (t *Tier) evictLocked(ctx context.Context) error {
	for t.used > t.maxBytes && t.ll.Len() > 1 {
		ele := t.ll.Back()
		ent := ele.Value.(*entry)
		if _, isDirty := t.dirty[ent.key]; isDirty {
			b, err := t.cache.Get(ctx, ent.key)
			if err != nil {
				return err
			}
			if err := t.next.Put(ctx, ent.key, b); err != nil {
				return err
			}
		}
		if err := t.cache.Delete(ctx, ent.key); err != nil {
			return err
		}
		t.removeLocked(ele)
	}
	return nil
}

// CacheUsed returns the number of payload bytes currently cached.
func (t *Tier) CacheUsed() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.used
}

// CachedKeys returns the cached keys ordered most recently used
// first.
func (t *Tier) CachedKeys() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	keys := make([]string, 0, t.ll.Len())
	for ele := t.ll.Front(); ele != nil; ele = ele.Next() {
		keys = append(keys, ele.Value.(*entry).key)
	}
	return keys
}

// DirtyKeys returns the keys whose cached value has not yet reached
// the next layer, sorted.
func (t *Tier) DirtyKeys() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	keys := make([]string, 0, len(t.dirty))
	for k := range t.dirty {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
