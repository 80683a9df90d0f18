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

// Package memory registers the "memory" provider type, storing blobs
// in an in-memory map.
package memory // import "github.com/snarkai/hub/pkg/storage/memory"

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"go4.org/jsonconfig"

	"github.com/snarkai/hub/pkg/storage"
)

// Storage is an in-memory implementation of the storage Provider
// interface. It also includes other convenience methods used by
// tests.
type Storage struct {
	mu     sync.RWMutex      // guards following 2 fields.
	m      map[string][]byte // maps key to its contents
	sorted []string          // keys sorted

	blobsFetched int64 // atomic
	bytesFetched int64 // atomic
}

var _ storage.Provider = (*Storage)(nil)

func init() {
	storage.RegisterConstructor("memory", newFromConfig)
}

func newFromConfig(config jsonconfig.Obj) (storage.Provider, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return New(), nil
}

// New returns an empty in-memory provider.
func New() *Storage {
	return &Storage{m: make(map[string][]byte)}
}

func (s *Storage) Get(ctx context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.m[key]
	if !ok {
		return nil, fmt.Errorf("memory: %q: %w", key, storage.ErrNotFound)
	}
	atomic.AddInt64(&s.blobsFetched, 1)
	atomic.AddInt64(&s.bytesFetched, int64(len(b)))
	out := make([]byte, len(b))
	copy(out, b)
	return out, nil
}

func (s *Storage) GetRange(ctx context.Context, key string, offset, length int64) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.m[key]
	if !ok {
		return nil, fmt.Errorf("memory: %q: %w", key, storage.ErrNotFound)
	}
	if offset < 0 || offset > int64(len(b)) {
		return nil, fmt.Errorf("memory: %q: range offset %d out of bounds", key, offset)
	}
	end := offset + length
	if end > int64(len(b)) {
		end = int64(len(b)) // short read
	}
	atomic.AddInt64(&s.blobsFetched, 1)
	atomic.AddInt64(&s.bytesFetched, end-offset)
	out := make([]byte, end-offset)
	copy(out, b[offset:end])
	return out, nil
}

func (s *Storage) Put(ctx context.Context, key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.putLocked(key, append([]byte(nil), data...))
	return nil
}

func (s *Storage) PutRange(ctx context.Context, key string, data []byte, offset int64, overwrite bool) error {
	if offset < 0 {
		return fmt.Errorf("memory: %q: negative range offset %d", key, offset)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.putLocked(key, storage.ApplyRange(s.m[key], data, offset, overwrite))
	return nil
}

// putLocked takes ownership of b. s.mu must be held.
func (s *Storage) putLocked(key string, b []byte) {
	_, had := s.m[key]
	s.m[key] = b
	if !had {
		s.sorted = append(s.sorted, key)
		sort.Strings(s.sorted)
	}
}

func (s *Storage) Contains(ctx context.Context, key string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.m[key]
	return ok, nil
}

func (s *Storage) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.m[key]; !ok {
		return fmt.Errorf("memory: %q: %w", key, storage.ErrNotFound)
	}
	delete(s.m, key)
	i := sort.SearchStrings(s.sorted, key)
	s.sorted = append(s.sorted[:i], s.sorted[i+1:]...)
	return nil
}

func (s *Storage) EnumerateKeys(ctx context.Context, dest chan<- string, after string, limit int) error {
	defer close(dest)
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, k := range s.sorted {
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

func (s *Storage) Len(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.m), nil
}

func (s *Storage) Flush(ctx context.Context) error { return nil }

// SumBlobSize returns the total size in bytes of all the blobs in s.
func (s *Storage) SumBlobSize() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int64
	for _, b := range s.m {
		n += int64(len(b))
	}
	return n
}

// Stats returns the number of blobs and number of bytes that were
// fetched from s.
func (s *Storage) Stats() (blobsFetched, bytesFetched int64) {
	return atomic.LoadInt64(&s.blobsFetched), atomic.LoadInt64(&s.bytesFetched)
}
