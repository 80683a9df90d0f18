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
Package storage defines the Provider interface implemented by all
storage backends (e.g. memory, localdisk, s3, gcs, lrucache).

A Provider is a flat mapping from slash-separated string keys to byte
blobs. Providers are the only layer that performs I/O; everything above
them (the chunk writer, the reader, the cache tiers) is expressed in
terms of the capability interfaces below. Providers must be safe for
concurrent use on disjoint keys; callers serialize writes to the same
key themselves.
*/
package storage // import "github.com/snarkai/hub/pkg/storage"

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotFound is returned by Get, GetRange and Delete when the
// requested key is not present.
var ErrNotFound = errors.New("storage: key not found")

// IsNotFound reports whether err is or wraps ErrNotFound.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// A TransportError wraps a backend's native failure (a filesystem
// error, an HTTP failure, a cloud SDK error). Callers may retry; the
// engine itself never does.
type TransportError struct {
	Backend string // provider type, e.g. "s3"
	Key     string // key being operated on, if any
	Err     error
}

func (e *TransportError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("storage: %s: %v", e.Backend, e.Err)
	}
	return fmt.Sprintf("storage: %s: key %q: %v", e.Backend, e.Key, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Getter reads whole blobs.
type Getter interface {
	// Get returns the bytes stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
}

// RangeGetter reads byte ranges out of blobs.
type RangeGetter interface {
	// GetRange returns length bytes starting at offset from the blob
	// under key, or ErrNotFound if the key is absent. When
	// offset+length reaches past the end of the blob an
	// implementation may return a short result or fail.
	GetRange(ctx context.Context, key string, offset, length int64) ([]byte, error)
}

// Putter writes whole blobs.
type Putter interface {
	// Put stores data under key, replacing any previous value.
	Put(ctx context.Context, key string, data []byte) error
}

// RangePutter writes byte ranges into blobs.
type RangePutter interface {
	// PutRange writes data at the given byte offset. A gap between
	// the previous end of the blob and offset is zero-filled, and
	// bytes beyond the written range are preserved. If overwrite is
	// true the previous contents are discarded: the blob becomes
	// offset zero bytes followed by data.
	PutRange(ctx context.Context, key string, data []byte, offset int64, overwrite bool) error
}

// Container tests key membership.
type Container interface {
	Contains(ctx context.Context, key string) (bool, error)
}

// Deleter removes blobs.
type Deleter interface {
	// Delete removes the blob under key, or returns ErrNotFound.
	Delete(ctx context.Context, key string) error
}

// KeyEnumerator lists stored keys.
type KeyEnumerator interface {
	// EnumerateKeys sends at most limit currently stored keys into
	// dest, sorted, as long as they are lexicographically greater
	// than after (if non-empty). A limit <= 0 means no limit.
	//
	// EnumerateKeys must unconditionally close dest before
	// returning, even on error or when ctx is canceled.
	EnumerateKeys(ctx context.Context, dest chan<- string, after string, limit int) error
}

// Counter reports how many keys a provider currently stores.
type Counter interface {
	Len(ctx context.Context) (int, error)
}

// Flusher makes buffered writes durable. Providers without a buffer
// implement it as a no-op.
type Flusher interface {
	Flush(ctx context.Context) error
}

// Provider is the interface that must be implemented by a storage
// backend. (e.g. memory, localdisk, s3, gcs, lrucache)
type Provider interface {
	Getter
	RangeGetter
	Putter
	RangePutter
	Container
	Deleter
	KeyEnumerator
	Counter
	Flusher
}
