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

// Package gcs registers the "googlecloudstorage" provider type,
// storing blobs in a Google Cloud Storage bucket.
// See https://cloud.google.com/products/cloud-storage
package gcs // import "github.com/snarkai/hub/pkg/storage/gcs"

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"cloud.google.com/go/storage"
	"go4.org/jsonconfig"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	hubstorage "github.com/snarkai/hub/pkg/storage"
)

// Storage stores blobs as objects in a GCS bucket.
type Storage struct {
	bucket string // the gs bucket containing blobs
	// optional "directory" where the blobs are stored, instead of at
	// the root of the bucket. GCS is actually flat, which in effect
	// just means that all the objects should have this dirPrefix as a
	// prefix of their key. If non empty, it is a slash separated path
	// with a trailing slash and no starting slash.
	dirPrefix string
	client    *storage.Client
}

var _ hubstorage.Provider = (*Storage)(nil)

func init() {
	hubstorage.RegisterConstructor("googlecloudstorage", newFromConfig)
}

func newFromConfig(config jsonconfig.Obj) (hubstorage.Provider, error) {
	var (
		bucket   = config.RequiredString("bucket")
		credFile = config.OptionalString("credentials_file", "")
	)
	if err := config.Validate(); err != nil {
		return nil, err
	}
	ctx := context.Background()
	var opts []option.ClientOption
	if credFile != "" {
		opts = append(opts, option.WithCredentialsFile(credFile))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return New(client, bucket), nil
}

// New returns a provider storing blobs in the given bucket. The
// bucket may carry a "bucket/dir/prefix" suffix, in which case all
// keys live below that prefix.
func New(client *storage.Client, bucket string) *Storage {
	var dirPrefix string
	if parts := strings.SplitN(bucket, "/", 2); len(parts) > 1 {
		dirPrefix = parts[1]
		bucket = parts[0]
	}
	if dirPrefix != "" && !strings.HasSuffix(dirPrefix, "/") {
		dirPrefix += "/"
	}
	return &Storage{
		bucket:    bucket,
		dirPrefix: dirPrefix,
		client:    client,
	}
}

func (gs *Storage) String() string {
	if gs.dirPrefix != "" {
		return fmt.Sprintf("\"googlecloudstorage\" blob storage at bucket %q, directory %q", gs.bucket, gs.dirPrefix)
	}
	return fmt.Sprintf("\"googlecloudstorage\" blob storage at bucket %q", gs.bucket)
}

func (gs *Storage) object(key string) *storage.ObjectHandle {
	return gs.client.Bucket(gs.bucket).Object(gs.dirPrefix + key)
}

func (gs *Storage) Get(ctx context.Context, key string) ([]byte, error) {
	r, err := gs.object(key).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, fmt.Errorf("gcs: %q: %w", key, hubstorage.ErrNotFound)
	}
	if err != nil {
		return nil, &hubstorage.TransportError{Backend: "gcs", Key: key, Err: err}
	}
	defer r.Close()
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, &hubstorage.TransportError{Backend: "gcs", Key: key, Err: err}
	}
	return b, nil
}

func (gs *Storage) GetRange(ctx context.Context, key string, offset, length int64) ([]byte, error) {
	if offset < 0 || length < 0 {
		return nil, fmt.Errorf("gcs: %q: negative range", key)
	}
	r, err := gs.object(key).NewRangeReader(ctx, offset, length)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, fmt.Errorf("gcs: %q: %w", key, hubstorage.ErrNotFound)
	}
	if err != nil {
		return nil, &hubstorage.TransportError{Backend: "gcs", Key: key, Err: err}
	}
	defer r.Close()
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, &hubstorage.TransportError{Backend: "gcs", Key: key, Err: err}
	}
	return b, nil
}

func (gs *Storage) Put(ctx context.Context, key string, data []byte) error {
	w := gs.object(key).NewWriter(ctx)
	if _, err := w.Write(data); err != nil {
		w.Close()
		return &hubstorage.TransportError{Backend: "gcs", Key: key, Err: err}
	}
	if err := w.Close(); err != nil {
		return &hubstorage.TransportError{Backend: "gcs", Key: key, Err: err}
	}
	return nil
}

// PutRange is a read-modify-write: GCS objects are immutable.
func (gs *Storage) PutRange(ctx context.Context, key string, data []byte, offset int64, overwrite bool) error {
	if offset < 0 {
		return fmt.Errorf("gcs: %q: negative range offset %d", key, offset)
	}
	old, err := gs.Get(ctx, key)
	if err != nil && !hubstorage.IsNotFound(err) {
		return err
	}
	return gs.Put(ctx, key, hubstorage.ApplyRange(old, data, offset, overwrite))
}

func (gs *Storage) Contains(ctx context.Context, key string) (bool, error) {
	_, err := gs.object(key).Attrs(ctx)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, storage.ErrObjectNotExist) {
		return false, nil
	}
	return false, &hubstorage.TransportError{Backend: "gcs", Key: key, Err: err}
}

func (gs *Storage) Delete(ctx context.Context, key string) error {
	err := gs.object(key).Delete(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("gcs: %q: %w", key, hubstorage.ErrNotFound)
	}
	if err != nil {
		return &hubstorage.TransportError{Backend: "gcs", Key: key, Err: err}
	}
	return nil
}

func (gs *Storage) EnumerateKeys(ctx context.Context, dest chan<- string, after string, limit int) error {
	defer close(dest)
	it := gs.client.Bucket(gs.bucket).Objects(ctx, &storage.Query{Prefix: gs.dirPrefix})
	n := 0
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			return nil
		}
		if err != nil {
			return &hubstorage.TransportError{Backend: "gcs", Err: err}
		}
		key := strings.TrimPrefix(attrs.Name, gs.dirPrefix)
		if key <= after {
			continue
		}
		select {
		case dest <- key:
		case <-ctx.Done():
			return ctx.Err()
		}
		n++
		if limit > 0 && n == limit {
			return nil
		}
	}
}

func (gs *Storage) Len(ctx context.Context) (int, error) {
	return hubstorage.CountKeys(ctx, gs)
}

func (gs *Storage) Flush(ctx context.Context) error { return nil }
