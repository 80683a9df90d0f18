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
Package localdisk registers the "localdisk" provider type, storing
each blob in its own file under the configured root. Keys map to
slash-separated paths below the root.

Example low-level config:

     "storage": {
         "type": "localdisk",
         "path": "/var/hub/tensors"
     },
*/
package localdisk // import "github.com/snarkai/hub/pkg/storage/localdisk"

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"go4.org/jsonconfig"
	"go4.org/syncutil"

	"github.com/snarkai/hub/pkg/storage"
)

// DiskStorage implements the storage Provider interface using the
// local filesystem.
type DiskStorage struct {
	root string

	// dirLockMu must be held for writing when deleting an empty
	// directory and for read when writing blobs.
	dirLockMu sync.RWMutex

	// tmpFileGate limits the number of temporary files open at the
	// same time, so we don't run into the max set by ulimit.
	tmpFileGate *syncutil.Gate
}

var _ storage.Provider = (*DiskStorage)(nil)

func init() {
	storage.RegisterConstructor("localdisk", newFromConfig)
}

func newFromConfig(config jsonconfig.Obj) (storage.Provider, error) {
	path := config.RequiredString("path")
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return New(path)
}

// New returns a provider rooted at the given directory, creating it
// if necessary.
func New(root string) (*DiskStorage, error) {
	if err := os.MkdirAll(root, 0700); err != nil {
		return nil, fmt.Errorf("localdisk: failed to create root %q: %w", root, err)
	}
	fi, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !fi.IsDir() {
		return nil, fmt.Errorf("localdisk: root %q exists but is not a directory", root)
	}
	return &DiskStorage{
		root:        root,
		tmpFileGate: syncutil.NewGate(256),
	}, nil
}

func (ds *DiskStorage) String() string {
	return fmt.Sprintf("\"localdisk\" blob storage at %q", ds.root)
}

func validKey(key string) bool {
	if key == "" || strings.HasPrefix(key, "/") || strings.HasSuffix(key, "/") {
		return false
	}
	for _, part := range strings.Split(key, "/") {
		if part == "" || part == "." || part == ".." {
			return false
		}
	}
	return true
}

func (ds *DiskStorage) blobPath(key string) (string, error) {
	if !validKey(key) {
		return "", fmt.Errorf("localdisk: invalid key %q", key)
	}
	return filepath.Join(ds.root, filepath.FromSlash(key)), nil
}

func (ds *DiskStorage) Get(ctx context.Context, key string) ([]byte, error) {
	p, err := ds.blobPath(key)
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(p)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("localdisk: %q: %w", key, storage.ErrNotFound)
		}
		return nil, &storage.TransportError{Backend: "localdisk", Key: key, Err: err}
	}
	return b, nil
}

func (ds *DiskStorage) GetRange(ctx context.Context, key string, offset, length int64) ([]byte, error) {
	p, err := ds.blobPath(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(p)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("localdisk: %q: %w", key, storage.ErrNotFound)
		}
		return nil, &storage.TransportError{Backend: "localdisk", Key: key, Err: err}
	}
	defer f.Close()
	buf := make([]byte, length)
	n, err := f.ReadAt(buf, offset)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, &storage.TransportError{Backend: "localdisk", Key: key, Err: err}
	}
	return buf[:n], nil
}

func (ds *DiskStorage) Put(ctx context.Context, key string, data []byte) error {
	p, err := ds.blobPath(key)
	if err != nil {
		return err
	}
	ds.dirLockMu.RLock()
	defer ds.dirLockMu.RUnlock()
	if err := os.MkdirAll(filepath.Dir(p), 0700); err != nil {
		return &storage.TransportError{Backend: "localdisk", Key: key, Err: err}
	}

	ds.tmpFileGate.Start()
	defer ds.tmpFileGate.Done()
	tmp, err := os.CreateTemp(filepath.Dir(p), "hub-put-")
	if err != nil {
		return &storage.TransportError{Backend: "localdisk", Key: key, Err: err}
	}
	defer os.Remove(tmp.Name()) // harmless if the rename below won
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return &storage.TransportError{Backend: "localdisk", Key: key, Err: err}
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return &storage.TransportError{Backend: "localdisk", Key: key, Err: err}
	}
	if err := tmp.Close(); err != nil {
		return &storage.TransportError{Backend: "localdisk", Key: key, Err: err}
	}
	if err := os.Rename(tmp.Name(), p); err != nil {
		return &storage.TransportError{Backend: "localdisk", Key: key, Err: err}
	}
	return nil
}

func (ds *DiskStorage) PutRange(ctx context.Context, key string, data []byte, offset int64, overwrite bool) error {
	if offset < 0 {
		return fmt.Errorf("localdisk: %q: negative range offset %d", key, offset)
	}
	p, err := ds.blobPath(key)
	if err != nil {
		return err
	}
	ds.dirLockMu.RLock()
	defer ds.dirLockMu.RUnlock()
	if err := os.MkdirAll(filepath.Dir(p), 0700); err != nil {
		return &storage.TransportError{Backend: "localdisk", Key: key, Err: err}
	}
	f, err := os.OpenFile(p, os.O_RDWR|os.O_CREATE, 0600)
	if err != nil {
		return &storage.TransportError{Backend: "localdisk", Key: key, Err: err}
	}
	defer f.Close()
	// With overwrite the previous contents are dropped first.
	if overwrite {
		if err := f.Truncate(0); err != nil {
			return &storage.TransportError{Backend: "localdisk", Key: key, Err: err}
		}
	}
	// WriteAt zero-fills the gap between the previous end of file
	// and offset.
	if _, err := f.WriteAt(data, offset); err != nil {
		return &storage.TransportError{Backend: "localdisk", Key: key, Err: err}
	}
	if err := f.Sync(); err != nil {
		return &storage.TransportError{Backend: "localdisk", Key: key, Err: err}
	}
	return nil
}

func (ds *DiskStorage) Contains(ctx context.Context, key string) (bool, error) {
	p, err := ds.blobPath(key)
	if err != nil {
		return false, err
	}
	fi, err := os.Stat(p)
	switch {
	case err == nil && fi.Mode().IsRegular():
		return true, nil
	case err != nil && !os.IsNotExist(err):
		return false, &storage.TransportError{Backend: "localdisk", Key: key, Err: err}
	}
	return false, nil
}

func (ds *DiskStorage) Delete(ctx context.Context, key string) error {
	p, err := ds.blobPath(key)
	if err != nil {
		return err
	}
	err = os.Remove(p)
	if os.IsNotExist(err) {
		return fmt.Errorf("localdisk: %q: %w", key, storage.ErrNotFound)
	}
	if err != nil {
		return &storage.TransportError{Backend: "localdisk", Key: key, Err: err}
	}
	ds.tryRemoveDir(filepath.Dir(p))
	return nil
}

// tryRemoveDir removes dir and any newly empty parents, stopping at
// the storage root.
func (ds *DiskStorage) tryRemoveDir(dir string) {
	ds.dirLockMu.Lock()
	defer ds.dirLockMu.Unlock()
	for dir != ds.root && strings.HasPrefix(dir, ds.root) {
		if err := os.Remove(dir); err != nil {
			return // non-empty or gone; either way, done
		}
		dir = filepath.Dir(dir)
	}
}

func (ds *DiskStorage) EnumerateKeys(ctx context.Context, dest chan<- string, after string, limit int) error {
	defer close(dest)
	var keys []string
	err := filepath.WalkDir(ds.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(ds.root, path)
		if err != nil {
			return err
		}
		keys = append(keys, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return &storage.TransportError{Backend: "localdisk", Err: err}
	}
	sort.Strings(keys)
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

func (ds *DiskStorage) Len(ctx context.Context) (int, error) {
	return storage.CountKeys(ctx, ds)
}

func (ds *DiskStorage) Flush(ctx context.Context) error { return nil }
