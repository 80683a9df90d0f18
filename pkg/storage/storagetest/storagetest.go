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

// Package storagetest tests storage.Provider implementations.
package storagetest // import "github.com/snarkai/hub/pkg/storage/storagetest"

import (
	"bytes"
	"context"
	"sort"
	"testing"

	"github.com/snarkai/hub/pkg/storage"
)

// Opts are the options for Test.
type Opts struct {
	// New is required and must return the provider to test, along
	// with a func to clean it up. The cleanup may be nil.
	New func(t *testing.T) (p storage.Provider, cleanup func())
}

// Test runs the provider contract against the implementation
// returned by fn: whole and ranged reads and writes, the zero-pad
// and truncate rules of PutRange, membership, deletion, enumeration
// and flush.
func Test(t *testing.T, fn func(t *testing.T) (p storage.Provider, cleanup func())) {
	TestOpt(t, Opts{New: fn})
}

// TestOpt is like Test but takes Opts.
func TestOpt(t *testing.T, opt Opts) {
	p, cleanup := opt.New(t)
	defer func() {
		if cleanup != nil {
			cleanup()
		}
	}()
	ctx := context.Background()
	t.Logf("Testing provider %T", p)

	const (
		file1 = "abc.txt"
		file2 = "sub/def.txt"
	)

	if err := p.Put(ctx, file1, []byte("hello world")); err != nil {
		t.Fatalf("Put %s: %v", file1, err)
	}
	wantGet(t, p, file1, "hello world")

	b, err := p.GetRange(ctx, file1, 2, 3)
	if err != nil {
		t.Fatalf("GetRange %s: %v", file1, err)
	}
	if string(b) != "llo" {
		t.Errorf("GetRange(%s, 2, 3) = %q; want %q", file1, b, "llo")
	}

	// Patch within and past the end of the blob.
	if err := p.PutRange(ctx, file1, []byte("abcde"), 6, false); err != nil {
		t.Fatalf("PutRange %s: %v", file1, err)
	}
	wantGet(t, p, file1, "hello abcde")

	if err := p.PutRange(ctx, file1, []byte("tuvwxyz"), 6, false); err != nil {
		t.Fatalf("PutRange %s: %v", file1, err)
	}
	wantGet(t, p, file1, "hello tuvwxyz")

	// A write past the end of a fresh blob zero-fills the gap.
	if err := p.PutRange(ctx, file2, []byte("hello world"), 3, false); err != nil {
		t.Fatalf("PutRange %s: %v", file2, err)
	}
	wantGet(t, p, file2, "\x00\x00\x00hello world")

	// overwrite truncates to exactly the new payload.
	if err := p.PutRange(ctx, file2, []byte("new_text"), 0, true); err != nil {
		t.Fatalf("PutRange %s overwrite: %v", file2, err)
	}
	wantGet(t, p, file2, "new_text")

	for _, key := range []string{file1, file2} {
		ok, err := p.Contains(ctx, key)
		if err != nil {
			t.Fatalf("Contains %s: %v", key, err)
		}
		if !ok {
			t.Errorf("Contains(%s) = false; want true", key)
		}
	}
	if ok, err := p.Contains(ctx, "nope"); err != nil || ok {
		t.Errorf("Contains(nope) = %v, %v; want false, nil", ok, err)
	}

	if n, err := p.Len(ctx); err != nil || n < 2 {
		t.Errorf("Len = %d, %v; want >= 2, nil", n, err)
	}

	keys := enumerateAll(t, p)
	for _, want := range []string{file1, file2} {
		i := sort.SearchStrings(keys, want)
		if i == len(keys) || keys[i] != want {
			t.Errorf("enumerated keys %q missing %q", keys, want)
		}
	}

	// Enumeration resumes after a given key.
	if len(keys) > 1 {
		rest := enumerateAfter(t, p, keys[0])
		if len(rest) != len(keys)-1 || rest[0] != keys[1] {
			t.Errorf("enumerate after %q = %q; want %q", keys[0], rest, keys[1:])
		}
	}

	for _, key := range []string{file1, file2} {
		if err := p.Delete(ctx, key); err != nil {
			t.Fatalf("Delete %s: %v", key, err)
		}
	}
	if _, err := p.Get(ctx, file1); !storage.IsNotFound(err) {
		t.Errorf("Get(%s) after delete = %v; want ErrNotFound", file1, err)
	}
	if err := p.Delete(ctx, file1); !storage.IsNotFound(err) {
		t.Errorf("Delete(%s) after delete = %v; want ErrNotFound", file1, err)
	}

	if err := p.Flush(ctx); err != nil {
		t.Fatalf("Flush: %v", err)
	}
}

func wantGet(t *testing.T, p storage.Provider, key, want string) {
	t.Helper()
	b, err := p.Get(context.Background(), key)
	if err != nil {
		t.Fatalf("Get %s: %v", key, err)
	}
	if !bytes.Equal(b, []byte(want)) {
		t.Errorf("Get(%s) = %q; want %q", key, b, want)
	}
}

func enumerateAll(t *testing.T, p storage.Provider) []string {
	t.Helper()
	return enumerateAfter(t, p, "")
}

func enumerateAfter(t *testing.T, p storage.Provider, after string) []string {
	t.Helper()
	var keys []string
	err := storage.EnumerateAllFrom(context.Background(), p, after, func(key string) error {
		keys = append(keys, key)
		return nil
	})
	if err != nil {
		t.Fatalf("enumerate: %v", err)
	}
	if !sort.StringsAreSorted(keys) {
		t.Errorf("enumerated keys not sorted: %q", keys)
	}
	return keys
}
