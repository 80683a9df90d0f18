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
Package tensor implements the chunk engine: it persists N-dimensional
numeric arrays as fixed-size byte chunks behind a storage Provider
and reads arbitrary sample ranges back.

A tensor at logical key K is stored as

	K/meta.json       versioned meta record (dtype, length, shape bounds)
	K/index_map.json  versioned per-sample index (chunks, offsets, shape)
	K/chunks/<id>     raw chunk bytes, every chunk but the tail full-size

Write creates a tensor, Read and ReadSamples materialize sample
ranges, and Tensor is a lightweight sliceable view over a stored
tensor. Writes are append-only and whole-tensor: a second Write to
the same key fails with ErrTensorExists.
*/
package tensor // import "github.com/snarkai/hub/pkg/tensor"

import (
	"context"
	"fmt"

	"github.com/snarkai/hub/pkg/narray"
	"github.com/snarkai/hub/pkg/storage"
)

// A Tensor is a cheap handle over (key, provider, sample slice). It
// owns nothing persistent; every method hits the provider.
type Tensor struct {
	key      string
	provider storage.Provider
	slice    SampleSlice
}

// New returns a view of the whole tensor at key. The tensor need not
// exist yet; Set on an unsliced view creates it.
func New(key string, p storage.Provider) *Tensor {
	return &Tensor{key: key, provider: p, slice: All()}
}

// Key returns the tensor's logical storage key.
func (t *Tensor) Key() string { return t.key }

// Slice returns a derived view; s composes with the view's own
// slice, so t.Slice(a).Slice(b) selects b out of a.
func (t *Tensor) Slice(s SampleSlice) *Tensor {
	return &Tensor{key: t.key, provider: t.provider, slice: t.slice.Compose(s)}
}

// Index returns the derived view holding only sample i of t.
func (t *Tensor) Index(i int) *Tensor { return t.Slice(Single(i)) }

// Len returns the stored sample count, before composing the view's
// slice.
func (t *Tensor) Len(ctx context.Context) (int, error) {
	meta, err := ReadMeta(ctx, t.key, t.provider)
	if err != nil {
		return 0, err
	}
	return meta.Length, nil
}

// Array materializes the view as a single array with a leading
// sample axis.
func (t *Tensor) Array(ctx context.Context, opts ReadOptions) (*narray.Array, error) {
	return Read(ctx, t.key, t.provider, t.slice, opts)
}

// Samples materializes the view sample by sample, allowing ragged
// shapes.
func (t *Tensor) Samples(ctx context.Context, opts ReadOptions) ([]*narray.Array, error) {
	return ReadSamples(ctx, t.key, t.provider, t.slice, opts)
}

// Set writes arr as the tensor's contents. Only an unsliced view
// over a tensor that does not exist yet may be assigned; assignment
// through a sliced view fails with ErrUnsupported, and an existing
// tensor fails with ErrTensorExists.
func (t *Tensor) Set(ctx context.Context, arr *narray.Array, opts WriteOptions) error {
	if !t.slice.IsAll() {
		return fmt.Errorf("%w: %s: assignment through a sliced view", ErrUnsupported, t.key)
	}
	return Write(ctx, t.key, t.provider, arr, opts)
}
