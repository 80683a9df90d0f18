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

package tensor

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/snarkai/hub/pkg/chunk"
	"github.com/snarkai/hub/pkg/narray"
	"github.com/snarkai/hub/pkg/storage"
)

// DefaultReadWorkers is the chunk-fetch parallelism used when
// ReadOptions leaves Workers zero.
const DefaultReadWorkers = 4

// ReadOptions configure a tensor read. The zero value reads samples
// serially.
type ReadOptions struct {
	// Parallel fans sample fetches out over a worker pool.
	Parallel bool

	// Workers bounds the pool; defaults to DefaultReadWorkers.
	Workers int
}

// Read materializes the samples selected by slc as one array with a
// new leading sample axis. All selected samples must share one
// shape, which Read verifies via the meta shape bounds before
// fetching anything; tensors with ragged samples are read with
// ReadSamples instead.
func Read(ctx context.Context, key string, p storage.Provider, slc SampleSlice, opts ReadOptions) (*narray.Array, error) {
	meta, err := ReadMeta(ctx, key, p)
	if err != nil {
		return nil, err
	}
	if !shapesEqual(meta.MinShape, meta.MaxShape) {
		return nil, fmt.Errorf("%w: %s: samples have varying shapes (min %v, max %v); use ReadSamples",
			ErrUnsupported, key, meta.MinShape, meta.MaxShape)
	}
	samples, err := readSamples(ctx, key, p, meta, slc, opts)
	if err != nil {
		return nil, err
	}

	elem := narray.Prod(meta.MaxShape) * meta.DType.Size()
	data := make([]byte, int64(len(samples))*elem)
	for i, s := range samples {
		copy(data[int64(i)*elem:], s.Data)
	}
	return &narray.Array{
		DType: meta.DType,
		Shape: append([]int{len(samples)}, meta.MaxShape...),
		Data:  data,
	}, nil
}

// ReadSamples materializes the samples selected by slc individually,
// in slice order. Samples may have differing shapes.
func ReadSamples(ctx context.Context, key string, p storage.Provider, slc SampleSlice, opts ReadOptions) ([]*narray.Array, error) {
	meta, err := ReadMeta(ctx, key, p)
	if err != nil {
		return nil, err
	}
	return readSamples(ctx, key, p, meta, slc, opts)
}

func readSamples(ctx context.Context, key string, p storage.Provider, meta *Meta, slc SampleSlice, opts ReadOptions) ([]*narray.Array, error) {
	entries, err := readIndexMap(ctx, key, p)
	if err != nil {
		return nil, err
	}
	if len(entries) != meta.Length {
		return nil, fmt.Errorf("%w: %s: %d entries for %d samples",
			ErrMalformedIndex, key, len(entries), meta.Length)
	}
	idxs, err := slc.Indices(meta.Length)
	if err != nil {
		return nil, err
	}

	// Workers place results by requested-slice position, so fetch
	// completion order never reorders the output.
	out := make([]*narray.Array, len(idxs))
	if opts.Parallel && len(idxs) > 1 {
		workers := opts.Workers
		if workers <= 0 {
			workers = DefaultReadWorkers
		}
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(workers)
		for i, entryIdx := range idxs {
			i, entryIdx := i, entryIdx
			g.Go(func() error {
				a, err := readSample(gctx, key, p, meta, &entries[entryIdx])
				if err != nil {
					return err
				}
				out[i] = a
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	} else {
		for i, entryIdx := range idxs {
			a, err := readSample(ctx, key, p, meta, &entries[entryIdx])
			if err != nil {
				return nil, err
			}
			out[i] = a
		}
	}
	return out, nil
}

// readSample fetches one sample's chunks, verifies them against the
// index entry, and rebuilds the sample array.
func readSample(ctx context.Context, key string, p storage.Provider, meta *Meta, e *IndexEntry) (*narray.Array, error) {
	chunks := make([][]byte, len(e.ChunkNames))
	for i, name := range e.ChunkNames {
		b, err := p.Get(ctx, ChunkKey(key, name))
		if err != nil {
			return nil, err
		}
		chunks[i] = b
	}

	first, last := chunks[0], chunks[len(chunks)-1]
	if int64(len(last)) < e.EndByte || int64(len(first)) < e.StartByte {
		return nil, fmt.Errorf("%w: %s: chunk %s shorter than index range",
			ErrCorruptChunk, key, e.ChunkNames[len(e.ChunkNames)-1])
	}

	b := chunk.Join(chunks, e.StartByte, e.EndByte)
	if want := narray.Prod(e.Shape) * meta.DType.Size(); int64(len(b)) != want {
		return nil, fmt.Errorf("%w: %s: joined %d bytes for shape %v of %s; want %d",
			ErrCorruptChunk, key, len(b), e.Shape, meta.DType, want)
	}
	return narray.FromBytes(meta.DType, e.Shape, b)
}

func shapesEqual(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i, d := range a {
		if b[i] != d {
			return false
		}
	}
	return true
}
