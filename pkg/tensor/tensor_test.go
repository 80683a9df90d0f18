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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snarkai/hub/pkg/narray"
	"github.com/snarkai/hub/pkg/storage"
	"github.com/snarkai/hub/pkg/storage/localdisk"
	"github.com/snarkai/hub/pkg/storage/lrucache"
	"github.com/snarkai/hub/pkg/storage/memory"
)

func chunkNamesOf(t *testing.T, p storage.Provider, key string) []string {
	t.Helper()
	var names []string
	err := storage.EnumerateAll(context.Background(), p, func(k string) error {
		if prefix := key + "/" + chunksFolder + "/"; len(k) > len(prefix) && k[:len(prefix)] == prefix {
			names = append(names, k[len(prefix):])
		}
		return nil
	})
	require.NoError(t, err)
	return names
}

func chunkSizesOf(t *testing.T, p storage.Provider, key string) []int {
	t.Helper()
	ctx := context.Background()
	var sizes []int
	for _, name := range chunkNamesOf(t, p, key) {
		b, err := p.Get(ctx, ChunkKey(key, name))
		require.NoError(t, err)
		sizes = append(sizes, len(b))
	}
	return sizes
}

// One 10-byte sample against 4-byte chunks: three chunks of sizes
// 4, 4, 2, spanned by a single index entry.
func TestWriteSingleSampleSpanningChunks(t *testing.T) {
	ctx := context.Background()
	mem := memory.New()
	arr := narray.FromUint8([]uint8{'a', 'b', 'c', 'd', 'e', 'f', 'g', 'h', 'i', 'j'})

	require.NoError(t, Write(ctx, "t", mem, arr, WriteOptions{ChunkSize: 4}))

	sizes := chunkSizesOf(t, mem, "t")
	assert.ElementsMatch(t, []int{4, 4, 2}, sizes)

	entries, err := readIndexMap(ctx, "t", mem)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	e := entries[0]
	assert.Len(t, e.ChunkNames, 3)
	assert.Equal(t, int64(0), e.StartByte)
	assert.Equal(t, int64(2), e.EndByte)
	assert.Equal(t, []int{10}, e.Shape)

	got, err := Read(ctx, "t", mem, All(), ReadOptions{})
	require.NoError(t, err)
	want, err := narray.FromBytes(narray.Uint8, []int{1, 10}, []byte("abcdefghij"))
	require.NoError(t, err)
	assert.True(t, got.Equal(want), "read back %v (%q)", got.Shape, got.Data)
}

// Two 3-byte samples against 4-byte chunks: the second sample fills
// the first chunk's tail and spills into a second, shorter chunk.
func TestWriteSecondSampleExtendsTailChunk(t *testing.T) {
	ctx := context.Background()
	mem := memory.New()
	arr, err := narray.FromBytes(narray.Uint8, []int{2, 3}, []byte("abcdef"))
	require.NoError(t, err)

	require.NoError(t, Write(ctx, "t", mem, arr, WriteOptions{ChunkSize: 4, Batched: true}))

	sizes := chunkSizesOf(t, mem, "t")
	assert.ElementsMatch(t, []int{4, 2}, sizes)

	entries, err := readIndexMap(ctx, "t", mem)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Len(t, entries[0].ChunkNames, 1)
	assert.Equal(t, int64(0), entries[0].StartByte)
	assert.Equal(t, int64(3), entries[0].EndByte)

	assert.Len(t, entries[1].ChunkNames, 2)
	assert.Equal(t, int64(3), entries[1].StartByte)
	assert.Equal(t, int64(2), entries[1].EndByte)
	assert.Equal(t, entries[0].ChunkNames[0], entries[1].ChunkNames[0],
		"second sample starts in the first sample's tail chunk")

	got, err := Read(ctx, "t", mem, All(), ReadOptions{})
	require.NoError(t, err)
	assert.Equal(t, []byte("abcdef"), got.Data)
	assert.Equal(t, []int{2, 3}, got.Shape)
}

// One 8-byte sample against 4-byte chunks: two full chunks, no tail.
func TestWriteExactChunkMultiple(t *testing.T) {
	ctx := context.Background()
	mem := memory.New()
	arr := narray.FromUint8([]uint8{1, 2, 3, 4, 5, 6, 7, 8})

	require.NoError(t, Write(ctx, "t", mem, arr, WriteOptions{ChunkSize: 4}))

	assert.ElementsMatch(t, []int{4, 4}, chunkSizesOf(t, mem, "t"))

	entries, err := readIndexMap(ctx, "t", mem)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Len(t, entries[0].ChunkNames, 2)
	assert.Equal(t, int64(0), entries[0].StartByte)
	assert.Equal(t, int64(4), entries[0].EndByte)
}

func TestWriteRefusesExistingTensor(t *testing.T) {
	ctx := context.Background()
	mem := memory.New()
	arr := narray.FromUint8([]uint8{1, 2, 3})

	require.NoError(t, Write(ctx, "t", mem, arr, WriteOptions{ChunkSize: 4}))
	err := Write(ctx, "t", mem, arr, WriteOptions{ChunkSize: 4})
	require.ErrorIs(t, err, ErrTensorExists)
}

func TestWriteRecordsShapeBounds(t *testing.T) {
	ctx := context.Background()
	mem := memory.New()
	arr, err := narray.New(narray.Float64, 3, 4, 5)
	require.NoError(t, err)

	require.NoError(t, Write(ctx, "t", mem, arr, WriteOptions{Batched: true}))

	meta, err := ReadMeta(ctx, "t", mem)
	require.NoError(t, err)
	assert.Equal(t, narray.Float64, meta.DType)
	assert.Equal(t, 3, meta.Length)
	assert.Equal(t, []int{4, 5}, meta.MinShape)
	assert.Equal(t, []int{4, 5}, meta.MaxShape)
	assert.Equal(t, int64(DefaultChunkSize), meta.ChunkSize)
}

func roundTripArrays() []*narray.Array {
	u8 := narray.FromUint8([]uint8{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11})
	u8x3x4, _ := u8.Reshape(3, 4)
	i64 := narray.FromInt64([]int64{-5, 0, 1 << 40, -(1 << 40), 42, 7})
	i64x2x3, _ := i64.Reshape(2, 3)
	f32 := narray.FromFloat32([]float32{0.5, -1.25, 3e7, -0, 1, 2, 3, 4})
	f32x2x2x2, _ := f32.Reshape(2, 2, 2)
	return []*narray.Array{
		u8x3x4,
		i64x2x3,
		f32x2x2x2,
		narray.FromFloat64([]float64{3.14159, -2.71828}),
	}
}

func TestRoundTripAcrossChunkSizes(t *testing.T) {
	ctx := context.Background()
	for _, arr := range roundTripArrays() {
		for _, chunkSize := range []int64{1, 3, 7, 16, 4096} {
			key := fmt.Sprintf("t/%s/%d", arr.DType, chunkSize)
			mem := memory.New()
			require.NoError(t, Write(ctx, key, mem, arr, WriteOptions{ChunkSize: chunkSize, Batched: true}))

			got, err := Read(ctx, key, mem, All(), ReadOptions{})
			require.NoError(t, err)
			assert.True(t, got.Equal(arr), "dtype %s chunk size %d: got shape %v", arr.DType, chunkSize, got.Shape)

			// Every chunk respects the bound and at most one (the
			// tail) is short.
			short := 0
			for _, size := range chunkSizesOf(t, mem, key) {
				require.LessOrEqual(t, int64(size), chunkSize)
				if int64(size) < chunkSize {
					short++
				}
			}
			assert.LessOrEqual(t, short, 1, "dtype %s chunk size %d", arr.DType, chunkSize)
		}
	}
}

func TestReadSlices(t *testing.T) {
	ctx := context.Background()
	mem := memory.New()
	vals := make([]int64, 10)
	for i := range vals {
		vals[i] = int64(i * 100)
	}
	require.NoError(t, Write(ctx, "t", mem, narray.FromInt64(vals), WriteOptions{ChunkSize: 24, Batched: true}))

	tests := []struct {
		name string
		slc  SampleSlice
		want []int64
	}{
		{"single", Single(4), []int64{400}},
		{"range", SampleSlice{2, 5, 1}, []int64{200, 300, 400}},
		{"stepped", SampleSlice{1, End, 4}, []int64{100, 500, 900}},
		{"empty", SampleSlice{10, End, 1}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Read(ctx, "t", mem, tt.slc, ReadOptions{})
			require.NoError(t, err)
			require.Equal(t, len(tt.want), got.Shape[0])
			for i, want := range tt.want {
				sample, err := got.Sample(i)
				require.NoError(t, err)
				elems, err := sample.Int64s()
				require.NoError(t, err)
				assert.Equal(t, []int64{want}, elems)
			}
		})
	}
}

func TestParallelReadKeepsOrder(t *testing.T) {
	ctx := context.Background()
	mem := memory.New()
	vals := make([]int64, 64)
	for i := range vals {
		vals[i] = int64(i)
	}
	arr, err := narray.FromInt64(vals).Reshape(64, 1)
	require.NoError(t, err)
	require.NoError(t, Write(ctx, "t", mem, arr, WriteOptions{ChunkSize: 40, Batched: true}))

	got, err := Read(ctx, "t", mem, All(), ReadOptions{Parallel: true, Workers: 8})
	require.NoError(t, err)
	require.Equal(t, []int{64, 1}, got.Shape)
	for i := 0; i < 64; i++ {
		sample, err := got.Sample(i)
		require.NoError(t, err)
		elems, err := sample.Int64s()
		require.NoError(t, err)
		assert.Equal(t, int64(i), elems[0], "sample %d out of order", i)
	}
}

func TestReadMissingTensor(t *testing.T) {
	ctx := context.Background()
	_, err := Read(ctx, "nope", memory.New(), All(), ReadOptions{})
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestReadMalformedRecords(t *testing.T) {
	ctx := context.Background()
	mem := memory.New()
	require.NoError(t, Write(ctx, "t", mem, narray.FromUint8([]uint8{1, 2, 3}), WriteOptions{ChunkSize: 4}))

	require.NoError(t, mem.Put(ctx, MetaKey("t"), []byte("not json")))
	_, err := Read(ctx, "t", mem, All(), ReadOptions{})
	require.ErrorIs(t, err, ErrMalformedMeta)

	require.NoError(t, mem.Put(ctx, MetaKey("t"), []byte(`{"hubVersion":99,"chunkSize":4,"dtype":"uint8","length":1,"minShape":[3],"maxShape":[3]}`)))
	_, err = Read(ctx, "t", mem, All(), ReadOptions{})
	require.ErrorIs(t, err, ErrMalformedMeta)
}

func TestReadCorruptChunk(t *testing.T) {
	ctx := context.Background()
	mem := memory.New()
	require.NoError(t, Write(ctx, "t", mem, narray.FromUint8([]uint8{1, 2, 3, 4, 5, 6}), WriteOptions{ChunkSize: 4}))

	// Truncate one chunk behind the index map's back.
	names := chunkNamesOf(t, mem, "t")
	require.NotEmpty(t, names)
	for _, name := range names {
		require.NoError(t, mem.Put(ctx, ChunkKey("t", name), []byte{1}))
	}
	_, err := Read(ctx, "t", mem, All(), ReadOptions{})
	require.ErrorIs(t, err, ErrCorruptChunk)
}

func TestRaggedTensor(t *testing.T) {
	ctx := context.Background()
	mem := memory.New()

	// Hand-write a tensor whose two samples disagree in shape, the
	// way a dynamic-shape writer would lay it out.
	require.NoError(t, mem.Put(ctx, ChunkKey("t", "c1"), []byte{1, 2, 3, 4, 5}))
	require.NoError(t, writeMeta(ctx, "t", mem, &Meta{
		Version:   recordVersion,
		ChunkSize: 16,
		DType:     narray.Uint8,
		Length:    2,
		MinShape:  []int{2},
		MaxShape:  []int{3},
	}))
	require.NoError(t, writeIndexMap(ctx, "t", mem, []IndexEntry{
		{ChunkNames: []string{"c1"}, StartByte: 0, EndByte: 2, Shape: []int{2}},
		{ChunkNames: []string{"c1"}, StartByte: 2, EndByte: 5, Shape: []int{3}},
	}))

	_, err := Read(ctx, "t", mem, All(), ReadOptions{})
	require.ErrorIs(t, err, ErrUnsupported)

	samples, err := ReadSamples(ctx, "t", mem, All(), ReadOptions{})
	require.NoError(t, err)
	require.Len(t, samples, 2)
	assert.Equal(t, []byte{1, 2}, samples[0].Data)
	assert.Equal(t, []byte{3, 4, 5}, samples[1].Data)
}

func TestTensorView(t *testing.T) {
	ctx := context.Background()
	mem := memory.New()
	vals := make([]int64, 8)
	for i := range vals {
		vals[i] = int64(i)
	}

	tn := New("t", mem)
	require.NoError(t, tn.Set(ctx, narray.FromInt64(vals), WriteOptions{ChunkSize: 24, Batched: true}))

	n, err := tn.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 8, n)

	// Slices compose; Len stays the stored length.
	view := tn.Slice(SampleSlice{2, End, 2}).Slice(SampleSlice{1, 3, 1})
	n, err = view.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 8, n)

	got, err := view.Array(ctx, ReadOptions{})
	require.NoError(t, err)
	require.Equal(t, 2, got.Shape[0])
	for i, want := range []int64{4, 6} {
		sample, err := got.Sample(i)
		require.NoError(t, err)
		elems, err := sample.Int64s()
		require.NoError(t, err)
		assert.Equal(t, want, elems[0])
	}

	// Assignment through a sliced view is refused.
	err = view.Set(ctx, narray.FromInt64([]int64{1}), WriteOptions{Batched: true})
	require.ErrorIs(t, err, ErrUnsupported)

	// Assignment to an existing tensor is refused.
	err = tn.Set(ctx, narray.FromInt64([]int64{1}), WriteOptions{Batched: true})
	require.ErrorIs(t, err, ErrTensorExists)

	samples, err := tn.Index(3).Samples(ctx, ReadOptions{})
	require.NoError(t, err)
	require.Len(t, samples, 1)
	elems, err := samples[0].Int64s()
	require.NoError(t, err)
	assert.Equal(t, []int64{3}, elems)
}

func TestDatasetMeta(t *testing.T) {
	ctx := context.Background()
	mem := memory.New()

	_, err := ReadDatasetMeta(ctx, mem)
	require.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, WriteDatasetMeta(ctx, mem, &DatasetMeta{Tensors: []string{"images", "labels"}}))
	m, err := ReadDatasetMeta(ctx, mem)
	require.NoError(t, err)
	assert.Equal(t, []string{"images", "labels"}, m.Tensors)
}

// The engine's behavior is identical through a cache chain: write
// through a memory tier onto disk, flush, then read cold from disk.
func TestWriteReadThroughCacheChain(t *testing.T) {
	ctx := context.Background()
	disk, err := localdisk.New(t.TempDir())
	require.NoError(t, err)
	chain, err := lrucache.NewChain(
		[]storage.Provider{memory.New(), disk},
		[]int64{256},
	)
	require.NoError(t, err)

	vals := make([]int64, 100)
	for i := range vals {
		vals[i] = int64(i * 3)
	}
	arr := narray.FromInt64(vals)

	require.NoError(t, Write(ctx, "t", chain, arr, WriteOptions{ChunkSize: 64, Batched: true}))
	require.NoError(t, chain.Flush(ctx))

	// Cold read, straight from the authoritative layer.
	got, err := Read(ctx, "t", disk, All(), ReadOptions{Parallel: true})
	require.NoError(t, err)
	assert.True(t, got.Equal(arr))

	// Warm read through the chain.
	got, err = Read(ctx, "t", chain, All(), ReadOptions{})
	require.NoError(t, err)
	assert.True(t, got.Equal(arr))
}
