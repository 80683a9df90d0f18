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
	"log"

	"github.com/google/uuid"

	"github.com/snarkai/hub/pkg/chunk"
	"github.com/snarkai/hub/pkg/narray"
	"github.com/snarkai/hub/pkg/storage"
)

// DefaultChunkSize is the target chunk length used when WriteOptions
// leaves ChunkSize zero.
const DefaultChunkSize = 16 * 1000 * 1000

// A Flattener maps one sample array to its canonical byte
// representation. The default is narray.ToBytes (row-major).
type Flattener func(*narray.Array) []byte

// WriteOptions configure a tensor write. The zero value chunks at
// DefaultChunkSize, treats the array as a single sample, and
// flattens row-major.
type WriteOptions struct {
	// ChunkSize is the target length of each chunk blob.
	ChunkSize int64

	// Batched marks the array's leading axis as the sample axis.
	// When false the whole array is stored as one sample.
	Batched bool

	// ToBytes overrides the sample flattener.
	ToBytes Flattener
}

// Write chunks arr and persists it as the tensor at key: chunk blobs
// under key/chunks/, plus a meta record and an index map. It refuses
// to touch an existing tensor with ErrTensorExists.
//
// A provider failure mid-write aborts without cleanup; already
// written chunks are left behind for the caller to delete.
func Write(ctx context.Context, key string, p storage.Provider, arr *narray.Array, opts WriteOptions) error {
	chunkSize := opts.ChunkSize
	if chunkSize == 0 {
		chunkSize = DefaultChunkSize
	}
	if chunkSize < 1 {
		return fmt.Errorf("tensor: invalid chunk size %d", chunkSize)
	}
	flatten := opts.ToBytes
	if flatten == nil {
		flatten = narray.ToBytes
	}

	batch, err := narray.Batchify(arr, opts.Batched)
	if err != nil {
		return err
	}

	for _, k := range []string{MetaKey(key), IndexMapKey(key)} {
		ok, err := p.Contains(ctx, k)
		if err != nil {
			return err
		}
		if ok {
			return fmt.Errorf("%w: %s", ErrTensorExists, key)
		}
	}

	sampleShape := batch.Shape[1:]
	meta := &Meta{
		Version:   recordVersion,
		ChunkSize: chunkSize,
		DType:     batch.DType,
		Length:    batch.Shape[0],
		MinShape:  append([]int(nil), sampleShape...),
		MaxShape:  append([]int(nil), sampleShape...),
	}

	var entries []IndexEntry
	for i := 0; i < batch.Shape[0]; i++ {
		sample, err := batch.Sample(i)
		if err != nil {
			return err
		}
		entry, err := writeSampleBytes(ctx, key, flatten(sample), chunkSize, p, entries)
		if err != nil {
			return err
		}
		// shape per sample for dynamic tensors
		entry.Shape = append([]int(nil), sample.Shape...)
		entries = append(entries, entry)
	}

	if err := writeMeta(ctx, key, p, meta); err != nil {
		return err
	}
	return writeIndexMap(ctx, key, p, entries)
}

// writeSampleBytes chunks and writes the bytes of a single sample,
// returning its index entry (Shape left for the caller to fill). The
// first piece extends the previous sample's trailing chunk when that
// chunk has headroom.
func writeSampleBytes(ctx context.Context, key string, b []byte, chunkSize int64, p storage.Provider, entries []IndexEntry) (IndexEntry, error) {
	lastName, lastChunk, err := lastChunkOf(ctx, key, entries, p)
	if err != nil {
		return IndexEntry{}, err
	}

	var bllc int64
	extendLastChunk := false
	if len(entries) > 0 && int64(len(lastChunk)) < chunkSize {
		bllc = chunkSize - int64(len(lastChunk))
		extendLastChunk = true
	}

	sp := chunk.NewSplitter(b, chunkSize, bllc)

	var (
		chunkNames []string
		startByte  int64
		endByte    int64
	)
	for piece := sp.Next(); piece != nil; piece = sp.Next() {
		var name string
		var blob []byte
		if extendLastChunk {
			name = lastName
			blob = append(append(make([]byte, 0, int64(len(lastChunk))+int64(len(piece))), lastChunk...), piece...)
			startByte = entries[len(entries)-1].EndByte
			if int64(len(blob)) >= chunkSize {
				extendLastChunk = false
			}
		} else {
			name = randomChunkName()
			blob = piece
		}
		endByte = int64(len(blob))

		if err := p.Put(ctx, ChunkKey(key, name), blob); err != nil {
			return IndexEntry{}, err
		}
		chunkNames = append(chunkNames, name)
	}

	return IndexEntry{
		ChunkNames: chunkNames,
		StartByte:  startByte,
		EndByte:    endByte,
	}, nil
}

// lastChunkOf loads the trailing chunk referenced by the last index
// entry, or returns empty values for a tensor with no samples yet.
func lastChunkOf(ctx context.Context, key string, entries []IndexEntry, p storage.Getter) (name string, data []byte, err error) {
	if len(entries) == 0 {
		return "", nil, nil
	}
	last := entries[len(entries)-1]
	name = last.ChunkNames[len(last.ChunkNames)-1]
	data, err = p.Get(ctx, ChunkKey(key, name))
	if err != nil {
		return "", nil, err
	}
	return name, data, nil
}

func randomChunkName() string {
	id, err := uuid.NewUUID() // time-based
	if err != nil {
		// The clock sequence could not be initialized; fall back
		// to a random name, which only costs debuggability.
		log.Printf("tensor: time-based chunk name unavailable: %v", err)
		return uuid.NewString()
	}
	return id.String()
}
