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
	"encoding/json"
	"fmt"

	"github.com/snarkai/hub/pkg/storage"
)

// An IndexEntry locates one sample's bytes: they start at StartByte
// in the first named chunk, span every intermediate chunk fully, and
// end at EndByte in the last named chunk. With a single chunk the
// range is [StartByte, EndByte).
type IndexEntry struct {
	ChunkNames []string `json:"chunkNames"`
	StartByte  int64    `json:"startByte"`
	EndByte    int64    `json:"endByte"`
	Shape      []int    `json:"shape"`
}

func (e *IndexEntry) validate() error {
	switch {
	case len(e.ChunkNames) == 0:
		return fmt.Errorf("empty chunk list")
	case e.StartByte < 0 || e.EndByte < 0:
		return fmt.Errorf("negative byte offset (start %d, end %d)", e.StartByte, e.EndByte)
	case len(e.ChunkNames) == 1 && e.EndByte < e.StartByte:
		return fmt.Errorf("end byte %d before start byte %d", e.EndByte, e.StartByte)
	}
	for _, d := range e.Shape {
		if d < 1 {
			return fmt.Errorf("non-positive axis length %d in shape %v", d, e.Shape)
		}
	}
	return nil
}

// indexMap is the stored form of a tensor's ordered sample index.
type indexMap struct {
	Version int          `json:"hubVersion"`
	Entries []IndexEntry `json:"entries"`
}

func readIndexMap(ctx context.Context, key string, p storage.Getter) ([]IndexEntry, error) {
	b, err := p.Get(ctx, IndexMapKey(key))
	if err != nil {
		return nil, err
	}
	var im indexMap
	if err := json.Unmarshal(b, &im); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedIndex, key, err)
	}
	if im.Version < 1 || im.Version > recordVersion {
		return nil, fmt.Errorf("%w: %s: unsupported version %d", ErrMalformedIndex, key, im.Version)
	}
	for i := range im.Entries {
		if err := im.Entries[i].validate(); err != nil {
			return nil, fmt.Errorf("%w: %s: entry %d: %v", ErrMalformedIndex, key, i, err)
		}
	}
	return im.Entries, nil
}

func writeIndexMap(ctx context.Context, key string, p storage.Putter, entries []IndexEntry) error {
	b, err := json.Marshal(indexMap{Version: recordVersion, Entries: entries})
	if err != nil {
		return err
	}
	return p.Put(ctx, IndexMapKey(key), b)
}
