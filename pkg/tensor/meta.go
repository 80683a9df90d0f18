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

	"github.com/snarkai/hub/pkg/narray"
	"github.com/snarkai/hub/pkg/storage"
)

// recordVersion is the wire version of the meta and index map
// records. Readers reject records from a future version.
const recordVersion = 1

// Meta is the per-tensor header: everything the reader needs besides
// the index map itself.
type Meta struct {
	Version   int          `json:"hubVersion"`
	ChunkSize int64        `json:"chunkSize"`
	DType     narray.DType `json:"dtype"`
	Length    int          `json:"length"`
	MinShape  []int        `json:"minShape"`
	MaxShape  []int        `json:"maxShape"`
}

func (m *Meta) validate() error {
	switch {
	case m.Version < 1 || m.Version > recordVersion:
		return fmt.Errorf("unsupported version %d", m.Version)
	case m.ChunkSize < 1:
		return fmt.Errorf("non-positive chunk size %d", m.ChunkSize)
	case !m.DType.Valid():
		return fmt.Errorf("unknown dtype %q", m.DType)
	case m.Length < 0:
		return fmt.Errorf("negative length %d", m.Length)
	case len(m.MinShape) != len(m.MaxShape):
		return fmt.Errorf("min shape %v and max shape %v differ in rank", m.MinShape, m.MaxShape)
	}
	for k, min := range m.MinShape {
		if min < 1 || m.MaxShape[k] < min {
			return fmt.Errorf("bad shape bounds min %v max %v", m.MinShape, m.MaxShape)
		}
	}
	return nil
}

// ReadMeta loads and decodes the meta record of the tensor at key.
func ReadMeta(ctx context.Context, key string, p storage.Getter) (*Meta, error) {
	b, err := p.Get(ctx, MetaKey(key))
	if err != nil {
		return nil, err
	}
	m := new(Meta)
	if err := json.Unmarshal(b, m); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedMeta, key, err)
	}
	if err := m.validate(); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedMeta, key, err)
	}
	return m, nil
}

func writeMeta(ctx context.Context, key string, p storage.Putter, m *Meta) error {
	b, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return p.Put(ctx, MetaKey(key), b)
}
