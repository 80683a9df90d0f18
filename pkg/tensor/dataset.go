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

// DatasetMeta is the root-level record naming the tensors grouped
// under one provider root. Coordination beyond naming lives outside
// the engine.
type DatasetMeta struct {
	Version int      `json:"hubVersion"`
	Tensors []string `json:"tensors"`
}

// ReadDatasetMeta loads the dataset meta record of the provider's
// root.
func ReadDatasetMeta(ctx context.Context, p storage.Getter) (*DatasetMeta, error) {
	b, err := p.Get(ctx, DatasetMetaKey)
	if err != nil {
		return nil, err
	}
	m := new(DatasetMeta)
	if err := json.Unmarshal(b, m); err != nil {
		return nil, fmt.Errorf("%w: dataset: %v", ErrMalformedMeta, err)
	}
	if m.Version < 1 || m.Version > recordVersion {
		return nil, fmt.Errorf("%w: dataset: unsupported version %d", ErrMalformedMeta, m.Version)
	}
	return m, nil
}

// WriteDatasetMeta stores the dataset meta record, replacing any
// previous one.
func WriteDatasetMeta(ctx context.Context, p storage.Putter, m *DatasetMeta) error {
	m.Version = recordVersion
	b, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return p.Put(ctx, DatasetMetaKey, b)
}
