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

import "path"

// Storage layout below a tensor's logical key. The ".json" suffixes
// are load-bearing history: the payloads are versioned JSON records.
const (
	metaFilename     = "meta.json"
	indexMapFilename = "index_map.json"
	chunksFolder     = "chunks"
)

// DatasetMetaKey is the root-level key of a dataset's meta record.
const DatasetMetaKey = metaFilename

// MetaKey returns the key of the meta record of the tensor at key.
func MetaKey(key string) string { return path.Join(key, metaFilename) }

// IndexMapKey returns the key of the index map of the tensor at key.
func IndexMapKey(key string) string { return path.Join(key, indexMapFilename) }

// ChunkKey returns the key of the named chunk of the tensor at key.
func ChunkKey(key, chunkName string) string {
	return path.Join(key, chunksFolder, chunkName)
}
