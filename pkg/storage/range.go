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

package storage

// ApplyRange returns a new blob holding the result of writing data at
// offset into old, following the RangePutter contract: the gap
// between len(old) and offset is zero-filled and trailing bytes of
// old are preserved. With overwrite, old is discarded: the result is
// offset zero bytes followed by data. Backends without native ranged
// writes (memory, s3, gcs, the cache tier) patch blobs with it.
func ApplyRange(old, data []byte, offset int64, overwrite bool) []byte {
	end := offset + int64(len(data))
	var b []byte
	if overwrite || int64(len(old)) < end {
		b = make([]byte, end)
	} else {
		b = make([]byte, len(old))
	}
	if !overwrite {
		copy(b, old)
	}
	copy(b[offset:], data)
	return b
}
