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

import "errors"

var (
	// ErrTensorExists is returned by Write when the target key
	// already holds a tensor. Overwriting and appending are not
	// supported.
	ErrTensorExists = errors.New("tensor: tensor already exists")

	// ErrUnsupported is returned for operations outside the
	// append-only write contract, such as assigning through a sliced
	// view.
	ErrUnsupported = errors.New("tensor: operation not supported")

	// ErrMalformedMeta is returned when a stored meta record cannot
	// be decoded or violates its invariants.
	ErrMalformedMeta = errors.New("tensor: malformed meta")

	// ErrMalformedIndex is returned when a stored index map cannot
	// be decoded or violates its invariants.
	ErrMalformedIndex = errors.New("tensor: malformed index map")

	// ErrCorruptChunk is returned when a fetched chunk's length is
	// inconsistent with the index entry referencing it.
	ErrCorruptChunk = errors.New("tensor: corrupt chunk")
)
