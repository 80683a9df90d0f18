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

package narray

import "fmt"

// DType names an element type. The names are the lowercase numpy
// names; they are what tensor metadata records on disk. Multi-byte
// elements are always encoded little-endian, regardless of host
// platform.
type DType string

const (
	Bool    DType = "bool"
	Uint8   DType = "uint8"
	Uint16  DType = "uint16"
	Uint32  DType = "uint32"
	Uint64  DType = "uint64"
	Int8    DType = "int8"
	Int16   DType = "int16"
	Int32   DType = "int32"
	Int64   DType = "int64"
	Float32 DType = "float32"
	Float64 DType = "float64"
)

var dtypeSizes = map[DType]int64{
	Bool:    1,
	Uint8:   1,
	Uint16:  2,
	Uint32:  4,
	Uint64:  8,
	Int8:    1,
	Int16:   2,
	Int32:   4,
	Int64:   8,
	Float32: 4,
	Float64: 8,
}

// Size returns the element width in bytes, or 0 for an unknown
// dtype.
func (d DType) Size() int64 { return dtypeSizes[d] }

// Valid reports whether d names a known element type.
func (d DType) Valid() bool { return dtypeSizes[d] != 0 }

// ParseDType converts a stored dtype name into a DType.
func ParseDType(name string) (DType, error) {
	d := DType(name)
	if !d.Valid() {
		return "", fmt.Errorf("narray: unknown dtype %q", name)
	}
	return d, nil
}
