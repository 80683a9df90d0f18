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

/*
Package narray provides the in-memory value type handled by the chunk
engine: a dense N-dimensional array of a homogeneous numeric element
type, stored as row-major little-endian bytes.

It deliberately implements no arithmetic. It exists so samples can be
flattened to bytes on write and rebuilt from joined chunk bytes on
read.
*/
package narray // import "github.com/snarkai/hub/pkg/narray"

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
)

// Array is a dense N-d array. Data holds Prod(Shape) elements of
// DType, row-major, little-endian.
type Array struct {
	DType DType
	Shape []int
	Data  []byte
}

// Prod returns the element count implied by shape. An empty shape
// describes a scalar and yields 1.
func Prod(shape []int) int64 {
	n := int64(1)
	for _, d := range shape {
		n *= int64(d)
	}
	return n
}

func checkShape(shape []int) error {
	for _, d := range shape {
		if d <= 0 {
			return fmt.Errorf("narray: non-positive axis length %d in shape %v", d, shape)
		}
	}
	return nil
}

// New returns a zero-filled array of the given dtype and shape.
func New(dt DType, shape ...int) (*Array, error) {
	if !dt.Valid() {
		return nil, fmt.Errorf("narray: unknown dtype %q", dt)
	}
	if err := checkShape(shape); err != nil {
		return nil, err
	}
	return &Array{
		DType: dt,
		Shape: append([]int(nil), shape...),
		Data:  make([]byte, Prod(shape)*dt.Size()),
	}, nil
}

// FromBytes wraps data as an array of the given dtype and shape. The
// data length must match the shape exactly; data is not copied.
func FromBytes(dt DType, shape []int, data []byte) (*Array, error) {
	if !dt.Valid() {
		return nil, fmt.Errorf("narray: unknown dtype %q", dt)
	}
	if err := checkShape(shape); err != nil {
		return nil, err
	}
	if want := Prod(shape) * dt.Size(); int64(len(data)) != want {
		return nil, fmt.Errorf("narray: %d bytes for shape %v of %s; want %d",
			len(data), shape, dt, want)
	}
	return &Array{DType: dt, Shape: append([]int(nil), shape...), Data: data}, nil
}

// Len returns the number of elements.
func (a *Array) Len() int64 { return Prod(a.Shape) }

// NumBytes returns the payload size in bytes.
func (a *Array) NumBytes() int64 { return int64(len(a.Data)) }

// Rank returns the number of axes.
func (a *Array) Rank() int { return len(a.Shape) }

// Reshape returns a view of a with the given shape, which must
// describe the same number of elements.
func (a *Array) Reshape(shape ...int) (*Array, error) {
	if err := checkShape(shape); err != nil {
		return nil, err
	}
	if Prod(shape) != a.Len() {
		return nil, fmt.Errorf("narray: cannot reshape %v into %v", a.Shape, shape)
	}
	return &Array{DType: a.DType, Shape: append([]int(nil), shape...), Data: a.Data}, nil
}

// Sample returns a view of sample i of a batched array: the
// subarray a[i] along the leading axis. The view shares a's bytes.
func (a *Array) Sample(i int) (*Array, error) {
	if a.Rank() < 1 {
		return nil, fmt.Errorf("narray: sample of a scalar")
	}
	if i < 0 || i >= a.Shape[0] {
		return nil, fmt.Errorf("narray: sample %d out of range [0, %d)", i, a.Shape[0])
	}
	stride := Prod(a.Shape[1:]) * a.DType.Size()
	return &Array{
		DType: a.DType,
		Shape: append([]int(nil), a.Shape[1:]...),
		Data:  a.Data[int64(i)*stride : int64(i+1)*stride],
	}, nil
}

// Batchify normalizes a to a batched layout: with batched false a new
// leading axis of length 1 is prepended; with batched true the array
// must already have rank >= 1 and is returned as-is.
func Batchify(a *Array, batched bool) (*Array, error) {
	if batched {
		if a.Rank() < 1 {
			return nil, fmt.Errorf("narray: batched array must have rank >= 1")
		}
		return a, nil
	}
	shape := append([]int{1}, a.Shape...)
	return &Array{DType: a.DType, Shape: shape, Data: a.Data}, nil
}

// ToBytes flattens a sample into its canonical row-major byte
// representation. It is the default flattener used by the tensor
// writer.
func ToBytes(a *Array) []byte {
	out := make([]byte, len(a.Data))
	copy(out, a.Data)
	return out
}

// Equal reports whether a and b have the same dtype, shape and
// element bytes.
func (a *Array) Equal(b *Array) bool {
	if a.DType != b.DType || len(a.Shape) != len(b.Shape) {
		return false
	}
	for i, d := range a.Shape {
		if b.Shape[i] != d {
			return false
		}
	}
	return bytes.Equal(a.Data, b.Data)
}

// FromUint8 builds a 1-D uint8 array; Reshape for higher ranks.
func FromUint8(vals []uint8) *Array {
	a, err := FromBytes(Uint8, []int{len(vals)}, append([]byte(nil), vals...))
	if err != nil {
		panic(err) // impossible for a 1-D uint8 slice
	}
	return a
}

// Uint8s returns the elements of a uint8 array.
func (a *Array) Uint8s() ([]uint8, error) {
	if a.DType != Uint8 {
		return nil, fmt.Errorf("narray: Uint8s on %s array", a.DType)
	}
	return append([]uint8(nil), a.Data...), nil
}

// FromInt32 builds a 1-D int32 array; Reshape for higher ranks.
func FromInt32(vals []int32) *Array {
	data := make([]byte, 4*len(vals))
	for i, v := range vals {
		binary.LittleEndian.PutUint32(data[4*i:], uint32(v))
	}
	a, err := FromBytes(Int32, []int{len(vals)}, data)
	if err != nil {
		panic(err)
	}
	return a
}

// Int32s returns the elements of an int32 array.
func (a *Array) Int32s() ([]int32, error) {
	if a.DType != Int32 {
		return nil, fmt.Errorf("narray: Int32s on %s array", a.DType)
	}
	vals := make([]int32, len(a.Data)/4)
	for i := range vals {
		vals[i] = int32(binary.LittleEndian.Uint32(a.Data[4*i:]))
	}
	return vals, nil
}

// FromInt64 builds a 1-D int64 array; Reshape for higher ranks.
func FromInt64(vals []int64) *Array {
	data := make([]byte, 8*len(vals))
	for i, v := range vals {
		binary.LittleEndian.PutUint64(data[8*i:], uint64(v))
	}
	a, err := FromBytes(Int64, []int{len(vals)}, data)
	if err != nil {
		panic(err)
	}
	return a
}

// Int64s returns the elements of an int64 array.
func (a *Array) Int64s() ([]int64, error) {
	if a.DType != Int64 {
		return nil, fmt.Errorf("narray: Int64s on %s array", a.DType)
	}
	vals := make([]int64, len(a.Data)/8)
	for i := range vals {
		vals[i] = int64(binary.LittleEndian.Uint64(a.Data[8*i:]))
	}
	return vals, nil
}

// FromFloat32 builds a 1-D float32 array; Reshape for higher ranks.
func FromFloat32(vals []float32) *Array {
	data := make([]byte, 4*len(vals))
	for i, v := range vals {
		binary.LittleEndian.PutUint32(data[4*i:], math.Float32bits(v))
	}
	a, err := FromBytes(Float32, []int{len(vals)}, data)
	if err != nil {
		panic(err)
	}
	return a
}

// Float32s returns the elements of a float32 array.
func (a *Array) Float32s() ([]float32, error) {
	if a.DType != Float32 {
		return nil, fmt.Errorf("narray: Float32s on %s array", a.DType)
	}
	vals := make([]float32, len(a.Data)/4)
	for i := range vals {
		vals[i] = math.Float32frombits(binary.LittleEndian.Uint32(a.Data[4*i:]))
	}
	return vals, nil
}

// FromFloat64 builds a 1-D float64 array; Reshape for higher ranks.
func FromFloat64(vals []float64) *Array {
	data := make([]byte, 8*len(vals))
	for i, v := range vals {
		binary.LittleEndian.PutUint64(data[8*i:], math.Float64bits(v))
	}
	a, err := FromBytes(Float64, []int{len(vals)}, data)
	if err != nil {
		panic(err)
	}
	return a
}

// Float64s returns the elements of a float64 array.
func (a *Array) Float64s() ([]float64, error) {
	if a.DType != Float64 {
		return nil, fmt.Errorf("narray: Float64s on %s array", a.DType)
	}
	vals := make([]float64, len(a.Data)/8)
	for i := range vals {
		vals[i] = math.Float64frombits(binary.LittleEndian.Uint64(a.Data[8*i:]))
	}
	return vals, nil
}
