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
	"reflect"
	"testing"
)

func TestSliceIndices(t *testing.T) {
	tests := []struct {
		name   string
		s      SampleSlice
		length int
		want   []int
	}{
		{"all", All(), 4, []int{0, 1, 2, 3}},
		{"single", Single(2), 4, []int{2}},
		{"bounded", SampleSlice{1, 3, 1}, 5, []int{1, 2}},
		{"stepped", SampleSlice{0, End, 2}, 5, []int{0, 2, 4}},
		{"stop past end clamps", SampleSlice{2, 99, 1}, 4, []int{2, 3}},
		{"start past end", SampleSlice{5, End, 1}, 4, nil},
		{"empty tensor", All(), 0, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.s.Indices(tt.length)
			if err != nil {
				t.Fatal(err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Indices = %v; want %v", got, tt.want)
			}
		})
	}
}

func TestSliceValidate(t *testing.T) {
	for _, s := range []SampleSlice{
		{Start: -1, Stop: End, Step: 1},
		{Start: 0, Stop: End, Step: 0},
		{Start: 0, Stop: -2, Step: 1},
	} {
		if _, err := s.Indices(10); err == nil {
			t.Errorf("Indices of invalid slice %+v succeeded", s)
		}
	}
}

// Compose must agree with resolving the two slices one after the
// other.
func TestSliceCompose(t *testing.T) {
	const length = 20
	slices := []SampleSlice{
		All(),
		Single(3),
		{Start: 2, Stop: 15, Step: 1},
		{Start: 1, Stop: End, Step: 3},
		{Start: 0, Stop: 8, Step: 2},
	}
	for _, parent := range slices {
		for _, child := range slices {
			parentIdxs, err := parent.Indices(length)
			if err != nil {
				t.Fatal(err)
			}
			childIdxs, err := child.Indices(len(parentIdxs))
			if err != nil {
				t.Fatal(err)
			}
			var want []int
			for _, j := range childIdxs {
				want = append(want, parentIdxs[j])
			}

			got, err := parent.Compose(child).Indices(length)
			if err != nil {
				t.Fatal(err)
			}
			if !reflect.DeepEqual(got, want) {
				t.Errorf("%+v.Compose(%+v).Indices = %v; want %v", parent, child, got, want)
			}
		}
	}
}

func TestSliceIsAll(t *testing.T) {
	if !All().IsAll() {
		t.Error("All().IsAll() = false")
	}
	if Single(0).IsAll() {
		t.Error("Single(0).IsAll() = true")
	}
	if (SampleSlice{0, End, 2}).IsAll() {
		t.Error("stepped slice IsAll() = true")
	}
}
