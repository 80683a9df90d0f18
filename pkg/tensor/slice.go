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

import "fmt"

// A SampleSlice selects the samples Start, Start+Step, ... below
// Stop. Stop == End selects through the last sample. Slices never
// reach backwards: Start must be >= 0 and Step >= 1.
type SampleSlice struct {
	Start int
	Stop  int // End or an exclusive upper bound
	Step  int
}

// End marks a SampleSlice as unbounded above.
const End = -1

// All returns the slice selecting every sample.
func All() SampleSlice { return SampleSlice{Start: 0, Stop: End, Step: 1} }

// Single returns the slice selecting only sample i.
func Single(i int) SampleSlice { return SampleSlice{Start: i, Stop: i + 1, Step: 1} }

// IsAll reports whether s selects every sample of any tensor.
func (s SampleSlice) IsAll() bool {
	return s.Start == 0 && s.Stop == End && s.Step == 1
}

func (s SampleSlice) validate() error {
	if s.Start < 0 || s.Step < 1 || s.Stop < End {
		return fmt.Errorf("tensor: invalid sample slice %+v", s)
	}
	return nil
}

// Indices resolves s against a tensor of the given length, returning
// the selected sample indices in slice order.
func (s SampleSlice) Indices(length int) ([]int, error) {
	if err := s.validate(); err != nil {
		return nil, err
	}
	stop := s.Stop
	if stop == End || stop > length {
		stop = length
	}
	var idxs []int
	for i := s.Start; i < stop; i += s.Step {
		idxs = append(idxs, i)
	}
	return idxs, nil
}

// Compose returns the slice equivalent to applying child to the view
// selected by s: (s.Compose(child)).Indices(n) selects, from the
// samples s selects, the ones child selects.
func (s SampleSlice) Compose(child SampleSlice) SampleSlice {
	out := SampleSlice{
		Start: s.Start + child.Start*s.Step,
		Step:  s.Step * child.Step,
		Stop:  s.Stop,
	}
	if child.Stop != End {
		childStop := s.Start + child.Stop*s.Step
		if out.Stop == End || childStop < out.Stop {
			out.Stop = childStop
		}
	}
	return out
}
