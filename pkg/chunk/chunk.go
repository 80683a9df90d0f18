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

// Package chunk splits sample payloads into chunk-sized pieces and
// joins fetched chunks back into sample payloads.
package chunk // import "github.com/snarkai/hub/pkg/chunk"

// A Splitter lazily cuts a single sample's payload into pieces of at
// most chunkSize bytes. The yielded slices alias the payload; they
// are never empty and together they cover the payload exactly.
//
// If headroom (the free space at the end of a previously written
// partial chunk) is positive, the first piece is at most headroom
// bytes so it can be appended to that chunk; later pieces go to fresh
// chunks. Apart from that first piece, at most the last one is
// shorter than chunkSize.
type Splitter struct {
	payload   []byte
	chunkSize int64
	headroom  int64 // cap of the first piece only; 0 once consumed
	pos       int64
}

// NewSplitter returns a splitter over payload for chunks of
// chunkSize bytes, with bytesLeftInLastChunk of headroom in the
// previously written chunk. chunkSize must be positive and
// bytesLeftInLastChunk must be in [0, chunkSize].
func NewSplitter(payload []byte, chunkSize, bytesLeftInLastChunk int64) *Splitter {
	if chunkSize <= 0 {
		panic("chunk: non-positive chunk size")
	}
	if bytesLeftInLastChunk < 0 || bytesLeftInLastChunk > chunkSize {
		panic("chunk: bytes left in last chunk out of range")
	}
	return &Splitter{
		payload:   payload,
		chunkSize: chunkSize,
		headroom:  bytesLeftInLastChunk,
	}
}

// Next returns the next piece, or nil once the payload is consumed.
func (s *Splitter) Next() []byte {
	rest := int64(len(s.payload)) - s.pos
	if rest == 0 {
		return nil
	}
	n := s.chunkSize
	if s.headroom > 0 {
		n = s.headroom
		s.headroom = 0
	}
	if n > rest {
		n = rest
	}
	piece := s.payload[s.pos : s.pos+n]
	s.pos += n
	return piece
}

// Join reassembles a sample's bytes from the ordered chunks it spans:
// the first chunk contributes [startByte:], every intermediate chunk
// contributes fully, and the last chunk contributes [:endByte]. With
// a single chunk the range is [startByte:endByte].
func Join(chunks [][]byte, startByte, endByte int64) []byte {
	if len(chunks) == 1 {
		out := make([]byte, endByte-startByte)
		copy(out, chunks[0][startByte:endByte])
		return out
	}
	last := len(chunks) - 1
	total := int64(len(chunks[0])) - startByte + endByte
	for _, c := range chunks[1:last] {
		total += int64(len(c))
	}
	out := make([]byte, 0, total)
	out = append(out, chunks[0][startByte:]...)
	for _, c := range chunks[1:last] {
		out = append(out, c...)
	}
	return append(out, chunks[last][:endByte]...)
}
