// Copyright 2025 go-bitgrid Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package control

// OutputAccumulator holds one persistent unsigned accumulator per output
// channel. Values persist across the column tiles of a row-tile and reset
// when a new row-tile begins. The LayerController is the single writer;
// everything else reads. uint64 accumulators survive 2³² worst-case column
// tiles without wraparound.
type OutputAccumulator struct {
	vals []uint64
}

// NewOutputAccumulator creates an accumulator for the given channel count.
func NewOutputAccumulator(channels int) *OutputAccumulator {
	return &OutputAccumulator{vals: make([]uint64, channels)}
}

// Channels returns the number of output channels.
func (o *OutputAccumulator) Channels() int { return len(o.vals) }

// ResetRange zeroes channels [lo, hi).
func (o *OutputAccumulator) ResetRange(lo, hi int) {
	clear(o.vals[lo:hi])
}

// Add accumulates one tile result into a channel.
func (o *OutputAccumulator) Add(ch int, v uint32) {
	o.vals[ch] += uint64(v)
}

// Value returns the accumulator for one channel. Meaningful for a channel's
// row-tile only after that row-tile is finalized (caller responsibility).
func (o *OutputAccumulator) Value(ch int) uint64 { return o.vals[ch] }

// Values returns a copy of all channel accumulators.
func (o *OutputAccumulator) Values() []uint64 {
	out := make([]uint64, len(o.vals))
	copy(out, o.vals)
	return out
}
