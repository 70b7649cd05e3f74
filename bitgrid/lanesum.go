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

package bitgrid

import "math/bits"

// LaneSum computes one processing element's contribution for one cycle.
//
// In Binary1 mode the result is the masked XNOR-popcount of w and a:
// the count of bit positions where w and a agree and the mask bit is set.
// The result lies in [0, 64] and the operation is symmetric in w and a.
//
// In Uint2/Uint4/Uint8 modes both words are partitioned into unsigned lanes
// and the result is the sum of per-lane products, bounded by
// mode.MaxLaneSum(). The validity mask applies only in Binary1 mode; the
// multi-bit datapath carries no mask.
func LaneSum(w, a, mask uint64, mode PrecisionMode) uint32 {
	if mode == Binary1 {
		return uint32(bits.OnesCount64(^(w ^ a) & mask))
	}

	width := uint(mode.Width())
	laneMask := uint64(1)<<width - 1

	var sum uint32
	for shift := uint(0); shift < WordBits; shift += width {
		wl := uint32(w >> shift & laneMask)
		al := uint32(a >> shift & laneMask)
		sum += wl * al
	}
	return sum
}
