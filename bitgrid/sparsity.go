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

// SparseThreshold is the popcount below which a word counts as sparse.
// Fixed at 10% of the word width.
const SparseThreshold = WordBits / 10

// IsZero reports whether all 64 bits of w are zero. A zero weight or
// activation word forces a zero LaneSum in every precision mode, so zero
// words are safe to skip.
func IsZero(w uint64) bool {
	return w == 0
}

// IsSparse reports whether w has fewer than SparseThreshold set bits.
// Sparsity classification feeds skip and scheduling decisions only; it never
// affects the arithmetic itself.
func IsSparse(w uint64) bool {
	return bits.OnesCount64(w) < SparseThreshold
}
