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

// Package bitgrid provides the core numeric primitives of a tiled
// binary/multi-precision neural-network accelerator model.
//
// The unit of data is a 64-bit word. Depending on the precision mode a word
// is interpreted either as 64 independent sign bits (1-bit mode) or as a
// vector of packed unsigned lanes (2/4/8-bit modes):
//
//	Binary1:  64 lanes × 1 bit
//	Uint2:    32 lanes × 2 bits
//	Uint4:    16 lanes × 4 bits
//	Uint8:     8 lanes × 8 bits
//
// # Core Operations
//
// LaneSum is the per-cycle compute primitive of one processing element. In
// 1-bit mode it computes an XNOR-popcount (a count of sign agreements, the
// multiply-accumulate substitute for binarized networks):
//
//	result = popcount(NOT(w XOR a) AND mask)
//
// In multi-bit modes it computes the sum of per-lane unsigned products:
//
//	result = Σ lane_i(w) * lane_i(a)
//
// IsZero and IsSparse classify words for skip decisions. Skipping a cycle
// whose weight or activation word is all-zero is numerically equivalent to
// accumulating zero, so sparsity-aware skipping never changes results.
//
// Higher layers live in subpackages: store (weight/activation tiles and
// compressed row decode), sched (active-column derivation), pe (the lockstep
// processing-element array) and control (tile and layer state machines).
package bitgrid
