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

// Package pe implements the lockstep processing-element array.
package pe

import (
	"github.com/ajroetker/go-bitgrid/bitgrid"
	"github.com/ajroetker/go-bitgrid/bitgrid/store"
)

// Array is a set of independent compute-and-accumulate lanes, one per PE
// (output row), all stepping the same column in the same precision mode each
// cycle. Accumulators are uint32: the worst case for one tile is 64 columns ×
// MaxLaneSum(Uint8) = 64 × 520200 < 2³², so no wraparound is possible within
// a tile pass.
type Array struct {
	weights *store.WeightStore
	acts    *store.ActivationStore
	mode    bitgrid.PrecisionMode
	mask    uint64
	acc     []uint32
}

// New creates an array with one PE per weight row. The validity mask defaults
// to all ones; it only affects Binary1 mode.
func New(ws *store.WeightStore, as *store.ActivationStore, mode bitgrid.PrecisionMode) *Array {
	return &Array{
		weights: ws,
		acts:    as,
		mode:    mode,
		mask:    ^uint64(0),
		acc:     make([]uint32, ws.Rows()),
	}
}

// Rows returns the number of PEs.
func (a *Array) Rows() int { return len(a.acc) }

// Mode returns the precision mode the array was built with.
func (a *Array) Mode() bitgrid.PrecisionMode { return a.mode }

// SetMask sets the validity mask applied in Binary1 mode.
func (a *Array) SetMask(mask uint64) { a.mask = mask }

// Step advances every PE by one cycle on the given column. With accumulate
// false all accumulators reset to zero and col is ignored. With accumulate
// true each PE adds its lane sum unless its weight word or the shared
// activation word is all zero; such cycles are skipped, which is numerically
// identical to adding zero. Step returns the number of PEs that contributed
// a non-skipped lane sum this cycle.
func (a *Array) Step(col int, accumulate bool) int {
	if !accumulate {
		clear(a.acc)
		return 0
	}
	act := a.acts.Word(col)
	if bitgrid.IsZero(act) {
		return 0
	}
	active := 0
	for p := range a.acc {
		w := a.weights.Word(p, col)
		if bitgrid.IsZero(w) {
			continue
		}
		a.acc[p] += bitgrid.LaneSum(w, act, a.mask, a.mode)
		active++
	}
	return active
}

// Acc returns PE p's accumulator.
func (a *Array) Acc(p int) uint32 { return a.acc[p] }

// Results returns a copy of all PE accumulators.
func (a *Array) Results() []uint32 {
	out := make([]uint32, len(a.acc))
	copy(out, a.acc)
	return out
}
