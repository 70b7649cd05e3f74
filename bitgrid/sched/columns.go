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

// Package sched derives the sparse column schedule for one tile.
package sched

import "github.com/ajroetker/go-bitgrid/bitgrid/store"

// ActiveColumns returns the ordered list of column indices worth visiting for
// the current tile: columns where at least one PE row's weight word is
// non-zero or the shared activation word is non-zero (an OR-reduction across
// rows). The list is a pure view over the tile snapshot, strictly increasing,
// and idempotent: rebuilding against unchanged stores yields an identical
// list. Iterating only this list never changes accumulated results, since
// every excluded column contributes zero to every PE.
func ActiveColumns(ws *store.WeightStore, as *store.ActivationStore) []int {
	cols := make([]int, 0, store.Columns)
	for col := 0; col < store.Columns; col++ {
		if columnActive(ws, as, col) {
			cols = append(cols, col)
		}
	}
	return cols
}

func columnActive(ws *store.WeightStore, as *store.ActivationStore, col int) bool {
	if as.Word(col) != 0 {
		return true
	}
	for row := 0; row < ws.Rows(); row++ {
		if ws.Word(row, col) != 0 {
			return true
		}
	}
	return false
}
