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

// Package control implements the tile and layer state machines that drive
// column iteration and persistent output accumulation. One Tick on a
// controller is one logical cycle of the lockstep pipeline.
package control

import (
	"github.com/ajroetker/go-bitgrid/bitgrid/pe"
	"github.com/ajroetker/go-bitgrid/bitgrid/sched"
	"github.com/ajroetker/go-bitgrid/bitgrid/store"
	"github.com/ajroetker/go-bitgrid/bitgrid/trace"
)

// TileState is the tile controller's state.
type TileState uint8

const (
	// StateIdle waits for the start signal with the column index reset.
	StateIdle TileState = iota
	// StateInit spends one cycle clearing PE accumulators and selecting the
	// column sequence for this pass.
	StateInit
	// StateCompute processes one column per cycle in the selected sequence.
	StateCompute
	// StateDone holds the latched tile results until start deasserts.
	StateDone
)

func (s TileState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateInit:
		return "init"
	case StateCompute:
		return "compute"
	case StateDone:
		return "done"
	default:
		return "unknown"
	}
}

// TileController drives one tile pass over the PE array:
// Idle → Init → Compute → Done → Idle. A fully sparse tile (empty active
// column list) still passes through Compute and terminates in Done with all
// results zero. From Done, start must deassert before the controller returns
// to Idle; re-asserting start while in Done never re-enters Init.
type TileController struct {
	arr    *pe.Array
	ws     *store.WeightStore
	as     *store.ActivationStore
	sparse bool
	mon    trace.Monitor

	state   TileState
	start   bool
	cols    []int
	pos     int
	results []uint32
}

// NewTileController creates a controller over the array and its stores.
// With sparse true, Init selects the scheduler's active column list instead
// of the full column range. mon may be nil.
func NewTileController(arr *pe.Array, ws *store.WeightStore, as *store.ActivationStore, sparse bool, mon trace.Monitor) *TileController {
	return &TileController{
		arr:     arr,
		ws:      ws,
		as:      as,
		sparse:  sparse,
		mon:     mon,
		results: make([]uint32, arr.Rows()),
	}
}

// SetStart drives the external start signal.
func (tc *TileController) SetStart(v bool) { tc.start = v }

// State returns the current state.
func (tc *TileController) State() TileState { return tc.state }

// Done reports whether the controller is holding tile results.
func (tc *TileController) Done() bool { return tc.state == StateDone }

// Rows returns the PE count of the underlying array.
func (tc *TileController) Rows() int { return tc.arr.Rows() }

// Results returns the per-PE results latched on the last transition to Done.
// Before the first Done the slice is stale (caller responsibility).
func (tc *TileController) Results() []uint32 {
	out := make([]uint32, len(tc.results))
	copy(out, tc.results)
	return out
}

// Tick advances the state machine by one cycle.
func (tc *TileController) Tick() {
	switch tc.state {
	case StateIdle:
		if tc.start {
			tc.state = StateInit
		}
		tc.record(trace.ClassIdle, 0)

	case StateInit:
		tc.arr.Step(0, false)
		tc.cols = tc.selectColumns()
		tc.pos = 0
		tc.state = StateCompute
		tc.record(trace.ClassIdle, 0)

	case StateCompute:
		if tc.pos >= len(tc.cols) {
			tc.latch()
			tc.record(trace.ClassIdle, 0)
			return
		}
		col := tc.cols[tc.pos]
		active := tc.arr.Step(col, true)
		tc.pos++
		if active > 0 {
			tc.record(trace.ClassCompute, active)
		} else {
			tc.record(trace.ClassSkipped, 0)
		}
		if tc.pos == len(tc.cols) {
			tc.latch()
		}

	case StateDone:
		if !tc.start {
			tc.state = StateIdle
		}
		tc.record(trace.ClassIdle, 0)
	}
}

// selectColumns snapshots the column sequence for this pass. The sparse list
// is rebuilt here, exactly once per tile pass, before any compute cycle.
func (tc *TileController) selectColumns() []int {
	if tc.sparse {
		return sched.ActiveColumns(tc.ws, tc.as)
	}
	cols := make([]int, store.Columns)
	for i := range cols {
		cols[i] = i
	}
	return cols
}

func (tc *TileController) latch() {
	copy(tc.results, tc.arr.Results())
	tc.state = StateDone
}

func (tc *TileController) record(class trace.CycleClass, active int) {
	if tc.mon != nil {
		tc.mon.RecordCycle(class, active)
	}
}
