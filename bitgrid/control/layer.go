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

import (
	"errors"
	"fmt"

	"github.com/ajroetker/go-bitgrid/bitgrid/trace"
)

// ErrCycleBudget reports that Run exhausted its caller-supplied cycle bound
// before the layer completed. The core has no internal timeout; bounding wait
// time on readiness signals is the caller's responsibility.
var ErrCycleBudget = errors.New("control: cycle budget exhausted")

// LayerConfig configures one layer pass.
type LayerConfig struct {
	// NumRowTiles is the number of output-channel tiles.
	NumRowTiles int
	// NumColTiles is the number of input-column tiles per row tile.
	NumColTiles int
	// SparseScheduling selects the active-column list over the full range.
	SparseScheduling bool
	// StartTileID seeds the external tile id counter; the first processed
	// tile reports this id.
	StartTileID int
}

// Validate checks the configuration.
func (c LayerConfig) Validate() error {
	if c.NumRowTiles < 1 {
		return fmt.Errorf("control: NumRowTiles %d, need >= 1", c.NumRowTiles)
	}
	if c.NumColTiles < 1 {
		return fmt.Errorf("control: NumColTiles %d, need >= 1", c.NumColTiles)
	}
	return nil
}

type layerState uint8

const (
	layerIdle layerState = iota
	layerWaitReady
	layerRunTile
	layerDrain
	layerFinished
)

type readyFlags struct {
	weight     bool
	activation bool
}

// LayerController orchestrates row-tile × column-tile iteration: for each
// (rowTile, colTile) it waits for external weight/activation readiness, runs
// one tile pass to completion, and folds the tile results into the persistent
// OutputAccumulator. Channel ranges of distinct row tiles are disjoint; a row
// tile's range resets when the row tile begins and is finalized when its last
// column tile completes.
type LayerController struct {
	cfg LayerConfig
	tc  *TileController
	out *OutputAccumulator
	mon trace.Monitor

	state     layerState
	start     bool
	rowTile   int
	colTile   int
	tilesDone int
	ready     map[[2]int]readyFlags
	finalized []bool
}

// NewLayerController creates a controller driving tc. The output accumulator
// is sized NumRowTiles × tc.Rows() channels. mon may be nil; it receives the
// cycles the layer spends outside tile passes (tile-pass cycles are recorded
// by tc itself).
func NewLayerController(cfg LayerConfig, tc *TileController, mon trace.Monitor) (*LayerController, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &LayerController{
		cfg:       cfg,
		tc:        tc,
		out:       NewOutputAccumulator(cfg.NumRowTiles * tc.Rows()),
		mon:       mon,
		ready:     make(map[[2]int]readyFlags),
		finalized: make([]bool, cfg.NumRowTiles),
	}, nil
}

// SetStart drives the layer_start signal. Deasserting after layer_done
// returns the controller to idle for a fresh layer.
func (lc *LayerController) SetStart(v bool) { lc.start = v }

// SetWeightReady asserts weight readiness for a tile.
func (lc *LayerController) SetWeightReady(rowTile, colTile int) {
	f := lc.ready[[2]int{rowTile, colTile}]
	f.weight = true
	lc.ready[[2]int{rowTile, colTile}] = f
}

// SetActivationReady asserts activation readiness for a tile.
func (lc *LayerController) SetActivationReady(rowTile, colTile int) {
	f := lc.ready[[2]int{rowTile, colTile}]
	f.activation = true
	lc.ready[[2]int{rowTile, colTile}] = f
}

// RowTile returns the current row tile index.
func (lc *LayerController) RowTile() int { return lc.rowTile }

// ColTile returns the current column tile index.
func (lc *LayerController) ColTile() int { return lc.colTile }

// TilesDone returns the completed-tile counter.
func (lc *LayerController) TilesDone() int { return lc.tilesDone }

// TileID returns the external id of the tile being processed (or, after
// completion, of the next tile that would be processed).
func (lc *LayerController) TileID() int { return lc.cfg.StartTileID + lc.tilesDone }

// Done reports layer_done: all row tiles finalized.
func (lc *LayerController) Done() bool { return lc.state == layerFinished }

// Finalized reports whether a row tile's channel range is complete.
func (lc *LayerController) Finalized(rowTile int) bool { return lc.finalized[rowTile] }

// Output returns one channel's persistent accumulator. Channels of row tile
// r occupy [r*rows, (r+1)*rows). Values are meaningful once the channel's
// row tile is finalized.
func (lc *LayerController) Output(ch int) uint64 { return lc.out.Value(ch) }

// Outputs returns a copy of all channel accumulators.
func (lc *LayerController) Outputs() []uint64 { return lc.out.Values() }

// Tick advances the layer by one cycle.
func (lc *LayerController) Tick() {
	switch lc.state {
	case layerIdle:
		if lc.start {
			lc.beginLayer()
			lc.state = layerWaitReady
		}
		lc.record(trace.ClassIdle)

	case layerWaitReady:
		key := [2]int{lc.rowTile, lc.colTile}
		f := lc.ready[key]
		if f.weight && f.activation {
			delete(lc.ready, key)
			lc.tc.SetStart(true)
			lc.state = layerRunTile
		}
		lc.record(trace.ClassIdle)

	case layerRunTile:
		lc.tc.Tick()
		if lc.tc.Done() {
			lc.accumulateTile()
			lc.tilesDone++
			lc.tc.SetStart(false)
			lc.state = layerDrain
		}

	case layerDrain:
		lc.tc.Tick()
		if lc.tc.State() == StateIdle {
			lc.advanceTile()
		}

	case layerFinished:
		if !lc.start {
			lc.state = layerIdle
		}
		lc.record(trace.ClassIdle)
	}
}

// Run drives the layer to completion, at most maxCycles cycles. Whenever a
// tile's readiness is missing, load is invoked once for that tile and both
// readiness signals are asserted; load typically drives the store load
// interfaces. A nil load means readiness is asserted externally.
func (lc *LayerController) Run(load func(rowTile, colTile int) error, maxCycles int) error {
	lc.SetStart(true)
	loaded := map[[2]int]bool{}
	for cycles := 0; !lc.Done(); cycles++ {
		if cycles >= maxCycles {
			return fmt.Errorf("%w: %d cycles", ErrCycleBudget, maxCycles)
		}
		if lc.state == layerWaitReady && load != nil {
			key := [2]int{lc.rowTile, lc.colTile}
			if !loaded[key] {
				if err := load(lc.rowTile, lc.colTile); err != nil {
					return err
				}
				loaded[key] = true
				lc.SetWeightReady(lc.rowTile, lc.colTile)
				lc.SetActivationReady(lc.rowTile, lc.colTile)
			}
		}
		lc.Tick()
	}
	lc.SetStart(false)
	return nil
}

func (lc *LayerController) beginLayer() {
	lc.rowTile = 0
	lc.colTile = 0
	lc.tilesDone = 0
	clear(lc.finalized)
	lc.out.ResetRange(lc.channelBase(0), lc.channelBase(1))
}

// accumulateTile folds latched tile results into this row tile's channels.
// This is the single writer of the output accumulator.
func (lc *LayerController) accumulateTile() {
	base := lc.channelBase(lc.rowTile)
	for p, v := range lc.tc.Results() {
		lc.out.Add(base+p, v)
	}
}

func (lc *LayerController) advanceTile() {
	lc.colTile++
	if lc.colTile < lc.cfg.NumColTiles {
		lc.state = layerWaitReady
		return
	}
	lc.finalized[lc.rowTile] = true
	lc.colTile = 0
	lc.rowTile++
	if lc.rowTile >= lc.cfg.NumRowTiles {
		lc.state = layerFinished
		return
	}
	lc.out.ResetRange(lc.channelBase(lc.rowTile), lc.channelBase(lc.rowTile+1))
	lc.state = layerWaitReady
}

func (lc *LayerController) channelBase(rowTile int) int {
	return rowTile * lc.tc.Rows()
}

func (lc *LayerController) record(class trace.CycleClass) {
	if lc.mon != nil {
		lc.mon.RecordCycle(class, 0)
	}
}
