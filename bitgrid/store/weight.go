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

// Package store holds one tile's weight and activation data.
//
// Both stores enforce a two-phase discipline per tile: a load phase (writes
// only) opened with BeginLoad and closed with FinishLoad, followed by a
// compute phase (reads only). Loader and compute never overlap on one tile.
package store

import (
	"errors"
	"fmt"
)

// Columns is the number of columns in one tile.
const Columns = 64

// MaxPacked is the capacity of the per-row packed value array in compressed
// mode, and therefore the exclusive upper bound for valid pointers.
const MaxPacked = 64

// PtrEmpty is the reserved pointer sentinel marking a column with no stored
// weight. It is deliberately far outside the valid packed range so that a
// representation width change can never make it collide with a real index.
const PtrEmpty = ^uint32(0)

var (
	// ErrInvalidPointer reports a compressed-row pointer that is neither the
	// sentinel nor a valid packed index. The tile load must be rejected.
	ErrInvalidPointer = errors.New("store: compressed pointer out of range")
	// ErrDoubleWrite reports a compressed position written more than once.
	ErrDoubleWrite = errors.New("store: compressed entry written twice")
	// ErrLoadIncomplete reports FinishLoad on a compressed tile with
	// positions never written.
	ErrLoadIncomplete = errors.New("store: compressed tile not fully loaded")
	// ErrLoadPhase reports a write outside the load phase.
	ErrLoadPhase = errors.New("store: write outside load phase")
	// ErrLoadMode reports a write that does not match the mode selected at
	// BeginLoad (dense write to a compressed tile or vice versa).
	ErrLoadMode = errors.New("store: write does not match load mode")
	// ErrRowRange reports a row index outside the store.
	ErrRowRange = errors.New("store: row index out of range")
	// ErrColRange reports a column index outside the tile.
	ErrColRange = errors.New("store: column index out of range")
)

// colEntry is the decoded form of one compressed column position: a tagged
// occupied/empty variant instead of a raw sentinel integer.
type colEntry struct {
	occupied bool
	idx      uint32 // index into the row's packed value array
}

type compressedRow struct {
	packed  [MaxPacked]uint64
	entries [Columns]colEntry
	written [Columns]bool
}

// WeightStore holds one row-tile of per-PE weight rows, either dense words or
// compressed rows with packed values. Word is only meaningful during the
// compute phase; reading before FinishLoad returns stale data (documented
// caller responsibility, not checked on the hot path).
type WeightStore struct {
	rows       int
	dense      [][Columns]uint64
	comp       []compressedRow
	compressed bool
	loading    bool
}

// NewWeightStore creates a store for rows weight rows of Columns columns
// each, in the compute phase with all-zero contents.
func NewWeightStore(rows int) *WeightStore {
	return &WeightStore{
		rows:  rows,
		dense: make([][Columns]uint64, rows),
		comp:  make([]compressedRow, rows),
	}
}

// Rows returns the number of weight rows.
func (s *WeightStore) Rows() int { return s.rows }

// Compressed reports whether the current tile was loaded in compressed form.
func (s *WeightStore) Compressed() bool { return s.compressed }

// Loading reports whether the store is in its load phase.
func (s *WeightStore) Loading() bool { return s.loading }

// BeginLoad clears the store and opens the load phase for a new tile.
// The mode (dense or compressed) is fixed for the whole tile.
func (s *WeightStore) BeginLoad(compressed bool) {
	s.compressed = compressed
	s.loading = true
	for r := range s.dense {
		s.dense[r] = [Columns]uint64{}
	}
	for r := range s.comp {
		s.comp[r] = compressedRow{}
	}
}

// SetWord writes one dense weight word. Valid only during a dense load phase.
func (s *WeightStore) SetWord(row, col int, w uint64) error {
	if err := s.checkWrite(row, col, false); err != nil {
		return err
	}
	s.dense[row][col] = w
	return nil
}

// LoadCompressedEntry writes one compressed column position. pointer is
// either PtrEmpty or an index into the row's packed value array; value is
// stored at that index. Every (row, col) position of the tile must be written
// exactly once before FinishLoad.
func (s *WeightStore) LoadCompressedEntry(row, col int, pointer uint32, value uint64) error {
	if err := s.checkWrite(row, col, true); err != nil {
		return err
	}
	cr := &s.comp[row]
	if cr.written[col] {
		return fmt.Errorf("%w: row %d col %d", ErrDoubleWrite, row, col)
	}
	switch {
	case pointer == PtrEmpty:
		cr.entries[col] = colEntry{}
	case pointer < MaxPacked:
		cr.packed[pointer] = value
		cr.entries[col] = colEntry{occupied: true, idx: pointer}
	default:
		return fmt.Errorf("%w: row %d col %d pointer %d", ErrInvalidPointer, row, col, pointer)
	}
	cr.written[col] = true
	return nil
}

// FinishLoad closes the load phase. For compressed tiles every position must
// have been written exactly once; otherwise the tile is rejected and the
// store stays in the load phase.
func (s *WeightStore) FinishLoad() error {
	if s.compressed {
		for r := range s.comp {
			for c, ok := range s.comp[r].written {
				if !ok {
					return fmt.Errorf("%w: row %d col %d", ErrLoadIncomplete, r, c)
				}
			}
		}
	}
	s.loading = false
	return nil
}

// Word returns the dense weight word at (row, col), decoding compressed rows
// on the fly: occupied positions yield their packed value, empty positions
// the all-zero word. Decode is lossless relative to an equivalent dense row.
func (s *WeightStore) Word(row, col int) uint64 {
	if s.compressed {
		e := s.comp[row].entries[col]
		if !e.occupied {
			return 0
		}
		return s.comp[row].packed[e.idx]
	}
	return s.dense[row][col]
}

func (s *WeightStore) checkWrite(row, col int, compressed bool) error {
	if !s.loading {
		return ErrLoadPhase
	}
	if s.compressed != compressed {
		return ErrLoadMode
	}
	if row < 0 || row >= s.rows {
		return fmt.Errorf("%w: %d", ErrRowRange, row)
	}
	if col < 0 || col >= Columns {
		return fmt.Errorf("%w: %d", ErrColRange, col)
	}
	return nil
}
