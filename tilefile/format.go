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

// Package tilefile implements the binary container that feeds tiles into the
// accelerator's load interface.
//
// A file holds one tile: a header (magic, version, precision mode, row
// count) followed by tagged sections, little-endian throughout:
//
//	0x01 dense weight row:       row uint16, 64 × uint64
//	0x02 compressed weight row:  row uint16, 64 × (pointer uint32, value uint64)
//	0x03 activation words:       64 × uint64
//	0x04 quantized activations:  64 × (fp16 scale, uint64 word)
//	0xFF end of file
//
// Quantized activation sections carry per-column fp16 scales alongside the
// packed integer words, so float inputs survive the trip through the integer
// datapath with enough metadata to interpret the outputs.
package tilefile

import (
	"errors"

	"github.com/x448/float16"

	"github.com/ajroetker/go-bitgrid/bitgrid"
	"github.com/ajroetker/go-bitgrid/bitgrid/store"
)

// Magic identifies a bitgrid tile file.
const Magic = "BGT1"

// Version is the current format version.
const Version = 1

const (
	tagDenseRow      = 0x01
	tagCompressedRow = 0x02
	tagActivations   = 0x03
	tagQuantActs     = 0x04
	tagEnd           = 0xFF
)

var (
	// ErrBadMagic reports a file that is not a bitgrid tile file.
	ErrBadMagic = errors.New("tilefile: bad magic")
	// ErrBadVersion reports an unsupported format version.
	ErrBadVersion = errors.New("tilefile: unsupported version")
	// ErrBadSection reports an unknown section tag or a truncated section.
	ErrBadSection = errors.New("tilefile: bad section")
	// ErrMixedRows reports a tile carrying both dense and compressed rows.
	ErrMixedRows = errors.New("tilefile: tile mixes dense and compressed rows")
	// ErrRowCount reports a tile whose rows do not match the target store.
	ErrRowCount = errors.New("tilefile: row count mismatch")
)

// WeightRow is one dense weight row.
type WeightRow struct {
	Row   int
	Words [store.Columns]uint64
}

// CompressedEntry is one compressed column position as it appears on the
// load interface: a packed-array pointer (or store.PtrEmpty) plus the value.
type CompressedEntry struct {
	Pointer uint32
	Value   uint64
}

// CompressedRow is one compressed weight row; entry index is the column.
type CompressedRow struct {
	Row     int
	Entries [store.Columns]CompressedEntry
}

// Tile is the in-memory form of one tile file.
type Tile struct {
	Mode       bitgrid.PrecisionMode
	Rows       int
	Dense      []WeightRow
	Compressed []CompressedRow

	// Activations holds the column activation words, nil if absent.
	Activations *[store.Columns]uint64
	// ActScales holds per-column dequantization scales when the activations
	// were quantized from float data, nil otherwise.
	ActScales *[store.Columns]float16.Float16
}

// Apply drives the store load interfaces with this tile's contents: a full
// BeginLoad/write/FinishLoad cycle on each store. The tile's row count must
// match the weight store.
func (t *Tile) Apply(ws *store.WeightStore, as *store.ActivationStore) error {
	if t.Rows != ws.Rows() {
		return ErrRowCount
	}
	if len(t.Dense) > 0 && len(t.Compressed) > 0 {
		return ErrMixedRows
	}

	compressed := len(t.Compressed) > 0
	ws.BeginLoad(compressed)
	if compressed {
		for _, row := range t.Compressed {
			for col, e := range row.Entries {
				if err := ws.LoadCompressedEntry(row.Row, col, e.Pointer, e.Value); err != nil {
					return err
				}
			}
		}
	} else {
		for _, row := range t.Dense {
			for col, w := range row.Words {
				if err := ws.SetWord(row.Row, col, w); err != nil {
					return err
				}
			}
		}
	}
	if err := ws.FinishLoad(); err != nil {
		return err
	}

	as.BeginLoad()
	if t.Activations != nil {
		for col, w := range t.Activations {
			if err := as.SetWord(col, w); err != nil {
				return err
			}
		}
	}
	as.FinishLoad()
	return nil
}
