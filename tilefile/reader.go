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

package tilefile

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/x448/float16"

	"github.com/ajroetker/go-bitgrid/bitgrid"
	"github.com/ajroetker/go-bitgrid/bitgrid/store"
)

// Read parses one tile. Unknown section tags are an error, not skipped: the
// format carries compute semantics and silent truncation would corrupt them.
func Read(r io.Reader) (*Tile, error) {
	br := bufio.NewReader(r)

	magic := make([]byte, len(Magic))
	if _, err := io.ReadFull(br, magic); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadMagic, err)
	}
	if string(magic) != Magic {
		return nil, fmt.Errorf("%w: %q", ErrBadMagic, magic)
	}

	var version, modeCode uint8
	var rows uint16
	if err := binary.Read(br, binary.LittleEndian, &version); err != nil {
		return nil, err
	}
	if version != Version {
		return nil, fmt.Errorf("%w: %d", ErrBadVersion, version)
	}
	if err := binary.Read(br, binary.LittleEndian, &modeCode); err != nil {
		return nil, err
	}
	if err := binary.Read(br, binary.LittleEndian, &rows); err != nil {
		return nil, err
	}

	t := &Tile{
		Mode: bitgrid.ModeFromCode(modeCode),
		Rows: int(rows),
	}

	for {
		tag, err := br.ReadByte()
		if err != nil {
			return nil, fmt.Errorf("%w: missing end tag", ErrBadSection)
		}
		switch tag {
		case tagDenseRow:
			var row WeightRow
			var idx uint16
			if err := binary.Read(br, binary.LittleEndian, &idx); err != nil {
				return nil, fmt.Errorf("%w: dense row header: %v", ErrBadSection, err)
			}
			row.Row = int(idx)
			if err := binary.Read(br, binary.LittleEndian, row.Words[:]); err != nil {
				return nil, fmt.Errorf("%w: dense row words: %v", ErrBadSection, err)
			}
			t.Dense = append(t.Dense, row)

		case tagCompressedRow:
			var row CompressedRow
			var idx uint16
			if err := binary.Read(br, binary.LittleEndian, &idx); err != nil {
				return nil, fmt.Errorf("%w: compressed row header: %v", ErrBadSection, err)
			}
			row.Row = int(idx)
			for col := range row.Entries {
				e := &row.Entries[col]
				if err := binary.Read(br, binary.LittleEndian, &e.Pointer); err != nil {
					return nil, fmt.Errorf("%w: compressed entry: %v", ErrBadSection, err)
				}
				if err := binary.Read(br, binary.LittleEndian, &e.Value); err != nil {
					return nil, fmt.Errorf("%w: compressed entry: %v", ErrBadSection, err)
				}
			}
			t.Compressed = append(t.Compressed, row)

		case tagActivations:
			var acts [store.Columns]uint64
			if err := binary.Read(br, binary.LittleEndian, acts[:]); err != nil {
				return nil, fmt.Errorf("%w: activations: %v", ErrBadSection, err)
			}
			t.Activations = &acts

		case tagQuantActs:
			var acts [store.Columns]uint64
			var scales [store.Columns]float16.Float16
			for col := range acts {
				var bits uint16
				if err := binary.Read(br, binary.LittleEndian, &bits); err != nil {
					return nil, fmt.Errorf("%w: quantized activations: %v", ErrBadSection, err)
				}
				scales[col] = float16.Frombits(bits)
				if err := binary.Read(br, binary.LittleEndian, &acts[col]); err != nil {
					return nil, fmt.Errorf("%w: quantized activations: %v", ErrBadSection, err)
				}
			}
			t.Activations = &acts
			t.ActScales = &scales

		case tagEnd:
			if len(t.Dense) > 0 && len(t.Compressed) > 0 {
				return nil, ErrMixedRows
			}
			return t, nil

		default:
			return nil, fmt.Errorf("%w: unknown tag %#x", ErrBadSection, tag)
		}
	}
}
