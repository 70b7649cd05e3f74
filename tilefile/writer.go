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
	"io"
)

// Write serializes one tile.
func Write(w io.Writer, t *Tile) error {
	if len(t.Dense) > 0 && len(t.Compressed) > 0 {
		return ErrMixedRows
	}
	bw := bufio.NewWriter(w)

	if _, err := bw.WriteString(Magic); err != nil {
		return err
	}
	header := []any{uint8(Version), uint8(t.Mode), uint16(t.Rows)}
	for _, v := range header {
		if err := binary.Write(bw, binary.LittleEndian, v); err != nil {
			return err
		}
	}

	for _, row := range t.Dense {
		if err := bw.WriteByte(tagDenseRow); err != nil {
			return err
		}
		if err := binary.Write(bw, binary.LittleEndian, uint16(row.Row)); err != nil {
			return err
		}
		if err := binary.Write(bw, binary.LittleEndian, row.Words[:]); err != nil {
			return err
		}
	}

	for _, row := range t.Compressed {
		if err := bw.WriteByte(tagCompressedRow); err != nil {
			return err
		}
		if err := binary.Write(bw, binary.LittleEndian, uint16(row.Row)); err != nil {
			return err
		}
		for _, e := range row.Entries {
			if err := binary.Write(bw, binary.LittleEndian, e.Pointer); err != nil {
				return err
			}
			if err := binary.Write(bw, binary.LittleEndian, e.Value); err != nil {
				return err
			}
		}
	}

	if t.Activations != nil {
		if t.ActScales != nil {
			if err := bw.WriteByte(tagQuantActs); err != nil {
				return err
			}
			for col := range t.Activations {
				if err := binary.Write(bw, binary.LittleEndian, t.ActScales[col].Bits()); err != nil {
					return err
				}
				if err := binary.Write(bw, binary.LittleEndian, t.Activations[col]); err != nil {
					return err
				}
			}
		} else {
			if err := bw.WriteByte(tagActivations); err != nil {
				return err
			}
			if err := binary.Write(bw, binary.LittleEndian, t.Activations[:]); err != nil {
				return err
			}
		}
	}

	if err := bw.WriteByte(tagEnd); err != nil {
		return err
	}
	return bw.Flush()
}
