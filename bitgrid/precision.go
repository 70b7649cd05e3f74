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

// WordBits is the fixed width of a data word.
const WordBits = 64

// PrecisionMode selects how a 64-bit word is partitioned into lanes.
type PrecisionMode uint8

const (
	// Binary1 interprets a word as 64 independent bits (XNOR-popcount mode).
	Binary1 PrecisionMode = iota
	// Uint2 interprets a word as 32 unsigned 2-bit lanes.
	Uint2
	// Uint4 interprets a word as 16 unsigned 4-bit lanes.
	Uint4
	// Uint8 interprets a word as 8 unsigned 8-bit lanes.
	Uint8
)

// ModeFromCode maps a wire-level precision code (0..3) to a PrecisionMode.
// Out-of-range codes deterministically fall back to Binary1 rather than
// producing an undefined mode.
func ModeFromCode(code uint8) PrecisionMode {
	if code > uint8(Uint8) {
		return Binary1
	}
	return PrecisionMode(code)
}

// Width returns the lane width in bits.
func (m PrecisionMode) Width() int {
	switch m {
	case Uint2:
		return 2
	case Uint4:
		return 4
	case Uint8:
		return 8
	default:
		return 1
	}
}

// Lanes returns the number of lanes packed into one word.
func (m PrecisionMode) Lanes() int {
	return WordBits / m.Width()
}

// MaxLaneValue returns the largest value a single lane can hold.
func (m PrecisionMode) MaxLaneValue() uint32 {
	return 1<<m.Width() - 1
}

// MaxLaneSum returns the largest value LaneSum can produce for this mode:
// WordBits in Binary1, Lanes()*MaxLaneValue()² otherwise. Accumulator widths
// are sized from this bound.
func (m PrecisionMode) MaxLaneSum() uint32 {
	if m == Binary1 {
		return WordBits
	}
	maxLane := m.MaxLaneValue()
	return uint32(m.Lanes()) * maxLane * maxLane
}

func (m PrecisionMode) String() string {
	switch m {
	case Binary1:
		return "binary1"
	case Uint2:
		return "uint2"
	case Uint4:
		return "uint4"
	case Uint8:
		return "uint8"
	default:
		return "unknown"
	}
}
