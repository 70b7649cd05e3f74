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

import (
	"math/bits"
	"math/rand/v2"
	"testing"
)

// laneSumReference is a bit-at-a-time reference implementation.
func laneSumReference(w, a, mask uint64, mode PrecisionMode) uint32 {
	if mode == Binary1 {
		var sum uint32
		for i := 0; i < WordBits; i++ {
			wb := w >> i & 1
			ab := a >> i & 1
			mb := mask >> i & 1
			if wb == ab && mb == 1 {
				sum++
			}
		}
		return sum
	}
	width := mode.Width()
	var sum uint32
	for lane := 0; lane < mode.Lanes(); lane++ {
		var wl, al uint32
		for b := 0; b < width; b++ {
			pos := lane*width + b
			wl |= uint32(w>>pos&1) << b
			al |= uint32(a>>pos&1) << b
		}
		sum += wl * al
	}
	return sum
}

// setAllLanes builds a word with every lane holding value.
func setAllLanes(value uint64, mode PrecisionMode) uint64 {
	var w uint64
	width := uint(mode.Width())
	for shift := uint(0); shift < WordBits; shift += width {
		w |= value << shift
	}
	return w
}

func TestLaneSumBinary(t *testing.T) {
	allOnes := ^uint64(0)
	tests := []struct {
		name    string
		w, a, m uint64
		want    uint32
	}{
		{"zero vs zero, full mask", 0, 0, allOnes, 64},
		{"ones vs zero, full mask", allOnes, 0, allOnes, 0},
		{"ones vs ones, full mask", allOnes, allOnes, allOnes, 64},
		{"zero vs zero, empty mask", 0, 0, 0, 0},
		{"alternating agreement", 0xAAAAAAAAAAAAAAAA, 0x5555555555555555, allOnes, 0},
		{"half mask", 0, 0, 0x00000000FFFFFFFF, 32},
		{"single matching bit", 1, 1, 1, 1},
		{"match outside mask", 1, 1, 2, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := LaneSum(tt.w, tt.a, tt.m, Binary1)
			if got != tt.want {
				t.Errorf("LaneSum(%#x, %#x, %#x) = %d, want %d", tt.w, tt.a, tt.m, got, tt.want)
			}
			// XNOR is symmetric in its operands.
			if sym := LaneSum(tt.a, tt.w, tt.m, Binary1); sym != got {
				t.Errorf("LaneSum not symmetric: %d vs %d", got, sym)
			}
		})
	}
}

func TestLaneSumMultiBit(t *testing.T) {
	tests := []struct {
		name string
		mode PrecisionMode
		w, a uint64
		want uint32
	}{
		{"uint2 all 3x2", Uint2, setAllLanes(3, Uint2), setAllLanes(2, Uint2), 32 * 6},
		{"uint4 all 15x8", Uint4, setAllLanes(15, Uint4), setAllLanes(8, Uint4), 16 * 120},
		{"uint8 all 255x128", Uint8, setAllLanes(255, Uint8), setAllLanes(128, Uint8), 8 * 32640},
		{"uint8 single lane", Uint8, 0xFF, 0x02, 510},
		{"uint4 zero weight", Uint4, 0, setAllLanes(9, Uint4), 0},
		{"uint2 worst case", Uint2, setAllLanes(3, Uint2), setAllLanes(3, Uint2), 32 * 9},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Mask must be ignored outside Binary1: pass an empty one.
			got := LaneSum(tt.w, tt.a, 0, tt.mode)
			if got != tt.want {
				t.Errorf("LaneSum(%#x, %#x, %s) = %d, want %d", tt.w, tt.a, tt.mode, got, tt.want)
			}
		})
	}
}

func TestLaneSumMatchesReference(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 13))
	modes := []PrecisionMode{Binary1, Uint2, Uint4, Uint8}
	for _, mode := range modes {
		t.Run(mode.String(), func(t *testing.T) {
			for i := 0; i < 500; i++ {
				w := rng.Uint64()
				a := rng.Uint64()
				mask := rng.Uint64()
				got := LaneSum(w, a, mask, mode)
				want := laneSumReference(w, a, mask, mode)
				if got != want {
					t.Fatalf("LaneSum(%#x, %#x, %#x, %s) = %d, want %d", w, a, mask, mode, got, want)
				}
				if got > mode.MaxLaneSum() {
					t.Fatalf("LaneSum(%s) = %d exceeds MaxLaneSum %d", mode, got, mode.MaxLaneSum())
				}
			}
		})
	}
}

func TestLaneSumPopcountRange(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 5))
	for i := 0; i < 1000; i++ {
		w := rng.Uint64()
		a := rng.Uint64()
		got := LaneSum(w, a, ^uint64(0), Binary1)
		if got > 64 {
			t.Fatalf("binary LaneSum out of range: %d", got)
		}
		if want := uint32(bits.OnesCount64(^(w ^ a))); got != want {
			t.Fatalf("binary LaneSum = %d, want popcount %d", got, want)
		}
	}
}

func BenchmarkLaneSumBinary(b *testing.B) {
	w := uint64(0xDEADBEEFCAFEF00D)
	a := uint64(0x0123456789ABCDEF)
	mask := ^uint64(0)
	var sink uint32
	for i := 0; i < b.N; i++ {
		sink += LaneSum(w, a, mask, Binary1)
	}
	_ = sink
}

func BenchmarkLaneSumUint8(b *testing.B) {
	w := uint64(0xDEADBEEFCAFEF00D)
	a := uint64(0x0123456789ABCDEF)
	var sink uint32
	for i := 0; i < b.N; i++ {
		sink += LaneSum(w, a, 0, Uint8)
	}
	_ = sink
}
