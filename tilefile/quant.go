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
	"errors"
	"math"

	"github.com/x448/float16"

	"github.com/ajroetker/go-bitgrid/bitgrid"
	"github.com/ajroetker/go-bitgrid/bitgrid/store"
)

// ErrLaneCount reports float input whose length does not match the mode's
// lane count.
var ErrLaneCount = errors.New("tilefile: input length does not match lane count")

// QuantizeWord packs one column of float values into a word for the given
// mode, returning the fp16 dequantization scale.
//
// Binary1 packs sign bits (1 for non-negative) with scale 1.0. Multi-bit
// modes quantize each value onto the unsigned lane range [0, 2^w−1] with
// scale = max/(2^w−1); negative values clamp to zero (the datapath's lanes
// are unsigned). len(vals) must equal mode.Lanes().
func QuantizeWord(vals []float32, mode bitgrid.PrecisionMode) (uint64, float16.Float16, error) {
	if len(vals) != mode.Lanes() {
		return 0, 0, ErrLaneCount
	}

	if mode == bitgrid.Binary1 {
		var word uint64
		for i, v := range vals {
			if v >= 0 {
				word |= 1 << i
			}
		}
		return word, float16.Fromfloat32(1), nil
	}

	var maxVal float32
	for _, v := range vals {
		if v > maxVal {
			maxVal = v
		}
	}
	if maxVal == 0 {
		return 0, float16.Fromfloat32(0), nil
	}

	maxLane := float32(mode.MaxLaneValue())
	scale := maxVal / maxLane
	width := uint(mode.Width())

	var word uint64
	for i, v := range vals {
		if v <= 0 {
			continue
		}
		q := float32(math.Round(float64(v / scale)))
		if q > maxLane {
			q = maxLane
		}
		word |= uint64(q) << (uint(i) * width)
	}
	return word, float16.Fromfloat32(scale), nil
}

// DequantizeWord expands a packed word back to per-lane float values using
// the stored scale. The inverse of QuantizeWord up to quantization error.
func DequantizeWord(word uint64, scale float16.Float16, mode bitgrid.PrecisionMode) []float32 {
	lanes := mode.Lanes()
	width := uint(mode.Width())
	laneMask := uint64(1)<<width - 1
	s := scale.Float32()

	out := make([]float32, lanes)
	for i := 0; i < lanes; i++ {
		q := word >> (uint(i) * width) & laneMask
		out[i] = float32(q) * s
	}
	return out
}

// QuantizeActivations packs a full column tile of float activations,
// mode.Lanes() values per column, store.Columns columns, with one scale per
// column.
func QuantizeActivations(input []float32, mode bitgrid.PrecisionMode) (*[store.Columns]uint64, *[store.Columns]float16.Float16, error) {
	lanes := mode.Lanes()
	if len(input) != lanes*store.Columns {
		return nil, nil, ErrLaneCount
	}
	var words [store.Columns]uint64
	var scales [store.Columns]float16.Float16
	for col := 0; col < store.Columns; col++ {
		w, s, err := QuantizeWord(input[col*lanes:(col+1)*lanes], mode)
		if err != nil {
			return nil, nil, err
		}
		words[col] = w
		scales[col] = s
	}
	return &words, &scales, nil
}
