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

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ajroetker/go-bitgrid/bitgrid"
	"github.com/ajroetker/go-bitgrid/bitgrid/control"
	"github.com/ajroetker/go-bitgrid/bitgrid/pe"
	"github.com/ajroetker/go-bitgrid/bitgrid/store"
	"github.com/ajroetker/go-bitgrid/bitgrid/trace"
	"github.com/ajroetker/go-bitgrid/tilefile"
)

func newRunCmd() *cobra.Command {
	var (
		rowTiles  int
		colTiles  int
		sparse    bool
		maxCycles int
		mask      uint64
	)

	cmd := &cobra.Command{
		Use:   "run [tile files, row-major order]",
		Short: "Run one layer pass from tile files",
		Long: `run executes one layer pass. One tile file is consumed per
(row tile, column tile) pair, in row-major order, so the argument count must
equal row-tiles × col-tiles. The precision mode and PE row count come from
the first tile's header; every tile must agree.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) != rowTiles*colTiles {
				return fmt.Errorf("got %d tile files, need row-tiles × col-tiles = %d",
					len(args), rowTiles*colTiles)
			}

			tiles := make([]*tilefile.Tile, len(args))
			for i, path := range args {
				tile, err := readTile(path)
				if err != nil {
					return err
				}
				if i > 0 && (tile.Mode != tiles[0].Mode || tile.Rows != tiles[0].Rows) {
					return fmt.Errorf("%s: header disagrees with %s", path, args[0])
				}
				tiles[i] = tile
			}

			mode := tiles[0].Mode
			ws := store.NewWeightStore(tiles[0].Rows)
			as := store.NewActivationStore()
			arr := pe.New(ws, as, mode)
			arr.SetMask(mask)

			stats := trace.NewStats()
			tc := control.NewTileController(arr, ws, as, sparse, stats)
			lc, err := control.NewLayerController(control.LayerConfig{
				NumRowTiles:      rowTiles,
				NumColTiles:      colTiles,
				SparseScheduling: sparse,
			}, tc, stats)
			if err != nil {
				return err
			}

			load := func(rowTile, colTile int) error {
				return tiles[rowTile*colTiles+colTile].Apply(ws, as)
			}
			if err := lc.Run(load, maxCycles); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "mode: %s  rows: %d  tiles: %d\n", mode, arr.Rows(), lc.TilesDone())
			for ch, v := range lc.Outputs() {
				fmt.Fprintf(out, "channel %3d: %d\n", ch, v)
			}
			fmt.Fprintf(out, "cycles: %d (compute %d, skipped %d, idle %d)\n",
				stats.Cycles(), stats.Count(trace.ClassCompute),
				stats.Count(trace.ClassSkipped), stats.Count(trace.ClassIdle))
			fmt.Fprintf(out, "pe utilization: %.1f%%\n", 100*stats.Utilization(arr.Rows()))
			return nil
		},
	}

	cmd.Flags().IntVar(&rowTiles, "row-tiles", 1, "number of output-channel tiles")
	cmd.Flags().IntVar(&colTiles, "col-tiles", 1, "number of input-column tiles per row tile")
	cmd.Flags().BoolVar(&sparse, "sparse", false, "enable sparse column scheduling")
	cmd.Flags().IntVar(&maxCycles, "max-cycles", 1_000_000, "cycle budget for the layer pass")
	cmd.Flags().Uint64Var(&mask, "mask", ^uint64(0), "validity mask (1-bit mode only)")
	return cmd
}

func readTile(path string) (*tilefile.Tile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	tile, err := tilefile.Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return tile, nil
}

func newInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Print model geometry and tile format constants",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "word width: %d bits\n", bitgrid.WordBits)
			fmt.Fprintf(out, "columns per tile: %d\n", store.Columns)
			fmt.Fprintf(out, "packed values per row: %d\n", store.MaxPacked)
			fmt.Fprintf(out, "sparse threshold: popcount < %d\n", bitgrid.SparseThreshold)
			fmt.Fprintf(out, "tile file: magic %q version %d\n", tilefile.Magic, tilefile.Version)
			fmt.Fprintln(out, "precision modes:")
			for code := uint8(0); code < 4; code++ {
				mode := bitgrid.ModeFromCode(code)
				fmt.Fprintf(out, "  %d: %-8s %2d lanes × %d bits, max lane sum %d\n",
					code, mode, mode.Lanes(), mode.Width(), mode.MaxLaneSum())
			}
		},
	}
}
