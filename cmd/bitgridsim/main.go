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

// Command bitgridsim loads tile files and runs layer passes on the bitgrid
// accelerator model.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:   "bitgridsim",
		Short: "Tiled binary/multi-precision accelerator simulator",
		Long: `bitgridsim drives the bitgrid accelerator model: it loads weight and
activation tiles from tile files, runs a layer pass to completion, and
reports per-channel outputs and utilization.`,
		SilenceUsage: true,
	}
	root.AddCommand(newRunCmd(), newInfoCmd())
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
