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

package store

import "fmt"

// ActivationStore holds one column-tile of activation words, one word per
// column, broadcast to every PE row during compute.
type ActivationStore struct {
	words   [Columns]uint64
	loading bool
}

// NewActivationStore creates an all-zero store in the compute phase.
func NewActivationStore() *ActivationStore {
	return &ActivationStore{}
}

// Loading reports whether the store is in its load phase.
func (s *ActivationStore) Loading() bool { return s.loading }

// BeginLoad clears the store and opens the load phase for a new tile.
// Columns left unwritten stay zero.
func (s *ActivationStore) BeginLoad() {
	s.words = [Columns]uint64{}
	s.loading = true
}

// SetWord writes the activation word for one column.
func (s *ActivationStore) SetWord(col int, w uint64) error {
	if !s.loading {
		return ErrLoadPhase
	}
	if col < 0 || col >= Columns {
		return fmt.Errorf("%w: %d", ErrColRange, col)
	}
	s.words[col] = w
	return nil
}

// FinishLoad closes the load phase.
func (s *ActivationStore) FinishLoad() {
	s.loading = false
}

// Word returns the activation word for col, shared by all PE rows.
func (s *ActivationStore) Word(col int) uint64 {
	return s.words[col]
}
