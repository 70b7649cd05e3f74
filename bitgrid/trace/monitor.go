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

// Package trace aggregates per-cycle activity reported by the controllers.
// It consumes core signals only and has no effect on results.
package trace

import "github.com/samber/lo"

// CycleClass labels what one logical cycle spent its time on.
type CycleClass uint8

const (
	// ClassCompute is a cycle where at least one PE accumulated a lane sum.
	ClassCompute CycleClass = iota
	// ClassSkipped is a compute-phase cycle where every PE skipped.
	ClassSkipped
	// ClassIdle is a cycle outside the compute phase (waiting, init, done).
	ClassIdle
)

func (c CycleClass) String() string {
	switch c {
	case ClassCompute:
		return "compute"
	case ClassSkipped:
		return "skipped"
	default:
		return "idle"
	}
}

// Monitor receives one record per logical cycle. Implementations must not
// mutate core state. A nil Monitor disables tracing.
type Monitor interface {
	RecordCycle(class CycleClass, activePEs int)
}

type cycleRecord struct {
	class  CycleClass
	active int
}

// Stats is a Monitor that retains every cycle record for aggregation.
type Stats struct {
	recs []cycleRecord
}

// NewStats creates an empty collector.
func NewStats() *Stats { return &Stats{} }

// RecordCycle implements Monitor.
func (s *Stats) RecordCycle(class CycleClass, activePEs int) {
	s.recs = append(s.recs, cycleRecord{class: class, active: activePEs})
}

// Reset discards all recorded cycles.
func (s *Stats) Reset() { s.recs = s.recs[:0] }

// Cycles returns the total number of recorded cycles.
func (s *Stats) Cycles() int { return len(s.recs) }

// Count returns the number of cycles with the given class.
func (s *Stats) Count(class CycleClass) int {
	return lo.CountBy(s.recs, func(r cycleRecord) bool { return r.class == class })
}

// ActivePETotal returns the sum of active PE counts across all cycles.
func (s *Stats) ActivePETotal() int {
	return lo.SumBy(s.recs, func(r cycleRecord) int { return r.active })
}

// Utilization returns the fraction of PE-cycles that did useful work, given
// the array's PE count: ActivePETotal / (Cycles × rows). Zero when nothing
// was recorded.
func (s *Stats) Utilization(rows int) float64 {
	if len(s.recs) == 0 || rows <= 0 {
		return 0
	}
	return float64(s.ActivePETotal()) / float64(len(s.recs)*rows)
}
