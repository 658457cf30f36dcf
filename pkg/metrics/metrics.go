// Package metrics wires the driver's per-compilation measurements
// (phase durations, instruction and cell counts, optimizer rewrites)
// into Prometheus collectors, the way pkg/consensus registers its own
// gauges in the teacher codebase (§A.1, §B of the full spec).
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	phaseDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "byteflow",
			Name:      "phase_duration_seconds",
			Help:      "Wall-clock duration of one compilation phase.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"phase"},
	)

	instructionsEmitted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "byteflow",
			Name:      "instructions_emitted_total",
			Help:      "Tape instructions produced, labeled by pipeline stage.",
		},
		[]string{"stage"},
	)

	cellsHighWater = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "byteflow",
			Name:      "cells_high_water",
			Help:      "Largest number of live tape cells in the most recent compilation.",
		},
	)

	optimizerRewrites = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "byteflow",
			Name:      "optimizer_rewrites_total",
			Help:      "Peephole rewrites applied, labeled by rule.",
		},
		[]string{"rule"},
	)
)

func init() {
	prometheus.MustRegister(phaseDuration, instructionsEmitted, cellsHighWater, optimizerRewrites)
}

// ObservePhase records how long a named pipeline phase took.
func ObservePhase(phase string, seconds float64) {
	phaseDuration.WithLabelValues(phase).Observe(seconds)
}

// RecordInstructions records the instruction count at a pipeline stage
// (e.g. "pre-optimize", "post-optimize", "final").
func RecordInstructions(stage string, count int) {
	instructionsEmitted.WithLabelValues(stage).Add(float64(count))
}

// SetHighWater records the allocator's high-water mark for this compilation.
func SetHighWater(cells int) {
	cellsHighWater.Set(float64(cells))
}

// RecordRewrites records one optimizer rule's rewrite count for this run.
func RecordRewrites(rule string, count int) {
	if count == 0 {
		return
	}
	optimizerRewrites.WithLabelValues(rule).Add(float64(count))
}

// Snapshot is the plain-value summary the CLI's -v flag prints (§C of
// the full spec); it avoids making the CLI reach into Prometheus types
// directly.
type Snapshot struct {
	TokensLexed         int
	ASTNodes            int
	CellsHighWater      int
	InstructionsPreOpt  int
	InstructionsPostOpt int
	InstructionsFinal   int
	Cancellations       int
	ZeroLoopMerges      int
	DeadZeroLoops       int
}
