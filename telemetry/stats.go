package telemetry

import (
	"sort"

	"gonum.org/v1/gonum/stat"
)

// RunSummary is the end-of-run digest written to summary.json.
type RunSummary struct {
	RunID   string  `json:"run_id"`
	Frames  int     `json:"frames"`
	MeanMS  float64 `json:"mean_ms"`
	P50MS   float64 `json:"p50_ms"`
	P95MS   float64 `json:"p95_ms"`
	P99MS   float64 `json:"p99_ms"`
	MaxMS   float64 `json:"max_ms"`
	SimTime float64 `json:"sim_time"`
}

// FrameTimes accumulates per-frame CPU times for the run summary.
// The zero value is ready to use.
type FrameTimes struct {
	samples []float64
}

// Record adds one frame time in milliseconds.
func (ft *FrameTimes) Record(ms float64) {
	ft.samples = append(ft.samples, ms)
}

// Len reports how many frames have been recorded.
func (ft *FrameTimes) Len() int {
	return len(ft.samples)
}

// Summary computes the run digest. Quantiles are empirical; with no
// samples recorded everything is zero.
func (ft *FrameTimes) Summary(runID string, simTime float64) RunSummary {
	sum := RunSummary{RunID: runID, Frames: len(ft.samples), SimTime: simTime}
	if len(ft.samples) == 0 {
		return sum
	}

	sorted := make([]float64, len(ft.samples))
	copy(sorted, ft.samples)
	sort.Float64s(sorted)

	sum.MeanMS = stat.Mean(sorted, nil)
	sum.P50MS = stat.Quantile(0.50, stat.Empirical, sorted, nil)
	sum.P95MS = stat.Quantile(0.95, stat.Empirical, sorted, nil)
	sum.P99MS = stat.Quantile(0.99, stat.Empirical, sorted, nil)
	sum.MaxMS = sorted[len(sorted)-1]
	return sum
}
