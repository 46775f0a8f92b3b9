// Tracks per-kernel elapsed times and memory-system counters for final
// reporting at simulation shutdown.

package sim

import (
	"fmt"
	"io"

	"gonum.org/v1/gonum/stat"
)

// Metrics aggregates statistics about the simulation for final reporting.
type Metrics struct {
	KernelTimes []int64 // elapsed ticks per retired kernel, in retirement order

	// ClearTick records when stats were last reset, 0 if never.
	ClearTick int64
}

// NewMetrics creates an empty statistics sink.
func NewMetrics() *Metrics {
	return &Metrics{}
}

// RecordKernelTime appends one kernel's elapsed duration (launch to
// visibility) in ticks.
func (m *Metrics) RecordKernelTime(d int64) {
	m.KernelTimes = append(m.KernelTimes, d)
}

// Clear resets accumulated statistics, recording the tick of the reset.
func (m *Metrics) Clear(now int64) {
	m.KernelTimes = nil
	m.ClearTick = now
}

// TotalKernelTime returns the sum of recorded kernel durations.
func (m *Metrics) TotalKernelTime() int64 {
	var total int64
	for _, t := range m.KernelTimes {
		total += t
	}
	return total
}

// Print writes the end-of-simulation report: per-kernel times, totals, a
// mean/stddev summary, and per-core memory-system counters.
func (m *Metrics) Print(w io.Writer, cores []*ShaderCore) {
	for i, t := range m.KernelTimes {
		fmt.Fprintf(w, "kernel[%d] time = %d\n", i, t)
	}
	fmt.Fprintf(w, "total kernel time = %d\n", m.TotalKernelTime())

	if len(m.KernelTimes) > 0 {
		samples := make([]float64, len(m.KernelTimes))
		for i, t := range m.KernelTimes {
			samples[i] = float64(t)
		}
		mean, std := stat.MeanStdDev(samples, nil)
		fmt.Fprintf(w, "mean kernel time = %.2f\n", mean)
		if len(samples) > 1 {
			fmt.Fprintf(w, "stddev kernel time = %.2f\n", std)
		}
	}

	fmt.Fprintf(w, "\nMemory System:\n")
	fmt.Fprintf(w, "Retries: [")
	for _, sc := range cores {
		fmt.Fprintf(w, "%d ", sc.NumRetry)
	}
	fmt.Fprintf(w, "]\n")
	fmt.Fprintf(w, "Max outstanding: [")
	for _, sc := range cores {
		fmt.Fprintf(w, "%d ", sc.MaxOutstanding)
	}
	fmt.Fprintf(w, "]\n\n")

	if m.ClearTick != 0 {
		fmt.Fprintf(w, "Stats cleared at tick %d\n", m.ClearTick)
	}
}
