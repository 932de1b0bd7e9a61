package utils

import (
	"fmt"
	"math"

	"github.com/montanaflynn/stats"
)

// PrecisionStats summarises the absolute error between decrypted values and
// a plaintext reference.
type PrecisionStats struct {
	Mean   float64
	Median float64
	Max    float64
	StdDev float64
	// Bits is -log2(Max), the number of correct fractional bits in the worst slot.
	Bits float64
}

// Precision compares the first len(want) entries of got against want.
func Precision(want, got []float64) (PrecisionStats, error) {
	if len(want) == 0 {
		return PrecisionStats{}, fmt.Errorf("precision: empty reference")
	}
	if len(got) < len(want) {
		return PrecisionStats{}, fmt.Errorf("precision: %d values for %d references", len(got), len(want))
	}
	diffs := make(stats.Float64Data, len(want))
	for i := range want {
		diffs[i] = math.Abs(got[i] - want[i])
	}

	var ps PrecisionStats
	var err error
	if ps.Mean, err = stats.Mean(diffs); err != nil {
		return ps, err
	}
	if ps.Median, err = stats.Median(diffs); err != nil {
		return ps, err
	}
	if ps.Max, err = stats.Max(diffs); err != nil {
		return ps, err
	}
	if ps.StdDev, err = stats.StandardDeviation(diffs); err != nil {
		return ps, err
	}
	ps.Bits = math.Inf(1)
	if ps.Max > 0 {
		ps.Bits = -math.Log2(ps.Max)
	}
	return ps, nil
}

// PrintPrecision prints a one-line summary.
// Respects the Verbose flag.
func PrintPrecision(label string, ps PrecisionStats) {
	if !Verbose {
		return
	}
	fmt.Fprintf(Output, "%s: mean %.3e, median %.3e, max %.3e, std %.3e (%.1f bits)\n",
		label, ps.Mean, ps.Median, ps.Max, ps.StdDev, ps.Bits)
}
