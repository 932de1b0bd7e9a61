package utils

import (
	"fmt"
	"io"
	"os"
	"time"
)

// Verbose controls whether progress and timing statistics are printed.
// Set to false to suppress output.
var Verbose = true

// Output is the writer where progress and statistics are printed.
// Defaults to os.Stdout.
var Output io.Writer = os.Stdout

// TimingStats holds wall-clock time spent in each training phase.
type TimingStats struct {
	TotalTime       time.Duration
	DataLoadingTime time.Duration
	HEInitTime      time.Duration
	EncryptionTime  time.Duration
	PredictTime     time.Duration
	LossTime        time.Duration
	GradientTime    time.Duration
	UpdateTime      time.Duration
	RefreshTime     time.Duration
	ReportTime      time.Duration
}

// IterationTime is the time spent inside the Predict to Refresh cycle.
func (s *TimingStats) IterationTime() time.Duration {
	return s.PredictTime + s.LossTime + s.GradientTime + s.UpdateTime + s.RefreshTime
}

func share(part, whole time.Duration) float64 {
	if whole == 0 {
		return 0
	}
	return float64(part) / float64(whole) * 100
}

// PrintTimingStats prints detailed timing statistics.
// Respects the Verbose flag - does nothing if Verbose is false.
func PrintTimingStats(stats *TimingStats, iterations int) {
	if !Verbose {
		return
	}
	if iterations <= 0 {
		iterations = 1
	}
	fmt.Fprintln(Output, "\n=== TIMING STATISTICS ===")
	fmt.Fprintf(Output, "Total training time: %v\n", stats.TotalTime)
	fmt.Fprintf(Output, "Average time per iteration: %v\n", stats.IterationTime()/time.Duration(iterations))
	fmt.Fprintf(Output, "Iterations completed: %d\n", iterations)
	fmt.Fprintln(Output, "\nBreakdown by operation:")
	fmt.Fprintf(Output, "  Data loading: %v (%.1f%%)\n", stats.DataLoadingTime, share(stats.DataLoadingTime, stats.TotalTime))
	fmt.Fprintf(Output, "  HE initialization: %v (%.1f%%)\n", stats.HEInitTime, share(stats.HEInitTime, stats.TotalTime))
	fmt.Fprintf(Output, "  Encryption: %v (%.1f%%)\n", stats.EncryptionTime, share(stats.EncryptionTime, stats.TotalTime))
	fmt.Fprintf(Output, "  Reporting: %v (%.1f%%)\n", stats.ReportTime, share(stats.ReportTime, stats.TotalTime))
	fmt.Fprintln(Output, "\nIteration breakdown:")
	it := stats.IterationTime()
	fmt.Fprintf(Output, "  Predict: %v (%.1f%% of iteration)\n", stats.PredictTime, share(stats.PredictTime, it))
	fmt.Fprintf(Output, "  Loss: %v (%.1f%% of iteration)\n", stats.LossTime, share(stats.LossTime, it))
	fmt.Fprintf(Output, "  Gradient: %v (%.1f%% of iteration)\n", stats.GradientTime, share(stats.GradientTime, it))
	fmt.Fprintf(Output, "  Update: %v (%.1f%% of iteration)\n", stats.UpdateTime, share(stats.UpdateTime, it))
	fmt.Fprintf(Output, "  Refresh: %v (%.1f%% of iteration)\n", stats.RefreshTime, share(stats.RefreshTime, it))
}

// DurationUS converts any time.Duration to micro-seconds as float64
func DurationUS(d time.Duration) float64 {
	return float64(d.Nanoseconds()) / 1_000.0
}
