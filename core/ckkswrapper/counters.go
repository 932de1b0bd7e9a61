package ckkswrapper

import (
	"fmt"
	"sync/atomic"

	"helr/utils"
)

// Counters tracks how many primitive operations a ServerKit and its forks
// executed. Safe for concurrent use.
type Counters struct {
	rotate    atomic.Int64
	mul       atomic.Int64
	relin     atomic.Int64
	rescale   atomic.Int64
	add       atomic.Int64
	modSwitch atomic.Int64
}

// CounterSnapshot is a point-in-time copy of Counters.
type CounterSnapshot struct {
	Rotate    int64
	Mul       int64
	Relin     int64
	Rescale   int64
	Add       int64
	ModSwitch int64
}

// Snapshot returns the current counts.
func (c *Counters) Snapshot() CounterSnapshot {
	return CounterSnapshot{
		Rotate:    c.rotate.Load(),
		Mul:       c.mul.Load(),
		Relin:     c.relin.Load(),
		Rescale:   c.rescale.Load(),
		Add:       c.add.Load(),
		ModSwitch: c.modSwitch.Load(),
	}
}

// Reset zeroes all counters.
func (c *Counters) Reset() {
	c.rotate.Store(0)
	c.mul.Store(0)
	c.relin.Store(0)
	c.rescale.Store(0)
	c.add.Store(0)
	c.modSwitch.Store(0)
}

// Sub returns the per-operation difference s - prev.
func (s CounterSnapshot) Sub(prev CounterSnapshot) CounterSnapshot {
	return CounterSnapshot{
		Rotate:    s.Rotate - prev.Rotate,
		Mul:       s.Mul - prev.Mul,
		Relin:     s.Relin - prev.Relin,
		Rescale:   s.Rescale - prev.Rescale,
		Add:       s.Add - prev.Add,
		ModSwitch: s.ModSwitch - prev.ModSwitch,
	}
}

// PrintCounters prints the current operation counts.
// Respects utils.Verbose flag - does nothing if Verbose is false.
func (c *Counters) PrintCounters(phaseName string) {
	if !utils.Verbose {
		return
	}
	s := c.Snapshot()
	fmt.Fprintf(utils.Output, "=== Phase: %s ===\n", phaseName)
	fmt.Fprintf(utils.Output, "Rotates: %d, Muls: %d, Relins: %d, Rescales: %d, Adds: %d, ModSwitches: %d\n",
		s.Rotate, s.Mul, s.Relin, s.Rescale, s.Add, s.ModSwitch)
}
