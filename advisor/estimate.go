package advisor

import (
	"fmt"
	"sync"
	"time"

	"github.com/tuneinsight/lattigo/v6/core/rlwe"

	"helr/core/ckkswrapper"
	"helr/poly"
)

// Plan is the pre-flight summary of one training configuration.
type Plan struct {
	Rows      int
	Weights   int
	Degree    int
	Strategy  poly.Strategy
	MaxLevel  int
	Depth     int
	Rotations []int
	// RotationCount is the number of rotations per iteration.
	RotationCount int
}

// NewPlan validates a configuration against the slot capacity and the depth
// budget of maxLevel and lists what the computing party needs.
func NewPlan(rows, weights, degree int, s poly.Strategy, maxLevel, slots int) (*Plan, error) {
	if rows < 1 || weights < 1 {
		return nil, fmt.Errorf("%w: %d rows and %d weights", ckkswrapper.ErrDimensionMismatch, rows, weights)
	}
	if 2*max(rows, weights) > slots {
		return nil, fmt.Errorf("%w: %d rows and %d weights need %d slots, have %d",
			ckkswrapper.ErrDimensionMismatch, rows, weights, 2*max(rows, weights), slots)
	}
	if err := CheckBudget(maxLevel, s, degree); err != nil {
		return nil, err
	}
	depth, _ := IterationDepth(s, degree)
	return &Plan{
		Rows:          rows,
		Weights:       weights,
		Degree:        degree,
		Strategy:      s,
		MaxLevel:      maxLevel,
		Depth:         depth,
		Rotations:     TrainingRotations(rows, weights),
		RotationCount: RotationsPerIteration(rows, weights),
	}, nil
}

// Headroom is the number of levels left unused by an iteration.
func (p *Plan) Headroom() int {
	return p.MaxLevel - p.Depth
}

// EstimateIteration scales a measured single-rotation time to a full
// iteration. Rotations dominate the cost of the linear steps.
func (p *Plan) EstimateIteration(rotationTime time.Duration) time.Duration {
	return time.Duration(p.RotationCount) * rotationTime
}

// MeasureRotationTime rotates ct by one slot samples times on each of
// workers forked algebras and returns the mean time per rotation.
func MeasureRotationTime(alg ckkswrapper.Algebra, ct *rlwe.Ciphertext, samples, workers int) (time.Duration, error) {
	if samples < 1 || workers < 1 {
		return 0, fmt.Errorf("need at least one sample and one worker")
	}

	var wg sync.WaitGroup
	errs := make([]error, workers)
	start := time.Now()
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func(local ckkswrapper.Algebra, w int) {
			defer wg.Done()
			for i := 0; i < samples; i++ {
				if _, err := local.Rotate(ct, 1); err != nil {
					errs[w] = err
					return
				}
			}
		}(alg.Fork(), w)
	}
	wg.Wait()
	elapsed := time.Since(start)

	for _, err := range errs {
		if err != nil {
			return 0, err
		}
	}
	return elapsed / time.Duration(samples*workers), nil
}
