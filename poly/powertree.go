package poly

import (
	"fmt"

	"github.com/tuneinsight/lattigo/v6/core/rlwe"

	"helr/core/ckkswrapper"
)

// PowerPlan is the depth-minimising schedule for x^1..x^d. Index 0 is unused.
type PowerPlan struct {
	Degree int
	// Level[i] is the number of levels consumed to obtain x^i.
	Level []int
	// Split[i] = j means x^i is computed as x^j * x^(i-j). Split[1] = 0.
	Split []int
}

// PlanPowers fills the plan bottom-up: x^i takes the first split j in
// [1, i/2] minimising max(Level[j], Level[i-j]) + 1.
func PlanPowers(d int) (PowerPlan, error) {
	if d < 1 {
		return PowerPlan{}, fmt.Errorf("%w: power degree %d < 1", ckkswrapper.ErrInvalidDegree, d)
	}
	p := PowerPlan{
		Degree: d,
		Level:  make([]int, d+1),
		Split:  make([]int, d+1),
	}
	for i := 2; i <= d; i++ {
		best := -1
		for j := 1; j <= i/2; j++ {
			c := max(p.Level[j], p.Level[i-j]) + 1
			if best < 0 || c < best {
				best = c
				p.Split[i] = j
			}
		}
		p.Level[i] = best
	}
	return p, nil
}

// Depth is the level cost of the highest power.
func (p PowerPlan) Depth() int {
	return p.Level[p.Degree]
}

// PowerTable holds x^1..x^d at index i. It belongs to a single evaluation.
type PowerTable struct {
	Plan   PowerPlan
	Powers []*rlwe.Ciphertext
}

// Consumed returns the levels x^i consumed relative to x.
func (t *PowerTable) Consumed(i int) int {
	return t.Plan.Level[i]
}

// ComputePowers materialises every power of x up to d following PlanPowers.
// Operands are aligned by dropping the higher one before each product.
func ComputePowers(alg ckkswrapper.Algebra, x *rlwe.Ciphertext, d int) (*PowerTable, error) {
	plan, err := PlanPowers(d)
	if err != nil {
		return nil, err
	}
	if x.Level() < plan.Depth() {
		return nil, &ckkswrapper.DepthError{Op: fmt.Sprintf("powers up to %d", d), Need: plan.Depth(), Have: x.Level()}
	}

	t := &PowerTable{Plan: plan, Powers: make([]*rlwe.Ciphertext, d+1)}
	t.Powers[1] = x
	for i := 2; i <= d; i++ {
		j := plan.Split[i]
		pw, err := ckkswrapper.MulRelinRescale(alg, t.Powers[j], t.Powers[i-j])
		if err != nil {
			return nil, fmt.Errorf("x^%d = x^%d * x^%d: %w", i, j, i-j, err)
		}
		t.Powers[i] = pw
	}
	return t, nil
}
