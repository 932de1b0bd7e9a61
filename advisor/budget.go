// Package advisor plans the resources of an encrypted training run before any
// data is encrypted: the levels one iteration consumes, the rotation keys the
// computing party needs and a wall-clock estimate built on measured rotations.
package advisor

import (
	"fmt"
	"slices"

	"helr/core/ckkswrapper"
	"helr/linalg"
	"helr/poly"
)

// Levels spent per iteration outside the sigmoid: the Predict dot product
// and its selection, then the Gradient dot product and its selection.
const linearDepth = 4

// SigmoidDepth is the level cost of the degree-d surrogate under strategy s.
func SigmoidDepth(s poly.Strategy, d int) (int, error) {
	if !slices.Contains(poly.SupportedDegrees, d) {
		return 0, fmt.Errorf("%w: %d (supported %v)", ckkswrapper.ErrInvalidDegree, d, poly.SupportedDegrees)
	}
	return poly.Depth(s, d), nil
}

// IterationDepth is the number of levels one Predict, Loss, Gradient, Update
// pass consumes between two refreshes.
func IterationDepth(s poly.Strategy, d int) (int, error) {
	sd, err := SigmoidDepth(s, d)
	if err != nil {
		return 0, err
	}
	return linearDepth + sd, nil
}

// CheckBudget fails with a DepthError when a fresh ciphertext at maxLevel
// cannot carry one full iteration.
func CheckBudget(maxLevel int, s poly.Strategy, d int) error {
	need, err := IterationDepth(s, d)
	if err != nil {
		return err
	}
	if maxLevel < need {
		return &ckkswrapper.DepthError{Op: fmt.Sprintf("training iteration (%s, degree %d)", s, d), Need: need, Have: maxLevel}
	}
	return nil
}

// TrainingRotations lists every rotation key an iteration over rows
// observations and weights features uses, sorted and without duplicates.
func TrainingRotations(rows, weights int) []int {
	var rots []int
	rots = append(rots, linalg.DotRotations(weights)...)
	rots = append(rots, linalg.MaskRotations(rows, weights)...)
	rots = append(rots, linalg.DotRotations(rows)...)
	rots = append(rots, linalg.MaskRotations(weights, rows)...)
	slices.Sort(rots)
	return slices.Compact(rots)
}

func dotRotationCount(n int) int {
	if n <= 1 {
		return 0
	}
	return n
}

func maskRotationCount(count, n int) int {
	if count <= n {
		return 0
	}
	return count - n
}

// RotationsPerIteration counts the rotations one iteration performs.
func RotationsPerIteration(rows, weights int) int {
	predict := rows*dotRotationCount(weights) + maskRotationCount(rows, weights)
	gradient := weights*dotRotationCount(rows) + maskRotationCount(weights, rows)
	return predict + gradient
}
