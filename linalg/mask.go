package linalg

import (
	"fmt"

	"github.com/tuneinsight/lattigo/v6/core/rlwe"

	"helr/core/ckkswrapper"
)

// MaskRotations lists the rotation keys needed to select a window of n into
// any of the first count slots.
func MaskRotations(count, n int) []int {
	var rots []int
	for m := 1; m*n < count; m++ {
		rots = append(rots, -m*n)
	}
	return rots
}

// MaskSelect moves the scalar held in the first n slots of dot into slot,
// multiplies it by weight and zeroes every other slot.
//
// DotProduct only guarantees the sum in [0, n), so for slot >= n the window
// is first shifted right by whole multiples of n. The product is left
// unrescaled, at the square of the canonical scale, so selections can be
// summed before a single rescale in Aggregate. The level is unchanged.
func MaskSelect(alg ckkswrapper.Algebra, dot *rlwe.Ciphertext, slot, n int, weight float64) (*rlwe.Ciphertext, error) {
	if n < 1 || slot < 0 || slot >= alg.Parameters().MaxSlots() {
		return nil, fmt.Errorf("%w: slot %d out of range", ckkswrapper.ErrDimensionMismatch, slot)
	}
	src := dot
	if block := slot / n; block > 0 {
		var err error
		if src, err = alg.Rotate(dot, -block*n); err != nil {
			return nil, fmt.Errorf("select slot %d: %w", slot, err)
		}
	}
	return alg.MulPlain(src, ckkswrapper.OneHot(alg.Parameters(), slot, weight))
}

// Aggregate sums masked selections with AddMany, then relinearizes,
// rescales and snaps once. Costs one level.
func Aggregate(alg ckkswrapper.Algebra, masked []*rlwe.Ciphertext) (*rlwe.Ciphertext, error) {
	sum, err := alg.AddMany(masked)
	if err != nil {
		return nil, fmt.Errorf("aggregate: %w", err)
	}
	if sum.Degree() > 1 {
		if sum, err = alg.Relinearize(sum); err != nil {
			return nil, err
		}
	}
	if sum, err = alg.Rescale(sum); err != nil {
		return nil, fmt.Errorf("aggregate: %w", err)
	}
	return alg.SnapScale(sum), nil
}

// SelectRows packs dots[i], each holding its scalar in the first n slots,
// into slot i of one ciphertext scaled by weight. Costs one level.
func SelectRows(alg ckkswrapper.Algebra, dots []*rlwe.Ciphertext, n int, weight float64) (*rlwe.Ciphertext, error) {
	masked := make([]*rlwe.Ciphertext, len(dots))
	for i, d := range dots {
		m, err := MaskSelect(alg, d, i, n, weight)
		if err != nil {
			return nil, err
		}
		masked[i] = m
	}
	return Aggregate(alg, masked)
}
