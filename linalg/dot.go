// Package linalg implements packed-vector linear algebra on CKKS ciphertexts:
// inner products by rotate-and-reduce, one-hot row selection, diagonal
// matrix-vector products and row packing.
package linalg

import (
	"fmt"

	"github.com/tuneinsight/lattigo/v6/core/rlwe"

	"helr/core/ckkswrapper"
)

func checkWindow(alg ckkswrapper.Algebra, n int) error {
	slots := alg.Parameters().MaxSlots()
	if n < 1 || 2*n > slots {
		return fmt.Errorf("%w: window of %d needs 2n <= %d slots", ckkswrapper.ErrDimensionMismatch, n, slots)
	}
	return nil
}

// DotRotations lists the rotation keys DotProduct needs for length n.
func DotRotations(n int) []int {
	if n <= 1 {
		return nil
	}
	return []int{1, -n}
}

// DotProduct computes sum_i a_i*b_i for vectors held in the first n slots of
// a and b, zero elsewhere. Every one of the first n output slots holds the
// full sum. Costs one level.
//
// The product is duplicated into [n, 2n) so that n-1 single-step rotations
// of the duplicate sweep every term past every slot of the first window.
func DotProduct(alg ckkswrapper.Algebra, a, b *rlwe.Ciphertext, n int) (*rlwe.Ciphertext, error) {
	if err := checkWindow(alg, n); err != nil {
		return nil, err
	}
	acc, err := ckkswrapper.MulRelinRescale(alg, a, b)
	if err != nil {
		return nil, fmt.Errorf("dot product: %w", err)
	}
	if n == 1 {
		return acc, nil
	}

	shifted, err := alg.Rotate(acc, -n)
	if err != nil {
		return nil, err
	}
	dup, err := alg.Add(acc, shifted)
	if err != nil {
		return nil, err
	}
	for k := 1; k < n; k++ {
		if dup, err = alg.Rotate(dup, 1); err != nil {
			return nil, err
		}
		if acc, err = alg.Add(acc, dup); err != nil {
			return nil, err
		}
	}
	return acc, nil
}
