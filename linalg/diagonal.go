package linalg

import (
	"fmt"

	"github.com/tuneinsight/lattigo/v6/core/rlwe"
	"gonum.org/v1/gonum/mat"

	"helr/core/ckkswrapper"
)

// Diagonals returns the generalized diagonals of the square matrix u:
// diag[k][i] = u[i][(i+k) mod n].
func Diagonals(u mat.Matrix) ([][]float64, error) {
	r, c := u.Dims()
	if r != c {
		return nil, fmt.Errorf("%w: diagonal transform needs a square matrix, got %dx%d", ckkswrapper.ErrDimensionMismatch, r, c)
	}
	diags := make([][]float64, r)
	for k := range diags {
		diags[k] = make([]float64, r)
		for i := 0; i < r; i++ {
			diags[k][i] = u.At(i, (i+k)%r)
		}
	}
	return diags, nil
}

// DiagonalRotations lists the rotation keys a diagonal transform of size n needs.
func DiagonalRotations(n int) []int {
	rots := []int{-n}
	for k := 1; k < n; k++ {
		rots = append(rots, k)
	}
	return rots
}

// duplicate returns ct + rot(ct, -n), so that slot i+k for i, k < n reads
// v[(i+k) mod n].
func duplicate(alg ckkswrapper.Algebra, ct *rlwe.Ciphertext, n int) (*rlwe.Ciphertext, error) {
	if err := checkWindow(alg, n); err != nil {
		return nil, err
	}
	shifted, err := alg.Rotate(ct, -n)
	if err != nil {
		return nil, err
	}
	return alg.Add(ct, shifted)
}

// DiagonalTransform computes u*v for a plaintext square matrix u and a
// ciphertext holding v in its first n slots, zero elsewhere. The result holds
// u*v in the first n slots. Costs one level.
func DiagonalTransform(alg ckkswrapper.Algebra, ct *rlwe.Ciphertext, u mat.Matrix) (*rlwe.Ciphertext, error) {
	diags, err := Diagonals(u)
	if err != nil {
		return nil, err
	}
	n := len(diags)
	dup, err := duplicate(alg, ct, n)
	if err != nil {
		return nil, err
	}

	scale := alg.Parameters().DefaultScale()
	terms := make([]*rlwe.Ciphertext, n)
	for k, d := range diags {
		src := dup
		if k > 0 {
			if src, err = alg.Rotate(dup, k); err != nil {
				return nil, err
			}
		}
		if terms[k], err = alg.MulPlain(src, ckkswrapper.NewPlaintext(d, scale)); err != nil {
			return nil, fmt.Errorf("diagonal %d: %w", k, err)
		}
	}
	return Aggregate(alg, terms)
}

// DiagonalTransformEncrypted is DiagonalTransform with the diagonals
// supplied as ciphertexts, diags[k] holding diagonal k in its first n slots.
// The products are summed before a single relinearization and rescale.
// Costs one level.
func DiagonalTransformEncrypted(alg ckkswrapper.Algebra, ct *rlwe.Ciphertext, diags []*rlwe.Ciphertext) (*rlwe.Ciphertext, error) {
	n := len(diags)
	dup, err := duplicate(alg, ct, n)
	if err != nil {
		return nil, err
	}

	terms := make([]*rlwe.Ciphertext, n)
	for k, d := range diags {
		src := dup
		if k > 0 {
			if src, err = alg.Rotate(dup, k); err != nil {
				return nil, err
			}
		}
		a, b, err := ckkswrapper.Align(alg, src, d)
		if err != nil {
			return nil, err
		}
		if terms[k], err = alg.Mul(a, b); err != nil {
			return nil, fmt.Errorf("diagonal %d: %w", k, err)
		}
	}
	return Aggregate(alg, terms)
}
