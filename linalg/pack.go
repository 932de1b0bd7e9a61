package linalg

import (
	"fmt"

	"github.com/tuneinsight/lattigo/v6/core/rlwe"

	"helr/core/ckkswrapper"
)

// PackRotations lists the rotation keys PackRows and UnpackRows need for
// count rows of width n.
func PackRotations(count, n int) []int {
	var rots []int
	for i := 1; i < count; i++ {
		rots = append(rots, -i*n, i*n)
	}
	return rots
}

func checkPacking(alg ckkswrapper.Algebra, count, n int) error {
	if count < 1 || n < 1 || count*n > alg.Parameters().MaxSlots() {
		return fmt.Errorf("%w: %d rows of %d do not fit %d slots", ckkswrapper.ErrDimensionMismatch, count, n, alg.Parameters().MaxSlots())
	}
	return nil
}

// PackRows places rows[i], each holding n values in its first n slots and
// zero elsewhere, into slots [i*n, (i+1)*n) of one ciphertext. Rows must
// share level and scale. Costs no level.
func PackRows(alg ckkswrapper.Algebra, rows []*rlwe.Ciphertext, n int) (*rlwe.Ciphertext, error) {
	if err := checkPacking(alg, len(rows), n); err != nil {
		return nil, err
	}
	shifted, err := Map(alg, len(rows), 1, func(alg ckkswrapper.Algebra, i int) (*rlwe.Ciphertext, error) {
		if i == 0 {
			return rows[0], nil
		}
		return alg.Rotate(rows[i], -i*n)
	})
	if err != nil {
		return nil, err
	}
	return alg.AddMany(shifted)
}

// UnpackRows reverses PackRows: block i is masked out and rotated back to
// the first n slots. Costs one level.
func UnpackRows(alg ckkswrapper.Algebra, packed *rlwe.Ciphertext, count, n int) ([]*rlwe.Ciphertext, error) {
	if err := checkPacking(alg, count, n); err != nil {
		return nil, err
	}
	scale := alg.Parameters().DefaultScale()
	return Map(alg, count, 1, func(alg ckkswrapper.Algebra, i int) (*rlwe.Ciphertext, error) {
		mask := make([]float64, (i+1)*n)
		for j := i * n; j < len(mask); j++ {
			mask[j] = 1
		}
		block, err := ckkswrapper.MulPlainRescale(alg, packed, ckkswrapper.NewPlaintext(mask, scale))
		if err != nil {
			return nil, fmt.Errorf("unpack row %d: %w", i, err)
		}
		if i == 0 {
			return block, nil
		}
		return alg.Rotate(block, i*n)
	})
}
