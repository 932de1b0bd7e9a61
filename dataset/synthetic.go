package dataset

import (
	"fmt"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"helr/core/ckkswrapper"
)

// Synthetic draws rows observations of len(direction) standard normal
// features, labelled 1 when x.direction > 0. Points closer than margin to the
// separating hyperplane are redrawn, so the classes are linearly separable.
func Synthetic(rows int, direction []float64, margin float64, seed uint64) (*Dataset, error) {
	if rows < 1 || len(direction) == 0 {
		return nil, fmt.Errorf("%w: %d rows of %d features", ckkswrapper.ErrDimensionMismatch, rows, len(direction))
	}
	norm := floats.Norm(direction, 2)
	if norm == 0 {
		return nil, fmt.Errorf("zero separating direction")
	}
	normal := distuv.Normal{Mu: 0, Sigma: 1, Src: rand.NewSource(seed)}

	w := len(direction)
	x := mat.NewDense(rows, w, nil)
	y := mat.NewVecDense(rows, nil)
	row := make([]float64, w)
	for i := 0; i < rows; {
		for j := range row {
			row[j] = normal.Rand()
		}
		side := floats.Dot(row, direction) / norm
		if side > -margin && side < margin {
			continue
		}
		x.SetRow(i, row)
		if side > 0 {
			y.SetVec(i, 1)
		}
		i++
	}
	return New(x, y)
}
