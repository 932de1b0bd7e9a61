package lr

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"helr/core/ckkswrapper"
	"helr/dataset"
	"helr/poly"
)

// Activation maps a linear score to a probability.
type Activation func(z float64) float64

// Surrogate returns the polynomial the encrypted trainer evaluates for cfg.
func Surrogate(cfg Config) (Activation, error) {
	p, err := poly.SigmoidOnInput(cfg.Degree)
	if err != nil {
		return nil, err
	}
	return p.Eval, nil
}

// Cost is the mean cross-entropy of weights w on d under the exact sigmoid.
func Cost(d *dataset.Dataset, w []float64) float64 {
	rows, _ := d.Dims()
	theta := mat.NewVecDense(len(w), w)
	const epsilon = 1e-15
	var cost float64
	for i := 0; i < rows; i++ {
		h := poly.Sigmoid(mat.Dot(d.X.RowView(i), theta))
		yi := d.Y.AtVec(i)
		cost += -yi*math.Log(h+epsilon) - (1-yi)*math.Log(1-h+epsilon)
	}
	return cost / float64(rows)
}

// gradient is X^T (act(X w) - y) / R.
func gradient(d *dataset.Dataset, theta *mat.VecDense, act Activation) *mat.VecDense {
	rows, features := d.Dims()
	var z mat.VecDense
	z.MulVec(d.X, theta)
	for i := 0; i < rows; i++ {
		z.SetVec(i, act(z.AtVec(i))-d.Y.AtVec(i))
	}
	grad := mat.NewVecDense(features, nil)
	grad.MulVec(d.X.T(), &z)
	grad.ScaleVec(1/float64(rows), grad)
	return grad
}

// TrainPlain runs the encrypted trainer's algorithm on plaintext data from
// w0, one weight vector per iteration returned in order.
func TrainPlain(d *dataset.Dataset, w0 []float64, cfg Config, act Activation) ([][]float64, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	if _, features := d.Dims(); len(w0) != features {
		return nil, fmt.Errorf("%w: %d weights for %d features", ckkswrapper.ErrDimensionMismatch, len(w0), features)
	}

	theta := mat.NewVecDense(len(w0), append([]float64(nil), w0...))
	history := make([][]float64, 0, cfg.Iterations)
	for it := 0; it < cfg.Iterations; it++ {
		theta.AddScaledVec(theta, -cfg.LearningRate, gradient(d, theta, act))
		history = append(history, mat.Col(nil, 0, theta))
	}
	return history, nil
}
