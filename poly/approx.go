// Package poly evaluates low-degree polynomial surrogates on CKKS ciphertexts.
package poly

import (
	"fmt"
	"math"

	"helr/core/ckkswrapper"
)

// Approx is the polynomial a_0 + a_1 x + ... + a_d x^d, declared valid on
// the input domain [Lo, Hi].
type Approx struct {
	Name   string
	Degree int
	Coeffs []float64
	Lo, Hi float64
}

// SupportedDegrees lists the degrees with a sigmoid preset.
var SupportedDegrees = []int{3, 5, 7}

// Sigmoid surrogates on u = x/8, u in [-1, 1].
var sigmoidCoeffs = map[int][]float64{
	3: {0.5, 1.20069, 0.00001, -0.81562},
	5: {0.5, 1.53048, 0.00001, -2.3533056, 0.00001, 1.3511295},
	7: {0.5, 1.73496, 0.00001, -4.19407, 0.00001, 5.43402, 0.00001, -2.50739},
}

// SigmoidInputScale is the factor applied to x before the presets: they
// approximate sigma(x) as p(x * SigmoidInputScale).
const SigmoidInputScale = 1.0 / 8

// SigmoidPreset returns the surrogate of the given degree in the u = x/8
// domain.
func SigmoidPreset(degree int) (Approx, error) {
	c, ok := sigmoidCoeffs[degree]
	if !ok {
		return Approx{}, fmt.Errorf("%w: no sigmoid preset of degree %d (supported %v)", ckkswrapper.ErrInvalidDegree, degree, SupportedDegrees)
	}
	return Approx{
		Name:   fmt.Sprintf("sigmoid%d", degree),
		Degree: degree,
		Coeffs: append([]float64(nil), c...),
		Lo:     -1,
		Hi:     1,
	}, nil
}

// SigmoidOnInput returns the preset folded so it takes x directly:
// coefficient i is divided by 8^i and the domain widens to [-8, 8].
// Folding is free in depth.
func SigmoidOnInput(degree int) (Approx, error) {
	a, err := SigmoidPreset(degree)
	if err != nil {
		return Approx{}, err
	}
	return a.Rescaled(SigmoidInputScale), nil
}

// Validate checks that the degree is supported and the table has d+1 entries.
func (a Approx) Validate() error {
	supported := false
	for _, d := range SupportedDegrees {
		if a.Degree == d {
			supported = true
		}
	}
	if !supported {
		return fmt.Errorf("%w: degree %d not in %v", ckkswrapper.ErrInvalidDegree, a.Degree, SupportedDegrees)
	}
	if len(a.Coeffs) != a.Degree+1 {
		return fmt.Errorf("%w: degree %d needs %d coefficients, got %d", ckkswrapper.ErrInvalidDegree, a.Degree, a.Degree+1, len(a.Coeffs))
	}
	return nil
}

// Rescaled returns q(x) = p(f*x): coefficient i is multiplied by f^i and
// the domain is divided by f.
func (a Approx) Rescaled(f float64) Approx {
	out := a
	out.Name = fmt.Sprintf("%s(%gx)", a.Name, f)
	out.Coeffs = make([]float64, len(a.Coeffs))
	p := 1.0
	for i, c := range a.Coeffs {
		out.Coeffs[i] = c * p
		p *= f
	}
	out.Lo, out.Hi = a.Lo/f, a.Hi/f
	if out.Lo > out.Hi {
		out.Lo, out.Hi = out.Hi, out.Lo
	}
	return out
}

// Eval evaluates the polynomial in plaintext.
func (a Approx) Eval(x float64) float64 {
	acc := 0.0
	for i := len(a.Coeffs) - 1; i >= 0; i-- {
		acc = acc*x + a.Coeffs[i]
	}
	return acc
}

// InDomain reports whether x lies in the declared domain.
func (a Approx) InDomain(x float64) bool {
	return x >= a.Lo && x <= a.Hi
}

// Sigmoid is the exact logistic function.
func Sigmoid(z float64) float64 {
	return 1.0 / (1.0 + math.Exp(-z))
}
