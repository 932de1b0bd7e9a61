package poly

import (
	"fmt"
	"math/bits"
	"strings"

	"github.com/tuneinsight/lattigo/v6/core/rlwe"

	"helr/core/ckkswrapper"
)

// Strategy selects how a polynomial is evaluated.
type Strategy int

const (
	// Horner multiplies and accumulates from the leading coefficient down.
	// One level per degree.
	Horner Strategy = iota
	// Tree builds a depth-minimal power table and sums a_i * x^i.
	// ceil(log2 d) + 1 levels.
	Tree
)

func (s Strategy) String() string {
	switch s {
	case Horner:
		return "horner"
	case Tree:
		return "tree"
	}
	return fmt.Sprintf("Strategy(%d)", int(s))
}

// ParseStrategy accepts "horner" or "tree".
func ParseStrategy(name string) (Strategy, error) {
	switch strings.ToLower(name) {
	case "horner":
		return Horner, nil
	case "tree":
		return Tree, nil
	}
	return 0, fmt.Errorf("unknown polynomial strategy %q", name)
}

func ceilLog2(d int) int {
	if d <= 1 {
		return 0
	}
	return bits.Len(uint(d - 1))
}

// Depth is the number of levels evaluating a degree-d polynomial costs.
func Depth(s Strategy, d int) int {
	if s == Tree {
		return ceilLog2(d) + 1
	}
	return d
}

// Evaluator evaluates polynomials with a fixed strategy.
type Evaluator struct {
	alg      ckkswrapper.Algebra
	strategy Strategy
}

// NewEvaluator binds a strategy to an algebra.
func NewEvaluator(alg ckkswrapper.Algebra, strategy Strategy) *Evaluator {
	return &Evaluator{alg: alg, strategy: strategy}
}

func (e *Evaluator) Strategy() Strategy {
	return e.strategy
}

// Depth is the level cost of evaluating p with this evaluator.
func (e *Evaluator) Depth(p Approx) int {
	return Depth(e.strategy, p.Degree)
}

// Evaluate computes p(ct) slot-wise. The result sits Depth(p) levels below
// ct at the canonical scale.
func (e *Evaluator) Evaluate(ct *rlwe.Ciphertext, p Approx) (*rlwe.Ciphertext, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if need := e.Depth(p); ct.Level() < need {
		return nil, &ckkswrapper.DepthError{Op: fmt.Sprintf("%s %s", e.strategy, p.Name), Need: need, Have: ct.Level()}
	}
	switch e.strategy {
	case Tree:
		return e.tree(ct, p)
	case Horner:
		return e.horner(ct, p)
	}
	return nil, fmt.Errorf("unknown polynomial strategy %v", e.strategy)
}

func (e *Evaluator) tree(ct *rlwe.Ciphertext, p Approx) (*rlwe.Ciphertext, error) {
	params := e.alg.Parameters()

	table, err := ComputePowers(e.alg, ct, p.Degree)
	if err != nil {
		return nil, err
	}

	// Every term leaves MulPlainRescale at the canonical scale, so only
	// levels need aligning before the sum.
	terms := make([]*rlwe.Ciphertext, p.Degree)
	minLevel := ct.Level()
	for i := 1; i <= p.Degree; i++ {
		term, err := ckkswrapper.MulPlainRescale(e.alg, table.Powers[i], ckkswrapper.ConstantPlaintext(params, p.Coeffs[i]))
		if err != nil {
			return nil, fmt.Errorf("term %d: %w", i, err)
		}
		terms[i-1] = term
		minLevel = min(minLevel, term.Level())
	}
	for i, term := range terms {
		if terms[i], err = e.alg.ModSwitchTo(term, minLevel); err != nil {
			return nil, err
		}
	}

	sum, err := e.alg.AddMany(terms)
	if err != nil {
		return nil, err
	}
	return e.alg.AddPlain(sum, ckkswrapper.ConstantPlaintext(params, p.Coeffs[0]))
}

func (e *Evaluator) horner(ct *rlwe.Ciphertext, p Approx) (*rlwe.Ciphertext, error) {
	params := e.alg.Parameters()

	acc, err := e.alg.Encrypt(ckkswrapper.ConstantPlaintext(params, p.Coeffs[p.Degree]))
	if err != nil {
		return nil, err
	}
	for i := p.Degree - 1; i >= 0; i-- {
		if acc, err = ckkswrapper.MulRelinRescale(e.alg, acc, ct); err != nil {
			return nil, fmt.Errorf("horner step %d: %w", i, err)
		}
		if acc, err = e.alg.AddPlain(acc, ckkswrapper.ConstantPlaintext(params, p.Coeffs[i])); err != nil {
			return nil, fmt.Errorf("horner step %d: %w", i, err)
		}
	}
	return acc, nil
}
