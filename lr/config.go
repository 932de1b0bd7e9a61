package lr

import (
	"fmt"
	"slices"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"

	"helr/core/ckkswrapper"
	"helr/poly"
)

// Config holds the hyperparameters of one training run.
type Config struct {
	LearningRate float64
	Iterations   int
	// Degree selects the sigmoid surrogate, one of poly.SupportedDegrees.
	Degree   int
	Strategy poly.Strategy
	// ReportEvery decrypts a weight snapshot every that many iterations.
	// Zero disables snapshots.
	ReportEvery int
	// Workers bounds the goroutines computing per-row dot products.
	Workers int
	// Seed drives the Uniform(-2, 2) weight initialisation.
	Seed uint64
	// InitWeights overrides the random initialisation when set.
	InitWeights []float64
}

// DefaultConfig returns degree 3 with Horner, 10 iterations at rate 0.1 and
// a report every 5 iterations.
func DefaultConfig() Config {
	return Config{
		LearningRate: 0.1,
		Iterations:   10,
		Degree:       3,
		Strategy:     poly.Horner,
		ReportEvery:  5,
		Workers:      1,
		Seed:         1,
	}
}

func (c Config) Validate() error {
	if c.LearningRate <= 0 {
		return fmt.Errorf("learning rate must be positive, got %g", c.LearningRate)
	}
	if c.Iterations < 1 {
		return fmt.Errorf("iterations must be at least 1, got %d", c.Iterations)
	}
	if !slices.Contains(poly.SupportedDegrees, c.Degree) {
		return fmt.Errorf("%w: %d (supported %v)", ckkswrapper.ErrInvalidDegree, c.Degree, poly.SupportedDegrees)
	}
	if c.Strategy != poly.Horner && c.Strategy != poly.Tree {
		return fmt.Errorf("unknown strategy %v", c.Strategy)
	}
	if c.ReportEvery < 0 {
		return fmt.Errorf("report interval must not be negative, got %d", c.ReportEvery)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", c.Workers)
	}
	return nil
}

// InitialWeights returns InitWeights when set, otherwise n draws from
// Uniform(-2, 2) seeded by Seed.
func (c Config) InitialWeights(n int) ([]float64, error) {
	if c.InitWeights != nil {
		if len(c.InitWeights) != n {
			return nil, fmt.Errorf("%w: %d initial weights for %d features", ckkswrapper.ErrDimensionMismatch, len(c.InitWeights), n)
		}
		return slices.Clone(c.InitWeights), nil
	}
	dist := distuv.Uniform{Min: -2, Max: 2, Src: rand.NewSource(c.Seed)}
	w := make([]float64, n)
	for i := range w {
		w[i] = dist.Rand()
	}
	return w, nil
}
