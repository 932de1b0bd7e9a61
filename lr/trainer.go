// Package lr trains a logistic regression model on encrypted data by
// gradient descent, refreshing the weights through the key holder once per
// iteration.
package lr

import (
	"errors"
	"fmt"
	"time"

	"github.com/tuneinsight/lattigo/v6/core/rlwe"

	"helr/advisor"
	"helr/core/ckkswrapper"
	"helr/dataset"
	"helr/linalg"
	"helr/poly"
	"helr/utils"
)

// State is a step of the training state machine.
type State int

const (
	StateInit State = iota
	StatePredict
	StateLoss
	StateGradient
	StateUpdate
	StateRefresh
	StateDone
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "init"
	case StatePredict:
		return "predict"
	case StateLoss:
		return "loss"
	case StateGradient:
		return "gradient"
	case StateUpdate:
		return "update"
	case StateRefresh:
		return "refresh"
	case StateDone:
		return "done"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// ErrNotLoaded is returned when stepping a trainer that has no data.
var ErrNotLoaded = errors.New("trainer has no dataset loaded")

// Snapshot is a decrypted view of the weights taken for monitoring. It has
// no effect on training.
type Snapshot struct {
	Iteration int
	Weights   []float64
	// Loss is the cross-entropy of Weights on the plaintext training data.
	Loss float64
}

// Trainer sequences Predict, Loss, Gradient, Update and Refresh over an
// encrypted dataset.
type Trainer struct {
	cfg     Config
	alg     ckkswrapper.Algebra
	keys    ckkswrapper.KeyHolder
	sigmoid poly.Approx
	eval    *poly.Evaluator
	depth   int

	plain *dataset.Dataset
	data  *EncryptedDataset

	state     State
	iteration int
	weights   *rlwe.Ciphertext
	pred      *rlwe.Ciphertext
	residual  *rlwe.Ciphertext
	grad      *rlwe.Ciphertext

	snapshots []Snapshot
	stats     utils.TimingStats
}

// NewTrainer validates cfg and checks that one iteration fits the modulus
// chain of alg before anything is encrypted.
func NewTrainer(cfg Config, alg ckkswrapper.Algebra, keys ckkswrapper.KeyHolder) (*Trainer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := advisor.CheckBudget(alg.Parameters().MaxLevel(), cfg.Strategy, cfg.Degree); err != nil {
		return nil, err
	}
	sigmoid, err := poly.SigmoidOnInput(cfg.Degree)
	if err != nil {
		return nil, err
	}
	depth, _ := advisor.IterationDepth(cfg.Strategy, cfg.Degree)
	return &Trainer{
		cfg:     cfg,
		alg:     alg,
		keys:    keys,
		sigmoid: sigmoid,
		eval:    poly.NewEvaluator(alg, cfg.Strategy),
		depth:   depth,
	}, nil
}

// Load encrypts d and fresh weights, moving the trainer to Predict.
func (t *Trainer) Load(d *dataset.Dataset) error {
	if t.state != StateInit {
		return fmt.Errorf("load in state %s", t.state)
	}
	if err := d.Validate(); err != nil {
		return err
	}
	_, features := d.Dims()
	w0, err := t.cfg.InitialWeights(features)
	if err != nil {
		return err
	}

	start := time.Now()
	data, err := EncryptDataset(t.alg, d)
	if err != nil {
		return err
	}
	weights, err := t.alg.Encrypt(ckkswrapper.NewPlaintext(w0, t.alg.Parameters().DefaultScale()))
	if err != nil {
		return fmt.Errorf("encrypt weights: %w", err)
	}
	t.stats.EncryptionTime += time.Since(start)

	t.plain, t.data, t.weights = d, data, weights
	t.state = StatePredict
	return nil
}

func (t *Trainer) State() State {
	return t.state
}

// Iteration is the number of completed iterations.
func (t *Trainer) Iteration() int {
	return t.iteration
}

// Weights returns the current weights ciphertext.
func (t *Trainer) Weights() *rlwe.Ciphertext {
	return t.weights
}

func (t *Trainer) Snapshots() []Snapshot {
	return t.snapshots
}

func (t *Trainer) Stats() *utils.TimingStats {
	return &t.stats
}

// DepthPerIteration is the number of levels consumed between two refreshes.
func (t *Trainer) DepthPerIteration() int {
	return t.depth
}

// Step runs the current state and advances to the next one.
func (t *Trainer) Step() error {
	var (
		err   error
		phase *time.Duration
		next  State
	)
	start := time.Now()
	switch t.state {
	case StateInit:
		return ErrNotLoaded
	case StateDone:
		return nil
	case StatePredict:
		err, phase, next = t.predict(), &t.stats.PredictTime, StateLoss
	case StateLoss:
		err, phase, next = t.loss(), &t.stats.LossTime, StateGradient
	case StateGradient:
		err, phase, next = t.gradient(), &t.stats.GradientTime, StateUpdate
	case StateUpdate:
		err, phase, next = t.update(), &t.stats.UpdateTime, StateRefresh
	case StateRefresh:
		err, phase = t.refresh(), &t.stats.RefreshTime
		next = StatePredict
		if t.iteration >= t.cfg.Iterations {
			next = StateDone
		}
	}
	*phase += time.Since(start)
	if err != nil {
		return fmt.Errorf("iteration %d %s: %w", t.iteration+1, t.state, err)
	}
	t.state = next
	return nil
}

// Run steps until Done and returns the trained weights ciphertext.
func (t *Trainer) Run() (*rlwe.Ciphertext, error) {
	start := time.Now()
	defer func() { t.stats.TotalTime += time.Since(start) }()
	for t.state != StateDone {
		if err := t.Step(); err != nil {
			return nil, err
		}
	}
	return t.weights, nil
}

// selectDots computes the dot product of every vecs[i] with v over a window
// of n and packs the results into slot i, scaled by weight.
func (t *Trainer) selectDots(vecs []*rlwe.Ciphertext, v *rlwe.Ciphertext, n int, weight float64) (*rlwe.Ciphertext, error) {
	masked, err := linalg.Map(t.alg, len(vecs), t.cfg.Workers, func(alg ckkswrapper.Algebra, i int) (*rlwe.Ciphertext, error) {
		dot, err := linalg.DotProduct(alg, vecs[i], v, n)
		if err != nil {
			return nil, err
		}
		return linalg.MaskSelect(alg, dot, i, n, weight)
	})
	if err != nil {
		return nil, err
	}
	return linalg.Aggregate(t.alg, masked)
}

func (t *Trainer) predict() error {
	z, err := t.selectDots(t.data.X, t.weights, t.data.Features, 1)
	if err != nil {
		return err
	}
	t.pred, err = t.eval.Evaluate(z, t.sigmoid)
	return err
}

func (t *Trainer) loss() error {
	labels, err := t.alg.ModSwitchTo(t.data.Y, t.pred.Level())
	if err != nil {
		return err
	}
	t.residual, err = t.alg.Sub(t.pred, labels)
	return err
}

// gradient folds learningRate/R into the selection masks, so the update
// direction costs no level beyond the two of the dot products.
func (t *Trainer) gradient() error {
	step := t.cfg.LearningRate / float64(t.data.Rows)
	var err error
	t.grad, err = t.selectDots(t.data.XT, t.residual, t.data.Rows, step)
	return err
}

func (t *Trainer) update() error {
	w, g, err := ckkswrapper.Align(t.alg, t.weights, t.grad)
	if err != nil {
		return err
	}
	t.weights, err = t.alg.Sub(w, g)
	return err
}

func (t *Trainer) refresh() error {
	fresh, err := t.keys.Refresh(t.weights)
	if err != nil {
		return err
	}
	t.weights = fresh
	t.pred, t.residual, t.grad = nil, nil, nil
	t.iteration++

	if t.cfg.ReportEvery > 0 && t.iteration%t.cfg.ReportEvery == 0 {
		start := time.Now()
		defer func() { t.stats.ReportTime += time.Since(start) }()
		return t.report()
	}
	return nil
}

func (t *Trainer) report() error {
	w, err := t.DecryptWeights()
	if err != nil {
		return err
	}
	s := Snapshot{Iteration: t.iteration, Weights: w, Loss: Cost(t.plain, w)}
	t.snapshots = append(t.snapshots, s)
	if utils.Verbose {
		fmt.Fprintf(utils.Output, "Iteration %d, Cost: %f, Weights: %.5f\n", s.Iteration, s.Loss, s.Weights)
	}
	return nil
}

// DecryptWeights asks the key holder for the current weights.
func (t *Trainer) DecryptWeights() ([]float64, error) {
	if t.data == nil {
		return nil, ErrNotLoaded
	}
	values, err := t.keys.Decrypt(t.weights)
	if err != nil {
		return nil, err
	}
	if len(values) < t.data.Features {
		return nil, fmt.Errorf("%w: decrypted %d slots for %d weights", ckkswrapper.ErrDimensionMismatch, len(values), t.data.Features)
	}
	return values[:t.data.Features:t.data.Features], nil
}
