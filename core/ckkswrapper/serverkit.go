package ckkswrapper

import (
	"fmt"

	"github.com/tuneinsight/lattigo/v6/core/rlwe"
	"github.com/tuneinsight/lattigo/v6/schemes/ckks"
)

// ServerKit is everything the computing party holds: parameters, the public
// encryptor and an evaluator loaded with relinearization and rotation keys.
// It implements Algebra and has no access to the secret key.
type ServerKit struct {
	Params    ckks.Parameters
	Encoder   *ckks.Encoder
	Encryptor *rlwe.Encryptor
	Evaluator *ckks.Evaluator
	Rotations []int

	counters *Counters
}

var _ Algebra = (*ServerKit)(nil)

// GetWorkerEvaluator returns an evaluator with its own buffers.
func (k *ServerKit) GetWorkerEvaluator() *ckks.Evaluator {
	return k.Evaluator.ShallowCopy()
}

// Fork returns a kit with private buffers that shares keys and counters.
func (k *ServerKit) Fork() Algebra {
	return &ServerKit{
		Params:    k.Params,
		Encoder:   k.Encoder.ShallowCopy(),
		Encryptor: k.Encryptor.ShallowCopy(),
		Evaluator: k.GetWorkerEvaluator(),
		Rotations: k.Rotations,
		counters:  k.counters,
	}
}

// Counters exposes the operation counters of the kit and its forks.
func (k *ServerKit) Counters() *Counters {
	return k.counters
}

func (k *ServerKit) Parameters() ckks.Parameters {
	return k.Params
}

func (k *ServerKit) encodeAt(pt *Plaintext, level int) (*rlwe.Plaintext, error) {
	if len(pt.Values) > k.Params.MaxSlots() {
		return nil, fmt.Errorf("%w: %d values exceed %d slots", ErrDimensionMismatch, len(pt.Values), k.Params.MaxSlots())
	}
	out := ckks.NewPlaintext(k.Params, level)
	out.Scale = pt.Scale
	if err := k.Encoder.Encode(pt.Values, out); err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}
	return out, nil
}

func checkAligned(op string, a, b *rlwe.Ciphertext) error {
	if a.Level() != b.Level() {
		return fmt.Errorf("%w: %s of levels %d and %d", ErrLevelMismatch, op, a.Level(), b.Level())
	}
	if a.Scale.Cmp(b.Scale) != 0 {
		return fmt.Errorf("%w: %s of scales %g and %g", ErrScaleMismatch, op, a.Scale.Float64(), b.Scale.Float64())
	}
	return nil
}

func checkDepth(op string, ct *rlwe.Ciphertext) error {
	if ct.Level() < 1 {
		return &DepthError{Op: op, Need: 1, Have: ct.Level()}
	}
	return nil
}

func (k *ServerKit) Encrypt(pt *Plaintext) (*rlwe.Ciphertext, error) {
	encoded, err := k.encodeAt(pt, k.Params.MaxLevel())
	if err != nil {
		return nil, err
	}
	return k.Encryptor.EncryptNew(encoded)
}

func (k *ServerKit) Add(a, b *rlwe.Ciphertext) (*rlwe.Ciphertext, error) {
	if err := checkAligned("add", a, b); err != nil {
		return nil, err
	}
	k.counters.add.Add(1)
	return k.Evaluator.AddNew(a, b)
}

func (k *ServerKit) AddPlain(ct *rlwe.Ciphertext, pt *Plaintext) (*rlwe.Ciphertext, error) {
	if ct.Scale.Cmp(pt.Scale) != 0 {
		return nil, fmt.Errorf("%w: add plaintext of scale %g to %g", ErrScaleMismatch, pt.Scale.Float64(), ct.Scale.Float64())
	}
	encoded, err := k.encodeAt(pt, ct.Level())
	if err != nil {
		return nil, err
	}
	k.counters.add.Add(1)
	return k.Evaluator.AddNew(ct, encoded)
}

func (k *ServerKit) Sub(a, b *rlwe.Ciphertext) (*rlwe.Ciphertext, error) {
	if err := checkAligned("sub", a, b); err != nil {
		return nil, err
	}
	k.counters.add.Add(1)
	return k.Evaluator.SubNew(a, b)
}

// Negate multiplies by the integer -1, which leaves the scale untouched.
func (k *ServerKit) Negate(ct *rlwe.Ciphertext) (*rlwe.Ciphertext, error) {
	k.counters.add.Add(1)
	return k.Evaluator.MulNew(ct, -1)
}

func (k *ServerKit) AddMany(cts []*rlwe.Ciphertext) (*rlwe.Ciphertext, error) {
	if len(cts) == 0 {
		return nil, fmt.Errorf("add many: no operands")
	}
	for _, ct := range cts[1:] {
		if err := checkAligned("add many", cts[0], ct); err != nil {
			return nil, err
		}
	}
	acc := cts[0].CopyNew()
	for _, ct := range cts[1:] {
		if err := k.Evaluator.Add(acc, ct, acc); err != nil {
			return nil, err
		}
		k.counters.add.Add(1)
	}
	return acc, nil
}

func (k *ServerKit) Mul(a, b *rlwe.Ciphertext) (*rlwe.Ciphertext, error) {
	if a.Level() != b.Level() {
		return nil, fmt.Errorf("%w: mul of levels %d and %d", ErrLevelMismatch, a.Level(), b.Level())
	}
	if err := checkDepth("mul", a); err != nil {
		return nil, err
	}
	k.counters.mul.Add(1)
	return k.Evaluator.MulNew(a, b)
}

func (k *ServerKit) MulPlain(ct *rlwe.Ciphertext, pt *Plaintext) (*rlwe.Ciphertext, error) {
	if err := checkDepth("mul plaintext", ct); err != nil {
		return nil, err
	}
	encoded, err := k.encodeAt(pt, ct.Level())
	if err != nil {
		return nil, err
	}
	k.counters.mul.Add(1)
	return k.Evaluator.MulNew(ct, encoded)
}

func (k *ServerKit) Relinearize(ct *rlwe.Ciphertext) (*rlwe.Ciphertext, error) {
	k.counters.relin.Add(1)
	return k.Evaluator.RelinearizeNew(ct)
}

func (k *ServerKit) Rescale(ct *rlwe.Ciphertext) (*rlwe.Ciphertext, error) {
	if err := checkDepth("rescale", ct); err != nil {
		return nil, err
	}
	out := ckks.NewCiphertext(k.Params, ct.Degree(), ct.Level()-1)
	if err := k.Evaluator.Rescale(ct, out); err != nil {
		return nil, err
	}
	k.counters.rescale.Add(1)
	return out, nil
}

func (k *ServerKit) Rotate(ct *rlwe.Ciphertext, steps int) (*rlwe.Ciphertext, error) {
	k.counters.rotate.Add(1)
	out, err := k.Evaluator.RotateNew(ct, steps)
	if err != nil {
		return nil, fmt.Errorf("rotate by %d: %w", steps, err)
	}
	return out, nil
}

func (k *ServerKit) ModSwitchTo(ct *rlwe.Ciphertext, level int) (*rlwe.Ciphertext, error) {
	if level < 0 || level > ct.Level() {
		return nil, fmt.Errorf("%w: cannot switch level %d to %d", ErrLevelMismatch, ct.Level(), level)
	}
	if level == ct.Level() {
		return ct.CopyNew(), nil
	}
	k.counters.modSwitch.Add(1)
	return k.Evaluator.DropLevelNew(ct, ct.Level()-level), nil
}

func (k *ServerKit) SnapScale(ct *rlwe.Ciphertext) *rlwe.Ciphertext {
	out := ct.CopyNew()
	out.Scale = k.Params.DefaultScale()
	return out
}
