package ckkswrapper

import (
	"github.com/tuneinsight/lattigo/v6/core/rlwe"
	"github.com/tuneinsight/lattigo/v6/schemes/ckks"
)

// Plaintext is a slot vector tagged with the scale it is encoded at. It has
// no level: it is encoded at the level of the ciphertext it is combined with.
type Plaintext struct {
	Values []float64
	Scale  rlwe.Scale
}

// NewPlaintext tags values with scale. Slots past len(values) are zero.
func NewPlaintext(values []float64, scale rlwe.Scale) *Plaintext {
	return &Plaintext{Values: values, Scale: scale}
}

// ConstantPlaintext fills every slot with v at the canonical scale.
func ConstantPlaintext(params ckks.Parameters, v float64) *Plaintext {
	values := make([]float64, params.MaxSlots())
	for i := range values {
		values[i] = v
	}
	return NewPlaintext(values, params.DefaultScale())
}

// OneHot is a canonical-scale mask holding v at slot and zero elsewhere.
func OneHot(params ckks.Parameters, slot int, v float64) *Plaintext {
	values := make([]float64, slot+1)
	values[slot] = v
	return NewPlaintext(values, params.DefaultScale())
}

// Algebra is the ciphertext capability set consumed by the numeric layers.
// Every method returns a fresh ciphertext and never mutates its inputs.
//
// Binary additive operations require equal level and scale and fail with
// ErrLevelMismatch or ErrScaleMismatch otherwise. Mul and MulPlain require
// equal levels and at least one level left; the product scale is the product
// of the input scales until Rescale divides it by the current prime and drops
// one level. Callers snap the drifted scale back with SnapScale.
type Algebra interface {
	Parameters() ckks.Parameters

	// Encrypt returns a fresh ciphertext at the maximum level.
	Encrypt(pt *Plaintext) (*rlwe.Ciphertext, error)

	Add(a, b *rlwe.Ciphertext) (*rlwe.Ciphertext, error)
	AddPlain(ct *rlwe.Ciphertext, pt *Plaintext) (*rlwe.Ciphertext, error)
	Sub(a, b *rlwe.Ciphertext) (*rlwe.Ciphertext, error)
	Negate(ct *rlwe.Ciphertext) (*rlwe.Ciphertext, error)
	// AddMany sums cts, all at one level and scale.
	AddMany(cts []*rlwe.Ciphertext) (*rlwe.Ciphertext, error)

	Mul(a, b *rlwe.Ciphertext) (*rlwe.Ciphertext, error)
	MulPlain(ct *rlwe.Ciphertext, pt *Plaintext) (*rlwe.Ciphertext, error)
	Relinearize(ct *rlwe.Ciphertext) (*rlwe.Ciphertext, error)
	Rescale(ct *rlwe.Ciphertext) (*rlwe.Ciphertext, error)

	// Rotate shifts slots left by k: slot i receives slot i+k.
	Rotate(ct *rlwe.Ciphertext, k int) (*rlwe.Ciphertext, error)
	// ModSwitchTo drops ct to level without rescaling.
	ModSwitchTo(ct *rlwe.Ciphertext, level int) (*rlwe.Ciphertext, error)
	// SnapScale returns a copy of ct tagged with the canonical scale.
	SnapScale(ct *rlwe.Ciphertext) *rlwe.Ciphertext

	// Fork returns an Algebra sharing keys with the receiver that can be
	// used concurrently with it.
	Fork() Algebra
}
