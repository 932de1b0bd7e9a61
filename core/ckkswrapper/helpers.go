package ckkswrapper

import (
	"github.com/tuneinsight/lattigo/v6/core/rlwe"
)

// Align brings a and b to the lower of their two levels. The operand that is
// already there is returned as is.
func Align(alg Algebra, a, b *rlwe.Ciphertext) (*rlwe.Ciphertext, *rlwe.Ciphertext, error) {
	var err error
	switch {
	case a.Level() > b.Level():
		a, err = alg.ModSwitchTo(a, b.Level())
	case b.Level() > a.Level():
		b, err = alg.ModSwitchTo(b, a.Level())
	}
	if err != nil {
		return nil, nil, err
	}
	return a, b, nil
}

// MulRelinRescale multiplies two ciphertexts after aligning their levels,
// then relinearizes, rescales and snaps the scale. Costs one level.
func MulRelinRescale(alg Algebra, a, b *rlwe.Ciphertext) (*rlwe.Ciphertext, error) {
	a, b, err := Align(alg, a, b)
	if err != nil {
		return nil, err
	}
	prod, err := alg.Mul(a, b)
	if err != nil {
		return nil, err
	}
	if prod, err = alg.Relinearize(prod); err != nil {
		return nil, err
	}
	if prod, err = alg.Rescale(prod); err != nil {
		return nil, err
	}
	return alg.SnapScale(prod), nil
}

// MulPlainRescale multiplies by a plaintext encoded at ct's level, rescales
// and snaps the scale. Costs one level.
func MulPlainRescale(alg Algebra, ct *rlwe.Ciphertext, pt *Plaintext) (*rlwe.Ciphertext, error) {
	prod, err := alg.MulPlain(ct, pt)
	if err != nil {
		return nil, err
	}
	if prod, err = alg.Rescale(prod); err != nil {
		return nil, err
	}
	return alg.SnapScale(prod), nil
}
