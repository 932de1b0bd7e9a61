package lr

import (
	"fmt"

	"github.com/tuneinsight/lattigo/v6/core/rlwe"

	"helr/core/ckkswrapper"
	"helr/dataset"
)

// EncryptedDataset is the training data as seen by the computing party.
type EncryptedDataset struct {
	Rows     int
	Features int
	// X holds one ciphertext per observation, its features in the first
	// Features slots.
	X []*rlwe.Ciphertext
	// XT holds one ciphertext per feature, its column in the first Rows slots.
	XT []*rlwe.Ciphertext
	// Y holds the labels in the first Rows slots.
	Y *rlwe.Ciphertext
}

// CheckCapacity fails when rows observations of features values cannot be
// reduced within the slot count: every window must fit twice.
func CheckCapacity(rows, features, slots int) error {
	if need := 2 * max(rows, features); need > slots {
		return fmt.Errorf("%w: %d rows of %d features need %d slots, have %d",
			ckkswrapper.ErrDimensionMismatch, rows, features, need, slots)
	}
	return nil
}

// EncryptDataset validates d and encrypts its rows, columns and labels.
// Nothing is encrypted when validation fails.
func EncryptDataset(alg ckkswrapper.Algebra, d *dataset.Dataset) (*EncryptedDataset, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	rows, features := d.Dims()
	params := alg.Parameters()
	if err := CheckCapacity(rows, features, params.MaxSlots()); err != nil {
		return nil, err
	}

	scale := params.DefaultScale()
	enc := func(values []float64) (*rlwe.Ciphertext, error) {
		return alg.Encrypt(ckkswrapper.NewPlaintext(values, scale))
	}

	out := &EncryptedDataset{
		Rows:     rows,
		Features: features,
		X:        make([]*rlwe.Ciphertext, rows),
		XT:       make([]*rlwe.Ciphertext, features),
	}
	var err error
	for i := range out.X {
		if out.X[i], err = enc(d.Row(i)); err != nil {
			return nil, fmt.Errorf("encrypt row %d: %w", i, err)
		}
	}
	for j := range out.XT {
		if out.XT[j], err = enc(d.Column(j)); err != nil {
			return nil, fmt.Errorf("encrypt column %d: %w", j, err)
		}
	}
	if out.Y, err = enc(d.Labels()); err != nil {
		return nil, fmt.Errorf("encrypt labels: %w", err)
	}
	return out, nil
}
