package ckkswrapper

import (
	"fmt"

	"github.com/tuneinsight/lattigo/v6/core/rlwe"
	"github.com/tuneinsight/lattigo/v6/schemes/ckks"
)

// KeyHolder is the party that owns the secret key. Training cannot advance
// past an iteration boundary without its cooperation: Refresh is the only way
// a ciphertext regains levels, and it reveals the refreshed values to the
// key holder.
type KeyHolder interface {
	// Refresh decrypts ct and re-encrypts it at the maximum level and the
	// canonical scale.
	Refresh(ct *rlwe.Ciphertext) (*rlwe.Ciphertext, error)
	// Decrypt returns the real parts of every slot of ct.
	Decrypt(ct *rlwe.Ciphertext) ([]float64, error)
}

var _ KeyHolder = (*HeContext)(nil)

// Refresh resets a ciphertext's level by decrypting and re-encrypting it.
// It stands in for bootstrapping and requires the secret key.
func (h *HeContext) Refresh(ct *rlwe.Ciphertext) (*rlwe.Ciphertext, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	values, err := h.decode(ct)
	if err != nil {
		return nil, err
	}

	pt := ckks.NewPlaintext(h.Params, h.Params.MaxLevel())
	if err := h.Encoder.Encode(values, pt); err != nil {
		return nil, fmt.Errorf("refresh: %w", err)
	}
	return h.Encryptor.EncryptNew(pt)
}

// Decrypt decrypts and decodes ct.
func (h *HeContext) Decrypt(ct *rlwe.Ciphertext) ([]float64, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.decode(ct)
}

func (h *HeContext) decode(ct *rlwe.Ciphertext) ([]float64, error) {
	pt := h.Decryptor.DecryptNew(ct)
	values := make([]float64, h.Params.MaxSlots())
	if err := h.Encoder.Decode(pt, values); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return values, nil
}

// EncryptValues encodes values at the maximum level and encrypts them with
// the public key.
func (h *HeContext) EncryptValues(values []float64) (*rlwe.Ciphertext, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	pt := ckks.NewPlaintext(h.Params, h.Params.MaxLevel())
	if err := h.Encoder.Encode(values, pt); err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}
	return h.Encryptor.EncryptNew(pt)
}
