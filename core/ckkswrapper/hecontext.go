// Package ckkswrapper holds the CKKS scheme context, the server-side
// evaluation kit and the level/scale checked ciphertext algebra built on it.
package ckkswrapper

import (
	"fmt"
	"sort"
	"sync"

	"github.com/tuneinsight/lattigo/v6/core/rlwe"
	"github.com/tuneinsight/lattigo/v6/schemes/ckks"
)

// Options are the scheme parameters supplied at startup.
type Options struct {
	LogN            int
	LogQ            []int // ciphertext modulus chain; len(LogQ)-1 is the usable depth
	LogP            []int
	LogDefaultScale int
}

// DefaultOptions mirrors a 16384 ring with a {60, 40 x7 | 60} chain and a
// 2^40 scale, enough for one degree-3 Horner iteration per refresh.
func DefaultOptions() Options {
	return Options{
		LogN:            14,
		LogQ:            []int{60, 40, 40, 40, 40, 40, 40, 40},
		LogP:            []int{60},
		LogDefaultScale: 40,
	}
}

// OptionsWithDepth returns options for a ring of size 2^logN whose chain
// offers exactly depth levels above the base prime.
func OptionsWithDepth(logN, depth int) Options {
	logQ := make([]int, depth+1)
	logQ[0] = 55
	for i := 1; i <= depth; i++ {
		logQ[i] = 40
	}
	return Options{
		LogN:            logN,
		LogQ:            logQ,
		LogP:            []int{61},
		LogDefaultScale: 40,
	}
}

// Literal converts the options to the lattigo parameter literal.
func (o Options) Literal() ckks.ParametersLiteral {
	return ckks.ParametersLiteral{
		LogN:            o.LogN,
		LogQ:            o.LogQ,
		LogP:            o.LogP,
		LogDefaultScale: o.LogDefaultScale,
	}
}

// HeContext is the process-wide scheme context. It owns the key material and
// is never mutated after construction; Refresh and Decrypt are serialised
// because the decryptor and encryptor keep internal buffers.
type HeContext struct {
	Params    ckks.Parameters
	Encoder   *ckks.Encoder
	Encryptor *rlwe.Encryptor
	Decryptor *rlwe.Decryptor

	kgen *rlwe.KeyGenerator
	sk   *rlwe.SecretKey
	pk   *rlwe.PublicKey
	rlk  *rlwe.RelinearizationKey

	mu sync.Mutex
}

// NewHeContext builds a context with DefaultOptions.
func NewHeContext() *HeContext {
	h, err := NewHeContextWithOptions(DefaultOptions())
	if err != nil {
		panic(err)
	}
	return h
}

// NewHeContextWithLogN builds a context on a 2^logN ring with the default
// chain shape. Intended for tests and quick experiments.
func NewHeContextWithLogN(logN int) *HeContext {
	opts := DefaultOptions()
	opts.LogN = logN
	h, err := NewHeContextWithOptions(opts)
	if err != nil {
		panic(err)
	}
	return h
}

// NewHeContextWithOptions validates opts and generates a fresh key pair.
func NewHeContextWithOptions(opts Options) (*HeContext, error) {
	if len(opts.LogQ) < 2 {
		return nil, fmt.Errorf("modulus chain needs at least 2 primes, got %d", len(opts.LogQ))
	}
	params, err := ckks.NewParametersFromLiteral(opts.Literal())
	if err != nil {
		return nil, fmt.Errorf("invalid CKKS parameters: %w", err)
	}
	return NewHeContextWithParams(params), nil
}

// NewHeContextWithParams generates keys for already validated parameters.
func NewHeContextWithParams(params ckks.Parameters) *HeContext {
	kgen := rlwe.NewKeyGenerator(params)
	sk, pk := kgen.GenKeyPairNew()
	return &HeContext{
		Params:    params,
		Encoder:   ckks.NewEncoder(params),
		Encryptor: rlwe.NewEncryptor(params, pk),
		Decryptor: rlwe.NewDecryptor(params, sk),
		kgen:      kgen,
		sk:        sk,
		pk:        pk,
		rlk:       kgen.GenRelinearizationKeyNew(sk),
	}
}

// PublicKey returns the encryption key handed to the computing party.
func (h *HeContext) PublicKey() *rlwe.PublicKey {
	return h.pk
}

// GenServerKit generates Galois keys for rots and returns the evaluation kit
// of the computing party. Duplicate and zero rotations are ignored.
func (h *HeContext) GenServerKit(rots []int) *ServerKit {
	slots := h.Params.MaxSlots()
	seen := make(map[int]bool, len(rots))
	var uniq []int
	for _, r := range rots {
		r %= slots
		if r == 0 || seen[r] {
			continue
		}
		seen[r] = true
		uniq = append(uniq, r)
	}
	sort.Ints(uniq)

	var gks []*rlwe.GaloisKey
	if len(uniq) > 0 {
		gks = h.kgen.GenGaloisKeysNew(h.Params.GaloisElements(uniq), h.sk)
	}
	evk := rlwe.NewMemEvaluationKeySet(h.rlk, gks...)

	return &ServerKit{
		Params:    h.Params,
		Encoder:   ckks.NewEncoder(h.Params),
		Encryptor: rlwe.NewEncryptor(h.Params, h.pk),
		Evaluator: ckks.NewEvaluator(h.Params, evk),
		Rotations: uniq,
		counters:  &Counters{},
	}
}
