package ckkswrapper

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

// newTestContext builds a small 2^12 ring context with depth usable levels.
func newTestContext(t testing.TB, depth int) *HeContext {
	t.Helper()
	h, err := NewHeContextWithOptions(OptionsWithDepth(12, depth))
	require.NoError(t, err)
	return h
}

func TestHeContextRoundTrip(t *testing.T) {
	h := newTestContext(t, 2)
	rng := rand.New(rand.NewSource(1))

	vals := make([]float64, 64)
	for i := range vals {
		vals[i] = rng.Float64()*20 - 10
	}

	ct, err := h.EncryptValues(vals)
	if err != nil {
		t.Fatalf("encrypt error: %v", err)
	}
	if ct.Level() != h.Params.MaxLevel() {
		t.Fatalf("fresh level = %d, want %d", ct.Level(), h.Params.MaxLevel())
	}

	decoded, err := h.Decrypt(ct)
	if err != nil {
		t.Fatalf("decrypt error: %v", err)
	}
	for i, v := range vals {
		if diff := math.Abs(decoded[i] - v); diff > 1e-6 {
			t.Fatalf("roundtrip mismatch at %d: got %f, want %f", i, decoded[i], v)
		}
	}
	for i := len(vals); i < len(vals)+8; i++ {
		if math.Abs(decoded[i]) > 1e-6 {
			t.Fatalf("padding slot %d = %f, want 0", i, decoded[i])
		}
	}
}

func TestNewHeContextWithOptionsRejectsShortChain(t *testing.T) {
	_, err := NewHeContextWithOptions(Options{LogN: 12, LogQ: []int{55}, LogP: []int{61}, LogDefaultScale: 40})
	require.Error(t, err)
}

func TestOptionsWithDepth(t *testing.T) {
	opts := OptionsWithDepth(12, 5)
	require.Len(t, opts.LogQ, 6)
	require.Equal(t, 55, opts.LogQ[0])

	h, err := NewHeContextWithOptions(opts)
	require.NoError(t, err)
	require.Equal(t, 5, h.Params.MaxLevel())
	require.Equal(t, 1<<11, h.Params.MaxSlots())
}

func TestGenServerKitDeduplicatesRotations(t *testing.T) {
	h := newTestContext(t, 1)
	kit := h.GenServerKit([]int{4, -1, 0, 4, 1, -1})
	require.Equal(t, []int{-1, 1, 4}, kit.Rotations)
}
