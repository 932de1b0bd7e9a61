package poly

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tuneinsight/lattigo/v6/core/rlwe"

	"helr/core/ckkswrapper"
)

func newTestKit(t testing.TB, depth int) (*ckkswrapper.HeContext, *ckkswrapper.ServerKit) {
	t.Helper()
	h, err := ckkswrapper.NewHeContextWithOptions(ckkswrapper.OptionsWithDepth(12, depth))
	require.NoError(t, err)
	return h, h.GenServerKit(nil)
}

func encryptValues(t testing.TB, kit *ckkswrapper.ServerKit, vals []float64) *rlwe.Ciphertext {
	t.Helper()
	ct, err := kit.Encrypt(ckkswrapper.NewPlaintext(vals, kit.Params.DefaultScale()))
	require.NoError(t, err)
	return ct
}

func TestDepth(t *testing.T) {
	require.Equal(t, 3, Depth(Horner, 3))
	require.Equal(t, 7, Depth(Horner, 7))
	require.Equal(t, 3, Depth(Tree, 3))
	require.Equal(t, 4, Depth(Tree, 5))
	require.Equal(t, 4, Depth(Tree, 7))
}

func TestParseStrategy(t *testing.T) {
	s, err := ParseStrategy("Tree")
	require.NoError(t, err)
	require.Equal(t, Tree, s)
	require.Equal(t, "horner", Horner.String())
	_, err = ParseStrategy("paterson")
	require.Error(t, err)
}

func TestScenarioDegreeThreeHorner(t *testing.T) {
	h, kit := newTestKit(t, 3)
	p, err := SigmoidPreset(3)
	require.NoError(t, err)

	ct := encryptValues(t, kit, []float64{0.1})
	out, err := NewEvaluator(kit, Horner).Evaluate(ct, p)
	require.NoError(t, err)
	require.Equal(t, 0, out.Level())

	got, err := h.Decrypt(out)
	require.NoError(t, err)
	require.InDelta(t, p.Eval(0.1), got[0], 1e-4)
	require.InDelta(t, 0.6191, got[0], 1e-3)
	require.InDelta(t, Sigmoid(0.1), got[0], 0.1)
}

func TestStrategiesAgree(t *testing.T) {
	h, kit := newTestKit(t, 7)
	rng := rand.New(rand.NewSource(7))

	xs := make([]float64, 32)
	for i := range xs {
		xs[i] = rng.Float64()*2 - 1
	}
	ct := encryptValues(t, kit, xs)

	for _, d := range SupportedDegrees {
		t.Run(fmt.Sprintf("degree%d", d), func(t *testing.T) {
			p, err := SigmoidPreset(d)
			require.NoError(t, err)

			tree, err := NewEvaluator(kit, Tree).Evaluate(ct, p)
			require.NoError(t, err)
			require.Equal(t, ct.Level()-Depth(Tree, d), tree.Level())

			horner, err := NewEvaluator(kit, Horner).Evaluate(ct, p)
			require.NoError(t, err)
			require.Equal(t, ct.Level()-Depth(Horner, d), horner.Level())

			gotTree, err := h.Decrypt(tree)
			require.NoError(t, err)
			gotHorner, err := h.Decrypt(horner)
			require.NoError(t, err)

			for i, x := range xs {
				want := p.Eval(x)
				require.InDelta(t, want, gotTree[i], 1e-4, "tree at x=%f", x)
				require.InDelta(t, want, gotHorner[i], 1e-4, "horner at x=%f", x)
				require.InDelta(t, gotTree[i], gotHorner[i], 2e-4)
			}
		})
	}
}

func TestEvaluateOnFoldedSurrogate(t *testing.T) {
	h, kit := newTestKit(t, 4)
	p, err := SigmoidOnInput(3)
	require.NoError(t, err)

	zs := []float64{-6, -2.5, 0, 0.8, 3, 7.5}
	out, err := NewEvaluator(kit, Tree).Evaluate(encryptValues(t, kit, zs), p)
	require.NoError(t, err)

	got, err := h.Decrypt(out)
	require.NoError(t, err)
	for i, z := range zs {
		require.InDelta(t, p.Eval(z), got[i], 1e-4)
		require.InDelta(t, Sigmoid(z), got[i], 0.12)
	}
}

func TestEvaluateErrors(t *testing.T) {
	_, kit := newTestKit(t, 3)
	ct := encryptValues(t, kit, []float64{0.2})

	p5, err := SigmoidPreset(5)
	require.NoError(t, err)
	_, err = NewEvaluator(kit, Horner).Evaluate(ct, p5)
	require.ErrorIs(t, err, ckkswrapper.ErrInsufficientDepth)

	p3, err := SigmoidPreset(3)
	require.NoError(t, err)
	bad := p3
	bad.Coeffs = append(bad.Coeffs, 1)
	_, err = NewEvaluator(kit, Tree).Evaluate(ct, bad)
	require.ErrorIs(t, err, ckkswrapper.ErrInvalidDegree)

	low, err := kit.ModSwitchTo(ct, 2)
	require.NoError(t, err)
	_, err = NewEvaluator(kit, Tree).Evaluate(low, p3)
	require.ErrorIs(t, err, ckkswrapper.ErrInsufficientDepth)
}
