package ckkswrapper

import (
	"math"
	"testing"
)

func TestRefresh(t *testing.T) {
	heCtx := newTestContext(t, 4)

	data := make([]float64, heCtx.Params.MaxSlots())
	for i := range data {
		data[i] = float64(i%100) * 0.05
	}

	ct, err := heCtx.EncryptValues(data)
	if err != nil {
		t.Fatalf("Encryption failed: %v", err)
	}

	refreshed, err := heCtx.Refresh(ct)
	if err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}

	if refreshed.Level() != heCtx.Params.MaxLevel() {
		t.Errorf("Level = %d, want %d", refreshed.Level(), heCtx.Params.MaxLevel())
	}

	decoded, err := heCtx.Decrypt(refreshed)
	if err != nil {
		t.Fatalf("Decrypt failed: %v", err)
	}

	maxErr := 0.0
	for i := 0; i < 100; i++ {
		if diff := math.Abs(decoded[i] - data[i]); diff > maxErr {
			maxErr = diff
		}
	}
	t.Logf("Max error after refresh: %e", maxErr)
	if maxErr > 1e-5 {
		t.Errorf("Data corrupted after refresh, max error = %e", maxErr)
	}
}

func TestRefreshAfterOperations(t *testing.T) {
	heCtx := newTestContext(t, 4)
	kit := heCtx.GenServerKit(nil)

	ct, err := kit.Encrypt(ConstantPlaintext(kit.Params, 0.5))
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}

	// 0.5 -> 0.25 -> 0.0625 -> 0.00390625
	for i := 0; i < 3; i++ {
		ct, err = MulRelinRescale(kit, ct, ct)
		if err != nil {
			t.Fatalf("square %d failed: %v", i, err)
		}
	}
	if ct.Level() != heCtx.Params.MaxLevel()-3 {
		t.Fatalf("Level after squarings = %d, want %d", ct.Level(), heCtx.Params.MaxLevel()-3)
	}

	refreshed, err := heCtx.Refresh(ct)
	if err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	if refreshed.Level() != heCtx.Params.MaxLevel() {
		t.Errorf("Level = %d, want %d", refreshed.Level(), heCtx.Params.MaxLevel())
	}
	if refreshed.Scale.Cmp(heCtx.Params.DefaultScale()) != 0 {
		t.Errorf("Scale = %g, want canonical %g", refreshed.Scale.Float64(), heCtx.Params.DefaultScale().Float64())
	}

	decoded, err := heCtx.Decrypt(refreshed)
	if err != nil {
		t.Fatalf("Decrypt failed: %v", err)
	}
	if math.Abs(decoded[7]-0.00390625) > 1e-4 {
		t.Errorf("slot 7 = %f, want 0.00390625", decoded[7])
	}
}

func TestRefreshLeavesInputUntouched(t *testing.T) {
	heCtx := newTestContext(t, 2)
	kit := heCtx.GenServerKit(nil)

	ct, err := kit.Encrypt(NewPlaintext([]float64{1.5}, kit.Params.DefaultScale()))
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}
	lower, err := kit.ModSwitchTo(ct, 0)
	if err != nil {
		t.Fatalf("ModSwitchTo failed: %v", err)
	}
	if _, err := heCtx.Refresh(lower); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	if lower.Level() != 0 {
		t.Errorf("input level changed to %d", lower.Level())
	}
}
