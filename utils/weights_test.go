package utils

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tuneinsight/lattigo/v6/core/rlwe"
	"github.com/tuneinsight/lattigo/v6/schemes/ckks"
)

func TestSaveLoadWeights(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "weights_test")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	weightsFile := filepath.Join(tmpDir, "test_weights.json")

	weights := &ModelWeights{
		Version:      "1.0",
		Degree:       3,
		Strategy:     "horner",
		Iterations:   10,
		LearningRate: 0.1,
		Weights:      []float64{0.5, -1.25, 0.001},
	}

	if err := SaveWeights(weightsFile, weights); err != nil {
		t.Fatalf("SaveWeights failed: %v", err)
	}
	if weights.Checksum == "" {
		t.Fatal("SaveWeights did not stamp a checksum")
	}

	loaded, err := LoadWeights(weightsFile)
	if err != nil {
		t.Fatalf("LoadWeights failed: %v", err)
	}

	if loaded.Version != "1.0" {
		t.Errorf("Version = %s, want 1.0", loaded.Version)
	}
	if loaded.Degree != 3 || loaded.Strategy != "horner" {
		t.Errorf("Degree/Strategy = %d/%s, want 3/horner", loaded.Degree, loaded.Strategy)
	}
	if len(loaded.Weights) != 3 {
		t.Fatalf("Weights length = %d, want 3", len(loaded.Weights))
	}
	if loaded.Weights[1] != -1.25 {
		t.Errorf("Weights[1] = %f, want -1.25", loaded.Weights[1])
	}
}

func TestLoadWeightsDetectsTampering(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "weights_test")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	weightsFile := filepath.Join(tmpDir, "w.json")
	if err := SaveWeights(weightsFile, &ModelWeights{Version: "1.0", Weights: []float64{1, 2}}); err != nil {
		t.Fatalf("SaveWeights failed: %v", err)
	}

	data, err := os.ReadFile(weightsFile)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	tampered := strings.Replace(string(data), `"version": "1.0"`, `"version": "1.1"`, 1)
	if err := os.WriteFile(weightsFile, []byte(tampered), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	if _, err := LoadWeights(weightsFile); err == nil || !strings.Contains(err.Error(), "checksum") {
		t.Errorf("expected checksum error, got %v", err)
	}
}

func TestEncodeDecodeBytes(t *testing.T) {
	original := []byte("test binary data with special chars: \x00\x01\x02")

	encoded := EncodeBytes(original)
	decoded, err := DecodeBytes(encoded)
	if err != nil {
		t.Fatalf("DecodeBytes failed: %v", err)
	}

	if string(decoded) != string(original) {
		t.Errorf("Round-trip failed: got %v, want %v", decoded, original)
	}
}

func TestEncodeDecodeCiphertext(t *testing.T) {
	params, err := ckks.NewParametersFromLiteral(ckks.ParametersLiteral{
		LogN:            12,
		LogQ:            []int{55, 40, 40},
		LogP:            []int{61},
		LogDefaultScale: 40,
	})
	if err != nil {
		t.Fatalf("parameters: %v", err)
	}
	kgen := rlwe.NewKeyGenerator(params)
	sk, pk := kgen.GenKeyPairNew()
	pt := ckks.NewPlaintext(params, params.MaxLevel())
	if err := ckks.NewEncoder(params).Encode([]float64{1, 2, 3}, pt); err != nil {
		t.Fatalf("encode: %v", err)
	}
	ct, err := rlwe.NewEncryptor(params, pk).EncryptNew(pt)
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}

	cd, err := EncodeCiphertext(ct)
	if err != nil {
		t.Fatalf("EncodeCiphertext failed: %v", err)
	}
	if cd.Level != params.MaxLevel() {
		t.Errorf("Level = %d, want %d", cd.Level, params.MaxLevel())
	}

	back, err := DecodeCiphertext(cd, params.MaxLevel())
	if err != nil {
		t.Fatalf("DecodeCiphertext failed: %v", err)
	}
	if !back.Equal(ct) {
		t.Error("ciphertext changed across encode/decode")
	}

	values := make([]float64, params.MaxSlots())
	if err := ckks.NewEncoder(params).Decode(rlwe.NewDecryptor(params, sk).DecryptNew(back), values); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if d := values[2] - 3; d > 1e-6 || d < -1e-6 {
		t.Errorf("slot 2 = %f, want 3", values[2])
	}

	if _, err := DecodeCiphertext(cd, params.MaxLevel()-1); err == nil {
		t.Error("expected error for level above the receiver maximum")
	}
	cd.Level = 0
	if _, err := DecodeCiphertext(cd, params.MaxLevel()); err == nil {
		t.Error("expected error for mismatched declared level")
	}
}

func TestLoadWeightsNotFound(t *testing.T) {
	_, err := LoadWeights("/nonexistent/path/weights.json")
	if err == nil {
		t.Error("Expected error for nonexistent file")
	}
}

func TestLoadWeightsInvalidJSON(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "weights_test")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	badFile := filepath.Join(tmpDir, "bad.json")
	err = os.WriteFile(badFile, []byte("not valid json"), 0644)
	if err != nil {
		t.Fatalf("Failed to write test file: %v", err)
	}

	_, err = LoadWeights(badFile)
	if err == nil {
		t.Error("Expected error for invalid JSON")
	}
}
