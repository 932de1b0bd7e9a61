package utils

import (
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"

	"github.com/tuneinsight/lattigo/v6/core/rlwe"
	"github.com/zeebo/blake3"
)

// ModelWeights is the on-disk form of a trained model.
type ModelWeights struct {
	Version      string    `json:"version"`
	Degree       int       `json:"degree"`
	Strategy     string    `json:"strategy"`
	Iterations   int       `json:"iterations"`
	LearningRate float64   `json:"learning_rate"`
	Weights      []float64 `json:"weights"`
	Checksum     string    `json:"checksum"`
}

// checksum hashes every field except Checksum itself.
func (m *ModelWeights) checksum() (string, error) {
	body := *m
	body.Checksum = ""
	data, err := json.Marshal(&body)
	if err != nil {
		return "", err
	}
	hasher := blake3.New()
	hasher.Write(data)
	return hex.EncodeToString(hasher.Sum(nil)), nil
}

// SaveWeights stamps the checksum and saves model weights to a JSON file
func SaveWeights(filepath string, weights *ModelWeights) error {
	sum, err := weights.checksum()
	if err != nil {
		return fmt.Errorf("failed to hash weights: %w", err)
	}
	weights.Checksum = sum
	data, err := json.MarshalIndent(weights, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal weights: %w", err)
	}
	return os.WriteFile(filepath, data, 0644)
}

// LoadWeights loads model weights from a JSON file and verifies the checksum
func LoadWeights(filepath string) (*ModelWeights, error) {
	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read weights file: %w", err)
	}
	var weights ModelWeights
	if err := json.Unmarshal(data, &weights); err != nil {
		return nil, fmt.Errorf("failed to unmarshal weights: %w", err)
	}
	sum, err := weights.checksum()
	if err != nil {
		return nil, fmt.Errorf("failed to hash weights: %w", err)
	}
	if sum != weights.Checksum {
		return nil, fmt.Errorf("weights checksum mismatch: file says %s, content hashes to %s", weights.Checksum, sum)
	}
	return &weights, nil
}

// CiphertextData represents serializable ciphertext (base64 encoded)
type CiphertextData struct {
	Level int     `json:"level"`
	Scale float64 `json:"scale"`
	Data  string  `json:"data"` // base64 encoded
}

// EncodeCiphertext serializes ct for a JSON transport.
func EncodeCiphertext(ct *rlwe.Ciphertext) (*CiphertextData, error) {
	raw, err := ct.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("failed to marshal ciphertext: %w", err)
	}
	return &CiphertextData{
		Level: ct.Level(),
		Scale: ct.Scale.Float64(),
		Data:  EncodeBytes(raw),
	}, nil
}

// DecodeCiphertext restores a ciphertext and checks it against the declared
// level and the maximum level allowed by the receiver's parameters.
func DecodeCiphertext(cd *CiphertextData, maxLevel int) (*rlwe.Ciphertext, error) {
	raw, err := DecodeBytes(cd.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode ciphertext bytes: %w", err)
	}
	ct := new(rlwe.Ciphertext)
	if err := ct.UnmarshalBinary(raw); err != nil {
		return nil, fmt.Errorf("failed to unmarshal ciphertext: %w", err)
	}
	if ct.Level() != cd.Level {
		return nil, fmt.Errorf("ciphertext level %d does not match declared level %d", ct.Level(), cd.Level)
	}
	if ct.Level() > maxLevel {
		return nil, fmt.Errorf("ciphertext level %d exceeds maximum %d", ct.Level(), maxLevel)
	}
	return ct, nil
}

// EncodeBytes encodes raw bytes to base64 string
func EncodeBytes(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}

// DecodeBytes decodes base64 string to raw bytes
func DecodeBytes(encoded string) ([]byte, error) {
	return base64.StdEncoding.DecodeString(encoded)
}
