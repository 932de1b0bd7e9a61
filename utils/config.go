package utils

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseModulusChain parses a comma or space separated list of prime bit
// sizes, e.g. "60,40,40,40".
func ParseModulusChain(chain string) ([]int, error) {
	parts := strings.FieldsFunc(chain, func(r rune) bool {
		return r == ',' || r == ' '
	})
	if len(parts) == 0 {
		return nil, fmt.Errorf("empty modulus chain")
	}
	bits := make([]int, len(parts))
	for i, s := range parts {
		n, err := strconv.Atoi(s)
		if err != nil {
			return nil, fmt.Errorf("modulus chain entry %q: %w", s, err)
		}
		if n <= 0 || n > 61 {
			return nil, fmt.Errorf("modulus chain entry %d out of range (1..61)", n)
		}
		bits[i] = n
	}
	return bits, nil
}

// FormatModulusChain is the inverse of ParseModulusChain.
func FormatModulusChain(bits []int) string {
	s := make([]string, len(bits))
	for i, b := range bits {
		s[i] = strconv.Itoa(b)
	}
	return strings.Join(s, ",")
}
