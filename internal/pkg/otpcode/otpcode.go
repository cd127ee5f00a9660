package otpcode

import (
	"crypto/rand"
	"math/big"
)

// Alphabets commonly used for verification codes.
const (
	AlphabetDigits       = "0123456789"
	AlphabetAlphanumeric = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789" // no look-alikes
)

const defaultLength = 5

// Generator defines the contract for producing a one-time code.
type Generator interface {
	// Generate returns a new random code.
	Generate() (string, error)
}

// CodeGenerator produces fixed-length random codes from an alphabet.
type CodeGenerator struct {
	length   int
	alphabet string
}

// New constructs a CodeGenerator.
//
// If length is not positive it falls back to 5. If alphabet is empty it falls
// back to digits.
func New(length int, alphabet string) *CodeGenerator {
	if length <= 0 {
		length = defaultLength
	}

	if alphabet == "" {
		alphabet = AlphabetDigits
	}

	return &CodeGenerator{
		length:   length,
		alphabet: alphabet,
	}
}

// Generate returns a new random code.
//
// Each position is drawn with crypto/rand.Int, which rejects values outside
// the alphabet range instead of taking a biased modulo.
func (g *CodeGenerator) Generate() (string, error) {
	size := big.NewInt(int64(len(g.alphabet)))
	buf := make([]byte, g.length)

	for i := range buf {
		n, err := rand.Int(rand.Reader, size)
		if err != nil {
			return "", err
		}
		buf[i] = g.alphabet[n.Int64()]
	}

	return string(buf), nil
}
