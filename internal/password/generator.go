// Package password generates credentials that satisfy character-class
// composition rules. Randomness always comes from crypto/rand.
package password

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"math/big"
)

// Character classes. None of them contain a single quote, backslash or
// whitespace, so a generated password survives single-quoting in a shell.
const (
	Lowercase = "abcdefghijklmnopqrstuvwxyz"
	Uppercase = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	Digits    = "0123456789"
	Symbols   = ",.:;!@#$%^&*()-_=+[]{}"
)

// MinLength is the shortest password Generate accepts
const MinLength = 8

// DefaultLength is used when no length is configured
const DefaultLength = 12

// ErrLengthTooShort is returned for lengths below MinLength
var ErrLengthTooShort = errors.New("password length too short")

var (
	classes  = []string{Lowercase, Uppercase, Digits, Symbols}
	alphabet = Lowercase + Uppercase + Digits + Symbols
)

// Generator draws passwords from a random source
type Generator struct {
	rand io.Reader
}

// NewGenerator returns a Generator backed by crypto/rand.Reader
func NewGenerator() *Generator {
	return &Generator{rand: rand.Reader}
}

// Generate is shorthand for NewGenerator().Generate(length)
func Generate(length int) (string, error) {
	return NewGenerator().Generate(length)
}

// Generate returns a password of exactly length characters containing at
// least one lowercase letter, uppercase letter, digit and symbol. The
// remaining characters are uniform over the union of all classes and the
// result is shuffled, so the mandatory characters have no fixed position.
func (g *Generator) Generate(length int) (string, error) {
	if length < MinLength {
		return "", fmt.Errorf("%w: %d < %d", ErrLengthTooShort, length, MinLength)
	}

	buf := make([]byte, 0, length)
	for _, class := range classes {
		c, err := g.pick(class)
		if err != nil {
			return "", err
		}
		buf = append(buf, c)
	}

	for len(buf) < length {
		c, err := g.pick(alphabet)
		if err != nil {
			return "", err
		}
		buf = append(buf, c)
	}

	// Fisher-Yates
	for i := len(buf) - 1; i > 0; i-- {
		j, err := g.intn(i + 1)
		if err != nil {
			return "", err
		}
		buf[i], buf[j] = buf[j], buf[i]
	}

	return string(buf), nil
}

func (g *Generator) pick(set string) (byte, error) {
	i, err := g.intn(len(set))
	if err != nil {
		return 0, err
	}
	return set[i], nil
}

func (g *Generator) intn(n int) (int, error) {
	v, err := rand.Int(g.rand, big.NewInt(int64(n)))
	if err != nil {
		return 0, fmt.Errorf("read random source: %w", err)
	}
	return int(v.Int64()), nil
}
