package utils

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
)

// Short id parameters. The alphabet is lowercase hex so codes survive
// case-folding URL handling; 6 characters gives 16^6 = ~16.7M codes.
const (
	ShortIDAlphabet    = "1234567890abcdef"
	ShortIDLength      = 6
	ShortIDMaxAttempts = 10
)

// ErrShortIDExhausted is returned when every candidate collided
var ErrShortIDExhausted = errors.New("failed to generate unique short id")

// ExistsFunc reports whether a candidate short id is already taken
type ExistsFunc func(ctx context.Context, shortID string) (bool, error)

// GenerateShortID returns one random candidate without collision checking
func GenerateShortID() (string, error) {
	buf := make([]byte, ShortIDLength)
	max := big.NewInt(int64(len(ShortIDAlphabet)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to generate short id: %w", err)
		}
		buf[i] = ShortIDAlphabet[n.Int64()]
	}
	return string(buf), nil
}

// GenerateUniqueShortID draws candidates until exists reports false,
// giving up after ShortIDMaxAttempts collisions
func GenerateUniqueShortID(ctx context.Context, exists ExistsFunc) (string, error) {
	for attempt := 0; attempt < ShortIDMaxAttempts; attempt++ {
		candidate, err := GenerateShortID()
		if err != nil {
			return "", err
		}
		taken, err := exists(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("failed to check short id existence: %w", err)
		}
		if !taken {
			return candidate, nil
		}
	}
	return "", ErrShortIDExhausted
}
