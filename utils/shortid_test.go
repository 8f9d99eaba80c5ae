package utils

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateShortID(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		id, err := GenerateShortID()
		require.NoError(t, err)
		assert.Len(t, id, ShortIDLength)
		for _, r := range id {
			assert.True(t, strings.ContainsRune(ShortIDAlphabet, r), "unexpected character %q in short id %s", r, id)
		}
		seen[id] = true
	}
	// 16^6 candidates; 100 draws colliding every time is practically impossible
	assert.Greater(t, len(seen), 90)
}

func TestGenerateUniqueShortIDRetriesCollisions(t *testing.T) {
	calls := 0
	id, err := GenerateUniqueShortID(context.Background(), func(ctx context.Context, candidate string) (bool, error) {
		calls++
		// First two candidates are taken
		return calls <= 2, nil
	})
	require.NoError(t, err)
	assert.Len(t, id, ShortIDLength)
	assert.Equal(t, 3, calls)
}

func TestGenerateUniqueShortIDExhausted(t *testing.T) {
	calls := 0
	_, err := GenerateUniqueShortID(context.Background(), func(ctx context.Context, candidate string) (bool, error) {
		calls++
		return true, nil
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrShortIDExhausted)
	assert.Equal(t, ShortIDMaxAttempts, calls)
}

func TestGenerateUniqueShortIDPropagatesProbeError(t *testing.T) {
	probeErr := assert.AnError
	_, err := GenerateUniqueShortID(context.Background(), func(ctx context.Context, candidate string) (bool, error) {
		return false, probeErr
	})
	assert.ErrorIs(t, err, probeErr)
}
