package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeE164(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{"already e164", "+15551234567", "+15551234567"},
		{"bare ten digits assumes north america", "5551234567", "+15551234567"},
		{"eleven digits with leading one", "15551234567", "+15551234567"},
		{"formatted with punctuation", "(555) 123-4567", "+15551234567"},
		{"dots and spaces", "555.123 4567", "+15551234567"},
		{"international with plus", "+442071838750", "+442071838750"},
		{"short international", "+85212345678", "+85212345678"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := NormalizeE164(tc.input)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestNormalizeE164Invalid(t *testing.T) {
	cases := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"letters", "555-CALL-NOW"},
		{"too short bare", "12345"},
		{"too short with plus", "+1234567"},
		{"too long with plus", "+1234567890123456"},
		{"plus in the middle", "555+1234567"},
		{"eleven digits without leading one", "25551234567"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NormalizeE164(tc.input)
			assert.ErrorIs(t, err, ErrInvalidPhone)
		})
	}
}
