package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// GenerateInviteToken returns a 40-character hex secret for signed links
func GenerateInviteToken() (string, error) {
	buf := make([]byte, 20)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate invite token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// GenerateSyntheticSID returns a provider-shaped message SID ("SM" + 30 hex
// chars) for transports that do not return one
func GenerateSyntheticSID() (string, error) {
	buf := make([]byte, 15)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate message sid: %w", err)
	}
	return "SM" + hex.EncodeToString(buf), nil
}
