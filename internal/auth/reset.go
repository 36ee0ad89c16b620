package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"regexp"
)

// ResetTokenBytes is the entropy of a password reset token.
const ResetTokenBytes = 32

var resetTokenRegex = regexp.MustCompile(`^[a-f0-9]{64}$`)

// ResetToken is a newly generated password reset token.
type ResetToken struct {
	Plaintext string // sent to the user, never stored
	Hash      string // QuickHash of Plaintext, used as the storage key
}

// GenerateResetToken creates a random password reset token.
func GenerateResetToken() (*ResetToken, error) {
	b := make([]byte, ResetTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("generate reset token: %w", err)
	}
	plaintext := hex.EncodeToString(b)
	return &ResetToken{Plaintext: plaintext, Hash: QuickHash(plaintext)}, nil
}

// ValidateResetTokenFormat checks the shape of a reset token before any lookup.
func ValidateResetTokenFormat(token string) bool {
	return resetTokenRegex.MatchString(token)
}
