package auth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/nbutton23/zxcvbn-go"
	"golang.org/x/crypto/bcrypt"
)

const (
	MinPasswordLength = 8
	MaxPasswordLength = 72 // bcrypt ignores bytes past 72
	MinPasswordScore  = 1
)

var (
	ErrPasswordTooShort = errors.New("password too short")
	ErrPasswordTooLong  = errors.New("password too long")
	ErrWeakPassword     = errors.New("password too weak")
)

var saltRounds = bcrypt.DefaultCost

// SetSaltRounds sets the bcrypt cost. rounds must be within 1–31; values
// below bcrypt.MinCost are raised to it.
func SetSaltRounds(rounds int) error {
	if rounds < 1 || rounds > bcrypt.MaxCost {
		return fmt.Errorf("salt rounds must be between 1 and %d, got %d", bcrypt.MaxCost, rounds)
	}
	if rounds < bcrypt.MinCost {
		rounds = bcrypt.MinCost
	}
	saltRounds = rounds
	return nil
}

// HashPassword hashes a plain password with the configured cost.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), saltRounds)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches the bcrypt hash.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// ValidatePasswordStrength enforces length bounds and a minimum zxcvbn score.
// userInputs (username, email) lower the score of passwords derived from them.
func ValidatePasswordStrength(password string, userInputs ...string) error {
	if len(password) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	if len(password) > MaxPasswordLength {
		return ErrPasswordTooLong
	}
	if zxcvbn.PasswordStrength(password, userInputs).Score < MinPasswordScore {
		return ErrWeakPassword
	}
	return nil
}

// ResetTokenBytes is the entropy of password reset tokens (hex-encoded to 64 chars).
const ResetTokenBytes = 32

// GenerateResetToken returns a random hex token for password resets.
func GenerateResetToken() (string, error) {
	b := make([]byte, ResetTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate reset token: %w", err)
	}
	return hex.EncodeToString(b), nil
}
