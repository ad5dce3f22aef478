// Package auth holds the credential primitives of the signup flow.
package auth

import (
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// NewConfirmationCode returns a fresh random code to mail to the user.
func NewConfirmationCode() string {
	return uuid.NewString()
}

// HashConfirmationCode creates the bcrypt hash stored in place of the code.
func HashConfirmationCode(code string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// VerifyConfirmationCode reports whether code matches the stored hash. An
// empty hash never matches.
func VerifyConfirmationCode(hashed, code string) bool {
	if hashed == "" || code == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(code)) == nil
}
