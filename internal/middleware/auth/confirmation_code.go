package auth

import (
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// CodeLength is the number of characters mailed to the user.
const CodeLength = 8

// NewConfirmationCode returns a short random code taken from a v4 uuid.
func NewConfirmationCode() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")[:CodeLength]
}

// HashCode creates a bcrypt hash of a confirmation code so the plaintext
// never reaches the database.
func HashCode(code string) (string, error) {
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashedBytes), nil
}

// VerifyCode checks if the provided code matches the stored bcrypt hash.
func VerifyCode(hashedCode, providedCode string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedCode), []byte(providedCode))
}
