package security

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidPIN = errors.New("security: invalid POS PIN")

// HashPIN hashes a staff POS override PIN for storage on the staff
// record.
func HashPIN(pin string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPIN verifies a PIN against its stored hash.
func CheckPIN(hash, pin string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(pin)); err != nil {
		return ErrInvalidPIN
	}
	return nil
}
