package auth

import (
	"errors"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"
)

// Cost 10 is about 100ms per hash on a desk PC class server
const bcryptCost = 10

// MinPasswordLength applies to every staff password set by this service
const MinPasswordLength = 8

var ErrWeakPassword = errors.New("password must have at least 8 characters")

// CheckPassword rejects passwords shorter than MinPasswordLength runes
func CheckPassword(password string) error {
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return ErrWeakPassword
	}
	return nil
}

// HashPassword checks the password and returns its bcrypt hash
func HashPassword(password string) (string, error) {
	if err := CheckPassword(password); err != nil {
		return "", err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword reports whether password matches the stored hash
func VerifyPassword(hashedPassword, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password)) == nil
}
