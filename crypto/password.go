package crypto

import (
	"errors"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

const MinPasswordLength = 8

var ErrPasswordComplexity = errors.New("password must be at least 8 characters and contain upper and lower case letters, a digit and a special character")

// CheckPassword compares a bcrypt hashed password with its possible plaintext equivalent
func CheckPassword(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// GenerateHash creates a bcrypt hash from a password using reasonable default cost
func GenerateHash(password string) (string, error) {
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(hashedBytes), err
}

// ValidatePasswordComplexity requires upper, lower, digit and special
// characters. Letters and digits of any script count.
func ValidatePasswordComplexity(password string) error {
	if len([]rune(password)) < MinPasswordLength {
		return ErrPasswordComplexity
	}

	var upper, lower, digit, special bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			special = true
		}
	}

	if !upper || !lower || !digit || !special {
		return ErrPasswordComplexity
	}
	return nil
}
