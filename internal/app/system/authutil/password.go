// internal/app/system/authutil/password.go
// Package authutil provides password hashing and validation for staff
// accounts. Sign-in is email + password only.
package authutil

import (
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// Password validation constants
const (
	MinPasswordLength = 8
	MaxPasswordLength = 128
	BcryptCost        = 12
)

// Password validation errors
var (
	ErrPasswordTooShort = errors.New("Le mot de passe doit contenir au moins 8 caractères.")
	ErrPasswordTooLong  = errors.New("Le mot de passe doit contenir moins de 128 caractères.")
	ErrPasswordCommon   = errors.New("Ce mot de passe est trop courant. Veuillez en choisir un autre.")
)

// commonPasswords is a list of very common passwords that are blocked.
var commonPasswords = map[string]bool{
	"12345678":   true,
	"123456789":  true,
	"1234567890": true,
	"password":   true,
	"password1":  true,
	"passw0rd":   true,
	"motdepasse": true,
	"azerty123":  true,
	"azertyuiop": true,
	"qwerty123":  true,
	"qwertyuiop": true,
	"abc12345":   true,
	"11111111":   true,
	"00000000":   true,
	"iloveyou":   true,
	"jetaime123": true,
	"soleil123":  true,
	"bienvenue1": true,
	"admin123":   true,
	"changemoi":  true,
	"changeme":   true,
}

// PasswordRules returns a human-readable description of the password rules.
// This can be displayed on password forms.
func PasswordRules() string {
	return "Le mot de passe doit contenir au moins 8 caractères et ne pas être un mot de passe courant comme « 12345678 » ou « azerty123 »."
}

// ValidatePassword checks if a password meets the requirements.
// Returns nil if valid, or an error describing the issue.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	if len(password) > MaxPasswordLength {
		return ErrPasswordTooLong
	}

	if commonPasswords[strings.ToLower(password)] {
		return ErrPasswordCommon
	}

	return nil
}

// HashPassword hashes a password using bcrypt.
// The password should be validated with ValidatePassword first.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword compares a plain-text password with a bcrypt hash.
// Returns true if the password matches, false otherwise.
func CheckPassword(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
