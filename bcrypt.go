package auth

import (
	"crypto/rand"
	"encoding/base64"
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword hashes a local credential for storage.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", ErrNoEmptyString
	}

	h, err := bcrypt.GenerateFromPassword([]byte(password), passwordHashCost())
	if err != nil {
		return "", err
	}
	return string(h), nil
}

// ComparePasswordAndHash reports whether the cleartext password matches the
// stored hash. Mismatches map onto ErrMismatchedHashAndPassword.
func ComparePasswordAndHash(password, hash string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if err == nil {
		return nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return ErrMismatchedHashAndPassword
	}
	return err
}

// RandomPasswordHash fills the password column for social principals with an
// unguessable value so local login can never match it.
func RandomPasswordHash() string {
	buf := make([]byte, 24)
	for {
		if _, err := rand.Read(buf); err != nil {
			continue
		}
		h, err := HashPassword(base64.RawURLEncoding.EncodeToString(buf))
		if err != nil {
			continue
		}
		return h
	}
}
