// Package auth wraps password hashing for the account store.
package auth

import "golang.org/x/crypto/bcrypt"

// bcrypt cost tuned for an interactive login on small hardware.
const hashCost = 14

// HashPassword derives the bcrypt hash stored for a user.
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), hashCost)
	return string(bytes), err
}

// CheckPasswordHash reports whether the plaintext password matches the
// stored hash.
func CheckPasswordHash(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
