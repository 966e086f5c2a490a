package models

import "golang.org/x/crypto/bcrypt"

const hashCost = 10

// HashPassword runs the plaintext through salted bcrypt. Every code path
// that sets or changes a user's password goes through here before the row
// is handed to the store.
func HashPassword(plaintext string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), hashCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword reports whether plaintext matches the stored hash.
// bcrypt's comparison is constant-time.
func CheckPassword(plaintext, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}
