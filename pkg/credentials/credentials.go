// Package credentials hashes and verifies share passwords. It knows
// nothing about shares; callers store the hash alongside the record.
package credentials

import "golang.org/x/crypto/bcrypt"

const bcryptCost = 10

// Hash returns a salted bcrypt hash of password.
func Hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Verify reports whether password matches the stored hash.
func Verify(password string, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
