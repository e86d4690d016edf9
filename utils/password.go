package utils

import "golang.org/x/crypto/bcrypt"

// bcryptCost stays at the library default; hashing happens only on register
// and login, both behind the auth rate limiter.
const bcryptCost = bcrypt.DefaultCost

// HashPassword hashes a registered credential for storage. Only the hash is
// ever persisted; federated accounts never call this.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches the stored bcrypt hash.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
