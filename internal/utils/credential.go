package utils

import (
	"golang.org/x/crypto/bcrypt" // Credential hashing
)

// dummyHash is compared against when the user does not exist, so an unknown
// identifier costs the same as a wrong credential.
var dummyHash = mustHash("0000")

func mustHash(credential string) []byte {
	h, err := bcrypt.GenerateFromPassword([]byte(credential), bcrypt.DefaultCost)
	if err != nil {
		panic(err)
	}
	return h
}

// HashCredential returns the bcrypt hash of a credential
func HashCredential(credential string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(credential), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

// VerifyCredential compares a supplied credential with a stored hash.
// An empty hash is treated as an unknown user.
func VerifyCredential(hash, supplied string) bool {
	if hash == "" {
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(supplied))
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(supplied)) == nil
}
