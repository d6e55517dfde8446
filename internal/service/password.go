package service

import (
	"crypto/rand"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

// PBKDF2 parameters for admin passwords. Changing any of them invalidates
// every stored hash.
const (
	PBKDF2Iterations = 100000
	PBKDF2KeyLength  = 64
	SaltLength       = 32
)

// HashPassword derives the hex PBKDF2-HMAC-SHA512 digest of password. The
// salt is used as the bytes of its hex string, not the decoded bytes, so
// digests stay compatible with existing rows.
func HashPassword(password, salt string) string {
	key := pbkdf2.Key([]byte(password), []byte(salt), PBKDF2Iterations, PBKDF2KeyLength, sha512.New)
	return hex.EncodeToString(key)
}

// GenerateSalt returns SaltLength random bytes, hex encoded.
func GenerateSalt() (string, error) {
	b := make([]byte, SaltLength)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// VerifyPassword recomputes the digest and compares it with the stored one in
// constant time. A stored digest that is not valid hex never matches.
func VerifyPassword(password, digest, salt string) bool {
	want, err := hex.DecodeString(digest)
	if err != nil {
		return false
	}
	got, err := hex.DecodeString(HashPassword(password, salt))
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare(got, want) == 1
}
