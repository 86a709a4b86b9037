// Package hash verifies presented admin credentials against the
// configured ones without leaking timing information about where a
// mismatch occurred.
package hash

import (
	"crypto/sha256"
	"crypto/subtle"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// VerifyCredentials checks a username/password pair against the
// configured values. The configured password may be either plaintext or
// a bcrypt hash ("$2a$", "$2b$", "$2y$" prefix). Both fields are always
// checked so a failure reveals nothing about which one was wrong.
func VerifyCredentials(cfgUser, cfgPassword, user, password string) bool {
	userOK := Equal(cfgUser, user)

	var passOK bool
	if isBcryptHash(cfgPassword) {
		passOK = bcrypt.CompareHashAndPassword([]byte(cfgPassword), []byte(password)) == nil
	} else {
		passOK = Equal(cfgPassword, password)
	}

	return userOK && passOK
}

// Equal compares two strings in constant time. Inputs are digested
// first so the comparison does not leak length either.
func Equal(a, b string) bool {
	da := sha256.Sum256([]byte(a))
	db := sha256.Sum256([]byte(b))
	return subtle.ConstantTimeCompare(da[:], db[:]) == 1
}

// HashPassword produces a bcrypt hash suitable for the ADMIN_PASSWORD
// setting.
func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), 12)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

func isBcryptHash(s string) bool {
	return strings.HasPrefix(s, "$2a$") ||
		strings.HasPrefix(s, "$2b$") ||
		strings.HasPrefix(s, "$2y$")
}
