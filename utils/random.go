package utils

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
)

// ReferenceCode returns prefix followed by n random bytes in upper-case hex,
// e.g. "MH-3FA91C0D" for ("MH-", 4).
func ReferenceCode(prefix string, n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return prefix + strings.ToUpper(hex.EncodeToString(b)), nil
}
