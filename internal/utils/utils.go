package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// ShortenString truncates s to l characters, appending "..." if something
// was cut off. l == 0 means no limit.
func ShortenString(s string, l int) string {
	if len(s) > l && l != 0 {
		return fmt.Sprintf("%s...", s[:l])
	}
	return s
}

// RandomString returns the given base string with a random hex suffix,
// separated by a dash.
func RandomString(base string) (string, error) {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%s", base, hex.EncodeToString(b)), nil
}
