package util

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Fingerprint creates a deterministic hash over the given parts, joined
// with a separator so ("ab","c") and ("a","bc") hash differently.
func Fingerprint(parts ...string) string {
	hash := sha256.Sum256([]byte(strings.Join(parts, "\x00")))
	return hex.EncodeToString(hash[:])
}
