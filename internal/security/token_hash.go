package security

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashToken returns the hex-encoded SHA-256 of the token string. The
// revocation deny-list stores these hashes instead of raw session ids, so a
// leaked deny-list exposes no usable identifiers.
func HashToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}
