package otp

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// CodeDigits is the fixed length of issued codes.
const CodeDigits = 6

// GenerateCode returns a 6-digit numeric code string (e.g. "123456").
// Uses crypto/rand; bytes >= 250 are rejected so every digit is uniform.
func GenerateCode() (string, error) {
	s := make([]byte, CodeDigits)
	buf := make([]byte, CodeDigits)
	for i := 0; i < CodeDigits; {
		if _, err := rand.Read(buf); err != nil {
			return "", err
		}
		for _, b := range buf {
			if i == CodeDigits {
				break
			}
			if b >= 250 {
				continue
			}
			s[i] = '0' + b%10
			i++
		}
	}
	return string(s), nil
}

// HashCode returns a SHA-256 hash of the code string, hex-encoded. Challenges
// store only the hash.
func HashCode(code string) string {
	h := sha256.Sum256([]byte(code))
	return hex.EncodeToString(h[:])
}

// CodeEqual performs constant-time comparison of the provided code's hash
// with the stored hash.
func CodeEqual(providedCode, storedHash string) bool {
	providedHash := HashCode(providedCode)
	return subtle.ConstantTimeCompare([]byte(providedHash), []byte(storedHash)) == 1
}
