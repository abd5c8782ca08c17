package security

import "golang.org/x/crypto/bcrypt"

// Hasher wraps bcrypt for password storage. Plaintext passwords must never
// be logged or persisted.
type Hasher struct {
	Cost int
}

// NewHasher clamps cost into bcrypt's supported range; a non-positive cost
// falls back to bcrypt.DefaultCost.
func NewHasher(cost int) *Hasher {
	switch {
	case cost <= 0:
		cost = bcrypt.DefaultCost
	case cost < bcrypt.MinCost:
		cost = bcrypt.MinCost
	case cost > bcrypt.MaxCost:
		cost = bcrypt.MaxCost
	}
	return &Hasher{Cost: cost}
}

// Hash returns the bcrypt hash of password in storable string form.
func (h *Hasher) Hash(password []byte) (string, error) {
	b, err := bcrypt.GenerateFromPassword(password, h.Cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Compare reports whether password matches the stored hash. A mismatch
// surfaces as bcrypt.ErrMismatchedHashAndPassword.
func (h *Hasher) Compare(hash string, password []byte) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), password)
}
