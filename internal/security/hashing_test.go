package security

import (
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestHasher_HashAndCompare(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)
	hash, err := h.Hash([]byte("secret-password"))
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if hash == "" || hash == "secret-password" {
		t.Fatal("hash empty or equal to plaintext")
	}
	if err := h.Compare(hash, []byte("secret-password")); err != nil {
		t.Errorf("Compare with correct password: %v", err)
	}
	if err := h.Compare(hash, []byte("wrong-password")); err == nil {
		t.Error("Compare with wrong password should fail")
	}
}

func TestNewHasher_CostClamping(t *testing.T) {
	if h := NewHasher(0); h.Cost != bcrypt.DefaultCost {
		t.Errorf("cost 0: got %d, want default %d", h.Cost, bcrypt.DefaultCost)
	}
	if h := NewHasher(2); h.Cost != bcrypt.MinCost {
		t.Errorf("cost 2: got %d, want min %d", h.Cost, bcrypt.MinCost)
	}
	if h := NewHasher(99); h.Cost != bcrypt.MaxCost {
		t.Errorf("cost 99: got %d, want max %d", h.Cost, bcrypt.MaxCost)
	}
}

func TestHasher_CompareInvalidHash(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)
	if err := h.Compare("not-a-bcrypt-hash", []byte("anything")); err == nil {
		t.Error("Compare with invalid hash should fail")
	}
}
