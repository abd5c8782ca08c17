package security

import "testing"

func TestHashToken_Deterministic(t *testing.T) {
	a := HashToken("token-value")
	b := HashToken("token-value")
	if a != b {
		t.Errorf("HashToken not deterministic: %q != %q", a, b)
	}
	if a == "token-value" || a == "" {
		t.Error("hash should be non-empty and differ from input")
	}
	if len(a) != 64 {
		t.Errorf("hash length = %d, want 64 hex chars", len(a))
	}
}

func TestHashToken_DistinctInputs(t *testing.T) {
	if HashToken("session-a") == HashToken("session-b") {
		t.Error("different tokens should hash differently")
	}
}
