package security

import (
	"strings"
	"testing"
	"time"
)

func TestTokenProvider_IssueAndValidate(t *testing.T) {
	p, err := NewTestTokenProvider(time.Hour)
	if err != nil {
		t.Fatalf("NewTestTokenProvider: %v", err)
	}

	token, sessionID, exp, err := p.Issue("patient-1", "patient")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if token == "" || sessionID == "" {
		t.Fatal("token or session id empty")
	}
	if exp.Before(time.Now()) {
		t.Fatal("expires at in the past")
	}

	s, err := p.Validate(token)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if s.SubjectID != "patient-1" || s.Role != "patient" || s.SessionID != sessionID {
		t.Errorf("Validate: got subject=%q role=%q session=%q", s.SubjectID, s.Role, s.SessionID)
	}
}

func TestTokenProvider_SessionIDUniquePerIssue(t *testing.T) {
	p, err := NewTestTokenProvider(time.Hour)
	if err != nil {
		t.Fatalf("NewTestTokenProvider: %v", err)
	}
	_, sid1, _, err := p.Issue("patient-1", "patient")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	_, sid2, _, err := p.Issue("patient-1", "patient")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if sid1 == sid2 {
		t.Error("two issuances produced the same session id")
	}
}

func TestTokenProvider_ValidateInvalid(t *testing.T) {
	p, err := NewTestTokenProvider(time.Hour)
	if err != nil {
		t.Fatalf("NewTestTokenProvider: %v", err)
	}
	if _, err := p.Validate("invalid-token"); err != ErrInvalidToken {
		t.Errorf("Validate invalid token: want ErrInvalidToken, got %v", err)
	}
}

func TestTokenProvider_ValidateTampered(t *testing.T) {
	p, err := NewTestTokenProvider(time.Hour)
	if err != nil {
		t.Fatalf("NewTestTokenProvider: %v", err)
	}
	token, _, _, err := p.Issue("patient-1", "patient")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	// Flip a character in the payload segment.
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		t.Fatalf("token has %d segments, want 3", len(parts))
	}
	payload := []byte(parts[1])
	if payload[0] == 'A' {
		payload[0] = 'B'
	} else {
		payload[0] = 'A'
	}
	tampered := parts[0] + "." + string(payload) + "." + parts[2]
	if _, err := p.Validate(tampered); err != ErrInvalidToken {
		t.Errorf("Validate tampered token: want ErrInvalidToken, got %v", err)
	}
}

func TestTokenProvider_ValidateExpired(t *testing.T) {
	p, err := NewTestTokenProvider(-time.Minute)
	if err != nil {
		t.Fatalf("NewTestTokenProvider: %v", err)
	}
	token, _, _, err := p.Issue("patient-1", "patient")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := p.Validate(token); err != ErrInvalidToken {
		t.Errorf("Validate expired token: want ErrInvalidToken, got %v", err)
	}
}

func TestTokenProvider_WrongIssuer(t *testing.T) {
	signer, err := ParsePrivateKey(testPrivateKeyPEM)
	if err != nil {
		t.Fatalf("ParsePrivateKey: %v", err)
	}
	pub, err := ParsePublicKey(testPublicKeyPEM)
	if err != nil {
		t.Fatalf("ParsePublicKey: %v", err)
	}
	other := NewTokenProvider(signer, pub, "other-issuer", "test-audience", time.Hour)
	token, _, _, err := other.Issue("patient-1", "patient")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	p, err := NewTestTokenProvider(time.Hour)
	if err != nil {
		t.Fatalf("NewTestTokenProvider: %v", err)
	}
	if _, err := p.Validate(token); err != ErrInvalidToken {
		t.Errorf("Validate with wrong issuer: want ErrInvalidToken, got %v", err)
	}
}
