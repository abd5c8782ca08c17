package security

import (
	"crypto/rsa"
	"testing"
)

func TestParsePrivateKey_InlinePEM(t *testing.T) {
	signer, err := ParsePrivateKey(testPrivateKeyPEM)
	if err != nil {
		t.Fatalf("ParsePrivateKey: %v", err)
	}
	if signer == nil {
		t.Fatal("signer is nil")
	}
	if _, ok := signer.Public().(*rsa.PublicKey); !ok {
		t.Errorf("public key type = %T, want *rsa.PublicKey", signer.Public())
	}
}

func TestParsePublicKey_InlinePEM(t *testing.T) {
	pub, err := ParsePublicKey(testPublicKeyPEM)
	if err != nil {
		t.Fatalf("ParsePublicKey: %v", err)
	}
	if _, ok := pub.(*rsa.PublicKey); !ok {
		t.Errorf("public key type = %T, want *rsa.PublicKey", pub)
	}
}

func TestParseKeys_Invalid(t *testing.T) {
	if _, err := ParsePrivateKey(""); err == nil {
		t.Error("ParsePrivateKey with empty input should fail")
	}
	if _, err := ParsePrivateKey("not pem at all"); err == nil {
		t.Error("ParsePrivateKey with garbage should fail")
	}
	if _, err := ParsePublicKey("-----BEGIN GARBAGE-----\nZm9v\n-----END GARBAGE-----"); err == nil {
		t.Error("ParsePublicKey with unknown block type should fail")
	}
}

func TestKeyAlg(t *testing.T) {
	pub, err := ParsePublicKey(testPublicKeyPEM)
	if err != nil {
		t.Fatalf("ParsePublicKey: %v", err)
	}
	if alg := KeyAlg(pub); alg != "RS256" {
		t.Errorf("KeyAlg = %q, want RS256", alg)
	}
	if alg := KeyAlg(nil); alg != "" {
		t.Errorf("KeyAlg(nil) = %q, want empty", alg)
	}
}
