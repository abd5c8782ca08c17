package security

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/rsa"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	// ErrInvalidToken is returned when a token is malformed, tampered with,
	// expired, or carries the wrong issuer/audience.
	ErrInvalidToken = errors.New("invalid token")
)

// SessionClaims holds JWT claims for a session token. The registered ID claim
// (jti) is the session id; Subject is the patient/user id.
type SessionClaims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

// Session is the verified content of a session token.
type Session struct {
	SessionID string
	SubjectID string
	Role      string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// TokenProvider issues and validates signed session tokens using RS256 or
// ES256 (private/public key). Validation checks signature, expiry, issuer,
// and audience only; revocation is the access guard's concern, so the
// provider stays a pure verifier usable outside the request pipeline.
type TokenProvider struct {
	privateKey crypto.Signer
	publicKey  crypto.PublicKey
	issuer     string
	audience   string
	sessionTTL time.Duration
}

// NewTokenProvider returns a TokenProvider that signs with the given private
// key (RSA or ECDSA). issuer and audience are set on claims and validated.
func NewTokenProvider(privateKey crypto.Signer, publicKey crypto.PublicKey, issuer, audience string, sessionTTL time.Duration) *TokenProvider {
	return &TokenProvider{
		privateKey: privateKey,
		publicKey:  publicKey,
		issuer:     issuer,
		audience:   audience,
		sessionTTL: sessionTTL,
	}
}

// Issue mints a session token for the given subject and role with a fresh
// unique session id. Returns the signed token, the session id, and the
// absolute expiry.
func (p *TokenProvider) Issue(subjectID, role string) (token string, sessionID string, expiresAt time.Time, err error) {
	sessionID = uuid.New().String()
	now := time.Now().UTC()
	expiresAt = now.Add(p.sessionTTL)
	claims := SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        sessionID,
			Subject:   subjectID,
			Issuer:    p.issuer,
			Audience:  jwt.ClaimStrings{p.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Role: role,
	}
	token, err = p.sign(claims)
	if err != nil {
		return "", "", time.Time{}, err
	}
	return token, sessionID, expiresAt, nil
}

func (p *TokenProvider) sign(claims jwt.Claims) (string, error) {
	var method jwt.SigningMethod
	switch p.privateKey.Public().(type) {
	case *rsa.PublicKey:
		method = jwt.SigningMethodRS256
	case *ecdsa.PublicKey:
		method = jwt.SigningMethodES256
	default:
		return "", ErrInvalidToken
	}
	t := jwt.NewWithClaims(method, claims)
	return t.SignedString(p.privateKey)
}

// Validate parses and validates a session token (signature, exp, iss, aud).
// Any failure, including tampered claims, returns ErrInvalidToken.
func (p *TokenProvider) Validate(tokenString string) (*Session, error) {
	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodRSA); ok {
			return p.publicKey, nil
		}
		if _, ok := token.Method.(*jwt.SigningMethodECDSA); ok {
			return p.publicKey, nil
		}
		return nil, ErrInvalidToken
	})
	if err != nil {
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Issuer != p.issuer {
		return nil, ErrInvalidToken
	}
	audOk := false
	for _, a := range claims.Audience {
		if a == p.audience {
			audOk = true
			break
		}
	}
	if !audOk {
		return nil, ErrInvalidToken
	}
	s := &Session{
		SessionID: claims.ID,
		SubjectID: claims.Subject,
		Role:      claims.Role,
	}
	if claims.IssuedAt != nil {
		s.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		s.ExpiresAt = claims.ExpiresAt.Time
	}
	return s, nil
}
