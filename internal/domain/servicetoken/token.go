// Package servicetoken signs and verifies the short-lived HS256 tokens that the
// ingest and chat clients present to the model server.
package servicetoken

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	apperrors "github.com/yanqian/shopbot/pkg/errors"
)

const (
	defaultTTL = 5 * time.Minute
	audience   = "modelserver"
)

// Claims is the verified content of a service token.
type Claims struct {
	Subject   string
	ExpiresAt time.Time
}

type tokenClaims struct {
	jwt.RegisteredClaims
}

// Signer issues tokens for one calling service.
type Signer struct {
	secret  []byte
	subject string
	ttl     time.Duration
	now     func() time.Time
}

// NewSigner constructs a signer. subject names the calling binary.
func NewSigner(secret, subject string, ttl time.Duration) (*Signer, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("service token secret cannot be empty")
	}
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Signer{secret: []byte(secret), subject: subject, ttl: ttl, now: time.Now}, nil
}

// Sign returns a fresh token.
func (s *Signer) Sign() (string, error) {
	now := s.now()
	claims := tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   s.subject,
			Audience:  jwt.ClaimStrings{audience},
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", apperrors.Wrap(apperrors.CodeInvalidToken, "failed to sign token", err)
	}
	return signed, nil
}

// Verifier validates tokens issued by a Signer sharing the same secret.
type Verifier struct {
	secret []byte
}

// NewVerifier constructs a verifier.
func NewVerifier(secret string) (*Verifier, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("service token secret cannot be empty")
	}
	return &Verifier{secret: []byte(secret)}, nil
}

// Verify parses the token and checks signature, audience and expiry.
func (v *Verifier) Verify(token string) (Claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &tokenClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %s", t.Method.Alg())
		}
		return v.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(audience),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return Claims{}, apperrors.Wrap(apperrors.CodeInvalidToken, "token validation failed", err)
	}
	claims, ok := parsed.Claims.(*tokenClaims)
	if !ok || !parsed.Valid {
		return Claims{}, apperrors.Wrap(apperrors.CodeInvalidToken, "token invalid", nil)
	}
	return Claims{Subject: claims.Subject, ExpiresAt: claims.ExpiresAt.Time}, nil
}
