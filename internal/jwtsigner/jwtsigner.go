// Package jwtsigner issues HS256 bearer tokens for local development and
// tests. Production tokens come from the forum's session service.
package jwtsigner

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/16AA-Milsim/discourse-recruit-tracker/internal/domain"
)

// Signer holds the shared secret the HMAC verifier checks against.
type Signer struct {
	secret []byte
	Issuer string
	now    func() time.Time
}

func New(secret, issuer string) (*Signer, error) {
	if secret == "" {
		return nil, errors.New("jwtsigner: empty secret")
	}
	return &Signer{secret: []byte(secret), Issuer: issuer, now: time.Now}, nil
}

// Sign issues a token whose subject is the user's id.
func (s *Signer) Sign(userID domain.UserID, ttl time.Duration) (string, error) {
	if userID <= 0 {
		return "", errors.New("jwtsigner: user id must be positive")
	}
	now := s.now()
	claims := jwt.RegisteredClaims{
		Issuer:    s.Issuer,
		Subject:   strconv.FormatInt(userID, 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}
