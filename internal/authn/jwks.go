package authn

import (
	"fmt"
	"time"

	"github.com/MicahParks/keyfunc"
	"github.com/golang-jwt/jwt/v4"
)

// JWKSVerifier validates tokens against a remote key set that is refreshed
// in the background.
type JWKSVerifier struct {
	jwks   *keyfunc.JWKS
	issuer string
}

func NewJWKSVerifier(jwksURL, issuer string) (*JWKSVerifier, error) {
	jwks, err := keyfunc.Get(jwksURL, keyfunc.Options{
		RefreshInterval:   15 * time.Minute,
		RefreshTimeout:    10 * time.Second,
		RefreshUnknownKID: true,
	})
	if err != nil {
		return nil, fmt.Errorf("load jwks: %w", err)
	}
	return &JWKSVerifier{jwks: jwks, issuer: issuer}, nil
}

func (j *JWKSVerifier) Method() string { return "jwks" }

func (j *JWKSVerifier) Verify(raw string) (string, error) {
	token, err := jwt.Parse(raw, j.jwks.Keyfunc)
	if err != nil || !token.Valid {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", fmt.Errorf("%w: claims", ErrInvalidToken)
	}
	if iss, _ := claims["iss"].(string); iss != "" && j.issuer != "" && iss != j.issuer {
		return "", fmt.Errorf("%w: issuer %q", ErrInvalidToken, iss)
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return "", fmt.Errorf("%w: no subject", ErrInvalidToken)
	}
	return sub, nil
}

// Close stops the background refresh.
func (j *JWKSVerifier) Close() { j.jwks.EndBackground() }
