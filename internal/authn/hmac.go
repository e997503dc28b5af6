package authn

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// HMACVerifier accepts HS256/384/512 tokens signed with a shared secret.
type HMACVerifier struct {
	secret []byte
	issuer string
}

func NewHMACVerifier(secret, issuer string) *HMACVerifier {
	return &HMACVerifier{secret: []byte(secret), issuer: issuer}
}

func (h *HMACVerifier) Method() string { return "hmac" }

func (h *HMACVerifier) Verify(raw string) (string, error) {
	token, err := jwt.Parse(raw, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %T", token.Method)
		}
		return h.secret, nil
	})
	if err != nil || !token.Valid {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", fmt.Errorf("%w: claims", ErrInvalidToken)
	}
	if iss, _ := claims["iss"].(string); iss != "" && h.issuer != "" && iss != h.issuer {
		return "", fmt.Errorf("%w: issuer %q", ErrInvalidToken, iss)
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return "", fmt.Errorf("%w: no subject", ErrInvalidToken)
	}
	return sub, nil
}
