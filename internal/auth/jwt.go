package auth

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
)

// Claims are the token claims issued to API callers. The optional customers
// claim restricts a token to a subset of customer ids.
type Claims struct {
	Role      string   `json:"role"`
	Customers []string `json:"customers,omitempty"`
	jwt.RegisteredClaims
}

// VerifyToken checks an HS256 bearer token and returns the caller identity.
// Expiry and not-before are validated by the parser.
func VerifyToken(token string, secret []byte) (Identity, error) {
	if token == "" {
		return Identity{}, errors.New("auth: missing token")
	}
	if len(secret) == 0 {
		return Identity{}, errors.New("auth: empty secret")
	}

	claims := &Claims{}
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	parsed, err := parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return secret, nil
	})
	if err != nil {
		return Identity{}, err
	}
	if !parsed.Valid {
		return Identity{}, errors.New("auth: invalid token")
	}
	if claims.Subject == "" {
		return Identity{}, errors.New("auth: token has no subject")
	}
	role, err := ParseRole(claims.Role)
	if err != nil {
		return Identity{}, err
	}
	return Identity{
		Subject:   claims.Subject,
		Role:      role,
		Customers: claims.Customers,
	}, nil
}
