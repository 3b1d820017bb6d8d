// Package auth implements signing and parsing of the self-contained JWTs
// issued and validated by the server (HS256 over a shared secret).
package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/dmitrijs2005/tokenkeeper/internal/common"
)

// Grant type values stamped into tokens and accepted by the issuer.
const (
	GrantClientCredentials = "client_credentials"
	GrantRefreshToken      = "refresh_token"
)

// Claims embeds the registered JWT claims plus the custom claims carried by
// issued tokens. Immutable once embedded in a signed token.
type Claims struct {
	jwt.RegisteredClaims
	GrantType string `json:"grant_type,omitempty"`
	Scope     string `json:"scope,omitempty"`
}

// NewClaims builds the claim set for a token issued to subject at the given
// instant with the given lifetime.
func NewClaims(subject, issuer, audience, grantType, scope string, issuedAt time.Time, ttl time.Duration) *Claims {
	return &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    issuer,
			Audience:  jwt.ClaimStrings{audience},
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(ttl)),
		},
		GrantType: grantType,
		Scope:     scope,
	}
}

// SignToken signs the claims with HS256 over the given secret.
func SignToken(claims *Claims, secret []byte) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString(secret)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// ParseToken verifies the token signature and returns its claims. Time,
// issuer and audience validation is intentionally left to the caller: the
// validation pipeline owns the check order and the per-check reason tags.
func ParseToken(tokenString string, secret []byte) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
	}

	if !token.Valid {
		return nil, common.ErrInvalidToken
	}

	return claims, nil
}
