package httpapi

import (
	"errors"
	"fmt"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"

	"stockroom/internal/domain"
)

const tokenIssuer = "stockroom"

var errInvalidToken = errors.New("invalid or expired token")

type accessClaims struct {
	jwtlib.RegisteredClaims
	Role string `json:"role"`
}

// tokenSigner issues and verifies HS256 access tokens.
type tokenSigner struct {
	secret []byte
	ttl    time.Duration
	parser *jwtlib.Parser
}

func newTokenSigner(secret string, ttl time.Duration) tokenSigner {
	return tokenSigner{
		secret: []byte(secret),
		ttl:    ttl,
		parser: jwtlib.NewParser(
			jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Alg()}),
			jwtlib.WithIssuer(tokenIssuer),
			jwtlib.WithExpirationRequired(),
		),
	}
}

func (s tokenSigner) issue(actor domain.Actor, now time.Time) (string, time.Time, error) {
	expiresAt := now.Add(s.ttl)
	claims := accessClaims{
		RegisteredClaims: jwtlib.RegisteredClaims{
			Subject:   actor.Username,
			Issuer:    tokenIssuer,
			IssuedAt:  jwtlib.NewNumericDate(now),
			ExpiresAt: jwtlib.NewNumericDate(expiresAt),
		},
		Role: actor.Role,
	}
	signed, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// verify accepts only tokens this signer could have issued for a known role.
func (s tokenSigner) verify(raw string) (domain.Actor, error) {
	var claims accessClaims
	token, err := s.parser.ParseWithClaims(raw, &claims, func(*jwtlib.Token) (any, error) {
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return domain.Actor{}, errInvalidToken
	}
	if claims.Subject == "" {
		return domain.Actor{}, errInvalidToken
	}
	switch claims.Role {
	case domain.RoleAdmin, domain.RoleStaff:
	default:
		return domain.Actor{}, errInvalidToken
	}
	return domain.Actor{Username: claims.Subject, Role: claims.Role}, nil
}
