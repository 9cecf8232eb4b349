package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"meetupbot/internal/domain"
)

type jwtClaims struct {
	jwt.RegisteredClaims
	Roles []string `json:"roles"`
}

// JWTIssuer signs and verifies organizer dashboard tokens.
type JWTIssuer struct {
	secret []byte
	now    func() time.Time
}

// NewJWTIssuer returns a TokenIssuer and TokenVerifier that sign and check HS256
// JWTs with the given secret.
func NewJWTIssuer(secret string) *JWTIssuer {
	return &JWTIssuer{secret: []byte(secret), now: time.Now}
}

func (i *JWTIssuer) Issue(subject string, roles []string, expiry time.Duration) (string, error) {
	now := i.now()
	claims := jwtClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
		},
		Roles: roles,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenString, nil
}

// Verify parses tokenString and returns its claims. Expired, malformed or foreign
// tokens yield domain.ErrForbidden.
func (i *JWTIssuer) Verify(tokenString string) (*domain.TokenClaims, error) {
	claims := &jwtClaims{}
	parsed, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(i.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !parsed.Valid {
		return nil, errors.Join(domain.ErrForbidden, err)
	}
	return &domain.TokenClaims{Subject: claims.Subject, Roles: claims.Roles}, nil
}

var (
	_ domain.TokenIssuer   = (*JWTIssuer)(nil)
	_ domain.TokenVerifier = (*JWTIssuer)(nil)
)
