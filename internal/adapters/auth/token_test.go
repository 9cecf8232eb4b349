package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"meetupbot/internal/domain"
)

func TestJWTIssuer_Issue(t *testing.T) {
	secret := "test-secret"
	issuer := NewJWTIssuer(secret)

	token, err := issuer.Issue("participant-123", []string{domain.RoleOrganizer}, time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	parsed, err := jwt.ParseWithClaims(token, &jwtClaims{}, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	require.NoError(t, err)
	require.True(t, parsed.Valid)
	claims, ok := parsed.Claims.(*jwtClaims)
	require.True(t, ok)
	assert.Equal(t, "participant-123", claims.Subject)
	assert.Equal(t, []string{domain.RoleOrganizer}, claims.Roles)
}

func TestJWTIssuer_Verify(t *testing.T) {
	issuer := NewJWTIssuer("test-secret")
	valid, err := issuer.Issue("p-1", []string{domain.RoleOrganizer}, time.Hour)
	require.NoError(t, err)
	expired, err := issuer.Issue("p-1", []string{domain.RoleOrganizer}, -time.Minute)
	require.NoError(t, err)
	foreign, err := NewJWTIssuer("other-secret").Issue("p-1", nil, time.Hour)
	require.NoError(t, err)
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwtClaims{}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	claims, err := issuer.Verify(valid)
	require.NoError(t, err)
	assert.Equal(t, "p-1", claims.Subject)
	assert.True(t, claims.HasRole(domain.RoleOrganizer))

	for name, token := range map[string]string{
		"expired":  expired,
		"foreign":  foreign,
		"unsigned": unsigned,
		"garbage":  "not-a-token",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := issuer.Verify(token)
			require.ErrorIs(t, err, domain.ErrForbidden)
		})
	}
}
