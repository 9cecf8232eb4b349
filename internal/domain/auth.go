package domain

import (
	"context"
	"slices"
	"time"
)

// RoleOrganizer is the role carried by organizer dashboard tokens.
const RoleOrganizer = "organizer"

// TokenClaims is what a verified token says about its bearer.
type TokenClaims struct {
	Subject string
	Roles   []string
}

// HasRole reports whether the claims include role.
func (c *TokenClaims) HasRole(role string) bool {
	return c != nil && slices.Contains(c.Roles, role)
}

// TokenIssuer issues tokens (e.g. JWT) for a participant.
type TokenIssuer interface {
	Issue(subject string, roles []string, expiry time.Duration) (string, error)
}

// TokenVerifier verifies a token and returns its claims.
type TokenVerifier interface {
	Verify(token string) (*TokenClaims, error)
}

// DashboardService issues dashboard access to organizers.
type DashboardService interface {
	IssueToken(ctx context.Context, actor *Participant) (token string, expiresAt time.Time, err error)
}
