package services

import (
	"context"
	"fmt"
	"time"

	"meetupbot/internal/domain"
)

type dashboardService struct {
	issuer    domain.TokenIssuer
	jwtExpiry time.Duration
	now       func() time.Time
}

// NewDashboardService returns a DashboardService that signs organizer tokens with issuer.
func NewDashboardService(issuer domain.TokenIssuer, jwtExpiry time.Duration, now func() time.Time) domain.DashboardService {
	if now == nil {
		now = time.Now
	}
	return &dashboardService{issuer: issuer, jwtExpiry: jwtExpiry, now: now}
}

// IssueToken returns a short-lived dashboard token. Only organizers get one.
func (s *dashboardService) IssueToken(ctx context.Context, actor *domain.Participant) (string, time.Time, error) {
	if actor == nil || !actor.IsOrganizer {
		return "", time.Time{}, domain.ErrForbidden
	}
	token, err := s.issuer.Issue(actor.ID, []string{domain.RoleOrganizer}, s.jwtExpiry)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to issue token: %w", err)
	}
	return token, s.now().Add(s.jwtExpiry), nil
}
