package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"meetupbot/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeIssuer struct {
	subject string
	roles   []string
	expiry  time.Duration
	err     error
}

func (f *fakeIssuer) Issue(subject string, roles []string, expiry time.Duration) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.subject, f.roles, f.expiry = subject, roles, expiry
	return "signed-token", nil
}

func TestDashboardService_IssueToken(t *testing.T) {
	ctx := context.Background()
	now := at(9, 0)
	clock := func() time.Time { return now }

	tests := []struct {
		name    string
		actor   *domain.Participant
		issuer  *fakeIssuer
		wantErr error
	}{
		{name: "organizer", actor: &domain.Participant{ID: "org-1", IsOrganizer: true}, issuer: &fakeIssuer{}},
		{name: "participant", actor: &domain.Participant{ID: "p-1"}, issuer: &fakeIssuer{}, wantErr: domain.ErrForbidden},
		{name: "nobody", issuer: &fakeIssuer{}, wantErr: domain.ErrForbidden},
		{name: "signing failure", actor: &domain.Participant{ID: "org-1", IsOrganizer: true}, issuer: &fakeIssuer{err: errors.New("bad key")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewDashboardService(tt.issuer, 15*time.Minute, clock)
			token, expiresAt, err := s.IssueToken(ctx, tt.actor)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			if tt.issuer.err != nil {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "signed-token", token)
			assert.Equal(t, now.Add(15*time.Minute), expiresAt)
			assert.Equal(t, "org-1", tt.issuer.subject)
			assert.Equal(t, []string{domain.RoleOrganizer}, tt.issuer.roles)
		})
	}
}
