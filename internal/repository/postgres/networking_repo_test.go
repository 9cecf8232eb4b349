package postgres

import (
	"context"
	"testing"
	"time"

	"meetupbot/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var matchCols = []string{"id", "event_id", "source_profile_id", "target_profile_id", "status", "created_at", "responded_at"}

func TestNetworkingRepository_CreateMatch(t *testing.T) {
	ctx := context.Background()
	created := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		mock        func(mock sqlmock.Sqlmock)
		wantCreated bool
		wantID      string
	}{
		{
			name: "new proposal",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`INSERT INTO networking_matches .* ON CONFLICT .* DO NOTHING`).
					WithArgs("ev-1", "py", "px", "pending", created).
					WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("m-1"))
			},
			wantCreated: true,
			wantID:      "m-1",
		},
		{
			name: "existing proposal is read back",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`INSERT INTO networking_matches`).
					WithArgs("ev-1", "py", "px", "pending", created).
					WillReturnRows(sqlmock.NewRows([]string{"id"}))
				mock.ExpectQuery(`FROM networking_matches WHERE event_id = \$1 AND source_profile_id = \$2 AND target_profile_id = \$3`).
					WithArgs("ev-1", "py", "px").
					WillReturnRows(sqlmock.NewRows(matchCols).AddRow("m-0", "ev-1", "py", "px", "skipped", created.Add(-time.Hour), created))
			},
			wantCreated: false,
			wantID:      "m-0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			tt.mock(mock)
			m := &domain.NetworkingMatch{EventID: "ev-1", SourceProfileID: "py", TargetProfileID: "px", Status: domain.MatchPending, CreatedAt: created}
			ok, err := NewNetworkingRepository(db).CreateMatch(ctx, m)
			require.NoError(t, err)
			assert.Equal(t, tt.wantCreated, ok)
			assert.Equal(t, tt.wantID, m.ID)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestNetworkingRepository_OutgoingCounts(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`GROUP BY source_profile_id`).
		WithArgs("ev-1").
		WillReturnRows(sqlmock.NewRows([]string{"source_profile_id", "count"}).AddRow("px", 2).AddRow("py", 1))

	counts, err := NewNetworkingRepository(db).OutgoingCounts(context.Background(), "ev-1")
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"px": 2, "py": 1}, counts)
}

func TestNetworkingRepository_RespondMatch_NotPending(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	at := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectExec(`UPDATE networking_matches SET status = \$2, responded_at = \$3 WHERE id = \$1 AND status = 'pending'`).
		WithArgs("m-1", "accepted", at).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`FROM networking_matches WHERE id = \$1`).
		WithArgs("m-1").
		WillReturnRows(sqlmock.NewRows(matchCols).AddRow("m-1", "ev-1", "py", "px", "skipped", at, at))

	_, err = NewNetworkingRepository(db).RespondMatch(context.Background(), "m-1", domain.MatchAccepted, at)
	require.ErrorIs(t, err, domain.ErrInvalidTransition)
	require.NoError(t, mock.ExpectationsWereMet())
}
