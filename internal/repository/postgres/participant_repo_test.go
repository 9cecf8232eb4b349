package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"meetupbot/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var participantCols = []string{"id", "telegram_id", "username", "first_name", "last_name",
	"is_speaker", "is_organizer", "wants_notifications", "created_at", "updated_at"}

func TestParticipantRepository_Upsert(t *testing.T) {
	ctx := context.Background()
	created := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`INSERT INTO participants`).
		WithArgs(int64(42), "ann", "Ann", "Lee", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "is_speaker", "is_organizer", "wants_notifications", "created_at", "updated_at"}).
			AddRow("p-1", true, false, true, created, created))

	p := &domain.Participant{TelegramID: 42, Username: "ann", FirstName: "Ann", LastName: "Lee"}
	require.NoError(t, NewParticipantRepository(db).Upsert(ctx, p))

	assert.Equal(t, "p-1", p.ID)
	assert.True(t, p.IsSpeaker)
	assert.False(t, p.IsOrganizer)
	assert.True(t, p.WantsNotifications)
	assert.Equal(t, created, p.CreatedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestParticipantRepository_GetByTelegramID(t *testing.T) {
	ctx := context.Background()
	created := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		mock    func(mock sqlmock.Sqlmock)
		wantErr error
	}{
		{
			name: "found",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT .* FROM participants WHERE telegram_id = \$1`).
					WithArgs(int64(42)).
					WillReturnRows(sqlmock.NewRows(participantCols).
						AddRow("p-1", int64(42), "ann", "Ann", "Lee", false, true, true, created, created))
			},
		},
		{
			name: "not found",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT .* FROM participants`).WillReturnError(sql.ErrNoRows)
			},
			wantErr: domain.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			tt.mock(mock)
			p, err := NewParticipantRepository(db).GetByTelegramID(ctx, 42)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "p-1", p.ID)
			assert.True(t, p.IsOrganizer)
			assert.Equal(t, "Ann Lee", p.DisplayName())
		})
	}
}

func TestParticipantRepository_SetWantsNotifications(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		affected int64
		wantErr  error
	}{
		{name: "updated", affected: 1},
		{name: "unknown participant", affected: 0, wantErr: domain.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			mock.ExpectExec(`UPDATE participants SET wants_notifications`).
				WithArgs("p-1", false, sqlmock.AnyArg()).
				WillReturnResult(sqlmock.NewResult(0, tt.affected))

			err = NewParticipantRepository(db).SetWantsNotifications(ctx, "p-1", false)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestParticipantRepository_ListOrganizers(t *testing.T) {
	ctx := context.Background()
	created := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`FROM participants WHERE is_organizer`).
		WillReturnRows(sqlmock.NewRows(participantCols).
			AddRow("p-1", int64(1), "", "Ann", "", false, true, true, created, created).
			AddRow("p-2", int64(2), "bob", "", "", false, true, false, created, created))

	got, err := NewParticipantRepository(db).ListOrganizers(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Ann", got[0].DisplayName())
	assert.Equal(t, "@bob", got[1].DisplayName())
}
