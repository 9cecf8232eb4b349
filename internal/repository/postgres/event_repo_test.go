package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"meetupbot/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var eventCols = []string{"id", "name", "description", "place_id", "name", "address", "start_at", "end_at",
	"is_active", "is_published", "announcements_enabled", "current_talk_id", "created_at", "updated_at"}

func eventRow(rows *sqlmock.Rows, id string, start time.Time, currentTalk any) *sqlmock.Rows {
	return rows.AddRow(id, "GoMeetup", "", "pl-1", "Hall", "Main st. 1", start, start.Add(4*time.Hour),
		true, true, true, currentTalk, start, start)
}

func TestEventRepository_Create(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		event   *domain.Event
		mock    func(mock sqlmock.Sqlmock)
		wantID  string
		wantErr bool
	}{
		{
			name:  "success without place",
			event: &domain.Event{Name: "GoMeetup", StartAt: start, EndAt: start.Add(time.Hour), CreatedAt: start, UpdatedAt: start},
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`INSERT INTO events`).
					WithArgs("GoMeetup", "", nil, start, start.Add(time.Hour), false, false, false, start, start).
					WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("ev-1"))
			},
			wantID: "ev-1",
		},
		{
			name:  "db error",
			event: &domain.Event{Name: "GoMeetup"},
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`INSERT INTO events`).WillReturnError(sql.ErrConnDone)
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			tt.mock(mock)
			repo := NewEventRepository(db)
			err = repo.Create(ctx, tt.event)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.wantID, tt.event.ID)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestEventRepository_GetActive(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)

	t.Run("found with place and pointer", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`WHERE e.is_active ORDER BY e.start_at DESC LIMIT 1`).
			WillReturnRows(eventRow(sqlmock.NewRows(eventCols), "ev-1", start, "talk-2"))

		e, err := NewEventRepository(db).GetActive(ctx)
		require.NoError(t, err)
		assert.Equal(t, "ev-1", e.ID)
		require.NotNil(t, e.Place)
		assert.Equal(t, "Hall", e.Place.Name)
		require.NotNil(t, e.CurrentTalkID)
		assert.Equal(t, "talk-2", *e.CurrentTalkID)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("none active", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`WHERE e.is_active`).WillReturnRows(sqlmock.NewRows(eventCols))

		_, err = NewEventRepository(db).GetActive(ctx)
		require.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestEventRepository_Activate(t *testing.T) {
	ctx := context.Background()
	errLockTimeout := errors.New("canceling statement due to lock timeout")

	tests := []struct {
		name    string
		mock    func(mock sqlmock.Sqlmock)
		wantErr error
	}{
		{
			name: "deactivates the others",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec(`SELECT pg_advisory_xact_lock\(\$1\)`).
					WithArgs(activateLockKey).
					WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectQuery(`SELECT id FROM events WHERE id = \$1 FOR UPDATE`).
					WithArgs("ev-2").
					WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("ev-2"))
				mock.ExpectExec(`UPDATE events SET is_active = \(id = \$1\)`).
					WithArgs("ev-2", sqlmock.AnyArg()).
					WillReturnResult(sqlmock.NewResult(0, 2))
				mock.ExpectCommit()
			},
		},
		{
			name: "unknown event",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec(`SELECT pg_advisory_xact_lock`).
					WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectQuery(`SELECT id FROM events`).
					WithArgs("missing").
					WillReturnRows(sqlmock.NewRows([]string{"id"}))
				mock.ExpectRollback()
			},
			wantErr: domain.ErrNotFound,
		},
		{
			name: "lock not acquired",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec(`SELECT pg_advisory_xact_lock`).
					WillReturnError(errLockTimeout)
				mock.ExpectRollback()
			},
			wantErr: errLockTimeout,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			tt.mock(mock)
			id := "ev-2"
			if tt.wantErr != nil {
				id = "missing"
			}
			err = NewEventRepository(db).Activate(ctx, id)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}
