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

func TestSpeakerApplicationRepository(t *testing.T) {
	ctx := context.Background()
	created := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	cols := []string{"id", "participant_id", "telegram_id", "username", "first_name", "last_name",
		"event_id", "name", "topic", "contact", "status", "created_at", "updated_at"}

	t.Run("create", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`INSERT INTO speaker_applications`).
			WithArgs("p-1", "ev-1", "Generics", "@ann", "new", created, created).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("a-1"))

		a := &domain.SpeakerApplication{ParticipantID: "p-1", EventID: "ev-1", Topic: "Generics", Contact: "@ann",
			Status: domain.ApplicationNew, CreatedAt: created, UpdatedAt: created}
		require.NoError(t, NewSpeakerApplicationRepository(db).Create(ctx, a))
		assert.Equal(t, "a-1", a.ID)
	})

	t.Run("list by status joins participant and event", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`FROM speaker_applications a`).
			WithArgs("new").
			WillReturnRows(sqlmock.NewRows(cols).
				AddRow("a-1", "p-1", int64(7), "ann", "Ann", "", "ev-1", "Go Meetup", "Generics", "@ann", "new", created, created))

		got, err := NewSpeakerApplicationRepository(db).ListByStatus(ctx, domain.ApplicationNew)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "Go Meetup", got[0].EventName)
		assert.Equal(t, "p-1", got[0].Participant.ID)
		assert.Equal(t, int64(7), got[0].Participant.TelegramID)
	})

	t.Run("set status on unknown application", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectExec(`UPDATE speaker_applications SET status`).
			WithArgs("a-9", "reviewed", sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err = NewSpeakerApplicationRepository(db).SetStatus(ctx, "a-9", domain.ApplicationReviewed)
		require.ErrorIs(t, err, domain.ErrNotFound)
	})
}
