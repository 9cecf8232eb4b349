package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"meetupbot/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEmailService struct {
	sent []*domain.SpeakerApplicationEmailData
	err  error
}

func (f *fakeEmailService) SendSpeakerApplication(_ context.Context, data *domain.SpeakerApplicationEmailData) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, data)
	return nil
}

func draftEvent(t *testing.T, f *fixture) *domain.Event {
	t.Helper()
	e := domain.NewEvent("Autumn meetup", day.AddDate(0, 3, 0), day.AddDate(0, 3, 0).Add(6*time.Hour))
	require.NoError(t, f.events.Create(context.Background(), e))
	return e
}

func TestSpeakerApplicationService_SubmitAlertsOrganizers(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	org := f.organizer(t, "org")
	applicant := f.participant(t, "gopher")
	e := draftEvent(t, f)
	mail := &fakeEmailService{}
	s := NewSpeakerApplicationService(f.applications, f.events, f.participants, NewNotifier(f.messenger, discardLogger()),
		mail, "team@meetup.example", discardLogger(), f.clock, testTimeout)

	app, err := s.Submit(ctx, applicant, e.ID, " Profiling Go services ", "@gopher")
	require.NoError(t, err)
	assert.Equal(t, domain.ApplicationNew, app.Status)
	assert.Equal(t, "Profiling Go services", app.Topic)
	assert.Equal(t, "Autumn meetup", app.EventName)

	msgs := f.messenger.to(org.TelegramID)
	require.Len(t, msgs, 1)
	assert.True(t, strings.Contains(msgs[0].Text, "Profiling Go services"))
	assert.Equal(t, "app_reviewed:"+app.ID, msgs[0].Buttons[0][0].Data)

	require.Len(t, mail.sent, 1)
	assert.Equal(t, "team@meetup.example", mail.sent[0].To)
	assert.Equal(t, "@gopher", mail.sent[0].ApplicantTag)
	assert.Equal(t, app.ID, mail.sent[0].ApplicationID)

	fresh, err := s.ListNew(ctx)
	require.NoError(t, err)
	require.Len(t, fresh, 1)
	assert.Equal(t, app.ID, fresh[0].ID)
}

func TestSpeakerApplicationService_SubmitValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	applicant := f.participant(t, "gopher")
	draft := draftEvent(t, f)
	published := f.event(t, "Published", true)
	mail := &fakeEmailService{err: errors.New("ses: throttled")}
	s := NewSpeakerApplicationService(f.applications, f.events, f.participants, NewNotifier(f.messenger, discardLogger()),
		mail, "team@meetup.example", discardLogger(), f.clock, testTimeout)

	tests := []struct {
		name    string
		eventID string
		topic   string
		contact string
		wantErr error
	}{
		{name: "missing topic", eventID: draft.ID, topic: " ", contact: "@g", wantErr: domain.ErrInvalidInput},
		{name: "missing contact", eventID: draft.ID, topic: "Talk", contact: "", wantErr: domain.ErrInvalidInput},
		{name: "published event", eventID: published.ID, topic: "Talk", contact: "@g", wantErr: domain.ErrInvalidInput},
		{name: "unknown event", eventID: "missing", topic: "Talk", contact: "@g", wantErr: domain.ErrNotFound},
		{name: "mail failure is not fatal", eventID: draft.ID, topic: "Talk", contact: "@g"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Submit(ctx, applicant, tt.eventID, tt.topic, tt.contact)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestSpeakerApplicationService_MarkReviewed(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	org := f.organizer(t, "org")
	applicant := f.participant(t, "gopher")
	e := draftEvent(t, f)
	s := NewSpeakerApplicationService(f.applications, f.events, f.participants, NewNotifier(f.messenger, discardLogger()),
		nil, "", discardLogger(), f.clock, testTimeout)

	app, err := s.Submit(ctx, applicant, e.ID, "Talk", "@gopher")
	require.NoError(t, err)

	_, err = s.MarkReviewed(ctx, applicant, app.ID)
	require.ErrorIs(t, err, domain.ErrForbidden)

	reviewed, err := s.MarkReviewed(ctx, org, app.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ApplicationReviewed, reviewed.Status)

	again, err := s.MarkReviewed(ctx, org, app.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ApplicationReviewed, again.Status)

	fresh, err := s.ListNew(ctx)
	require.NoError(t, err)
	assert.Empty(t, fresh)

	_, err = s.MarkReviewed(ctx, org, "missing")
	require.ErrorIs(t, err, domain.ErrNotFound)
}
