package services

import (
	"context"
	"errors"
	"testing"

	"meetupbot/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingMailer struct {
	to, subject, html, text string
	err                     error
}

func (m *recordingMailer) Send(to, subject, html, text string) error {
	if m.err != nil {
		return m.err
	}
	m.to, m.subject, m.html, m.text = to, subject, html, text
	return nil
}

type stubRenderer struct {
	name string
	err  error
}

func (r *stubRenderer) Render(name string, data any) (string, string, string, error) {
	if r.err != nil {
		return "", "", "", r.err
	}
	r.name = name
	d := data.(*domain.SpeakerApplicationEmailData)
	return "New application: " + d.Topic, "<p>" + d.Topic + "</p>", d.Topic, nil
}

func TestEmailService_SendSpeakerApplication(t *testing.T) {
	ctx := context.Background()
	data := &domain.SpeakerApplicationEmailData{To: "team@meetup.example", Topic: "Fuzzing", ApplicationID: "app-1"}

	t.Run("renders and sends", func(t *testing.T) {
		mailer, renderer := &recordingMailer{}, &stubRenderer{}
		s := NewEmailService(mailer, renderer, discardLogger())
		require.NoError(t, s.SendSpeakerApplication(ctx, data))
		assert.Equal(t, "speaker_application", renderer.name)
		assert.Equal(t, "team@meetup.example", mailer.to)
		assert.Equal(t, "New application: Fuzzing", mailer.subject)
		assert.Equal(t, "Fuzzing", mailer.text)
	})

	t.Run("no recipient", func(t *testing.T) {
		s := NewEmailService(&recordingMailer{}, &stubRenderer{}, discardLogger())
		require.Error(t, s.SendSpeakerApplication(ctx, &domain.SpeakerApplicationEmailData{Topic: "x"}))
		require.Error(t, s.SendSpeakerApplication(ctx, nil))
	})

	t.Run("render failure", func(t *testing.T) {
		s := NewEmailService(&recordingMailer{}, &stubRenderer{err: errors.New("missing template")}, discardLogger())
		require.ErrorContains(t, s.SendSpeakerApplication(ctx, data), "render")
	})

	t.Run("send failure", func(t *testing.T) {
		s := NewEmailService(&recordingMailer{err: errors.New("throttled")}, &stubRenderer{}, discardLogger())
		require.ErrorContains(t, s.SendSpeakerApplication(ctx, data), "throttled")
	})
}
