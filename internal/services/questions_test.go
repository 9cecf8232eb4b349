package services

import (
	"context"
	"strings"
	"testing"

	"meetupbot/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuestionRouter_AnonymousQuestionStaysPending(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	org := f.organizer(t, "org")
	e := f.event(t, "GoMeetup", true)
	f.talk(t, e, "T1", at(10, 0), at(10, 30), nil)
	t2 := f.talk(t, e, "T2", at(10, 30), at(11, 0), nil)
	_, err := f.scheduler().Start(ctx, org, t2.ID)
	require.NoError(t, err)
	f.now = at(10, 35)

	q, err := f.router().Submit(ctx, t2.ID, nil, "  What about generics?  ")
	require.NoError(t, err)
	assert.Equal(t, domain.QuestionPending, q.Status)
	assert.Nil(t, q.AuthorID)
	assert.Equal(t, at(10, 35), q.AskedAt)
	assert.Equal(t, "What about generics?", q.Text)

	stored, err := f.questions.GetByID(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.QuestionPending, stored.Status)
	assert.Nil(t, stored.Author)
}

func TestQuestionRouter_SubmitValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	e := f.event(t, "GoMeetup", true)
	tk := f.talk(t, e, "T1", at(10, 0), at(10, 30), nil)

	tests := []struct {
		name    string
		talkID  string
		text    string
		wantErr error
	}{
		{name: "empty", talkID: tk.ID, text: "   ", wantErr: domain.ErrInvalidInput},
		{name: "too long", talkID: tk.ID, text: strings.Repeat("я", domain.MaxQuestionLength+1), wantErr: domain.ErrInvalidInput},
		{name: "limit in runes", talkID: tk.ID, text: strings.Repeat("я", domain.MaxQuestionLength)},
		{name: "unknown talk", talkID: "missing", text: "hello", wantErr: domain.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.router().Submit(ctx, tt.talkID, nil, tt.text)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestQuestionRouter_AskDeliversToSpeaker(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	speaker := f.participant(t, "speaker")
	author := f.participant(t, "curious")
	e := f.event(t, "GoMeetup", true)
	tk := f.talk(t, e, "Channels", at(10, 0), at(10, 30), speaker)

	q, delivered, err := f.router().Ask(ctx, tk.ID, author, "Buffered or not?")
	require.NoError(t, err)
	assert.True(t, delivered)
	assert.Equal(t, domain.QuestionSentToSpeaker, q.Status)

	msgs := f.messenger.to(speaker.TelegramID)
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0].Text, "Channels")
	assert.Contains(t, msgs[0].Text, "Buffered or not?")
	assert.Contains(t, msgs[0].Text, "@curious")
	require.Len(t, msgs[0].Buttons, 1)
	assert.Equal(t, "q_answered:"+q.ID, msgs[0].Buttons[0][0].Data)
	assert.Equal(t, "q_rejected:"+q.ID, msgs[0].Buttons[0][1].Data)
}

func TestQuestionRouter_UnreachableSpeakerKeepsQuestionPending(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	speaker := f.participant(t, "speaker")
	e := f.event(t, "GoMeetup", true)
	tk := f.talk(t, e, "Channels", at(10, 0), at(10, 30), speaker)
	noSpeaker := f.talk(t, e, "Panel", at(10, 30), at(11, 0), nil)
	f.messenger.failFor[speaker.TelegramID] = true

	for _, talkID := range []string{tk.ID, noSpeaker.ID} {
		q, delivered, err := f.router().Ask(ctx, talkID, nil, "Anyone?")
		require.NoError(t, err)
		assert.False(t, delivered)

		stored, err := f.questions.GetByID(ctx, q.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.QuestionPending, stored.Status)
	}

	queue, err := f.router().PendingQueue(ctx, tk.ID)
	require.NoError(t, err)
	assert.Len(t, queue, 1)
	n, err := f.router().PendingCount(ctx, tk.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestQuestionRouter_LifecycleIsMonotonic(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	speaker := f.participant(t, "speaker")
	e := f.event(t, "GoMeetup", true)
	tk := f.talk(t, e, "Channels", at(10, 0), at(10, 30), speaker)
	r := f.router()

	q, delivered, err := r.Ask(ctx, tk.ID, nil, "Why?")
	require.NoError(t, err)
	require.True(t, delivered)

	answered, err := r.MarkAnswered(ctx, speaker, q.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.QuestionAnswered, answered.Status)
	assert.NotNil(t, answered.AnsweredAt)

	_, err = r.MarkRejected(ctx, speaker, q.ID)
	require.ErrorIs(t, err, domain.ErrInvalidTransition)
	_, err = r.MarkAnswered(ctx, speaker, q.ID)
	require.ErrorIs(t, err, domain.ErrInvalidTransition)

	assert.True(t, r.Deliver(ctx, q), "message still goes out")
	stored, err := f.questions.GetByID(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.QuestionAnswered, stored.Status)

	stats, err := r.Stats(ctx, tk.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.QuestionStats{Total: 1, Answered: 1}, stats)
}

func TestQuestionRouter_CloseRequiresSpeakerOrOrganizer(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	speaker := f.participant(t, "speaker")
	stranger := f.participant(t, "stranger")
	org := f.organizer(t, "org")
	e := f.event(t, "GoMeetup", true)
	tk := f.talk(t, e, "Channels", at(10, 0), at(10, 30), speaker)
	r := f.router()

	q, err := r.Submit(ctx, tk.ID, stranger, "Why?")
	require.NoError(t, err)

	_, err = r.MarkRejected(ctx, stranger, q.ID)
	require.ErrorIs(t, err, domain.ErrForbidden)
	_, err = r.MarkRejected(ctx, org, "missing")
	require.ErrorIs(t, err, domain.ErrNotFound)

	rejected, err := r.MarkRejected(ctx, org, q.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.QuestionRejected, rejected.Status)
}
