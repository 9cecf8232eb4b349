package memory

import (
	"context"
	"testing"
	"time"

	"meetupbot/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventRepository_ActivateKeepsOneActive(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	repo := NewEventRepository(s)
	start := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)

	a := &domain.Event{Name: "A", StartAt: start, EndAt: start.Add(time.Hour), IsActive: true}
	b := &domain.Event{Name: "B", StartAt: start.Add(-24 * time.Hour), EndAt: start, IsActive: true}
	require.NoError(t, repo.Create(ctx, a))
	require.NoError(t, repo.Create(ctx, b))

	active, err := repo.GetActive(ctx)
	require.NoError(t, err)
	assert.Equal(t, a.ID, active.ID, "most recent start wins")

	require.NoError(t, repo.Activate(ctx, b.ID))
	active, err = repo.GetActive(ctx)
	require.NoError(t, err)
	assert.Equal(t, b.ID, active.ID)

	got, err := repo.GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)

	require.ErrorIs(t, repo.Activate(ctx, "missing"), domain.ErrNotFound)
}

func TestTalkRepository_UpdateProgramPersistsChanges(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	events := NewEventRepository(s)
	talks := NewTalkRepository(s)
	start := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)

	e := &domain.Event{Name: "E", StartAt: start, EndAt: start.Add(2 * time.Hour)}
	require.NoError(t, events.Create(ctx, e))
	t1 := domain.NewTalk(e.ID, "One", start, start.Add(30*time.Minute), 1)
	t2 := domain.NewTalk(e.ID, "Two", start.Add(30*time.Minute), start.Add(time.Hour), 2)
	require.NoError(t, talks.Create(ctx, t2))
	require.NoError(t, talks.Create(ctx, t1))

	err := talks.UpdateProgram(ctx, e.ID, func(ev *domain.Event, list []*domain.Talk) error {
		require.Equal(t, "One", list[0].Title, "ordered by order key")
		list[1].Status, list[1].IsCurrent = domain.TalkInProgress, true
		ev.CurrentTalkID = &list[1].ID
		return nil
	})
	require.NoError(t, err)

	got, err := talks.GetByID(ctx, t2.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TalkInProgress, got.Status)
	assert.True(t, got.IsCurrent)
	ev, err := events.GetByID(ctx, e.ID)
	require.NoError(t, err)
	require.NotNil(t, ev.CurrentTalkID)
	assert.Equal(t, t2.ID, *ev.CurrentTalkID)
}

func TestNetworkingRepository_CreateMatchIsIdempotent(t *testing.T) {
	ctx := context.Background()
	repo := NewNetworkingRepository(NewStore())

	first := &domain.NetworkingMatch{EventID: "e", SourceProfileID: "a", TargetProfileID: "b", Status: domain.MatchPending}
	created, err := repo.CreateMatch(ctx, first)
	require.NoError(t, err)
	assert.True(t, created)

	second := &domain.NetworkingMatch{EventID: "e", SourceProfileID: "a", TargetProfileID: "b", Status: domain.MatchPending}
	created, err = repo.CreateMatch(ctx, second)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)

	counts, err := repo.OutgoingCounts(ctx, "e")
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"a": 1}, counts)
}

func TestSubscriptionRepository_RecipientsAreUnique(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	subs := NewSubscriptionRepository(s)
	ann := s.PutParticipant(&domain.Participant{TelegramID: 1, FirstName: "Ann"})
	bob := s.PutParticipant(&domain.Participant{TelegramID: 2, FirstName: "Bob"})
	cat := s.PutParticipant(&domain.Participant{TelegramID: 3, FirstName: "Cat"})
	ev := "ev-1"
	other := "ev-2"

	require.NoError(t, subs.Create(ctx, &domain.Subscription{ParticipantID: ann.ID, EventID: &ev, Type: domain.SubscriptionEvent, IsActive: true}))
	require.NoError(t, subs.Create(ctx, &domain.Subscription{ParticipantID: ann.ID, Type: domain.SubscriptionFuture, IsActive: true}))
	require.NoError(t, subs.Create(ctx, &domain.Subscription{ParticipantID: bob.ID, EventID: &other, Type: domain.SubscriptionEvent, IsActive: true}))
	require.NoError(t, subs.Create(ctx, &domain.Subscription{ParticipantID: cat.ID, Type: domain.SubscriptionFuture, IsActive: false}))

	require.ErrorIs(t, subs.Create(ctx, &domain.Subscription{ParticipantID: ann.ID, Type: domain.SubscriptionFuture}), domain.ErrInvalidInput)

	recipients, err := subs.ListRecipients(ctx, ev)
	require.NoError(t, err)
	require.Len(t, recipients, 1)
	assert.Equal(t, ann.ID, recipients[0].ID)
}

func TestParticipantRepository_UpsertKeepsFlags(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	repo := NewParticipantRepository(s)
	s.PutParticipant(&domain.Participant{TelegramID: 10, FirstName: "Old", IsOrganizer: true})

	p := &domain.Participant{TelegramID: 10, FirstName: "New", Username: "new"}
	require.NoError(t, repo.Upsert(ctx, p))
	assert.True(t, p.IsOrganizer)
	assert.Equal(t, "New", p.FirstName)

	fresh := &domain.Participant{TelegramID: 11}
	require.NoError(t, repo.Upsert(ctx, fresh))
	assert.NotEmpty(t, fresh.ID)
	assert.False(t, fresh.IsOrganizer)
}
