package services

import (
	"context"
	"testing"

	"meetupbot/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubscriptionService_Toggle(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	e := f.event(t, "GoMeetup", true)
	p := f.participant(t, "p")
	s := NewSubscriptionService(f.subscriptions, f.clock, testTimeout)

	tests := []struct {
		name string
		typ  domain.SubscriptionType
		want []bool
	}{
		{name: "event", typ: domain.SubscriptionEvent, want: []bool{true, false, true}},
		{name: "future", typ: domain.SubscriptionFuture, want: []bool{true, false}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for i, want := range tt.want {
				got, err := s.Toggle(ctx, p, e, tt.typ)
				require.NoError(t, err)
				assert.Equal(t, want, got, "toggle #%d", i+1)

				subscribed, err := s.IsSubscribed(ctx, p, e, tt.typ)
				require.NoError(t, err)
				assert.Equal(t, want, subscribed)
			}
		})
	}

	future, err := f.subscriptions.Get(ctx, p.ID, nil, domain.SubscriptionFuture)
	require.NoError(t, err)
	assert.Nil(t, future.EventID)

	_, err = s.Toggle(ctx, p, nil, domain.SubscriptionEvent)
	require.ErrorIs(t, err, domain.ErrNoActiveEvent)
	_, err = s.Toggle(ctx, p, e, domain.SubscriptionType("weekly"))
	require.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSubscriptionService_RecipientsAreUnique(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	e := f.event(t, "GoMeetup", true)
	other := f.event(t, "RustMeetup", false)
	both := f.participant(t, "both")
	futureOnly := f.participant(t, "future")
	otherEvent := f.participant(t, "other")
	s := NewSubscriptionService(f.subscriptions, f.clock, testTimeout)

	for _, step := range []struct {
		p   *domain.Participant
		e   *domain.Event
		typ domain.SubscriptionType
	}{
		{both, e, domain.SubscriptionEvent},
		{both, e, domain.SubscriptionFuture},
		{futureOnly, nil, domain.SubscriptionFuture},
		{otherEvent, other, domain.SubscriptionEvent},
	} {
		_, err := s.Toggle(ctx, step.p, step.e, step.typ)
		require.NoError(t, err)
	}

	got, err := s.Recipients(ctx, e)
	require.NoError(t, err)
	ids := make([]string, 0, len(got))
	for _, p := range got {
		ids = append(ids, p.ID)
	}
	assert.ElementsMatch(t, []string{both.ID, futureOnly.ID}, ids)
}
