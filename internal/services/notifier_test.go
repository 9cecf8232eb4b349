package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"meetupbot/internal/domain"

	"github.com/stretchr/testify/assert"
)

func TestNotifier_BroadcastIsolatesFailures(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.participant(t, "a")
	blocked := f.participant(t, "blocked")
	c := f.participant(t, "c")
	f.messenger.failFor[blocked.TelegramID] = true

	n := NewNotifier(f.messenger, discardLogger())
	res := n.Broadcast(ctx, []*domain.Participant{a, blocked, c, {ID: "no-chat"}}, domain.OutgoingMessage{Text: "Doors open at 10"})

	assert.Equal(t, domain.BroadcastResult{Sent: 2, Failed: 2}, res)
	assert.Len(t, f.messenger.to(a.TelegramID), 1)
	assert.Len(t, f.messenger.to(c.TelegramID), 1)
	assert.Equal(t, "Doors open at 10", f.messenger.to(c.TelegramID)[0].Text)
}

func TestNotifier_NotifySetsChat(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	p := f.participant(t, "p")
	n := NewNotifier(f.messenger, discardLogger())

	assert.True(t, n.Notify(ctx, p, domain.OutgoingMessage{ChatID: 42, Text: "hi"}))
	assert.Len(t, f.messenger.to(p.TelegramID), 1)
	assert.Empty(t, f.messenger.to(42))
	assert.False(t, n.Notify(ctx, nil, domain.OutgoingMessage{Text: "hi"}))
}

func TestNotifier_BroadcastOutlivesCallerDeadline(t *testing.T) {
	f := newFixture(t)
	recipients := make([]*domain.Participant, 0, 20)
	for i := range 20 {
		recipients = append(recipients, f.participant(t, fmt.Sprintf("u%d", i)))
	}
	f.messenger.delay = 5 * time.Millisecond

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	n := NewNotifier(f.messenger, discardLogger())
	res := n.Broadcast(ctx, recipients, domain.OutgoingMessage{Text: "Talks start in 5 minutes"})

	assert.Equal(t, domain.BroadcastResult{Sent: 20}, res)
	for _, p := range recipients {
		assert.Len(t, f.messenger.to(p.TelegramID), 1)
	}
}

func TestNotifier_NotifyAfterCallerCanceled(t *testing.T) {
	f := newFixture(t)
	p := f.participant(t, "p")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	n := NewNotifier(f.messenger, discardLogger())
	assert.True(t, n.Notify(ctx, p, domain.OutgoingMessage{Text: "Your partner is waiting"}))
	assert.Len(t, f.messenger.to(p.TelegramID), 1)
}
