package bot

import (
	"context"
	"fmt"
	"testing"
	"time"

	"meetupbot/internal/adapters/session"
	"meetupbot/internal/domain"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// readers starts n participants that want notifications.
func (f *fixture) readers(n int) []domain.Identity {
	out := make([]domain.Identity, 0, n)
	for i := range n {
		id := f.user(fmt.Sprintf("reader%d", i))
		f.send(id, "/start")
		out = append(out, id)
	}
	return out
}

func TestBot_AnnouncementOutlivesHandlerTimeout(t *testing.T) {
	f := newFixture(t)
	f.event("Go Meetup", true, true)
	org := f.organizer("org")
	readers := f.readers(30)

	f.bot.opts.HandlerTimeout = 100 * time.Millisecond
	f.messenger.delay = 10 * time.Millisecond
	f.send(org, "/announce")
	f.send(org, "Pizza is here")

	for _, r := range readers {
		assert.Contains(t, f.last(r).Text, "Pizza is here", "reader %d", r.TelegramID)
	}
	assert.Contains(t, f.last(org).Text, "delivered to 30 participants")
	assert.Equal(t, domain.StateIdle, f.state(org))
}

func TestBot_ProgramNotifyOutlivesHandlerTimeout(t *testing.T) {
	f := newFixture(t)
	event := f.event("Go Meetup", true, true)
	f.talk(event, "Opening", at(10, 0), at(10, 30), nil)
	org := f.organizer("org")
	followers := make([]domain.Identity, 0, 20)
	for i := range 20 {
		id := f.user(fmt.Sprintf("follower%d", i))
		f.send(id, "/subscribe")
		f.press(id, withArg(cbSubscribeType, string(domain.SubscriptionEvent)))
		followers = append(followers, id)
	}

	f.bot.opts.HandlerTimeout = 100 * time.Millisecond
	f.messenger.delay = 10 * time.Millisecond
	f.press(org, cbOrgNotify)

	for _, id := range followers {
		assert.Contains(t, f.last(id).Text, "Opening")
	}
	assert.Contains(t, f.last(org).Text, "Program sent to 20 subscribers")
}

func TestBot_RedisSessionClearedAfterSlowAnnouncement(t *testing.T) {
	mr := miniredis.RunT(t)
	client := session.NewRedisClient(mr.Addr())
	t.Cleanup(func() { _ = client.Close() })
	store := session.NewRedisStore(client, time.Hour)

	f := newFixture(t)
	f.bot.sessions = store
	f.event("Go Meetup", true, true)
	org := f.organizer("org")
	f.readers(30)

	f.bot.opts.HandlerTimeout = 200 * time.Millisecond
	f.messenger.delay = 10 * time.Millisecond
	f.send(org, "/announce")
	sess, err := store.Get(context.Background(), org.TelegramID)
	require.NoError(t, err)
	require.Equal(t, domain.StateAnnounceText, sess.State)

	f.send(org, "Pizza is here")
	sent := len(f.messenger.to(org.TelegramID))

	sess, err = store.Get(context.Background(), org.TelegramID)
	require.NoError(t, err)
	assert.True(t, sess.IsIdle())

	// The next message is an ordinary one, not a second announcement.
	f.messenger.delay = 0
	f.send(org, "Pizza is here")
	assert.Equal(t, textUseMenu, f.last(org).Text)
	assert.Len(t, f.messenger.to(org.TelegramID), sent+1)
}
