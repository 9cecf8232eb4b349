package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"meetupbot/internal/domain"
	"meetupbot/internal/repository/memory"

	"github.com/stretchr/testify/require"
)

const testTimeout = 2 * time.Second

var day = time.Date(2025, 5, 17, 0, 0, 0, 0, time.UTC)

func at(hour, minute int) time.Time {
	return day.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeMessenger records sent messages. Chats listed in failFor reject delivery.
// Like the Telegram messenger it refuses to send on a done context, and it takes
// delay per message.
type fakeMessenger struct {
	mu      sync.Mutex
	sent    []domain.OutgoingMessage
	failFor map[int64]bool
	delay   time.Duration
}

func newFakeMessenger() *fakeMessenger {
	return &fakeMessenger{failFor: make(map[int64]bool)}
}

func (m *fakeMessenger) Send(ctx context.Context, msg domain.OutgoingMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	time.Sleep(m.delay)
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failFor[msg.ChatID] {
		return fmt.Errorf("chat %d: bot was blocked by the user", msg.ChatID)
	}
	m.sent = append(m.sent, msg)
	return nil
}

func (m *fakeMessenger) AnswerCallback(context.Context, string, string) error { return nil }

func (m *fakeMessenger) to(chatID int64) []domain.OutgoingMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.OutgoingMessage
	for _, msg := range m.sent {
		if msg.ChatID == chatID {
			out = append(out, msg)
		}
	}
	return out
}

// fakeProvider is a PaymentProvider that fails while createErr is set.
type fakeProvider struct {
	createErr error
	status    string
	requests  []domain.PaymentRequest
	statuses  map[string]string
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{status: "pending", statuses: make(map[string]string)}
}

func (p *fakeProvider) CreatePayment(_ context.Context, req domain.PaymentRequest) (*domain.PaymentResult, error) {
	p.requests = append(p.requests, req)
	if p.createErr != nil {
		return nil, p.createErr
	}
	id := fmt.Sprintf("pay-%d", len(p.requests))
	p.statuses[id] = p.status
	return &domain.PaymentResult{
		Provider:        "fake",
		ExternalID:      id,
		Status:          p.status,
		ConfirmationURL: "https://pay.example/" + id,
	}, nil
}

func (p *fakeProvider) PaymentStatus(_ context.Context, externalID string) (*domain.PaymentResult, error) {
	status, ok := p.statuses[externalID]
	if !ok {
		return nil, errors.New("payment not found")
	}
	return &domain.PaymentResult{Provider: "fake", ExternalID: externalID, Status: status}, nil
}

// fixture wires memory repositories around a fixed clock.
type fixture struct {
	store         *memory.Store
	now           time.Time
	participants  domain.ParticipantRepository
	events        domain.EventRepository
	talks         domain.TalkRepository
	questions     domain.QuestionRepository
	networking    domain.NetworkingRepository
	donations     domain.DonationRepository
	subscriptions domain.SubscriptionRepository
	applications  domain.SpeakerApplicationRepository
	messenger     *fakeMessenger
	provider      *fakeProvider
	nextTelegram  int64
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store:        memory.NewStore(),
		now:          at(9, 0),
		messenger:    newFakeMessenger(),
		provider:     newFakeProvider(),
		nextTelegram: 1000,
	}
	f.store.SetClock(f.clock)
	f.participants = memory.NewParticipantRepository(f.store)
	f.events = memory.NewEventRepository(f.store)
	f.talks = memory.NewTalkRepository(f.store)
	f.questions = memory.NewQuestionRepository(f.store)
	f.networking = memory.NewNetworkingRepository(f.store)
	f.donations = memory.NewDonationRepository(f.store)
	f.subscriptions = memory.NewSubscriptionRepository(f.store)
	f.applications = memory.NewSpeakerApplicationRepository(f.store)
	return f
}

func (f *fixture) clock() time.Time { return f.now }

func (f *fixture) advance(d time.Duration) { f.now = f.now.Add(d) }

func (f *fixture) participant(t *testing.T, username string) *domain.Participant {
	t.Helper()
	f.nextTelegram++
	return f.store.PutParticipant(&domain.Participant{TelegramID: f.nextTelegram, Username: username, FirstName: username})
}

func (f *fixture) organizer(t *testing.T, username string) *domain.Participant {
	t.Helper()
	f.nextTelegram++
	return f.store.PutParticipant(&domain.Participant{TelegramID: f.nextTelegram, Username: username, IsOrganizer: true})
}

func (f *fixture) event(t *testing.T, name string, active bool) *domain.Event {
	t.Helper()
	e := domain.NewEvent(name, at(10, 0), at(18, 0))
	e.IsActive = active
	e.IsPublished = true
	require.NoError(t, f.events.Create(context.Background(), e))
	return e
}

func (f *fixture) talk(t *testing.T, event *domain.Event, title string, start, end time.Time, speaker *domain.Participant) *domain.Talk {
	t.Helper()
	talks, err := f.talks.ListByEvent(context.Background(), event.ID)
	require.NoError(t, err)
	tk := domain.NewTalk(event.ID, title, start, end, len(talks)+1)
	if speaker != nil {
		id := speaker.ID
		tk.SpeakerID = &id
	}
	require.NoError(t, f.talks.Create(context.Background(), tk))
	return tk
}

// reload re-reads the event so CurrentTalkID reflects the store.
func (f *fixture) reload(t *testing.T, event *domain.Event) *domain.Event {
	t.Helper()
	e, err := f.events.GetByID(context.Background(), event.ID)
	require.NoError(t, err)
	return e
}

func (f *fixture) scheduler() domain.TalkScheduler {
	return NewTalkScheduler(f.talks, f.questions, f.clock, testTimeout)
}

func (f *fixture) router() domain.QuestionRouter {
	return NewQuestionRouter(f.questions, f.talks, f.messenger, discardLogger(), f.clock, testTimeout)
}

func (f *fixture) matchmaker() domain.Matchmaker {
	return NewMatchmaker(f.networking, f.clock, testTimeout)
}

func (f *fixture) donationService(min int64) domain.DonationService {
	return NewDonationService(f.donations, f.provider, DonationSettings{MinAmount: min, Currency: "RUB"}, f.clock, testTimeout)
}
