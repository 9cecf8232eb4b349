package bot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"meetupbot/internal/adapters/auth"
	"meetupbot/internal/adapters/session"
	"meetupbot/internal/domain"
	"meetupbot/internal/repository/memory"
	"meetupbot/internal/services"

	"github.com/stretchr/testify/require"
)

const testTimeout = 2 * time.Second

var day = time.Date(2025, 5, 17, 0, 0, 0, 0, time.UTC)

func at(hour, minute int) time.Time {
	return day.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
}

// fakeMessenger records every message and callback acknowledgement. Like the
// Telegram messenger it refuses to send on a done context, and each message takes
// delay.
type fakeMessenger struct {
	mu    sync.Mutex
	sent  []domain.OutgoingMessage
	acks  map[string]string
	delay time.Duration
}

func newFakeMessenger() *fakeMessenger {
	return &fakeMessenger{acks: make(map[string]string)}
}

func (m *fakeMessenger) Send(ctx context.Context, msg domain.OutgoingMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	time.Sleep(m.delay)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return nil
}

func (m *fakeMessenger) AnswerCallback(ctx context.Context, callbackID, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.acks[callbackID] = text
	return nil
}

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

func (m *fakeMessenger) ack(callbackID string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.acks[callbackID]
}

// fakeProvider is a PaymentProvider with settable statuses.
type fakeProvider struct {
	mu        sync.Mutex
	createErr error
	created   int
	checked   int
	statuses  map[string]string
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{statuses: make(map[string]string)}
}

func (p *fakeProvider) CreatePayment(_ context.Context, req domain.PaymentRequest) (*domain.PaymentResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.createErr != nil {
		return nil, p.createErr
	}
	p.created++
	id := fmt.Sprintf("pay-%d", p.created)
	p.statuses[id] = "pending"
	return &domain.PaymentResult{Provider: "fake", ExternalID: id, Status: "pending", ConfirmationURL: "https://pay.example/" + id}, nil
}

func (p *fakeProvider) PaymentStatus(_ context.Context, externalID string) (*domain.PaymentResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.checked++
	status, ok := p.statuses[externalID]
	if !ok {
		return nil, errors.New("payment not found")
	}
	return &domain.PaymentResult{Provider: "fake", ExternalID: externalID, Status: status}, nil
}

func (p *fakeProvider) setStatus(externalID, status string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.statuses[externalID] = status
}

// fixture runs the bot on memory repositories, real services and a fixed clock.
type fixture struct {
	t         *testing.T
	store     *memory.Store
	now       time.Time
	events    domain.EventRepository
	talks     domain.TalkRepository
	sessions  *session.MemoryStore
	messenger *fakeMessenger
	provider  *fakeProvider
	bot       *Bot
	nextID    int64
	nextCB    int
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		t:         t,
		store:     memory.NewStore(),
		now:       at(9, 0),
		messenger: newFakeMessenger(),
		provider:  newFakeProvider(),
		sessions:  session.NewMemoryStore(time.Hour),
		nextID:    100,
	}
	f.store.SetClock(f.clock)
	f.events = memory.NewEventRepository(f.store)
	f.talks = memory.NewTalkRepository(f.store)
	f.bot = f.newBot(f.provider)
	return f
}

func (f *fixture) newBot(provider domain.PaymentProvider) *Bot {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	participants := memory.NewParticipantRepository(f.store)
	questions := memory.NewQuestionRepository(f.store)
	notifier := services.NewNotifier(f.messenger, logger)
	svc := Services{
		Participants:  services.NewParticipantService(participants, f.talks, f.clock, testTimeout),
		Events:        services.NewEventService(f.events, f.talks, f.clock, testTimeout),
		Scheduler:     services.NewTalkScheduler(f.talks, questions, f.clock, testTimeout),
		Questions:     services.NewQuestionRouter(questions, f.talks, f.messenger, logger, f.clock, testTimeout),
		Matchmaker:    services.NewMatchmaker(memory.NewNetworkingRepository(f.store), f.clock, testTimeout),
		Donations:     services.NewDonationService(memory.NewDonationRepository(f.store), provider, services.DonationSettings{MinAmount: 10000, Currency: "RUB"}, f.clock, testTimeout),
		Subscriptions: services.NewSubscriptionService(memory.NewSubscriptionRepository(f.store), f.clock, testTimeout),
		Applications: services.NewSpeakerApplicationService(memory.NewSpeakerApplicationRepository(f.store), f.events,
			participants, notifier, nil, "", logger, f.clock, testTimeout),
		Dashboard: services.NewDashboardService(auth.NewJWTIssuer("test-secret"), time.Hour, f.clock),
		Notifier:  notifier,
	}
	return New(svc, f.sessions, f.messenger, logger, Options{HandlerTimeout: testTimeout})
}

func (f *fixture) clock() time.Time { return f.now }

// user returns the identity of a new plain participant.
func (f *fixture) user(name string) domain.Identity {
	f.nextID++
	return domain.Identity{TelegramID: f.nextID, Username: name, FirstName: name}
}

func (f *fixture) organizer(name string) domain.Identity {
	id := f.user(name)
	f.store.PutParticipant(&domain.Participant{TelegramID: id.TelegramID, Username: name, FirstName: name, IsOrganizer: true})
	return id
}

// speaker seeds a participant that can be assigned to talks.
func (f *fixture) speaker(name string) (domain.Identity, *domain.Participant) {
	id := f.user(name)
	p := f.store.PutParticipant(&domain.Participant{TelegramID: id.TelegramID, Username: name, FirstName: name, IsSpeaker: true})
	return id, p
}

func (f *fixture) event(name string, active, published bool) *domain.Event {
	f.t.Helper()
	e := domain.NewEvent(name, at(10, 0), at(18, 0))
	e.IsActive = active
	e.IsPublished = published
	require.NoError(f.t, f.events.Create(context.Background(), e))
	return e
}

func (f *fixture) talk(event *domain.Event, title string, start, end time.Time, speaker *domain.Participant) *domain.Talk {
	f.t.Helper()
	talks, err := f.talks.ListByEvent(context.Background(), event.ID)
	require.NoError(f.t, err)
	tk := domain.NewTalk(event.ID, title, start, end, len(talks)+1)
	if speaker != nil {
		id := speaker.ID
		tk.SpeakerID = &id
	}
	require.NoError(f.t, f.talks.Create(context.Background(), tk))
	return tk
}

// send delivers a text message, parsing "/command args" the way the poller does.
func (f *fixture) send(from domain.Identity, text string) {
	upd := domain.Update{ChatID: from.TelegramID, From: from, Text: text}
	if strings.HasPrefix(text, "/") {
		upd.Command, upd.Args, _ = strings.Cut(strings.TrimPrefix(text, "/"), " ")
	}
	f.bot.Handle(context.Background(), upd)
}

// press delivers a button press and returns the callback acknowledgement.
func (f *fixture) press(from domain.Identity, data string) string {
	f.nextCB++
	id := fmt.Sprintf("cb-%d", f.nextCB)
	f.bot.Handle(context.Background(), domain.Update{ChatID: from.TelegramID, From: from, CallbackID: id, CallbackData: data})
	return f.messenger.ack(id)
}

// last returns the latest message sent to the chat.
func (f *fixture) last(from domain.Identity) domain.OutgoingMessage {
	f.t.Helper()
	msgs := f.messenger.to(from.TelegramID)
	require.NotEmpty(f.t, msgs, "no messages for %d", from.TelegramID)
	return msgs[len(msgs)-1]
}

func (f *fixture) state(from domain.Identity) domain.ConversationState {
	f.t.Helper()
	s, err := f.sessions.Get(context.Background(), from.TelegramID)
	require.NoError(f.t, err)
	if s.IsIdle() {
		return domain.StateIdle
	}
	return s.State
}

// buttonData lists the callback data of every button of the message.
func buttonData(msg domain.OutgoingMessage) []string {
	var out []string
	for _, row := range msg.Buttons {
		for _, b := range row {
			if b.Data != "" {
				out = append(out, b.Data)
			}
		}
	}
	return out
}

// findButton returns the first button whose data starts with prefix.
func findButton(msg domain.OutgoingMessage, prefix string) (domain.Button, bool) {
	for _, row := range msg.Buttons {
		for _, b := range row {
			if strings.HasPrefix(b.Data, prefix) || (b.Data == "" && strings.HasPrefix(b.URL, prefix)) {
				return b, true
			}
		}
	}
	return domain.Button{}, false
}
