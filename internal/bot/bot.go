// Package bot is the conversation engine: it turns chat updates into service calls
// and renders the results back to the user.
package bot

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"meetupbot/internal/domain"
)

// Replies, callback answers and session writes get their own deadline so they still
// happen when routing used up the handler's.
const (
	replyTimeout   = 10 * time.Second
	persistTimeout = 5 * time.Second
)

// Services are the domain services the conversation engine drives.
type Services struct {
	Participants  domain.ParticipantService
	Events        domain.EventService
	Scheduler     domain.TalkScheduler
	Questions     domain.QuestionRouter
	Matchmaker    domain.Matchmaker
	Donations     domain.DonationService
	Subscriptions domain.SubscriptionService
	Applications  domain.SpeakerApplicationService
	Dashboard     domain.DashboardService
	Notifier      domain.Notifier
}

// Options tune rendering and timeouts.
type Options struct {
	// Location is used to print talk and event times. Defaults to UTC.
	Location *time.Location
	// HandlerTimeout bounds the handling of one update. Zero means no bound.
	HandlerTimeout time.Duration
	// DashboardURL is shown next to issued dashboard tokens when set.
	DashboardURL string
}

// Bot handles updates of every user. It is safe for concurrent use as long as
// updates of one user are not handled concurrently, which the Dispatcher ensures.
type Bot struct {
	svc       Services
	sessions  domain.SessionStore
	messenger domain.Messenger
	logger    *slog.Logger
	opts      Options
}

// New returns a Bot.
func New(svc Services, sessions domain.SessionStore, messenger domain.Messenger, logger *slog.Logger, opts Options) *Bot {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	return &Bot{svc: svc, sessions: sessions, messenger: messenger, logger: logger, opts: opts}
}

// request is the state of one update while it is being handled.
type request struct {
	upd         domain.Update
	participant *domain.Participant
	session     *domain.Session
	// ack is shown as the callback acknowledgement toast.
	ack string
}

func (r *request) chatID() int64 { return r.upd.ChatID }

// Handle processes one update: it resolves the participant and session, routes the
// update and persists the session.
func (b *Bot) Handle(ctx context.Context, upd domain.Update) {
	if b.opts.HandlerTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.opts.HandlerTimeout)
		defer cancel()
	}
	logger := b.logger.With("user_id", upd.From.TelegramID)
	logger.DebugContext(ctx, "update received", "command", upd.Command, "callback", upd.CallbackData)

	participant, err := b.svc.Participants.Ensure(ctx, upd.From)
	if err != nil {
		logger.ErrorContext(ctx, "failed to resolve participant", "error", err)
		b.send(ctx, domain.OutgoingMessage{ChatID: upd.ChatID, Text: textInternalError})
		return
	}
	sess, err := b.sessions.Get(ctx, upd.From.TelegramID)
	if err != nil {
		logger.WarnContext(ctx, "failed to load session, starting fresh", "error", err)
		sess = domain.NewSession(upd.From.TelegramID)
	}

	req := &request{upd: upd, participant: participant, session: sess}
	if err := b.route(ctx, req); err != nil {
		logger.ErrorContext(ctx, "update handling failed", "error", err,
			"command", upd.Command, "callback", upd.CallbackData, "state", sess.State)
		b.reply(ctx, req, textInternalError)
	}

	if upd.IsCallback() {
		ackCtx, cancel := detach(ctx, replyTimeout)
		if err := b.messenger.AnswerCallback(ackCtx, upd.CallbackID, req.ack); err != nil {
			logger.WarnContext(ctx, "failed to answer callback", "error", err)
		}
		cancel()
	}
	b.persist(ctx, logger, sess)
}

func (b *Bot) persist(ctx context.Context, logger *slog.Logger, sess *domain.Session) {
	ctx, cancel := detach(ctx, persistTimeout)
	defer cancel()
	var err error
	if sess.IsIdle() {
		err = b.sessions.Delete(ctx, sess.UserID)
	} else {
		err = b.sessions.Save(ctx, sess)
	}
	if err != nil {
		logger.WarnContext(ctx, "failed to persist session", "error", err)
	}
}

// detach returns a context that keeps ctx's values but not its cancellation,
// bounded by timeout instead.
func detach(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), timeout)
}

// resume gives the rest of a handler a fresh deadline after a notification fan-out,
// which may take longer than HandlerTimeout.
func (b *Bot) resume(ctx context.Context) (context.Context, context.CancelFunc) {
	if b.opts.HandlerTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return detach(ctx, b.opts.HandlerTimeout)
}

func (b *Bot) route(ctx context.Context, req *request) error {
	switch {
	case req.upd.IsCallback():
		return b.handleCallback(ctx, req)
	case req.upd.Command != "":
		// A command abandons whatever the user was doing.
		if req.upd.Command != cmdCancel && !req.session.IsIdle() {
			req.session.Reset()
		}
		return b.handleCommand(ctx, req)
	case req.session.IsIdle():
		return b.showMenu(ctx, req, textUseMenu)
	default:
		return b.handleText(ctx, req)
	}
}

func (b *Bot) handleText(ctx context.Context, req *request) error {
	text := strings.TrimSpace(req.upd.Text)
	switch req.session.State {
	case domain.StateAskText:
		return b.askText(ctx, req, text)
	case domain.StateNetworkingRole, domain.StateNetworkingCompany, domain.StateNetworkingStack,
		domain.StateNetworkingInterests, domain.StateNetworkingContact:
		return b.profileStep(ctx, req, text)
	case domain.StateNetworkingMatch:
		b.reply(ctx, req, textUseMatchButtons)
		return nil
	case domain.StateDonateAmount:
		return b.donateAmount(ctx, req, text)
	case domain.StateSubscribeChoice:
		return b.subscribeChoice(ctx, req, text)
	case domain.StateAnnounceText:
		return b.announceText(ctx, req, text)
	case domain.StateApplyTopic:
		return b.applyTopic(ctx, req, text)
	case domain.StateApplyContact:
		return b.applyContact(ctx, req, text)
	default:
		req.session.Reset()
		return b.showMenu(ctx, req, "")
	}
}

// activeEvent returns the active event or nil when there is none.
func (b *Bot) activeEvent(ctx context.Context) (*domain.Event, error) {
	event, err := b.svc.Events.Active(ctx)
	if errors.Is(err, domain.ErrNoActiveEvent) {
		return nil, nil
	}
	return event, err
}

func (b *Bot) capabilities(ctx context.Context, req *request, event *domain.Event) domain.Capabilities {
	caps, err := b.svc.Participants.Capabilities(ctx, req.participant, event)
	if err != nil {
		b.logger.WarnContext(ctx, "failed to compute capabilities", "participant_id", req.participant.ID, "error", err)
	}
	return caps
}

func (b *Bot) send(ctx context.Context, msg domain.OutgoingMessage) {
	ctx, cancel := detach(ctx, replyTimeout)
	defer cancel()
	if err := b.messenger.Send(ctx, msg); err != nil {
		b.logger.WarnContext(ctx, "failed to send message", "chat_id", msg.ChatID, "error", err)
	}
}

func (b *Bot) reply(ctx context.Context, req *request, text string, buttons ...[]domain.Button) {
	b.send(ctx, domain.OutgoingMessage{ChatID: req.chatID(), Text: text, Buttons: buttons})
}

func (b *Bot) replyMarkdown(ctx context.Context, req *request, text string, buttons ...[]domain.Button) {
	b.send(ctx, domain.OutgoingMessage{ChatID: req.chatID(), Text: text, Buttons: buttons, Markdown: true})
}

// showMenu sends text (or the greeting when empty) with the main menu for the
// participant's capabilities.
func (b *Bot) showMenu(ctx context.Context, req *request, text string) error {
	event, err := b.activeEvent(ctx)
	if err != nil {
		return err
	}
	caps := b.capabilities(ctx, req, event)
	if text == "" {
		text = textMenu
	}
	b.reply(ctx, req, text, menuButtons(caps)...)
	return nil
}
