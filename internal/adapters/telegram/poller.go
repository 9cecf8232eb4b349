package telegram

import (
	"context"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"meetupbot/internal/domain"
)

// Poller long-polls the Bot API and hands every update to a handler.
type Poller struct {
	api     *tgbotapi.BotAPI
	timeout int
	logger  *slog.Logger
}

// NewPoller returns a Poller. timeout is the long-poll timeout in seconds.
func NewPoller(api *tgbotapi.BotAPI, timeout int, logger *slog.Logger) *Poller {
	return &Poller{api: api, timeout: timeout, logger: logger}
}

// Run blocks until ctx is cancelled.
func (p *Poller) Run(ctx context.Context, handle func(context.Context, domain.Update)) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = p.timeout
	updates := p.api.GetUpdatesChan(u)
	p.logger.Info("telegram polling started", "bot", p.api.Self.UserName)

	for {
		select {
		case <-ctx.Done():
			p.api.StopReceivingUpdates()
			p.logger.Info("telegram polling stopped")
			return nil
		case upd, ok := <-updates:
			if !ok {
				return nil
			}
			in, ok := toUpdate(upd)
			if !ok {
				p.logger.Debug("ignoring update", "update_id", upd.UpdateID)
				continue
			}
			handle(ctx, in)
		}
	}
}

// toUpdate keeps private text messages and button presses and drops everything else.
func toUpdate(upd tgbotapi.Update) (domain.Update, bool) {
	switch {
	case upd.CallbackQuery != nil:
		cq := upd.CallbackQuery
		if cq.From == nil {
			return domain.Update{}, false
		}
		in := domain.Update{
			ChatID:       cq.From.ID,
			From:         identity(cq.From),
			CallbackID:   cq.ID,
			CallbackData: cq.Data,
		}
		if cq.Message != nil && cq.Message.Chat != nil {
			in.ChatID = cq.Message.Chat.ID
		}
		return in, true
	case upd.Message != nil:
		msg := upd.Message
		if msg.From == nil || msg.Chat == nil || !msg.Chat.IsPrivate() {
			return domain.Update{}, false
		}
		in := domain.Update{ChatID: msg.Chat.ID, From: identity(msg.From), Text: msg.Text}
		if msg.IsCommand() {
			in.Command = msg.Command()
			in.Args = msg.CommandArguments()
		}
		return in, true
	default:
		return domain.Update{}, false
	}
}

func identity(u *tgbotapi.User) domain.Identity {
	return domain.Identity{
		TelegramID: u.ID,
		Username:   u.UserName,
		FirstName:  u.FirstName,
		LastName:   u.LastName,
	}
}
