package bot

import (
	"context"
	"errors"
	"fmt"

	"meetupbot/internal/domain"
)

func (b *Bot) start(ctx context.Context, req *request) error {
	event, err := b.activeEvent(ctx)
	if err != nil {
		return err
	}
	caps := b.capabilities(ctx, req, event)
	b.reply(ctx, req, fmt.Sprintf(textWelcome, roleName(caps)), menuButtons(caps)...)
	return nil
}

// program renders every running and upcoming published event, followed by the
// current and next talk of the active event.
func (b *Bot) program(ctx context.Context, req *request) error {
	current, future, err := b.svc.Events.Upcoming(ctx)
	if err != nil {
		return fmt.Errorf("load program: %w", err)
	}
	text := b.renderProgram(current, future)

	event, err := b.activeEvent(ctx)
	if err != nil {
		return err
	}
	if event != nil {
		now, err := b.svc.Scheduler.ResolveCurrent(ctx, event)
		if err != nil {
			return fmt.Errorf("resolve current talk: %w", err)
		}
		next, err := b.svc.Scheduler.ResolveNext(ctx, event)
		if err != nil {
			return fmt.Errorf("resolve next talk: %w", err)
		}
		text += "\n\n" + b.renderNowAndNext(now, next)
	}

	b.replyMarkdown(ctx, req, text,
		[]domain.Button{{Text: "❓ Ask the speaker", Data: cbAsk}, {Text: "🔔 Subscribe", Data: cbSubscribe}},
		mainMenuRow(),
	)
	return nil
}

func (b *Bot) toggleNotifications(ctx context.Context, req *request) error {
	on, err := b.svc.Participants.ToggleNotifications(ctx, req.participant)
	if err != nil {
		return err
	}
	text := textNotificationsOff
	if on {
		text = textNotificationsOn
	}
	req.ack = text
	b.reply(ctx, req, text, mainMenuRow())
	return nil
}

func (b *Bot) dashboard(ctx context.Context, req *request) error {
	token, expiresAt, err := b.svc.Dashboard.IssueToken(ctx, req.participant)
	if errors.Is(err, domain.ErrForbidden) {
		b.reply(ctx, req, textNotAllowed)
		return nil
	}
	if err != nil {
		return err
	}
	text := fmt.Sprintf(textDashboardToken, expiresAt.In(b.opts.Location).Format("02.01.2006 15:04"), token)
	if b.opts.DashboardURL != "" {
		text += "\n\nUse it as a bearer token at " + b.opts.DashboardURL
	}
	b.reply(ctx, req, text)
	return nil
}
