package bot

import (
	"context"
	"errors"
	"fmt"

	"meetupbot/internal/domain"
)

// applyStart lists unpublished events. With a single candidate the form starts right away.
func (b *Bot) applyStart(ctx context.Context, req *request) error {
	events, err := b.svc.Events.OpenForApplications(ctx)
	if err != nil {
		return err
	}
	switch len(events) {
	case 0:
		return b.showMenu(ctx, req, textApplyNone)
	case 1:
		b.beginApplication(ctx, req, events[0])
		return nil
	}
	rows := make([][]domain.Button, 0, len(events)+1)
	for _, e := range events {
		rows = append(rows, []domain.Button{{
			Text: fmt.Sprintf("%s (%s)", shorten(e.Name, 40), b.date(e.StartAt)),
			Data: withArg(cbApplyEvent, e.ID),
		}})
	}
	b.reply(ctx, req, textApplyChoose, append(rows, mainMenuRow())...)
	return nil
}

func (b *Bot) applyEvent(ctx context.Context, req *request, eventID string) error {
	events, err := b.svc.Events.OpenForApplications(ctx)
	if err != nil {
		return err
	}
	for _, e := range events {
		if e.ID == eventID {
			b.beginApplication(ctx, req, e)
			return nil
		}
	}
	return b.showMenu(ctx, req, textApplyClosed)
}

func (b *Bot) beginApplication(ctx context.Context, req *request, event *domain.Event) {
	req.session.State = domain.StateApplyTopic
	req.session.EventID = event.ID
	req.session.Topic = ""
	b.reply(ctx, req, fmt.Sprintf(textApplyTopic, event.Name))
}

func (b *Bot) applyTopic(ctx context.Context, req *request, text string) error {
	if text == "" {
		b.reply(ctx, req, textApplyEmpty)
		return nil
	}
	req.session.Topic = text
	req.session.State = domain.StateApplyContact
	b.reply(ctx, req, textApplyContact)
	return nil
}

func (b *Bot) applyContact(ctx context.Context, req *request, text string) error {
	if text == "" {
		b.reply(ctx, req, textApplyEmpty)
		return nil
	}
	eventID, topic := req.session.EventID, req.session.Topic
	req.session.Reset()

	_, err := b.svc.Applications.Submit(ctx, req.participant, eventID, topic, text)
	if errors.Is(err, domain.ErrInvalidInput) || errors.Is(err, domain.ErrNotFound) {
		return b.showMenu(ctx, req, textApplyClosed)
	}
	if err != nil {
		return err
	}
	return b.showMenu(ctx, req, textApplySent)
}
