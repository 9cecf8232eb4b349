package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"meetupbot/internal/domain"
)

func subscriptionLabel(typ domain.SubscriptionType) string {
	if typ == domain.SubscriptionFuture {
		return "future events"
	}
	return "this event's program"
}

func onOff(on bool) string {
	if on {
		return "on"
	}
	return "off"
}

func onOffIcon(on bool) string {
	if on {
		return "✅"
	}
	return "▫️"
}

func (b *Bot) subscribeStart(ctx context.Context, req *request) error {
	event, err := b.activeEvent(ctx)
	if err != nil {
		return err
	}
	var eventOn bool
	if event != nil {
		if eventOn, err = b.svc.Subscriptions.IsSubscribed(ctx, req.participant, event, domain.SubscriptionEvent); err != nil {
			return err
		}
	}
	futureOn, err := b.svc.Subscriptions.IsSubscribed(ctx, req.participant, nil, domain.SubscriptionFuture)
	if err != nil {
		return err
	}

	req.session.State = domain.StateSubscribeChoice
	var row []domain.Button
	if event != nil {
		row = append(row, domain.Button{Text: "This event", Data: withArg(cbSubscribeType, string(domain.SubscriptionEvent))})
	}
	row = append(row, domain.Button{Text: "Future events", Data: withArg(cbSubscribeType, string(domain.SubscriptionFuture))})
	b.reply(ctx, req, fmt.Sprintf(textSubscribePrompt, onOffIcon(eventOn), onOff(eventOn), onOffIcon(futureOn), onOff(futureOn)),
		row, mainMenuRow())
	return nil
}

// parseSubscriptionType accepts the button values and a few typed synonyms.
func parseSubscriptionType(text string) (domain.SubscriptionType, bool) {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case string(domain.SubscriptionEvent), "this", "this event":
		return domain.SubscriptionEvent, true
	case string(domain.SubscriptionFuture), "future events", "upcoming":
		return domain.SubscriptionFuture, true
	}
	return "", false
}

func (b *Bot) subscribeChoice(ctx context.Context, req *request, text string) error {
	typ, ok := parseSubscriptionType(text)
	if !ok {
		req.session.State = domain.StateSubscribeChoice
		b.reply(ctx, req, textSubscribeBad)
		return nil
	}
	req.session.Reset()

	var event *domain.Event
	if typ == domain.SubscriptionEvent {
		var err error
		if event, err = b.activeEvent(ctx); err != nil {
			return err
		}
	}
	active, err := b.svc.Subscriptions.Toggle(ctx, req.participant, event, typ)
	if errors.Is(err, domain.ErrNoActiveEvent) {
		return b.showMenu(ctx, req, textNoActiveEvent)
	}
	if err != nil {
		return err
	}
	text = fmt.Sprintf(textSubscribedOff, subscriptionLabel(typ))
	if active {
		text = fmt.Sprintf(textSubscribedOn, subscriptionLabel(typ))
	}
	req.ack = text
	return b.showMenu(ctx, req, text)
}
