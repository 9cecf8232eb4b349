package bot

import (
	"context"
	"errors"
	"fmt"

	"meetupbot/internal/domain"
)

// askStart targets the current talk, or offers a talk picker when nothing is running.
func (b *Bot) askStart(ctx context.Context, req *request) error {
	event, err := b.activeEvent(ctx)
	if err != nil {
		return err
	}
	if event == nil {
		return b.showMenu(ctx, req, textNoActiveEvent)
	}

	talk, err := b.svc.Scheduler.ResolveCurrent(ctx, event)
	if err != nil {
		return fmt.Errorf("resolve current talk: %w", err)
	}
	if talk != nil {
		b.beginQuestion(ctx, req, talk)
		return nil
	}

	program, err := b.svc.Scheduler.Program(ctx, event)
	if err != nil {
		return fmt.Errorf("load program: %w", err)
	}
	var rows [][]domain.Button
	for _, t := range program {
		if t.Talk.IsTerminal() {
			continue
		}
		rows = append(rows, []domain.Button{{
			Text: b.clock(t.Talk.StartAt) + " " + shorten(t.Talk.Title, 40),
			Data: withArg(cbAskTalk, t.Talk.ID),
		}})
		if len(rows) == maxAskTalks {
			break
		}
	}
	if len(rows) == 0 {
		return b.showMenu(ctx, req, textAskEmptyProg)
	}
	b.reply(ctx, req, textAskChooseTalk, append(rows, mainMenuRow())...)
	return nil
}

func (b *Bot) askTalk(ctx context.Context, req *request, talkID string) error {
	talk, err := b.svc.Scheduler.Get(ctx, talkID)
	if errors.Is(err, domain.ErrNotFound) {
		b.reply(ctx, req, textTalkNotFound)
		return nil
	}
	if err != nil {
		return err
	}
	if talk.IsTerminal() {
		b.reply(ctx, req, textAskTalkClosed)
		return nil
	}
	b.beginQuestion(ctx, req, talk)
	return nil
}

func (b *Bot) beginQuestion(ctx context.Context, req *request, talk *domain.Talk) {
	req.session.State = domain.StateAskText
	req.session.EventID = talk.EventID
	req.session.TalkID = talk.ID
	b.reply(ctx, req, fmt.Sprintf(textAskPrompt, talk.Title, speakerOrTBA(talk)))
}

// askText submits the question to the talk remembered in the session, after making
// sure the talk still exists and still takes questions.
func (b *Bot) askText(ctx context.Context, req *request, text string) error {
	talk, err := b.svc.Scheduler.Get(ctx, req.session.TalkID)
	if errors.Is(err, domain.ErrNotFound) {
		req.session.Reset()
		return b.showMenu(ctx, req, textTalkNotFound)
	}
	if err != nil {
		return err
	}
	if talk.IsTerminal() {
		req.session.Reset()
		return b.showMenu(ctx, req, textAskTalkClosed)
	}

	_, delivered, err := b.svc.Questions.Ask(ctx, talk.ID, req.participant, text)
	if errors.Is(err, domain.ErrInvalidInput) {
		b.reply(ctx, req, fmt.Sprintf(textAskInvalid, domain.MaxQuestionLength))
		return nil
	}
	if err != nil {
		return err
	}
	req.session.Reset()
	if delivered {
		return b.showMenu(ctx, req, textAskDelivered)
	}
	return b.showMenu(ctx, req, textAskQueued)
}
