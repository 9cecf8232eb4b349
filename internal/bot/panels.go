package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"meetupbot/internal/domain"
)

func (b *Bot) speakerPanel(ctx context.Context, req *request) error {
	event, err := b.activeEvent(ctx)
	if err != nil {
		return err
	}
	caps := b.capabilities(ctx, req, event)
	if !caps.Speaker {
		return b.showMenu(ctx, req, textSpeakersOnly)
	}
	if event == nil {
		return b.showMenu(ctx, req, textNoActiveEvent)
	}

	talks, err := b.svc.Scheduler.SpeakerTalks(ctx, req.participant, event)
	if err != nil {
		return err
	}
	if len(talks) == 0 {
		return b.showMenu(ctx, req, "You have no talks in this event's program. Check with the organizers.")
	}

	lines := []string{"Your talks:"}
	var rows [][]domain.Button
	for _, t := range talks {
		lines = append(lines,
			fmt.Sprintf("%s %s-%s %s", statusIcon(t.Talk.Status), b.clock(t.Talk.StartAt), b.clock(t.Talk.EndAt), t.Talk.Title),
			statsLine(t.Questions))
		if !t.Talk.IsTerminal() {
			rows = append(rows, talkButton(t, t.Talk.Title))
		}
	}
	rows = append(rows,
		[]domain.Button{{Text: "❓ Questions for the current talk", Data: cbOrgQuestions}},
		[]domain.Button{{Text: "Program", Data: cbProgram}, {Text: "Ask a question", Data: cbAsk}},
		mainMenuRow(),
	)
	b.reply(ctx, req, strings.Join(lines, "\n")+
		"\n\nPress \"Make current\" before going on stage and \"Finish\" when you are done.", rows...)
	return nil
}

func (b *Bot) organizerPanel(ctx context.Context, req *request) error {
	event, err := b.requireOrganizer(ctx, req)
	if event == nil || err != nil {
		return err
	}

	talks, err := b.svc.Scheduler.Program(ctx, event)
	if err != nil {
		return err
	}
	header := fmt.Sprintf("Active event: %s\n%s %s to %s",
		event.Name, b.date(event.StartAt), b.clock(event.StartAt), b.clock(event.EndAt))
	if len(talks) == 0 {
		return b.showMenu(ctx, req, header+"\nThe program has no talks yet.")
	}

	lines := []string{header, "", "Talks:"}
	var rows [][]domain.Button
	for i, t := range talks {
		if i == maxPanelTalks {
			break
		}
		marker := "•"
		if t.IsCurrent {
			marker = "▶️"
		}
		lines = append(lines,
			fmt.Sprintf("%s %s-%s %s (%s)", marker, b.clock(t.Talk.StartAt), b.clock(t.Talk.EndAt), t.Talk.Title, speakerOrTBA(t.Talk)),
			statsLine(t.Questions))
		if !t.Talk.IsTerminal() {
			rows = append(rows, talkButton(t, t.Talk.Title))
		}
	}
	rows = append(rows,
		[]domain.Button{{Text: "❓ Questions for the current talk", Data: cbOrgQuestions}},
		[]domain.Button{{Text: "📣 Send program to subscribers", Data: cbOrgNotify}},
		[]domain.Button{{Text: "💸 Donations", Data: cbOrgDonations}, {Text: "🎤 Applications", Data: cbOrgApplications}},
		mainMenuRow(),
	)
	b.reply(ctx, req, strings.Join(lines, "\n")+
		"\n\nMark the current talk by hand so questions reach the right speaker even when the schedule shifts.", rows...)
	return nil
}

// requireOrganizer returns the active event when the participant is an organizer.
// It replies and returns nil otherwise.
func (b *Bot) requireOrganizer(ctx context.Context, req *request) (*domain.Event, error) {
	event, err := b.activeEvent(ctx)
	if err != nil {
		return nil, err
	}
	if !b.capabilities(ctx, req, event).Organizer {
		return nil, b.showMenu(ctx, req, textNotAllowed)
	}
	if event == nil {
		return nil, b.showMenu(ctx, req, textNoActiveEvent)
	}
	return event, nil
}

func (b *Bot) talkStart(ctx context.Context, req *request, talkID string) error {
	_, err := b.svc.Scheduler.Start(ctx, req.participant, talkID)
	if done, err := b.talkChangeFailed(ctx, req, err); done {
		return err
	}
	req.ack = textTalkStarted
	return b.refreshPanel(ctx, req)
}

func (b *Bot) talkFinish(ctx context.Context, req *request, talkID string) error {
	_, err := b.svc.Scheduler.Finish(ctx, req.participant, talkID)
	if done, err := b.talkChangeFailed(ctx, req, err); done {
		return err
	}
	req.ack = textTalkFinished
	return b.refreshPanel(ctx, req)
}

// talkChangeFailed turns scheduler refusals into replies. done is true when the
// caller should stop.
func (b *Bot) talkChangeFailed(ctx context.Context, req *request, err error) (bool, error) {
	switch {
	case err == nil:
		return false, nil
	case errors.Is(err, domain.ErrForbidden):
		req.ack = textManageDenied
		b.reply(ctx, req, textManageDenied)
	case errors.Is(err, domain.ErrNotFound):
		req.ack = textTalkNotFound
		b.reply(ctx, req, textTalkNotFound)
	case errors.Is(err, domain.ErrInvalidTransition):
		req.ack = textTalkBadState
		b.reply(ctx, req, textTalkBadState)
	default:
		return true, err
	}
	return true, nil
}

func (b *Bot) refreshPanel(ctx context.Context, req *request) error {
	if req.participant.IsOrganizer {
		return b.organizerPanel(ctx, req)
	}
	return b.speakerPanel(ctx, req)
}

// showQuestions sends every pending question of the current talk as its own message
// with buttons to close it.
func (b *Bot) showQuestions(ctx context.Context, req *request) error {
	event, err := b.activeEvent(ctx)
	if err != nil {
		return err
	}
	caps := b.capabilities(ctx, req, event)
	if !caps.Organizer && !caps.Speaker {
		return b.showMenu(ctx, req, textNotAllowed)
	}
	if event == nil {
		return b.showMenu(ctx, req, textNoActiveEvent)
	}
	talk, err := b.svc.Scheduler.ResolveCurrent(ctx, event)
	if err != nil {
		return err
	}
	if talk == nil {
		return b.showMenu(ctx, req, textNoCurrentTalk)
	}
	if !caps.CanManageTalk(req.participant, talk) {
		return b.showMenu(ctx, req, "Only organizers and the current speaker can see the question queue.")
	}

	queue, err := b.svc.Questions.PendingQueue(ctx, talk.ID)
	if err != nil {
		return err
	}
	if len(queue) == 0 {
		return b.showMenu(ctx, req, textQuestionsNone)
	}
	b.reply(ctx, req, fmt.Sprintf("%d questions waiting for \"%s\":", len(queue), talk.Title))
	for _, q := range queue {
		b.replyMarkdown(ctx, req, fmt.Sprintf("❓ *%s*\nFrom: %s", escape(q.Text), questionAuthor(q)),
			[]domain.Button{
				{Text: "Answered", Data: withArg(cbQuestionAnswered, q.ID)},
				{Text: "Reject", Data: withArg(cbQuestionRejected, q.ID)},
			})
	}
	return nil
}

func (b *Bot) closeQuestion(ctx context.Context, req *request, questionID string, answered bool) error {
	var err error
	if answered {
		_, err = b.svc.Questions.MarkAnswered(ctx, req.participant, questionID)
	} else {
		_, err = b.svc.Questions.MarkRejected(ctx, req.participant, questionID)
	}
	switch {
	case errors.Is(err, domain.ErrForbidden):
		req.ack = textManageDenied
	case errors.Is(err, domain.ErrInvalidTransition):
		req.ack = textQuestionClosed
	case errors.Is(err, domain.ErrNotFound):
		req.ack = textUnknownButton
	case err != nil:
		return err
	case answered:
		req.ack = "Marked as answered."
	default:
		req.ack = "Question rejected."
	}
	return nil
}

// notifyProgram sends the active event's program to its subscribers and to everyone
// following future events.
func (b *Bot) notifyProgram(ctx context.Context, req *request) error {
	event, err := b.requireOrganizer(ctx, req)
	if event == nil || err != nil {
		return err
	}
	talks, err := b.svc.Scheduler.Program(ctx, event)
	if err != nil {
		return err
	}
	program := &domain.EventProgram{Event: event}
	for _, t := range talks {
		program.Talks = append(program.Talks, t.Talk)
	}
	recipients, err := b.svc.Subscriptions.Recipients(ctx, event)
	if err != nil {
		return err
	}
	res := b.svc.Notifier.Broadcast(ctx, recipients, domain.OutgoingMessage{
		Text:     "📣 Program update\n\n" + strings.Join(b.renderEventBlock(program), "\n"),
		Markdown: true,
	})
	ctx, cancel := b.resume(ctx)
	defer cancel()
	return b.showMenu(ctx, req, fmt.Sprintf(textProgramNotified, res.Sent, res.Failed))
}

func (b *Bot) donationSummary(ctx context.Context, req *request) error {
	event, err := b.requireOrganizer(ctx, req)
	if event == nil || err != nil {
		return err
	}
	summary, err := b.svc.Donations.Summary(ctx, event)
	if err != nil {
		return err
	}
	b.reply(ctx, req, b.renderDonationSummary(event, summary), []domain.Button{{Text: "Back", Data: cbOrganizer}})
	return nil
}

func (b *Bot) listApplications(ctx context.Context, req *request) error {
	if !req.participant.IsOrganizer {
		return b.showMenu(ctx, req, textNotAllowed)
	}
	apps, err := b.svc.Applications.ListNew(ctx)
	if err != nil {
		return err
	}
	if len(apps) == 0 {
		b.reply(ctx, req, textNoApplications, []domain.Button{{Text: "Back", Data: cbOrganizer}})
		return nil
	}
	for _, a := range apps {
		from := a.ParticipantID
		if a.Participant != nil {
			from = a.Participant.DisplayName()
		}
		b.reply(ctx, req, fmt.Sprintf(textApplicationEntry, from, a.EventName, a.Topic, a.Contact),
			[]domain.Button{{Text: "Mark reviewed", Data: withArg(cbAppReviewed, a.ID)}})
	}
	return nil
}

func (b *Bot) applicationReviewed(ctx context.Context, req *request, id string) error {
	_, err := b.svc.Applications.MarkReviewed(ctx, req.participant, id)
	switch {
	case errors.Is(err, domain.ErrForbidden):
		req.ack = textNotAllowed
	case errors.Is(err, domain.ErrNotFound):
		req.ack = textUnknownButton
	case err != nil:
		return err
	default:
		req.ack = textAppReviewed
	}
	return nil
}

func (b *Bot) announceStart(ctx context.Context, req *request) error {
	event, err := b.requireOrganizer(ctx, req)
	if event == nil || err != nil {
		return err
	}
	if !event.AnnouncementsEnabled {
		return b.showMenu(ctx, req, textAnnounceDisabled)
	}
	req.session.State = domain.StateAnnounceText
	req.session.EventID = event.ID
	b.reply(ctx, req, textAnnouncePrompt)
	return nil
}

// announceText broadcasts the text if the sender is still an organizer and the event
// the announcement was started for is still active.
func (b *Bot) announceText(ctx context.Context, req *request, text string) error {
	if text == "" {
		b.reply(ctx, req, textAnnounceEmpty)
		return nil
	}
	eventID := req.session.EventID
	req.session.Reset()

	event, err := b.requireOrganizer(ctx, req)
	if event == nil || err != nil {
		return err
	}
	if event.ID != eventID {
		return b.showMenu(ctx, req, textNoActiveEvent)
	}

	recipients, err := b.svc.Participants.NotificationRecipients(ctx)
	if err != nil {
		return err
	}
	res := b.svc.Notifier.Broadcast(ctx, recipients, domain.OutgoingMessage{
		Text: fmt.Sprintf(textAnnouncement, event.Name, text),
	})
	ctx, cancel := b.resume(ctx)
	defer cancel()
	return b.showMenu(ctx, req, fmt.Sprintf(textAnnounceSent, res.Sent, res.Failed))
}
