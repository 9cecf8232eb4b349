package bot

import (
	"context"
	"errors"
	"fmt"

	"meetupbot/internal/domain"
)

// networking shows the intro, or the participant's profile when there is one.
func (b *Bot) networking(ctx context.Context, req *request) error {
	event, err := b.activeEvent(ctx)
	if err != nil {
		return err
	}
	if event == nil {
		return b.showMenu(ctx, req, textNoActiveEvent)
	}

	profile, err := b.svc.Matchmaker.ActiveProfile(ctx, req.participant, event)
	if errors.Is(err, domain.ErrNotFound) {
		b.reply(ctx, req, textNetworkingIntro,
			[]domain.Button{{Text: "Fill in profile", Data: cbProfileFill}, {Text: "Cancel", Data: cbMain}})
		return nil
	}
	if err != nil {
		return err
	}
	b.reply(ctx, req, renderProfile("Your profile:", profile, true),
		[]domain.Button{{Text: "Edit profile", Data: cbProfileFill}, {Text: "Start matching", Data: cbSearch}})
	return nil
}

func (b *Bot) profileStart(ctx context.Context, req *request) error {
	event, err := b.activeEvent(ctx)
	if err != nil {
		return err
	}
	if event == nil {
		return b.showMenu(ctx, req, textNoActiveEvent)
	}
	req.session.Reset()
	req.session.State = domain.StateNetworkingRole
	req.session.EventID = event.ID
	b.reply(ctx, req, textProfileRole)
	return nil
}

// profileStep records one answer of the profile form and asks the next question.
func (b *Bot) profileStep(ctx context.Context, req *request, text string) error {
	if text == "" {
		b.reply(ctx, req, textProfileEmpty)
		return nil
	}
	s := req.session
	switch s.State {
	case domain.StateNetworkingRole:
		s.Profile.Role = text
		s.State = domain.StateNetworkingCompany
		b.reply(ctx, req, textProfileCompany)
	case domain.StateNetworkingCompany:
		s.Profile.Company = text
		s.State = domain.StateNetworkingStack
		b.reply(ctx, req, textProfileStack)
	case domain.StateNetworkingStack:
		s.Profile.Stack = text
		s.State = domain.StateNetworkingInterests
		b.reply(ctx, req, textProfileInterests)
	case domain.StateNetworkingInterests:
		s.Profile.Interests = text
		s.State = domain.StateNetworkingContact
		b.reply(ctx, req, textProfileContact)
	case domain.StateNetworkingContact:
		s.Profile.Contact = text
		return b.saveProfile(ctx, req)
	}
	return nil
}

// saveProfile stores the collected answers for the event the form was started for,
// provided that event is still the active one, and starts matching right away.
func (b *Bot) saveProfile(ctx context.Context, req *request) error {
	event, err := b.activeEvent(ctx)
	if err != nil {
		return err
	}
	fields := req.session.Profile
	if event == nil || event.ID != req.session.EventID {
		req.session.Reset()
		return b.showMenu(ctx, req, textNoActiveEvent)
	}

	profile, err := b.svc.Matchmaker.UpsertProfile(ctx, req.participant, event, fields)
	if err != nil {
		return err
	}
	req.session.Reset()
	b.reply(ctx, req, renderProfile("Profile saved:", profile, true)+"\n\nLooking for someone to meet...")
	return b.startMatching(ctx, req, profile, true)
}

func (b *Bot) search(ctx context.Context, req *request) error {
	event, err := b.activeEvent(ctx)
	if err != nil {
		return err
	}
	if event == nil {
		return b.showMenu(ctx, req, textNoActiveEvent)
	}
	profile, err := b.svc.Matchmaker.ActiveProfile(ctx, req.participant, event)
	if errors.Is(err, domain.ErrNotFound) {
		b.reply(ctx, req, textProfileMissing, []domain.Button{{Text: "Fill in profile", Data: cbProfileFill}})
		return nil
	}
	if err != nil {
		return err
	}
	return b.startMatching(ctx, req, profile, false)
}

// startMatching shows the next candidate. A fresh profile is also introduced to a
// participant who has been waiting for somebody to appear.
func (b *Bot) startMatching(ctx context.Context, req *request, profile *domain.NetworkingProfile, fresh bool) error {
	outcome, err := b.svc.Matchmaker.StartMatching(ctx, profile)
	if err != nil {
		return err
	}
	if outcome.Waiting != nil {
		b.pingWaiting(ctx, outcome.Waiting)
	}
	if outcome.Proposal == nil {
		req.session.Reset()
		text := textNoMoreProfiles
		if fresh {
			text = textFirstInLine
		}
		b.reply(ctx, req, text, searchEndButtons()...)
		return nil
	}

	b.showCandidate(ctx, req, outcome.Proposal)
	if fresh && outcome.Waiting == nil {
		waiting, err := b.svc.Matchmaker.IntroduceWaitingPeer(ctx, profile)
		if err != nil {
			b.logger.WarnContext(ctx, "failed to introduce waiting peer", "profile_id", profile.ID, "error", err)
		} else if waiting != nil {
			b.pingWaiting(ctx, waiting)
		}
	}
	return nil
}

func (b *Bot) showCandidate(ctx context.Context, req *request, p *domain.Proposal) {
	req.session.State = domain.StateNetworkingMatch
	req.session.EventID = p.Match.EventID
	req.session.MatchID = p.Match.ID
	b.reply(ctx, req, renderProfile("Candidate:", p.Target, false)+"\n\nWhat would you like to do?", matchButtons(p.Match.ID)...)
}

// pingWaiting shows the newcomer to the participant who was first in line.
func (b *Bot) pingWaiting(ctx context.Context, p *domain.Proposal) {
	if p.Source.ParticipantTelegramID == 0 {
		return
	}
	b.svc.Notifier.Notify(ctx, &domain.Participant{ID: p.Source.ParticipantID, TelegramID: p.Source.ParticipantTelegramID},
		domain.OutgoingMessage{
			Text:    fmt.Sprintf(textPeerFound, renderProfile("", p.Target, false)),
			Buttons: matchButtons(p.Match.ID),
		})
}

// matchID prefers the id carried by the button and falls back to the session.
func matchID(req *request, arg string) string {
	if arg != "" {
		return arg
	}
	return req.session.MatchID
}

func (b *Bot) matchAccept(ctx context.Context, req *request, arg string) error {
	proposal, err := b.svc.Matchmaker.Accept(ctx, req.participant, matchID(req, arg))
	if isStaleMatch(err) {
		req.session.Reset()
		return b.showMenu(ctx, req, textNoOffer)
	}
	if err != nil {
		return err
	}
	req.session.Reset()
	contact := proposal.Target.Contact
	if contact == "" {
		contact = "your match"
	}
	return b.showMenu(ctx, req, fmt.Sprintf(textContactPeer, contact))
}

func (b *Bot) matchSkip(ctx context.Context, req *request, arg string) error {
	outcome, err := b.svc.Matchmaker.Skip(ctx, req.participant, matchID(req, arg))
	if isStaleMatch(err) {
		req.session.Reset()
		return b.showMenu(ctx, req, textNoOffer)
	}
	if err != nil {
		return err
	}
	if outcome.Waiting != nil {
		b.pingWaiting(ctx, outcome.Waiting)
	}
	if outcome.Proposal == nil {
		req.session.Reset()
		b.reply(ctx, req, textNoMoreProfiles, searchEndButtons()...)
		return nil
	}
	b.showCandidate(ctx, req, outcome.Proposal)
	return nil
}

func (b *Bot) matchStop(ctx context.Context, req *request) error {
	req.session.Reset()
	b.reply(ctx, req, textSearchStopped, searchEndButtons()...)
	return nil
}

// isStaleMatch reports errors caused by a match that no longer waits for this user.
func isStaleMatch(err error) bool {
	return errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrForbidden) ||
		errors.Is(err, domain.ErrInvalidTransition)
}
