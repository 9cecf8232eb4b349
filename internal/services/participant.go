package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"meetupbot/internal/domain"
)

type participantService struct {
	participantRepo domain.ParticipantRepository
	talkRepo        domain.TalkRepository
	now             func() time.Time
	contextTimeout  time.Duration
}

// NewParticipantService creates a ParticipantService. now may be nil.
func NewParticipantService(participantRepo domain.ParticipantRepository, talkRepo domain.TalkRepository, now func() time.Time, timeout time.Duration) domain.ParticipantService {
	if now == nil {
		now = time.Now
	}
	return &participantService{
		participantRepo: participantRepo,
		talkRepo:        talkRepo,
		now:             now,
		contextTimeout:  timeout,
	}
}

// Ensure registers the user on first contact and refreshes the profile fields afterwards.
func (s *participantService) Ensure(ctx context.Context, id domain.Identity) (*domain.Participant, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if id.TelegramID == 0 {
		return nil, domain.ErrInvalidInput
	}
	now := s.now()
	p := &domain.Participant{
		TelegramID: id.TelegramID,
		Username:   strings.TrimPrefix(strings.TrimSpace(id.Username), "@"),
		FirstName:  strings.TrimSpace(id.FirstName),
		LastName:   strings.TrimSpace(id.LastName),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.participantRepo.Upsert(ctx, p); err != nil {
		return nil, fmt.Errorf("upsert participant: %w", err)
	}
	return p, nil
}

// Capabilities treats anyone assigned to a talk of event as a speaker, flag or not.
func (s *participantService) Capabilities(ctx context.Context, p *domain.Participant, event *domain.Event) (domain.Capabilities, error) {
	if p == nil {
		return domain.Capabilities{}, nil
	}
	caps := domain.Capabilities{Speaker: p.IsSpeaker, Organizer: p.IsOrganizer}
	if caps.Speaker || event == nil {
		return caps, nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	has, err := s.talkRepo.HasSpeakerTalk(ctx, event.ID, p.ID)
	if err != nil {
		return caps, fmt.Errorf("check speaker talks: %w", err)
	}
	caps.Speaker = has
	return caps, nil
}

func (s *participantService) ToggleNotifications(ctx context.Context, p *domain.Participant) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	wants := !p.WantsNotifications
	if err := s.participantRepo.SetWantsNotifications(ctx, p.ID, wants); err != nil {
		return p.WantsNotifications, fmt.Errorf("set notifications: %w", err)
	}
	p.WantsNotifications = wants
	return wants, nil
}

func (s *participantService) NotificationRecipients(ctx context.Context) ([]*domain.Participant, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	out, err := s.participantRepo.ListWantingNotifications(ctx)
	if err != nil {
		return nil, fmt.Errorf("list notification recipients: %w", err)
	}
	return out, nil
}

func (s *participantService) Organizers(ctx context.Context) ([]*domain.Participant, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	out, err := s.participantRepo.ListOrganizers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list organizers: %w", err)
	}
	return out, nil
}
