package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"meetupbot/internal/domain"
)

type eventService struct {
	eventRepo      domain.EventRepository
	talkRepo       domain.TalkRepository
	now            func() time.Time
	contextTimeout time.Duration
}

func NewEventService(eventRepo domain.EventRepository, talkRepo domain.TalkRepository, now func() time.Time, timeout time.Duration) domain.EventService {
	if now == nil {
		now = time.Now
	}
	return &eventService{
		eventRepo:      eventRepo,
		talkRepo:       talkRepo,
		now:            now,
		contextTimeout: timeout,
	}
}

// Active returns the active event or ErrNoActiveEvent.
func (s *eventService) Active(ctx context.Context) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.eventRepo.GetActive(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNoActiveEvent
		}
		return nil, fmt.Errorf("get active event: %w", err)
	}
	return event, nil
}

func (s *eventService) Activate(ctx context.Context, actor *domain.Participant, eventID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if actor == nil || !actor.IsOrganizer {
		return domain.ErrForbidden
	}
	if err := s.eventRepo.Activate(ctx, eventID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("activate event: %w", err)
	}
	return nil
}

// Upcoming splits published, not yet ended events into those already running and
// those starting later. Each carries its talks in program order.
func (s *eventService) Upcoming(ctx context.Context) ([]*domain.EventProgram, []*domain.EventProgram, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	now := s.now()
	events, err := s.eventRepo.ListPublishedEndingAfter(ctx, now)
	if err != nil {
		return nil, nil, fmt.Errorf("list published events: %w", err)
	}
	var current, future []*domain.EventProgram
	for _, e := range events {
		talks, err := s.talkRepo.ListByEvent(ctx, e.ID)
		if err != nil {
			return nil, nil, fmt.Errorf("list talks: %w", err)
		}
		program := &domain.EventProgram{Event: e, Talks: talks}
		if e.StartAt.After(now) {
			future = append(future, program)
		} else {
			current = append(current, program)
		}
	}
	return current, future, nil
}

// OpenForApplications lists events that still accept speaker applications.
func (s *eventService) OpenForApplications(ctx context.Context) ([]*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	events, err := s.eventRepo.ListUnpublished(ctx)
	if err != nil {
		return nil, fmt.Errorf("list unpublished events: %w", err)
	}
	return events, nil
}
