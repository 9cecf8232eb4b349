package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"meetupbot/internal/domain"
)

type subscriptionService struct {
	repo           domain.SubscriptionRepository
	now            func() time.Time
	contextTimeout time.Duration
}

// NewSubscriptionService creates a SubscriptionService over repo.
func NewSubscriptionService(repo domain.SubscriptionRepository, now func() time.Time, timeout time.Duration) domain.SubscriptionService {
	if now == nil {
		now = time.Now
	}
	return &subscriptionService{repo: repo, now: now, contextTimeout: timeout}
}

// subscriptionEventID binds event subscriptions to the event and future ones to nothing.
func subscriptionEventID(event *domain.Event, typ domain.SubscriptionType) (*string, error) {
	switch typ {
	case domain.SubscriptionFuture:
		return nil, nil
	case domain.SubscriptionEvent:
		if event == nil {
			return nil, domain.ErrNoActiveEvent
		}
		id := event.ID
		return &id, nil
	default:
		return nil, domain.ErrInvalidInput
	}
}

// Toggle creates an active subscription on first use and flips it afterwards.
func (s *subscriptionService) Toggle(ctx context.Context, participant *domain.Participant, event *domain.Event, typ domain.SubscriptionType) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	eventID, err := subscriptionEventID(event, typ)
	if err != nil {
		return false, err
	}
	sub, err := s.repo.Get(ctx, participant.ID, eventID, typ)
	if errors.Is(err, domain.ErrNotFound) {
		sub = &domain.Subscription{
			ParticipantID: participant.ID,
			EventID:       eventID,
			Type:          typ,
			IsActive:      true,
			CreatedAt:     s.now(),
		}
		err = s.repo.Create(ctx, sub)
		if err == nil {
			return true, nil
		}
		if !errors.Is(err, domain.ErrInvalidInput) {
			return false, fmt.Errorf("create subscription: %w", err)
		}
		// Lost a race with a concurrent toggle; flip the row that won.
		sub, err = s.repo.Get(ctx, participant.ID, eventID, typ)
	}
	if err != nil {
		return false, fmt.Errorf("get subscription: %w", err)
	}
	active := !sub.IsActive
	if err := s.repo.SetActive(ctx, sub.ID, active); err != nil {
		return sub.IsActive, fmt.Errorf("update subscription: %w", err)
	}
	return active, nil
}

func (s *subscriptionService) IsSubscribed(ctx context.Context, participant *domain.Participant, event *domain.Event, typ domain.SubscriptionType) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	eventID, err := subscriptionEventID(event, typ)
	if err != nil {
		return false, err
	}
	sub, err := s.repo.Get(ctx, participant.ID, eventID, typ)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("get subscription: %w", err)
	}
	return sub.IsActive, nil
}

func (s *subscriptionService) Recipients(ctx context.Context, event *domain.Event) ([]*domain.Participant, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	out, err := s.repo.ListRecipients(ctx, event.ID)
	if err != nil {
		return nil, fmt.Errorf("list recipients: %w", err)
	}
	return out, nil
}
