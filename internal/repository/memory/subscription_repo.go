package memory

import (
	"context"

	"meetupbot/internal/domain"
)

type subscriptionRepository struct {
	s *Store
}

func NewSubscriptionRepository(s *Store) domain.SubscriptionRepository {
	return &subscriptionRepository{s: s}
}

func sameEvent(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func copySubscription(sub *domain.Subscription) *domain.Subscription {
	cp := *sub
	if sub.EventID != nil {
		cp.EventID = strPtr(*sub.EventID)
	}
	return &cp
}

func (r *subscriptionRepository) Get(_ context.Context, participantID string, eventID *string, typ domain.SubscriptionType) (*domain.Subscription, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, sub := range r.s.subs {
		if sub.ParticipantID == participantID && sub.Type == typ && sameEvent(sub.EventID, eventID) {
			return copySubscription(sub), nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *subscriptionRepository) Create(_ context.Context, sub *domain.Subscription) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.subs {
		if existing.ParticipantID == sub.ParticipantID && existing.Type == sub.Type && sameEvent(existing.EventID, sub.EventID) {
			return domain.ErrInvalidInput
		}
	}
	sub.ID = r.s.newID()
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = r.s.now()
	}
	r.s.subs[sub.ID] = copySubscription(sub)
	return nil
}

func (r *subscriptionRepository) SetActive(_ context.Context, id string, active bool) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sub, ok := r.s.subs[id]
	if !ok {
		return domain.ErrNotFound
	}
	sub.IsActive = active
	return nil
}

func (r *subscriptionRepository) ListRecipients(_ context.Context, eventID string) ([]*domain.Participant, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	wanted := make(map[string]bool)
	for _, sub := range r.s.subs {
		if !sub.IsActive {
			continue
		}
		switch sub.Type {
		case domain.SubscriptionFuture:
			wanted[sub.ParticipantID] = true
		case domain.SubscriptionEvent:
			if sub.EventID != nil && *sub.EventID == eventID {
				wanted[sub.ParticipantID] = true
			}
		}
	}
	return r.s.participantsWhere(func(p *domain.Participant) bool { return wanted[p.ID] }), nil
}
