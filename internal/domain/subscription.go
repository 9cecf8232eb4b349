package domain

import (
	"context"
	"time"
)

// SubscriptionType selects what a subscription follows.
type SubscriptionType string

const (
	// SubscriptionEvent follows one event's program.
	SubscriptionEvent SubscriptionType = "event"
	// SubscriptionFuture follows announcements of future events; EventID is nil.
	SubscriptionFuture SubscriptionType = "future"
)

// Subscription is unique per (participant, event-or-null, type).
type Subscription struct {
	ID            string           `json:"id"`
	ParticipantID string           `json:"participant_id"`
	EventID       *string          `json:"event_id"`
	Type          SubscriptionType `json:"type"`
	IsActive      bool             `json:"is_active"`
	CreatedAt     time.Time        `json:"created_at"`
}

// SubscriptionRepository defines storage for subscriptions.
type SubscriptionRepository interface {
	// Get returns ErrNotFound when no row exists for the triple.
	Get(ctx context.Context, participantID string, eventID *string, typ SubscriptionType) (*Subscription, error)
	Create(ctx context.Context, s *Subscription) error
	SetActive(ctx context.Context, id string, active bool) error
	// ListRecipients returns participants with an active event subscription for
	// eventID or an active future subscription, each participant once.
	ListRecipients(ctx context.Context, eventID string) ([]*Participant, error)
}

// SubscriptionService toggles subscriptions and resolves program notification recipients.
type SubscriptionService interface {
	Toggle(ctx context.Context, participant *Participant, event *Event, typ SubscriptionType) (bool, error)
	IsSubscribed(ctx context.Context, participant *Participant, event *Event, typ SubscriptionType) (bool, error)
	Recipients(ctx context.Context, event *Event) ([]*Participant, error)
}
