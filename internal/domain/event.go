package domain

import (
	"context"
	"time"
)

// Place is the venue of an event.
// swagger:model Place
type Place struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address"`
}

// Event represents a meetup or conference day.
// swagger:model Event
type Event struct {
	ID                   string    `json:"id"`
	Name                 string    `json:"name"`
	Description          string    `json:"description"`
	Place                *Place    `json:"place,omitempty"`
	StartAt              time.Time `json:"start_at"`
	EndAt                time.Time `json:"end_at"`
	IsActive             bool      `json:"is_active"`
	IsPublished          bool      `json:"is_published"`
	AnnouncementsEnabled bool      `json:"announcements_enabled"`
	// CurrentTalkID is the pinned current talk. It is authoritative over Talk.IsCurrent.
	CurrentTalkID *string   `json:"current_talk_id"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// NewEvent returns a new Event with the given fields. ID is typically set by the repository on create.
func NewEvent(name string, startAt, endAt time.Time) *Event {
	return &Event{
		Name:                 name,
		StartAt:              startAt,
		EndAt:                endAt,
		AnnouncementsEnabled: true,
	}
}

// EventProgram bundles an event with its talks ordered by (order, start).
type EventProgram struct {
	Event *Event  `json:"event"`
	Talks []*Talk `json:"talks"`
}

// EventRepository defines the interface for event storage
type EventRepository interface {
	Create(ctx context.Context, event *Event) error
	GetByID(ctx context.Context, id string) (*Event, error)
	// GetActive returns the active event, most recent start first. ErrNotFound when none.
	GetActive(ctx context.Context) (*Event, error)
	// Activate marks the event active and every other event inactive in one transaction.
	Activate(ctx context.Context, id string) error
	// ListPublishedEndingAfter returns published events with end_at >= t ordered by start.
	ListPublishedEndingAfter(ctx context.Context, t time.Time) ([]*Event, error)
	ListUnpublished(ctx context.Context) ([]*Event, error)
}

// EventService exposes event lookups used by the bot and the HTTP API.
type EventService interface {
	Active(ctx context.Context) (*Event, error)
	Activate(ctx context.Context, actor *Participant, eventID string) error
	Upcoming(ctx context.Context) (current, future []*EventProgram, err error)
	OpenForApplications(ctx context.Context) ([]*Event, error)
}
