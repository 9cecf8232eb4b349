package domain

import (
	"context"
	"time"
)

// ApplicationStatus is the review state of a speaker application.
type ApplicationStatus string

const (
	ApplicationNew      ApplicationStatus = "new"
	ApplicationReviewed ApplicationStatus = "reviewed"
)

// SpeakerApplication is a talk proposal for an unpublished event.
type SpeakerApplication struct {
	ID            string            `json:"id"`
	ParticipantID string            `json:"participant_id"`
	Participant   *Participant      `json:"participant,omitempty"`
	EventID       string            `json:"event_id"`
	EventName     string            `json:"event_name"`
	Topic         string            `json:"topic"`
	Contact       string            `json:"contact"`
	Status        ApplicationStatus `json:"status"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

// SpeakerApplicationRepository defines storage for speaker applications.
type SpeakerApplicationRepository interface {
	Create(ctx context.Context, a *SpeakerApplication) error
	GetByID(ctx context.Context, id string) (*SpeakerApplication, error)
	SetStatus(ctx context.Context, id string, status ApplicationStatus) error
	ListByStatus(ctx context.Context, status ApplicationStatus) ([]*SpeakerApplication, error)
}

// SpeakerApplicationService accepts applications and alerts organizers.
type SpeakerApplicationService interface {
	Submit(ctx context.Context, participant *Participant, eventID, topic, contact string) (*SpeakerApplication, error)
	MarkReviewed(ctx context.Context, actor *Participant, id string) (*SpeakerApplication, error)
	ListNew(ctx context.Context) ([]*SpeakerApplication, error)
}
