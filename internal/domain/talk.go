package domain

import (
	"context"
	"time"
)

// TalkStatus is the lifecycle state of a talk.
type TalkStatus string

const (
	TalkScheduled  TalkStatus = "scheduled"
	TalkInProgress TalkStatus = "in_progress"
	TalkDone       TalkStatus = "done"
	TalkCancelled  TalkStatus = "cancelled"
)

// IsTerminal reports whether the status is done or cancelled.
func (s TalkStatus) IsTerminal() bool {
	return s == TalkDone || s == TalkCancelled
}

// Talk is a single slot of an event program.
// swagger:model Talk
type Talk struct {
	ID          string       `json:"id"`
	EventID     string       `json:"event_id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	SpeakerID   *string      `json:"speaker_id"`
	Speaker     *Participant `json:"speaker,omitempty"`
	StartAt     time.Time    `json:"start_at"`
	EndAt       time.Time    `json:"end_at"`
	Order       int          `json:"order"`
	Room        string       `json:"room"`
	Status      TalkStatus   `json:"status"`
	IsCurrent   bool         `json:"is_current"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// NewTalk returns a scheduled talk. ID is typically set by the repository on create.
func NewTalk(eventID, title string, startAt, endAt time.Time, order int) *Talk {
	return &Talk{
		EventID: eventID,
		Title:   title,
		StartAt: startAt,
		EndAt:   endAt,
		Order:   order,
		Status:  TalkScheduled,
	}
}

// IsTerminal reports whether the talk is done or cancelled.
func (t *Talk) IsTerminal() bool {
	return t.Status.IsTerminal()
}

// SpeakerName returns the speaker's display name or an empty string.
func (t *Talk) SpeakerName() string {
	if t.Speaker == nil {
		return ""
	}
	return t.Speaker.DisplayName()
}

// TalkWithStats is a talk together with its question counters.
// swagger:model TalkWithStats
type TalkWithStats struct {
	Talk      *Talk         `json:"talk"`
	Questions QuestionStats `json:"questions"`
	IsCurrent bool          `json:"is_current"`
}

// ProgramMutation mutates an event and its talks inside a transaction. Changes to
// Talk.IsCurrent, Talk.Status and Event.CurrentTalkID are persisted on success.
type ProgramMutation func(event *Event, talks []*Talk) error

// TalkRepository defines the interface for talk storage
type TalkRepository interface {
	Create(ctx context.Context, talk *Talk) error
	GetByID(ctx context.Context, id string) (*Talk, error)
	// ListByEvent returns the event's talks ordered by (order, start_at), speakers loaded.
	ListByEvent(ctx context.Context, eventID string) ([]*Talk, error)
	ListBySpeaker(ctx context.Context, eventID, speakerID string) ([]*Talk, error)
	HasSpeakerTalk(ctx context.Context, eventID, speakerID string) (bool, error)
	// UpdateProgram locks the event and its talks, applies fn and persists the result atomically.
	UpdateProgram(ctx context.Context, eventID string, fn ProgramMutation) error
}

// TalkScheduler resolves the current talk and moves talks between states.
type TalkScheduler interface {
	Get(ctx context.Context, talkID string) (*Talk, error)
	ResolveCurrent(ctx context.Context, event *Event) (*Talk, error)
	ResolveNext(ctx context.Context, event *Event) (*Talk, error)
	Start(ctx context.Context, actor *Participant, talkID string) (*Talk, error)
	Finish(ctx context.Context, actor *Participant, talkID string) (*Talk, error)
	Program(ctx context.Context, event *Event) ([]*TalkWithStats, error)
	SpeakerTalks(ctx context.Context, speaker *Participant, event *Event) ([]*TalkWithStats, error)
}
