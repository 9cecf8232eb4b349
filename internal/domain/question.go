package domain

import (
	"context"
	"time"
)

// QuestionStatus is the lifecycle state of a question. Transitions only move forward.
type QuestionStatus string

const (
	QuestionPending       QuestionStatus = "pending"
	QuestionSentToSpeaker QuestionStatus = "sent"
	QuestionAnswered      QuestionStatus = "answered"
	QuestionRejected      QuestionStatus = "rejected"
)

// MaxQuestionLength bounds the question text, in runes.
const MaxQuestionLength = 500

// IsFinal reports whether the status is answered or rejected.
func (s QuestionStatus) IsFinal() bool {
	return s == QuestionAnswered || s == QuestionRejected
}

// CanTransitionTo reports whether moving from s to next is a forward step.
func (s QuestionStatus) CanTransitionTo(next QuestionStatus) bool {
	switch s {
	case QuestionPending:
		return next == QuestionSentToSpeaker || next.IsFinal()
	case QuestionSentToSpeaker:
		return next.IsFinal()
	default:
		return false
	}
}

// SourcesFor returns every status that may move to next.
func SourcesFor(next QuestionStatus) []QuestionStatus {
	var out []QuestionStatus
	for _, s := range []QuestionStatus{QuestionPending, QuestionSentToSpeaker, QuestionAnswered, QuestionRejected} {
		if s.CanTransitionTo(next) {
			out = append(out, s)
		}
	}
	return out
}

// Question is an audience question for a talk. AuthorID is nil for anonymous questions.
// swagger:model Question
type Question struct {
	ID         string         `json:"id"`
	TalkID     string         `json:"talk_id"`
	AuthorID   *string        `json:"author_id"`
	Author     *Participant   `json:"author,omitempty"`
	Text       string         `json:"text"`
	Status     QuestionStatus `json:"status"`
	AnswerText string         `json:"answer_text"`
	AskedAt    time.Time      `json:"asked_at"`
	AnsweredAt *time.Time     `json:"answered_at"`
}

// QuestionStats are per-talk counters for dashboards.
// swagger:model QuestionStats
type QuestionStats struct {
	Total    int `json:"total"`
	Answered int `json:"answered"`
	Rejected int `json:"rejected"`
	Pending  int `json:"pending"`
}

// QuestionRepository defines storage for questions.
type QuestionRepository interface {
	Create(ctx context.Context, q *Question) error
	GetByID(ctx context.Context, id string) (*Question, error)
	// ListPendingByTalk returns pending questions ordered by asked_at ascending, authors loaded.
	ListPendingByTalk(ctx context.Context, talkID string) ([]*Question, error)
	Stats(ctx context.Context, talkID string) (QuestionStats, error)
	// Transition moves the question to status `to` only if its current status is in `from`.
	// Returns ErrInvalidTransition when the row exists in another status.
	Transition(ctx context.Context, id string, from []QuestionStatus, to QuestionStatus, at time.Time) (*Question, error)
}

// QuestionRouter accepts questions and routes them to the current speaker.
type QuestionRouter interface {
	Submit(ctx context.Context, talkID string, author *Participant, text string) (*Question, error)
	Deliver(ctx context.Context, q *Question) bool
	Ask(ctx context.Context, talkID string, author *Participant, text string) (*Question, bool, error)
	PendingQueue(ctx context.Context, talkID string) ([]*Question, error)
	PendingCount(ctx context.Context, talkID string) (int, error)
	Stats(ctx context.Context, talkID string) (QuestionStats, error)
	MarkAnswered(ctx context.Context, actor *Participant, questionID string) (*Question, error)
	MarkRejected(ctx context.Context, actor *Participant, questionID string) (*Question, error)
}
