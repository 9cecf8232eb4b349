package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"meetupbot/internal/domain"
)

type questionRouter struct {
	questionRepo   domain.QuestionRepository
	talkRepo       domain.TalkRepository
	messenger      domain.Messenger
	logger         *slog.Logger
	now            func() time.Time
	contextTimeout time.Duration
}

// NewQuestionRouter returns a QuestionRouter that delivers questions through messenger.
func NewQuestionRouter(questionRepo domain.QuestionRepository, talkRepo domain.TalkRepository, messenger domain.Messenger, logger *slog.Logger, now func() time.Time, timeout time.Duration) domain.QuestionRouter {
	if now == nil {
		now = time.Now
	}
	return &questionRouter{
		questionRepo:   questionRepo,
		talkRepo:       talkRepo,
		messenger:      messenger,
		logger:         logger,
		now:            now,
		contextTimeout: timeout,
	}
}

func (r *questionRouter) Submit(ctx context.Context, talkID string, author *domain.Participant, text string) (*domain.Question, error) {
	ctx, cancel := context.WithTimeout(ctx, r.contextTimeout)
	defer cancel()

	text = strings.TrimSpace(text)
	if text == "" || utf8.RuneCountInString(text) > domain.MaxQuestionLength {
		return nil, domain.ErrInvalidInput
	}
	if _, err := r.talkRepo.GetByID(ctx, talkID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get talk: %w", err)
	}

	q := &domain.Question{
		TalkID:  talkID,
		Text:    text,
		Status:  domain.QuestionPending,
		AskedAt: r.now(),
	}
	if author != nil {
		id := author.ID
		q.AuthorID = &id
		q.Author = author
	}
	if err := r.questionRepo.Create(ctx, q); err != nil {
		return nil, fmt.Errorf("create question: %w", err)
	}
	return q, nil
}

// Deliver pings the talk's speaker. The question stays pending when the speaker is
// unknown or unreachable.
func (r *questionRouter) Deliver(ctx context.Context, q *domain.Question) bool {
	ctx, cancel := context.WithTimeout(ctx, r.contextTimeout)
	defer cancel()

	talk, err := r.talkRepo.GetByID(ctx, q.TalkID)
	if err != nil {
		r.logger.WarnContext(ctx, "question delivery: talk lookup failed", "question_id", q.ID, "error", err)
		return false
	}
	if talk.Speaker == nil || talk.Speaker.TelegramID == 0 {
		return false
	}

	author := "Anonymous"
	if q.Author != nil {
		if h := q.Author.Handle(); h != "" {
			author = h
		}
	}
	msg := domain.OutgoingMessage{
		ChatID: talk.Speaker.TelegramID,
		Text:   fmt.Sprintf("Question for your talk:\n%s\n\n%s\n\nFrom: %s", talk.Title, q.Text, author),
		Buttons: [][]domain.Button{{
			{Text: "Answered", Data: "q_answered:" + q.ID},
			{Text: "Reject", Data: "q_rejected:" + q.ID},
		}},
	}
	if err := r.messenger.Send(ctx, msg); err != nil {
		r.logger.WarnContext(ctx, "question delivery failed", "question_id", q.ID, "speaker_id", talk.Speaker.ID,
			"error", errors.Join(domain.ErrDeliveryFailed, err))
		return false
	}

	updated, err := r.questionRepo.Transition(ctx, q.ID, domain.SourcesFor(domain.QuestionSentToSpeaker), domain.QuestionSentToSpeaker, r.now())
	if err != nil {
		r.logger.WarnContext(ctx, "question delivered but status not updated", "question_id", q.ID, "error", err)
		return true
	}
	q.Status = updated.Status
	return true
}

func (r *questionRouter) Ask(ctx context.Context, talkID string, author *domain.Participant, text string) (*domain.Question, bool, error) {
	q, err := r.Submit(ctx, talkID, author, text)
	if err != nil {
		return nil, false, err
	}
	return q, r.Deliver(ctx, q), nil
}

func (r *questionRouter) PendingQueue(ctx context.Context, talkID string) ([]*domain.Question, error) {
	ctx, cancel := context.WithTimeout(ctx, r.contextTimeout)
	defer cancel()

	qs, err := r.questionRepo.ListPendingByTalk(ctx, talkID)
	if err != nil {
		return nil, fmt.Errorf("list pending questions: %w", err)
	}
	return qs, nil
}

func (r *questionRouter) PendingCount(ctx context.Context, talkID string) (int, error) {
	stats, err := r.Stats(ctx, talkID)
	if err != nil {
		return 0, err
	}
	return stats.Pending, nil
}

func (r *questionRouter) Stats(ctx context.Context, talkID string) (domain.QuestionStats, error) {
	ctx, cancel := context.WithTimeout(ctx, r.contextTimeout)
	defer cancel()

	stats, err := r.questionRepo.Stats(ctx, talkID)
	if err != nil {
		return domain.QuestionStats{}, fmt.Errorf("question stats: %w", err)
	}
	return stats, nil
}

func (r *questionRouter) MarkAnswered(ctx context.Context, actor *domain.Participant, questionID string) (*domain.Question, error) {
	return r.close(ctx, actor, questionID, domain.QuestionAnswered)
}

func (r *questionRouter) MarkRejected(ctx context.Context, actor *domain.Participant, questionID string) (*domain.Question, error) {
	return r.close(ctx, actor, questionID, domain.QuestionRejected)
}

// close moves a question to a final status. Only organizers and the talk's speaker may do it.
func (r *questionRouter) close(ctx context.Context, actor *domain.Participant, questionID string, to domain.QuestionStatus) (*domain.Question, error) {
	ctx, cancel := context.WithTimeout(ctx, r.contextTimeout)
	defer cancel()

	q, err := r.questionRepo.GetByID(ctx, questionID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get question: %w", err)
	}
	talk, err := r.talkRepo.GetByID(ctx, q.TalkID)
	if err != nil {
		return nil, fmt.Errorf("get talk: %w", err)
	}
	if actor == nil || !(domain.Capabilities{Organizer: actor.IsOrganizer}).CanManageTalk(actor, talk) {
		return nil, domain.ErrForbidden
	}
	if !q.Status.CanTransitionTo(to) {
		return nil, domain.ErrInvalidTransition
	}

	updated, err := r.questionRepo.Transition(ctx, questionID, domain.SourcesFor(to), to, r.now())
	if err != nil {
		if errors.Is(err, domain.ErrInvalidTransition) || errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("update question: %w", err)
	}
	return updated, nil
}
