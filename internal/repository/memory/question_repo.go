package memory

import (
	"context"
	"slices"
	"sort"
	"time"

	"meetupbot/internal/domain"
)

type questionRepository struct {
	s *Store
}

func NewQuestionRepository(s *Store) domain.QuestionRepository {
	return &questionRepository{s: s}
}

// loadQuestion must be called with mu held.
func (s *Store) loadQuestion(q *domain.Question) *domain.Question {
	cp := *q
	cp.Author = nil
	if q.AuthorID != nil {
		cp.AuthorID = strPtr(*q.AuthorID)
		cp.Author = copyParticipant(s.participants[*q.AuthorID])
	}
	if q.AnsweredAt != nil {
		at := *q.AnsweredAt
		cp.AnsweredAt = &at
	}
	return &cp
}

func (r *questionRepository) Create(_ context.Context, q *domain.Question) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.talks[q.TalkID]; !ok {
		return domain.ErrNotFound
	}
	q.ID = r.s.newID()
	cp := *q
	cp.Author = nil
	r.s.questions[q.ID] = &cp
	return nil
}

func (r *questionRepository) GetByID(_ context.Context, id string) (*domain.Question, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	q, ok := r.s.questions[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return r.s.loadQuestion(q), nil
}

func (r *questionRepository) ListPendingByTalk(_ context.Context, talkID string) ([]*domain.Question, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*domain.Question, 0)
	for _, q := range r.s.questions {
		if q.TalkID == talkID && q.Status == domain.QuestionPending {
			out = append(out, r.s.loadQuestion(q))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return r.s.before(out[i].AskedAt, out[j].AskedAt, out[i].ID, out[j].ID)
	})
	return out, nil
}

func (r *questionRepository) Stats(_ context.Context, talkID string) (domain.QuestionStats, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var st domain.QuestionStats
	for _, q := range r.s.questions {
		if q.TalkID != talkID {
			continue
		}
		st.Total++
		switch q.Status {
		case domain.QuestionAnswered:
			st.Answered++
		case domain.QuestionRejected:
			st.Rejected++
		case domain.QuestionPending:
			st.Pending++
		}
	}
	return st, nil
}

func (r *questionRepository) Transition(_ context.Context, id string, from []domain.QuestionStatus, to domain.QuestionStatus, at time.Time) (*domain.Question, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	q, ok := r.s.questions[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if !slices.Contains(from, q.Status) {
		return nil, domain.ErrInvalidTransition
	}
	q.Status = to
	if to.IsFinal() {
		q.AnsweredAt = &at
	}
	return r.s.loadQuestion(q), nil
}
