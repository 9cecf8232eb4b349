package memory

import (
	"context"
	"sort"

	"meetupbot/internal/domain"
)

type talkRepository struct {
	s *Store
}

func NewTalkRepository(s *Store) domain.TalkRepository {
	return &talkRepository{s: s}
}

// loadTalk copies t and attaches its speaker. Must be called with mu held.
func (s *Store) loadTalk(t *domain.Talk) *domain.Talk {
	cp := *t
	cp.Speaker = nil
	if t.SpeakerID != nil {
		cp.SpeakerID = strPtr(*t.SpeakerID)
		cp.Speaker = copyParticipant(s.participants[*t.SpeakerID])
	}
	return &cp
}

// eventTalks returns the event's talks ordered by (order, start). Must be called with mu held.
func (s *Store) eventTalks(eventID string, keep func(*domain.Talk) bool) []*domain.Talk {
	out := make([]*domain.Talk, 0)
	for _, t := range s.talks {
		if t.EventID == eventID && (keep == nil || keep(t)) {
			out = append(out, s.loadTalk(t))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Order != out[j].Order {
			return out[i].Order < out[j].Order
		}
		return s.before(out[i].StartAt, out[j].StartAt, out[i].ID, out[j].ID)
	})
	return out
}

func (r *talkRepository) Create(_ context.Context, t *domain.Talk) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.events[t.EventID]; !ok {
		return domain.ErrNotFound
	}
	t.ID = r.s.track(t.ID)
	if t.Status == "" {
		t.Status = domain.TalkScheduled
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = r.s.now()
		t.UpdatedAt = t.CreatedAt
	}
	cp := *t
	cp.Speaker = nil
	r.s.talks[t.ID] = &cp
	return nil
}

func (r *talkRepository) GetByID(_ context.Context, id string) (*domain.Talk, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.talks[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return r.s.loadTalk(t), nil
}

func (r *talkRepository) ListByEvent(_ context.Context, eventID string) ([]*domain.Talk, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.eventTalks(eventID, nil), nil
}

func (r *talkRepository) ListBySpeaker(_ context.Context, eventID, speakerID string) ([]*domain.Talk, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.eventTalks(eventID, func(t *domain.Talk) bool {
		return t.SpeakerID != nil && *t.SpeakerID == speakerID
	}), nil
}

func (r *talkRepository) HasSpeakerTalk(ctx context.Context, eventID, speakerID string) (bool, error) {
	talks, err := r.ListBySpeaker(ctx, eventID, speakerID)
	return len(talks) > 0, err
}

// UpdateProgram holds the store lock for the whole mutation, which serializes it
// against every other writer.
func (r *talkRepository) UpdateProgram(_ context.Context, eventID string, fn domain.ProgramMutation) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.events[eventID]
	if !ok {
		return domain.ErrNotFound
	}
	event := copyEvent(stored)
	talks := r.s.eventTalks(eventID, nil)
	if err := fn(event, talks); err != nil {
		return err
	}
	now := r.s.now()
	for _, t := range talks {
		orig, ok := r.s.talks[t.ID]
		if !ok || (orig.Status == t.Status && orig.IsCurrent == t.IsCurrent) {
			continue
		}
		orig.Status, orig.IsCurrent, orig.UpdatedAt = t.Status, t.IsCurrent, now
	}
	if event.CurrentTalkID == nil {
		stored.CurrentTalkID = nil
	} else {
		stored.CurrentTalkID = strPtr(*event.CurrentTalkID)
	}
	return nil
}
