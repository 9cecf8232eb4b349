package memory

import (
	"context"
	"sort"
	"time"

	"meetupbot/internal/domain"
)

type eventRepository struct {
	s *Store
}

func NewEventRepository(s *Store) domain.EventRepository {
	return &eventRepository{s: s}
}

func copyEvent(e *domain.Event) *domain.Event {
	cp := *e
	if e.Place != nil {
		place := *e.Place
		cp.Place = &place
	}
	if e.CurrentTalkID != nil {
		cp.CurrentTalkID = strPtr(*e.CurrentTalkID)
	}
	return &cp
}

func (r *eventRepository) Create(_ context.Context, e *domain.Event) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	e.ID = r.s.track(e.ID)
	if e.CreatedAt.IsZero() {
		e.CreatedAt = r.s.now()
		e.UpdatedAt = e.CreatedAt
	}
	r.s.events[e.ID] = copyEvent(e)
	return nil
}

func (r *eventRepository) GetByID(_ context.Context, id string) (*domain.Event, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	e, ok := r.s.events[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return copyEvent(e), nil
}

func (r *eventRepository) GetActive(_ context.Context) (*domain.Event, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var best *domain.Event
	for _, e := range r.s.events {
		if !e.IsActive {
			continue
		}
		if best == nil || e.StartAt.After(best.StartAt) {
			best = e
		}
	}
	if best == nil {
		return nil, domain.ErrNotFound
	}
	return copyEvent(best), nil
}

func (r *eventRepository) Activate(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.events[id]; !ok {
		return domain.ErrNotFound
	}
	now := r.s.now()
	for _, e := range r.s.events {
		active := e.ID == id
		if e.IsActive != active {
			e.IsActive = active
			e.UpdatedAt = now
		}
	}
	return nil
}

func (r *eventRepository) ListPublishedEndingAfter(_ context.Context, t time.Time) ([]*domain.Event, error) {
	return r.list(func(e *domain.Event) bool { return e.IsPublished && !e.EndAt.Before(t) }), nil
}

func (r *eventRepository) ListUnpublished(_ context.Context) ([]*domain.Event, error) {
	return r.list(func(e *domain.Event) bool { return !e.IsPublished }), nil
}

func (r *eventRepository) list(keep func(*domain.Event) bool) []*domain.Event {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*domain.Event, 0)
	for _, e := range r.s.events {
		if keep(e) {
			out = append(out, copyEvent(e))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return r.s.before(out[i].StartAt, out[j].StartAt, out[i].ID, out[j].ID)
	})
	return out
}
