package memory

import (
	"context"
	"sort"

	"meetupbot/internal/domain"
)

type speakerApplicationRepository struct {
	s *Store
}

func NewSpeakerApplicationRepository(s *Store) domain.SpeakerApplicationRepository {
	return &speakerApplicationRepository{s: s}
}

// loadApplication must be called with mu held.
func (s *Store) loadApplication(a *domain.SpeakerApplication) *domain.SpeakerApplication {
	cp := *a
	cp.Participant = copyParticipant(s.participants[a.ParticipantID])
	if e, ok := s.events[a.EventID]; ok {
		cp.EventName = e.Name
	}
	return &cp
}

func (r *speakerApplicationRepository) Create(_ context.Context, a *domain.SpeakerApplication) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.events[a.EventID]; !ok {
		return domain.ErrNotFound
	}
	if _, ok := r.s.participants[a.ParticipantID]; !ok {
		return domain.ErrNotFound
	}
	a.ID = r.s.newID()
	now := r.s.now()
	if a.CreatedAt.IsZero() {
		a.CreatedAt, a.UpdatedAt = now, now
	}
	cp := *a
	cp.Participant = nil
	r.s.applications[a.ID] = &cp
	return nil
}

func (r *speakerApplicationRepository) GetByID(_ context.Context, id string) (*domain.SpeakerApplication, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.applications[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return r.s.loadApplication(a), nil
}

func (r *speakerApplicationRepository) SetStatus(_ context.Context, id string, status domain.ApplicationStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.applications[id]
	if !ok {
		return domain.ErrNotFound
	}
	a.Status = status
	a.UpdatedAt = r.s.now()
	return nil
}

func (r *speakerApplicationRepository) ListByStatus(_ context.Context, status domain.ApplicationStatus) ([]*domain.SpeakerApplication, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*domain.SpeakerApplication, 0)
	for _, a := range r.s.applications {
		if a.Status == status {
			out = append(out, r.s.loadApplication(a))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return r.s.before(out[i].CreatedAt, out[j].CreatedAt, out[i].ID, out[j].ID)
	})
	return out, nil
}
