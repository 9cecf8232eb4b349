package memory

import (
	"context"
	"sort"

	"meetupbot/internal/domain"
)

type participantRepository struct {
	s *Store
}

func NewParticipantRepository(s *Store) domain.ParticipantRepository {
	return &participantRepository{s: s}
}

func (r *participantRepository) Upsert(_ context.Context, p *domain.Participant) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	now := r.s.now()
	for _, existing := range r.s.participants {
		if existing.TelegramID != p.TelegramID {
			continue
		}
		existing.Username, existing.FirstName, existing.LastName = p.Username, p.FirstName, p.LastName
		existing.UpdatedAt = now
		*p = *existing
		return nil
	}
	cp := *p
	cp.ID = r.s.newID()
	cp.IsSpeaker, cp.IsOrganizer, cp.WantsNotifications = false, false, true
	cp.CreatedAt, cp.UpdatedAt = now, now
	r.s.participants[cp.ID] = &cp
	*p = cp
	return nil
}

func (r *participantRepository) GetByID(_ context.Context, id string) (*domain.Participant, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.participants[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return copyParticipant(p), nil
}

func (r *participantRepository) GetByTelegramID(_ context.Context, telegramID int64) (*domain.Participant, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, p := range r.s.participants {
		if p.TelegramID == telegramID {
			return copyParticipant(p), nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *participantRepository) SetWantsNotifications(_ context.Context, id string, wants bool) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.participants[id]
	if !ok {
		return domain.ErrNotFound
	}
	p.WantsNotifications = wants
	p.UpdatedAt = r.s.now()
	return nil
}

func (r *participantRepository) ListWantingNotifications(_ context.Context) ([]*domain.Participant, error) {
	return r.filter(func(p *domain.Participant) bool { return p.WantsNotifications }), nil
}

func (r *participantRepository) ListOrganizers(_ context.Context) ([]*domain.Participant, error) {
	return r.filter(func(p *domain.Participant) bool { return p.IsOrganizer }), nil
}

func (r *participantRepository) filter(keep func(*domain.Participant) bool) []*domain.Participant {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.participantsWhere(keep)
}

// participantsWhere must be called with mu held.
func (s *Store) participantsWhere(keep func(*domain.Participant) bool) []*domain.Participant {
	out := make([]*domain.Participant, 0)
	for _, p := range s.participants {
		if keep(p) {
			out = append(out, copyParticipant(p))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return s.before(out[i].CreatedAt, out[j].CreatedAt, out[i].ID, out[j].ID)
	})
	return out
}
