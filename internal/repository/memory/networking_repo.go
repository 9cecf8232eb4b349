package memory

import (
	"context"
	"sort"
	"time"

	"meetupbot/internal/domain"
)

type networkingRepository struct {
	s *Store
}

func NewNetworkingRepository(s *Store) domain.NetworkingRepository {
	return &networkingRepository{s: s}
}

// loadProfile must be called with mu held.
func (s *Store) loadProfile(p *domain.NetworkingProfile) *domain.NetworkingProfile {
	cp := *p
	if owner, ok := s.participants[p.ParticipantID]; ok {
		cp.ParticipantTelegramID = owner.TelegramID
	}
	return &cp
}

func copyMatch(m *domain.NetworkingMatch) *domain.NetworkingMatch {
	cp := *m
	if m.RespondedAt != nil {
		at := *m.RespondedAt
		cp.RespondedAt = &at
	}
	return &cp
}

func (r *networkingRepository) UpsertProfile(_ context.Context, p *domain.NetworkingProfile) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	now := r.s.now()
	p.IsActive = true
	for _, existing := range r.s.profiles {
		if existing.ParticipantID != p.ParticipantID || existing.EventID != p.EventID {
			continue
		}
		existing.Role, existing.Company, existing.Stack = p.Role, p.Company, p.Stack
		existing.Interests, existing.Contact = p.Interests, p.Contact
		existing.IsActive = true
		existing.UpdatedAt = now
		p.ID, p.CreatedAt, p.UpdatedAt = existing.ID, existing.CreatedAt, now
		return nil
	}
	p.ID = r.s.newID()
	p.CreatedAt, p.UpdatedAt = now, now
	cp := *p
	r.s.profiles[p.ID] = &cp
	return nil
}

func (r *networkingRepository) GetProfileByID(_ context.Context, id string) (*domain.NetworkingProfile, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.profiles[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return r.s.loadProfile(p), nil
}

func (r *networkingRepository) GetActiveProfile(_ context.Context, participantID, eventID string) (*domain.NetworkingProfile, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, p := range r.s.profiles {
		if p.ParticipantID == participantID && p.EventID == eventID && p.IsActive {
			return r.s.loadProfile(p), nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *networkingRepository) ListActiveProfiles(_ context.Context, eventID string) ([]*domain.NetworkingProfile, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*domain.NetworkingProfile, 0)
	for _, p := range r.s.profiles {
		if p.EventID == eventID && p.IsActive {
			out = append(out, r.s.loadProfile(p))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return r.s.before(out[i].CreatedAt, out[j].CreatedAt, out[i].ID, out[j].ID)
	})
	return out, nil
}

func (r *networkingRepository) CountActiveProfiles(ctx context.Context, eventID string) (int, error) {
	profiles, err := r.ListActiveProfiles(ctx, eventID)
	return len(profiles), err
}

// DeactivateProfile soft-disables a profile.
func (s *Store) DeactivateProfile(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.profiles[id]; ok {
		p.IsActive = false
	}
}

func (r *networkingRepository) ListProposedTargetIDs(_ context.Context, eventID, sourceProfileID string) ([]string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	ids := make([]string, 0)
	for _, m := range r.s.matches {
		if m.EventID == eventID && m.SourceProfileID == sourceProfileID {
			ids = append(ids, m.TargetProfileID)
		}
	}
	return ids, nil
}

func (r *networkingRepository) OutgoingCounts(_ context.Context, eventID string) (map[string]int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	counts := make(map[string]int)
	for _, m := range r.s.matches {
		if m.EventID == eventID {
			counts[m.SourceProfileID]++
		}
	}
	return counts, nil
}

func (r *networkingRepository) CreateMatch(_ context.Context, m *domain.NetworkingMatch) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.matches {
		if existing.EventID == m.EventID && existing.SourceProfileID == m.SourceProfileID && existing.TargetProfileID == m.TargetProfileID {
			*m = *copyMatch(existing)
			return false, nil
		}
	}
	m.ID = r.s.newID()
	if m.CreatedAt.IsZero() {
		m.CreatedAt = r.s.now()
	}
	r.s.matches[m.ID] = copyMatch(m)
	return true, nil
}

func (r *networkingRepository) GetMatch(_ context.Context, id string) (*domain.NetworkingMatch, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m, ok := r.s.matches[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return copyMatch(m), nil
}

func (r *networkingRepository) RespondMatch(_ context.Context, id string, status domain.MatchStatus, at time.Time) (*domain.NetworkingMatch, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m, ok := r.s.matches[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if m.Status != domain.MatchPending {
		return nil, domain.ErrInvalidTransition
	}
	m.Status = status
	m.RespondedAt = &at
	return copyMatch(m), nil
}
