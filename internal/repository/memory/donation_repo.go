package memory

import (
	"context"
	"sort"

	"meetupbot/internal/domain"
)

type donationRepository struct {
	s *Store
}

func NewDonationRepository(s *Store) domain.DonationRepository {
	return &donationRepository{s: s}
}

// loadDonation must be called with mu held.
func (s *Store) loadDonation(d *domain.Donation) *domain.Donation {
	cp := *d
	cp.Participant = nil
	if d.ParticipantID != nil {
		cp.ParticipantID = strPtr(*d.ParticipantID)
		cp.Participant = copyParticipant(s.participants[*d.ParticipantID])
	}
	return &cp
}

func (r *donationRepository) Create(_ context.Context, d *domain.Donation) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.events[d.EventID]; !ok {
		return domain.ErrNotFound
	}
	d.ID = r.s.newID()
	if d.CreatedAt.IsZero() {
		d.CreatedAt = r.s.now()
	}
	cp := *d
	cp.Participant = nil
	r.s.donations[d.ID] = &cp
	return nil
}

func (r *donationRepository) GetByID(_ context.Context, id string) (*domain.Donation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	d, ok := r.s.donations[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return r.s.loadDonation(d), nil
}

func (r *donationRepository) GetByExternalID(_ context.Context, externalID string) (*domain.Donation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if externalID == "" {
		return nil, domain.ErrNotFound
	}
	for _, d := range r.s.donations {
		if d.ExternalPaymentID == externalID {
			return r.s.loadDonation(d), nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *donationRepository) UpdatePayment(_ context.Context, d *domain.Donation) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.donations[d.ID]
	if !ok {
		return domain.ErrNotFound
	}
	stored.Provider = d.Provider
	stored.ExternalPaymentID = d.ExternalPaymentID
	stored.IdempotencyKey = d.IdempotencyKey
	stored.ConfirmationURL = d.ConfirmationURL
	stored.Status = d.Status
	return nil
}

func (r *donationRepository) UpdateStatus(_ context.Context, id string, status domain.DonationStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.donations[id]
	if !ok {
		return domain.ErrNotFound
	}
	stored.Status = status
	return nil
}

func (r *donationRepository) Summary(_ context.Context, eventID string, latest int) (*domain.DonationSummary, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	all := make([]*domain.Donation, 0)
	s := &domain.DonationSummary{}
	for _, d := range r.s.donations {
		if d.EventID != eventID {
			continue
		}
		s.Count++
		if d.Status == domain.DonationSucceeded {
			s.Total += d.Amount
		}
		all = append(all, r.s.loadDonation(d))
	}
	sort.Slice(all, func(i, j int) bool {
		return r.s.before(all[j].CreatedAt, all[i].CreatedAt, all[j].ID, all[i].ID)
	})
	if len(all) > latest {
		all = all[:latest]
	}
	s.Latest = all
	return s, nil
}
