// Package memory keeps every repository in process memory. It backs the bot when no
// database is configured and gives the service tests a storage with real semantics.
package memory

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"meetupbot/internal/domain"
)

// Store is the shared state behind all memory repositories.
type Store struct {
	mu  sync.Mutex
	seq int64
	now func() time.Time

	order        map[string]int64
	participants map[string]*domain.Participant
	events       map[string]*domain.Event
	talks        map[string]*domain.Talk
	questions    map[string]*domain.Question
	profiles     map[string]*domain.NetworkingProfile
	matches      map[string]*domain.NetworkingMatch
	donations    map[string]*domain.Donation
	subs         map[string]*domain.Subscription
	applications map[string]*domain.SpeakerApplication
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		now:          time.Now,
		order:        make(map[string]int64),
		participants: make(map[string]*domain.Participant),
		events:       make(map[string]*domain.Event),
		talks:        make(map[string]*domain.Talk),
		questions:    make(map[string]*domain.Question),
		profiles:     make(map[string]*domain.NetworkingProfile),
		matches:      make(map[string]*domain.NetworkingMatch),
		donations:    make(map[string]*domain.Donation),
		subs:         make(map[string]*domain.Subscription),
		applications: make(map[string]*domain.SpeakerApplication),
	}
}

// SetClock overrides the time source used for created/updated stamps.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// newID must be called with mu held.
func (s *Store) newID() string {
	id := uuid.NewString()
	s.seq++
	s.order[id] = s.seq
	return id
}

// track registers an id supplied by the caller. Must be called with mu held.
func (s *Store) track(id string) string {
	if id == "" {
		return s.newID()
	}
	if _, ok := s.order[id]; !ok {
		s.seq++
		s.order[id] = s.seq
	}
	return id
}

// before orders by timestamp, then by insertion.
func (s *Store) before(a, b time.Time, idA, idB string) bool {
	if !a.Equal(b) {
		return a.Before(b)
	}
	return s.order[idA] < s.order[idB]
}

// PutParticipant stores p as is, role flags included. Used to seed organizers and speakers.
func (s *Store) PutParticipant(p *domain.Participant) *domain.Participant {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *p
	cp.ID = s.track(cp.ID)
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = s.now()
		cp.UpdatedAt = cp.CreatedAt
	}
	s.participants[cp.ID] = &cp
	p.ID = cp.ID
	return p
}

func copyParticipant(p *domain.Participant) *domain.Participant {
	if p == nil {
		return nil
	}
	cp := *p
	return &cp
}

func strPtr(s string) *string { return &s }
