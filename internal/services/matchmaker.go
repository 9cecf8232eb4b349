package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"meetupbot/internal/domain"
)

type matchmaker struct {
	repo           domain.NetworkingRepository
	now            func() time.Time
	contextTimeout time.Duration
}

// NewMatchmaker returns a Matchmaker over repo. now may be nil.
func NewMatchmaker(repo domain.NetworkingRepository, now func() time.Time, timeout time.Duration) domain.Matchmaker {
	if now == nil {
		now = time.Now
	}
	return &matchmaker{repo: repo, now: now, contextTimeout: timeout}
}

func (m *matchmaker) UpsertProfile(ctx context.Context, participant *domain.Participant, event *domain.Event, fields domain.ProfileFields) (*domain.NetworkingProfile, error) {
	ctx, cancel := context.WithTimeout(ctx, m.contextTimeout)
	defer cancel()

	if participant == nil || event == nil {
		return nil, domain.ErrInvalidInput
	}
	p := &domain.NetworkingProfile{
		ParticipantID:         participant.ID,
		ParticipantTelegramID: participant.TelegramID,
		EventID:               event.ID,
		Role:                  strings.TrimSpace(fields.Role),
		Company:               strings.TrimSpace(fields.Company),
		Stack:                 strings.TrimSpace(fields.Stack),
		Interests:             strings.TrimSpace(fields.Interests),
		Contact:               strings.TrimSpace(fields.Contact),
	}
	if err := m.repo.UpsertProfile(ctx, p); err != nil {
		return nil, fmt.Errorf("upsert profile: %w", err)
	}
	return p, nil
}

func (m *matchmaker) ActiveProfile(ctx context.Context, participant *domain.Participant, event *domain.Event) (*domain.NetworkingProfile, error) {
	ctx, cancel := context.WithTimeout(ctx, m.contextTimeout)
	defer cancel()

	p, err := m.repo.GetActiveProfile(ctx, participant.ID, event.ID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return p, nil
}

func (m *matchmaker) CountProfiles(ctx context.Context, event *domain.Event) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, m.contextTimeout)
	defer cancel()

	n, err := m.repo.CountActiveProfiles(ctx, event.ID)
	if err != nil {
		return 0, fmt.Errorf("count profiles: %w", err)
	}
	return n, nil
}

// NextCandidate returns the oldest active profile the source has never been shown.
func (m *matchmaker) NextCandidate(ctx context.Context, source *domain.NetworkingProfile) (*domain.NetworkingProfile, error) {
	ctx, cancel := context.WithTimeout(ctx, m.contextTimeout)
	defer cancel()

	profiles, err := m.repo.ListActiveProfiles(ctx, source.EventID)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	seenIDs, err := m.repo.ListProposedTargetIDs(ctx, source.EventID, source.ID)
	if err != nil {
		return nil, fmt.Errorf("list proposals: %w", err)
	}
	seen := make(map[string]struct{}, len(seenIDs))
	for _, id := range seenIDs {
		seen[id] = struct{}{}
	}
	for _, p := range profiles {
		if p.ID == source.ID {
			continue
		}
		if _, ok := seen[p.ID]; ok {
			continue
		}
		return p, nil
	}
	return nil, nil
}

func (m *matchmaker) Propose(ctx context.Context, source, target *domain.NetworkingProfile) (*domain.NetworkingMatch, error) {
	ctx, cancel := context.WithTimeout(ctx, m.contextTimeout)
	defer cancel()

	if source.ID == target.ID || source.EventID != target.EventID {
		return nil, domain.ErrInvalidInput
	}
	match := &domain.NetworkingMatch{
		EventID:         source.EventID,
		SourceProfileID: source.ID,
		TargetProfileID: target.ID,
		Status:          domain.MatchPending,
		CreatedAt:       m.now(),
	}
	if _, err := m.repo.CreateMatch(ctx, match); err != nil {
		return nil, fmt.Errorf("create match: %w", err)
	}
	return match, nil
}

func (m *matchmaker) Respond(ctx context.Context, matchID string, status domain.MatchStatus) (*domain.NetworkingMatch, error) {
	ctx, cancel := context.WithTimeout(ctx, m.contextTimeout)
	defer cancel()

	if status != domain.MatchAccepted && status != domain.MatchSkipped {
		return nil, domain.ErrInvalidTransition
	}
	match, err := m.repo.RespondMatch(ctx, matchID, status, m.now())
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrInvalidTransition) {
			return nil, err
		}
		return nil, fmt.Errorf("respond match: %w", err)
	}
	return match, nil
}

// FindWaitingPeer returns the oldest active profile of the event, other than profile,
// that has never been proposed anyone.
func (m *matchmaker) FindWaitingPeer(ctx context.Context, profile *domain.NetworkingProfile) (*domain.NetworkingProfile, error) {
	ctx, cancel := context.WithTimeout(ctx, m.contextTimeout)
	defer cancel()

	profiles, err := m.repo.ListActiveProfiles(ctx, profile.EventID)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	counts, err := m.repo.OutgoingCounts(ctx, profile.EventID)
	if err != nil {
		return nil, fmt.Errorf("count proposals: %w", err)
	}
	for _, p := range profiles {
		if p.ID != profile.ID && counts[p.ID] == 0 {
			return p, nil
		}
	}
	return nil, nil
}

// IntroduceWaitingPeer proposes profile to a stranded peer. It returns nil when nobody waits.
func (m *matchmaker) IntroduceWaitingPeer(ctx context.Context, profile *domain.NetworkingProfile) (*domain.Proposal, error) {
	peer, err := m.FindWaitingPeer(ctx, profile)
	if err != nil || peer == nil {
		return nil, err
	}
	match, err := m.Propose(ctx, peer, profile)
	if err != nil {
		return nil, err
	}
	return &domain.Proposal{Match: match, Source: peer, Target: profile}, nil
}

// StartMatching proposes the next candidate to source. When the queue is exhausted
// a waiting peer, if any, is introduced to source instead.
func (m *matchmaker) StartMatching(ctx context.Context, source *domain.NetworkingProfile) (*domain.MatchOutcome, error) {
	target, err := m.NextCandidate(ctx, source)
	if err != nil {
		return nil, err
	}
	if target == nil {
		waiting, err := m.IntroduceWaitingPeer(ctx, source)
		if err != nil {
			return nil, err
		}
		return &domain.MatchOutcome{Waiting: waiting}, nil
	}
	match, err := m.Propose(ctx, source, target)
	if err != nil {
		return nil, err
	}
	return &domain.MatchOutcome{Proposal: &domain.Proposal{Match: match, Source: source, Target: target}}, nil
}

// ownedPendingMatch revalidates a match id kept in a session: it must exist, be
// pending, and belong to a profile of participant.
func (m *matchmaker) ownedPendingMatch(ctx context.Context, participant *domain.Participant, matchID string) (*domain.NetworkingMatch, *domain.NetworkingProfile, error) {
	ctx, cancel := context.WithTimeout(ctx, m.contextTimeout)
	defer cancel()

	if matchID == "" {
		return nil, nil, domain.ErrNotFound
	}
	match, err := m.repo.GetMatch(ctx, matchID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil, domain.ErrNotFound
		}
		return nil, nil, fmt.Errorf("get match: %w", err)
	}
	source, err := m.repo.GetProfileByID(ctx, match.SourceProfileID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil, domain.ErrNotFound
		}
		return nil, nil, fmt.Errorf("get profile: %w", err)
	}
	if participant == nil || source.ParticipantID != participant.ID {
		return nil, nil, domain.ErrForbidden
	}
	if match.Status != domain.MatchPending {
		return nil, nil, domain.ErrInvalidTransition
	}
	return match, source, nil
}

func (m *matchmaker) Skip(ctx context.Context, participant *domain.Participant, matchID string) (*domain.MatchOutcome, error) {
	match, source, err := m.ownedPendingMatch(ctx, participant, matchID)
	if err != nil {
		return nil, err
	}
	if _, err := m.Respond(ctx, match.ID, domain.MatchSkipped); err != nil {
		return nil, err
	}
	return m.StartMatching(ctx, source)
}

func (m *matchmaker) Accept(ctx context.Context, participant *domain.Participant, matchID string) (*domain.Proposal, error) {
	match, source, err := m.ownedPendingMatch(ctx, participant, matchID)
	if err != nil {
		return nil, err
	}
	updated, err := m.Respond(ctx, match.ID, domain.MatchAccepted)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, m.contextTimeout)
	defer cancel()
	target, err := m.repo.GetProfileByID(ctx, match.TargetProfileID)
	if err != nil {
		return nil, fmt.Errorf("get target profile: %w", err)
	}
	return &domain.Proposal{Match: updated, Source: source, Target: target}, nil
}
