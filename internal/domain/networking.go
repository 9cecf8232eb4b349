package domain

import (
	"context"
	"time"
)

// NetworkingProfile is a participant's self-description for one event.
type NetworkingProfile struct {
	ID            string `json:"id"`
	ParticipantID string `json:"participant_id"`
	// ParticipantTelegramID is loaded with the profile so peers can be pinged.
	ParticipantTelegramID int64     `json:"-"`
	EventID               string    `json:"event_id"`
	Role                  string    `json:"role"`
	Company               string    `json:"company"`
	Stack                 string    `json:"stack"`
	Interests             string    `json:"interests"`
	Contact               string    `json:"contact"`
	IsActive              bool      `json:"is_active"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
}

// ProfileFields are the five answers collected by the networking form.
type ProfileFields struct {
	Role      string
	Company   string
	Stack     string
	Interests string
	Contact   string
}

// MatchStatus is the state of a directed introduction.
type MatchStatus string

const (
	MatchPending  MatchStatus = "pending"
	MatchAccepted MatchStatus = "accepted"
	MatchSkipped  MatchStatus = "skipped"
)

// NetworkingMatch is a one-directional proposal of TargetProfileID to SourceProfileID.
type NetworkingMatch struct {
	ID              string      `json:"id"`
	EventID         string      `json:"event_id"`
	SourceProfileID string      `json:"source_profile_id"`
	TargetProfileID string      `json:"target_profile_id"`
	Status          MatchStatus `json:"status"`
	CreatedAt       time.Time   `json:"created_at"`
	RespondedAt     *time.Time  `json:"responded_at"`
}

// Proposal is a match together with both of its profiles.
type Proposal struct {
	Match  *NetworkingMatch
	Source *NetworkingProfile
	Target *NetworkingProfile
}

// MatchOutcome is the result of a matching round. Proposal is nil when the source
// has seen everyone. Waiting is set when a stranded profile was introduced to the source.
type MatchOutcome struct {
	Proposal *Proposal
	Waiting  *Proposal
}

// NetworkingRepository defines storage for profiles and matches.
type NetworkingRepository interface {
	// UpsertProfile creates or overwrites the (participant, event) profile and marks it active.
	UpsertProfile(ctx context.Context, p *NetworkingProfile) error
	GetProfileByID(ctx context.Context, id string) (*NetworkingProfile, error)
	// GetActiveProfile returns ErrNotFound when there is no active profile for the pair.
	GetActiveProfile(ctx context.Context, participantID, eventID string) (*NetworkingProfile, error)
	// ListActiveProfiles returns active profiles of the event ordered by created_at, id.
	ListActiveProfiles(ctx context.Context, eventID string) ([]*NetworkingProfile, error)
	CountActiveProfiles(ctx context.Context, eventID string) (int, error)
	// ListProposedTargetIDs returns every target the source has been proposed within the event.
	ListProposedTargetIDs(ctx context.Context, eventID, sourceProfileID string) ([]string, error)
	// OutgoingCounts returns the number of proposals per source profile within the event.
	OutgoingCounts(ctx context.Context, eventID string) (map[string]int, error)
	// CreateMatch inserts the proposal unless (event, source, target) already exists, in
	// which case m is filled from the existing row and created is false.
	CreateMatch(ctx context.Context, m *NetworkingMatch) (created bool, err error)
	GetMatch(ctx context.Context, id string) (*NetworkingMatch, error)
	// RespondMatch moves a pending match to status. ErrInvalidTransition otherwise.
	RespondMatch(ctx context.Context, id string, status MatchStatus, at time.Time) (*NetworkingMatch, error)
}

// Matchmaker hands out pairwise introductions within an event.
type Matchmaker interface {
	UpsertProfile(ctx context.Context, participant *Participant, event *Event, fields ProfileFields) (*NetworkingProfile, error)
	ActiveProfile(ctx context.Context, participant *Participant, event *Event) (*NetworkingProfile, error)
	CountProfiles(ctx context.Context, event *Event) (int, error)
	NextCandidate(ctx context.Context, source *NetworkingProfile) (*NetworkingProfile, error)
	Propose(ctx context.Context, source, target *NetworkingProfile) (*NetworkingMatch, error)
	Respond(ctx context.Context, matchID string, status MatchStatus) (*NetworkingMatch, error)
	FindWaitingPeer(ctx context.Context, profile *NetworkingProfile) (*NetworkingProfile, error)
	IntroduceWaitingPeer(ctx context.Context, profile *NetworkingProfile) (*Proposal, error)
	StartMatching(ctx context.Context, source *NetworkingProfile) (*MatchOutcome, error)
	Skip(ctx context.Context, participant *Participant, matchID string) (*MatchOutcome, error)
	Accept(ctx context.Context, participant *Participant, matchID string) (*Proposal, error)
}
