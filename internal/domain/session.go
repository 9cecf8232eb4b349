package domain

import (
	"context"
	"time"
)

// ConversationState is the single active step of a user's conversation.
type ConversationState string

const (
	StateIdle                ConversationState = "idle"
	StateAskText             ConversationState = "ask_text"
	StateNetworkingRole      ConversationState = "networking_role"
	StateNetworkingCompany   ConversationState = "networking_company"
	StateNetworkingStack     ConversationState = "networking_stack"
	StateNetworkingInterests ConversationState = "networking_interests"
	StateNetworkingContact   ConversationState = "networking_contact"
	StateNetworkingMatch     ConversationState = "networking_match"
	StateDonateAmount        ConversationState = "donate_amount"
	StateSubscribeChoice     ConversationState = "subscribe_choice"
	StateAnnounceText        ConversationState = "announce_text"
	StateApplyTopic          ConversationState = "speaker_apply_topic"
	StateApplyContact        ConversationState = "speaker_apply_contact"
)

// Session is the per-user conversation context. Stored ids are hints only and are
// revalidated against the repositories before use.
type Session struct {
	UserID    int64             `json:"user_id"`
	State     ConversationState `json:"state"`
	EventID   string            `json:"event_id,omitempty"`
	TalkID    string            `json:"talk_id,omitempty"`
	MatchID   string            `json:"match_id,omitempty"`
	Profile   ProfileFields     `json:"profile"`
	Topic     string            `json:"topic,omitempty"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// NewSession returns an idle session for the user.
func NewSession(userID int64) *Session {
	return &Session{UserID: userID, State: StateIdle}
}

// Reset returns the session to idle and discards every collected value.
func (s *Session) Reset() {
	*s = Session{UserID: s.UserID, State: StateIdle}
}

// IsIdle reports whether no conversation is in progress.
func (s *Session) IsIdle() bool {
	return s.State == "" || s.State == StateIdle
}

// SessionStore persists sessions between interactions.
type SessionStore interface {
	// Get returns a fresh idle session when none is stored.
	Get(ctx context.Context, userID int64) (*Session, error)
	Save(ctx context.Context, s *Session) error
	Delete(ctx context.Context, userID int64) error
}
