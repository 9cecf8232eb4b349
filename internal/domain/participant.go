package domain

import (
	"context"
	"strconv"
	"strings"
	"time"
)

// Participant is a chat user known to the bot. Participants are never hard-deleted.
// swagger:model Participant
type Participant struct {
	ID                 string    `json:"id"`
	TelegramID         int64     `json:"telegram_id"`
	Username           string    `json:"username"`
	FirstName          string    `json:"first_name"`
	LastName           string    `json:"last_name"`
	IsSpeaker          bool      `json:"is_speaker"`
	IsOrganizer        bool      `json:"is_organizer"`
	WantsNotifications bool      `json:"wants_notifications"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// DisplayName returns "First Last", then "@username", then the telegram id.
func (p *Participant) DisplayName() string {
	if p == nil {
		return ""
	}
	if full := strings.TrimSpace(p.FirstName + " " + p.LastName); full != "" {
		return full
	}
	if p.Username != "" {
		return "@" + p.Username
	}
	return strconv.FormatInt(p.TelegramID, 10)
}

// Handle prefers the @username and falls back to the full name.
func (p *Participant) Handle() string {
	if p == nil {
		return ""
	}
	if p.Username != "" {
		return "@" + p.Username
	}
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

// Identity is what the chat transport tells us about the user on every interaction.
type Identity struct {
	TelegramID int64
	Username   string
	FirstName  string
	LastName   string
}

// Capabilities are the roles a participant holds for one event. They are computed
// per request and never stored on the participant.
type Capabilities struct {
	Speaker   bool
	Organizer bool
}

// CanManageTalk reports whether the holder may start or finish the talk.
func (c Capabilities) CanManageTalk(p *Participant, t *Talk) bool {
	if c.Organizer {
		return true
	}
	return p != nil && t != nil && t.SpeakerID != nil && *t.SpeakerID == p.ID
}

// ParticipantRepository defines storage for participants.
type ParticipantRepository interface {
	// Upsert inserts or refreshes the participant by TelegramID. Role flags of an
	// existing row are left untouched and read back into p.
	Upsert(ctx context.Context, p *Participant) error
	GetByID(ctx context.Context, id string) (*Participant, error)
	GetByTelegramID(ctx context.Context, telegramID int64) (*Participant, error)
	SetWantsNotifications(ctx context.Context, id string, wants bool) error
	ListWantingNotifications(ctx context.Context) ([]*Participant, error)
	ListOrganizers(ctx context.Context) ([]*Participant, error)
}

// ParticipantService resolves participants and their capabilities.
type ParticipantService interface {
	Ensure(ctx context.Context, id Identity) (*Participant, error)
	Capabilities(ctx context.Context, p *Participant, event *Event) (Capabilities, error)
	ToggleNotifications(ctx context.Context, p *Participant) (bool, error)
	// NotificationRecipients returns everyone who has not opted out of announcements.
	NotificationRecipients(ctx context.Context) ([]*Participant, error)
	Organizers(ctx context.Context) ([]*Participant, error)
}
