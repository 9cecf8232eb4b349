package domain

import "context"

// Button is an inline action attached to a message. Exactly one of Data or URL is set.
type Button struct {
	Text string
	Data string
	URL  string
}

// OutgoingMessage is a text message to one chat.
type OutgoingMessage struct {
	ChatID  int64
	Text    string
	Buttons [][]Button
	// Markdown enables the transport's Markdown formatting.
	Markdown bool
}

// Messenger is the chat transport collaborator (infrastructure port).
type Messenger interface {
	Send(ctx context.Context, msg OutgoingMessage) error
	AnswerCallback(ctx context.Context, callbackID, text string) error
}

// BroadcastResult counts delivered and failed messages of a fan-out.
type BroadcastResult struct {
	Sent   int `json:"sent"`
	Failed int `json:"failed"`
}

// Notifier pushes best-effort messages to participants.
type Notifier interface {
	Notify(ctx context.Context, recipient *Participant, msg OutgoingMessage) bool
	Broadcast(ctx context.Context, recipients []*Participant, msg OutgoingMessage) BroadcastResult
}

// Update is one user interaction received from the chat transport: a text message,
// a command or a button press.
type Update struct {
	ChatID int64
	From   Identity
	Text   string
	// Command is set for "/name args" messages, without the slash.
	Command      string
	Args         string
	CallbackID   string
	CallbackData string
}

// IsCallback reports whether the update is a button press.
func (u Update) IsCallback() bool {
	return u.CallbackID != ""
}
