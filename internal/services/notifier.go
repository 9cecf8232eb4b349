package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"meetupbot/internal/domain"
)

// notifySendTimeout bounds one delivery. Deliveries are detached from the caller's
// deadline so a long fan-out is not cut short by the handler that started it.
const notifySendTimeout = 10 * time.Second

type notifier struct {
	messenger domain.Messenger
	logger    *slog.Logger
}

// NewNotifier returns a Notifier that sends through messenger, one recipient at a time.
func NewNotifier(messenger domain.Messenger, logger *slog.Logger) domain.Notifier {
	return &notifier{messenger: messenger, logger: logger}
}

// Notify sends msg to recipient. Failures are logged and reported as false.
func (n *notifier) Notify(ctx context.Context, recipient *domain.Participant, msg domain.OutgoingMessage) bool {
	if recipient == nil || recipient.TelegramID == 0 {
		return false
	}
	msg.ChatID = recipient.TelegramID
	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifySendTimeout)
	defer cancel()
	if err := n.messenger.Send(sendCtx, msg); err != nil {
		n.logger.WarnContext(ctx, "notification failed", "participant_id", recipient.ID,
			"error", errors.Join(domain.ErrDeliveryFailed, err))
		return false
	}
	return true
}

// Broadcast never aborts: every recipient is attempted and counted.
func (n *notifier) Broadcast(ctx context.Context, recipients []*domain.Participant, msg domain.OutgoingMessage) domain.BroadcastResult {
	var res domain.BroadcastResult
	for _, p := range recipients {
		if n.Notify(ctx, p, msg) {
			res.Sent++
		} else {
			res.Failed++
		}
	}
	n.logger.InfoContext(ctx, "broadcast finished", "sent", res.Sent, "failed", res.Failed)
	return res
}
