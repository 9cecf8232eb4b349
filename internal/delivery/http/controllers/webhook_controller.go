package controllers

import (
	"errors"
	"log/slog"
	"net/http"

	"meetupbot/internal/delivery/http/helpers"
	"meetupbot/internal/domain"
)

// PaymentNotification is the part of a YooKassa notification the webhook reads.
// Only the payment id is trusted; the status is fetched from the provider again.
type PaymentNotification struct {
	Type   string `json:"type"`
	Event  string `json:"event"`
	Object struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	} `json:"object"`
}

// Validate implements Validator.
func (n PaymentNotification) Validate() []string {
	var errs []string
	if n.Object.ID == "" {
		errs = append(errs, "object.id is required")
	}
	return errs
}

// WebhookResult is the webhook's response body.
type WebhookResult struct {
	Status     string `json:"status"`
	DonationID string `json:"donation_id,omitempty"`
}

type WebhookController struct {
	Logger    *slog.Logger
	Donations domain.DonationService
}

func NewWebhookController(logger *slog.Logger, donations domain.DonationService) *WebhookController {
	return &WebhookController{Logger: logger, Donations: donations}
}

// YooKassa godoc
// @Summary Payment notification
// @Description Receives YooKassa notifications. The donation is looked up by payment id and its status is re-read from the provider. Unknown payments are acknowledged and ignored.
// @Tags webhooks
// @Accept json
// @Produce json
// @Param notification body PaymentNotification true "YooKassa notification"
// @Success 200 {object} helpers.APIResponse "data.status: updated or ignored"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error (provider unreachable, retried by YooKassa)"
// @Router /webhooks/yookassa [post]
func (c *WebhookController) YooKassa(w http.ResponseWriter, r *http.Request) {
	var n PaymentNotification
	if !helpers.DecodeAndValidate(w, r, &n) {
		return
	}
	ctx := r.Context()
	donation, err := c.Donations.RefreshByExternalID(ctx, n.Object.ID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		c.Logger.WarnContext(ctx, "notification for unknown payment", "payment_id", n.Object.ID, "event", n.Event)
		helpers.WriteJSONSuccess(w, http.StatusOK, WebhookResult{Status: "ignored"})
		return
	case err != nil:
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	c.Logger.InfoContext(ctx, "donation refreshed", "donation_id", donation.ID, "status", donation.Status, "event", n.Event)
	helpers.WriteJSONSuccess(w, http.StatusOK, WebhookResult{Status: "updated", DonationID: donation.ID})
}
