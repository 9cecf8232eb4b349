package bot

import (
	"context"
	"errors"
	"fmt"

	"meetupbot/internal/domain"
)

// donationPresets are offered as one-tap amounts, in major currency units.
var donationPresets = []string{"300", "500", "1000"}

func (b *Bot) donateStart(ctx context.Context, req *request) error {
	event, err := b.activeEvent(ctx)
	if err != nil {
		return err
	}
	if event == nil {
		return b.showMenu(ctx, req, textNoActiveEvent)
	}
	req.session.State = domain.StateDonateAmount
	req.session.EventID = event.ID

	presets := make([]domain.Button, 0, len(donationPresets))
	for _, amount := range donationPresets {
		presets = append(presets, domain.Button{Text: amount + " " + b.svc.Donations.Currency(), Data: withArg(cbDonateAmount, amount)})
	}
	b.reply(ctx, req, fmt.Sprintf(textDonatePrompt, b.svc.Donations.Currency(), domain.FormatAmount(b.svc.Donations.MinAmount())),
		presets, mainMenuRow())
	return nil
}

// donateAmount validates the amount, records the donation and hands out the payment
// link. An invalid amount keeps the user in the same step.
func (b *Bot) donateAmount(ctx context.Context, req *request, text string) error {
	amount, err := b.svc.Donations.ParseAmount(text)
	if errors.Is(err, domain.ErrInvalidInput) {
		req.session.State = domain.StateDonateAmount
		b.reply(ctx, req, fmt.Sprintf(textDonateInvalid, domain.FormatAmount(b.svc.Donations.MinAmount()), b.svc.Donations.Currency()))
		return nil
	}
	if err != nil {
		return err
	}

	event, err := b.activeEvent(ctx)
	if err != nil {
		return err
	}
	if event == nil {
		req.session.Reset()
		return b.showMenu(ctx, req, textNoActiveEvent)
	}
	req.session.Reset()

	donation, err := b.svc.Donations.Donate(ctx, req.participant, event, amount)
	switch {
	case errors.Is(err, domain.ErrPaymentNotConfigured):
		return b.showMenu(ctx, req, textDonateDisabled)
	case err != nil && donation != nil:
		b.logger.WarnContext(ctx, "payment creation failed", "donation_id", donation.ID, "error", err)
		b.reply(ctx, req, textDonateFailed,
			[]domain.Button{{Text: "Retry", Data: withArg(cbDonationRetry, donation.ID)}}, mainMenuRow())
		return nil
	case err != nil:
		return err
	}
	b.reply(ctx, req, fmt.Sprintf(textDonateCreated, domain.FormatAmount(donation.Amount), donation.Currency),
		donationButtons(donation)...)
	return nil
}

// ownDonation reports whether the donation exists and was made by the requesting
// participant.
func (b *Bot) ownDonation(ctx context.Context, req *request, donationID string) (bool, error) {
	d, err := b.svc.Donations.Get(ctx, donationID)
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return d.ParticipantID != nil && *d.ParticipantID == req.participant.ID, nil
}

func (b *Bot) donationStatus(ctx context.Context, req *request, donationID string) error {
	if own, err := b.ownDonation(ctx, req, donationID); !own || err != nil {
		if err == nil {
			b.reply(ctx, req, textDonationUnknown)
		}
		return err
	}
	donation, err := b.svc.Donations.Refresh(ctx, donationID)
	if err != nil {
		if donation == nil {
			return err
		}
		// The provider is unreachable; show what is stored.
		b.logger.WarnContext(ctx, "payment status refresh failed", "donation_id", donationID, "error", err)
	}
	status := donationStatusName(donation.Status)
	req.ack = status
	text := fmt.Sprintf(textDonationStatus, domain.FormatAmount(donation.Amount), donation.Currency, status)
	if donation.Status == domain.DonationSucceeded {
		return b.showMenu(ctx, req, text)
	}
	if donation.Status == domain.DonationCanceled || donation.Status == domain.DonationFailed {
		b.reply(ctx, req, text, []domain.Button{{Text: "Retry", Data: withArg(cbDonationRetry, donation.ID)}}, mainMenuRow())
		return nil
	}
	b.reply(ctx, req, text, donationButtons(donation)...)
	return nil
}

func (b *Bot) donationRetry(ctx context.Context, req *request, donationID string) error {
	if own, err := b.ownDonation(ctx, req, donationID); !own || err != nil {
		if err == nil {
			b.reply(ctx, req, textDonationUnknown)
		}
		return err
	}
	donation, err := b.svc.Donations.RetryPayment(ctx, donationID)
	switch {
	case errors.Is(err, domain.ErrPaymentNotConfigured):
		return b.showMenu(ctx, req, textDonateDisabled)
	case err != nil && donation != nil:
		b.logger.WarnContext(ctx, "payment retry failed", "donation_id", donation.ID, "error", err)
		b.reply(ctx, req, textDonateFailed,
			[]domain.Button{{Text: "Retry", Data: withArg(cbDonationRetry, donation.ID)}}, mainMenuRow())
		return nil
	case err != nil:
		return err
	}
	if donation.Status == domain.DonationSucceeded {
		return b.showMenu(ctx, req, fmt.Sprintf(textDonationStatus,
			domain.FormatAmount(donation.Amount), donation.Currency, donationStatusName(donation.Status)))
	}
	b.reply(ctx, req, fmt.Sprintf(textDonateCreated, domain.FormatAmount(donation.Amount), donation.Currency),
		donationButtons(donation)...)
	return nil
}
