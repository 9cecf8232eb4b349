package domain

import (
	"context"
	"fmt"
	"time"
)

// DonationStatus mirrors the payment lifecycle.
type DonationStatus string

const (
	DonationPending           DonationStatus = "pending"
	DonationWaitingForCapture DonationStatus = "waiting_for_capture"
	DonationSucceeded         DonationStatus = "succeeded"
	DonationFailed            DonationStatus = "failed"
	DonationCanceled          DonationStatus = "canceled"
)

// MapPaymentStatus converts a provider status into a DonationStatus. Unknown values map to pending.
func MapPaymentStatus(providerStatus string) DonationStatus {
	switch providerStatus {
	case "pending":
		return DonationPending
	case "waiting_for_capture":
		return DonationWaitingForCapture
	case "succeeded":
		return DonationSucceeded
	case "canceled":
		return DonationCanceled
	default:
		return DonationPending
	}
}

// FormatAmount renders minor units as "300" or "300.50".
func FormatAmount(minor int64) string {
	if minor%100 == 0 {
		return fmt.Sprintf("%d", minor/100)
	}
	return fmt.Sprintf("%d.%02d", minor/100, minor%100)
}

// Donation is a payment attempt. Amount is in minor currency units (kopecks, cents).
// swagger:model Donation
type Donation struct {
	ID                string         `json:"id"`
	EventID           string         `json:"event_id"`
	ParticipantID     *string        `json:"participant_id"`
	Participant       *Participant   `json:"participant,omitempty"`
	Amount            int64          `json:"amount"`
	Currency          string         `json:"currency"`
	Status            DonationStatus `json:"status"`
	Provider          string         `json:"provider"`
	ExternalPaymentID string         `json:"external_payment_id"`
	IdempotencyKey    string         `json:"-"`
	ConfirmationURL   string         `json:"confirmation_url"`
	Description       string         `json:"description"`
	CreatedAt         time.Time      `json:"created_at"`
}

// DonationSummary aggregates the donations of an event. Total counts succeeded
// donations only; Count and Latest cover every status.
// swagger:model DonationSummary
type DonationSummary struct {
	Currency string      `json:"currency"`
	Total    int64       `json:"total"`
	Count    int         `json:"count"`
	Latest   []*Donation `json:"latest"`
}

// PaymentRequest is what the payment provider needs to create a payment.
type PaymentRequest struct {
	DonationID     string
	EventID        string
	Amount         int64
	Currency       string
	Description    string
	IdempotencyKey string
}

// PaymentResult is the provider's view of a payment.
type PaymentResult struct {
	Provider        string
	ExternalID      string
	Status          string
	ConfirmationURL string
}

// PaymentProvider is the payment collaborator (infrastructure port).
type PaymentProvider interface {
	CreatePayment(ctx context.Context, req PaymentRequest) (*PaymentResult, error)
	PaymentStatus(ctx context.Context, externalID string) (*PaymentResult, error)
}

// DonationRepository defines storage for donations.
type DonationRepository interface {
	Create(ctx context.Context, d *Donation) error
	GetByID(ctx context.Context, id string) (*Donation, error)
	GetByExternalID(ctx context.Context, externalID string) (*Donation, error)
	// UpdatePayment persists provider, external id, idempotency key, confirmation url and status.
	UpdatePayment(ctx context.Context, d *Donation) error
	UpdateStatus(ctx context.Context, id string, status DonationStatus) error
	Summary(ctx context.Context, eventID string, latest int) (*DonationSummary, error)
}

// DonationService records donations and drives the payment provider.
type DonationService interface {
	ParseAmount(text string) (int64, error)
	MinAmount() int64
	Currency() string
	Donate(ctx context.Context, participant *Participant, event *Event, amount int64) (*Donation, error)
	Get(ctx context.Context, donationID string) (*Donation, error)
	RetryPayment(ctx context.Context, donationID string) (*Donation, error)
	Refresh(ctx context.Context, donationID string) (*Donation, error)
	RefreshByExternalID(ctx context.Context, externalID string) (*Donation, error)
	Summary(ctx context.Context, event *Event) (*DonationSummary, error)
}
