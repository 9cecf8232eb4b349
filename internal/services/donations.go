package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"meetupbot/internal/domain"
)

// summaryLatest is how many recent donations a summary lists.
const summaryLatest = 5

type donationService struct {
	repo           domain.DonationRepository
	provider       domain.PaymentProvider
	minAmount      int64
	currency       string
	now            func() time.Time
	contextTimeout time.Duration
}

// DonationSettings are the donation limits taken from configuration.
type DonationSettings struct {
	MinAmount int64
	Currency  string
}

func NewDonationService(repo domain.DonationRepository, provider domain.PaymentProvider, settings DonationSettings, now func() time.Time, timeout time.Duration) domain.DonationService {
	if now == nil {
		now = time.Now
	}
	if settings.Currency == "" {
		settings.Currency = "RUB"
	}
	return &donationService{
		repo:           repo,
		provider:       provider,
		minAmount:      settings.MinAmount,
		currency:       settings.Currency,
		now:            now,
		contextTimeout: timeout,
	}
}

func (s *donationService) MinAmount() int64 { return s.minAmount }

func (s *donationService) Currency() string { return s.currency }

// ParseAmount accepts "300", "300.50" and "300,5" and returns minor units.
func (s *donationService) ParseAmount(text string) (int64, error) {
	text = strings.ReplaceAll(strings.TrimSpace(text), ",", ".")
	whole, frac, hasFrac := strings.Cut(text, ".")
	if whole == "" || !isDigits(whole) || (hasFrac && (frac == "" || len(frac) > 2 || !isDigits(frac))) {
		return 0, fmt.Errorf("%w: amount must be a number", domain.ErrInvalidInput)
	}
	units, err := strconv.ParseInt(whole, 10, 64)
	if err != nil || units > (1<<62)/100 {
		return 0, fmt.Errorf("%w: amount is too large", domain.ErrInvalidInput)
	}
	var cents int64
	if hasFrac {
		if len(frac) == 1 {
			frac += "0"
		}
		cents, _ = strconv.ParseInt(frac, 10, 64)
	}
	amount := units*100 + cents
	if amount < s.minAmount || amount <= 0 {
		return 0, fmt.Errorf("%w: minimum amount is %s %s", domain.ErrInvalidInput, domain.FormatAmount(s.minAmount), s.currency)
	}
	return amount, nil
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Donate records a pending donation before asking the provider for a payment. When
// the provider fails the donation is still returned together with the error.
func (s *donationService) Donate(ctx context.Context, participant *domain.Participant, event *domain.Event, amount int64) (*domain.Donation, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if event == nil {
		return nil, domain.ErrNoActiveEvent
	}
	if amount < s.minAmount || amount <= 0 {
		return nil, domain.ErrInvalidInput
	}
	d := &domain.Donation{
		EventID:     event.ID,
		Amount:      amount,
		Currency:    s.currency,
		Status:      domain.DonationPending,
		Description: "Support for meetup " + event.Name,
		CreatedAt:   s.now(),
	}
	if participant != nil {
		id := participant.ID
		d.ParticipantID = &id
		d.Participant = participant
	}
	if err := s.repo.Create(ctx, d); err != nil {
		return nil, fmt.Errorf("create donation: %w", err)
	}
	return s.createPayment(ctx, d)
}

func (s *donationService) createPayment(ctx context.Context, d *domain.Donation) (*domain.Donation, error) {
	key := uuid.NewString()
	res, err := s.provider.CreatePayment(ctx, domain.PaymentRequest{
		DonationID:     d.ID,
		EventID:        d.EventID,
		Amount:         d.Amount,
		Currency:       d.Currency,
		Description:    d.Description,
		IdempotencyKey: key,
	})
	if err != nil {
		return d, fmt.Errorf("create payment: %w", err)
	}
	d.Provider = res.Provider
	d.ExternalPaymentID = res.ExternalID
	d.IdempotencyKey = key
	d.ConfirmationURL = res.ConfirmationURL
	d.Status = domain.MapPaymentStatus(res.Status)
	if err := s.repo.UpdatePayment(ctx, d); err != nil {
		return d, fmt.Errorf("save payment: %w", err)
	}
	return d, nil
}

// Get returns the stored donation without contacting the provider.
func (s *donationService) Get(ctx context.Context, donationID string) (*domain.Donation, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()
	return s.get(ctx, donationID)
}

// RetryPayment creates a new payment for a donation that has none or whose payment
// was canceled or failed. Otherwise the donation is returned unchanged.
func (s *donationService) RetryPayment(ctx context.Context, donationID string) (*domain.Donation, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	d, err := s.get(ctx, donationID)
	if err != nil {
		return nil, err
	}
	if d.ConfirmationURL != "" && d.Status != domain.DonationCanceled && d.Status != domain.DonationFailed {
		return d, nil
	}
	if d.Status == domain.DonationSucceeded {
		return d, nil
	}
	return s.createPayment(ctx, d)
}

func (s *donationService) Refresh(ctx context.Context, donationID string) (*domain.Donation, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	d, err := s.get(ctx, donationID)
	if err != nil {
		return nil, err
	}
	return s.refresh(ctx, d)
}

func (s *donationService) RefreshByExternalID(ctx context.Context, externalID string) (*domain.Donation, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	d, err := s.repo.GetByExternalID(ctx, externalID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get donation: %w", err)
	}
	return s.refresh(ctx, d)
}

func (s *donationService) refresh(ctx context.Context, d *domain.Donation) (*domain.Donation, error) {
	if d.ExternalPaymentID == "" {
		return d, nil
	}
	res, err := s.provider.PaymentStatus(ctx, d.ExternalPaymentID)
	if err != nil {
		return d, fmt.Errorf("payment status: %w", err)
	}
	status := domain.MapPaymentStatus(res.Status)
	if status == d.Status {
		return d, nil
	}
	if err := s.repo.UpdateStatus(ctx, d.ID, status); err != nil {
		return d, fmt.Errorf("update donation status: %w", err)
	}
	d.Status = status
	return d, nil
}

func (s *donationService) Summary(ctx context.Context, event *domain.Event) (*domain.DonationSummary, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	sum, err := s.repo.Summary(ctx, event.ID, summaryLatest)
	if err != nil {
		return nil, fmt.Errorf("donation summary: %w", err)
	}
	sum.Currency = s.currency
	return sum, nil
}

func (s *donationService) get(ctx context.Context, id string) (*domain.Donation, error) {
	d, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get donation: %w", err)
	}
	return d, nil
}
