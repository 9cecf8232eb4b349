package postgres

import (
	"context"
	"database/sql"
	"errors"

	"meetupbot/internal/domain"
)

const donationSelect = `
	SELECT d.id, d.event_id, d.participant_id, p.telegram_id, p.username, p.first_name, p.last_name,
		d.amount, d.currency, d.status, d.provider, d.external_payment_id, d.idempotency_key,
		d.confirmation_url, d.description, d.created_at
	FROM donations d
	LEFT JOIN participants p ON p.id = d.participant_id
`

type donationRepository struct {
	DB *sql.DB
}

func NewDonationRepository(db *sql.DB) domain.DonationRepository {
	return &donationRepository{
		DB: db,
	}
}

func scanDonation(s rowScanner) (*domain.Donation, error) {
	d := &domain.Donation{}
	var participantID, username, firstName, lastName sql.NullString
	var telegramID sql.NullInt64
	var status string
	err := s.Scan(&d.ID, &d.EventID, &participantID, &telegramID, &username, &firstName, &lastName,
		&d.Amount, &d.Currency, &status, &d.Provider, &d.ExternalPaymentID, &d.IdempotencyKey,
		&d.ConfirmationURL, &d.Description, &d.CreatedAt)
	if err != nil {
		return nil, err
	}
	d.Status = domain.DonationStatus(status)
	if participantID.Valid {
		d.ParticipantID = &participantID.String
		d.Participant = &domain.Participant{
			ID:         participantID.String,
			TelegramID: telegramID.Int64,
			Username:   username.String,
			FirstName:  firstName.String,
			LastName:   lastName.String,
		}
	}
	return d, nil
}

func (r *donationRepository) Create(ctx context.Context, d *domain.Donation) error {
	query := `
		INSERT INTO donations (event_id, participant_id, amount, currency, status, description, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	var participantID sql.NullString
	if d.ParticipantID != nil {
		participantID = sql.NullString{String: *d.ParticipantID, Valid: true}
	}
	return r.DB.QueryRowContext(ctx, query, d.EventID, participantID, d.Amount, d.Currency, string(d.Status), d.Description, d.CreatedAt).Scan(&d.ID)
}

func (r *donationRepository) GetByID(ctx context.Context, id string) (*domain.Donation, error) {
	d, err := scanDonation(r.DB.QueryRowContext(ctx, donationSelect+`WHERE d.id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return d, nil
}

func (r *donationRepository) GetByExternalID(ctx context.Context, externalID string) (*domain.Donation, error) {
	if externalID == "" {
		return nil, domain.ErrNotFound
	}
	d, err := scanDonation(r.DB.QueryRowContext(ctx, donationSelect+`WHERE d.external_payment_id = $1`, externalID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return d, nil
}

func (r *donationRepository) UpdatePayment(ctx context.Context, d *domain.Donation) error {
	query := `
		UPDATE donations
		SET provider = $2, external_payment_id = $3, idempotency_key = $4, confirmation_url = $5, status = $6
		WHERE id = $1
	`
	result, err := r.DB.ExecContext(ctx, query, d.ID, d.Provider, d.ExternalPaymentID, d.IdempotencyKey, d.ConfirmationURL, string(d.Status))
	if err != nil {
		return err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *donationRepository) UpdateStatus(ctx context.Context, id string, status domain.DonationStatus) error {
	result, err := r.DB.ExecContext(ctx, `UPDATE donations SET status = $2 WHERE id = $1`, id, string(status))
	if err != nil {
		return err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *donationRepository) Summary(ctx context.Context, eventID string, latest int) (*domain.DonationSummary, error) {
	s := &domain.DonationSummary{Latest: make([]*domain.Donation, 0)}
	query := `
		SELECT COALESCE(SUM(amount) FILTER (WHERE status = 'succeeded'), 0), COUNT(*)
		FROM donations
		WHERE event_id = $1
	`
	if err := r.DB.QueryRowContext(ctx, query, eventID).Scan(&s.Total, &s.Count); err != nil {
		return nil, err
	}
	rows, err := r.DB.QueryContext(ctx, donationSelect+`WHERE d.event_id = $1 ORDER BY d.created_at DESC LIMIT $2`, eventID, latest)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		d, err := scanDonation(rows)
		if err != nil {
			return nil, err
		}
		s.Latest = append(s.Latest, d)
	}
	return s, rows.Err()
}
