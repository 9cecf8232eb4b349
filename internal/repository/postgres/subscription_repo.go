package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"meetupbot/internal/domain"
)

type subscriptionRepository struct {
	DB *sql.DB
}

func NewSubscriptionRepository(db *sql.DB) domain.SubscriptionRepository {
	return &subscriptionRepository{
		DB: db,
	}
}

func nullableID(id *string) sql.NullString {
	if id == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *id, Valid: true}
}

func (r *subscriptionRepository) Get(ctx context.Context, participantID string, eventID *string, typ domain.SubscriptionType) (*domain.Subscription, error) {
	query := `
		SELECT id, participant_id, event_id, type, is_active, created_at
		FROM subscriptions
		WHERE participant_id = $1 AND event_id IS NOT DISTINCT FROM $2 AND type = $3
	`
	s := &domain.Subscription{}
	var ev sql.NullString
	var t string
	err := r.DB.QueryRowContext(ctx, query, participantID, nullableID(eventID), string(typ)).
		Scan(&s.ID, &s.ParticipantID, &ev, &t, &s.IsActive, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	s.Type = domain.SubscriptionType(t)
	if ev.Valid {
		s.EventID = &ev.String
	}
	return s, nil
}

func (r *subscriptionRepository) Create(ctx context.Context, s *domain.Subscription) error {
	query := `
		INSERT INTO subscriptions (participant_id, event_id, type, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	err := r.DB.QueryRowContext(ctx, query, s.ParticipantID, nullableID(s.EventID), string(s.Type), s.IsActive, s.CreatedAt).Scan(&s.ID)
	if err != nil {
		var perr *pq.Error
		if errors.As(err, &perr) && perr.Code == "23505" {
			return domain.ErrInvalidInput
		}
		return err
	}
	return nil
}

func (r *subscriptionRepository) SetActive(ctx context.Context, id string, active bool) error {
	result, err := r.DB.ExecContext(ctx, `UPDATE subscriptions SET is_active = $2 WHERE id = $1`, id, active)
	if err != nil {
		return err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *subscriptionRepository) ListRecipients(ctx context.Context, eventID string) ([]*domain.Participant, error) {
	query := `
		SELECT ` + participantColumns + `
		FROM participants
		WHERE id IN (
			SELECT participant_id FROM subscriptions
			WHERE is_active AND ((type = 'event' AND event_id = $1) OR type = 'future')
		)
		ORDER BY created_at
	`
	rows, err := r.DB.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]*domain.Participant, 0)
	for rows.Next() {
		p, err := scanParticipant(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
