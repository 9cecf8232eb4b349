package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"meetupbot/internal/domain"
)

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

const participantColumns = `id, telegram_id, username, first_name, last_name, is_speaker, is_organizer, wants_notifications, created_at, updated_at`

type participantRepository struct {
	DB *sql.DB
}

func NewParticipantRepository(db *sql.DB) domain.ParticipantRepository {
	return &participantRepository{
		DB: db,
	}
}

func scanParticipant(s rowScanner) (*domain.Participant, error) {
	p := &domain.Participant{}
	err := s.Scan(&p.ID, &p.TelegramID, &p.Username, &p.FirstName, &p.LastName,
		&p.IsSpeaker, &p.IsOrganizer, &p.WantsNotifications, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *participantRepository) Upsert(ctx context.Context, p *domain.Participant) error {
	query := `
		INSERT INTO participants (telegram_id, username, first_name, last_name, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
		ON CONFLICT (telegram_id) DO UPDATE
		SET username = EXCLUDED.username, first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name, updated_at = EXCLUDED.updated_at
		RETURNING id, is_speaker, is_organizer, wants_notifications, created_at, updated_at
	`
	now := time.Now()
	return r.DB.QueryRowContext(ctx, query, p.TelegramID, p.Username, p.FirstName, p.LastName, now).
		Scan(&p.ID, &p.IsSpeaker, &p.IsOrganizer, &p.WantsNotifications, &p.CreatedAt, &p.UpdatedAt)
}

func (r *participantRepository) GetByID(ctx context.Context, id string) (*domain.Participant, error) {
	query := `SELECT ` + participantColumns + ` FROM participants WHERE id = $1`
	p, err := scanParticipant(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

func (r *participantRepository) GetByTelegramID(ctx context.Context, telegramID int64) (*domain.Participant, error) {
	query := `SELECT ` + participantColumns + ` FROM participants WHERE telegram_id = $1`
	p, err := scanParticipant(r.DB.QueryRowContext(ctx, query, telegramID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

func (r *participantRepository) SetWantsNotifications(ctx context.Context, id string, wants bool) error {
	query := `UPDATE participants SET wants_notifications = $2, updated_at = $3 WHERE id = $1`
	result, err := r.DB.ExecContext(ctx, query, id, wants, time.Now())
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *participantRepository) ListWantingNotifications(ctx context.Context) ([]*domain.Participant, error) {
	query := `SELECT ` + participantColumns + ` FROM participants WHERE wants_notifications ORDER BY created_at`
	return r.list(ctx, query)
}

func (r *participantRepository) ListOrganizers(ctx context.Context) ([]*domain.Participant, error) {
	query := `SELECT ` + participantColumns + ` FROM participants WHERE is_organizer ORDER BY created_at`
	return r.list(ctx, query)
}

func (r *participantRepository) list(ctx context.Context, query string, args ...any) ([]*domain.Participant, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
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
