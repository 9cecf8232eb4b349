package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"meetupbot/internal/domain"
)

const applicationSelect = `
	SELECT a.id, a.participant_id, p.telegram_id, p.username, p.first_name, p.last_name,
		a.event_id, e.name, a.topic, a.contact, a.status, a.created_at, a.updated_at
	FROM speaker_applications a
	JOIN participants p ON p.id = a.participant_id
	JOIN events e ON e.id = a.event_id
`

type speakerApplicationRepository struct {
	DB *sql.DB
}

func NewSpeakerApplicationRepository(db *sql.DB) domain.SpeakerApplicationRepository {
	return &speakerApplicationRepository{
		DB: db,
	}
}

func scanApplication(s rowScanner) (*domain.SpeakerApplication, error) {
	a := &domain.SpeakerApplication{Participant: &domain.Participant{}}
	var status string
	err := s.Scan(&a.ID, &a.ParticipantID, &a.Participant.TelegramID, &a.Participant.Username,
		&a.Participant.FirstName, &a.Participant.LastName, &a.EventID, &a.EventName,
		&a.Topic, &a.Contact, &status, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	a.Participant.ID = a.ParticipantID
	a.Status = domain.ApplicationStatus(status)
	return a, nil
}

func (r *speakerApplicationRepository) Create(ctx context.Context, a *domain.SpeakerApplication) error {
	query := `
		INSERT INTO speaker_applications (participant_id, event_id, topic, contact, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	return r.DB.QueryRowContext(ctx, query, a.ParticipantID, a.EventID, a.Topic, a.Contact, string(a.Status), a.CreatedAt, a.UpdatedAt).Scan(&a.ID)
}

func (r *speakerApplicationRepository) GetByID(ctx context.Context, id string) (*domain.SpeakerApplication, error) {
	a, err := scanApplication(r.DB.QueryRowContext(ctx, applicationSelect+`WHERE a.id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return a, nil
}

func (r *speakerApplicationRepository) SetStatus(ctx context.Context, id string, status domain.ApplicationStatus) error {
	result, err := r.DB.ExecContext(ctx, `UPDATE speaker_applications SET status = $2, updated_at = $3 WHERE id = $1`, id, string(status), time.Now())
	if err != nil {
		return err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *speakerApplicationRepository) ListByStatus(ctx context.Context, status domain.ApplicationStatus) ([]*domain.SpeakerApplication, error) {
	rows, err := r.DB.QueryContext(ctx, applicationSelect+`WHERE a.status = $1 ORDER BY a.created_at`, string(status))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]*domain.SpeakerApplication, 0)
	for rows.Next() {
		a, err := scanApplication(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
