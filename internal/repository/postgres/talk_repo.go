package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"meetupbot/internal/domain"
)

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

const talkSelect = `
	SELECT t.id, t.event_id, t.title, t.description, t.speaker_id, sp.telegram_id, sp.username, sp.first_name, sp.last_name,
		t.start_at, t.end_at, t.sort_order, t.room, t.status, t.is_current, t.created_at, t.updated_at
	FROM talks t
	LEFT JOIN participants sp ON sp.id = t.speaker_id
`

type talkRepository struct {
	DB *sql.DB
}

func NewTalkRepository(db *sql.DB) domain.TalkRepository {
	return &talkRepository{
		DB: db,
	}
}

func scanTalk(s rowScanner) (*domain.Talk, error) {
	t := &domain.Talk{}
	var speakerID, username, firstName, lastName sql.NullString
	var telegramID sql.NullInt64
	var status string
	err := s.Scan(&t.ID, &t.EventID, &t.Title, &t.Description, &speakerID, &telegramID, &username, &firstName, &lastName,
		&t.StartAt, &t.EndAt, &t.Order, &t.Room, &status, &t.IsCurrent, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	t.Status = domain.TalkStatus(status)
	if speakerID.Valid {
		t.SpeakerID = &speakerID.String
		t.Speaker = &domain.Participant{
			ID:         speakerID.String,
			TelegramID: telegramID.Int64,
			Username:   username.String,
			FirstName:  firstName.String,
			LastName:   lastName.String,
		}
	}
	return t, nil
}

func listTalks(ctx context.Context, q querier, query string, args ...any) ([]*domain.Talk, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	talks := make([]*domain.Talk, 0)
	for rows.Next() {
		t, err := scanTalk(rows)
		if err != nil {
			return nil, err
		}
		talks = append(talks, t)
	}
	return talks, rows.Err()
}

func (r *talkRepository) Create(ctx context.Context, t *domain.Talk) error {
	query := `
		INSERT INTO talks (event_id, title, description, speaker_id, start_at, end_at, sort_order, room, status, is_current, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id
	`
	var speakerID sql.NullString
	if t.SpeakerID != nil {
		speakerID = sql.NullString{String: *t.SpeakerID, Valid: true}
	}
	return r.DB.QueryRowContext(ctx, query, t.EventID, t.Title, t.Description, speakerID, t.StartAt, t.EndAt,
		t.Order, t.Room, string(t.Status), t.IsCurrent, t.CreatedAt, t.UpdatedAt).Scan(&t.ID)
}

func (r *talkRepository) GetByID(ctx context.Context, id string) (*domain.Talk, error) {
	t, err := scanTalk(r.DB.QueryRowContext(ctx, talkSelect+`WHERE t.id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return t, nil
}

func (r *talkRepository) ListByEvent(ctx context.Context, eventID string) ([]*domain.Talk, error) {
	return listTalks(ctx, r.DB, talkSelect+`WHERE t.event_id = $1 ORDER BY t.sort_order, t.start_at`, eventID)
}

func (r *talkRepository) ListBySpeaker(ctx context.Context, eventID, speakerID string) ([]*domain.Talk, error) {
	return listTalks(ctx, r.DB, talkSelect+`WHERE t.event_id = $1 AND t.speaker_id = $2 ORDER BY t.sort_order, t.start_at`, eventID, speakerID)
}

func (r *talkRepository) HasSpeakerTalk(ctx context.Context, eventID, speakerID string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM talks WHERE event_id = $1 AND speaker_id = $2)`
	if err := r.DB.QueryRowContext(ctx, query, eventID, speakerID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

type talkState struct {
	status    domain.TalkStatus
	isCurrent bool
}

// UpdateProgram locks the event row and all of its talk rows, runs fn and writes back
// every talk whose status or current flag changed together with the event's pointer.
func (r *talkRepository) UpdateProgram(ctx context.Context, eventID string, fn domain.ProgramMutation) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	event, err := scanEvent(tx.QueryRowContext(ctx, eventSelect+`WHERE e.id = $1 FOR UPDATE OF e`, eventID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("lock event: %w", err)
	}
	talks, err := listTalks(ctx, tx, talkSelect+`WHERE t.event_id = $1 ORDER BY t.sort_order, t.start_at FOR UPDATE OF t`, eventID)
	if err != nil {
		return fmt.Errorf("lock talks: %w", err)
	}

	before := make(map[string]talkState, len(talks))
	for _, t := range talks {
		before[t.ID] = talkState{status: t.Status, isCurrent: t.IsCurrent}
	}
	pointerBefore := ""
	if event.CurrentTalkID != nil {
		pointerBefore = *event.CurrentTalkID
	}

	if err := fn(event, talks); err != nil {
		return err
	}

	now := time.Now()
	for _, t := range talks {
		if prev, ok := before[t.ID]; ok && prev.status == t.Status && prev.isCurrent == t.IsCurrent {
			continue
		}
		_, err := tx.ExecContext(ctx, `UPDATE talks SET status = $2, is_current = $3, updated_at = $4 WHERE id = $1`,
			t.ID, string(t.Status), t.IsCurrent, now)
		if err != nil {
			return fmt.Errorf("update talk: %w", err)
		}
		t.UpdatedAt = now
	}

	pointerAfter := ""
	if event.CurrentTalkID != nil {
		pointerAfter = *event.CurrentTalkID
	}
	if pointerAfter != pointerBefore {
		var ptr sql.NullString
		if pointerAfter != "" {
			ptr = sql.NullString{String: pointerAfter, Valid: true}
		}
		if _, err := tx.ExecContext(ctx, `UPDATE events SET current_talk_id = $2, updated_at = $3 WHERE id = $1`, event.ID, ptr, now); err != nil {
			return fmt.Errorf("update event pointer: %w", err)
		}
		event.UpdatedAt = now
	}

	return tx.Commit()
}
