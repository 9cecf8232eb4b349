package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"meetupbot/internal/domain"
)

const eventSelect = `
	SELECT e.id, e.name, e.description, e.place_id, p.name, p.address, e.start_at, e.end_at,
		e.is_active, e.is_published, e.announcements_enabled, e.current_talk_id, e.created_at, e.updated_at
	FROM events e
	LEFT JOIN places p ON p.id = e.place_id
`

type eventRepository struct {
	DB *sql.DB
}

func NewEventRepository(db *sql.DB) domain.EventRepository {
	return &eventRepository{
		DB: db,
	}
}

func scanEvent(s rowScanner) (*domain.Event, error) {
	e := &domain.Event{}
	var placeID, placeName, placeAddress, currentTalk sql.NullString
	err := s.Scan(&e.ID, &e.Name, &e.Description, &placeID, &placeName, &placeAddress,
		&e.StartAt, &e.EndAt, &e.IsActive, &e.IsPublished, &e.AnnouncementsEnabled,
		&currentTalk, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if placeID.Valid {
		e.Place = &domain.Place{ID: placeID.String, Name: placeName.String, Address: placeAddress.String}
	}
	if currentTalk.Valid {
		e.CurrentTalkID = &currentTalk.String
	}
	return e, nil
}

func (r *eventRepository) Create(ctx context.Context, e *domain.Event) error {
	query := `
		INSERT INTO events (name, description, place_id, start_at, end_at, is_active, is_published, announcements_enabled, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`
	var placeID sql.NullString
	if e.Place != nil && e.Place.ID != "" {
		placeID = sql.NullString{String: e.Place.ID, Valid: true}
	}
	return r.DB.QueryRowContext(ctx, query, e.Name, e.Description, placeID, e.StartAt, e.EndAt,
		e.IsActive, e.IsPublished, e.AnnouncementsEnabled, e.CreatedAt, e.UpdatedAt).Scan(&e.ID)
}

func (r *eventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	e, err := scanEvent(r.DB.QueryRowContext(ctx, eventSelect+`WHERE e.id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return e, nil
}

func (r *eventRepository) GetActive(ctx context.Context) (*domain.Event, error) {
	e, err := scanEvent(r.DB.QueryRowContext(ctx, eventSelect+`WHERE e.is_active ORDER BY e.start_at DESC LIMIT 1`))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return e, nil
}

// activateLockKey identifies the advisory lock held while the active event changes.
const activateLockKey int64 = 0x6d65657475700001

// Activate makes id the only active event. Concurrent activations serialize on a
// transaction-scoped advisory lock, so the second one sees the first one's result.
func (r *eventRepository) Activate(ctx context.Context, id string) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, activateLockKey); err != nil {
		return fmt.Errorf("lock event activation: %w", err)
	}
	var locked string
	err = tx.QueryRowContext(ctx, `SELECT id FROM events WHERE id = $1 FOR UPDATE`, id).Scan(&locked)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrNotFound
		}
		return err
	}
	query := `
		UPDATE events SET is_active = (id = $1), updated_at = $2
		WHERE is_active OR id = $1
	`
	if _, err := tx.ExecContext(ctx, query, id, time.Now()); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *eventRepository) ListPublishedEndingAfter(ctx context.Context, t time.Time) ([]*domain.Event, error) {
	return r.list(ctx, eventSelect+`WHERE e.is_published AND e.end_at >= $1 ORDER BY e.start_at`, t)
}

func (r *eventRepository) ListUnpublished(ctx context.Context) ([]*domain.Event, error) {
	return r.list(ctx, eventSelect+`WHERE NOT e.is_published ORDER BY e.start_at`)
}

func (r *eventRepository) list(ctx context.Context, query string, args ...any) ([]*domain.Event, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	events := make([]*domain.Event, 0)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
