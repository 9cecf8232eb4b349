package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"meetupbot/internal/domain"
)

const profileSelect = `
	SELECT np.id, np.participant_id, p.telegram_id, np.event_id, np.role, np.company, np.stack,
		np.interests, np.contact, np.is_active, np.created_at, np.updated_at
	FROM networking_profiles np
	JOIN participants p ON p.id = np.participant_id
`

const matchColumns = `id, event_id, source_profile_id, target_profile_id, status, created_at, responded_at`

type networkingRepository struct {
	DB *sql.DB
}

func NewNetworkingRepository(db *sql.DB) domain.NetworkingRepository {
	return &networkingRepository{
		DB: db,
	}
}

func scanProfile(s rowScanner) (*domain.NetworkingProfile, error) {
	p := &domain.NetworkingProfile{}
	err := s.Scan(&p.ID, &p.ParticipantID, &p.ParticipantTelegramID, &p.EventID, &p.Role, &p.Company,
		&p.Stack, &p.Interests, &p.Contact, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func scanMatch(s rowScanner) (*domain.NetworkingMatch, error) {
	m := &domain.NetworkingMatch{}
	var status string
	var respondedAt sql.NullTime
	if err := s.Scan(&m.ID, &m.EventID, &m.SourceProfileID, &m.TargetProfileID, &status, &m.CreatedAt, &respondedAt); err != nil {
		return nil, err
	}
	m.Status = domain.MatchStatus(status)
	if respondedAt.Valid {
		m.RespondedAt = &respondedAt.Time
	}
	return m, nil
}

func (r *networkingRepository) UpsertProfile(ctx context.Context, p *domain.NetworkingProfile) error {
	query := `
		INSERT INTO networking_profiles (participant_id, event_id, role, company, stack, interests, contact, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, TRUE, $8, $8)
		ON CONFLICT (participant_id, event_id) DO UPDATE
		SET role = EXCLUDED.role, company = EXCLUDED.company, stack = EXCLUDED.stack,
			interests = EXCLUDED.interests, contact = EXCLUDED.contact, is_active = TRUE, updated_at = EXCLUDED.updated_at
		RETURNING id, created_at, updated_at
	`
	p.IsActive = true
	return r.DB.QueryRowContext(ctx, query, p.ParticipantID, p.EventID, p.Role, p.Company, p.Stack, p.Interests, p.Contact, time.Now()).
		Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
}

func (r *networkingRepository) GetProfileByID(ctx context.Context, id string) (*domain.NetworkingProfile, error) {
	p, err := scanProfile(r.DB.QueryRowContext(ctx, profileSelect+`WHERE np.id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

func (r *networkingRepository) GetActiveProfile(ctx context.Context, participantID, eventID string) (*domain.NetworkingProfile, error) {
	query := profileSelect + `WHERE np.participant_id = $1 AND np.event_id = $2 AND np.is_active`
	p, err := scanProfile(r.DB.QueryRowContext(ctx, query, participantID, eventID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

func (r *networkingRepository) ListActiveProfiles(ctx context.Context, eventID string) ([]*domain.NetworkingProfile, error) {
	rows, err := r.DB.QueryContext(ctx, profileSelect+`WHERE np.event_id = $1 AND np.is_active ORDER BY np.created_at, np.id`, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]*domain.NetworkingProfile, 0)
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *networkingRepository) CountActiveProfiles(ctx context.Context, eventID string) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM networking_profiles WHERE event_id = $1 AND is_active`, eventID).Scan(&n)
	return n, err
}

func (r *networkingRepository) ListProposedTargetIDs(ctx context.Context, eventID, sourceProfileID string) ([]string, error) {
	query := `SELECT target_profile_id FROM networking_matches WHERE event_id = $1 AND source_profile_id = $2`
	rows, err := r.DB.QueryContext(ctx, query, eventID, sourceProfileID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *networkingRepository) OutgoingCounts(ctx context.Context, eventID string) (map[string]int, error) {
	query := `SELECT source_profile_id, COUNT(*) FROM networking_matches WHERE event_id = $1 GROUP BY source_profile_id`
	rows, err := r.DB.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	counts := make(map[string]int)
	for rows.Next() {
		var id string
		var n int
		if err := rows.Scan(&id, &n); err != nil {
			return nil, err
		}
		counts[id] = n
	}
	return counts, rows.Err()
}

// CreateMatch relies on the (event, source, target) unique constraint; a conflicting
// insert returns no row and the existing proposal is read back instead.
func (r *networkingRepository) CreateMatch(ctx context.Context, m *domain.NetworkingMatch) (bool, error) {
	query := `
		INSERT INTO networking_matches (event_id, source_profile_id, target_profile_id, status, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (event_id, source_profile_id, target_profile_id) DO NOTHING
		RETURNING id
	`
	err := r.DB.QueryRowContext(ctx, query, m.EventID, m.SourceProfileID, m.TargetProfileID, string(m.Status), m.CreatedAt).Scan(&m.ID)
	if err == nil {
		return true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return false, err
	}
	existing, err := scanMatch(r.DB.QueryRowContext(ctx,
		`SELECT `+matchColumns+` FROM networking_matches WHERE event_id = $1 AND source_profile_id = $2 AND target_profile_id = $3`,
		m.EventID, m.SourceProfileID, m.TargetProfileID))
	if err != nil {
		return false, fmt.Errorf("read existing match: %w", err)
	}
	*m = *existing
	return false, nil
}

func (r *networkingRepository) GetMatch(ctx context.Context, id string) (*domain.NetworkingMatch, error) {
	m, err := scanMatch(r.DB.QueryRowContext(ctx, `SELECT `+matchColumns+` FROM networking_matches WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return m, nil
}

func (r *networkingRepository) RespondMatch(ctx context.Context, id string, status domain.MatchStatus, at time.Time) (*domain.NetworkingMatch, error) {
	query := `UPDATE networking_matches SET status = $2, responded_at = $3 WHERE id = $1 AND status = 'pending'`
	result, err := r.DB.ExecContext(ctx, query, id, string(status), at)
	if err != nil {
		return nil, err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		if _, err := r.GetMatch(ctx, id); err != nil {
			return nil, err
		}
		return nil, domain.ErrInvalidTransition
	}
	return r.GetMatch(ctx, id)
}
