package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"

	"meetupbot/internal/domain"
)

const questionSelect = `
	SELECT q.id, q.talk_id, q.author_id, a.telegram_id, a.username, a.first_name, a.last_name,
		q.text, q.status, q.answer_text, q.asked_at, q.answered_at
	FROM questions q
	LEFT JOIN participants a ON a.id = q.author_id
`

type questionRepository struct {
	DB *sql.DB
}

func NewQuestionRepository(db *sql.DB) domain.QuestionRepository {
	return &questionRepository{
		DB: db,
	}
}

func scanQuestion(s rowScanner) (*domain.Question, error) {
	q := &domain.Question{}
	var authorID, username, firstName, lastName sql.NullString
	var telegramID sql.NullInt64
	var answeredAt sql.NullTime
	var status string
	err := s.Scan(&q.ID, &q.TalkID, &authorID, &telegramID, &username, &firstName, &lastName,
		&q.Text, &status, &q.AnswerText, &q.AskedAt, &answeredAt)
	if err != nil {
		return nil, err
	}
	q.Status = domain.QuestionStatus(status)
	if authorID.Valid {
		q.AuthorID = &authorID.String
		q.Author = &domain.Participant{
			ID:         authorID.String,
			TelegramID: telegramID.Int64,
			Username:   username.String,
			FirstName:  firstName.String,
			LastName:   lastName.String,
		}
	}
	if answeredAt.Valid {
		q.AnsweredAt = &answeredAt.Time
	}
	return q, nil
}

func (r *questionRepository) Create(ctx context.Context, q *domain.Question) error {
	query := `
		INSERT INTO questions (talk_id, author_id, text, status, asked_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	var authorID sql.NullString
	if q.AuthorID != nil {
		authorID = sql.NullString{String: *q.AuthorID, Valid: true}
	}
	return r.DB.QueryRowContext(ctx, query, q.TalkID, authorID, q.Text, string(q.Status), q.AskedAt).Scan(&q.ID)
}

func (r *questionRepository) GetByID(ctx context.Context, id string) (*domain.Question, error) {
	q, err := scanQuestion(r.DB.QueryRowContext(ctx, questionSelect+`WHERE q.id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return q, nil
}

func (r *questionRepository) ListPendingByTalk(ctx context.Context, talkID string) ([]*domain.Question, error) {
	query := questionSelect + `WHERE q.talk_id = $1 AND q.status = $2 ORDER BY q.asked_at, q.id`
	rows, err := r.DB.QueryContext(ctx, query, talkID, string(domain.QuestionPending))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]*domain.Question, 0)
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

func (r *questionRepository) Stats(ctx context.Context, talkID string) (domain.QuestionStats, error) {
	query := `
		SELECT COUNT(*),
			COUNT(*) FILTER (WHERE status = 'answered'),
			COUNT(*) FILTER (WHERE status = 'rejected'),
			COUNT(*) FILTER (WHERE status = 'pending')
		FROM questions
		WHERE talk_id = $1
	`
	var s domain.QuestionStats
	err := r.DB.QueryRowContext(ctx, query, talkID).Scan(&s.Total, &s.Answered, &s.Rejected, &s.Pending)
	return s, err
}

// Transition updates the row only while its status is one of from.
func (r *questionRepository) Transition(ctx context.Context, id string, from []domain.QuestionStatus, to domain.QuestionStatus, at time.Time) (*domain.Question, error) {
	sources := make([]string, len(from))
	for i, s := range from {
		sources[i] = string(s)
	}
	var answeredAt sql.NullTime
	if to.IsFinal() {
		answeredAt = sql.NullTime{Time: at, Valid: true}
	}
	query := `
		UPDATE questions SET status = $2, answered_at = COALESCE($3, answered_at)
		WHERE id = $1 AND status = ANY($4)
	`
	result, err := r.DB.ExecContext(ctx, query, id, string(to), answeredAt, pq.Array(sources))
	if err != nil {
		return nil, err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return nil, err
		}
		return nil, domain.ErrInvalidTransition
	}
	return r.GetByID(ctx, id)
}
