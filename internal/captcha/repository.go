package captcha

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aura-survey/backend/internal/models"
)

// Repository persists challenges.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a captcha repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// CreateChallenge inserts a challenge.
func (r *Repository) CreateChallenge(ctx context.Context, c *models.CaptchaChallenge) error {
	const q = `INSERT INTO captcha_challenges (id, respondent_id, type, question, correct_answer, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.pool.Exec(ctx, q, c.ID, c.RespondentID, string(c.Type), c.Question, c.CorrectAnswer, c.CreatedAt)
	return err
}

// GetChallenge returns a challenge by ID, or nil if none.
func (r *Repository) GetChallenge(ctx context.Context, id uuid.UUID) (*models.CaptchaChallenge, error) {
	const q = `SELECT id, respondent_id, type, question, correct_answer, user_answer, attempts, is_correct, created_at, solved_at
		FROM captcha_challenges WHERE id = $1`
	var c models.CaptchaChallenge
	var typ string
	err := r.pool.QueryRow(ctx, q, id).Scan(&c.ID, &c.RespondentID, &typ, &c.Question, &c.CorrectAnswer, &c.UserAnswer,
		&c.Attempts, &c.IsCorrect, &c.CreatedAt, &c.SolvedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	c.Type = models.CaptchaType(typ)
	return &c, nil
}

// UpdateChallenge records an attempt.
func (r *Repository) UpdateChallenge(ctx context.Context, c *models.CaptchaChallenge) error {
	const q = `UPDATE captcha_challenges SET user_answer = $2, attempts = $3, is_correct = $4, solved_at = $5 WHERE id = $1`
	_, err := r.pool.Exec(ctx, q, c.ID, c.UserAnswer, c.Attempts, c.IsCorrect, c.SolvedAt)
	return err
}
