// Package respondents persists respondents: one attempt by one identity at one poll.
package respondents

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aura-survey/backend/internal/models"
)

const respondentColumns = `id, identity_id, poll_id, started_at, finished_at, history, state, current_question_id,
	resume_question_id, challenge_id, description_shown, version, updated_at`

// Repository handles respondent persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a respondents repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// CreateRespondent inserts a respondent. If one already exists for the identity and poll,
// r is overwritten with the stored one.
func (r *Repository) CreateRespondent(ctx context.Context, resp *models.Respondent) error {
	if resp.ID == uuid.Nil {
		resp.ID = uuid.New()
	}
	hist, err := encodeHistory(resp.History)
	if err != nil {
		return err
	}
	const q = `INSERT INTO respondents (id, identity_id, poll_id, started_at, history, state, description_shown)
		VALUES ($1, $2, $3, $4, $5::jsonb, $6, $7)
		ON CONFLICT (identity_id, poll_id) DO NOTHING`
	tag, err := r.pool.Exec(ctx, q, resp.ID, resp.IdentityID, resp.PollID, resp.StartedAt, hist, string(resp.State), resp.DescriptionShown)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		existing, err := r.FindRespondent(ctx, resp.IdentityID, resp.PollID)
		if err != nil {
			return err
		}
		if existing == nil {
			return fmt.Errorf("create respondent: %w", models.ErrConcurrentUpdate)
		}
		*resp = *existing
		return nil
	}
	stored, err := r.GetRespondent(ctx, resp.ID)
	if err != nil {
		return err
	}
	*resp = *stored
	return nil
}

// GetRespondent returns a respondent by ID, or nil if none.
func (r *Repository) GetRespondent(ctx context.Context, id uuid.UUID) (*models.Respondent, error) {
	return scanOne(r.pool.QueryRow(ctx, `SELECT `+respondentColumns+` FROM respondents WHERE id = $1`, id))
}

// FindRespondent returns the respondent of an identity for a poll, or nil if none.
func (r *Repository) FindRespondent(ctx context.Context, identityID int64, pollID uuid.UUID) (*models.Respondent, error) {
	return scanOne(r.pool.QueryRow(ctx, `SELECT `+respondentColumns+` FROM respondents WHERE identity_id = $1 AND poll_id = $2`,
		identityID, pollID))
}

// SaveRespondent writes the mutable session fields. The write only applies if the stored
// version still matches; otherwise models.ErrConcurrentUpdate is returned.
func (r *Repository) SaveRespondent(ctx context.Context, resp *models.Respondent) error {
	hist, err := encodeHistory(resp.History)
	if err != nil {
		return err
	}
	const q = `UPDATE respondents SET history = $3::jsonb, state = $4, current_question_id = $5, resume_question_id = $6,
			challenge_id = $7, description_shown = $8, version = version + 1, updated_at = NOW()
		WHERE id = $1 AND version = $2 AND finished_at IS NULL
		RETURNING version, updated_at`
	err = r.pool.QueryRow(ctx, q, resp.ID, resp.Version, hist, string(resp.State), resp.CurrentQuestionID, resp.ResumeQuestionID,
		resp.ChallengeID, resp.DescriptionShown).Scan(&resp.Version, &resp.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("save respondent %s: %w", resp.ID, models.ErrConcurrentUpdate)
	}
	return err
}

// DeleteRespondent removes a respondent; answers and challenges cascade.
func (r *Repository) DeleteRespondent(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM respondents WHERE id = $1`, id)
	return err
}

// FinishedPollIDs returns the polls the identity has completed.
func (r *Repository) FinishedPollIDs(ctx context.Context, identityID int64) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx, `SELECT poll_id FROM respondents WHERE identity_id = $1 AND finished_at IS NOT NULL`, identityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ListRespondents returns the respondents of a poll, newest first.
func (r *Repository) ListRespondents(ctx context.Context, pollID uuid.UUID) ([]models.Respondent, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+respondentColumns+` FROM respondents WHERE poll_id = $1 ORDER BY started_at DESC`, pollID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Respondent
	for rows.Next() {
		resp, err := scan(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *resp)
	}
	return list, rows.Err()
}

func scanOne(row pgx.Row) (*models.Respondent, error) {
	resp, err := scan(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return resp, err
}

func scan(row pgx.Row) (*models.Respondent, error) {
	var resp models.Respondent
	var hist []byte
	var state string
	err := row.Scan(&resp.ID, &resp.IdentityID, &resp.PollID, &resp.StartedAt, &resp.FinishedAt, &hist, &state,
		&resp.CurrentQuestionID, &resp.ResumeQuestionID, &resp.ChallengeID, &resp.DescriptionShown, &resp.Version, &resp.UpdatedAt)
	if err != nil {
		return nil, err
	}
	resp.State = models.SessionState(state)
	if len(hist) > 0 {
		if err := json.Unmarshal(hist, &resp.History); err != nil {
			return nil, fmt.Errorf("decode history: %w", err)
		}
	}
	return &resp, nil
}

func encodeHistory(h []uuid.UUID) (string, error) {
	if h == nil {
		h = []uuid.UUID{}
	}
	b, err := json.Marshal(h)
	if err != nil {
		return "", fmt.Errorf("encode history: %w", err)
	}
	return string(b), nil
}
