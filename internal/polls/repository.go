// Package polls is the poll catalog: polls, their ordered questions and choices.
package polls

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/aura-survey/backend/internal/models"
)

const pollColumns = `id, name, description, deadline, reward::text, created_at`

// Repository handles poll catalog persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a polls repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// CreatePoll inserts a poll with its questions and choices in one transaction.
// Missing ids are generated and written back.
func (r *Repository) CreatePoll(ctx context.Context, p *models.Poll, questions []models.Question) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	desc, err := json.Marshal(p.Description)
	if err != nil {
		return err
	}
	err = tx.QueryRow(ctx, `INSERT INTO polls (id, name, description, deadline, reward)
		VALUES ($1, $2, $3::jsonb, $4, $5::numeric) RETURNING created_at`,
		p.ID, p.Name, string(desc), p.Deadline, p.Reward.String()).Scan(&p.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert poll: %w", err)
	}

	for i := range questions {
		q := &questions[i]
		if q.ID == uuid.Nil {
			q.ID = uuid.New()
		}
		q.PollID = p.ID
		text, err := json.Marshal(q.Text)
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `INSERT INTO questions (id, poll_id, sort_order, type, max_choices, text)
			VALUES ($1, $2, $3, $4, $5, $6::jsonb)`, q.ID, q.PollID, q.Order, string(q.Type), q.MaxChoices, string(text))
		if err != nil {
			return fmt.Errorf("insert question %d: %w", q.Order, err)
		}
		for j := range q.Choices {
			c := &q.Choices[j]
			if c.ID == uuid.Nil {
				c.ID = uuid.New()
			}
			c.QuestionID = q.ID
			ctext, err := json.Marshal(c.Text)
			if err != nil {
				return err
			}
			_, err = tx.Exec(ctx, `INSERT INTO choices (id, question_id, sort_order, text) VALUES ($1, $2, $3, $4::jsonb)`,
				c.ID, c.QuestionID, c.Order, string(ctext))
			if err != nil {
				return fmt.Errorf("insert choice %d of question %d: %w", c.Order, q.Order, err)
			}
		}
	}
	return tx.Commit(ctx)
}

// GetPoll returns a poll by ID, or nil if none.
func (r *Repository) GetPoll(ctx context.Context, id uuid.UUID) (*models.Poll, error) {
	p, err := scanPoll(r.pool.QueryRow(ctx, `SELECT `+pollColumns+` FROM polls WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return p, err
}

// ActivePolls returns the polls whose deadline is not before now, oldest first.
func (r *Repository) ActivePolls(ctx context.Context, now time.Time) ([]models.Poll, error) {
	return r.listPolls(ctx, `SELECT `+pollColumns+` FROM polls WHERE deadline >= $1 ORDER BY created_at`, now)
}

// ListPolls returns every poll, newest first.
func (r *Repository) ListPolls(ctx context.Context) ([]models.Poll, error) {
	return r.listPolls(ctx, `SELECT `+pollColumns+` FROM polls ORDER BY created_at DESC`)
}

func (r *Repository) listPolls(ctx context.Context, query string, args ...any) ([]models.Poll, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Poll
	for rows.Next() {
		p, err := scanPoll(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *p)
	}
	return list, rows.Err()
}

// Questions returns the questions of a poll by order, each with its choices by order.
func (r *Repository) Questions(ctx context.Context, pollID uuid.UUID) ([]models.Question, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, poll_id, sort_order, type, max_choices, text
		FROM questions WHERE poll_id = $1 ORDER BY sort_order`, pollID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Question
	index := make(map[uuid.UUID]int)
	for rows.Next() {
		var q models.Question
		var typ string
		var text []byte
		if err := rows.Scan(&q.ID, &q.PollID, &q.Order, &typ, &q.MaxChoices, &text); err != nil {
			return nil, err
		}
		q.Type = models.QuestionType(typ)
		if err := json.Unmarshal(text, &q.Text); err != nil {
			return nil, fmt.Errorf("decode question text: %w", err)
		}
		index[q.ID] = len(list)
		list = append(list, q)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	crows, err := r.pool.Query(ctx, `SELECT c.id, c.question_id, c.sort_order, c.text
		FROM choices c JOIN questions q ON q.id = c.question_id
		WHERE q.poll_id = $1 ORDER BY c.question_id, c.sort_order`, pollID)
	if err != nil {
		return nil, err
	}
	defer crows.Close()
	for crows.Next() {
		var c models.Choice
		var text []byte
		if err := crows.Scan(&c.ID, &c.QuestionID, &c.Order, &text); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(text, &c.Text); err != nil {
			return nil, fmt.Errorf("decode choice text: %w", err)
		}
		if i, ok := index[c.QuestionID]; ok {
			list[i].Choices = append(list[i].Choices, c)
		}
	}
	return list, crows.Err()
}

func scanPoll(row pgx.Row) (*models.Poll, error) {
	var p models.Poll
	var desc []byte
	var reward string
	if err := row.Scan(&p.ID, &p.Name, &desc, &p.Deadline, &reward, &p.CreatedAt); err != nil {
		return nil, err
	}
	if len(desc) > 0 {
		if err := json.Unmarshal(desc, &p.Description); err != nil {
			return nil, fmt.Errorf("decode poll description: %w", err)
		}
	}
	var err error
	if p.Reward, err = decimal.NewFromString(reward); err != nil {
		return nil, fmt.Errorf("decode poll reward: %w", err)
	}
	return &p, nil
}
