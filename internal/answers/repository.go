package answers

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

const answerColumns = `id, respondent_id, question_id, open_answer, selected_choices, other_selected, is_answered,
	chat_id, message_id, poll_widget_id, updated_at`

// Repository persists answers, one row per (respondent, question).
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an answers repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// UpsertAnswer inserts the answer or replaces the existing one for the same respondent and question.
func (r *Repository) UpsertAnswer(ctx context.Context, a *models.Answer) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	selected, err := encodeChoices(a.SelectedChoices)
	if err != nil {
		return err
	}
	const q = `INSERT INTO answers (id, respondent_id, question_id, open_answer, selected_choices, other_selected,
			is_answered, chat_id, message_id, poll_widget_id)
		VALUES ($1, $2, $3, $4, $5::jsonb, $6, $7, $8, $9, $10)
		ON CONFLICT (respondent_id, question_id) DO UPDATE SET
			open_answer = EXCLUDED.open_answer, selected_choices = EXCLUDED.selected_choices,
			other_selected = EXCLUDED.other_selected, is_answered = EXCLUDED.is_answered,
			chat_id = EXCLUDED.chat_id, message_id = EXCLUDED.message_id,
			poll_widget_id = EXCLUDED.poll_widget_id, updated_at = NOW()
		RETURNING id, updated_at`
	return r.pool.QueryRow(ctx, q, a.ID, a.RespondentID, a.QuestionID, a.OpenAnswer, selected, a.OtherSelected,
		a.IsAnswered, a.Delivery.ChatID, a.Delivery.MessageID, a.Delivery.PollWidgetID).
		Scan(&a.ID, &a.UpdatedAt)
}

// GetAnswer returns the answer for respondent and question, or nil if none.
func (r *Repository) GetAnswer(ctx context.Context, respondentID, questionID uuid.UUID) (*models.Answer, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+answerColumns+` FROM answers WHERE respondent_id = $1 AND question_id = $2`,
		respondentID, questionID)
	return scanOne(row)
}

// DeleteAnswer removes the answer for respondent and question. Deleting a missing answer is not an error.
func (r *Repository) DeleteAnswer(ctx context.Context, respondentID, questionID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM answers WHERE respondent_id = $1 AND question_id = $2`, respondentID, questionID)
	return err
}

// DeleteAnswers removes every answer of a respondent.
func (r *Repository) DeleteAnswers(ctx context.Context, respondentID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM answers WHERE respondent_id = $1`, respondentID)
	return err
}

// ListAnswers returns all answers of a respondent, pending ones included.
func (r *Repository) ListAnswers(ctx context.Context, respondentID uuid.UUID) ([]models.Answer, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+answerColumns+` FROM answers WHERE respondent_id = $1 ORDER BY updated_at`, respondentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Answer
	for rows.Next() {
		a, err := scan(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *a)
	}
	return list, rows.Err()
}

// FirstPendingAnswer returns the rendered-but-unanswered answer of a respondent, earliest question first.
func (r *Repository) FirstPendingAnswer(ctx context.Context, respondentID uuid.UUID) (*models.Answer, error) {
	const q = `SELECT a.id, a.respondent_id, a.question_id, a.open_answer, a.selected_choices, a.other_selected,
			a.is_answered, a.chat_id, a.message_id, a.poll_widget_id, a.updated_at
		FROM answers a JOIN questions q ON q.id = a.question_id
		WHERE a.respondent_id = $1 AND NOT a.is_answered
		ORDER BY q.sort_order LIMIT 1`
	return scanOne(r.pool.QueryRow(ctx, q, respondentID))
}

// FindAnswerByWidget returns the answer whose native poll widget has the given id.
func (r *Repository) FindAnswerByWidget(ctx context.Context, widgetID string) (*models.Answer, error) {
	return scanOne(r.pool.QueryRow(ctx, `SELECT `+answerColumns+` FROM answers WHERE poll_widget_id = $1 LIMIT 1`, widgetID))
}

// CountAnswered returns how many questions the respondent has answered.
func (r *Repository) CountAnswered(ctx context.Context, respondentID uuid.UUID) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM answers WHERE respondent_id = $1 AND is_answered`, respondentID).Scan(&n)
	return n, err
}

// SetDelivery stores the transport correlation ids of the rendered question.
func (r *Repository) SetDelivery(ctx context.Context, respondentID, questionID uuid.UUID, d models.Delivery) error {
	const q = `UPDATE answers SET chat_id = $3, message_id = $4, poll_widget_id = $5, updated_at = NOW()
		WHERE respondent_id = $1 AND question_id = $2`
	_, err := r.pool.Exec(ctx, q, respondentID, questionID, d.ChatID, d.MessageID, d.PollWidgetID)
	return err
}

func scanOne(row pgx.Row) (*models.Answer, error) {
	a, err := scan(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return a, err
}

func scan(row pgx.Row) (*models.Answer, error) {
	var a models.Answer
	var selected []byte
	err := row.Scan(&a.ID, &a.RespondentID, &a.QuestionID, &a.OpenAnswer, &selected, &a.OtherSelected, &a.IsAnswered,
		&a.Delivery.ChatID, &a.Delivery.MessageID, &a.Delivery.PollWidgetID, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if len(selected) > 0 {
		if err := json.Unmarshal(selected, &a.SelectedChoices); err != nil {
			return nil, fmt.Errorf("decode selected choices: %w", err)
		}
	}
	return &a, nil
}

func encodeChoices(ids []uuid.UUID) (string, error) {
	if ids == nil {
		ids = []uuid.UUID{}
	}
	b, err := json.Marshal(ids)
	if err != nil {
		return "", fmt.Errorf("encode selected choices: %w", err)
	}
	return string(b), nil
}
