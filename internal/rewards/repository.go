package rewards

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/aura-survey/backend/internal/models"
)

// Repository persists identities, balances and the transaction ledger.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a rewards repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Settle finishes the respondent and credits the reward in one transaction.
// finished_at is only stamped when it was null, and the earned ledger entry is unique per
// (identity, poll), so duplicate or concurrent completions never pay twice.
func (r *Repository) Settle(ctx context.Context, s Settlement) (*Result, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	res := &Result{}
	err = tx.QueryRow(ctx, `UPDATE respondents SET finished_at = $2, state = $3, current_question_id = NULL,
			resume_question_id = NULL, challenge_id = NULL, version = version + 1, updated_at = NOW()
		WHERE id = $1 AND finished_at IS NULL
		RETURNING finished_at`, s.RespondentID, s.FinishedAt, string(models.StateFinished)).Scan(&res.FinishedAt)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		err = tx.QueryRow(ctx, `SELECT finished_at FROM respondents WHERE id = $1`, s.RespondentID).Scan(&res.FinishedAt)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("settle respondent %s: %w", s.RespondentID, models.ErrConcurrentUpdate)
		}
		if err != nil {
			return nil, err
		}
		res.Balance, err = balance(ctx, tx, s.IdentityID)
		if err != nil {
			return nil, err
		}
		return res, tx.Commit(ctx)
	case err != nil:
		return nil, fmt.Errorf("stamp finished: %w", err)
	}
	res.Finished = true

	if s.Reward.IsPositive() {
		tag, err := tx.Exec(ctx, `INSERT INTO ledger_entries (id, identity_id, type, amount, description, poll_id, respondent_id)
			VALUES ($1, $2, $3, $4::numeric, $5, $6, $7)
			ON CONFLICT (identity_id, poll_id) WHERE type = 'earned' DO NOTHING`,
			uuid.New(), s.IdentityID, models.TransactionEarned, s.Reward.String(), Description(s.PollName), s.PollID, s.RespondentID)
		if err != nil {
			return nil, fmt.Errorf("insert ledger entry: %w", err)
		}
		if tag.RowsAffected() == 1 {
			var bal string
			err = tx.QueryRow(ctx, `INSERT INTO accounts (identity_id, balance) VALUES ($1, $2::numeric)
				ON CONFLICT (identity_id) DO UPDATE SET balance = accounts.balance + EXCLUDED.balance, updated_at = NOW()
				RETURNING balance::text`, s.IdentityID, s.Reward.String()).Scan(&bal)
			if err != nil {
				return nil, fmt.Errorf("credit balance: %w", err)
			}
			if res.Balance, err = decimal.NewFromString(bal); err != nil {
				return nil, err
			}
			res.Credited = true
		}
	}
	if !res.Credited {
		if res.Balance, err = balance(ctx, tx, s.IdentityID); err != nil {
			return nil, err
		}
	}
	return res, tx.Commit(ctx)
}

func balance(ctx context.Context, tx pgx.Tx, identityID int64) (decimal.Decimal, error) {
	var bal string
	err := tx.QueryRow(ctx, `SELECT balance::text FROM accounts WHERE identity_id = $1`, identityID).Scan(&bal)
	if errors.Is(err, pgx.ErrNoRows) {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, err
	}
	return decimal.NewFromString(bal)
}

// SaveIdentity upserts the identity profile the transport resolved.
func (r *Repository) SaveIdentity(ctx context.Context, id *models.Identity) error {
	const q = `INSERT INTO identities (id, chat_id, full_name, language) VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET chat_id = EXCLUDED.chat_id, full_name = EXCLUDED.full_name,
			language = EXCLUDED.language, updated_at = NOW()`
	_, err := r.pool.Exec(ctx, q, id.ID, id.ChatID, id.FullName, string(id.Language))
	return err
}

// GetIdentity returns an identity, or nil if unknown.
func (r *Repository) GetIdentity(ctx context.Context, identityID int64) (*models.Identity, error) {
	var id models.Identity
	var lang string
	err := r.pool.QueryRow(ctx, `SELECT id, chat_id, full_name, language FROM identities WHERE id = $1`, identityID).
		Scan(&id.ID, &id.ChatID, &id.FullName, &lang)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	id.Language = models.Language(lang)
	return &id, nil
}

// GetAccount returns the balance of an identity; an identity that never earned has a zero balance.
func (r *Repository) GetAccount(ctx context.Context, identityID int64) (*models.Account, error) {
	acc := models.Account{IdentityID: identityID, Balance: decimal.Zero}
	var bal string
	err := r.pool.QueryRow(ctx, `SELECT balance::text, updated_at FROM accounts WHERE identity_id = $1`, identityID).
		Scan(&bal, &acc.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return &acc, nil
	}
	if err != nil {
		return nil, err
	}
	if acc.Balance, err = decimal.NewFromString(bal); err != nil {
		return nil, err
	}
	return &acc, nil
}

// ListLedger returns the ledger entries of an identity, newest first.
func (r *Repository) ListLedger(ctx context.Context, identityID int64) ([]models.LedgerEntry, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, identity_id, type, amount::text, description, poll_id, respondent_id, created_at
		FROM ledger_entries WHERE identity_id = $1 ORDER BY created_at DESC`, identityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.LedgerEntry
	for rows.Next() {
		var e models.LedgerEntry
		var amount string
		if err := rows.Scan(&e.ID, &e.IdentityID, &e.Type, &amount, &e.Description, &e.PollID, &e.RespondentID, &e.CreatedAt); err != nil {
			return nil, err
		}
		if e.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, err
		}
		list = append(list, e)
	}
	return list, rows.Err()
}
