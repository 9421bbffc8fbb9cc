package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionType classifies ledger entries.
const (
	TransactionEarned     = "earned"
	TransactionWithdrawal = "withdrawal"
	TransactionBonus      = "bonus"
	TransactionRefund     = "refund"
)

// LedgerEntry is an immutable balance movement of an identity.
type LedgerEntry struct {
	ID           uuid.UUID       `json:"id"`
	IdentityID   int64           `json:"identity_id"`
	Type         string          `json:"type"`
	Amount       decimal.Decimal `json:"amount"`
	Description  string          `json:"description,omitempty"`
	PollID       *uuid.UUID      `json:"poll_id,omitempty"`
	RespondentID *uuid.UUID      `json:"respondent_id,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}
