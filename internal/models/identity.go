package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Identity is a chat user as resolved by the transport: who is talking and in which language.
type Identity struct {
	ID       int64    `json:"id"`
	ChatID   int64    `json:"chat_id"`
	FullName string   `json:"full_name,omitempty"`
	Language Language `json:"language"`
}

// Account is the reward balance of an identity.
type Account struct {
	IdentityID int64           `json:"identity_id"`
	Balance    decimal.Decimal `json:"balance"`
	UpdatedAt  time.Time       `json:"updated_at"`
}
