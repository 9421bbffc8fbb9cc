// Package rewards settles poll completion: it stamps the respondent finished and credits the
// poll reward to the identity's balance in one unit.
package rewards

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Settlement is a request to finish a respondent and pay the poll reward.
type Settlement struct {
	RespondentID uuid.UUID
	IdentityID   int64
	PollID       uuid.UUID
	PollName     string
	Reward       decimal.Decimal
	FinishedAt   time.Time
}

// Result reports what a settlement changed.
type Result struct {
	// Finished is true only for the call that stamped finished_at.
	Finished   bool
	FinishedAt time.Time
	// Credited is true only when this call paid the reward.
	Credited bool
	Balance  decimal.Decimal
}

// Description is the ledger text for an earned reward.
func Description(pollName string) string {
	return "Reward for poll: " + pollName
}
