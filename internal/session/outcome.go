package session

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/aura-survey/backend/internal/i18n"
	"github.com/aura-survey/backend/internal/models"
	"github.com/aura-survey/backend/internal/render"
)

// Kind classifies an outcome.
type Kind string

const (
	KindRender     Kind = "render"
	KindCustomText Kind = "custom_text"
	KindChallenge  Kind = "challenge"
	KindCompleted  Kind = "completed"
	KindAborted    Kind = "aborted"
	KindMessage    Kind = "message"
	KindNone       Kind = "none"
)

// Outcome is what a turn produced for the respondent.
type Outcome struct {
	Kind         Kind      `json:"kind"`
	RespondentID uuid.UUID `json:"respondent_id,omitempty"`
	// Notice is shown before the main content (rejections, challenge verdicts).
	Notice string `json:"notice,omitempty"`
	// RejectReason is set when the turn re-prompts after a rejected input.
	RejectReason    i18n.Key            `json:"reject_reason,omitempty"`
	Render          *render.Instruction `json:"render,omitempty"`
	Text            string              `json:"text,omitempty"`
	ProgressPercent int                 `json:"progress_percent"`
	Completion      *Completion         `json:"completion,omitempty"`

	// stale are earlier deliveries to remove before this outcome is sent.
	stale []models.Delivery
}

// Completion is the fact that a respondent finished a poll.
type Completion struct {
	RespondentID uuid.UUID       `json:"respondent_id"`
	PollID       uuid.UUID       `json:"poll_id"`
	PollName     string          `json:"poll_name"`
	IdentityID   int64           `json:"identity_id"`
	ChatID       int64           `json:"chat_id"`
	Language     models.Language `json:"language"`
	Reward       decimal.Decimal `json:"reward"`
	Credited     bool            `json:"credited"`
	Balance      decimal.Decimal `json:"balance"`
	FinishedAt   time.Time       `json:"finished_at"`
}

func message(text string) *Outcome {
	return &Outcome{Kind: KindMessage, Text: text}
}

func challengeOutcome(resp *models.Respondent, notice, prompt string) *Outcome {
	return &Outcome{Kind: KindChallenge, RespondentID: resp.ID, Notice: notice, Text: prompt}
}
