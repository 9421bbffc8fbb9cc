package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/aura-survey/backend/internal/models"
	"github.com/aura-survey/backend/internal/render"
	"github.com/aura-survey/backend/internal/rewards"
)

// Catalog is the read side of the poll catalog.
type Catalog interface {
	ActivePolls(ctx context.Context, now time.Time) ([]models.Poll, error)
	GetPoll(ctx context.Context, id uuid.UUID) (*models.Poll, error)
	Questions(ctx context.Context, pollID uuid.UUID) ([]models.Question, error)
}

// Respondents stores respondents. SaveRespondent fails with ErrConflict on a stale version.
type Respondents interface {
	CreateRespondent(ctx context.Context, r *models.Respondent) error
	GetRespondent(ctx context.Context, id uuid.UUID) (*models.Respondent, error)
	FindRespondent(ctx context.Context, identityID int64, pollID uuid.UUID) (*models.Respondent, error)
	SaveRespondent(ctx context.Context, r *models.Respondent) error
	DeleteRespondent(ctx context.Context, id uuid.UUID) error
	FinishedPollIDs(ctx context.Context, identityID int64) ([]uuid.UUID, error)
}

// Answers stores answers, pending renders included.
type Answers interface {
	GetAnswer(ctx context.Context, respondentID, questionID uuid.UUID) (*models.Answer, error)
	UpsertAnswer(ctx context.Context, a *models.Answer) error
	DeleteAnswer(ctx context.Context, respondentID, questionID uuid.UUID) error
	DeleteAnswers(ctx context.Context, respondentID uuid.UUID) error
	ListAnswers(ctx context.Context, respondentID uuid.UUID) ([]models.Answer, error)
	FirstPendingAnswer(ctx context.Context, respondentID uuid.UUID) (*models.Answer, error)
	FindAnswerByWidget(ctx context.Context, widgetID string) (*models.Answer, error)
	CountAnswered(ctx context.Context, respondentID uuid.UUID) (int, error)
	SetDelivery(ctx context.Context, respondentID, questionID uuid.UUID, d models.Delivery) error
}

// Ledger settles completions and keeps identity profiles.
type Ledger interface {
	Settle(ctx context.Context, s rewards.Settlement) (*rewards.Result, error)
	SaveIdentity(ctx context.Context, id *models.Identity) error
	GetIdentity(ctx context.Context, identityID int64) (*models.Identity, error)
}

// Channel is the outbound side of the chat transport.
type Channel interface {
	SendRender(ctx context.Context, chatID int64, in *render.Instruction) (models.Delivery, error)
	SendText(ctx context.Context, chatID int64, text string) (models.Delivery, error)
	// DeleteOrEdit removes or neutralizes a previously delivered message. Best-effort.
	DeleteOrEdit(ctx context.Context, d models.Delivery) error
}

// Notifier receives completion facts for ledger and notification consumers.
type Notifier interface {
	Completed(ctx context.Context, c Completion) error
}

// Notifiers fans a completion out to several notifiers. Every notifier is called; their errors
// are joined.
type Notifiers []Notifier

func (ns Notifiers) Completed(ctx context.Context, c Completion) error {
	var errs []error
	for _, n := range ns {
		if err := n.Completed(ctx, c); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
