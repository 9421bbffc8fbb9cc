// Package reports exposes read-only views of respondents, answers and balances for operators.
package reports

import (
	"context"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aura-survey/backend/internal/models"
	"github.com/aura-survey/backend/internal/render"
	"github.com/aura-survey/backend/pkg/response"
)

// Store is what reporting reads.
type Store interface {
	GetPoll(ctx context.Context, id uuid.UUID) (*models.Poll, error)
	Questions(ctx context.Context, pollID uuid.UUID) ([]models.Question, error)
	GetRespondent(ctx context.Context, id uuid.UUID) (*models.Respondent, error)
	ListRespondents(ctx context.Context, pollID uuid.UUID) ([]models.Respondent, error)
	ListAnswers(ctx context.Context, respondentID uuid.UUID) ([]models.Answer, error)
	CountAnswered(ctx context.Context, respondentID uuid.UUID) (int, error)
	GetIdentity(ctx context.Context, identityID int64) (*models.Identity, error)
	GetAccount(ctx context.Context, identityID int64) (*models.Account, error)
	ListLedger(ctx context.Context, identityID int64) ([]models.LedgerEntry, error)
}

// RespondentSummary is one row of a poll's respondent list.
type RespondentSummary struct {
	models.Respondent
	Answered        int `json:"answered"`
	ProgressPercent int `json:"progress_percent"`
}

// RespondentDetail is a respondent with its answers.
type RespondentDetail struct {
	Respondent *models.Respondent `json:"respondent"`
	Answers    []models.Answer    `json:"answers"`
}

// Balance is an identity's account with its ledger.
type Balance struct {
	Identity *models.Identity     `json:"identity,omitempty"`
	Account  *models.Account      `json:"account"`
	Ledger   []models.LedgerEntry `json:"ledger"`
}

// Handler handles reporting endpoints.
type Handler struct {
	store  Store
	logger *zap.Logger
}

// NewHandler creates a reports handler.
func NewHandler(store Store, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{store: store, logger: logger}
}

// PollRespondents handles GET /v1/polls/:id/respondents.
func (h *Handler) PollRespondents(c *gin.Context) {
	pollID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid poll id")
		return
	}
	ctx := c.Request.Context()
	poll, err := h.store.GetPoll(ctx, pollID)
	if err != nil {
		h.fail(c, "get poll", err)
		return
	}
	if poll == nil {
		response.NotFound(c, "poll not found")
		return
	}
	questions, err := h.store.Questions(ctx, pollID)
	if err != nil {
		h.fail(c, "list questions", err)
		return
	}
	list, err := h.store.ListRespondents(ctx, pollID)
	if err != nil {
		h.fail(c, "list respondents", err)
		return
	}
	out := make([]RespondentSummary, 0, len(list))
	for _, r := range list {
		n, err := h.store.CountAnswered(ctx, r.ID)
		if err != nil {
			h.fail(c, "count answers", err)
			return
		}
		pct := render.ProgressPercent(n, len(questions))
		if r.IsFinished() {
			pct = 100
		}
		out = append(out, RespondentSummary{Respondent: r, Answered: n, ProgressPercent: pct})
	}
	response.OK(c, out)
}

// Respondent handles GET /v1/respondents/:id.
func (h *Handler) Respondent(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid respondent id")
		return
	}
	ctx := c.Request.Context()
	r, err := h.store.GetRespondent(ctx, id)
	if err != nil {
		h.fail(c, "get respondent", err)
		return
	}
	if r == nil {
		response.NotFound(c, "respondent not found")
		return
	}
	answers, err := h.store.ListAnswers(ctx, id)
	if err != nil {
		h.fail(c, "list answers", err)
		return
	}
	if answers == nil {
		answers = []models.Answer{}
	}
	response.OK(c, RespondentDetail{Respondent: r, Answers: answers})
}

// IdentityBalance handles GET /v1/identities/:id/balance.
func (h *Handler) IdentityBalance(c *gin.Context) {
	identityID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.BadRequest(c, "invalid identity id")
		return
	}
	ctx := c.Request.Context()
	identity, err := h.store.GetIdentity(ctx, identityID)
	if err != nil {
		h.fail(c, "get identity", err)
		return
	}
	acc, err := h.store.GetAccount(ctx, identityID)
	if err != nil {
		h.fail(c, "get account", err)
		return
	}
	ledger, err := h.store.ListLedger(ctx, identityID)
	if err != nil {
		h.fail(c, "list ledger", err)
		return
	}
	if ledger == nil {
		ledger = []models.LedgerEntry{}
	}
	response.OK(c, Balance{Identity: identity, Account: acc, Ledger: ledger})
}

func (h *Handler) fail(c *gin.Context, op string, err error) {
	h.logger.Error("report query failed", zap.String("op", op), zap.String("path", c.FullPath()), zap.Error(err))
	response.Internal(c, "failed to load report")
}
