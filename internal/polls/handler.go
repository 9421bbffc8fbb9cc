package polls

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/aura-survey/backend/internal/models"
	"github.com/aura-survey/backend/pkg/response"
)

// Catalog is the poll store the handler reads and writes.
type Catalog interface {
	CreatePoll(ctx context.Context, p *models.Poll, questions []models.Question) error
	GetPoll(ctx context.Context, id uuid.UUID) (*models.Poll, error)
	ListPolls(ctx context.Context) ([]models.Poll, error)
	Questions(ctx context.Context, pollID uuid.UUID) ([]models.Question, error)
}

// CreateRequest is the body for POST /v1/polls.
type CreateRequest struct {
	Name        string            `json:"name" binding:"required"`
	Description models.Localized  `json:"description"`
	Deadline    time.Time         `json:"deadline" binding:"required"`
	Reward      decimal.Decimal   `json:"reward"`
	Questions   []QuestionRequest `json:"questions" binding:"required,min=1,dive"`
}

// QuestionRequest is one question of a CreateRequest.
type QuestionRequest struct {
	Order      int                 `json:"order"`
	Type       models.QuestionType `json:"type" binding:"required"`
	MaxChoices *int                `json:"max_choices"`
	Text       models.Localized    `json:"text"`
	Choices    []models.Localized  `json:"choices"`
}

// PollDetail is a poll with its questions.
type PollDetail struct {
	models.Poll
	Questions []models.Question `json:"questions"`
}

// Handler handles poll catalog endpoints.
type Handler struct {
	catalog Catalog
	logger  *zap.Logger
}

// NewHandler creates a polls handler.
func NewHandler(catalog Catalog, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{catalog: catalog, logger: logger}
}

// List handles GET /v1/polls.
func (h *Handler) List(c *gin.Context) {
	list, err := h.catalog.ListPolls(c.Request.Context())
	if err != nil {
		h.logger.Error("list polls", zap.Error(err))
		response.Internal(c, "failed to list polls")
		return
	}
	if list == nil {
		list = []models.Poll{}
	}
	response.OK(c, list)
}

// Get handles GET /v1/polls/:id.
func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid poll id")
		return
	}
	p, err := h.catalog.GetPoll(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("get poll", zap.String("poll_id", id.String()), zap.Error(err))
		response.Internal(c, "failed to get poll")
		return
	}
	if p == nil {
		response.NotFound(c, "poll not found")
		return
	}
	questions, err := h.catalog.Questions(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("list questions", zap.String("poll_id", id.String()), zap.Error(err))
		response.Internal(c, "failed to get poll")
		return
	}
	response.OK(c, PollDetail{Poll: *p, Questions: questions})
}

// Create handles POST /v1/polls (admin). Choices are ordered as given.
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	p, questions := req.toModels()
	if err := Validate(p, questions); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if err := h.catalog.CreatePoll(c.Request.Context(), p, questions); err != nil {
		h.logger.Error("create poll", zap.Error(err))
		response.Internal(c, "failed to create poll")
		return
	}
	h.logger.Info("poll created", zap.String("poll_id", p.ID.String()), zap.Int("questions", len(questions)))
	response.Created(c, PollDetail{Poll: *p, Questions: questions})
}

func (r *CreateRequest) toModels() (*models.Poll, []models.Question) {
	p := &models.Poll{Name: r.Name, Description: r.Description, Deadline: r.Deadline, Reward: r.Reward}
	questions := make([]models.Question, len(r.Questions))
	for i, q := range r.Questions {
		order := q.Order
		if order == 0 {
			order = i + 1
		}
		questions[i] = models.Question{Order: order, Type: q.Type, MaxChoices: q.MaxChoices, Text: q.Text}
		for j, text := range q.Choices {
			questions[i].Choices = append(questions[i].Choices, models.Choice{Order: j + 1, Text: text})
		}
	}
	return p, questions
}
