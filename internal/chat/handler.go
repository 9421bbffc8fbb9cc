package chat

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/aura-survey/backend/internal/models"
	"github.com/aura-survey/backend/internal/session"
	"github.com/aura-survey/backend/pkg/response"
)

// EventRequest is the body for POST /v1/events.
type EventRequest struct {
	Identity IdentityRequest `json:"identity" binding:"required"`
	Event    session.Event   `json:"event" binding:"required"`
}

// IdentityRequest is the chat user as the adapter resolved it.
type IdentityRequest struct {
	ID       int64  `json:"id" binding:"required"`
	ChatID   int64  `json:"chat_id"`
	FullName string `json:"full_name"`
	Language string `json:"language"`
}

// Controller is the session entry point the handler drives.
type Controller interface {
	Handle(ctx context.Context, id models.Identity, ev session.Event) (*session.Outcome, error)
}

// Handler accepts inbound chat events from the transport adapter.
type Handler struct {
	ctrl   Controller
	logger *zap.Logger
}

// NewHandler creates an events handler.
func NewHandler(ctrl Controller, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{ctrl: ctrl, logger: logger}
}

// Event handles POST /v1/events (transport role). The outcome has already been delivered
// through the channel when the response is written; it is returned for adapters that render
// synchronously.
func (h *Handler) Event(c *gin.Context) {
	var req EventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if err := req.Event.Validate(); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	id := models.Identity{
		ID:       req.Identity.ID,
		ChatID:   req.Identity.ChatID,
		FullName: req.Identity.FullName,
		Language: models.Language(req.Identity.Language),
	}
	out, err := h.ctrl.Handle(c.Request.Context(), id, req.Event)
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		response.ServiceUnavailable(c, "request cancelled")
		return
	case err != nil:
		h.logger.Error("handle event", zap.Int64("identity_id", id.ID), zap.String("event", string(req.Event.Kind)), zap.Error(err))
		response.Internal(c, "failed to handle event")
		return
	}
	response.OK(c, out)
}
