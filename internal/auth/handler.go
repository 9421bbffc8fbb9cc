package auth

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/aura-survey/backend/pkg/response"
)

// IssueRequest is the body for POST /v1/tokens.
type IssueRequest struct {
	Subject string `json:"subject" binding:"required"`
	Role    string `json:"role" binding:"required"`
}

// TokenResponse is a freshly issued service token.
type TokenResponse struct {
	Token   string `json:"token"`
	Subject string `json:"subject"`
	Role    string `json:"role"`
}

// Handler issues service tokens.
type Handler struct {
	jwt    *JWTService
	logger *zap.Logger
}

// NewHandler creates an auth handler.
func NewHandler(jwt *JWTService, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{jwt: jwt, logger: logger}
}

// Issue handles POST /v1/tokens (admin): mints a token for a transport adapter or operator.
func (h *Handler) Issue(c *gin.Context) {
	var req IssueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if !ValidRole(req.Role) {
		response.BadRequest(c, ErrUnknownRole.Error())
		return
	}
	token, err := h.jwt.Generate(req.Subject, req.Role)
	if err != nil {
		h.logger.Error("issue token", zap.String("subject", req.Subject), zap.Error(err))
		response.Internal(c, "failed to issue token")
		return
	}
	h.logger.Info("token issued", zap.String("subject", req.Subject), zap.String("role", req.Role))
	response.Created(c, TokenResponse{Token: token, Subject: req.Subject, Role: req.Role})
}
