package auth

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func issue(t *testing.T, s *JWTService, body any) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/v1/tokens", NewHandler(s, nil).Issue)
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/v1/tokens", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestIssueToken(t *testing.T) {
	s := NewJWTService("secret", 1)
	w := issue(t, s, IssueRequest{Subject: "telegram-adapter", Role: RoleTransport})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var env struct {
		Data TokenResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	claims, err := s.Validate(env.Data.Token)
	require.NoError(t, err)
	assert.Equal(t, "telegram-adapter", claims.Subject)
	assert.Equal(t, RoleTransport, claims.Role)
}

func TestIssueTokenRejectsUnknownRole(t *testing.T) {
	s := NewJWTService("secret", 1)
	assert.Equal(t, http.StatusBadRequest, issue(t, s, IssueRequest{Subject: "x", Role: "speaker"}).Code)
	assert.Equal(t, http.StatusBadRequest, issue(t, s, map[string]string{"role": RoleOperator}).Code)
}
