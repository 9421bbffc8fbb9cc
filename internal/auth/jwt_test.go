package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateValidate(t *testing.T) {
	s := NewJWTService("secret", 1)
	tok, err := s.Generate("telegram-adapter", RoleTransport)
	require.NoError(t, err)

	claims, err := s.Validate(tok)
	require.NoError(t, err)
	assert.Equal(t, "telegram-adapter", claims.Subject)
	assert.Equal(t, RoleTransport, claims.Role)
}

func TestValidateRejects(t *testing.T) {
	s := NewJWTService("secret", 1)
	tok, err := s.Generate("ops", RoleOperator)
	require.NoError(t, err)

	_, err = NewJWTService("other", 1).Validate(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)

	s.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = s.Validate(tok)
	assert.ErrorIs(t, err, ErrInvalidToken, "expired")

	_, err = s.Validate("garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestGenerateUnknownRole(t *testing.T) {
	_, err := NewJWTService("secret", 1).Generate("x", "root")
	assert.ErrorIs(t, err, ErrUnknownRole)
}
