package history

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPushSkipsConsecutiveDuplicate(t *testing.T) {
	q1, q2 := uuid.New(), uuid.New()
	var h History

	assert.True(t, h.Push(q1))
	assert.False(t, h.Push(q1))
	assert.True(t, h.Push(q2))
	assert.True(t, h.Push(q1))
	assert.Equal(t, History{q1, q2, q1}, h)
	assert.True(t, h.Valid())
}

func TestPop(t *testing.T) {
	q1, q2 := uuid.New(), uuid.New()
	h := History{q1, q2}

	id, err := h.Pop()
	require.NoError(t, err)
	assert.Equal(t, q2, id)
	assert.Equal(t, History{q1}, h)

	_, err = h.Pop()
	require.NoError(t, err)
	_, err = h.Pop()
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestValid(t *testing.T) {
	q := uuid.New()
	assert.False(t, History{q, q}.Valid())
	assert.True(t, History{}.Valid())
	assert.True(t, History{q, uuid.New(), q}.Valid())
}
