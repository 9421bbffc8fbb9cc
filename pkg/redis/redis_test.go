package redis

import (
	"context"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testClient connects to REDIS_TEST_ADDR; the tests are skipped without it.
func testClient(t *testing.T) *Client {
	t.Helper()
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR not set")
	}
	c, err := NewClient(context.Background(), addr, "", 0, nil)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestLockerSerializes(t *testing.T) {
	c := testClient(t)
	l := NewLocker(c, "test:lock:"+uuid.NewString()+":", 5*time.Second, 5*time.Second)

	var inside, maxInside atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := l.Lock(context.Background(), "identity:1")
			if !assert.NoError(t, err) {
				return
			}
			n := inside.Add(1)
			if n > maxInside.Load() {
				maxInside.Store(n)
			}
			time.Sleep(5 * time.Millisecond)
			inside.Add(-1)
			unlock()
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), maxInside.Load())
}

func TestLockerGivesUpAfterWait(t *testing.T) {
	c := testClient(t)
	l := NewLocker(c, "test:lock:"+uuid.NewString()+":", 5*time.Second, 50*time.Millisecond)

	unlock, err := l.Lock(context.Background(), "k")
	require.NoError(t, err)
	_, err = l.Lock(context.Background(), "k")
	assert.ErrorIs(t, err, ErrLockNotAcquired)

	unlock()
	unlock2, err := l.Lock(context.Background(), "k")
	require.NoError(t, err)
	unlock2()
}

func TestChallengeSuppressorWindow(t *testing.T) {
	c := testClient(t)
	s := NewChallengeSuppressor(c)
	id := uuid.New()

	ok, err := s.Mark(context.Background(), id, time.Second)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = s.Mark(context.Background(), id, time.Second)
	require.NoError(t, err)
	assert.False(t, ok, "second mark inside the window")
}
