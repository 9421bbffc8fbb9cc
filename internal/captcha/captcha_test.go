package captcha

import (
	"context"
	"math/rand"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aura-survey/backend/internal/models"
	"github.com/aura-survey/backend/internal/store/memory"
)

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func newClock() *clock { return &clock{t: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)} }

func TestGateNeverBeforeSecondAnswer(t *testing.T) {
	cfg := DefaultGateConfig()
	cfg.Probability = 1
	g := NewGate(cfg, NewMemorySuppressor(nil), rand.NewSource(1))
	for _, n := range []int{0, 1} {
		ok, err := g.ShouldChallenge(context.Background(), uuid.New(), n)
		require.NoError(t, err)
		assert.False(t, ok, "answered=%d", n)
	}
}

func TestGateAlwaysOnEveryFifth(t *testing.T) {
	cfg := DefaultGateConfig()
	cfg.Probability = 0
	g := NewGate(cfg, NewMemorySuppressor(nil), rand.NewSource(1))
	for _, n := range []int{5, 10, 15, 100} {
		ok, err := g.ShouldChallenge(context.Background(), uuid.New(), n)
		require.NoError(t, err)
		assert.True(t, ok, "answered=%d", n)
	}
	for _, n := range []int{2, 3, 4, 6, 9} {
		ok, err := g.ShouldChallenge(context.Background(), uuid.New(), n)
		require.NoError(t, err)
		assert.False(t, ok, "answered=%d", n)
	}
}

func TestGateProbability(t *testing.T) {
	g := NewGate(DefaultGateConfig(), NewMemorySuppressor(nil), rand.NewSource(42))
	hits := 0
	const runs = 10000
	for i := 0; i < runs; i++ {
		ok, err := g.ShouldChallenge(context.Background(), uuid.New(), 3)
		require.NoError(t, err)
		if ok {
			hits++
		}
	}
	assert.InDelta(t, 0.30, float64(hits)/runs, 0.03)
}

func TestGateSuppressionWindow(t *testing.T) {
	clk := newClock()
	g := NewGate(DefaultGateConfig(), NewMemorySuppressor(clk.Now), rand.NewSource(1))
	resp := uuid.New()
	ctx := context.Background()

	ok, err := g.ShouldChallenge(ctx, resp, 5)
	require.NoError(t, err)
	assert.True(t, ok)

	clk.Advance(29 * time.Second)
	ok, _ = g.ShouldChallenge(ctx, resp, 10)
	assert.False(t, ok, "suppressed within 30s")

	ok, _ = g.ShouldChallenge(ctx, uuid.New(), 5)
	assert.True(t, ok, "other respondents are independent")

	clk.Advance(time.Second)
	ok, _ = g.ShouldChallenge(ctx, resp, 10)
	assert.True(t, ok, "window elapsed")
}

func TestGateSuppressionUnderConcurrency(t *testing.T) {
	g := NewGate(DefaultGateConfig(), NewMemorySuppressor(nil), rand.NewSource(1))
	resp := uuid.New()
	var wg sync.WaitGroup
	var hits int32
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _ := g.ShouldChallenge(context.Background(), resp, 5); ok {
				atomic.AddInt32(&hits, 1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), hits)
}

func TestGenerateMath(t *testing.T) {
	g := NewGenerator(rand.NewSource(7))
	for i := 0; i < 500; i++ {
		typ, q, a := g.Generate(models.LangRu)
		n, err := strconv.Atoi(a)
		if typ == models.CaptchaMath {
			require.NoError(t, err)
			assert.True(t, n >= 1 && n <= 144, "answer %d out of range", n)
			assert.Contains(t, q, "Вычислите")
			continue
		}
		if err == nil {
			assert.True(t, n >= 1000 && n <= 9999)
		} else {
			assert.Contains(t, words[models.LangRu], a)
		}
		assert.Contains(t, q, a)
	}
}

func TestMatch(t *testing.T) {
	assert.True(t, Match("китоб", " КИТОБ "))
	assert.True(t, Match("Qalam", "qalam"))
	assert.True(t, Match("42", "42\n"))
	assert.False(t, Match("42", "24"))
}

func TestResolveLifecycle(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	clk := newClock()
	svc := NewService(st, NewGenerator(rand.NewSource(3)), nil, clk.Now)
	resp := uuid.New()

	c, err := svc.Issue(ctx, resp, models.LangUzLatn)
	require.NoError(t, err)
	assert.NotEmpty(t, c.Question)

	v, got, err := svc.Resolve(ctx, c.ID, "definitely wrong")
	require.NoError(t, err)
	assert.Equal(t, IncorrectRetry, v)
	assert.Equal(t, 2, got.AttemptsLeft())

	v, got, err = svc.Resolve(ctx, c.ID, " "+strings.ToUpper(c.CorrectAnswer)+" ")
	require.NoError(t, err)
	assert.Equal(t, Correct, v)
	assert.True(t, got.IsCorrect)
	require.NotNil(t, got.SolvedAt)
	assert.Equal(t, clk.Now(), *got.SolvedAt)
}

func TestResolveFailsAfterThreeWrong(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	svc := NewService(st, NewGenerator(rand.NewSource(3)), nil, nil)
	c, err := svc.Issue(ctx, uuid.New(), models.LangUzCyrl)
	require.NoError(t, err)

	verdicts := make([]Verdict, 0, 3)
	for i := 0; i < 3; i++ {
		v, _, err := svc.Resolve(ctx, c.ID, "nope")
		require.NoError(t, err)
		verdicts = append(verdicts, v)
	}
	assert.Equal(t, []Verdict{IncorrectRetry, IncorrectRetry, Failed}, verdicts)
}

func TestResolveMissing(t *testing.T) {
	svc := NewService(memory.New(), NewGenerator(rand.NewSource(1)), nil, nil)
	_, c, err := svc.Resolve(context.Background(), uuid.New(), "x")
	require.NoError(t, err)
	assert.Nil(t, c)
}
