package captcha

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
)

// GateConfig tunes when challenges are interposed.
type GateConfig struct {
	MinAnswered    int
	EveryNth       int
	Probability    float64
	SuppressWindow time.Duration
}

// DefaultGateConfig: never before the 2nd answer, always on every 5th, else 30%, at most one per 30s.
func DefaultGateConfig() GateConfig {
	return GateConfig{MinAnswered: 2, EveryNth: 5, Probability: 0.30, SuppressWindow: 30 * time.Second}
}

// Suppressor remembers recently issued challenges. Mark reports false when a challenge was
// already marked for the respondent within window.
type Suppressor interface {
	Mark(ctx context.Context, respondentID uuid.UUID, window time.Duration) (bool, error)
}

// Gate decides whether to interpose a challenge after an answer.
type Gate struct {
	cfg      GateConfig
	suppress Suppressor

	mu  sync.Mutex
	rnd *rand.Rand
}

// NewGate creates a gate. src drives the probabilistic branch.
func NewGate(cfg GateConfig, suppress Suppressor, src rand.Source) *Gate {
	return &Gate{cfg: cfg, suppress: suppress, rnd: rand.New(src)}
}

// ShouldChallenge decides for a respondent that has answeredCount questions answered.
// A true result marks the suppression window, so a second true for the same respondent
// cannot follow within it.
func (g *Gate) ShouldChallenge(ctx context.Context, respondentID uuid.UUID, answeredCount int) (bool, error) {
	if answeredCount < g.cfg.MinAnswered {
		return false, nil
	}
	if !(g.cfg.EveryNth > 0 && answeredCount%g.cfg.EveryNth == 0) && !g.roll() {
		return false, nil
	}
	return g.suppress.Mark(ctx, respondentID, g.cfg.SuppressWindow)
}

func (g *Gate) roll() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rnd.Float64() < g.cfg.Probability
}

// MemorySuppressor is an in-process Suppressor.
type MemorySuppressor struct {
	mu    sync.Mutex
	now   func() time.Time
	until map[uuid.UUID]time.Time
}

// NewMemorySuppressor creates a suppressor reading time from now (time.Now when nil).
func NewMemorySuppressor(now func() time.Time) *MemorySuppressor {
	if now == nil {
		now = time.Now
	}
	return &MemorySuppressor{now: now, until: make(map[uuid.UUID]time.Time)}
}

// Mark implements Suppressor.
func (s *MemorySuppressor) Mark(_ context.Context, respondentID uuid.UUID, window time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	if t, ok := s.until[respondentID]; ok && now.Before(t) {
		return false, nil
	}
	for id, t := range s.until {
		if !now.Before(t) {
			delete(s.until, id)
		}
	}
	s.until[respondentID] = now.Add(window)
	return true, nil
}
