// Package captcha is the anti-automation challenge gate: when to interpose a challenge,
// what to ask and how to judge the reply.
package captcha

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/text/cases"

	"github.com/aura-survey/backend/internal/models"
)

// Verdict is the outcome of resolving a challenge.
type Verdict int

const (
	Correct Verdict = iota
	IncorrectRetry
	Failed
)

func (v Verdict) String() string {
	switch v {
	case Correct:
		return "correct"
	case IncorrectRetry:
		return "incorrect_retry"
	default:
		return "failed"
	}
}

// Store persists challenges.
type Store interface {
	CreateChallenge(ctx context.Context, c *models.CaptchaChallenge) error
	GetChallenge(ctx context.Context, id uuid.UUID) (*models.CaptchaChallenge, error)
	UpdateChallenge(ctx context.Context, c *models.CaptchaChallenge) error
}

// Service issues and resolves challenges.
type Service struct {
	store Store
	gen   *Generator
	log   *zap.Logger
	now   func() time.Time
}

// NewService creates a challenge service.
func NewService(store Store, gen *Generator, log *zap.Logger, now func() time.Time) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	if now == nil {
		now = time.Now
	}
	return &Service{store: store, gen: gen, log: log, now: now}
}

// Issue creates and persists a new challenge for the respondent in lang.
func (s *Service) Issue(ctx context.Context, respondentID uuid.UUID, lang models.Language) (*models.CaptchaChallenge, error) {
	typ, question, answer := s.gen.Generate(lang)
	c := &models.CaptchaChallenge{
		ID:            uuid.New(),
		RespondentID:  respondentID,
		Type:          typ,
		Question:      question,
		CorrectAnswer: answer,
		CreatedAt:     s.now(),
	}
	if err := s.store.CreateChallenge(ctx, c); err != nil {
		return nil, fmt.Errorf("create challenge: %w", err)
	}
	s.log.Info("challenge issued", zap.String("respondent_id", respondentID.String()),
		zap.String("challenge_id", c.ID.String()), zap.String("type", string(typ)))
	return c, nil
}

// Current returns the challenge by ID, or nil if it does not exist.
func (s *Service) Current(ctx context.Context, id uuid.UUID) (*models.CaptchaChallenge, error) {
	return s.store.GetChallenge(ctx, id)
}

// Resolve judges answer against the challenge and records the attempt.
// The returned challenge is nil when it does not exist anymore.
func (s *Service) Resolve(ctx context.Context, challengeID uuid.UUID, answer string) (Verdict, *models.CaptchaChallenge, error) {
	c, err := s.store.GetChallenge(ctx, challengeID)
	if err != nil {
		return Failed, nil, fmt.Errorf("load challenge: %w", err)
	}
	if c == nil {
		return Failed, nil, nil
	}
	if c.IsCorrect {
		return Correct, c, nil
	}

	c.UserAnswer = strings.TrimSpace(answer)
	c.Attempts++
	verdict := IncorrectRetry
	if Match(c.CorrectAnswer, c.UserAnswer) {
		now := s.now()
		c.IsCorrect = true
		c.SolvedAt = &now
		verdict = Correct
	} else if c.Attempts >= models.MaxCaptchaAttempts {
		verdict = Failed
	}
	if err := s.store.UpdateChallenge(ctx, c); err != nil {
		return Failed, nil, fmt.Errorf("update challenge: %w", err)
	}
	s.log.Info("challenge resolved", zap.String("respondent_id", c.RespondentID.String()),
		zap.String("challenge_id", c.ID.String()), zap.Stringer("verdict", verdict), zap.Int("attempts", c.Attempts))
	return verdict, c, nil
}

// Match compares trimmed answers case-insensitively with Unicode case folding.
func Match(expected, got string) bool {
	fold := cases.Fold()
	return fold.String(strings.TrimSpace(expected)) == fold.String(strings.TrimSpace(got))
}
