package models

import (
	"time"

	"github.com/google/uuid"
)

// CaptchaType is the kind of anti-automation challenge.
type CaptchaType string

const (
	CaptchaMath CaptchaType = "math"
	CaptchaText CaptchaType = "text"
)

// MaxCaptchaAttempts is how many wrong answers abort the session.
const MaxCaptchaAttempts = 3

// CaptchaChallenge is a challenge issued to a respondent mid-poll.
type CaptchaChallenge struct {
	ID            uuid.UUID   `json:"id"`
	RespondentID  uuid.UUID   `json:"respondent_id"`
	Type          CaptchaType `json:"type"`
	Question      string      `json:"question"`
	CorrectAnswer string      `json:"-"`
	UserAnswer    string      `json:"user_answer,omitempty"`
	Attempts      int         `json:"attempts"`
	IsCorrect     bool        `json:"is_correct"`
	CreatedAt     time.Time   `json:"created_at"`
	SolvedAt      *time.Time  `json:"solved_at,omitempty"`
}

// AttemptsLeft is the number of tries remaining before the session is aborted.
func (c *CaptchaChallenge) AttemptsLeft() int {
	if n := MaxCaptchaAttempts - c.Attempts; n > 0 {
		return n
	}
	return 0
}
