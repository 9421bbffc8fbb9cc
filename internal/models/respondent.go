package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrConcurrentUpdate is returned by a respondent store when the record changed (or vanished)
// since it was loaded.
var ErrConcurrentUpdate = errors.New("respondent was modified concurrently")

// SessionState is where a respondent is in the conversation.
type SessionState string

const (
	StateAwaitingAnswer     SessionState = "awaiting_answer"
	StateAwaitingCustomText SessionState = "awaiting_custom_text"
	StateAwaitingChallenge  SessionState = "awaiting_challenge"
	StateFinished           SessionState = "finished"
)

// Respondent is one attempt by one identity at one poll.
type Respondent struct {
	ID         uuid.UUID    `json:"id"`
	IdentityID int64        `json:"identity_id"`
	PollID     uuid.UUID    `json:"poll_id"`
	StartedAt  time.Time    `json:"started_at"`
	FinishedAt *time.Time   `json:"finished_at,omitempty"`
	History    []uuid.UUID  `json:"history"`
	State      SessionState `json:"state"`
	// CurrentQuestionID is the question on screen; nil before the first render and once finished.
	CurrentQuestionID *uuid.UUID `json:"current_question_id,omitempty"`
	// ResumeQuestionID is the answered question whose advance was suspended by a challenge.
	ResumeQuestionID *uuid.UUID `json:"resume_question_id,omitempty"`
	ChallengeID      *uuid.UUID `json:"challenge_id,omitempty"`
	DescriptionShown bool       `json:"description_shown"`
	UpdatedAt        time.Time  `json:"updated_at"`
	// Version increments on every save; a save with a stale version fails with ErrConcurrentUpdate.
	Version int `json:"-"`
}

// IsFinished reports whether the respondent completed the poll.
func (r *Respondent) IsFinished() bool {
	return r.FinishedAt != nil
}

// Clone returns a deep copy, so stores never share slices with callers.
func (r *Respondent) Clone() *Respondent {
	c := *r
	c.History = append([]uuid.UUID(nil), r.History...)
	if r.FinishedAt != nil {
		t := *r.FinishedAt
		c.FinishedAt = &t
	}
	c.CurrentQuestionID = cloneID(r.CurrentQuestionID)
	c.ResumeQuestionID = cloneID(r.ResumeQuestionID)
	c.ChallengeID = cloneID(r.ChallengeID)
	return &c
}

func cloneID(id *uuid.UUID) *uuid.UUID {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}
