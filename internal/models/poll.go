package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Poll is a questionnaire with a deadline and an optional completion reward.
type Poll struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	Description Localized       `json:"description"`
	Deadline    time.Time       `json:"deadline"`
	Reward      decimal.Decimal `json:"reward"`
	CreatedAt   time.Time       `json:"created_at"`
}

// IsActive reports whether the poll accepts respondents at now.
func (p *Poll) IsActive(now time.Time) bool {
	return !now.After(p.Deadline)
}

// QuestionType selects how a question is rendered and how its answer is validated.
type QuestionType string

const (
	QuestionOpen           QuestionType = "open"
	QuestionClosedSingle   QuestionType = "closed_single"
	QuestionClosedMultiple QuestionType = "closed_multiple"
	QuestionMixed          QuestionType = "mixed"
	QuestionMixedMultiple  QuestionType = "mixed_multiple"
)

// Valid reports whether t is a known question type.
func (t QuestionType) Valid() bool {
	switch t {
	case QuestionOpen, QuestionClosedSingle, QuestionClosedMultiple, QuestionMixed, QuestionMixedMultiple:
		return true
	}
	return false
}

// Multiple reports whether the type accepts a set of choices.
func (t QuestionType) Multiple() bool {
	return t == QuestionClosedMultiple || t == QuestionMixedMultiple
}

// AllowsOther reports whether the type offers the free-text "other" pseudo-choice.
func (t QuestionType) AllowsOther() bool {
	return t == QuestionMixed || t == QuestionMixedMultiple
}

// Question belongs to one poll; Order is unique per poll and defines traversal.
type Question struct {
	ID         uuid.UUID    `json:"id"`
	PollID     uuid.UUID    `json:"poll_id"`
	Order      int          `json:"order"`
	Type       QuestionType `json:"type"`
	MaxChoices *int         `json:"max_choices,omitempty"` // only for *_multiple; nil = unlimited
	Text       Localized    `json:"text"`
	Choices    []Choice     `json:"choices,omitempty"`
}

// ChoiceByNumber returns the choice displayed as number n (1-based, by choice order).
func (q *Question) ChoiceByNumber(n int) (*Choice, bool) {
	if n < 1 || n > len(q.Choices) {
		return nil, false
	}
	return &q.Choices[n-1], true
}

// OtherNumber is the displayed number of the "other" pseudo-choice, or 0 if the type has none.
func (q *Question) OtherNumber() int {
	if !q.Type.AllowsOther() {
		return 0
	}
	return len(q.Choices) + 1
}

// Choice is one option of a question. Choices are not mutated once a poll is live.
type Choice struct {
	ID         uuid.UUID `json:"id"`
	QuestionID uuid.UUID `json:"question_id"`
	Order      int       `json:"order"`
	Text       Localized `json:"text"`
}
