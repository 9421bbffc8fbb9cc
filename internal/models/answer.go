package models

import (
	"time"

	"github.com/google/uuid"
)

// Delivery correlates a rendered message (and native poll widget) so it can be edited or deleted later.
type Delivery struct {
	ChatID       int64  `json:"chat_id"`
	MessageID    int64  `json:"message_id"`
	PollWidgetID string `json:"poll_widget_id,omitempty"`
}

// Empty reports whether nothing has been delivered yet.
func (d Delivery) Empty() bool {
	return d.MessageID == 0 && d.PollWidgetID == ""
}

// Answer is the single current record for a (respondent, question) pair.
// IsAnswered false means the question was rendered but not answered yet; SelectedChoices
// then holds the in-progress multi-select toggles.
type Answer struct {
	ID              uuid.UUID   `json:"id"`
	RespondentID    uuid.UUID   `json:"respondent_id"`
	QuestionID      uuid.UUID   `json:"question_id"`
	OpenAnswer      string      `json:"open_answer,omitempty"`
	SelectedChoices []uuid.UUID `json:"selected_choices"`
	OtherSelected   bool        `json:"other_selected,omitempty"`
	IsAnswered      bool        `json:"is_answered"`
	Delivery        Delivery    `json:"delivery"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

// Clone returns a deep copy.
func (a *Answer) Clone() *Answer {
	c := *a
	c.SelectedChoices = append([]uuid.UUID(nil), a.SelectedChoices...)
	return &c
}

// HasChoice reports whether id is in the selection.
func (a *Answer) HasChoice(id uuid.UUID) bool {
	for _, c := range a.SelectedChoices {
		if c == id {
			return true
		}
	}
	return false
}
