package session

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// EventKind is the kind of an inbound chat event.
type EventKind string

const (
	EventStart      EventKind = "start"
	EventRestart    EventKind = "restart"
	EventText       EventKind = "text"
	EventChoice     EventKind = "choice"
	EventPollAnswer EventKind = "poll_answer"
	EventBack       EventKind = "back"
	EventConfirm    EventKind = "confirm"
)

// Event is an inbound chat event, already decoded by the transport.
type Event struct {
	Kind EventKind `json:"kind"`
	// PollID selects a poll for start and restart.
	PollID *uuid.UUID `json:"poll_id,omitempty"`
	Text   string     `json:"text,omitempty"`
	// QuestionID is the question a choice button belongs to.
	QuestionID *uuid.UUID `json:"question_id,omitempty"`
	// Options are displayed choice numbers (1-based).
	Options []int `json:"options,omitempty"`
	// Toggle flips Options in a multi-select instead of answering.
	Toggle bool `json:"toggle,omitempty"`
	// WidgetID and OptionIDs (0-based) carry a native poll answer.
	WidgetID  string `json:"widget_id,omitempty"`
	OptionIDs []int  `json:"option_ids,omitempty"`
}

// Validate checks that the event carries what its kind needs.
func (e Event) Validate() error {
	switch e.Kind {
	case EventStart, EventBack, EventConfirm:
		return nil
	case EventRestart:
		if e.PollID == nil {
			return errors.New("restart requires poll_id")
		}
	case EventText:
		if e.Text == "" {
			return errors.New("text event requires text")
		}
	case EventChoice:
		if len(e.Options) == 0 {
			return errors.New("choice event requires options")
		}
	case EventPollAnswer:
		if e.WidgetID == "" {
			return errors.New("poll answer requires widget_id")
		}
	default:
		return fmt.Errorf("unknown event kind %q", e.Kind)
	}
	return nil
}
