package polls

import (
	"errors"
	"fmt"

	"github.com/aura-survey/backend/internal/models"
)

// ErrInvalidPoll wraps every catalog validation failure.
var ErrInvalidPoll = errors.New("invalid poll")

// Validate checks a poll and its questions before they are written to the catalog.
func Validate(p *models.Poll, questions []models.Question) error {
	if p.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidPoll)
	}
	if p.Deadline.IsZero() {
		return fmt.Errorf("%w: deadline is required", ErrInvalidPoll)
	}
	if p.Reward.IsNegative() {
		return fmt.Errorf("%w: reward must not be negative", ErrInvalidPoll)
	}
	if len(questions) == 0 {
		return fmt.Errorf("%w: at least one question is required", ErrInvalidPoll)
	}
	orders := make(map[int]bool, len(questions))
	for i := range questions {
		q := &questions[i]
		if !q.Type.Valid() {
			return fmt.Errorf("%w: question %d has unknown type %q", ErrInvalidPoll, q.Order, q.Type)
		}
		if orders[q.Order] {
			return fmt.Errorf("%w: duplicate question order %d", ErrInvalidPoll, q.Order)
		}
		orders[q.Order] = true
		if q.Text.Default == "" {
			return fmt.Errorf("%w: question %d has no text", ErrInvalidPoll, q.Order)
		}
		if q.MaxChoices != nil {
			if !q.Type.Multiple() {
				return fmt.Errorf("%w: question %d: max_choices only applies to multiple choice", ErrInvalidPoll, q.Order)
			}
			if *q.MaxChoices < 1 {
				return fmt.Errorf("%w: question %d: max_choices must be positive", ErrInvalidPoll, q.Order)
			}
		}
		switch {
		case q.Type == models.QuestionOpen && len(q.Choices) > 0:
			return fmt.Errorf("%w: open question %d cannot have choices", ErrInvalidPoll, q.Order)
		case q.Type != models.QuestionOpen && len(q.Choices) == 0:
			return fmt.Errorf("%w: question %d needs choices", ErrInvalidPoll, q.Order)
		}
		choiceOrders := make(map[int]bool, len(q.Choices))
		for _, ch := range q.Choices {
			if ch.Text.Default == "" {
				return fmt.Errorf("%w: question %d has an empty choice", ErrInvalidPoll, q.Order)
			}
			if choiceOrders[ch.Order] {
				return fmt.Errorf("%w: question %d: duplicate choice order %d", ErrInvalidPoll, q.Order, ch.Order)
			}
			choiceOrders[ch.Order] = true
		}
	}
	return nil
}
