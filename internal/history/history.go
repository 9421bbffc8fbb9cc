// Package history is the ordered stack of question ids a respondent has passed through,
// used for back-navigation.
package history

import (
	"errors"

	"github.com/google/uuid"
)

var (
	// ErrEmpty is returned when popping an empty history.
	ErrEmpty = errors.New("history is empty")
	// ErrInvalid is returned for a history that repeats an entry consecutively.
	ErrInvalid = errors.New("history repeats an entry")
)

// History is append-only except for Pop. It never holds the same id twice in a row.
type History []uuid.UUID

// Push appends id unless it is already the last entry. It reports whether the history changed.
func (h *History) Push(id uuid.UUID) bool {
	if n := len(*h); n > 0 && (*h)[n-1] == id {
		return false
	}
	*h = append(*h, id)
	return true
}

// Pop removes and returns the last entry.
func (h *History) Pop() (uuid.UUID, error) {
	n := len(*h)
	if n == 0 {
		return uuid.Nil, ErrEmpty
	}
	id := (*h)[n-1]
	*h = (*h)[:n-1]
	return id, nil
}

// Valid reports whether no two consecutive entries are equal.
func (h History) Valid() bool {
	for i := 1; i < len(h); i++ {
		if h[i] == h[i-1] {
			return false
		}
	}
	return true
}
