// Package answers stores answers and validates raw input against a question before recording it.
package answers

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aura-survey/backend/internal/i18n"
	"github.com/aura-survey/backend/internal/models"
)

// ErrNeedCustomText is returned when the "other" pseudo-choice was selected and the
// respondent still has to write it. The selection is kept on the pending answer.
var ErrNeedCustomText = errors.New("custom text required")

// Rejection is a user-facing validation failure. It never changes stored state.
type Rejection struct {
	Reason i18n.Key
	Args   []any
}

func (r *Rejection) Error() string {
	return "answer rejected: " + string(r.Reason)
}

// Message localizes the rejection.
func (r *Rejection) Message(lang models.Language) string {
	return i18n.T(lang, r.Reason, r.Args...)
}

func reject(reason i18n.Key, args ...any) error {
	return &Rejection{Reason: reason, Args: args}
}

// Store is the answer persistence the recorder needs.
type Store interface {
	GetAnswer(ctx context.Context, respondentID, questionID uuid.UUID) (*models.Answer, error)
	UpsertAnswer(ctx context.Context, a *models.Answer) error
}

// Input is raw answer input. Numbers are displayed choice numbers (1-based); when empty
// for a choice question, they are parsed from Text.
type Input struct {
	Text    string
	Numbers []int
	// Custom marks Text as the write-in for the "other" pseudo-choice.
	Custom bool
}

// Selection is a validated set of choices of one question.
type Selection struct {
	Choices []uuid.UUID
	Other   bool
}

func (s Selection) size() int {
	n := len(s.Choices)
	if s.Other {
		n++
	}
	return n
}

// Recorder validates and records answers.
type Recorder struct {
	store Store
	log   *zap.Logger
}

// NewRecorder creates a recorder over store.
func NewRecorder(store Store, log *zap.Logger) *Recorder {
	if log == nil {
		log = zap.NewNop()
	}
	return &Recorder{store: store, log: log}
}

// Record validates in against q and upserts the answer as answered.
// A *Rejection means nothing was stored. ErrNeedCustomText means the selection was kept
// as pending and a write-in is expected next.
func (r *Recorder) Record(ctx context.Context, respondentID uuid.UUID, q *models.Question, in Input) (*models.Answer, error) {
	existing, err := r.store.GetAnswer(ctx, respondentID, q.ID)
	if err != nil {
		return nil, fmt.Errorf("load answer: %w", err)
	}
	a := &models.Answer{RespondentID: respondentID, QuestionID: q.ID}
	if existing != nil {
		a.ID = existing.ID
		a.Delivery = existing.Delivery
	}

	switch {
	case q.Type == models.QuestionOpen:
		a.OpenAnswer = strings.TrimSpace(in.Text)
	case in.Custom:
		if !q.Type.AllowsOther() {
			return nil, reject(i18n.InvalidOption)
		}
		a.OpenAnswer = strings.TrimSpace(in.Text)
		a.OtherSelected = true
		if q.Type.Multiple() && existing != nil {
			a.SelectedChoices = append([]uuid.UUID(nil), existing.SelectedChoices...)
			sel := Selection{Choices: a.SelectedChoices, Other: true}
			if q.MaxChoices != nil && sel.size() > *q.MaxChoices {
				return nil, reject(i18n.TooManySelections, *q.MaxChoices)
			}
		}
	default:
		numbers := in.Numbers
		if len(numbers) == 0 && strings.TrimSpace(in.Text) != "" {
			parsed, ok := ParseNumbers(in.Text)
			if !ok {
				return nil, reject(i18n.InvalidOption)
			}
			numbers = parsed
		}
		sel, err := Validate(q, numbers, true)
		if err != nil {
			return nil, err
		}
		if sel.Other {
			a.SelectedChoices = sel.Choices
			a.OtherSelected = true
			if err := r.store.UpsertAnswer(ctx, a); err != nil {
				return nil, fmt.Errorf("save pending answer: %w", err)
			}
			return a, ErrNeedCustomText
		}
		a.SelectedChoices = sel.Choices
	}

	a.IsAnswered = true
	if err := r.store.UpsertAnswer(ctx, a); err != nil {
		return nil, fmt.Errorf("save answer: %w", err)
	}
	r.log.Debug("answer recorded", zap.String("respondent_id", respondentID.String()),
		zap.String("question_id", q.ID.String()), zap.Int("choices", len(a.SelectedChoices)))
	return a, nil
}

// Toggle flips every choice number in numbers in the pending multi-select answer of q and
// stores the result once. Selecting beyond max_choices is rejected rather than truncated, and
// a rejected batch leaves the stored selection untouched.
func (r *Recorder) Toggle(ctx context.Context, respondentID uuid.UUID, q *models.Question, numbers ...int) (*models.Answer, error) {
	if !q.Type.Multiple() {
		return nil, reject(i18n.InvalidOption)
	}
	a, err := r.store.GetAnswer(ctx, respondentID, q.ID)
	if err != nil {
		return nil, fmt.Errorf("load answer: %w", err)
	}
	if a == nil {
		a = &models.Answer{RespondentID: respondentID, QuestionID: q.ID}
	}
	a.IsAnswered = false

	for _, n := range numbers {
		if n == q.OtherNumber() {
			a.OtherSelected = !a.OtherSelected
			continue
		}
		c, ok := q.ChoiceByNumber(n)
		if !ok {
			return nil, reject(i18n.InvalidOption)
		}
		if a.HasChoice(c.ID) {
			a.SelectedChoices = remove(a.SelectedChoices, c.ID)
		} else {
			a.SelectedChoices = append(a.SelectedChoices, c.ID)
		}
	}
	sel := Selection{Choices: a.SelectedChoices, Other: a.OtherSelected}
	if q.MaxChoices != nil && sel.size() > *q.MaxChoices {
		return nil, reject(i18n.TooManySelections, *q.MaxChoices)
	}
	if err := r.store.UpsertAnswer(ctx, a); err != nil {
		return nil, fmt.Errorf("save selection: %w", err)
	}
	return a, nil
}

// Numbers returns the displayed numbers of the pending selection in a, in display order.
func Numbers(q *models.Question, a *models.Answer) []int {
	if a == nil {
		return nil
	}
	var out []int
	for i, c := range q.Choices {
		if a.HasChoice(c.ID) {
			out = append(out, i+1)
		}
	}
	if a.OtherSelected && q.Type.AllowsOther() {
		out = append(out, q.OtherNumber())
	}
	return out
}

// Validate maps displayed numbers to choices of q. final marks a confirmed selection,
// for which an empty set is rejected.
func Validate(q *models.Question, numbers []int, final bool) (Selection, error) {
	var sel Selection
	if !q.Type.Multiple() && len(numbers) != 1 {
		return sel, reject(i18n.InvalidOption)
	}
	seen := make(map[int]bool, len(numbers))
	for _, n := range numbers {
		if seen[n] {
			continue
		}
		seen[n] = true
		if other := q.OtherNumber(); other != 0 && n == other {
			sel.Other = true
			continue
		}
		c, ok := q.ChoiceByNumber(n)
		if !ok {
			return Selection{}, reject(i18n.InvalidOption)
		}
		sel.Choices = append(sel.Choices, c.ID)
	}
	if final && sel.size() == 0 {
		return Selection{}, reject(i18n.SelectAtLeastOne)
	}
	if q.Type.Multiple() && q.MaxChoices != nil && sel.size() > *q.MaxChoices {
		return Selection{}, reject(i18n.TooManySelections, *q.MaxChoices)
	}
	return sel, nil
}

// ParseNumbers reads typed choice numbers such as "2", "1,3" or "1 3".
func ParseNumbers(text string) ([]int, bool) {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return r == ',' || r == ';' || r == ' ' || r == '\t' || r == '\n'
	})
	if len(fields) == 0 {
		return nil, false
	}
	out := make([]int, 0, len(fields))
	for _, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil || n < 1 {
			return nil, false
		}
		out = append(out, n)
	}
	sort.Ints(out)
	return out, true
}

func remove(ids []uuid.UUID, id uuid.UUID) []uuid.UUID {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
