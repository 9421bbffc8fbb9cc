package answers

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aura-survey/backend/internal/i18n"
	"github.com/aura-survey/backend/internal/models"
	"github.com/aura-survey/backend/internal/store/memory"
)

func newQuestion(typ models.QuestionType, max *int, labels ...string) *models.Question {
	q := &models.Question{ID: uuid.New(), Order: 1, Type: typ, MaxChoices: max, Text: models.Text("q")}
	for i, l := range labels {
		q.Choices = append(q.Choices, models.Choice{ID: uuid.New(), QuestionID: q.ID, Order: i + 1, Text: models.Text(l)})
	}
	return q
}

func intPtr(v int) *int { return &v }

func rejection(t *testing.T, err error) i18n.Key {
	t.Helper()
	var rej *Rejection
	require.True(t, errors.As(err, &rej), "expected rejection, got %v", err)
	return rej.Reason
}

func TestParseNumbers(t *testing.T) {
	cases := []struct {
		in   string
		want []int
		ok   bool
	}{
		{"2", []int{2}, true},
		{" 3, 1 ", []int{1, 3}, true},
		{"1 2;4", []int{1, 2, 4}, true},
		{"", nil, false},
		{"two", nil, false},
		{"0", nil, false},
		{"-1", nil, false},
	}
	for _, c := range cases {
		got, ok := ParseNumbers(c.in)
		assert.Equal(t, c.ok, ok, c.in)
		if c.ok {
			assert.Equal(t, c.want, got, c.in)
		}
	}
}

func TestRecordOpenTrims(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	rec := NewRecorder(st, nil)
	q := newQuestion(models.QuestionOpen, nil)
	resp := uuid.New()

	a, err := rec.Record(ctx, resp, q, Input{Text: "  hello \n"})
	require.NoError(t, err)
	assert.Equal(t, "hello", a.OpenAnswer)
	assert.True(t, a.IsAnswered)
}

func TestRecordSingle(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	rec := NewRecorder(st, nil)
	q := newQuestion(models.QuestionClosedSingle, nil, "a", "b")
	resp := uuid.New()

	_, err := rec.Record(ctx, resp, q, Input{Numbers: []int{3}})
	assert.Equal(t, i18n.InvalidOption, rejection(t, err))
	_, err = rec.Record(ctx, resp, q, Input{Numbers: []int{1, 2}})
	assert.Equal(t, i18n.InvalidOption, rejection(t, err))
	_, err = rec.Record(ctx, resp, q, Input{Text: "banana"})
	assert.Equal(t, i18n.InvalidOption, rejection(t, err))
	stored, _ := st.GetAnswer(ctx, resp, q.ID)
	assert.Nil(t, stored, "rejections never store anything")

	a, err := rec.Record(ctx, resp, q, Input{Text: "2"})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{q.Choices[1].ID}, a.SelectedChoices)
}

func TestRecordUpsertReplaces(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	rec := NewRecorder(st, nil)
	q := newQuestion(models.QuestionClosedSingle, nil, "a", "b")
	resp := uuid.New()

	first, err := rec.Record(ctx, resp, q, Input{Numbers: []int{1}})
	require.NoError(t, err)
	second, err := rec.Record(ctx, resp, q, Input{Numbers: []int{2}})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	list, err := st.ListAnswers(ctx, resp)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, []uuid.UUID{q.Choices[1].ID}, list[0].SelectedChoices)
}

func TestRecordKeepsDelivery(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	rec := NewRecorder(st, nil)
	q := newQuestion(models.QuestionClosedSingle, nil, "a")
	resp := uuid.New()
	d := models.Delivery{ChatID: 7, MessageID: 42, PollWidgetID: "w1"}
	require.NoError(t, st.UpsertAnswer(ctx, &models.Answer{RespondentID: resp, QuestionID: q.ID, Delivery: d}))

	a, err := rec.Record(ctx, resp, q, Input{Numbers: []int{1}})
	require.NoError(t, err)
	assert.Equal(t, d, a.Delivery)
}

func TestRecordMultipleMaxChoices(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	rec := NewRecorder(st, nil)
	q := newQuestion(models.QuestionClosedMultiple, intPtr(1), "a", "b", "c")
	resp := uuid.New()

	_, err := rec.Record(ctx, resp, q, Input{Numbers: []int{1, 2}})
	assert.Equal(t, i18n.TooManySelections, rejection(t, err))
	_, err = rec.Record(ctx, resp, q, Input{})
	assert.Equal(t, i18n.SelectAtLeastOne, rejection(t, err))

	a, err := rec.Record(ctx, resp, q, Input{Numbers: []int{3}})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{q.Choices[2].ID}, a.SelectedChoices)
}

func TestRecordMixedOtherNeedsText(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	rec := NewRecorder(st, nil)
	q := newQuestion(models.QuestionMixed, nil, "a", "b")
	resp := uuid.New()

	_, err := rec.Record(ctx, resp, q, Input{Numbers: []int{q.OtherNumber()}})
	require.ErrorIs(t, err, ErrNeedCustomText)
	pending, _ := st.GetAnswer(ctx, resp, q.ID)
	require.NotNil(t, pending)
	assert.False(t, pending.IsAnswered)
	assert.True(t, pending.OtherSelected)

	a, err := rec.Record(ctx, resp, q, Input{Text: " my own ", Custom: true})
	require.NoError(t, err)
	assert.Equal(t, "my own", a.OpenAnswer)
	assert.True(t, a.OtherSelected)
	assert.True(t, a.IsAnswered)
	assert.Empty(t, a.SelectedChoices)
}

func TestRecordCustomRejectedWithoutOther(t *testing.T) {
	rec := NewRecorder(memory.New(), nil)
	q := newQuestion(models.QuestionClosedSingle, nil, "a")
	_, err := rec.Record(context.Background(), uuid.New(), q, Input{Text: "x", Custom: true})
	assert.Equal(t, i18n.InvalidOption, rejection(t, err))
}

func TestToggle(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	rec := NewRecorder(st, nil)
	q := newQuestion(models.QuestionMixedMultiple, intPtr(2), "a", "b", "c")
	resp := uuid.New()

	a, err := rec.Toggle(ctx, resp, q, 1)
	require.NoError(t, err)
	assert.Equal(t, []int{1}, Numbers(q, a))

	a, err = rec.Toggle(ctx, resp, q, q.OtherNumber())
	require.NoError(t, err)
	assert.Equal(t, []int{1, 4}, Numbers(q, a))

	_, err = rec.Toggle(ctx, resp, q, 2)
	assert.Equal(t, i18n.TooManySelections, rejection(t, err))
	stored, _ := st.GetAnswer(ctx, resp, q.ID)
	assert.Equal(t, []int{1, 4}, Numbers(q, stored), "a rejected toggle leaves the selection alone")

	a, err = rec.Toggle(ctx, resp, q, 1)
	require.NoError(t, err)
	assert.Equal(t, []int{4}, Numbers(q, a))
	assert.False(t, a.IsAnswered)

	_, err = rec.Toggle(ctx, resp, q, 9)
	assert.Equal(t, i18n.InvalidOption, rejection(t, err))
}

func TestToggleBatch(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	rec := NewRecorder(st, nil)
	q := newQuestion(models.QuestionClosedMultiple, intPtr(1), "a", "b", "c")
	resp := uuid.New()

	_, err := rec.Toggle(ctx, resp, q, 1, 2)
	assert.Equal(t, i18n.TooManySelections, rejection(t, err))
	stored, _ := st.GetAnswer(ctx, resp, q.ID)
	assert.Nil(t, stored, "a rejected batch stores nothing")

	a, err := rec.Toggle(ctx, resp, q, 1, 2, 1)
	require.NoError(t, err)
	assert.Equal(t, []int{2}, Numbers(q, a))

	_, err = rec.Toggle(ctx, resp, q, 2, 7)
	assert.Equal(t, i18n.InvalidOption, rejection(t, err))
	stored, _ = st.GetAnswer(ctx, resp, q.ID)
	assert.Equal(t, []int{2}, Numbers(q, stored))
}

func TestToggleRejectsSingle(t *testing.T) {
	rec := NewRecorder(memory.New(), nil)
	q := newQuestion(models.QuestionClosedSingle, nil, "a")
	_, err := rec.Toggle(context.Background(), uuid.New(), q, 1)
	assert.Equal(t, i18n.InvalidOption, rejection(t, err))
}

func TestMixedMultipleCustomKeepsChoices(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	rec := NewRecorder(st, nil)
	q := newQuestion(models.QuestionMixedMultiple, nil, "a", "b")
	resp := uuid.New()

	_, err := rec.Toggle(ctx, resp, q, 2)
	require.NoError(t, err)
	_, err = rec.Toggle(ctx, resp, q, q.OtherNumber())
	require.NoError(t, err)
	_, err = rec.Record(ctx, resp, q, Input{Numbers: []int{2, 3}})
	require.ErrorIs(t, err, ErrNeedCustomText)

	a, err := rec.Record(ctx, resp, q, Input{Text: "mine", Custom: true})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{q.Choices[1].ID}, a.SelectedChoices)
	assert.Equal(t, "mine", a.OpenAnswer)
	assert.True(t, a.IsAnswered)
}
