package render

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aura-survey/backend/internal/models"
)

func question(order int, typ models.QuestionType, labels ...string) *models.Question {
	q := &models.Question{ID: uuid.New(), PollID: uuid.New(), Order: order, Type: typ, Text: models.Text("Favourite colour?")}
	for i, l := range labels {
		q.Choices = append(q.Choices, models.Choice{ID: uuid.New(), QuestionID: q.ID, Order: i + 1, Text: models.Text(l)})
	}
	return q
}

func TestProgressPercent(t *testing.T) {
	cases := []struct {
		answered, total, want int
	}{
		{0, 3, 0},
		{1, 3, 33},
		{2, 3, 67},
		{3, 3, 100},
		{5, 3, 100},
		{0, 0, 0},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, ProgressPercent(c.answered, c.total), "%d/%d", c.answered, c.total)
	}
}

func TestRenderOpenQuestion(t *testing.T) {
	q := question(1, models.QuestionOpen)
	in, err := Render(q, nil, models.LangRu, NavState{Answered: 0, Total: 4})
	require.NoError(t, err)

	assert.Equal(t, WidgetFreeText, in.Widget)
	assert.False(t, in.Back)
	assert.Empty(t, in.Options)
	assert.Contains(t, in.Text, "Favourite colour?")
	assert.Contains(t, in.Text, "0%")
}

func TestRenderBackOnlyAfterFirstQuestion(t *testing.T) {
	first := question(1, models.QuestionClosedSingle, "a", "b")
	second := question(2, models.QuestionClosedSingle, "a", "b")

	in, err := Render(first, first.Choices, models.LangUzCyrl, NavState{Total: 2})
	require.NoError(t, err)
	assert.False(t, in.Back)
	for _, row := range in.Keyboard {
		for _, b := range row {
			assert.NotEqual(t, ActionBack, b.Action)
		}
	}

	in, err = Render(second, second.Choices, models.LangUzCyrl, NavState{Answered: 1, Total: 2})
	require.NoError(t, err)
	assert.True(t, in.Back)
	bottom := in.Keyboard[len(in.Keyboard)-1]
	assert.Equal(t, ActionBack, bottom[len(bottom)-1].Action)
	assert.Equal(t, 50, in.ProgressPercent)
}

func TestRenderDescriptionOnlyWhenRequested(t *testing.T) {
	q := question(1, models.QuestionOpen)
	desc := models.Localized{Default: "desc", Ru: "описание"}

	in, err := Render(q, nil, models.LangRu, NavState{ShowDescription: true, Description: desc, Total: 1})
	require.NoError(t, err)
	assert.Equal(t, "описание", in.Description)

	in, err = Render(q, nil, models.LangRu, NavState{Description: desc, Total: 1})
	require.NoError(t, err)
	assert.Empty(t, in.Description)
}

func TestRenderMixedAppendsOther(t *testing.T) {
	q := question(2, models.QuestionMixed, "red", "green", "blue")
	in, err := Render(q, q.Choices, models.LangUzLatn, NavState{Answered: 1, Total: 3})
	require.NoError(t, err)

	require.Len(t, in.Options, 4)
	assert.Equal(t, []int{1, 2, 3, 4}, []int{in.Options[0].Number, in.Options[1].Number, in.Options[2].Number, in.Options[3].Number})
	assert.True(t, in.Options[3].Other)
	assert.Equal(t, q.OtherNumber(), in.Options[3].Number)

	bottom := in.Keyboard[len(in.Keyboard)-1]
	require.Len(t, bottom, 2)
	assert.Equal(t, ActionOther, bottom[0].Action)
	assert.Equal(t, ActionBack, bottom[1].Action)
}

func TestRenderChoiceRowsOfSix(t *testing.T) {
	q := question(1, models.QuestionClosedSingle, "1", "2", "3", "4", "5", "6", "7", "8")
	in, err := Render(q, q.Choices, models.LangUzCyrl, NavState{Total: 1})
	require.NoError(t, err)
	require.Len(t, in.Keyboard, 2)
	assert.Len(t, in.Keyboard[0], 6)
	assert.Len(t, in.Keyboard[1], 2)
}

func TestRenderMultiSelectShowsSelection(t *testing.T) {
	q := question(3, models.QuestionMixedMultiple, "x", "y", "z")
	nav := NavState{Answered: 2, Total: 3, Selected: []uuid.UUID{q.Choices[1].ID}, OtherSelected: true}

	in, err := Render(q, q.Choices, models.LangUzCyrl, nav)
	require.NoError(t, err)
	assert.Equal(t, WidgetMultiSelect, in.Widget)
	assert.True(t, in.AllowsMultiple)
	assert.False(t, in.Options[0].Selected)
	assert.True(t, in.Options[1].Selected)
	assert.True(t, in.Options[3].Selected)
	assert.Contains(t, in.Text, "✅ 2. y")
	assert.Contains(t, in.Text, "▫️ 1. x")

	bottom := in.Keyboard[len(in.Keyboard)-1]
	assert.Equal(t, ActionConfirm, bottom[0].Action)
	assert.Equal(t, ActionBack, bottom[1].Action)
}

func TestRenderNativePoll(t *testing.T) {
	q := question(1, models.QuestionMixed, "a", "b")
	in, err := Render(q, q.Choices, models.LangUzCyrl, NavState{Total: 1, Native: true})
	require.NoError(t, err)
	assert.Equal(t, WidgetNativePoll, in.Widget)
	assert.Equal(t, "Favourite colour?", in.Text)
	assert.Len(t, in.Options, 3)
	assert.Empty(t, in.Keyboard)
}

func TestRenderNativePollLimits(t *testing.T) {
	labels := make([]string, 11)
	for i := range labels {
		labels[i] = "opt"
	}
	tooMany := question(1, models.QuestionClosedSingle, labels...)
	_, err := Render(tooMany, tooMany.Choices, models.LangUzCyrl, NavState{Total: 1, Native: true})
	var lim *WidgetLimitError
	require.True(t, errors.As(err, &lim))
	assert.Equal(t, MaxWidgetOptions, lim.Limit)

	// ten real choices plus "other" also exceeds the widget
	mixed := question(1, models.QuestionMixed, labels[:10]...)
	_, err = Render(mixed, mixed.Choices, models.LangUzCyrl, NavState{Total: 1, Native: true})
	require.True(t, errors.As(err, &lim))

	long := question(1, models.QuestionClosedSingle, strings.Repeat("ж", 101))
	_, err = Render(long, long.Choices, models.LangUzCyrl, NavState{Total: 1, Native: true})
	require.True(t, errors.As(err, &lim))
	assert.Equal(t, MaxWidgetOption, lim.Limit)

	longText := question(1, models.QuestionClosedSingle, "a")
	longText.Text = models.Text(strings.Repeat("q", 256))
	_, err = Render(longText, longText.Choices, models.LangUzCyrl, NavState{Total: 1, Native: true})
	require.True(t, errors.As(err, &lim))
	assert.Equal(t, MaxWidgetText, lim.Limit)

	// inline rendering has no such limits
	_, err = Render(tooMany, tooMany.Choices, models.LangUzCyrl, NavState{Total: 1})
	assert.NoError(t, err)
}
