// Package render turns a question into a channel-agnostic render instruction.
package render

import (
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"

	"github.com/aura-survey/backend/internal/i18n"
	"github.com/aura-survey/backend/internal/models"
)

// Widget is the answer-capture modality of a rendered question.
type Widget string

const (
	WidgetFreeText    Widget = "free_text"
	WidgetChoiceList  Widget = "choice_list"
	WidgetMultiSelect Widget = "multi_select"
	WidgetNativePoll  Widget = "native_poll"
)

// Action is what pressing a button does.
type Action string

const (
	ActionChoose  Action = "choose"
	ActionToggle  Action = "toggle"
	ActionOther   Action = "other"
	ActionConfirm Action = "confirm"
	ActionBack    Action = "back"
)

const buttonsPerRow = 6

// Option is one numbered entry of a choice widget.
type Option struct {
	Number   int    `json:"number"`
	Label    string `json:"label"`
	Other    bool   `json:"other,omitempty"`
	Selected bool   `json:"selected,omitempty"`
}

// Button is an inline keyboard button.
type Button struct {
	Label  string `json:"label"`
	Action Action `json:"action"`
	Number int    `json:"number,omitempty"`
}

// Instruction describes what to show for the current step.
type Instruction struct {
	QuestionID      uuid.UUID  `json:"question_id"`
	Widget          Widget     `json:"widget"`
	Description     string     `json:"description,omitempty"`
	Text            string     `json:"text"`
	Options         []Option   `json:"options,omitempty"`
	Keyboard        [][]Button `json:"keyboard,omitempty"`
	AllowsMultiple  bool       `json:"allows_multiple,omitempty"`
	Back            bool       `json:"back"`
	ProgressPercent int        `json:"progress_percent"`
}

// NavState is the respondent context a render depends on.
type NavState struct {
	// ShowDescription is set on first entry into the poll.
	ShowDescription bool
	Description     models.Localized
	Answered        int
	Total           int
	// Selected holds the in-progress multi-select toggles.
	Selected      []uuid.UUID
	OtherSelected bool
	// Native renders choice questions as a native chat poll widget.
	Native bool
}

// ProgressPercent is answered/total as a rounded integer percentage.
func ProgressPercent(answered, total int) int {
	if total <= 0 {
		return 0
	}
	if answered > total {
		answered = total
	}
	return int(math.Round(float64(answered) * 100 / float64(total)))
}

// Render builds the instruction for q. choices must be sorted by order; they are numbered 1..n.
// In native mode the widget-size guard runs first and a *WidgetLimitError is returned instead
// of an instruction.
func Render(q *models.Question, choices []models.Choice, lang models.Language, nav NavState) (*Instruction, error) {
	in := &Instruction{
		QuestionID:      q.ID,
		Back:            q.Order != 1,
		ProgressPercent: ProgressPercent(nav.Answered, nav.Total),
	}
	if nav.ShowDescription {
		in.Description = nav.Description.In(lang)
	}
	text := q.Text.In(lang)

	switch q.Type {
	case models.QuestionOpen:
		in.Widget = WidgetFreeText
		in.Text = fmt.Sprintf("%s %s\n\n%s", i18n.T(lang, i18n.QuestionPrefix), text, i18n.T(lang, i18n.WriteAnswer))
	case models.QuestionClosedSingle, models.QuestionMixed:
		in.Options = options(q, choices, lang, nil, false)
		if nav.Native {
			return native(in, text, false, lang)
		}
		in.Widget = WidgetChoiceList
		in.Text = listText(lang, text, in.Options, false) + "\n" + i18n.T(lang, i18n.ChooseAnswer)
		in.Keyboard = keyboard(in.Options, ActionChoose, false, in.Back, lang)
	case models.QuestionClosedMultiple, models.QuestionMixedMultiple:
		in.Options = options(q, choices, lang, nav.Selected, nav.OtherSelected)
		if nav.Native {
			return native(in, text, true, lang)
		}
		in.Widget = WidgetMultiSelect
		in.AllowsMultiple = true
		in.Text = i18n.T(lang, i18n.ChooseMultiple) + "\n\n" + listText(lang, text, in.Options, true)
		in.Keyboard = keyboard(in.Options, ActionToggle, true, in.Back, lang)
	default:
		return nil, fmt.Errorf("unknown question type %q", q.Type)
	}
	in.Text += "\n\n" + i18n.T(lang, i18n.Progress, in.ProgressPercent)
	return in, nil
}

func options(q *models.Question, choices []models.Choice, lang models.Language, selected []uuid.UUID, otherSelected bool) []Option {
	out := make([]Option, 0, len(choices)+1)
	for i, c := range choices {
		out = append(out, Option{Number: i + 1, Label: c.Text.In(lang), Selected: contains(selected, c.ID)})
	}
	if q.Type.AllowsOther() {
		out = append(out, Option{Number: len(choices) + 1, Label: i18n.T(lang, i18n.OtherLabel), Other: true, Selected: otherSelected})
	}
	return out
}

func native(in *Instruction, text string, multiple bool, lang models.Language) (*Instruction, error) {
	labels := make([]string, len(in.Options))
	for i, o := range in.Options {
		labels[i] = o.Label
	}
	if err := CheckWidgetLimits(text, labels); err != nil {
		return nil, err
	}
	in.Widget = WidgetNativePoll
	in.Text = text
	in.AllowsMultiple = multiple
	if in.Back {
		in.Keyboard = [][]Button{{{Label: i18n.T(lang, i18n.BackLabel), Action: ActionBack}}}
	}
	return in, nil
}

func listText(lang models.Language, text string, opts []Option, markers bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n\n", i18n.T(lang, i18n.QuestionPrefix), text)
	for _, o := range opts {
		if markers {
			if o.Selected {
				b.WriteString("✅ ")
			} else {
				b.WriteString("▫️ ")
			}
		}
		fmt.Fprintf(&b, "%d. %s\n", o.Number, o.Label)
	}
	return b.String()
}

func keyboard(opts []Option, action Action, confirm, back bool, lang models.Language) [][]Button {
	var rows [][]Button
	var bottom []Button
	for _, o := range opts {
		if o.Other && action == ActionChoose {
			bottom = append(bottom, Button{Label: o.Label, Action: ActionOther, Number: o.Number})
			continue
		}
		label := fmt.Sprintf("%d", o.Number)
		if o.Other {
			label = o.Label
		}
		if o.Selected {
			label = "✅ " + label
		}
		if len(rows) == 0 || len(rows[len(rows)-1]) >= buttonsPerRow {
			rows = append(rows, nil)
		}
		rows[len(rows)-1] = append(rows[len(rows)-1], Button{Label: label, Action: action, Number: o.Number})
	}
	if confirm {
		bottom = append(bottom, Button{Label: i18n.T(lang, i18n.ConfirmLabel), Action: ActionConfirm})
	}
	if back {
		bottom = append(bottom, Button{Label: i18n.T(lang, i18n.BackLabel), Action: ActionBack})
	}
	if len(bottom) > 0 {
		rows = append(rows, bottom)
	}
	return rows
}

func contains(ids []uuid.UUID, id uuid.UUID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
