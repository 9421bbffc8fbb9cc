package render

import (
	"fmt"
	"unicode/utf8"
)

// Native poll widget limits imposed by the chat platform.
const (
	MaxWidgetText    = 255
	MaxWidgetOption  = 100
	MaxWidgetOptions = 10
)

// WidgetLimitError reports a question that cannot be sent as a native poll widget.
// It is an operator-facing problem with the poll content, not a user mistake.
type WidgetLimitError struct {
	Field string
	Size  int
	Limit int
}

func (e *WidgetLimitError) Error() string {
	return fmt.Sprintf("native poll widget %s is %d, limit %d", e.Field, e.Size, e.Limit)
}

// CheckWidgetLimits validates text and option labels against the native poll limits.
func CheckWidgetLimits(text string, options []string) error {
	if n := utf8.RuneCountInString(text); n > MaxWidgetText {
		return &WidgetLimitError{Field: "text length", Size: n, Limit: MaxWidgetText}
	}
	if len(options) > MaxWidgetOptions {
		return &WidgetLimitError{Field: "option count", Size: len(options), Limit: MaxWidgetOptions}
	}
	for i, o := range options {
		if n := utf8.RuneCountInString(o); n > MaxWidgetOption {
			return &WidgetLimitError{Field: fmt.Sprintf("option %d length", i+1), Size: n, Limit: MaxWidgetOption}
		}
	}
	return nil
}
