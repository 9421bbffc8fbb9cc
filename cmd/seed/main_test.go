package main

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aura-survey/backend/internal/models"
	"github.com/aura-survey/backend/internal/polls"
)

func TestDemoPollIsValidAndCoversEveryType(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	poll, questions := demoPoll(now, 30, decimal.NewFromInt(5000))
	require.NoError(t, polls.Validate(poll, questions))
	assert.Equal(t, now.AddDate(0, 0, 30), poll.Deadline)

	seen := map[models.QuestionType]bool{}
	for _, q := range questions {
		seen[q.Type] = true
		assert.NotEmpty(t, q.Text.In(models.LangRu))
		assert.NotEmpty(t, q.Text.In(models.LangUzLatn))
	}
	for _, typ := range []models.QuestionType{
		models.QuestionOpen, models.QuestionClosedSingle, models.QuestionClosedMultiple,
		models.QuestionMixed, models.QuestionMixedMultiple,
	} {
		assert.True(t, seen[typ], typ)
	}
}

func TestParseFlags(t *testing.T) {
	opts, err := parseFlags([]string{"-days", "7", "-reward", "1500.50", "-tokens"})
	require.NoError(t, err)
	assert.Equal(t, options{days: 7, reward: "1500.50", tokens: true}, opts)

	opts, err = parseFlags(nil)
	require.NoError(t, err)
	assert.Equal(t, 30, opts.days)

	_, err = parseFlags([]string{"-days", "0"})
	assert.Error(t, err)
}
