package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aura-survey/backend/internal/models"
	"github.com/aura-survey/backend/internal/rewards"
)

func seedPoll(t *testing.T, s *Store) (*models.Poll, []models.Question) {
	t.Helper()
	p := &models.Poll{Name: "P", Deadline: time.Now().Add(time.Hour), Reward: decimal.NewFromInt(1000)}
	qs := []models.Question{
		{Order: 2, Type: models.QuestionOpen, Text: models.Text("second")},
		{Order: 1, Type: models.QuestionClosedSingle, Text: models.Text("first"), Choices: []models.Choice{
			{Order: 2, Text: models.Text("b")}, {Order: 1, Text: models.Text("a")},
		}},
	}
	require.NoError(t, s.CreatePoll(context.Background(), p, qs))
	return p, qs
}

func TestQuestionsSortedByOrder(t *testing.T) {
	s := New()
	p, _ := seedPoll(t, s)
	qs, err := s.Questions(context.Background(), p.ID)
	require.NoError(t, err)
	require.Len(t, qs, 2)
	assert.Equal(t, "first", qs[0].Text.Default)
	assert.Equal(t, "a", qs[0].Choices[0].Text.Default)

	qs[0].Choices[0].Text = models.Text("mutated")
	again, _ := s.Questions(context.Background(), p.ID)
	assert.Equal(t, "a", again[0].Choices[0].Text.Default, "callers get copies")
}

func TestCreateRespondentIsUniquePerIdentityAndPoll(t *testing.T) {
	s := New()
	p, _ := seedPoll(t, s)
	a := &models.Respondent{IdentityID: 1, PollID: p.ID}
	require.NoError(t, s.CreateRespondent(context.Background(), a))
	b := &models.Respondent{IdentityID: 1, PollID: p.ID}
	require.NoError(t, s.CreateRespondent(context.Background(), b))
	assert.Equal(t, a.ID, b.ID)
}

func TestSaveRespondentRejectsStaleVersion(t *testing.T) {
	s := New()
	ctx := context.Background()
	p, _ := seedPoll(t, s)
	r := &models.Respondent{IdentityID: 1, PollID: p.ID}
	require.NoError(t, s.CreateRespondent(ctx, r))

	first, _ := s.GetRespondent(ctx, r.ID)
	second, _ := s.GetRespondent(ctx, r.ID)
	first.State = models.StateAwaitingAnswer
	require.NoError(t, s.SaveRespondent(ctx, first))
	err := s.SaveRespondent(ctx, second)
	assert.True(t, errors.Is(err, models.ErrConcurrentUpdate))
}

func TestSettlePaysOncePerIdentityAndPoll(t *testing.T) {
	s := New()
	ctx := context.Background()
	p, _ := seedPoll(t, s)
	r := &models.Respondent{IdentityID: 7, PollID: p.ID}
	require.NoError(t, s.CreateRespondent(ctx, r))
	st := rewards.Settlement{RespondentID: r.ID, IdentityID: 7, PollID: p.ID, PollName: p.Name, Reward: p.Reward, FinishedAt: time.Now()}

	var wg sync.WaitGroup
	results := make([]*rewards.Result, 10)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = s.Settle(ctx, st)
		}(i)
	}
	wg.Wait()

	credited := 0
	for _, res := range results {
		require.NotNil(t, res)
		if res.Credited {
			credited++
		}
	}
	assert.Equal(t, 1, credited)

	// a restarted respondent for the same poll finishes without a second payment
	require.NoError(t, s.DeleteRespondent(ctx, r.ID))
	again := &models.Respondent{IdentityID: 7, PollID: p.ID}
	require.NoError(t, s.CreateRespondent(ctx, again))
	st.RespondentID = again.ID
	res, err := s.Settle(ctx, st)
	require.NoError(t, err)
	assert.True(t, res.Finished)
	assert.False(t, res.Credited)

	acc, _ := s.GetAccount(ctx, 7)
	assert.True(t, acc.Balance.Equal(decimal.NewFromInt(1000)))
	ledger, _ := s.ListLedger(ctx, 7)
	assert.Len(t, ledger, 1)
}

func TestSettleUnknownRespondent(t *testing.T) {
	s := New()
	_, err := s.Settle(context.Background(), rewards.Settlement{RespondentID: uuid.New()})
	assert.True(t, errors.Is(err, models.ErrConcurrentUpdate))
}

func TestAnswersAndWidgetLookup(t *testing.T) {
	s := New()
	ctx := context.Background()
	p, qs := seedPoll(t, s)
	r := &models.Respondent{IdentityID: 1, PollID: p.ID}
	require.NoError(t, s.CreateRespondent(ctx, r))

	// qs[1] is order 1, qs[0] is order 2
	require.NoError(t, s.UpsertAnswer(ctx, &models.Answer{RespondentID: r.ID, QuestionID: qs[0].ID}))
	require.NoError(t, s.UpsertAnswer(ctx, &models.Answer{RespondentID: r.ID, QuestionID: qs[1].ID}))
	pending, err := s.FirstPendingAnswer(ctx, r.ID)
	require.NoError(t, err)
	require.NotNil(t, pending)
	assert.Equal(t, qs[1].ID, pending.QuestionID, "earliest question by order")

	require.NoError(t, s.SetDelivery(ctx, r.ID, qs[1].ID, models.Delivery{ChatID: 1, MessageID: 2, PollWidgetID: "w-1"}))
	a, err := s.FindAnswerByWidget(ctx, "w-1")
	require.NoError(t, err)
	require.NotNil(t, a)
	assert.Equal(t, qs[1].ID, a.QuestionID)
	missing, _ := s.FindAnswerByWidget(ctx, "")
	assert.Nil(t, missing)

	a.IsAnswered = true
	require.NoError(t, s.UpsertAnswer(ctx, a))
	n, _ := s.CountAnswered(ctx, r.ID)
	assert.Equal(t, 1, n)

	require.NoError(t, s.DeleteAnswers(ctx, r.ID))
	list, _ := s.ListAnswers(ctx, r.ID)
	assert.Empty(t, list)
}
