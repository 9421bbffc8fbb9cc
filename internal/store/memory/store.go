// Package memory is an in-process implementation of every store contract, used for the
// memory store driver and as a test fixture. Values are copied in and out.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/aura-survey/backend/internal/models"
	"github.com/aura-survey/backend/internal/rewards"
)

type answerKey struct {
	respondent uuid.UUID
	question   uuid.UUID
}

type earnedKey struct {
	identity int64
	poll     uuid.UUID
}

// Store holds all records behind one mutex.
type Store struct {
	mu sync.RWMutex

	polls       map[uuid.UUID]models.Poll
	questions   map[uuid.UUID][]models.Question
	respondents map[uuid.UUID]*models.Respondent
	answers     map[answerKey]*models.Answer
	challenges  map[uuid.UUID]models.CaptchaChallenge
	identities  map[int64]models.Identity
	accounts    map[int64]models.Account
	ledger      []models.LedgerEntry
	earned      map[earnedKey]bool
}

// New creates an empty store.
func New() *Store {
	return &Store{
		polls:       make(map[uuid.UUID]models.Poll),
		questions:   make(map[uuid.UUID][]models.Question),
		respondents: make(map[uuid.UUID]*models.Respondent),
		answers:     make(map[answerKey]*models.Answer),
		challenges:  make(map[uuid.UUID]models.CaptchaChallenge),
		identities:  make(map[int64]models.Identity),
		accounts:    make(map[int64]models.Account),
		earned:      make(map[earnedKey]bool),
	}
}

// CreatePoll stores a poll with its questions. Missing ids are generated and written back.
func (s *Store) CreatePoll(_ context.Context, p *models.Poll, questions []models.Question) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	stored := make([]models.Question, len(questions))
	for i := range questions {
		q := &questions[i]
		if q.ID == uuid.Nil {
			q.ID = uuid.New()
		}
		q.PollID = p.ID
		for j := range q.Choices {
			if q.Choices[j].ID == uuid.Nil {
				q.Choices[j].ID = uuid.New()
			}
			q.Choices[j].QuestionID = q.ID
		}
		stored[i] = cloneQuestion(*q)
		sort.Slice(stored[i].Choices, func(a, b int) bool { return stored[i].Choices[a].Order < stored[i].Choices[b].Order })
	}
	sort.Slice(stored, func(a, b int) bool { return stored[a].Order < stored[b].Order })
	s.polls[p.ID] = *p
	s.questions[p.ID] = stored
	return nil
}

// GetPoll returns a poll or nil.
func (s *Store) GetPoll(_ context.Context, id uuid.UUID) (*models.Poll, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.polls[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

// ActivePolls returns polls whose deadline is not before now, oldest first.
func (s *Store) ActivePolls(_ context.Context, now time.Time) ([]models.Poll, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var list []models.Poll
	for _, p := range s.polls {
		if p.IsActive(now) {
			list = append(list, p)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.Before(list[j].CreatedAt) })
	return list, nil
}

// ListPolls returns every poll, newest first.
func (s *Store) ListPolls(_ context.Context) ([]models.Poll, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	list := make([]models.Poll, 0, len(s.polls))
	for _, p := range s.polls {
		list = append(list, p)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })
	return list, nil
}

// Questions returns the questions of a poll by order.
func (s *Store) Questions(_ context.Context, pollID uuid.UUID) ([]models.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	src := s.questions[pollID]
	out := make([]models.Question, len(src))
	for i, q := range src {
		out[i] = cloneQuestion(q)
	}
	return out, nil
}

func cloneQuestion(q models.Question) models.Question {
	q.Choices = append([]models.Choice(nil), q.Choices...)
	if q.MaxChoices != nil {
		v := *q.MaxChoices
		q.MaxChoices = &v
	}
	return q
}

// CreateRespondent stores a respondent, or loads the existing one for the identity and poll.
func (s *Store) CreateRespondent(_ context.Context, r *models.Respondent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.respondents {
		if existing.IdentityID == r.IdentityID && existing.PollID == r.PollID {
			*r = *existing.Clone()
			return nil
		}
	}
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	r.Version = 1
	r.UpdatedAt = time.Now()
	s.respondents[r.ID] = r.Clone()
	return nil
}

// GetRespondent returns a respondent or nil.
func (s *Store) GetRespondent(_ context.Context, id uuid.UUID) (*models.Respondent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.respondents[id]
	if !ok {
		return nil, nil
	}
	return r.Clone(), nil
}

// FindRespondent returns the respondent of identity for poll or nil.
func (s *Store) FindRespondent(_ context.Context, identityID int64, pollID uuid.UUID) (*models.Respondent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.respondents {
		if r.IdentityID == identityID && r.PollID == pollID {
			return r.Clone(), nil
		}
	}
	return nil, nil
}

// SaveRespondent writes session fields if the version still matches.
func (s *Store) SaveRespondent(_ context.Context, r *models.Respondent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.respondents[r.ID]
	if !ok || cur.Version != r.Version || cur.FinishedAt != nil {
		return fmt.Errorf("save respondent %s: %w", r.ID, models.ErrConcurrentUpdate)
	}
	r.Version++
	r.UpdatedAt = time.Now()
	next := r.Clone()
	next.StartedAt, next.FinishedAt = cur.StartedAt, cur.FinishedAt
	s.respondents[r.ID] = next
	return nil
}

// DeleteRespondent removes a respondent with its answers and challenges.
func (s *Store) DeleteRespondent(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.respondents, id)
	for k := range s.answers {
		if k.respondent == id {
			delete(s.answers, k)
		}
	}
	for k, c := range s.challenges {
		if c.RespondentID == id {
			delete(s.challenges, k)
		}
	}
	return nil
}

// FinishedPollIDs returns the polls the identity completed.
func (s *Store) FinishedPollIDs(_ context.Context, identityID int64) ([]uuid.UUID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var ids []uuid.UUID
	for _, r := range s.respondents {
		if r.IdentityID == identityID && r.FinishedAt != nil {
			ids = append(ids, r.PollID)
		}
	}
	return ids, nil
}

// ListRespondents returns the respondents of a poll, newest first.
func (s *Store) ListRespondents(_ context.Context, pollID uuid.UUID) ([]models.Respondent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var list []models.Respondent
	for _, r := range s.respondents {
		if r.PollID == pollID {
			list = append(list, *r.Clone())
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].StartedAt.After(list[j].StartedAt) })
	return list, nil
}

// UpsertAnswer inserts or replaces the answer for its respondent and question.
func (s *Store) UpsertAnswer(_ context.Context, a *models.Answer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := answerKey{a.RespondentID, a.QuestionID}
	if cur, ok := s.answers[k]; ok {
		a.ID = cur.ID
	} else if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	a.UpdatedAt = time.Now()
	s.answers[k] = a.Clone()
	return nil
}

// GetAnswer returns the answer or nil.
func (s *Store) GetAnswer(_ context.Context, respondentID, questionID uuid.UUID) (*models.Answer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.answers[answerKey{respondentID, questionID}]
	if !ok {
		return nil, nil
	}
	return a.Clone(), nil
}

// DeleteAnswer removes one answer.
func (s *Store) DeleteAnswer(_ context.Context, respondentID, questionID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.answers, answerKey{respondentID, questionID})
	return nil
}

// DeleteAnswers removes every answer of a respondent.
func (s *Store) DeleteAnswers(_ context.Context, respondentID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k := range s.answers {
		if k.respondent == respondentID {
			delete(s.answers, k)
		}
	}
	return nil
}

// ListAnswers returns the answers of a respondent in question order.
func (s *Store) ListAnswers(_ context.Context, respondentID uuid.UUID) ([]models.Answer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var list []models.Answer
	for k, a := range s.answers {
		if k.respondent == respondentID {
			list = append(list, *a.Clone())
		}
	}
	order := s.questionOrder(respondentID)
	sort.Slice(list, func(i, j int) bool { return order[list[i].QuestionID] < order[list[j].QuestionID] })
	return list, nil
}

// FirstPendingAnswer returns the unanswered answer of the earliest question, or nil.
func (s *Store) FirstPendingAnswer(ctx context.Context, respondentID uuid.UUID) (*models.Answer, error) {
	list, _ := s.ListAnswers(ctx, respondentID)
	for i := range list {
		if !list[i].IsAnswered {
			return &list[i], nil
		}
	}
	return nil, nil
}

// FindAnswerByWidget returns the answer carrying the native poll widget id, or nil.
func (s *Store) FindAnswerByWidget(_ context.Context, widgetID string) (*models.Answer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, a := range s.answers {
		if widgetID != "" && a.Delivery.PollWidgetID == widgetID {
			return a.Clone(), nil
		}
	}
	return nil, nil
}

// CountAnswered counts the answered questions of a respondent.
func (s *Store) CountAnswered(_ context.Context, respondentID uuid.UUID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for k, a := range s.answers {
		if k.respondent == respondentID && a.IsAnswered {
			n++
		}
	}
	return n, nil
}

// SetDelivery stores transport correlation ids on an existing answer.
func (s *Store) SetDelivery(_ context.Context, respondentID, questionID uuid.UUID, d models.Delivery) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a, ok := s.answers[answerKey{respondentID, questionID}]; ok {
		a.Delivery = d
		a.UpdatedAt = time.Now()
	}
	return nil
}

// questionOrder maps question ids of the respondent's poll to their order. Caller holds the lock.
func (s *Store) questionOrder(respondentID uuid.UUID) map[uuid.UUID]int {
	order := make(map[uuid.UUID]int)
	r, ok := s.respondents[respondentID]
	if !ok {
		return order
	}
	for _, q := range s.questions[r.PollID] {
		order[q.ID] = q.Order
	}
	return order
}

// CreateChallenge stores a challenge.
func (s *Store) CreateChallenge(_ context.Context, c *models.CaptchaChallenge) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.challenges[c.ID] = *c
	return nil
}

// GetChallenge returns a challenge or nil.
func (s *Store) GetChallenge(_ context.Context, id uuid.UUID) (*models.CaptchaChallenge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.challenges[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

// UpdateChallenge replaces a stored challenge.
func (s *Store) UpdateChallenge(_ context.Context, c *models.CaptchaChallenge) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.challenges[c.ID]; ok {
		s.challenges[c.ID] = *c
	}
	return nil
}

// SaveIdentity upserts an identity.
func (s *Store) SaveIdentity(_ context.Context, id *models.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.identities[id.ID] = *id
	return nil
}

// GetIdentity returns an identity or nil.
func (s *Store) GetIdentity(_ context.Context, identityID int64) (*models.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.identities[identityID]
	if !ok {
		return nil, nil
	}
	return &id, nil
}

// Settle stamps finished_at and credits the reward at most once per (identity, poll).
func (s *Store) Settle(_ context.Context, st rewards.Settlement) (*rewards.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.respondents[st.RespondentID]
	if !ok {
		return nil, fmt.Errorf("settle respondent %s: %w", st.RespondentID, models.ErrConcurrentUpdate)
	}
	res := &rewards.Result{Balance: s.accounts[st.IdentityID].Balance}
	if r.FinishedAt != nil {
		res.FinishedAt = *r.FinishedAt
		return res, nil
	}
	at := st.FinishedAt
	r.FinishedAt = &at
	r.State = models.StateFinished
	r.CurrentQuestionID, r.ResumeQuestionID, r.ChallengeID = nil, nil, nil
	r.Version++
	res.Finished, res.FinishedAt = true, at

	k := earnedKey{st.IdentityID, st.PollID}
	if st.Reward.IsPositive() && !s.earned[k] {
		s.earned[k] = true
		pollID, respID := st.PollID, st.RespondentID
		s.ledger = append(s.ledger, models.LedgerEntry{
			ID: uuid.New(), IdentityID: st.IdentityID, Type: models.TransactionEarned, Amount: st.Reward,
			Description: rewards.Description(st.PollName), PollID: &pollID, RespondentID: &respID, CreatedAt: at,
		})
		acc := s.accounts[st.IdentityID]
		acc.IdentityID = st.IdentityID
		acc.Balance = acc.Balance.Add(st.Reward)
		acc.UpdatedAt = at
		s.accounts[st.IdentityID] = acc
		res.Credited, res.Balance = true, acc.Balance
	}
	return res, nil
}

// GetAccount returns the balance of an identity, zero if it never earned.
func (s *Store) GetAccount(_ context.Context, identityID int64) (*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	acc, ok := s.accounts[identityID]
	if !ok {
		return &models.Account{IdentityID: identityID, Balance: decimal.Zero}, nil
	}
	return &acc, nil
}

// ListLedger returns the ledger of an identity, newest first.
func (s *Store) ListLedger(_ context.Context, identityID int64) ([]models.LedgerEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var list []models.LedgerEntry
	for i := len(s.ledger) - 1; i >= 0; i-- {
		if s.ledger[i].IdentityID == identityID {
			list = append(list, s.ledger[i])
		}
	}
	return list, nil
}
