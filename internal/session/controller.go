// Package session is the conversational poll state machine: it starts and resumes respondents,
// records answers, moves forward and back through a poll, interposes challenges and settles
// completion rewards.
package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aura-survey/backend/internal/answers"
	"github.com/aura-survey/backend/internal/captcha"
	"github.com/aura-survey/backend/internal/history"
	"github.com/aura-survey/backend/internal/i18n"
	"github.com/aura-survey/backend/internal/models"
	"github.com/aura-survey/backend/internal/render"
	"github.com/aura-survey/backend/internal/rewards"
)

var (
	// ErrNavigation is returned by GoBack when the history is empty.
	ErrNavigation = errors.New("cannot go back further")
	// ErrStale means an event referenced a respondent, question, widget or challenge that is
	// no longer current.
	ErrStale = errors.New("stale reference")
	// ErrConflict means the respondent changed concurrently.
	ErrConflict = models.ErrConcurrentUpdate
)

// Deps wires a Controller.
type Deps struct {
	Catalog     Catalog
	Respondents Respondents
	Answers     Answers
	Ledger      Ledger
	Recorder    *answers.Recorder
	Gate        *captcha.Gate
	Challenges  *captcha.Service
	Channel     Channel
	Locker      Locker
	Notifier    Notifier
	Logger      *zap.Logger
	Now         func() time.Time
	// NativePolls renders choice questions as native chat poll widgets when they fit.
	NativePolls bool
	// DeferRewardNotice leaves the reward line out of the completion text; a notifier
	// consumer sends it instead.
	DeferRewardNotice bool
}

// Controller is the entry point the transport calls.
type Controller struct {
	catalog     Catalog
	respondents Respondents
	answers     Answers
	ledger      Ledger
	recorder    *answers.Recorder
	gate        *captcha.Gate
	challenges  *captcha.Service
	channel     Channel
	locker      Locker
	notifier    Notifier
	log         *zap.Logger
	now         func() time.Time
	native      bool
	deferNotice bool
}

// NewController creates a controller. A nil Locker defaults to an in-process KeyedMutex.
func NewController(d Deps) *Controller {
	c := &Controller{
		catalog:     d.Catalog,
		respondents: d.Respondents,
		answers:     d.Answers,
		ledger:      d.Ledger,
		recorder:    d.Recorder,
		gate:        d.Gate,
		challenges:  d.Challenges,
		channel:     d.Channel,
		locker:      d.Locker,
		notifier:    d.Notifier,
		log:         d.Logger,
		now:         d.Now,
		native:      d.NativePolls,
		deferNotice: d.DeferRewardNotice,
	}
	if c.log == nil {
		c.log = zap.NewNop()
	}
	if c.now == nil {
		c.now = time.Now
	}
	if c.locker == nil {
		c.locker = NewKeyedMutex()
	}
	if c.recorder == nil {
		c.recorder = answers.NewRecorder(d.Answers, c.log)
	}
	return c
}

// ResumeOrStart finds the poll to work on (pollRef, or the first active poll the identity has
// not completed) and re-renders the pending question or renders the first unanswered one.
func (c *Controller) ResumeOrStart(ctx context.Context, id models.Identity, pollRef *uuid.UUID) (*Outcome, error) {
	id.Language = i18n.Resolve(string(id.Language))
	unlock, err := c.lock(ctx, id.ID)
	if err != nil {
		return nil, err
	}
	defer unlock()
	return c.resumeOrStart(ctx, &id, pollRef)
}

// Advance continues after the answer to answeredQuestionID was recorded: it may interpose a
// challenge, renders the next unanswered question or settles the completion.
func (c *Controller) Advance(ctx context.Context, respondentID, answeredQuestionID uuid.UUID) (*Outcome, error) {
	return c.withRespondent(ctx, respondentID, func(id *models.Identity, poll *models.Poll, resp *models.Respondent) (*Outcome, error) {
		return c.advance(ctx, id, poll, resp, answeredQuestionID, false, "")
	})
}

// GoBack returns to the previous question. It fails with ErrNavigation on the first question.
func (c *Controller) GoBack(ctx context.Context, respondentID uuid.UUID) (*Outcome, error) {
	return c.withRespondent(ctx, respondentID, func(id *models.Identity, poll *models.Poll, resp *models.Respondent) (*Outcome, error) {
		return c.goBack(ctx, id, poll, resp)
	})
}

// Restart discards the identity's respondent for pollID, finished or not, and starts afresh.
func (c *Controller) Restart(ctx context.Context, id models.Identity, pollID uuid.UUID) (*Outcome, error) {
	id.Language = i18n.Resolve(string(id.Language))
	unlock, err := c.lock(ctx, id.ID)
	if err != nil {
		return nil, err
	}
	defer unlock()
	return c.restart(ctx, &id, pollID)
}

func (c *Controller) lock(ctx context.Context, identityID int64) (func(), error) {
	key := "identity:" + strconv.FormatInt(identityID, 10)
	unlock, err := c.locker.Lock(ctx, key)
	if err != nil && ctx.Err() == nil {
		unlock, err = c.locker.Lock(ctx, key)
	}
	return unlock, err
}

type respondentFunc func(id *models.Identity, poll *models.Poll, resp *models.Respondent) (*Outcome, error)

func (c *Controller) withRespondent(ctx context.Context, respondentID uuid.UUID, fn respondentFunc) (*Outcome, error) {
	resp, err := c.respondents.GetRespondent(ctx, respondentID)
	if err != nil {
		return nil, fmt.Errorf("load respondent: %w", err)
	}
	if resp == nil {
		return nil, ErrStale
	}
	id, err := c.identity(ctx, resp.IdentityID)
	if err != nil {
		return nil, err
	}
	unlock, err := c.lock(ctx, id.ID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	// reload under the lock
	if resp, err = c.respondents.GetRespondent(ctx, respondentID); err != nil {
		return nil, fmt.Errorf("load respondent: %w", err)
	}
	if resp == nil {
		return nil, ErrStale
	}
	poll, err := c.catalog.GetPoll(ctx, resp.PollID)
	if err != nil {
		return nil, fmt.Errorf("load poll: %w", err)
	}
	if poll == nil {
		return nil, ErrStale
	}
	return fn(id, poll, resp)
}

func (c *Controller) identity(ctx context.Context, identityID int64) (*models.Identity, error) {
	id, err := c.ledger.GetIdentity(ctx, identityID)
	if err != nil {
		return nil, fmt.Errorf("load identity: %w", err)
	}
	if id == nil {
		id = &models.Identity{ID: identityID, ChatID: identityID}
	}
	id.Language = i18n.Resolve(string(id.Language))
	return id, nil
}

func (c *Controller) resumeOrStart(ctx context.Context, id *models.Identity, pollRef *uuid.UUID) (*Outcome, error) {
	now := c.now()
	var poll *models.Poll
	if pollRef != nil {
		p, err := c.catalog.GetPoll(ctx, *pollRef)
		if err != nil {
			return nil, fmt.Errorf("load poll: %w", err)
		}
		if p == nil || !p.IsActive(now) {
			return message(i18n.T(id.Language, i18n.NoActivePolls)), nil
		}
		poll = p
	} else {
		p, key, err := c.pickPoll(ctx, id, now)
		if err != nil {
			return nil, err
		}
		if p == nil {
			return message(i18n.T(id.Language, key)), nil
		}
		poll = p
	}

	resp, err := c.respondents.FindRespondent(ctx, id.ID, poll.ID)
	if err != nil {
		return nil, fmt.Errorf("find respondent: %w", err)
	}
	if resp != nil && resp.IsFinished() {
		out := message(i18n.T(id.Language, i18n.AlreadyCompleted))
		out.RespondentID = resp.ID
		return out, nil
	}
	if resp == nil {
		resp = &models.Respondent{
			IdentityID: id.ID,
			PollID:     poll.ID,
			StartedAt:  now,
			State:      models.StateAwaitingAnswer,
		}
		if err := c.respondents.CreateRespondent(ctx, resp); err != nil {
			return nil, fmt.Errorf("create respondent: %w", err)
		}
		c.log.Info("respondent created", zap.String("respondent_id", resp.ID.String()),
			zap.String("poll_id", poll.ID.String()), zap.Int64("identity_id", id.ID))
	}
	return c.resume(ctx, id, poll, resp)
}

// pickPoll prefers an active poll with an unfinished respondent, then the oldest active poll
// the identity has not completed.
func (c *Controller) pickPoll(ctx context.Context, id *models.Identity, now time.Time) (*models.Poll, i18n.Key, error) {
	polls, err := c.catalog.ActivePolls(ctx, now)
	if err != nil {
		return nil, "", fmt.Errorf("list active polls: %w", err)
	}
	if len(polls) == 0 {
		return nil, i18n.NoActivePolls, nil
	}
	finished, err := c.respondents.FinishedPollIDs(ctx, id.ID)
	if err != nil {
		return nil, "", fmt.Errorf("list finished polls: %w", err)
	}
	done := make(map[uuid.UUID]bool, len(finished))
	for _, pid := range finished {
		done[pid] = true
	}
	var first *models.Poll
	for i := range polls {
		p := &polls[i]
		if done[p.ID] {
			continue
		}
		resp, err := c.respondents.FindRespondent(ctx, id.ID, p.ID)
		if err != nil {
			return nil, "", fmt.Errorf("find respondent: %w", err)
		}
		if resp != nil {
			return p, "", nil
		}
		if first == nil {
			first = p
		}
	}
	if first == nil {
		return nil, i18n.NoNewPolls, nil
	}
	return first, "", nil
}

// current returns the most recently active unfinished respondent of the identity.
func (c *Controller) current(ctx context.Context, id *models.Identity) (*models.Poll, *models.Respondent, error) {
	polls, err := c.catalog.ActivePolls(ctx, c.now())
	if err != nil {
		return nil, nil, fmt.Errorf("list active polls: %w", err)
	}
	var poll *models.Poll
	var resp *models.Respondent
	for i := range polls {
		r, err := c.respondents.FindRespondent(ctx, id.ID, polls[i].ID)
		if err != nil {
			return nil, nil, fmt.Errorf("find respondent: %w", err)
		}
		if r == nil || r.IsFinished() {
			continue
		}
		if resp == nil || r.UpdatedAt.After(resp.UpdatedAt) {
			poll, resp = &polls[i], r
		}
	}
	return poll, resp, nil
}

func (c *Controller) resume(ctx context.Context, id *models.Identity, poll *models.Poll, resp *models.Respondent) (*Outcome, error) {
	if resp.State == models.StateAwaitingChallenge {
		return c.challengeReminder(ctx, id, poll, resp, "")
	}
	questions, err := c.catalog.Questions(ctx, poll.ID)
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	pending, err := c.answers.FirstPendingAnswer(ctx, resp.ID)
	if err != nil {
		return nil, fmt.Errorf("load pending answer: %w", err)
	}
	if pending != nil {
		if q := findQuestion(questions, pending.QuestionID); q != nil {
			if resp.State == models.StateAwaitingCustomText && isCurrent(resp, q.ID) {
				return &Outcome{Kind: KindCustomText, RespondentID: resp.ID, Text: i18n.T(id.Language, i18n.WriteOther)}, nil
			}
			return c.renderQuestion(ctx, id, poll, resp, questions, q, "")
		}
	}
	next, err := c.nextUnanswered(ctx, resp.ID, questions)
	if err != nil {
		return nil, err
	}
	if next == nil {
		return c.finalize(ctx, id, poll, resp)
	}
	return c.renderQuestion(ctx, id, poll, resp, questions, next, "")
}

// renderQuestion makes q the current question, keeps a pending answer for it and returns its
// render instruction. The respondent is saved before anything is delivered.
func (c *Controller) renderQuestion(ctx context.Context, id *models.Identity, poll *models.Poll, resp *models.Respondent,
	questions []models.Question, q *models.Question, notice string) (*Outcome, error) {
	pending, err := c.answers.GetAnswer(ctx, resp.ID, q.ID)
	if err != nil {
		return nil, fmt.Errorf("load answer: %w", err)
	}
	if pending == nil {
		pending = &models.Answer{RespondentID: resp.ID, QuestionID: q.ID}
		if err := c.answers.UpsertAnswer(ctx, pending); err != nil {
			return nil, fmt.Errorf("save pending answer: %w", err)
		}
	}
	answered, err := c.answers.CountAnswered(ctx, resp.ID)
	if err != nil {
		return nil, fmt.Errorf("count answers: %w", err)
	}

	nav := render.NavState{
		ShowDescription: !resp.DescriptionShown && len(resp.History) == 0,
		Description:     poll.Description,
		Answered:        answered,
		Total:           len(questions),
		Selected:        pending.SelectedChoices,
		OtherSelected:   pending.OtherSelected,
		Native:          c.native,
	}
	in, err := render.Render(q, q.Choices, id.Language, nav)
	var limit *render.WidgetLimitError
	if errors.As(err, &limit) {
		c.log.Error("question does not fit a native poll, rendering inline",
			zap.String("poll_id", poll.ID.String()), zap.String("question_id", q.ID.String()), zap.Error(err))
		nav.Native = false
		in, err = render.Render(q, q.Choices, id.Language, nav)
	}
	if err != nil {
		return nil, fmt.Errorf("render question %s: %w", q.ID, err)
	}

	qid := q.ID
	resp.CurrentQuestionID = &qid
	resp.State = models.StateAwaitingAnswer
	if in.Description != "" {
		resp.DescriptionShown = true
	}
	if err := c.respondents.SaveRespondent(ctx, resp); err != nil {
		return nil, err
	}

	out := &Outcome{Kind: KindRender, RespondentID: resp.ID, Notice: notice, Render: in, ProgressPercent: in.ProgressPercent}
	if !pending.Delivery.Empty() {
		out.stale = append(out.stale, pending.Delivery)
	}
	return out, nil
}

func (c *Controller) advance(ctx context.Context, id *models.Identity, poll *models.Poll, resp *models.Respondent,
	answeredID uuid.UUID, skipGate bool, notice string) (*Outcome, error) {
	if resp.IsFinished() {
		return c.finalize(ctx, id, poll, resp)
	}
	var stale []models.Delivery
	if !skipGate {
		a, err := c.answers.GetAnswer(ctx, resp.ID, answeredID)
		if err != nil {
			return nil, fmt.Errorf("load answer: %w", err)
		}
		if a != nil && !a.Delivery.Empty() {
			stale = append(stale, a.Delivery)
		}

		challenge, err := c.shouldChallenge(ctx, resp.ID)
		if err != nil {
			return nil, err
		}
		if challenge {
			ch, err := c.challenges.Issue(ctx, resp.ID, id.Language)
			if err != nil {
				return nil, err
			}
			target := answeredID
			resp.State = models.StateAwaitingChallenge
			resp.ChallengeID = &ch.ID
			resp.ResumeQuestionID = &target
			resp.CurrentQuestionID = nil
			if err := c.respondents.SaveRespondent(ctx, resp); err != nil {
				return nil, err
			}
			out := challengeOutcome(resp, notice, ch.Question)
			out.stale = stale
			return out, nil
		}
	}

	questions, err := c.catalog.Questions(ctx, poll.ID)
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	next, err := c.nextUnanswered(ctx, resp.ID, questions)
	if err != nil {
		return nil, err
	}
	var out *Outcome
	if next == nil {
		out, err = c.finalize(ctx, id, poll, resp)
	} else {
		h := history.History(resp.History)
		h.Push(answeredID)
		if !h.Valid() {
			return nil, fmt.Errorf("respondent %s: %w", resp.ID, history.ErrInvalid)
		}
		resp.History = h
		out, err = c.renderQuestion(ctx, id, poll, resp, questions, next, notice)
	}
	if err != nil {
		return nil, err
	}
	if next == nil && notice != "" {
		out.Notice = notice
	}
	out.stale = append(stale, out.stale...)
	return out, nil
}

// shouldChallenge consults the gate. Without a gate and challenge service no challenges are
// issued; a failing suppression store skips the challenge rather than the turn.
func (c *Controller) shouldChallenge(ctx context.Context, respondentID uuid.UUID) (bool, error) {
	if c.gate == nil || c.challenges == nil {
		return false, nil
	}
	answered, err := c.answers.CountAnswered(ctx, respondentID)
	if err != nil {
		return false, fmt.Errorf("count answers: %w", err)
	}
	challenge, err := c.gate.ShouldChallenge(ctx, respondentID, answered)
	if err != nil {
		c.log.Warn("challenge gate unavailable, skipping", zap.String("respondent_id", respondentID.String()), zap.Error(err))
		return false, nil
	}
	return challenge, nil
}

// finalize settles the completion. Settlement is idempotent, so a duplicate call reports the
// respondent as already completed without paying again.
func (c *Controller) finalize(ctx context.Context, id *models.Identity, poll *models.Poll, resp *models.Respondent) (*Outcome, error) {
	res, err := c.ledger.Settle(ctx, rewards.Settlement{
		RespondentID: resp.ID,
		IdentityID:   resp.IdentityID,
		PollID:       poll.ID,
		PollName:     poll.Name,
		Reward:       poll.Reward,
		FinishedAt:   c.now(),
	})
	if err != nil {
		return nil, fmt.Errorf("settle respondent %s: %w", resp.ID, err)
	}
	comp := &Completion{
		RespondentID: resp.ID,
		PollID:       poll.ID,
		PollName:     poll.Name,
		IdentityID:   resp.IdentityID,
		ChatID:       id.ChatID,
		Language:     id.Language,
		Reward:       poll.Reward,
		Credited:     res.Credited,
		Balance:      res.Balance,
		FinishedAt:   res.FinishedAt,
	}
	out := &Outcome{Kind: KindCompleted, RespondentID: resp.ID, ProgressPercent: 100, Completion: comp}
	if !res.Finished {
		out.Kind = KindMessage
		out.Text = i18n.T(id.Language, i18n.AlreadyCompleted)
		return out, nil
	}

	at := res.FinishedAt
	resp.FinishedAt = &at
	resp.State = models.StateFinished
	resp.CurrentQuestionID, resp.ResumeQuestionID, resp.ChallengeID = nil, nil, nil
	c.log.Info("poll finished", zap.String("respondent_id", resp.ID.String()), zap.String("poll_id", poll.ID.String()),
		zap.Int64("identity_id", resp.IdentityID), zap.Bool("credited", res.Credited))

	out.Text = i18n.T(id.Language, i18n.PollCompleted)
	if res.Credited {
		c.log.Info("reward credited", zap.Int64("identity_id", resp.IdentityID),
			zap.String("amount", poll.Reward.String()), zap.String("balance", res.Balance.String()))
		if !c.deferNotice {
			out.Text += "\n\n" + i18n.T(id.Language, i18n.RewardCredited, poll.Reward.String(), res.Balance.String())
		}
	}
	if c.notifier != nil {
		if err := c.notifier.Completed(ctx, *comp); err != nil {
			c.log.Warn("completion notify failed", zap.String("respondent_id", resp.ID.String()), zap.Error(err))
		}
	}
	return out, nil
}

func (c *Controller) goBack(ctx context.Context, id *models.Identity, poll *models.Poll, resp *models.Respondent) (*Outcome, error) {
	if resp.IsFinished() {
		return message(i18n.T(id.Language, i18n.AlreadyCompleted)), nil
	}
	if resp.State == models.StateAwaitingChallenge {
		return c.challengeReminder(ctx, id, poll, resp, i18n.T(id.Language, i18n.FinishCheckFirst))
	}
	h := history.History(resp.History)
	prev, err := h.Pop()
	if errors.Is(err, history.ErrEmpty) {
		return nil, ErrNavigation
	}
	if !h.Valid() {
		return nil, fmt.Errorf("respondent %s: %w", resp.ID, history.ErrInvalid)
	}
	questions, err := c.catalog.Questions(ctx, poll.ID)
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	q := findQuestion(questions, prev)
	if q == nil {
		return nil, ErrStale
	}

	var stale []models.Delivery
	if cur := resp.CurrentQuestionID; cur != nil {
		a, err := c.answers.GetAnswer(ctx, resp.ID, *cur)
		if err != nil {
			return nil, fmt.Errorf("load answer: %w", err)
		}
		if a != nil && !a.Delivery.Empty() {
			stale = append(stale, a.Delivery)
		}
		if err := c.answers.DeleteAnswer(ctx, resp.ID, *cur); err != nil {
			return nil, fmt.Errorf("delete answer: %w", err)
		}
	}
	if err := c.answers.DeleteAnswer(ctx, resp.ID, prev); err != nil {
		return nil, fmt.Errorf("delete answer: %w", err)
	}
	resp.History = h

	out, err := c.renderQuestion(ctx, id, poll, resp, questions, q, "")
	if err != nil {
		return nil, err
	}
	out.stale = append(stale, out.stale...)
	return out, nil
}

func (c *Controller) restart(ctx context.Context, id *models.Identity, pollID uuid.UUID) (*Outcome, error) {
	resp, err := c.respondents.FindRespondent(ctx, id.ID, pollID)
	if err != nil {
		return nil, fmt.Errorf("find respondent: %w", err)
	}
	if resp != nil {
		if err := c.discard(ctx, resp); err != nil {
			return nil, err
		}
		c.log.Info("respondent restarted", zap.String("respondent_id", resp.ID.String()), zap.String("poll_id", pollID.String()))
	}
	return c.resumeOrStart(ctx, id, &pollID)
}

func (c *Controller) discard(ctx context.Context, resp *models.Respondent) error {
	if err := c.answers.DeleteAnswers(ctx, resp.ID); err != nil {
		return fmt.Errorf("delete answers: %w", err)
	}
	if err := c.respondents.DeleteRespondent(ctx, resp.ID); err != nil {
		return fmt.Errorf("delete respondent: %w", err)
	}
	return nil
}

func (c *Controller) answerChallenge(ctx context.Context, id *models.Identity, poll *models.Poll, resp *models.Respondent, text string) (*Outcome, error) {
	if resp.ChallengeID == nil || c.challenges == nil {
		return c.resumeAfterChallenge(ctx, id, poll, resp, "")
	}
	verdict, ch, err := c.challenges.Resolve(ctx, *resp.ChallengeID, text)
	if err != nil {
		return nil, err
	}
	if ch == nil {
		return c.resumeAfterChallenge(ctx, id, poll, resp, "")
	}
	switch verdict {
	case captcha.Correct:
		return c.resumeAfterChallenge(ctx, id, poll, resp, i18n.T(id.Language, i18n.CaptchaSolved))
	case captcha.IncorrectRetry:
		return challengeOutcome(resp, i18n.T(id.Language, i18n.CaptchaWrong, ch.Attempts, models.MaxCaptchaAttempts), ch.Question), nil
	}
	if err := c.discard(ctx, resp); err != nil {
		return nil, err
	}
	c.log.Warn("session aborted after failed challenge", zap.String("respondent_id", resp.ID.String()),
		zap.Int64("identity_id", resp.IdentityID), zap.Int("attempts", ch.Attempts))
	return &Outcome{Kind: KindAborted, RespondentID: resp.ID, Text: i18n.T(id.Language, i18n.CaptchaFailed, ch.Attempts)}, nil
}

// resumeAfterChallenge continues the advance the challenge suspended, without consulting the gate.
func (c *Controller) resumeAfterChallenge(ctx context.Context, id *models.Identity, poll *models.Poll, resp *models.Respondent, notice string) (*Outcome, error) {
	target := resp.ResumeQuestionID
	resp.State = models.StateAwaitingAnswer
	resp.ChallengeID, resp.ResumeQuestionID = nil, nil
	if target == nil {
		return c.resume(ctx, id, poll, resp)
	}
	return c.advance(ctx, id, poll, resp, *target, true, notice)
}

func (c *Controller) challengeReminder(ctx context.Context, id *models.Identity, poll *models.Poll, resp *models.Respondent, notice string) (*Outcome, error) {
	if resp.ChallengeID != nil && c.challenges != nil {
		ch, err := c.challenges.Current(ctx, *resp.ChallengeID)
		if err != nil {
			return nil, fmt.Errorf("load challenge: %w", err)
		}
		if ch != nil && !ch.IsCorrect {
			return challengeOutcome(resp, notice, ch.Question), nil
		}
	}
	return c.resumeAfterChallenge(ctx, id, poll, resp, "")
}

func (c *Controller) nextUnanswered(ctx context.Context, respondentID uuid.UUID, questions []models.Question) (*models.Question, error) {
	list, err := c.answers.ListAnswers(ctx, respondentID)
	if err != nil {
		return nil, fmt.Errorf("list answers: %w", err)
	}
	answered := make(map[uuid.UUID]bool, len(list))
	for _, a := range list {
		if a.IsAnswered {
			answered[a.QuestionID] = true
		}
	}
	var next *models.Question
	for i := range questions {
		q := &questions[i]
		if answered[q.ID] {
			continue
		}
		if next == nil || q.Order < next.Order {
			next = q
		}
	}
	return next, nil
}

func findQuestion(questions []models.Question, id uuid.UUID) *models.Question {
	for i := range questions {
		if questions[i].ID == id {
			return &questions[i]
		}
	}
	return nil
}

func isCurrent(resp *models.Respondent, questionID uuid.UUID) bool {
	return resp.CurrentQuestionID != nil && *resp.CurrentQuestionID == questionID
}
