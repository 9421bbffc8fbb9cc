package session

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/aura-survey/backend/internal/answers"
	"github.com/aura-survey/backend/internal/i18n"
	"github.com/aura-survey/backend/internal/models"
)

// Handle processes one inbound event for an identity and delivers the outcome through the
// chat channel. Turns of one identity are serialized; a conflicting turn is retried once and
// then falls back to resuming, as does an event that references stale state.
func (c *Controller) Handle(ctx context.Context, id models.Identity, ev Event) (*Outcome, error) {
	if err := ev.Validate(); err != nil {
		return nil, err
	}
	id.Language = i18n.Resolve(string(id.Language))
	if id.ChatID == 0 {
		id.ChatID = id.ID
	}
	if err := c.ledger.SaveIdentity(ctx, &id); err != nil {
		return nil, fmt.Errorf("save identity: %w", err)
	}
	log := c.log.With(zap.Int64("identity_id", id.ID), zap.String("event", string(ev.Kind)))

	unlock, err := c.lock(ctx, id.ID)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		log.Warn("identity busy", zap.Error(err))
		out := message(i18n.T(id.Language, i18n.TryAgainLater))
		c.deliver(ctx, &id, out)
		return out, nil
	}
	defer unlock()

	out, err := c.dispatch(ctx, &id, ev)
	if errors.Is(err, ErrConflict) {
		log.Warn("concurrent update, retrying", zap.Error(err))
		out, err = c.dispatch(ctx, &id, ev)
	}
	if errors.Is(err, ErrConflict) || errors.Is(err, ErrStale) {
		log.Info("stale event, resuming", zap.Error(err))
		out, err = c.resumeOrStart(ctx, &id, nil)
	}
	if err != nil {
		log.Error("event failed", zap.Error(err))
		return nil, err
	}
	c.deliver(ctx, &id, out)
	return out, nil
}

func (c *Controller) dispatch(ctx context.Context, id *models.Identity, ev Event) (*Outcome, error) {
	switch ev.Kind {
	case EventStart:
		return c.resumeOrStart(ctx, id, ev.PollID)
	case EventRestart:
		return c.restart(ctx, id, *ev.PollID)
	case EventPollAnswer:
		return c.onPollAnswer(ctx, id, ev)
	}

	poll, resp, err := c.current(ctx, id)
	if err != nil {
		return nil, err
	}
	if resp == nil {
		return nil, ErrStale
	}
	if resp.State == models.StateAwaitingChallenge {
		if ev.Kind == EventText {
			return c.answerChallenge(ctx, id, poll, resp, ev.Text)
		}
		return c.challengeReminder(ctx, id, poll, resp, i18n.T(id.Language, i18n.FinishCheckFirst))
	}

	switch ev.Kind {
	case EventBack:
		out, err := c.goBack(ctx, id, poll, resp)
		if errors.Is(err, ErrNavigation) {
			return c.reprompt(ctx, id, poll, resp, &answers.Rejection{Reason: i18n.CannotGoBack})
		}
		return out, err
	case EventText:
		return c.onText(ctx, id, poll, resp, ev)
	case EventChoice:
		return c.onChoice(ctx, id, poll, resp, ev)
	case EventConfirm:
		return c.onConfirm(ctx, id, poll, resp)
	}
	return nil, fmt.Errorf("unknown event kind %q", ev.Kind)
}

func (c *Controller) currentQuestion(ctx context.Context, poll *models.Poll, resp *models.Respondent) ([]models.Question, *models.Question, error) {
	if resp.CurrentQuestionID == nil {
		return nil, nil, ErrStale
	}
	questions, err := c.catalog.Questions(ctx, poll.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("load questions: %w", err)
	}
	q := findQuestion(questions, *resp.CurrentQuestionID)
	if q == nil {
		return nil, nil, ErrStale
	}
	return questions, q, nil
}

func (c *Controller) onText(ctx context.Context, id *models.Identity, poll *models.Poll, resp *models.Respondent, ev Event) (*Outcome, error) {
	questions, q, err := c.currentQuestion(ctx, poll, resp)
	if err != nil {
		return nil, err
	}
	in := answers.Input{Text: ev.Text, Custom: resp.State == models.StateAwaitingCustomText}
	return c.record(ctx, id, poll, resp, questions, q, in)
}

func (c *Controller) onChoice(ctx context.Context, id *models.Identity, poll *models.Poll, resp *models.Respondent, ev Event) (*Outcome, error) {
	questions, q, err := c.currentQuestion(ctx, poll, resp)
	if err != nil {
		return nil, err
	}
	if ev.QuestionID != nil && *ev.QuestionID != q.ID {
		return nil, ErrStale
	}
	if !ev.Toggle {
		return c.record(ctx, id, poll, resp, questions, q, answers.Input{Numbers: ev.Options})
	}
	if _, err := c.recorder.Toggle(ctx, resp.ID, q, ev.Options...); err != nil {
		var rej *answers.Rejection
		if errors.As(err, &rej) {
			return c.renderQuestionRejected(ctx, id, poll, resp, questions, q, rej)
		}
		return nil, err
	}
	out, err := c.renderQuestion(ctx, id, poll, resp, questions, q, "")
	if !errors.Is(err, ErrConflict) {
		return out, err
	}
	// The toggle is stored and must not be replayed: only the respondent write is retried.
	fresh, err := c.respondents.GetRespondent(ctx, resp.ID)
	if err != nil {
		return nil, fmt.Errorf("reload respondent: %w", err)
	}
	if fresh == nil || fresh.IsFinished() || fresh.CurrentQuestionID == nil || *fresh.CurrentQuestionID != q.ID {
		return nil, ErrStale
	}
	out, err = c.renderQuestion(ctx, id, poll, fresh, questions, q, "")
	if errors.Is(err, ErrConflict) {
		return nil, fmt.Errorf("%w: respondent %s still conflicting after toggle", ErrStale, resp.ID)
	}
	return out, err
}

func (c *Controller) onConfirm(ctx context.Context, id *models.Identity, poll *models.Poll, resp *models.Respondent) (*Outcome, error) {
	questions, q, err := c.currentQuestion(ctx, poll, resp)
	if err != nil {
		return nil, err
	}
	if !q.Type.Multiple() {
		return c.renderQuestionRejected(ctx, id, poll, resp, questions, q, &answers.Rejection{Reason: i18n.InvalidOption})
	}
	pending, err := c.answers.GetAnswer(ctx, resp.ID, q.ID)
	if err != nil {
		return nil, fmt.Errorf("load answer: %w", err)
	}
	return c.record(ctx, id, poll, resp, questions, q, answers.Input{Numbers: answers.Numbers(q, pending)})
}

func (c *Controller) onPollAnswer(ctx context.Context, id *models.Identity, ev Event) (*Outcome, error) {
	a, err := c.answers.FindAnswerByWidget(ctx, ev.WidgetID)
	if err != nil {
		return nil, fmt.Errorf("find widget answer: %w", err)
	}
	if a == nil {
		return nil, ErrStale
	}
	resp, err := c.respondents.GetRespondent(ctx, a.RespondentID)
	if err != nil {
		return nil, fmt.Errorf("load respondent: %w", err)
	}
	if resp == nil || resp.IsFinished() || resp.IdentityID != id.ID {
		return nil, ErrStale
	}
	poll, err := c.catalog.GetPoll(ctx, resp.PollID)
	if err != nil {
		return nil, fmt.Errorf("load poll: %w", err)
	}
	if poll == nil {
		return nil, ErrStale
	}
	if resp.State == models.StateAwaitingChallenge {
		return c.challengeReminder(ctx, id, poll, resp, i18n.T(id.Language, i18n.FinishCheckFirst))
	}
	questions, q, err := c.currentQuestion(ctx, poll, resp)
	if err != nil {
		return nil, err
	}
	if q.ID != a.QuestionID {
		return nil, ErrStale
	}
	if len(ev.OptionIDs) == 0 {
		// vote retracted
		return &Outcome{Kind: KindNone, RespondentID: resp.ID}, nil
	}
	numbers := make([]int, len(ev.OptionIDs))
	for i, o := range ev.OptionIDs {
		numbers[i] = o + 1
	}
	return c.record(ctx, id, poll, resp, questions, q, answers.Input{Numbers: numbers})
}

// record validates and stores an answer, then advances. Rejections re-prompt the same question.
func (c *Controller) record(ctx context.Context, id *models.Identity, poll *models.Poll, resp *models.Respondent,
	questions []models.Question, q *models.Question, in answers.Input) (*Outcome, error) {
	_, err := c.recorder.Record(ctx, resp.ID, q, in)
	var rej *answers.Rejection
	switch {
	case errors.As(err, &rej):
		return c.renderQuestionRejected(ctx, id, poll, resp, questions, q, rej)
	case errors.Is(err, answers.ErrNeedCustomText):
		resp.State = models.StateAwaitingCustomText
		if err := c.respondents.SaveRespondent(ctx, resp); err != nil {
			return nil, err
		}
		return &Outcome{Kind: KindCustomText, RespondentID: resp.ID, Text: i18n.T(id.Language, i18n.WriteOther)}, nil
	case err != nil:
		return nil, err
	}
	return c.advance(ctx, id, poll, resp, q.ID, false, "")
}

func (c *Controller) reprompt(ctx context.Context, id *models.Identity, poll *models.Poll, resp *models.Respondent, rej *answers.Rejection) (*Outcome, error) {
	questions, q, err := c.currentQuestion(ctx, poll, resp)
	if err != nil {
		return nil, err
	}
	return c.renderQuestionRejected(ctx, id, poll, resp, questions, q, rej)
}

func (c *Controller) renderQuestionRejected(ctx context.Context, id *models.Identity, poll *models.Poll, resp *models.Respondent,
	questions []models.Question, q *models.Question, rej *answers.Rejection) (*Outcome, error) {
	out, err := c.renderQuestion(ctx, id, poll, resp, questions, q, rej.Message(id.Language))
	if err != nil {
		return nil, err
	}
	out.RejectReason = rej.Reason
	return out, nil
}

// deliver sends an outcome. State is already committed, so delivery failures are only logged;
// the respondent can re-trigger and resume.
func (c *Controller) deliver(ctx context.Context, id *models.Identity, out *Outcome) {
	if c.channel == nil || out == nil {
		return
	}
	log := c.log.With(zap.Int64("identity_id", id.ID), zap.String("respondent_id", out.RespondentID.String()))
	for _, d := range out.stale {
		if err := c.channel.DeleteOrEdit(ctx, d); err != nil {
			log.Warn("delete stale message failed", zap.Int64("message_id", d.MessageID), zap.Error(err))
		}
	}
	if out.Notice != "" {
		if _, err := c.channel.SendText(ctx, id.ChatID, out.Notice); err != nil {
			log.Warn("send notice failed", zap.Error(err))
		}
	}
	if out.Render != nil {
		d, err := c.channel.SendRender(ctx, id.ChatID, out.Render)
		if err != nil {
			log.Warn("send render failed", zap.String("question_id", out.Render.QuestionID.String()), zap.Error(err))
			return
		}
		if d.ChatID == 0 {
			d.ChatID = id.ChatID
		}
		if err := c.answers.SetDelivery(ctx, out.RespondentID, out.Render.QuestionID, d); err != nil {
			log.Warn("store delivery failed", zap.Error(err))
		}
	}
	if out.Text != "" {
		if _, err := c.channel.SendText(ctx, id.ChatID, out.Text); err != nil {
			log.Warn("send text failed", zap.Error(err))
		}
	}
}
