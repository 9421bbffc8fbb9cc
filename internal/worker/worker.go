package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/aura-survey/backend/internal/i18n"
	"github.com/aura-survey/backend/internal/models"
	"github.com/aura-survey/backend/pkg/queue"
)

// Sender delivers a plain text message to a chat.
type Sender interface {
	SendText(ctx context.Context, chatID int64, text string) (models.Delivery, error)
}

// Jobs is the part of the queue the processor consumes.
type Jobs interface {
	Dequeue(ctx context.Context, timeout time.Duration) (*queue.Job, error)
	Retry(ctx context.Context, job *queue.Job) error
}

// CompletionProcessor sends the reward notice for completion jobs.
type CompletionProcessor struct {
	sender  Sender
	jobs    Jobs
	logger  *zap.Logger
	backoff time.Duration
	poll    time.Duration
}

// NewCompletionProcessor creates a completion job processor.
func NewCompletionProcessor(sender Sender, jobs Jobs, backoff time.Duration, logger *zap.Logger) *CompletionProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	if backoff <= 0 {
		backoff = queue.RetryBackoff
	}
	return &CompletionProcessor{sender: sender, jobs: jobs, logger: logger, backoff: backoff, poll: 5 * time.Second}
}

// Process executes one completion job. Completions that credited nothing are acknowledged silently.
func (p *CompletionProcessor) Process(ctx context.Context, job *queue.Job) error {
	if job.Type != queue.JobTypeCompletion {
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
	var payload queue.CompletionPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}
	log := p.logger.With(zap.String("job_id", job.ID), zap.String("respondent_id", payload.RespondentID.String()),
		zap.Int64("identity_id", payload.IdentityID))
	if !payload.Credited {
		log.Debug("nothing credited, no notice")
		return nil
	}

	chatID := payload.ChatID
	if chatID == 0 {
		chatID = payload.IdentityID
	}
	lang := i18n.Resolve(payload.Language)
	text := i18n.T(lang, i18n.RewardCredited, payload.Reward, payload.Balance)
	if _, err := p.sender.SendText(ctx, chatID, text); err != nil {
		return fmt.Errorf("send reward notice: %w", err)
	}
	log.Info("reward notice sent", zap.String("poll_id", payload.PollID.String()), zap.String("amount", payload.Reward))
	return nil
}

// Run starts the worker loop: dequeue, process, retry on error.
func (p *CompletionProcessor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("completion worker stopping")
			return
		default:
		}

		job, err := p.jobs.Dequeue(ctx, p.poll)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			p.logger.Warn("dequeue error", zap.Error(err))
			p.sleep(ctx)
			continue
		}
		if job == nil {
			continue
		}

		p.logger.Debug("processing job", zap.String("job_id", job.ID), zap.String("type", string(job.Type)))
		if err := p.Process(ctx, job); err != nil {
			p.logger.Error("job failed", zap.String("job_id", job.ID), zap.Int("attempt", job.Attempt), zap.Error(err))
			if reErr := p.jobs.Retry(ctx, job); reErr != nil {
				p.logger.Error("retry enqueue failed", zap.Error(reErr))
			}
			p.sleep(ctx)
		}
	}
}

func (p *CompletionProcessor) sleep(ctx context.Context) {
	t := time.NewTimer(p.backoff)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
