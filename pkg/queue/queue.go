package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	// DefaultQueue is the Redis list key for completion jobs.
	DefaultQueue = "worker:completions"
	// DefaultDLQ is the dead-letter queue for failed jobs after retries.
	DefaultDLQ = "worker:dlq"
	// MaxRetries is the number of times to retry a job before moving to DLQ.
	MaxRetries = 3
	// RetryBackoff is the delay between retries.
	RetryBackoff = 10 * time.Second
)

// JobType identifies the job kind.
type JobType string

const (
	JobTypeCompletion JobType = "completion"
)

// CompletionPayload is the payload for completion jobs: a respondent finished a poll.
// Amounts are decimal strings.
type CompletionPayload struct {
	RespondentID uuid.UUID `json:"respondent_id"`
	PollID       uuid.UUID `json:"poll_id"`
	PollName     string    `json:"poll_name"`
	IdentityID   int64     `json:"identity_id"`
	ChatID       int64     `json:"chat_id"`
	Language     string    `json:"language"`
	Reward       string    `json:"reward"`
	Credited     bool      `json:"credited"`
	Balance      string    `json:"balance"`
	FinishedAt   time.Time `json:"finished_at"`
}

// Job is a generic job envelope.
type Job struct {
	ID        string          `json:"id"`
	Type      JobType         `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	Attempt   int             `json:"attempt"`
	CreatedAt time.Time       `json:"created_at"`
}

// Options name the lists a Queue works on.
type Options struct {
	Name       string
	DLQ        string
	MaxRetries int
}

// Queue enqueues and dequeues jobs via Redis lists.
type Queue struct {
	client *redis.Client
	logger *zap.Logger
	opts   Options
}

// NewQueue creates a new Redis-backed job queue. Zero options take the package defaults.
func NewQueue(client *redis.Client, opts Options, logger *zap.Logger) *Queue {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Name == "" {
		opts.Name = DefaultQueue
	}
	if opts.DLQ == "" {
		opts.DLQ = DefaultDLQ
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = MaxRetries
	}
	return &Queue{client: client, logger: logger, opts: opts}
}

// Enqueue wraps payload in a job envelope and appends it to the queue.
func (q *Queue) Enqueue(ctx context.Context, typ JobType, payload any) (*Job, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	job := &Job{
		ID:        uuid.New().String(),
		Type:      typ,
		Payload:   body,
		CreatedAt: time.Now(),
	}
	if err := q.push(ctx, q.opts.Name, job); err != nil {
		return nil, err
	}
	q.logger.Debug("enqueued job", zap.String("job_id", job.ID), zap.String("type", string(typ)))
	return job, nil
}

// EnqueueCompletion enqueues a completion job.
func (q *Queue) EnqueueCompletion(ctx context.Context, payload CompletionPayload) error {
	_, err := q.Enqueue(ctx, JobTypeCompletion, payload)
	return err
}

// Dequeue blocks up to timeout (0 = until ctx is done) for the next job. It returns a nil job
// when the wait timed out or the entry could not be decoded.
func (q *Queue) Dequeue(ctx context.Context, timeout time.Duration) (*Job, error) {
	result, err := q.client.BLPop(ctx, timeout, q.opts.Name).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	if len(result) < 2 {
		return nil, nil
	}
	var job Job
	if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
		q.logger.Warn("invalid job payload", zap.String("raw", result[1]), zap.Error(err))
		return nil, nil
	}
	return &job, nil
}

// Retry re-enqueues a job with incremented attempt. Once MaxRetries is reached it goes to the DLQ.
func (q *Queue) Retry(ctx context.Context, job *Job) error {
	job.Attempt++
	if job.Attempt >= q.opts.MaxRetries {
		if err := q.push(ctx, q.opts.DLQ, job); err != nil {
			q.logger.Error("dlq push failed", zap.Error(err), zap.String("job_id", job.ID))
			return err
		}
		q.logger.Warn("job moved to DLQ", zap.String("job_id", job.ID), zap.Int("attempt", job.Attempt))
		return nil
	}
	if err := q.push(ctx, q.opts.Name, job); err != nil {
		return err
	}
	q.logger.Info("job retried", zap.String("job_id", job.ID), zap.Int("attempt", job.Attempt))
	return nil
}

// Len reports the number of waiting jobs.
func (q *Queue) Len(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, q.opts.Name).Result()
}

func (q *Queue) push(ctx context.Context, list string, job *Job) error {
	raw, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	if err := q.client.RPush(ctx, list, raw).Err(); err != nil {
		return fmt.Errorf("rpush %s: %w", list, err)
	}
	return nil
}
