package worker

import (
	"context"

	"github.com/aura-survey/backend/internal/session"
	"github.com/aura-survey/backend/pkg/queue"
)

// Enqueuer is the producing side of the completion queue.
type Enqueuer interface {
	EnqueueCompletion(ctx context.Context, payload queue.CompletionPayload) error
}

// QueueNotifier turns completion facts into completion jobs. It implements session.Notifier.
type QueueNotifier struct {
	q Enqueuer
}

// NewQueueNotifier creates a notifier that enqueues completion jobs.
func NewQueueNotifier(q Enqueuer) *QueueNotifier {
	return &QueueNotifier{q: q}
}

// Completed enqueues a completion job.
func (n *QueueNotifier) Completed(ctx context.Context, c session.Completion) error {
	return n.q.EnqueueCompletion(ctx, Payload(c))
}

// Payload converts a completion into its job payload.
func Payload(c session.Completion) queue.CompletionPayload {
	return queue.CompletionPayload{
		RespondentID: c.RespondentID,
		PollID:       c.PollID,
		PollName:     c.PollName,
		IdentityID:   c.IdentityID,
		ChatID:       c.ChatID,
		Language:     string(c.Language),
		Reward:       c.Reward.String(),
		Credited:     c.Credited,
		Balance:      c.Balance.String(),
		FinishedAt:   c.FinishedAt,
	}
}
