package worker

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aura-survey/backend/internal/i18n"
	"github.com/aura-survey/backend/internal/models"
	"github.com/aura-survey/backend/internal/session"
	"github.com/aura-survey/backend/pkg/queue"
)

type sentText struct {
	chatID int64
	text   string
}

type fakeSender struct {
	mu   sync.Mutex
	sent []sentText
	fail int
}

func (f *fakeSender) SendText(_ context.Context, chatID int64, text string) (models.Delivery, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail > 0 {
		f.fail--
		return models.Delivery{}, errors.New("transport down")
	}
	f.sent = append(f.sent, sentText{chatID, text})
	return models.Delivery{ChatID: chatID, MessageID: int64(len(f.sent))}, nil
}

func (f *fakeSender) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

type fakeJobs struct {
	mu      sync.Mutex
	pending []*queue.Job
	retried []*queue.Job
}

func (f *fakeJobs) Dequeue(ctx context.Context, _ time.Duration) (*queue.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.pending) == 0 {
		return nil, nil
	}
	j := f.pending[0]
	f.pending = f.pending[1:]
	return j, nil
}

func (f *fakeJobs) Retry(_ context.Context, job *queue.Job) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	job.Attempt++
	f.retried = append(f.retried, job)
	f.pending = append(f.pending, job)
	return nil
}

func completionJob(t *testing.T, p queue.CompletionPayload) *queue.Job {
	t.Helper()
	body, err := json.Marshal(p)
	require.NoError(t, err)
	return &queue.Job{ID: uuid.NewString(), Type: queue.JobTypeCompletion, Payload: body}
}

func TestProcessSendsLocalizedNotice(t *testing.T) {
	s := &fakeSender{}
	p := NewCompletionProcessor(s, &fakeJobs{}, time.Millisecond, nil)

	err := p.Process(context.Background(), completionJob(t, queue.CompletionPayload{
		RespondentID: uuid.New(), IdentityID: 7, Language: "ru", Reward: "1000", Balance: "3000", Credited: true,
	}))
	require.NoError(t, err)
	require.Len(t, s.sent, 1)
	assert.Equal(t, int64(7), s.sent[0].chatID, "identity id is the chat when none is given")
	assert.Equal(t, i18n.T(models.LangRu, i18n.RewardCredited, "1000", "3000"), s.sent[0].text)
}

func TestProcessSkipsUncredited(t *testing.T) {
	s := &fakeSender{}
	p := NewCompletionProcessor(s, &fakeJobs{}, time.Millisecond, nil)
	require.NoError(t, p.Process(context.Background(), completionJob(t, queue.CompletionPayload{ChatID: 1})))
	assert.Empty(t, s.sent)
}

func TestProcessRejectsUnknownType(t *testing.T) {
	p := NewCompletionProcessor(&fakeSender{}, &fakeJobs{}, time.Millisecond, nil)
	assert.Error(t, p.Process(context.Background(), &queue.Job{Type: "email"}))
}

func TestRunRetriesFailedJobs(t *testing.T) {
	s := &fakeSender{fail: 1}
	jobs := &fakeJobs{pending: []*queue.Job{completionJob(t, queue.CompletionPayload{ChatID: 5, Credited: true, Reward: "1", Balance: "1"})}}
	p := NewCompletionProcessor(s, jobs, time.Millisecond, nil)
	p.poll = time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()
	require.Eventually(t, func() bool { return s.count() == 1 }, time.Second, time.Millisecond)
	cancel()
	<-done

	jobs.mu.Lock()
	defer jobs.mu.Unlock()
	require.Len(t, jobs.retried, 1)
	assert.Equal(t, 1, jobs.retried[0].Attempt)
}

type captureEnqueuer struct {
	got []queue.CompletionPayload
}

func (c *captureEnqueuer) EnqueueCompletion(_ context.Context, p queue.CompletionPayload) error {
	c.got = append(c.got, p)
	return nil
}

func TestQueueNotifierRoundTrip(t *testing.T) {
	enq := &captureEnqueuer{}
	comp := session.Completion{
		RespondentID: uuid.New(), PollID: uuid.New(), IdentityID: 3, ChatID: 4, Language: models.LangUzLatn,
		Reward: decimal.RequireFromString("1500.50"), Balance: decimal.RequireFromString("2000.50"), Credited: true,
	}
	require.NoError(t, NewQueueNotifier(enq).Completed(context.Background(), comp))
	require.Len(t, enq.got, 1)

	s := &fakeSender{}
	p := NewCompletionProcessor(s, &fakeJobs{}, time.Millisecond, nil)
	require.NoError(t, p.Process(context.Background(), completionJob(t, enq.got[0])))
	require.Len(t, s.sent, 1)
	assert.Equal(t, int64(4), s.sent[0].chatID)
	assert.Equal(t, i18n.T(models.LangUzLatn, i18n.RewardCredited, "1500.5", "2000.5"), s.sent[0].text)
}
