package redis

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ChallengeSuppressor records issued challenges with SET NX EX so duplicate events
// processed by different instances cannot both trigger one.
type ChallengeSuppressor struct {
	client *Client
}

// NewChallengeSuppressor creates a suppressor on client.
func NewChallengeSuppressor(client *Client) *ChallengeSuppressor {
	return &ChallengeSuppressor{client: client}
}

// Mark reports whether the window for respondentID was free and claims it.
func (s *ChallengeSuppressor) Mark(ctx context.Context, respondentID uuid.UUID, window time.Duration) (bool, error) {
	return s.client.SetNX(ctx, "captcha:recent:"+respondentID.String(), time.Now().Unix(), window).Result()
}
