// Package chat connects the session controller to the transport adapter that owns the chat
// platform: outbound sends go to the adapter's callback API, inbound events arrive on /v1/events.
package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/aura-survey/backend/internal/models"
	"github.com/aura-survey/backend/internal/render"
)

// Callback paths on the adapter.
const (
	PathSendRender = "/send_render"
	PathSendText   = "/send_text"
	PathDelete     = "/delete"
)

type renderRequest struct {
	ChatID int64               `json:"chat_id"`
	Render *render.Instruction `json:"render"`
}

type textRequest struct {
	ChatID int64  `json:"chat_id"`
	Text   string `json:"text"`
}

type deliveryResponse struct {
	ChatID       int64  `json:"chat_id"`
	MessageID    int64  `json:"message_id"`
	PollWidgetID string `json:"poll_widget_id"`
}

// StatusError is a non-2xx reply from the adapter.
type StatusError struct {
	Path   string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("chat %s: status %d: %s", e.Path, e.Status, e.Body)
}

// HTTPChannel delivers through the adapter's callback API.
type HTTPChannel struct {
	baseURL string
	token   string
	client  *http.Client
	logger  *zap.Logger
}

// NewHTTPChannel creates a channel posting to baseURL with a bearer token.
func NewHTTPChannel(baseURL, token string, timeout time.Duration, logger *zap.Logger) *HTTPChannel {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPChannel{baseURL: baseURL, token: token, client: &http.Client{Timeout: timeout}, logger: logger}
}

// SendRender sends a question and returns its correlation ids.
func (h *HTTPChannel) SendRender(ctx context.Context, chatID int64, in *render.Instruction) (models.Delivery, error) {
	var out deliveryResponse
	if err := h.post(ctx, PathSendRender, renderRequest{ChatID: chatID, Render: in}, &out); err != nil {
		return models.Delivery{}, err
	}
	return out.delivery(chatID), nil
}

// SendText sends a plain message.
func (h *HTTPChannel) SendText(ctx context.Context, chatID int64, text string) (models.Delivery, error) {
	var out deliveryResponse
	if err := h.post(ctx, PathSendText, textRequest{ChatID: chatID, Text: text}, &out); err != nil {
		return models.Delivery{}, err
	}
	return out.delivery(chatID), nil
}

// DeleteOrEdit asks the adapter to remove a delivered message (or close its poll widget).
func (h *HTTPChannel) DeleteOrEdit(ctx context.Context, d models.Delivery) error {
	return h.post(ctx, PathDelete, deliveryResponse(d), nil)
}

func (d deliveryResponse) delivery(chatID int64) models.Delivery {
	if d.ChatID == 0 {
		d.ChatID = chatID
	}
	return models.Delivery(d)
}

func (h *HTTPChannel) post(ctx context.Context, path string, body, out any) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", path, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if h.token != "" {
		req.Header.Set("Authorization", "Bearer "+h.token)
	}
	resp, err := h.client.Do(req)
	if err != nil {
		return fmt.Errorf("chat %s: %w", path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{Path: path, Status: resp.StatusCode, Body: string(msg)}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && err != io.EOF {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// Discard drops every outbound message. It is used when no adapter is configured; the
// outcome is still returned to the caller of /v1/events.
type Discard struct {
	Logger *zap.Logger
}

func (d Discard) SendRender(_ context.Context, chatID int64, in *render.Instruction) (models.Delivery, error) {
	d.log().Debug("render discarded", zap.Int64("chat_id", chatID), zap.String("question_id", in.QuestionID.String()))
	return models.Delivery{}, nil
}

func (d Discard) SendText(_ context.Context, chatID int64, _ string) (models.Delivery, error) {
	d.log().Debug("text discarded", zap.Int64("chat_id", chatID))
	return models.Delivery{}, nil
}

func (d Discard) DeleteOrEdit(context.Context, models.Delivery) error { return nil }

func (d Discard) log() *zap.Logger {
	if d.Logger == nil {
		return zap.NewNop()
	}
	return d.Logger
}
