package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aura-survey/backend/internal/models"
	"github.com/aura-survey/backend/internal/render"
	"github.com/aura-survey/backend/internal/session"
	"github.com/aura-survey/backend/internal/store/memory"
	"github.com/aura-survey/backend/pkg/response"
)

type call struct {
	path string
	auth string
	body map[string]any
}

func adapter(t *testing.T, status int, reply string) (*httptest.Server, *[]call) {
	t.Helper()
	var calls []call
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		calls = append(calls, call{path: r.URL.Path, auth: r.Header.Get("Authorization"), body: body})
		w.WriteHeader(status)
		_, _ = w.Write([]byte(reply))
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func TestHTTPChannelSendRender(t *testing.T) {
	srv, calls := adapter(t, http.StatusOK, `{"message_id": 42, "poll_widget_id": "p-1"}`)
	ch := NewHTTPChannel(srv.URL, "tok", time.Second, nil)

	d, err := ch.SendRender(context.Background(), 77, &render.Instruction{QuestionID: uuid.New(), Widget: render.WidgetNativePoll, Text: "Q"})
	require.NoError(t, err)
	assert.Equal(t, models.Delivery{ChatID: 77, MessageID: 42, PollWidgetID: "p-1"}, d)

	require.Len(t, *calls, 1)
	c := (*calls)[0]
	assert.Equal(t, PathSendRender, c.path)
	assert.Equal(t, "Bearer tok", c.auth)
	assert.Equal(t, float64(77), c.body["chat_id"])
	assert.Equal(t, "native_poll", c.body["render"].(map[string]any)["widget"])
}

func TestHTTPChannelTextAndDelete(t *testing.T) {
	srv, calls := adapter(t, http.StatusOK, ``)
	ch := NewHTTPChannel(srv.URL, "", time.Second, nil)

	d, err := ch.SendText(context.Background(), 5, "hello")
	require.NoError(t, err)
	assert.Equal(t, int64(5), d.ChatID)
	require.NoError(t, ch.DeleteOrEdit(context.Background(), models.Delivery{ChatID: 5, MessageID: 9}))

	require.Len(t, *calls, 2)
	assert.Equal(t, PathSendText, (*calls)[0].path)
	assert.Equal(t, "hello", (*calls)[0].body["text"])
	assert.Empty(t, (*calls)[0].auth)
	assert.Equal(t, PathDelete, (*calls)[1].path)
	assert.Equal(t, float64(9), (*calls)[1].body["message_id"])
}

func TestHTTPChannelStatusError(t *testing.T) {
	srv, _ := adapter(t, http.StatusBadGateway, `blocked by user`)
	ch := NewHTTPChannel(srv.URL, "", time.Second, nil)

	_, err := ch.SendText(context.Background(), 5, "x")
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusBadGateway, se.Status)
	assert.Equal(t, "blocked by user", se.Body)
}

func newEventsRouter(t *testing.T) (*gin.Engine, *memory.Store) {
	t.Helper()
	st := memory.New()
	poll := &models.Poll{Name: "P", Deadline: time.Now().Add(time.Hour), Reward: decimal.Zero}
	require.NoError(t, st.CreatePoll(context.Background(), poll, []models.Question{
		{Order: 1, Type: models.QuestionOpen, Text: models.Text("name?")},
	}))
	ctrl := session.NewController(session.Deps{
		Catalog: st, Respondents: st, Answers: st, Ledger: st, Channel: Discard{},
	})
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/v1/events", NewHandler(ctrl, nil).Event)
	return r, st
}

func postEvent(r http.Handler, body any) (*httptest.ResponseRecorder, map[string]any) {
	raw, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, "/v1/events", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	var env response.Body
	_ = json.Unmarshal(w.Body.Bytes(), &env)
	data, _ := env.Data.(map[string]any)
	return w, data
}

func TestEventHandlerStartRendersFirstQuestion(t *testing.T) {
	r, st := newEventsRouter(t)
	w, data := postEvent(r, map[string]any{
		"identity": map[string]any{"id": 11, "language": "ru"},
		"event":    map[string]any{"kind": "start"},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, string(session.KindRender), data["kind"])

	id, err := st.GetIdentity(context.Background(), 11)
	require.NoError(t, err)
	require.NotNil(t, id)
	assert.Equal(t, models.LangRu, id.Language)
	assert.Equal(t, int64(11), id.ChatID)
}

func TestEventHandlerRejectsBadInput(t *testing.T) {
	r, _ := newEventsRouter(t)
	w, _ := postEvent(r, map[string]any{"event": map[string]any{"kind": "start"}})
	assert.Equal(t, http.StatusBadRequest, w.Code, "identity required")

	w, _ = postEvent(r, map[string]any{
		"identity": map[string]any{"id": 1},
		"event":    map[string]any{"kind": "text"},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code, "text event without text")
}
