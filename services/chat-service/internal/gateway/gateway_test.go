package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/genzone/backend/libs/apperrors"
	"github.com/genzone/backend/services/chat-service/internal/events"
	"github.com/genzone/backend/services/chat-service/internal/models"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// mockValidator accepts the tokens it knows
type mockValidator struct {
	tokens map[string]int
}

func (m *mockValidator) ValidateAccessToken(token string) (int, int, error) {
	userID, ok := m.tokens[token]
	if !ok {
		return 0, 0, errors.New("invalid token")
	}
	return userID, 1, nil
}

// fakeSubscription hands out a channel the test writes to
type fakeSubscription struct {
	payloads chan []byte
	once     sync.Once
	closed   chan struct{}
}

func (s *fakeSubscription) Payloads() <-chan []byte { return s.payloads }

func (s *fakeSubscription) Close() error {
	s.once.Do(func() { close(s.closed) })
	return nil
}

type mockSubscriber struct {
	mu     sync.Mutex
	sub    *fakeSubscription
	userID int
	calls  int
	err    error
}

func (m *mockSubscriber) Subscribe(ctx context.Context, userID int) (events.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.userID = userID
	if m.err != nil {
		return nil, m.err
	}
	return m.sub, nil
}

// subscribed returns the number of Subscribe calls and the last user
func (m *mockSubscriber) subscribed() (int, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls, m.userID
}

type postCall struct {
	actorID        int
	conversationID int
	text           string
}

// mockPoster reports every call on a channel
type mockPoster struct {
	calls chan postCall
	err   error
}

func (m *mockPoster) PostMessage(ctx context.Context, actorID, conversationID int, text string) (*models.Message, error) {
	m.calls <- postCall{actorID: actorID, conversationID: conversationID, text: text}
	if m.err != nil {
		return nil, m.err
	}
	return &models.Message{ID: 1, ConversationID: conversationID, SenderID: actorID, Text: text}, nil
}

type testEnv struct {
	server     *httptest.Server
	subscriber *mockSubscriber
	poster     *mockPoster
}

func newTestEnv(t *testing.T, postErr error) *testEnv {
	t.Helper()
	env := &testEnv{
		subscriber: &mockSubscriber{sub: &fakeSubscription{payloads: make(chan []byte), closed: make(chan struct{})}},
		poster:     &mockPoster{calls: make(chan postCall, 1), err: postErr},
	}
	gw := NewGateway(&mockValidator{tokens: map[string]int{"good": 3}}, env.subscriber, env.poster, zap.NewNop(), []string{"*"})
	env.server = httptest.NewServer(gw)
	t.Cleanup(env.server.Close)
	return env
}

func (e *testEnv) dial(t *testing.T, token string) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	header := http.Header{}
	if token != "" {
		header.Set("Authorization", "Bearer "+token)
	}
	url := "ws" + strings.TrimPrefix(e.server.URL, "http")
	return websocket.DefaultDialer.Dial(url, header)
}

func readEvent(t *testing.T, conn *websocket.Conn) models.Event {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var event models.Event
	require.NoError(t, conn.ReadJSON(&event))
	return event
}

func TestGateway_RejectsBeforeUpgrade(t *testing.T) {
	tests := []struct {
		name  string
		token string
	}{
		{name: "missing token", token: ""},
		{name: "invalid token", token: "forged"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, nil)

			conn, resp, err := env.dial(t, tt.token)

			require.ErrorIs(t, err, websocket.ErrBadHandshake)
			assert.Nil(t, conn)
			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
			calls, _ := env.subscriber.subscribed()
			assert.Zero(t, calls, "no subscription without a valid token")
		})
	}
}

func TestGateway_SubscribeFailure(t *testing.T) {
	env := newTestEnv(t, nil)
	env.subscriber.err = errors.New("redis down")

	_, resp, err := env.dial(t, "good")

	require.ErrorIs(t, err, websocket.ErrBadHandshake)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestGateway_QueryToken(t *testing.T) {
	env := newTestEnv(t, nil)
	url := "ws" + strings.TrimPrefix(env.server.URL, "http") + "?token=good"

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	_, userID := env.subscriber.subscribed()
	assert.Equal(t, 3, userID)
}

func TestGateway_ForwardsEvents(t *testing.T) {
	env := newTestEnv(t, nil)
	conn, _, err := env.dial(t, "good")
	require.NoError(t, err)
	defer conn.Close()

	payload, err := json.Marshal(models.Event{
		Type:    models.EventMessageCreated,
		Message: &models.Message{ID: 7, ConversationID: 2, SenderID: 9, Text: "hi"},
	})
	require.NoError(t, err)
	env.subscriber.sub.payloads <- payload

	event := readEvent(t, conn)
	assert.Equal(t, models.EventMessageCreated, event.Type)
	require.NotNil(t, event.Message)
	assert.Equal(t, "hi", event.Message.Text)
	_, userID := env.subscriber.subscribed()
	assert.Equal(t, 3, userID)
}

func TestGateway_PostsInboundFrames(t *testing.T) {
	env := newTestEnv(t, nil)
	conn, _, err := env.dial(t, "good")
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(models.InboundFrame{ConversationID: 2, Text: "hello"}))

	select {
	case call := <-env.poster.calls:
		assert.Equal(t, postCall{actorID: 3, conversationID: 2, text: "hello"}, call)
	case <-time.After(2 * time.Second):
		t.Fatal("frame was not posted")
	}
}

func TestGateway_ErrorEvents(t *testing.T) {
	t.Run("rejected post", func(t *testing.T) {
		env := newTestEnv(t, apperrors.Forbidden("only participants can post to this conversation"))
		conn, _, err := env.dial(t, "good")
		require.NoError(t, err)
		defer conn.Close()

		require.NoError(t, conn.WriteJSON(models.InboundFrame{ConversationID: 2, Text: "hello"}))
		<-env.poster.calls

		event := readEvent(t, conn)
		assert.Equal(t, models.EventError, event.Type)
		assert.Equal(t, string(apperrors.KindForbidden), event.Code)
	})

	t.Run("internal errors are not leaked", func(t *testing.T) {
		env := newTestEnv(t, errors.New("connection refused"))
		conn, _, err := env.dial(t, "good")
		require.NoError(t, err)
		defer conn.Close()

		require.NoError(t, conn.WriteJSON(models.InboundFrame{ConversationID: 2, Text: "hello"}))
		<-env.poster.calls

		event := readEvent(t, conn)
		assert.Equal(t, "internal server error", event.Error)
	})

	t.Run("malformed frame", func(t *testing.T) {
		env := newTestEnv(t, nil)
		conn, _, err := env.dial(t, "good")
		require.NoError(t, err)
		defer conn.Close()

		require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))

		event := readEvent(t, conn)
		assert.Equal(t, string(apperrors.KindValidation), event.Code)
	})
}

func TestGateway_ClosesSubscriptionOnDisconnect(t *testing.T) {
	env := newTestEnv(t, nil)
	conn, _, err := env.dial(t, "good")
	require.NoError(t, err)

	require.NoError(t, conn.Close())

	select {
	case <-env.subscriber.sub.closed:
	case <-time.After(2 * time.Second):
		t.Fatal("subscription was not closed")
	}
}
