// Package gateway serves chat events over WebSocket.
// A connection is authenticated before the upgrade, then receives every event published
// to its user's channel and may post messages by sending {"conversation_id", "text"} frames.
package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"slices"
	"time"

	"github.com/genzone/backend/libs/apperrors"
	"github.com/genzone/backend/libs/auth/middleware"
	"github.com/genzone/backend/libs/handlers"
	"github.com/genzone/backend/services/chat-service/internal/events"
	"github.com/genzone/backend/services/chat-service/internal/models"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxFrameSize   = 16 * 1024
	outboundBuffer = 16
)

var activeConnections = promauto.NewGauge(
	prometheus.GaugeOpts{
		Name: "chat_websocket_connections",
		Help: "Number of open chat WebSocket connections",
	},
)

// Subscriber is the interface that wraps subscription to a user's event channel
type Subscriber interface {
	Subscribe(ctx context.Context, userID int) (events.Subscription, error)
}

// MessagePoster is the interface that wraps posting a message on behalf of a user
type MessagePoster interface {
	PostMessage(ctx context.Context, actorID, conversationID int, text string) (*models.Message, error)
}

// Gateway upgrades authenticated requests to WebSocket connections
type Gateway struct {
	handlers.BaseHandler
	validator  middleware.AccessTokenValidator
	subscriber Subscriber
	poster     MessagePoster
	upgrader   websocket.Upgrader
}

// NewGateway creates a new WebSocket gateway. Browsers are accepted from allowedOrigins; "*" accepts any origin.
func NewGateway(validator middleware.AccessTokenValidator, subscriber Subscriber, poster MessagePoster, logger *zap.Logger, allowedOrigins []string) *Gateway {
	wildcard := slices.Contains(allowedOrigins, "*")
	return &Gateway{
		BaseHandler: handlers.BaseHandler{Logger: logger},
		validator:   validator,
		subscriber:  subscriber,
		poster:      poster,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return wildcard || origin == "" || slices.Contains(allowedOrigins, origin)
			},
		},
	}
}

// RegisterRoutes registers the WebSocket endpoint
func (g *Gateway) RegisterRoutes(r chi.Router) {
	r.Get("/ws", g.ServeHTTP)
}

// token reads the access token from the Authorization header, the access_token cookie
// or, for browser clients that cannot set headers on WebSocket requests, the token query parameter
func token(r *http.Request) string {
	if t := middleware.ExtractToken(r); t != "" {
		return t
	}
	return r.URL.Query().Get("token")
}

// ServeHTTP handles GET /ws
// @Summary Chat WebSocket
// @Description Upgrades to a WebSocket that streams message.created events and accepts {"conversation_id","text"} frames
// @Tags conversations
// @Param token query string false "Access token for clients that cannot send headers"
// @Success 101 "Switching protocols"
// @Failure 401 {object} handlers.ErrorResponse "Unauthorized"
// @Router /ws [get]
func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	raw := token(r)
	if raw == "" {
		g.RespondAppError(w, r, apperrors.Unauthenticated("authentication required"))
		return
	}
	userID, _, err := g.validator.ValidateAccessToken(raw)
	if err != nil {
		g.RespondAppError(w, r, apperrors.Unauthenticated("invalid or expired token"))
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	sub, err := g.subscriber.Subscribe(ctx, userID)
	if err != nil {
		g.RespondAppError(w, r, apperrors.Internal("failed to subscribe to events", err))
		return
	}
	defer sub.Close()

	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already answered the client
		g.Logger.Debug("WebSocket upgrade failed", zap.Int("user_id", userID), zap.Error(err))
		return
	}
	defer conn.Close()

	activeConnections.Inc()
	defer activeConnections.Dec()
	g.Logger.Info("WebSocket connected", zap.Int("user_id", userID))

	out := make(chan []byte, outboundBuffer)
	readDone := make(chan struct{})
	go func() {
		defer close(readDone)
		g.readLoop(ctx, conn, userID, out)
	}()

	g.writeLoop(conn, sub.Payloads(), out, readDone)
	g.Logger.Info("WebSocket disconnected", zap.Int("user_id", userID))
}

// writeLoop is the only writer of conn. It returns when the client goes away or the subscription ends.
func (g *Gateway) writeLoop(conn *websocket.Conn, payloads <-chan []byte, out <-chan []byte, readDone <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	write := func(messageType int, data []byte) bool {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		return conn.WriteMessage(messageType, data) == nil
	}

	for {
		select {
		case payload, ok := <-payloads:
			if !ok || !write(websocket.TextMessage, payload) {
				return
			}
		case payload := <-out:
			if !write(websocket.TextMessage, payload) {
				return
			}
		case <-ticker.C:
			if !write(websocket.PingMessage, nil) {
				return
			}
		case <-readDone:
			return
		}
	}
}

// readLoop posts inbound frames until the connection fails. Rejected frames are answered with an error event.
func (g *Gateway) readLoop(ctx context.Context, conn *websocket.Conn, userID int, out chan<- []byte) {
	conn.SetReadLimit(maxFrameSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				g.Logger.Warn("WebSocket read failed", zap.Int("user_id", userID), zap.Error(err))
			}
			return
		}

		var frame models.InboundFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			err = apperrors.Validation("body", "frame must be a JSON object with conversation_id and text")
			if !g.reply(ctx, out, g.errorEvent(userID, err)) {
				return
			}
			continue
		}

		// success needs no reply, the message.created event arrives through the subscription
		if _, err := g.poster.PostMessage(ctx, userID, frame.ConversationID, frame.Text); err != nil {
			if !g.reply(ctx, out, g.errorEvent(userID, err)) {
				return
			}
		}
	}
}

func (g *Gateway) reply(ctx context.Context, out chan<- []byte, event models.Event) bool {
	payload, err := json.Marshal(event)
	if err != nil {
		return false
	}
	select {
	case out <- payload:
		return true
	case <-ctx.Done():
		return false
	}
}

func (g *Gateway) errorEvent(userID int, err error) models.Event {
	kind := apperrors.KindOf(err)
	message := apperrors.MessageOf(err)
	if kind == apperrors.KindInternal {
		g.Logger.Error("WebSocket frame failed", zap.Int("user_id", userID), zap.Error(err))
		message = "internal server error"
	}
	return models.Event{Type: models.EventError, Error: message, Code: string(kind)}
}
