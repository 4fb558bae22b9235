package ws

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"

	"connect-service/internal/auth"
	"connect-service/internal/models"
	"connect-service/internal/observability"
	"connect-service/internal/pubsub"
)

// Handler upgrades fabric websocket connections and drives their
// subscribe/unsubscribe frames against the broker.
type Handler struct {
	broker     *pubsub.Broker
	authorizer *auth.Authorizer
	sessions   auth.Sessions
}

// NewHandler constructs a Handler.
func NewHandler(broker *pubsub.Broker, authorizer *auth.Authorizer, sessions auth.Sessions) *Handler {
	return &Handler{broker: broker, authorizer: authorizer, sessions: sessions}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handle upgrades the connection, assigns a socket id and serves channel
// commands until the client disconnects. Anonymous connections are allowed;
// they can only join channels that need no grant.
func (h *Handler) Handle(c *gin.Context) {
	ctx, span := otel.Tracer("connect-service/ws").Start(c.Request.Context(), "ws.handshake")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	var user *models.UserInfo
	if token := c.Query("token"); token != "" {
		sessionUser, err := h.sessions.Validate(c.Request.Context(), token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		user = &sessionUser
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	traceID := span.SpanContext().TraceID().String()
	requestID := c.Request.Header.Get("X-Request-Id")
	info := ConnInfo{
		SocketID:    newSocketID(),
		DeviceID:    c.Request.Header.Get("X-Device-Id"),
		IP:          clientIP(c.Request),
		RequestID:   requestID,
		TraceID:     traceID,
		ConnectedAt: time.Now(),
	}
	if user != nil {
		info.UserID = user.ID
	}
	client := newClient(conn, user, info)

	established, _ := pubsub.NewEvent("", pubsub.EventConnectionEstablished, gin.H{"socket_id": info.SocketID})
	if err := client.Deliver(established); err != nil {
		conn.Close()
		return
	}

	observability.IncWSActive()
	observability.IncWSEvent("ws_connect")
	observability.PublishSocketEvent(ctx, observability.SocketEvent{
		Name:     "ws_connect",
		SocketID: info.SocketID,
		UserID:   info.UserID,
		DeviceID: info.DeviceID,
		IP:       info.IP,
	}, requestID, traceID)

	go func() {
		var closeReason string
		defer func() {
			h.broker.Drop(client)
			observability.DecWSActive()
			observability.IncWSEvent("ws_disconnect")
			observability.PublishSocketEvent(ctx, observability.SocketEvent{
				Name:       "ws_disconnect",
				SocketID:   info.SocketID,
				UserID:     info.UserID,
				DeviceID:   info.DeviceID,
				IP:         info.IP,
				Reason:     closeReason,
				DurationMS: time.Since(info.ConnectedAt).Milliseconds(),
			}, requestID, traceID)
			conn.Close()
		}()
		for {
			_, frame, err := conn.ReadMessage()
			if err != nil {
				closeReason = err.Error()
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					observability.IncWSEvent("ws_error")
				}
				return
			}

			var cmd command
			if err := json.Unmarshal(frame, &cmd); err != nil {
				h.deliverError(client, cmd.Channel, "malformed frame")
				continue
			}
			h.handleCommand(client, cmd)
		}
	}()
}

func (h *Handler) handleCommand(client *Client, cmd command) {
	switch cmd.Event {
	case "subscribe":
		kind := pubsub.ParseChannel(cmd.Channel)
		if kind.RequiresAuth() {
			if !h.authorizer.Verify(client.info.SocketID, cmd.Channel, cmd.Auth, cmd.ChannelData) {
				observability.IncWSEvent("subscription_rejected")
				h.deliverError(client, cmd.Channel, "unauthorized")
				return
			}
		}

		member := client.user
		if kind == pubsub.KindPresence {
			// Presence membership comes from the signed channel data, so
			// peers see exactly what the grant embedded.
			var data auth.PresenceData
			if err := json.Unmarshal([]byte(cmd.ChannelData), &data); err != nil || data.UserID == "" {
				h.deliverError(client, cmd.Channel, "invalid channel data")
				return
			}
			member = &data.UserInfo
		}
		h.broker.Subscribe(cmd.Channel, client, member)

	case "unsubscribe":
		h.broker.Unsubscribe(cmd.Channel, client)

	default:
		h.deliverError(client, cmd.Channel, "unknown command")
	}
}

func (h *Handler) deliverError(client *Client, channel, reason string) {
	evt, _ := pubsub.NewEvent(channel, pubsub.EventSubscriptionError, gin.H{"reason": reason})
	_ = client.Deliver(evt)
}
