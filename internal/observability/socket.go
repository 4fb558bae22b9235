package observability

import (
	"context"
	"log"
)

// SocketEvent describes one websocket lifecycle transition on the fabric.
type SocketEvent struct {
	Name       string `json:"name"`
	SocketID   string `json:"socket_id"`
	UserID     string `json:"user_id,omitempty"`
	DeviceID   string `json:"device_id,omitempty"`
	IP         string `json:"ip,omitempty"`
	Reason     string `json:"reason,omitempty"`
	DurationMS int64  `json:"duration_ms,omitempty"`
}

var socketPublisher Publisher

// SetPublisher installs the process-wide socket event publisher.
// Nil leaves socket event publishing off.
func SetPublisher(p Publisher) {
	socketPublisher = p
}

// PublishSocketEvent ships the event under the socket.<name> routing key with
// request and trace correlation headers. Failures are counted and logged,
// never surfaced to the caller.
func PublishSocketEvent(ctx context.Context, evt SocketEvent, requestID, traceID string) {
	if socketPublisher == nil {
		return
	}
	headers := map[string]string{}
	if requestID != "" {
		headers["x-request-id"] = requestID
	}
	if traceID != "" {
		headers["trace_id"] = traceID
	}
	if err := socketPublisher.PublishJSON(ctx, "socket."+evt.Name, evt, headers); err != nil {
		IncAMQPPublishError()
		log.Printf("socket event publish failed event=%s socket=%s: %v", evt.Name, evt.SocketID, err)
	}
}
