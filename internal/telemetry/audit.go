package telemetry

import (
	"context"
	"log"
	"time"
)

// Publisher delivers audit events to the event bus.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, event any) error
	Close() error
}

// AuditEvent is the flat envelope recorded for security-relevant actions:
// invite resolution, connection creation, channel publishes.
type AuditEvent struct {
	SchemaVersion int       `json:"schema_version"`
	EventType     string    `json:"event_type"`
	OccurredAt    time.Time `json:"occurred_at"`
	Service       string    `json:"service"`
	Environment   string    `json:"environment"`
	RequestID     string    `json:"request_id"`
	UserID        *string   `json:"user_id,omitempty"`
	Level         string    `json:"level"`
	Text          string    `json:"text"`
}

// AuditEmitter publishes audit events on a fixed routing key.
type AuditEmitter struct {
	publisher   Publisher
	routingKey  string
	service     string
	environment string
}

func NewAuditEmitter(publisher Publisher, routingKey, service, environment string) *AuditEmitter {
	return &AuditEmitter{
		publisher:   publisher,
		routingKey:  routingKey,
		service:     service,
		environment: environment,
	}
}

// Emit publishes one audit event. A nil emitter or publisher is a no-op so
// handlers can emit unconditionally.
func (e *AuditEmitter) Emit(ctx context.Context, level, text, requestID string, userID *string) {
	if e == nil || e.publisher == nil {
		return
	}

	evt := AuditEvent{
		SchemaVersion: 1,
		EventType:     "audit_log",
		OccurredAt:    time.Now().UTC(),
		Service:       e.service,
		Environment:   e.environment,
		RequestID:     requestID,
		UserID:        userID,
		Level:         level,
		Text:          text,
	}

	if err := e.publisher.Publish(ctx, e.routingKey, evt); err != nil {
		log.Printf("audit publish failed request_id=%s: %v", requestID, err)
	}
}
