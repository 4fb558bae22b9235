package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturePublisher struct {
	routingKey string
	events     []AuditEvent
	err        error
}

func (p *capturePublisher) Publish(_ context.Context, routingKey string, event any) error {
	p.routingKey = routingKey
	if evt, ok := event.(AuditEvent); ok {
		p.events = append(p.events, evt)
	}
	return p.err
}

func (p *capturePublisher) Close() error { return nil }

func TestAuditEmitterEmit(t *testing.T) {
	pub := &capturePublisher{}
	emitter := NewAuditEmitter(pub, "audit.connect", "connect-service", "test")

	userID := "u1"
	emitter.Emit(context.Background(), "INFO", "Invite accepted", "req-1", &userID)

	require.Len(t, pub.events, 1)
	evt := pub.events[0]
	assert.Equal(t, "audit.connect", pub.routingKey)
	assert.Equal(t, 1, evt.SchemaVersion)
	assert.Equal(t, "audit_log", evt.EventType)
	assert.Equal(t, "connect-service", evt.Service)
	assert.Equal(t, "test", evt.Environment)
	assert.Equal(t, "req-1", evt.RequestID)
	require.NotNil(t, evt.UserID)
	assert.Equal(t, "u1", *evt.UserID)
	assert.Equal(t, "INFO", evt.Level)
	assert.Equal(t, "Invite accepted", evt.Text)
	assert.False(t, evt.OccurredAt.IsZero())
}

func TestAuditEmitterNilSafe(t *testing.T) {
	var emitter *AuditEmitter
	emitter.Emit(context.Background(), "INFO", "ignored", "", nil)

	NewAuditEmitter(nil, "audit.connect", "connect-service", "test").
		Emit(context.Background(), "INFO", "ignored", "", nil)
}

func TestAuditEmitterSwallowsPublishError(t *testing.T) {
	pub := &capturePublisher{err: errors.New("broker down")}
	emitter := NewAuditEmitter(pub, "audit.connect", "connect-service", "test")

	emitter.Emit(context.Background(), "ERROR", "internal error", "req-2", nil)
	require.Len(t, pub.events, 1)
}
