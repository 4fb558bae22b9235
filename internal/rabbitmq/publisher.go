package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"log"

	amqp "github.com/rabbitmq/amqp091-go"

	"connect-service/internal/telemetry"
)

// Publisher delivers audit events to the broker, or logs them when AMQP is
// not configured.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, event any) error
	Close() error
}

// NewPublisher dials AMQP and declares the topic exchange. Any failure
// degrades to a log-only publisher so audit emission never blocks startup.
func NewPublisher(amqpURL, exchange string) Publisher {
	p, err := dial(amqpURL, exchange)
	if err != nil {
		log.Printf("audit publisher degraded to log-only: %v", err)
		return logPublisher{}
	}
	log.Printf("audit publisher connected exchange=%s", exchange)
	return p
}

func dial(amqpURL, exchange string) (*amqpPublisher, error) {
	if amqpURL == "" {
		return nil, errors.New("empty amqp url")
	}
	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}
	return &amqpPublisher{conn: conn, ch: ch, exchange: exchange}, nil
}

type amqpPublisher struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
}

func (p *amqpPublisher) Publish(ctx context.Context, routingKey string, event any) error {
	body, err := json.Marshal(event)
	if err != nil {
		return err
	}
	err = p.ch.PublishWithContext(ctx, p.exchange, routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	})
	if err != nil {
		log.Printf("audit publish to broker failed routing_key=%s: %v", routingKey, err)
	}
	return err
}

func (p *amqpPublisher) Close() error {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

// logPublisher writes the audit line to the process log instead of dropping it.
type logPublisher struct{}

func (logPublisher) Publish(_ context.Context, routingKey string, event any) error {
	if evt, ok := event.(telemetry.AuditEvent); ok {
		log.Printf("audit log-only routing_key=%s level=%s request_id=%s text=%q", routingKey, evt.Level, evt.RequestID, evt.Text)
		return nil
	}
	log.Printf("audit log-only routing_key=%s", routingKey)
	return nil
}

func (logPublisher) Close() error { return nil }

// PublisherMode reports which implementation NewPublisher produced.
func PublisherMode(p Publisher) string {
	if _, ok := p.(logPublisher); ok {
		return "log-only"
	}
	return "amqp"
}
