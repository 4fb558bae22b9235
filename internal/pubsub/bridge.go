package pubsub

import (
	"context"
	"encoding/json"
	"log"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const bridgeStream = "fabric-events"

// relayedEvent is the wire form exchanged between instances over Redis.
type relayedEvent struct {
	Origin  string `json:"origin"`
	Channel string `json:"channel"`
	Event   Event  `json:"event"`
}

// RedisBridge relays published events across service instances via Redis
// pub/sub. Each instance tags relayed events with its own id and ignores its
// echoes.
type RedisBridge struct {
	rdb        *redis.Client
	broker     *Broker
	instanceID string
}

// NewRedisBridge connects to Redis and wires itself as the broker's relay.
// An empty url disables the bridge (nil, nil), matching the log-only
// fallback convention used for AMQP.
func NewRedisBridge(url string, broker *Broker) (*RedisBridge, error) {
	if url == "" {
		log.Printf("redis bridge disabled: empty redis url")
		return nil, nil
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	bridge := &RedisBridge{
		rdb:        redis.NewClient(opts),
		broker:     broker,
		instanceID: uuid.NewString(),
	}
	broker.SetRelay(bridge)
	log.Printf("redis bridge connected instance=%s", bridge.instanceID)
	return bridge, nil
}

// Relay publishes the event to the shared Redis stream.
func (b *RedisBridge) Relay(ctx context.Context, channel string, evt Event) error {
	body, err := json.Marshal(relayedEvent{Origin: b.instanceID, Channel: channel, Event: evt})
	if err != nil {
		return err
	}
	return b.rdb.Publish(ctx, bridgeStream, body).Err()
}

// Run consumes relayed events until the context is cancelled. Events
// originating from this instance are dropped to avoid double delivery.
func (b *RedisBridge) Run(ctx context.Context) {
	sub := b.rdb.Subscribe(ctx, bridgeStream)
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var relayed relayedEvent
			if err := json.Unmarshal([]byte(msg.Payload), &relayed); err != nil {
				log.Printf("redis bridge decode error: %v", err)
				continue
			}
			if relayed.Origin == b.instanceID {
				continue
			}
			b.broker.PublishLocal(relayed.Channel, relayed.Event)
		}
	}
}

// Close releases the Redis connection.
func (b *RedisBridge) Close() error {
	return b.rdb.Close()
}
