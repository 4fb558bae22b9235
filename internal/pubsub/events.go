package pubsub

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"connect-service/internal/models"
)

// Event names carried on the fabric. message-event and message-alert-event
// are published by clients through the HTTP publish endpoint; the rest are
// emitted by the broker itself.
const (
	EventMessage               = "message-event"
	EventMessageAlert          = "message-alert-event"
	EventConnectionEstablished = "connection_established"
	EventSubscriptionSucceeded = "subscription_succeeded"
	EventMemberAdded           = "member_added"
	EventMemberRemoved         = "member_removed"
	EventSubscriptionError     = "subscription_error"
)

var ErrUnknownEvent = errors.New("unknown event name")

// Event is the envelope fanned out to channel subscribers.
type Event struct {
	Channel string          `json:"channel,omitempty"`
	Name    string          `json:"event"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// MessagePayload is the shape of message-event and message-alert-event.
// MessageID carries the server-assigned id once the durable write resolved,
// letting receivers dedup the real-time copy against the store record.
type MessagePayload struct {
	MessageID string          `json:"message_id,omitempty"`
	Text      string          `json:"text"`
	Sender    models.UserInfo `json:"sender"`
	CreatedAt time.Time       `json:"createdAt"`
}

// MemberPayload is the shape of member_added and member_removed.
type MemberPayload struct {
	ID   string           `json:"id"`
	Info *models.UserInfo `json:"info,omitempty"`
}

// MembersPayload is the shape of subscription_succeeded.
type MembersPayload struct {
	Count   int               `json:"count"`
	Members []models.UserInfo `json:"members"`
}

// NewEvent marshals a typed payload into an envelope.
func NewEvent(channel, name string, payload any) (Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}
	return Event{Channel: channel, Name: name, Data: data}, nil
}

// DecodeMessagePayload validates and decodes a message-shaped payload.
func DecodeMessagePayload(data json.RawMessage) (MessagePayload, error) {
	var p MessagePayload
	if err := json.Unmarshal(data, &p); err != nil {
		return MessagePayload{}, fmt.Errorf("decode message payload: %w", err)
	}
	if p.Text == "" {
		return MessagePayload{}, errors.New("message payload missing text")
	}
	if p.Sender.ID == "" {
		return MessagePayload{}, errors.New("message payload missing sender id")
	}
	return p, nil
}

// ValidateEvent checks a publish request at the fabric boundary. Only the
// tagged variants the fabric knows about are accepted.
func ValidateEvent(name string, data json.RawMessage) error {
	switch name {
	case EventMessage, EventMessageAlert:
		_, err := DecodeMessagePayload(data)
		return err
	default:
		return fmt.Errorf("%w: %s", ErrUnknownEvent, name)
	}
}
