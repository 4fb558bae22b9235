package pubsub

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestValidateEventAcceptsMessageVariants(t *testing.T) {
	data := json.RawMessage(`{"text":"hi","sender":{"id":"u1","name":"alice"}}`)
	if err := ValidateEvent(EventMessage, data); err != nil {
		t.Fatalf("message-event rejected: %v", err)
	}
	if err := ValidateEvent(EventMessageAlert, data); err != nil {
		t.Fatalf("message-alert-event rejected: %v", err)
	}
}

func TestValidateEventRejectsUnknownName(t *testing.T) {
	err := ValidateEvent("typing-event", json.RawMessage(`{}`))
	if !errors.Is(err, ErrUnknownEvent) {
		t.Fatalf("expected ErrUnknownEvent, got %v", err)
	}
}

func TestDecodeMessagePayloadRejectsMalformed(t *testing.T) {
	cases := []string{
		`not json`,
		`{"sender":{"id":"u1"}}`,
		`{"text":"hi"}`,
		`{"text":"hi","sender":{}}`,
	}
	for _, raw := range cases {
		if _, err := DecodeMessagePayload(json.RawMessage(raw)); err == nil {
			t.Fatalf("expected %s to be rejected", raw)
		}
	}
}
