package auth

import (
	"encoding/json"
	"errors"
	"testing"

	"connect-service/internal/models"
)

func TestAuthorizeRequiresSession(t *testing.T) {
	a := NewAuthorizer("key", "secret")

	if _, err := a.Authorize("1.1", "private-chat1", nil, "u1"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized without a session, got %v", err)
	}

	user := models.UserInfo{ID: "u1", Name: "alice"}
	if _, err := a.Authorize("1.1", "private-chat1", &user, "u2"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized on claimed id mismatch, got %v", err)
	}
}

func TestAuthorizeAndVerifyPrivateChannel(t *testing.T) {
	a := NewAuthorizer("key", "secret")
	user := models.UserInfo{ID: "u1", Name: "alice"}

	grant, err := a.Authorize("1.1", "private-chat1", &user, "u1")
	if err != nil {
		t.Fatalf("authorize: %v", err)
	}
	if grant.ChannelData != "" {
		t.Fatalf("private grants must not carry channel data")
	}
	if !a.Verify("1.1", "private-chat1", grant.Auth, "") {
		t.Fatalf("grant must verify for the same socket and channel")
	}
	if a.Verify("2.2", "private-chat1", grant.Auth, "") {
		t.Fatalf("grant must be bound to the socket id")
	}
	if a.Verify("1.1", "private-chat2", grant.Auth, "") {
		t.Fatalf("grant must be bound to the channel")
	}
}

func TestAuthorizePresenceEmbedsMember(t *testing.T) {
	a := NewAuthorizer("key", "secret")
	user := models.UserInfo{ID: "u1", Name: "alice"}

	grant, err := a.Authorize("1.1", "presence-chat1", &user, "u1")
	if err != nil {
		t.Fatalf("authorize: %v", err)
	}

	var data PresenceData
	if err := json.Unmarshal([]byte(grant.ChannelData), &data); err != nil {
		t.Fatalf("channel data must be json: %v", err)
	}
	if data.UserID != "u1" || data.UserInfo.Name != "alice" {
		t.Fatalf("unexpected presence data: %+v", data)
	}
	if !a.Verify("1.1", "presence-chat1", grant.Auth, grant.ChannelData) {
		t.Fatalf("presence grant must verify with its channel data")
	}
	if a.Verify("1.1", "presence-chat1", grant.Auth, `{"user_id":"u2"}`) {
		t.Fatalf("tampered channel data must fail verification")
	}
}

func TestAuthorizeUserChannelOwnerOnly(t *testing.T) {
	a := NewAuthorizer("key", "secret")
	user := models.UserInfo{ID: "u1"}

	if _, err := a.Authorize("1.1", "private-user-u1", &user, "u1"); err != nil {
		t.Fatalf("owner must be granted: %v", err)
	}
	if _, err := a.Authorize("1.1", "private-user-u2", &user, "u1"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for someone else's stream, got %v", err)
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	a := NewAuthorizer("key", "secret")
	b := NewAuthorizer("key", "other")
	user := models.UserInfo{ID: "u1"}

	grant, err := a.Authorize("1.1", "private-chat1", &user, "u1")
	if err != nil {
		t.Fatalf("authorize: %v", err)
	}
	if b.Verify("1.1", "private-chat1", grant.Auth, "") {
		t.Fatalf("grant signed with a different secret must fail")
	}
}
