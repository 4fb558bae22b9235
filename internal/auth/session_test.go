package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"connect-service/internal/models"
)

func TestSessionRoundTrip(t *testing.T) {
	s := NewTokenSessions("secret")
	user := models.UserInfo{ID: "u1", Name: "alice", Email: "alice@example.com"}

	token, err := s.Issue(user, time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	got, err := s.Validate(context.Background(), token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if got != user {
		t.Fatalf("expected %+v, got %+v", user, got)
	}
}

func TestSessionRejectsExpired(t *testing.T) {
	s := NewTokenSessions("secret")

	token, err := s.Issue(models.UserInfo{ID: "u1"}, -time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := s.Validate(context.Background(), token); !errors.Is(err, ErrInvalidSession) {
		t.Fatalf("expected ErrInvalidSession for expired token, got %v", err)
	}
}

func TestSessionRejectsTampering(t *testing.T) {
	s := NewTokenSessions("secret")
	other := NewTokenSessions("other")

	token, err := other.Issue(models.UserInfo{ID: "u1"}, time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := s.Validate(context.Background(), token); !errors.Is(err, ErrInvalidSession) {
		t.Fatalf("expected ErrInvalidSession for foreign signature, got %v", err)
	}

	if _, err := s.Validate(context.Background(), "not-a-token"); !errors.Is(err, ErrInvalidSession) {
		t.Fatalf("expected ErrInvalidSession for malformed token, got %v", err)
	}
}
