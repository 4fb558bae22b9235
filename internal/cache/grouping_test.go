package cache

import (
	"testing"

	"connect-service/internal/models"
)

func TestGroupingHelpers(t *testing.T) {
	// newest first: u2, u1, u1
	msgs := []models.Message{
		{ID: "m3", FromUserID: "u2"},
		{ID: "m2", FromUserID: "u1"},
		{ID: "m1", FromUserID: "u1"},
	}

	if !IsFirstInGroup(msgs, 2) {
		t.Fatalf("oldest of the u1 run must start a group")
	}
	if IsFirstInGroup(msgs, 1) {
		t.Fatalf("m2 continues the u1 run, it does not start one")
	}
	if !IsFirstInGroup(msgs, 0) {
		t.Fatalf("sender change must start a group")
	}

	if !IsConsecutiveFromSamePeer(msgs, 2) {
		t.Fatalf("m1 follows m2 from the same sender")
	}
	if IsConsecutiveFromSamePeer(msgs, 1) {
		t.Fatalf("m2 follows a message from a different sender")
	}
	if IsConsecutiveFromSamePeer(msgs, 0) {
		t.Fatalf("newest entry has no more recent neighbor")
	}

	if IsFirstInGroup(msgs, 3) || IsConsecutiveFromSamePeer(msgs, -1) {
		t.Fatalf("out of range indexes must report false")
	}
}
