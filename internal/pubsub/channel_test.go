package pubsub

import "testing"

func TestParseChannel(t *testing.T) {
	cases := []struct {
		name string
		want ChannelKind
	}{
		{PublicChatChannel, KindPublic},
		{"chat42", KindPublic},
		{"private-chat42", KindPrivate},
		{"presence-chat42", KindPresence},
		{"private-user-u7", KindUser},
	}
	for _, tc := range cases {
		if got := ParseChannel(tc.name); got != tc.want {
			t.Fatalf("ParseChannel(%q) = %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestRequiresAuth(t *testing.T) {
	if KindPublic.RequiresAuth() {
		t.Fatalf("public channels must not require a grant")
	}
	for _, kind := range []ChannelKind{KindPrivate, KindPresence, KindUser} {
		if !kind.RequiresAuth() {
			t.Fatalf("%q must require a grant", kind)
		}
	}
}

func TestUserIDFromChannel(t *testing.T) {
	if got := UserIDFromChannel(UserChannel("u7")); got != "u7" {
		t.Fatalf("expected u7, got %q", got)
	}
	if got := UserIDFromChannel("private-chat42"); got != "" {
		t.Fatalf("expected empty for non-user channel, got %q", got)
	}
}
