package pubsub

import "strings"

// ChannelKind classifies a channel by its naming convention.
type ChannelKind string

const (
	// KindPublic covers chat-public and any bare chat id channel.
	KindPublic ChannelKind = "public"
	// KindPrivate covers private-<chatId>.
	KindPrivate ChannelKind = "private"
	// KindPresence covers presence-<chatId>.
	KindPresence ChannelKind = "presence"
	// KindUser covers private-user-<userId> personal alert streams.
	KindUser ChannelKind = "user"
)

const PublicChatChannel = "chat-public"

// ParseChannel maps a channel name to its kind.
func ParseChannel(name string) ChannelKind {
	switch {
	case strings.HasPrefix(name, "presence-"):
		return KindPresence
	case strings.HasPrefix(name, "private-user-"):
		return KindUser
	case strings.HasPrefix(name, "private-"):
		return KindPrivate
	default:
		return KindPublic
	}
}

// RequiresAuth reports whether subscribing needs a signed grant.
func (k ChannelKind) RequiresAuth() bool {
	return k != KindPublic
}

// PrivateChatChannel names the private channel of a chat.
func PrivateChatChannel(chatID string) string {
	return "private-" + chatID
}

// PresenceChannel names the membership-tracking channel of a chat.
func PresenceChannel(chatID string) string {
	return "presence-" + chatID
}

// UserChannel names a user's personal notification stream.
func UserChannel(userID string) string {
	return "private-user-" + userID
}

// UserIDFromChannel extracts the user id from a personal channel name; empty
// for any other kind.
func UserIDFromChannel(name string) string {
	if ParseChannel(name) != KindUser {
		return ""
	}
	return strings.TrimPrefix(name, "private-user-")
}
