package cache

import "connect-service/internal/models"

// Display grouping helpers for a newest-first message list: index i-1 is more
// recent than i, i+1 is older. Presentational only, not a correctness
// invariant.

// IsFirstInGroup reports whether the message at i is the oldest of a
// consecutive run from the same sender.
func IsFirstInGroup(msgs []models.Message, i int) bool {
	if i < 0 || i >= len(msgs) {
		return false
	}
	return i+1 >= len(msgs) || msgs[i+1].FromUserID != msgs[i].FromUserID
}

// IsConsecutiveFromSamePeer reports whether the message at i continues a run:
// the more recent neighbor was sent by the same user.
func IsConsecutiveFromSamePeer(msgs []models.Message, i int) bool {
	if i <= 0 || i >= len(msgs) {
		return false
	}
	return msgs[i-1].FromUserID == msgs[i].FromUserID
}
