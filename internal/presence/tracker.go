package presence

import (
	"sync"

	"connect-service/internal/pubsub"
)

// Tracker derives a chat's online flag from presence channel membership
// events. State is client-local only and never persisted.
type Tracker struct {
	mu          sync.Mutex
	localUserID string
	online      bool
}

// NewTracker builds a tracker for the local user.
func NewTracker(localUserID string) *Tracker {
	return &Tracker{localUserID: localUserID}
}

// OnSubscriptionSucceeded records the initial member list: online when
// someone besides the local user is already present.
func (t *Tracker) OnSubscriptionSucceeded(members pubsub.MembersPayload) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.online = members.Count > 1
}

// OnMemberAdded flips online for a different user's arrival.
func (t *Tracker) OnMemberAdded(member pubsub.MemberPayload) {
	if member.ID == t.localUserID {
		return
	}
	t.mu.Lock()
	t.online = true
	t.mu.Unlock()
}

// OnMemberRemoved flips offline for a different user's departure.
func (t *Tracker) OnMemberRemoved(member pubsub.MemberPayload) {
	if member.ID == t.localUserID {
		return
	}
	t.mu.Lock()
	t.online = false
	t.mu.Unlock()
}

// Online reports the derived flag.
func (t *Tracker) Online() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.online
}
