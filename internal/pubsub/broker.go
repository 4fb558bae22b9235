package pubsub

import (
	"context"
	"log"
	"sort"
	"sync"

	"connect-service/internal/models"
	"connect-service/internal/observability"
)

// Subscriber is a live client attached to the fabric. Deliver must not block
// indefinitely; a failed delivery evicts the subscriber from all channels.
type Subscriber interface {
	Deliver(evt Event) error
}

// Relay forwards published events to other service instances. Optional.
type Relay interface {
	Relay(ctx context.Context, channel string, evt Event) error
}

type subscription struct {
	member *models.UserInfo
}

// Broker is the process-wide channel fabric: one instance per process,
// created at startup. Subscribe and Unsubscribe are idempotent and keyed by
// channel name; channel state is reference counted and a channel disappears
// once its last subscriber leaves.
type Broker struct {
	mu       sync.RWMutex
	channels map[string]map[Subscriber]*subscription
	bySub    map[Subscriber]map[string]struct{}
	relay    Relay
}

// NewBroker creates an empty broker.
func NewBroker() *Broker {
	return &Broker{
		channels: make(map[string]map[Subscriber]*subscription),
		bySub:    make(map[Subscriber]map[string]struct{}),
	}
}

// SetRelay attaches a cross-instance relay. Must be called before serving.
func (b *Broker) SetRelay(relay Relay) {
	b.relay = relay
}

// Subscribe adds the subscriber to the channel. Subscribing twice is a no-op.
// For presence channels the member identifies the subscriber to its peers:
// the new subscriber receives subscription_succeeded with the current member
// list, and other subscribers receive member_added when a new user id joins.
func (b *Broker) Subscribe(channel string, sub Subscriber, member *models.UserInfo) {
	kind := ParseChannel(channel)

	b.mu.Lock()
	subs, ok := b.channels[channel]
	if !ok {
		subs = make(map[Subscriber]*subscription)
		b.channels[channel] = subs
	}
	if _, exists := subs[sub]; exists {
		b.mu.Unlock()
		return
	}
	newUser := member != nil && !b.hasMemberLocked(channel, member.ID)
	subs[sub] = &subscription{member: member}
	if _, ok := b.bySub[sub]; !ok {
		b.bySub[sub] = make(map[string]struct{})
	}
	b.bySub[sub][channel] = struct{}{}

	var succeeded, added Event
	var peers []Subscriber
	if kind == KindPresence {
		members := b.membersLocked(channel)
		succeeded, _ = NewEvent(channel, EventSubscriptionSucceeded, MembersPayload{Count: len(members), Members: members})
		if newUser {
			added, _ = NewEvent(channel, EventMemberAdded, MemberPayload{ID: member.ID, Info: member})
			for peer := range subs {
				if peer != sub {
					peers = append(peers, peer)
				}
			}
		}
	}
	b.mu.Unlock()

	observability.IncChannelSubscribe(string(kind))
	if kind != KindPresence {
		return
	}
	if err := sub.Deliver(succeeded); err != nil {
		log.Printf("fabric deliver error channel=%s: %v", channel, err)
		b.Drop(sub)
		return
	}
	for _, peer := range peers {
		if err := peer.Deliver(added); err != nil {
			log.Printf("fabric deliver error channel=%s: %v", channel, err)
			b.Drop(peer)
		}
	}
}

// Unsubscribe removes the subscriber from the channel. Unsubscribing from a
// channel it never joined is a no-op.
func (b *Broker) Unsubscribe(channel string, sub Subscriber) {
	b.mu.Lock()
	removed, member := b.removeLocked(channel, sub)
	var departed Event
	var peers []Subscriber
	if removed && member != nil && !b.hasMemberLocked(channel, member.ID) {
		departed, _ = NewEvent(channel, EventMemberRemoved, MemberPayload{ID: member.ID})
		for peer := range b.channels[channel] {
			peers = append(peers, peer)
		}
	}
	b.mu.Unlock()

	if removed {
		observability.IncChannelUnsubscribe(string(ParseChannel(channel)))
	}
	for _, peer := range peers {
		if err := peer.Deliver(departed); err != nil {
			log.Printf("fabric deliver error channel=%s: %v", channel, err)
			b.Drop(peer)
		}
	}
}

// Drop releases every subscription held by the subscriber, emitting presence
// departures. Called on client disconnect.
func (b *Broker) Drop(sub Subscriber) {
	b.mu.RLock()
	channels := make([]string, 0, len(b.bySub[sub]))
	for channel := range b.bySub[sub] {
		channels = append(channels, channel)
	}
	b.mu.RUnlock()

	for _, channel := range channels {
		b.Unsubscribe(channel, sub)
	}
}

// Publish fans the event out to local subscribers and, when a relay is
// configured, to other instances.
func (b *Broker) Publish(ctx context.Context, channel string, evt Event) int {
	evt.Channel = channel
	delivered := b.publishLocal(channel, evt)
	if b.relay != nil {
		if err := b.relay.Relay(ctx, channel, evt); err != nil {
			log.Printf("fabric relay error channel=%s: %v", channel, err)
			observability.IncPublishError()
		}
	}
	observability.IncChannelPublish(string(ParseChannel(channel)), evt.Name)
	return delivered
}

// PublishLocal fans out to this instance only. Used by the relay receive path
// to avoid re-relaying.
func (b *Broker) PublishLocal(channel string, evt Event) int {
	evt.Channel = channel
	return b.publishLocal(channel, evt)
}

// SubscriberCount reports the live subscriber count for a channel.
func (b *Broker) SubscriberCount(channel string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.channels[channel])
}

// OnlineUserIDs lists users holding a live personal channel subscription,
// sorted for stable output. A user with several tabs appears once.
func (b *Broker) OnlineUserIDs() []string {
	b.mu.RLock()
	ids := make([]string, 0)
	for name, subs := range b.channels {
		if len(subs) == 0 {
			continue
		}
		if id := UserIDFromChannel(name); id != "" {
			ids = append(ids, id)
		}
	}
	b.mu.RUnlock()
	sort.Strings(ids)
	return ids
}

func (b *Broker) publishLocal(channel string, evt Event) int {
	b.mu.RLock()
	subs := make([]Subscriber, 0, len(b.channels[channel]))
	for sub := range b.channels[channel] {
		subs = append(subs, sub)
	}
	b.mu.RUnlock()

	delivered := 0
	for _, sub := range subs {
		if err := sub.Deliver(evt); err != nil {
			log.Printf("fabric deliver error channel=%s: %v", channel, err)
			b.Drop(sub)
			continue
		}
		delivered++
	}
	return delivered
}

// removeLocked deletes the subscription and returns its presence member.
func (b *Broker) removeLocked(channel string, sub Subscriber) (bool, *models.UserInfo) {
	subs, ok := b.channels[channel]
	if !ok {
		return false, nil
	}
	entry, exists := subs[sub]
	if !exists {
		return false, nil
	}
	delete(subs, sub)
	if len(subs) == 0 {
		delete(b.channels, channel)
	}
	if channels, ok := b.bySub[sub]; ok {
		delete(channels, channel)
		if len(channels) == 0 {
			delete(b.bySub, sub)
		}
	}
	return true, entry.member
}

func (b *Broker) hasMemberLocked(channel, userID string) bool {
	for _, entry := range b.channels[channel] {
		if entry.member != nil && entry.member.ID == userID {
			return true
		}
	}
	return false
}

// membersLocked returns the channel's unique members.
func (b *Broker) membersLocked(channel string) []models.UserInfo {
	seen := map[string]struct{}{}
	var members []models.UserInfo
	for _, entry := range b.channels[channel] {
		if entry.member == nil {
			continue
		}
		if _, ok := seen[entry.member.ID]; ok {
			continue
		}
		seen[entry.member.ID] = struct{}{}
		members = append(members, *entry.member)
	}
	return members
}
