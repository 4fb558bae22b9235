package cache

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"connect-service/internal/models"
	"connect-service/internal/pubsub"
	"connect-service/internal/repositories"
)

// State tracks the per-chat send lifecycle.
type State string

const (
	StateIdle              State = "idle"
	StateOptimisticPending State = "optimistic_pending"
	StateConfirmed         State = "confirmed"
	StateRolledBack        State = "rolled_back"
)

// EventPublisher emits fabric events for a sent message. Implemented by the
// HTTP publish client or directly by the broker.
type EventPublisher interface {
	PublishMessage(ctx context.Context, channel, event string, payload pubsub.MessagePayload) error
}

// Reconciler maintains one client's projection of a chat's message list,
// newest first. Sends are applied optimistically before the durable write
// resolves: on success the projection is invalidated against the store so the
// temporary entry is replaced by the authoritative record, on failure only
// the failed entry is removed, leaving concurrent updates intact.
//
// All mutations are serialized by the internal mutex; callers see a
// consistent snapshot at any point.
type Reconciler struct {
	mu        sync.Mutex
	store     repositories.MessageStore
	publisher EventPublisher
	user      models.UserInfo
	conn      models.Connection

	messages []models.Message
	state    State
	pending  map[string]struct{}
	snapshot []models.Message
}

// NewReconciler builds the projection for one chat. conn is the local user's
// directional row: FromUserID is the local user, ToUserID the peer.
func NewReconciler(store repositories.MessageStore, publisher EventPublisher, user models.UserInfo, conn models.Connection) *Reconciler {
	return &Reconciler{
		store:     store,
		publisher: publisher,
		user:      user,
		conn:      conn,
		state:     StateIdle,
		pending:   make(map[string]struct{}),
	}
}

// Load primes the projection from the store.
func (r *Reconciler) Load(ctx context.Context) error {
	msgs, err := r.store.ListMessages(ctx, r.conn.ChatID, 0, time.Time{})
	if err != nil {
		return err
	}
	r.mu.Lock()
	r.messages = msgs
	r.mu.Unlock()
	return nil
}

// Send applies the optimistic insert and fires the durable write. The
// returned message is the temporary local entry, visible immediately; the
// channel resolves once the write and reconciliation settle. The local user
// never waits on the network to see their own message.
func (r *Reconciler) Send(ctx context.Context, text string) (models.Message, <-chan error) {
	now := time.Now()
	temp := models.Message{
		ID:           models.TempIDPrefix + uuid.NewString(),
		ChatID:       r.conn.ChatID,
		ConnectionID: r.conn.ID,
		FromUserID:   r.user.ID,
		ToUserID:     r.conn.ToUserID,
		Text:         text,
		CreatedAt:    now,
		UpdatedAt:    now,
		FromUser:     &r.user,
	}

	r.mu.Lock()
	// Snapshot before mutation; kept for exact-rollback verification, not
	// wholesale restore.
	r.snapshot = append([]models.Message(nil), r.messages...)
	r.messages = append([]models.Message{temp}, r.messages...)
	r.pending[temp.ID] = struct{}{}
	r.state = StateOptimisticPending
	r.mu.Unlock()

	done := make(chan error, 1)
	go func() {
		msg, err := r.store.CreateMessage(ctx, r.conn.ChatID, r.conn.ID, r.user.ID, r.conn.ToUserID, text)
		if err != nil {
			r.rollback(temp.ID)
			done <- err
			return
		}
		r.confirm(ctx, temp.ID)
		r.publish(ctx, msg)
		done <- nil
	}()
	return temp, done
}

// confirm invalidates the projection against the store; the authoritative
// record replaces the temporary entry. A stale read between write success and
// refetch completion is acceptable and transient.
func (r *Reconciler) confirm(ctx context.Context, tempID string) {
	msgs, err := r.store.ListMessages(ctx, r.conn.ChatID, 0, time.Time{})

	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.pending, tempID)
	r.state = StateConfirmed
	if err != nil {
		// Refetch failure leaves the temp entry in place; the next query
		// flow reconciles it.
		log.Printf("cache invalidate failed chat=%s: %v", r.conn.ChatID, err)
		return
	}
	r.messages = msgs
}

// rollback removes only the failed optimistic entry. Concurrent inserts that
// landed after the snapshot survive.
func (r *Reconciler) rollback(tempID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.pending, tempID)
	kept := r.messages[:0:0]
	for _, m := range r.messages {
		if m.ID != tempID {
			kept = append(kept, m)
		}
	}
	r.messages = kept
	r.state = StateRolledBack
}

// publish emits the real-time events carrying the server-assigned id so
// receivers can dedup against the store record. Publish failures are logged
// and non-fatal: the store remains the source of truth.
func (r *Reconciler) publish(ctx context.Context, msg models.Message) {
	if r.publisher == nil {
		return
	}
	payload := pubsub.MessagePayload{
		MessageID: msg.ID,
		Text:      msg.Text,
		Sender:    r.user,
		CreatedAt: msg.CreatedAt,
	}
	if err := r.publisher.PublishMessage(ctx, pubsub.PrivateChatChannel(r.conn.ChatID), pubsub.EventMessage, payload); err != nil {
		log.Printf("publish message-event failed chat=%s: %v", r.conn.ChatID, err)
	}
	if err := r.publisher.PublishMessage(ctx, pubsub.UserChannel(r.conn.ToUserID), pubsub.EventMessageAlert, payload); err != nil {
		log.Printf("publish message-alert-event failed user=%s: %v", r.conn.ToUserID, err)
	}
}

// ApplyRemote merges an inbound real-time event into the projection. Returns
// false when the event is discarded: self-originated sends were already
// applied by the optimistic path, and payloads carrying a known server id are
// duplicates of an entry the refetch already confirmed.
func (r *Reconciler) ApplyRemote(payload pubsub.MessagePayload) bool {
	if payload.Sender.ID == r.user.ID {
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if payload.MessageID != "" {
		for _, m := range r.messages {
			if m.ID == payload.MessageID {
				return false
			}
		}
	}
	sender := payload.Sender
	now := time.Now()
	// The server id, when present, becomes the entry id so replayed copies
	// of the same event are caught by the scan above.
	id := payload.MessageID
	if id == "" {
		id = models.TempIDPrefix + uuid.NewString()
	}
	r.messages = append([]models.Message{{
		ID:           id,
		ChatID:       r.conn.ChatID,
		ConnectionID: r.conn.ID,
		FromUserID:   payload.Sender.ID,
		ToUserID:     r.user.ID,
		Text:         payload.Text,
		CreatedAt:    payload.CreatedAt,
		UpdatedAt:    now,
		FromUser:     &sender,
	}}, r.messages...)
	return true
}

// Invalidate refetches the authoritative list from the store.
func (r *Reconciler) Invalidate(ctx context.Context) error {
	msgs, err := r.store.ListMessages(ctx, r.conn.ChatID, 0, time.Time{})
	if err != nil {
		return err
	}
	r.mu.Lock()
	r.messages = msgs
	r.mu.Unlock()
	return nil
}

// Messages returns a copy of the projection, newest first.
func (r *Reconciler) Messages() []models.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.Message(nil), r.messages...)
}

// Snapshot returns the list captured at the last optimistic insert.
func (r *Reconciler) Snapshot() []models.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.Message(nil), r.snapshot...)
}

// State reports the current send lifecycle state.
func (r *Reconciler) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}
