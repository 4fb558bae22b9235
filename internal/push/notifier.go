package push

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	webpush "github.com/SherClockHolmes/webpush-go"

	"connect-service/internal/pubsub"
	"connect-service/internal/repositories"
)

// Notifier delivers message alerts over web push when the recipient has no
// live personal channel subscriber.
type Notifier struct {
	repo         repositories.PushRepository
	subject      string
	vapidPublic  string
	vapidPrivate string
}

// NewNotifier builds a Notifier. Missing VAPID keys are generated at startup
// so a fresh deployment works out of the box; supply stable keys via env in
// production or browser subscriptions break on restart.
func NewNotifier(repo repositories.PushRepository, subject, vapidPublic, vapidPrivate string) (*Notifier, error) {
	if vapidPublic == "" || vapidPrivate == "" {
		priv, pub, err := webpush.GenerateVAPIDKeys()
		if err != nil {
			return nil, err
		}
		vapidPrivate, vapidPublic = priv, pub
		log.Printf("push: generated ephemeral VAPID keys")
	}
	return &Notifier{
		repo:         repo,
		subject:      subject,
		vapidPublic:  vapidPublic,
		vapidPrivate: vapidPrivate,
	}, nil
}

// VAPIDPublicKey is handed to browsers for subscription.
func (n *Notifier) VAPIDPublicKey() string {
	return n.vapidPublic
}

// NotifyMessageAlert pushes the alert payload to every stored subscription of
// the user. Dead endpoints are pruned.
func (n *Notifier) NotifyMessageAlert(ctx context.Context, userID string, payload pubsub.MessagePayload) {
	subs, err := n.repo.ListForUser(ctx, userID)
	if err != nil {
		log.Printf("push: list subscriptions failed user=%s: %v", userID, err)
		return
	}
	if len(subs) == 0 {
		return
	}

	body, err := json.Marshal(payload)
	if err != nil {
		log.Printf("push: marshal alert failed: %v", err)
		return
	}

	for _, sub := range subs {
		target := &webpush.Subscription{
			Endpoint: sub.Endpoint,
			Keys:     webpush.Keys{P256dh: sub.P256dh, Auth: sub.Auth},
		}
		resp, err := webpush.SendNotification(body, target, &webpush.Options{
			Subscriber:      n.subject,
			VAPIDPublicKey:  n.vapidPublic,
			VAPIDPrivateKey: n.vapidPrivate,
			TTL:             60,
		})
		if err != nil {
			log.Printf("push: send failed user=%s: %v", userID, err)
			continue
		}
		if resp.StatusCode == http.StatusGone || resp.StatusCode == http.StatusNotFound {
			if err := n.repo.DeleteByEndpoint(ctx, sub.Endpoint); err != nil {
				log.Printf("push: prune endpoint failed: %v", err)
			}
		}
		resp.Body.Close()
	}
}
