package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"connect-service/internal/models"
)

// PushRepository stores web push subscriptions.
type PushRepository interface {
	SaveSubscription(ctx context.Context, userID, endpoint, p256dh, auth string) (models.PushSubscription, error)
	ListForUser(ctx context.Context, userID string) ([]models.PushSubscription, error)
	DeleteByEndpoint(ctx context.Context, endpoint string) error
}

// PushRepo is a sqlx implementation of PushRepository.
type PushRepo struct {
	db *sqlx.DB
}

// NewPushRepo constructs a PushRepo.
func NewPushRepo(db *sqlx.DB) *PushRepo {
	return &PushRepo{db: db}
}

// SaveSubscription upserts the subscription keyed by (user, endpoint).
func (r *PushRepo) SaveSubscription(ctx context.Context, userID, endpoint, p256dh, auth string) (models.PushSubscription, error) {
	var sub models.PushSubscription
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO push_subscriptions (id, user_id, endpoint, p256dh, auth) VALUES ($1, $2, $3, $4, $5)
        ON CONFLICT (user_id, endpoint) DO UPDATE SET p256dh = EXCLUDED.p256dh, auth = EXCLUDED.auth
        RETURNING id, user_id, endpoint, p256dh, auth, created_at`,
		uuid.NewString(), userID, endpoint, p256dh, auth).StructScan(&sub)
	return sub, err
}

// ListForUser returns the user's stored subscriptions.
func (r *PushRepo) ListForUser(ctx context.Context, userID string) ([]models.PushSubscription, error) {
	var subs []models.PushSubscription
	err := r.db.SelectContext(ctx, &subs,
		`SELECT id, user_id, endpoint, p256dh, auth, created_at FROM push_subscriptions WHERE user_id=$1`, userID)
	return subs, err
}

// DeleteByEndpoint drops a dead endpoint (e.g. after a 410 from the push service).
func (r *PushRepo) DeleteByEndpoint(ctx context.Context, endpoint string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM push_subscriptions WHERE endpoint=$1`, endpoint)
	return err
}
