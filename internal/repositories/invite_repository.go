package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"connect-service/internal/models"
)

var (
	ErrInviteNotFound   = errors.New("invite not found")
	ErrInviteNotPending = errors.New("invite is not pending")
)

// InviteRepository abstracts invite persistence.
type InviteRepository interface {
	CreateInvite(ctx context.Context, fromUserID, toUserID string) (models.Invite, error)
	ListSent(ctx context.Context, userID string) ([]models.Invite, error)
	ListReceived(ctx context.Context, userID string) ([]models.Invite, error)
	GetInvite(ctx context.Context, inviteID string) (models.Invite, error)
	UpdateStatus(ctx context.Context, inviteID string, status models.InviteStatus) (models.Invite, error)
	DeletePending(ctx context.Context, inviteID, fromUserID string) error
}

// InviteRepo is a sqlx implementation of InviteRepository.
type InviteRepo struct {
	db *sqlx.DB
}

// NewInviteRepo constructs an InviteRepo.
func NewInviteRepo(db *sqlx.DB) *InviteRepo {
	return &InviteRepo{db: db}
}

const inviteColumns = `id, from_user_id, to_user_id, status, created_at`

// CreateInvite inserts a PENDING invite.
func (r *InviteRepo) CreateInvite(ctx context.Context, fromUserID, toUserID string) (models.Invite, error) {
	if fromUserID == toUserID {
		return models.Invite{}, errors.New("cannot invite self")
	}
	var inv models.Invite
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO invites (id, from_user_id, to_user_id, status) VALUES ($1, $2, $3, $4) RETURNING `+inviteColumns,
		uuid.NewString(), fromUserID, toUserID, models.InviteStatusPending).StructScan(&inv)
	return inv, err
}

// ListSent returns invites the user sent.
func (r *InviteRepo) ListSent(ctx context.Context, userID string) ([]models.Invite, error) {
	var invites []models.Invite
	err := r.db.SelectContext(ctx, &invites,
		`SELECT `+inviteColumns+` FROM invites WHERE from_user_id=$1 ORDER BY created_at DESC`, userID)
	return invites, err
}

// ListReceived returns invites addressed to the user.
func (r *InviteRepo) ListReceived(ctx context.Context, userID string) ([]models.Invite, error) {
	var invites []models.Invite
	err := r.db.SelectContext(ctx, &invites,
		`SELECT `+inviteColumns+` FROM invites WHERE to_user_id=$1 ORDER BY created_at DESC`, userID)
	return invites, err
}

// GetInvite fetches a single invite.
func (r *InviteRepo) GetInvite(ctx context.Context, inviteID string) (models.Invite, error) {
	var inv models.Invite
	err := r.db.GetContext(ctx, &inv, `SELECT `+inviteColumns+` FROM invites WHERE id=$1`, inviteID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Invite{}, ErrInviteNotFound
	}
	return inv, err
}

// UpdateStatus moves the invite to a new lifecycle state, in place.
func (r *InviteRepo) UpdateStatus(ctx context.Context, inviteID string, status models.InviteStatus) (models.Invite, error) {
	var inv models.Invite
	err := r.db.QueryRowxContext(ctx,
		`UPDATE invites SET status=$2 WHERE id=$1 RETURNING `+inviteColumns, inviteID, status).StructScan(&inv)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Invite{}, ErrInviteNotFound
	}
	return inv, err
}

// DeletePending cancels a PENDING invite; only the sender may cancel.
func (r *InviteRepo) DeletePending(ctx context.Context, inviteID, fromUserID string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM invites WHERE id=$1 AND from_user_id=$2 AND status=$3`, inviteID, fromUserID, models.InviteStatusPending)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		var exists bool
		if err := r.db.GetContext(ctx,
			&exists, `SELECT EXISTS(SELECT 1 FROM invites WHERE id=$1 AND from_user_id=$2)`, inviteID, fromUserID); err != nil {
			return err
		}
		if exists {
			return ErrInviteNotPending
		}
		return ErrInviteNotFound
	}
	return nil
}
