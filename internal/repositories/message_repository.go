package repositories

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"connect-service/internal/models"
)

var (
	ErrEmptyText          = errors.New("message text is empty")
	ErrConnectionMismatch = errors.New("connection does not match chat")
)

// MessageStore is the durable message log contract consumed by handlers and
// the cache reconciler. Messages are append-only: no update or delete.
type MessageStore interface {
	ListMessages(ctx context.Context, chatID string, limit int, before time.Time) ([]models.Message, error)
	CreateMessage(ctx context.Context, chatID, connectionID, fromUserID, toUserID, text string) (models.Message, error)
}

// MessageRepo is a sqlx-backed MessageStore.
type MessageRepo struct {
	db *sqlx.DB
}

// NewMessageRepo constructs MessageRepo.
func NewMessageRepo(db *sqlx.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

const messageColumns = `id, chat_id, connection_id, from_user_id, to_user_id, text, created_at, updated_at`

// ListMessages returns the chat's messages in strictly non-increasing
// created_at order. A zero limit returns the full history; a non-zero before
// cursor pages further back.
func (r *MessageRepo) ListMessages(ctx context.Context, chatID string, limit int, before time.Time) ([]models.Message, error) {
	query := `SELECT ` + messageColumns + ` FROM messages WHERE chat_id=$1`
	args := []any{chatID}
	if !before.IsZero() {
		query += ` AND created_at < $2`
		args = append(args, before)
	}
	query += ` ORDER BY created_at DESC`
	if limit > 0 {
		args = append(args, limit)
		if len(args) == 3 {
			query += ` LIMIT $3`
		} else {
			query += ` LIMIT $2`
		}
	}

	var msgs []models.Message
	err := r.db.SelectContext(ctx, &msgs, query, args...)
	return msgs, err
}

// CreateMessage validates the input against the connection table and appends
// one row. Existing rows are never mutated.
func (r *MessageRepo) CreateMessage(ctx context.Context, chatID, connectionID, fromUserID, toUserID, text string) (models.Message, error) {
	if strings.TrimSpace(text) == "" {
		return models.Message{}, ErrEmptyText
	}

	var ok bool
	err := r.db.GetContext(ctx, &ok,
		`SELECT EXISTS(SELECT 1 FROM connections WHERE id=$1 AND chat_id=$2 AND from_user_id=$3 AND to_user_id=$4)`,
		connectionID, chatID, fromUserID, toUserID)
	if err != nil {
		return models.Message{}, err
	}
	if !ok {
		return models.Message{}, ErrConnectionMismatch
	}

	var msg models.Message
	err = r.db.QueryRowxContext(ctx,
		`INSERT INTO messages (id, chat_id, connection_id, from_user_id, to_user_id, text) VALUES ($1, $2, $3, $4, $5, $6) RETURNING `+messageColumns,
		uuid.NewString(), chatID, connectionID, fromUserID, toUserID, text).StructScan(&msg)
	return msg, err
}
