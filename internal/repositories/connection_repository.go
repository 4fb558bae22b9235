package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"connect-service/internal/models"
)

var ErrConnectionNotFound = errors.New("connection not found")

// ConnectionRepository abstracts connection persistence.
type ConnectionRepository interface {
	CreatePair(ctx context.Context, fromUserID, toUserID string) (models.ConnectionPair, error)
	GetByChatID(ctx context.Context, chatID string, fromUserID string) (models.Connection, error)
	ListForUser(ctx context.Context, userID string) ([]models.Connection, error)
	Exists(ctx context.Context, connectionID, chatID string) (bool, error)
}

// ConnectionRepo is a sqlx implementation of ConnectionRepository.
type ConnectionRepo struct {
	db *sqlx.DB
}

// NewConnectionRepo constructs a ConnectionRepo.
func NewConnectionRepo(db *sqlx.DB) *ConnectionRepo {
	return &ConnectionRepo{db: db}
}

const connectionColumns = `id, from_user_id, to_user_id, chat_id, created_at`

// CreatePair atomically inserts both directional rows for a user pair,
// sharing one freshly generated chat id. If the pair is already connected the
// existing rows are returned and no chat id is generated, so a chat id is
// never reused for a different unordered pair.
func (r *ConnectionRepo) CreatePair(ctx context.Context, fromUserID, toUserID string) (models.ConnectionPair, error) {
	if fromUserID == toUserID {
		return models.ConnectionPair{}, errors.New("cannot connect user to self")
	}

	var existing models.Connection
	err := r.db.GetContext(ctx, &existing,
		`SELECT `+connectionColumns+` FROM connections WHERE from_user_id=$1 AND to_user_id=$2`, fromUserID, toUserID)
	if err == nil {
		var reverse models.Connection
		if err := r.db.GetContext(ctx, &reverse,
			`SELECT `+connectionColumns+` FROM connections WHERE from_user_id=$1 AND to_user_id=$2`, toUserID, fromUserID); err != nil {
			return models.ConnectionPair{}, err
		}
		return models.ConnectionPair{To: existing, From: reverse}, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return models.ConnectionPair{}, err
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.ConnectionPair{}, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	chatID := uuid.NewString()
	var pair models.ConnectionPair
	if err = tx.QueryRowxContext(ctx,
		`INSERT INTO connections (id, from_user_id, to_user_id, chat_id) VALUES ($1, $2, $3, $4) RETURNING `+connectionColumns,
		uuid.NewString(), fromUserID, toUserID, chatID).StructScan(&pair.To); err != nil {
		return models.ConnectionPair{}, err
	}
	if err = tx.QueryRowxContext(ctx,
		`INSERT INTO connections (id, from_user_id, to_user_id, chat_id) VALUES ($1, $2, $3, $4) RETURNING `+connectionColumns,
		uuid.NewString(), toUserID, fromUserID, chatID).StructScan(&pair.From); err != nil {
		return models.ConnectionPair{}, err
	}

	if err = tx.Commit(); err != nil {
		return models.ConnectionPair{}, err
	}
	return pair, nil
}

// GetByChatID fetches the directional row from fromUserID's side of the chat.
func (r *ConnectionRepo) GetByChatID(ctx context.Context, chatID string, fromUserID string) (models.Connection, error) {
	var conn models.Connection
	err := r.db.GetContext(ctx, &conn,
		`SELECT `+connectionColumns+` FROM connections WHERE chat_id=$1 AND from_user_id=$2`, chatID, fromUserID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Connection{}, ErrConnectionNotFound
	}
	return conn, err
}

// ListForUser returns the user's outgoing directional rows, newest first.
func (r *ConnectionRepo) ListForUser(ctx context.Context, userID string) ([]models.Connection, error) {
	var conns []models.Connection
	err := r.db.SelectContext(ctx, &conns,
		`SELECT `+connectionColumns+` FROM connections WHERE from_user_id=$1 ORDER BY created_at DESC`, userID)
	return conns, err
}

// Exists checks that a connection row exists and carries the given chat id.
func (r *ConnectionRepo) Exists(ctx context.Context, connectionID, chatID string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS(SELECT 1 FROM connections WHERE id=$1 AND chat_id=$2)`, connectionID, chatID)
	return exists, err
}
