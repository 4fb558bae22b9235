package models

import (
	"strings"
	"time"
)

// TempIDPrefix marks client-generated placeholder ids that have not been
// confirmed by the store yet.
const TempIDPrefix = "temp-"

// Message represents one entry in a connection's append-only chat log.
type Message struct {
	ID           string    `db:"id" json:"id"`
	ChatID       string    `db:"chat_id" json:"chat_id"`
	ConnectionID string    `db:"connection_id" json:"connection_id"`
	FromUserID   string    `db:"from_user_id" json:"from_user_id"`
	ToUserID     string    `db:"to_user_id" json:"to_user_id"`
	Text         string    `db:"text" json:"text"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
	FromUser     *UserInfo `db:"-" json:"from_user,omitempty"`
	ToUser       *UserInfo `db:"-" json:"to_user,omitempty"`
}

// IsTemporary reports whether the message still carries a client placeholder id.
func (m Message) IsTemporary() bool {
	return strings.HasPrefix(m.ID, TempIDPrefix)
}
