package models

import "time"

// Connection is one directional half of a relationship between two users.
// Connections are always created in pairs (A→B and B→A) sharing one chat id.
type Connection struct {
	ID         string    `db:"id" json:"id"`
	FromUserID string    `db:"from_user_id" json:"from_user_id"`
	ToUserID   string    `db:"to_user_id" json:"to_user_id"`
	ChatID     string    `db:"chat_id" json:"chat_id"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// ConnectionPair holds both directional rows produced by a single create.
type ConnectionPair struct {
	To   Connection `json:"to"`
	From Connection `json:"from"`
}

// UserInfo is the public slice of a user embedded in events and presence grants.
type UserInfo struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Image string `json:"image,omitempty"`
}
