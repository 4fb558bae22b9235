package models

import "time"

type InviteStatus string

const (
	InviteStatusPending  InviteStatus = "PENDING"
	InviteStatusAccepted InviteStatus = "ACCEPTED"
	InviteStatusRejected InviteStatus = "REJECTED"
)

// Valid reports whether the status is one of the known lifecycle states.
func (s InviteStatus) Valid() bool {
	switch s {
	case InviteStatusPending, InviteStatusAccepted, InviteStatusRejected:
		return true
	}
	return false
}

// Invite is a pending request from one user to another to establish a
// connection. Accepting it creates the connection pair; the invite row itself
// is updated in place, never duplicated.
type Invite struct {
	ID         string       `db:"id" json:"id"`
	FromUserID string       `db:"from_user_id" json:"from_user_id"`
	ToUserID   string       `db:"to_user_id" json:"to_user_id"`
	Status     InviteStatus `db:"status" json:"status"`
	CreatedAt  time.Time    `db:"created_at" json:"created_at"`
}
