package ws

import "time"

type ConnInfo struct {
	SocketID    string
	UserID      string
	DeviceID    string
	IP          string
	RequestID   string
	TraceID     string
	ConnectedAt time.Time
}
