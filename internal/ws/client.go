package ws

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"

	"connect-service/internal/models"
	"connect-service/internal/pubsub"
)

// Client is one live websocket connection registered with the broker.
// Deliveries can arrive from any publishing goroutine, so writes are
// serialized with a mutex.
type Client struct {
	conn *websocket.Conn
	user *models.UserInfo
	info ConnInfo

	mu sync.Mutex
}

func newClient(conn *websocket.Conn, user *models.UserInfo, info ConnInfo) *Client {
	return &Client{conn: conn, user: user, info: info}
}

// Deliver writes the event frame to the socket.
func (c *Client) Deliver(evt pubsub.Event) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, payload)
}

// command is a subscribe/unsubscribe frame sent by the client.
type command struct {
	Event       string `json:"event"`
	Channel     string `json:"channel"`
	Auth        string `json:"auth,omitempty"`
	ChannelData string `json:"channel_data,omitempty"`
}
