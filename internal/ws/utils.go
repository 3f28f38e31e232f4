package ws

import (
	"time"

	"github.com/gorilla/websocket"
)

// ReadMessage reads and decodes one client message. It sets a read deadline
// wide enough to outlast the heartbeat timeout.
func ReadMessage(conn *websocket.Conn, v *ClientMessage) error {
	conn.SetReadDeadline(time.Now().Add(5 * time.Minute))
	return conn.ReadJSON(v)
}

// Read reads one client message off a registered connection.
func (c *Connection) Read(v *ClientMessage) error {
	return ReadMessage(c.sock, v)
}

// CloseWithPolicyViolation closes the raw socket before it was ever admitted
// to a room (auth failures on upgrade).
func CloseWithPolicyViolation(conn *websocket.Conn, reason string) {
	deadline := time.Now().Add(5 * time.Second)
	_ = conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.ClosePolicyViolation, reason),
		deadline,
	)
	_ = conn.Close()
}
