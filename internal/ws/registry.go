package ws

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// Role distinguishes the host (teacher) sockets from participant sockets
// within a room.
type Role string

const (
	RoleHost        Role = "host"
	RoleParticipant Role = "participant"
)

const writeTimeout = 10 * time.Second

// Connection wraps one WebSocket with its room metadata. Writes are
// serialised through writeMu so frames to a single connection keep enqueue
// order.
type Connection struct {
	SessionID     uuid.UUID
	Role          Role
	PrincipalID   string
	DisplayName   string
	ParticipantID *uuid.UUID
	ConnectedAt   time.Time

	sock    *websocket.Conn
	writeMu sync.Mutex

	hbMu          sync.Mutex
	lastHeartbeat time.Time

	closeOnce sync.Once
	done      chan struct{}
}

func (c *Connection) touch(now time.Time) {
	c.hbMu.Lock()
	c.lastHeartbeat = now
	c.hbMu.Unlock()
}

func (c *Connection) lastSeen() time.Time {
	c.hbMu.Lock()
	defer c.hbMu.Unlock()
	return c.lastHeartbeat
}

// Registry is the in-process mapping session_id → set of connections.
// It owns the rooms map; all mutation goes through its mutex.
type Registry struct {
	mu    sync.RWMutex
	rooms map[uuid.UUID]map[*Connection]struct{}

	heartbeatInterval time.Duration
	heartbeatTimeout  time.Duration
	log               zerolog.Logger
}

// NewRegistry creates a room registry with the given heartbeat policy.
func NewRegistry(heartbeatInterval, heartbeatTimeout time.Duration, log zerolog.Logger) *Registry {
	return &Registry{
		rooms:             make(map[uuid.UUID]map[*Connection]struct{}),
		heartbeatInterval: heartbeatInterval,
		heartbeatTimeout:  heartbeatTimeout,
		log:               log.With().Str("component", "room_registry").Logger(),
	}
}

// Connect accepts an upgraded socket into a room, sends the
// connection_established frame and spawns the heartbeat loop.
func (r *Registry) Connect(sock *websocket.Conn, sessionID uuid.UUID, role Role, principalID, displayName string, participantID *uuid.UUID) *Connection {
	now := time.Now()
	c := &Connection{
		SessionID:     sessionID,
		Role:          role,
		PrincipalID:   principalID,
		DisplayName:   displayName,
		ParticipantID: participantID,
		ConnectedAt:   now,
		sock:          sock,
		lastHeartbeat: now,
		done:          make(chan struct{}),
	}

	r.mu.Lock()
	room, ok := r.rooms[sessionID]
	if !ok {
		room = make(map[*Connection]struct{})
		r.rooms[sessionID] = room
	}
	room[c] = struct{}{}
	r.mu.Unlock()

	r.Send(c, NewEnvelope(EventConnectionEstablished, map[string]any{
		"session_id":   sessionID,
		"role":         role,
		"display_name": displayName,
	}))

	go r.heartbeatLoop(c)

	r.log.Debug().
		Str("session_id", sessionID.String()).
		Str("role", string(role)).
		Str("display_name", displayName).
		Msg("Connection registered")

	return c
}

// Disconnect removes a connection from its room, stops its heartbeat loop
// and drops the room when the last connection leaves. Safe to call twice.
func (r *Registry) Disconnect(c *Connection) {
	c.closeOnce.Do(func() {
		close(c.done)

		r.mu.Lock()
		if room, ok := r.rooms[c.SessionID]; ok {
			delete(room, c)
			if len(room) == 0 {
				delete(r.rooms, c.SessionID)
			}
		}
		r.mu.Unlock()

		_ = c.sock.Close()

		r.log.Debug().
			Str("session_id", c.SessionID.String()).
			Str("display_name", c.DisplayName).
			Msg("Connection removed")
	})
}

// Touch records a pong from the client.
func (r *Registry) Touch(c *Connection) {
	c.touch(time.Now())
}

// Send writes one frame to a single connection, best-effort. Any failure
// disconnects that connection.
func (r *Registry) Send(c *Connection, env Envelope) {
	c.writeMu.Lock()
	c.sock.SetWriteDeadline(time.Now().Add(writeTimeout))
	err := c.sock.WriteJSON(env)
	c.writeMu.Unlock()

	if err != nil {
		r.log.Debug().Err(err).
			Str("session_id", c.SessionID.String()).
			Msg("Send failed, disconnecting")
		r.Disconnect(c)
	}
}

// Broadcast fans one frame out to every connection in a room. Per-connection
// failures isolate to that connection; the call returns without waiting for
// delivery.
func (r *Registry) Broadcast(sessionID uuid.UUID, env Envelope, exclude *Connection) {
	r.fanOut(sessionID, env, func(c *Connection) bool { return c != exclude })
}

// BroadcastHosts sends a frame to host connections only.
func (r *Registry) BroadcastHosts(sessionID uuid.UUID, env Envelope) {
	r.fanOut(sessionID, env, func(c *Connection) bool { return c.Role == RoleHost })
}

// BroadcastParticipants sends a frame to participant connections only.
func (r *Registry) BroadcastParticipants(sessionID uuid.UUID, env Envelope) {
	r.fanOut(sessionID, env, func(c *Connection) bool { return c.Role == RoleParticipant })
}

func (r *Registry) fanOut(sessionID uuid.UUID, env Envelope, include func(*Connection) bool) {
	r.mu.RLock()
	room := r.rooms[sessionID]
	targets := make([]*Connection, 0, len(room))
	for c := range room {
		if include(c) {
			targets = append(targets, c)
		}
	}
	r.mu.RUnlock()

	for _, c := range targets {
		go r.Send(c, env)
	}
}

// RoomSize returns the number of open connections in a room.
func (r *Registry) RoomSize(sessionID uuid.UUID) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms[sessionID])
}

// ParticipantCount returns the number of participant-role connections.
func (r *Registry) ParticipantCount(sessionID uuid.UUID) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for c := range r.rooms[sessionID] {
		if c.Role == RoleParticipant {
			n++
		}
	}
	return n
}

// heartbeatLoop pings the client every heartbeatInterval and force-closes
// the connection when no pong arrived within heartbeatTimeout.
func (r *Registry) heartbeatLoop(c *Connection) {
	ticker := time.NewTicker(r.heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			if time.Since(c.lastSeen()) > r.heartbeatTimeout {
				r.log.Info().
					Str("session_id", c.SessionID.String()).
					Str("display_name", c.DisplayName).
					Msg("Heartbeat timeout, closing connection")
				c.writeMu.Lock()
				c.sock.SetWriteDeadline(time.Now().Add(writeTimeout))
				_ = c.sock.WriteControl(
					websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "heartbeat timeout"),
					time.Now().Add(writeTimeout),
				)
				c.writeMu.Unlock()
				r.Disconnect(c)
				return
			}
			r.Send(c, NewEnvelope(EventPing, nil))
		}
	}
}
