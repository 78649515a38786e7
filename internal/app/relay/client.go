/*
Package relay contains the real-time fan-out core: the connection registry,
the per-room unflushed message buffers, and the client read/write pumps.

This file defines the Client struct, representing one authenticated WebSocket
connection. It manages the connection lifecycle and the ReadPump/WritePump
message loops.
*/
package relay

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"groupchat/internal/pkg/logx"
	"groupchat/internal/pkg/randx"
)

const (
	// timeout duration for writing to the WebSocket connection.
	writeWait = 10 * time.Second

	// maximum time allowed for the server to wait for a Pong message from the client.
	pongWait = 60 * time.Second

	// frequency at which the server sends a Ping message.
	pingPeriod = (pongWait * 9) / 10

	// maximum allowed size (in bytes) of a message sent by the client.
	maxMessageSize = 8192

	// sendChannelBuffer sizes the per-connection outbound queue.
	sendChannelBuffer = 256
)

// Client represents one open WebSocket connection, tagged with the username
// resolved from its session token at handshake time.
type Client struct {
	// id uniquely identifies this connection; one user may hold several.
	id string

	// username is the authenticated identity stamped onto every message.
	username string

	conn *websocket.Conn

	relay *Relay

	// send queues outbound payloads for the WritePump.
	send chan []byte

	logger zerolog.Logger
}

// NewClient constructs a Client for an upgraded, authenticated connection.
func NewClient(r *Relay, conn *websocket.Conn, username string) *Client {
	id := randx.ConnectionID()

	clientLogger := logx.Logger().With().
		Str("connection_id", id).
		Str("username", username).
		Logger()

	return &Client{
		id:       id,
		username: username,
		conn:     conn,
		relay:    r,
		send:     make(chan []byte, sendChannelBuffer),
		logger:   clientLogger,
	}
}

// Username returns the connection's authenticated identity.
func (c *Client) Username() string { return c.username }

// ReadPump reads messages from the WebSocket connection, handles heartbeats
// (Pong), and forwards parsed chat events to the relay. It performs cleanup
// when the connection closes.
func (c *Client) ReadPump() {
	defer c.cleanupOnDisconnect()

	c.conn.SetReadLimit(maxMessageSize)

	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set read deadline")
		return
	}

	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, payload, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Info().Err(err).Msg("Error reading message (client close/going away)")
			}
			break
		}

		var msg InboundMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			c.logger.Warn().Err(err).Bytes("payload", payload).Msg("Client sent invalid JSON")
			continue
		}

		select {
		case c.relay.ingest <- inboundEvent{client: c, msg: msg}:
		case <-c.relay.stop:
			return
		}
	}
}

// cleanupOnDisconnect unregisters the connection and closes the socket when
// the ReadPump terminates.
func (c *Client) cleanupOnDisconnect() {
	c.logger.Info().Msg("Connection cleanup starting.")

	select {
	case c.relay.unregister <- c:
	case <-c.relay.stop:
	}

	if err := c.conn.Close(); err != nil {
		c.logger.Debug().Err(err).Msg("Connection close error")
	}
}

// WritePump writes queued payloads from the send channel to the WebSocket
// connection and keeps the heartbeat alive with periodic Pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()

		if err := c.conn.Close(); err != nil {
			c.logger.Debug().Err(err).Msg("Connection close error in WritePump")
		}
	}()

	for {
		select {
		case payload, ok := <-c.send:
			if !c.writeQueuedMessage(payload, ok) {
				return
			}

		case <-ticker.C:
			if !c.writePingMessage() {
				return
			}
		}
	}
}

// writeQueuedMessage writes one payload pulled from the send channel.
// Returns true if the WritePump loop should continue, false to terminate.
func (c *Client) writeQueuedMessage(payload []byte, ok bool) bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set write deadline")
		return false
	}

	if !ok {
		if err := c.conn.WriteMessage(websocket.CloseMessage, []byte{}); err != nil {
			c.logger.Debug().Err(err).Msg("Error writing close message")
		}
		return false
	}

	if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		c.logger.Error().Err(err).Msg("Error writing message")
		return false
	}

	return true
}

// writePingMessage sends a periodic WebSocket Ping to maintain the heartbeat.
// Returns false if the WritePump loop should terminate due to a write failure.
func (c *Client) writePingMessage() bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set write deadline on ping")
		return false
	}

	if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
		c.logger.Error().Err(err).Msg("Error writing ping")
		return false
	}

	return true
}
