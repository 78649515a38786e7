/*
Package relay contains the real-time fan-out core: the connection registry,
the per-room unflushed message buffers, and the client read/write pumps.

This file defines the Relay struct, a single-goroutine event loop consuming
typed events (register, unregister, ingest) and producing two effects: block
persistence through the conversation store and broadcast to the other open
connections.
*/
package relay

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"groupchat/internal/app/store"
	"groupchat/internal/pkg/errs"
	"groupchat/internal/pkg/logx"
)

const (
	// ingestChannelBuffer sizes the relay's ingest channel.
	ingestChannelBuffer = 256

	// persistTimeout bounds a single block write to the document store.
	persistTimeout = 5 * time.Second
)

// ConversationStore is the slice of the document store the relay needs: the
// fire-and-forget block persistence effect.
type ConversationStore interface {
	AddConversation(ctx context.Context, block store.ConversationBlock) error
}

// inboundEvent pairs a chat message with the connection that sent it.
type inboundEvent struct {
	client *Client
	msg    InboundMessage
}

// Relay maintains the set of open connections, ingests chat messages from
// authenticated clients, batches them into fixed-size conversation blocks,
// and fans each message out to every other open connection.
type Relay struct {
	store     ConversationStore
	buffers   *Buffers
	blockSize int

	// clients is the connection registry, keyed by connection ID. Only the
	// Run goroutine touches it.
	clients map[string]*Client

	// register and unregister are unbuffered. A connection is registered with
	// a blocking hand-off before its pumps start, so its disconnect can never
	// reach the loop first and leave a zombie entry in the registry.
	register   chan *Client
	unregister chan *Client
	ingest     chan inboundEvent

	stop chan struct{}
	done chan struct{}

	now func() int64

	logger zerolog.Logger
}

// New constructs a Relay. Call Run in its own goroutine and Shutdown to stop it.
func New(cs ConversationStore, buffers *Buffers, blockSize int) *Relay {
	return &Relay{
		store:      cs,
		buffers:    buffers,
		blockSize:  blockSize,
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		ingest:     make(chan inboundEvent, ingestChannelBuffer),
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
		now:        func() int64 { return time.Now().UnixMilli() },
		logger:     logx.Logger().With().Str("component", "relay").Logger(),
	}
}

// Run is the relay's event loop. Handling every event on one goroutine keeps
// a single connection's messages in send order and makes the buffer flush
// atomic with respect to concurrent ingestion.
func (r *Relay) Run() {
	defer close(r.done)

	for {
		select {
		case client := <-r.register:
			r.clients[client.id] = client
			r.logger.Info().
				Str("connection_id", client.id).
				Str("username", client.username).
				Int("total_connections", len(r.clients)).
				Msg("Connection registered.")

		case client := <-r.unregister:
			if current, ok := r.clients[client.id]; ok && current == client {
				delete(r.clients, client.id)
				close(client.send)
				r.logger.Info().
					Str("connection_id", client.id).
					Str("username", client.username).
					Int("total_connections", len(r.clients)).
					Msg("Connection removed.")
			}

		case ev := <-r.ingest:
			r.handleIngest(ev)

		case <-r.stop:
			r.logger.Info().Int("total_connections", len(r.clients)).Msg("Relay stopping, closing all connections.")
			for id, client := range r.clients {
				close(client.send)
				delete(r.clients, id)
			}
			return
		}
	}
}

// Register hands a connection to the event loop. The hand-off blocks until
// the loop has taken it, so a later disconnect for the same connection is
// guaranteed to find it in the registry.
func (r *Relay) Register(client *Client) {
	select {
	case r.register <- client:
	case <-r.stop:
	}
}

// Shutdown stops the event loop and waits for it to finish. Clients' write
// pumps terminate when their send channels close.
func (r *Relay) Shutdown() {
	close(r.stop)
	<-r.done
}

// handleIngest runs the message pipeline: blank rejection, identity stamping,
// sanitization, buffering with block flush, and fan-out.
func (r *Relay) handleIngest(ev inboundEvent) {
	if strings.TrimSpace(ev.msg.Text) == "" {
		r.logger.Debug().
			Str("connection_id", ev.client.id).
			Str("room_id", ev.msg.RoomID).
			Msg("Dropping blank message.")
		return
	}

	msg := store.Message{
		Username: ev.client.username,
		Text:     Sanitize(ev.msg.Text),
	}

	if block := r.buffers.Append(ev.msg.RoomID, msg, r.blockSize, r.now()); block != nil {
		r.persistBlock(block)
	}

	r.broadcast(ev.client, OutboundMessage{
		RoomID:   ev.msg.RoomID,
		Username: msg.Username,
		Text:     msg.Text,
	})
}

// persistBlock writes a completed block to the document store. A storage
// failure is logged and otherwise ignored: the buffer has already been reset
// and broadcast must not be blocked on persistence.
func (r *Relay) persistBlock(block *store.ConversationBlock) {
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	if err := r.store.AddConversation(ctx, *block); err != nil {
		r.logger.Error().
			Err(err).
			Int("error_code", errs.ErrPersistenceFailure).
			Str("room_id", block.RoomID).
			Int64("timestamp", block.Timestamp).
			Int("messages", len(block.Messages)).
			Msg("Failed to persist conversation block; block lost, chat continues.")
	}
}

// broadcast fans the message out to every open connection except the sender,
// which renders its own message optimistically. A connection with a full or
// closing send queue is skipped; its own pumps handle teardown.
func (r *Relay) broadcast(sender *Client, msg OutboundMessage) {
	payload, err := json.Marshal(msg)
	if err != nil {
		r.logger.Error().Err(err).Str("room_id", msg.RoomID).Msg("Failed to marshal broadcast message.")
		return
	}

	for _, client := range r.clients {
		if client == sender {
			continue
		}

		select {
		case client.send <- payload:
		default:
			r.logger.Warn().
				Str("connection_id", client.id).
				Msg("Connection send queue full, dropping broadcast.")
		}
	}
}
