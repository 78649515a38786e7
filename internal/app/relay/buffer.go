/*
Package relay contains the real-time fan-out core: the connection registry,
the per-room unflushed message buffers, and the client read/write pumps.

This file defines the Buffers struct holding each room's unpersisted message
tail. Append and block promotion happen under one lock, so two concurrent
messages can never both observe a nearly full buffer and double-flush.
*/
package relay

import (
	"sync"

	"groupchat/internal/app/store"
)

// Buffers holds the in-memory unflushed message tail for every room. The tail
// always contains between zero and blockSize-1 messages; reaching blockSize
// promotes the whole tail into an immutable conversation block and resets it.
type Buffers struct {
	mu    sync.Mutex
	rooms map[string][]store.Message
}

// NewBuffers returns an empty buffer set.
func NewBuffers() *Buffers {
	return &Buffers{
		rooms: make(map[string][]store.Message),
	}
}

// Init ensures the room has an (empty) buffer. Called for every stored room at
// boot and for each newly created room. An existing buffer is left untouched.
func (b *Buffers) Init(roomID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.rooms[roomID]; !ok {
		b.rooms[roomID] = []store.Message{}
	}
}

// Append adds a message to the room's tail. When the tail reaches blockSize it
// is promoted into a ConversationBlock stamped with now (epoch ms) and the
// tail is reset; the completed block is returned for persistence. Otherwise
// Append returns nil. The check-and-reset is atomic.
func (b *Buffers) Append(roomID string, msg store.Message, blockSize int, now int64) *store.ConversationBlock {
	b.mu.Lock()
	defer b.mu.Unlock()

	tail := append(b.rooms[roomID], msg)

	if len(tail) >= blockSize {
		block := &store.ConversationBlock{
			RoomID:    roomID,
			Timestamp: now,
			Messages:  tail,
		}
		b.rooms[roomID] = []store.Message{}
		return block
	}

	b.rooms[roomID] = tail
	return nil
}

// Snapshot returns a copy of the room's current unpersisted tail. Readers see
// the tail as the room's "current unpersisted messages", never as part of the
// room entity itself.
func (b *Buffers) Snapshot(roomID string) []store.Message {
	b.mu.Lock()
	defer b.mu.Unlock()

	tail := b.rooms[roomID]

	out := make([]store.Message, len(tail))
	copy(out, tail)
	return out
}

// Len returns the number of messages currently buffered for the room.
func (b *Buffers) Len(roomID string) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return len(b.rooms[roomID])
}
