/*
Package store wraps the MongoDB document store behind a higher-level abstraction
for manipulating the application's persisted objects.

This file defines the document models for the three collections: users,
chatrooms, and conversations.
*/
package store

// Room represents a chat room document in the "chatrooms" collection.
// A room is immutable once created; its live message buffer is owned by the relay.
type Room struct {
	// ID is the storage-generated identifier, rendered as a stable hex string.
	ID string `bson:"_id,omitempty" json:"_id"`

	// Name is the required display name. Uniqueness is not enforced.
	Name string `bson:"name" json:"name"`

	// Image is an optional icon URL for the room.
	Image string `bson:"image,omitempty" json:"image,omitempty"`
}

// Message is a single chat message. Text is HTML-escaped before it is
// buffered, persisted, or broadcast.
type Message struct {
	Username string `bson:"username" json:"username"`
	Text     string `bson:"text" json:"text"`
}

// ConversationBlock is an immutable persisted batch of messages for one room,
// stored in the "conversations" collection. Timestamp is the epoch-millisecond
// time of the block's completion, not of the individual messages.
type ConversationBlock struct {
	RoomID    string    `bson:"room_id" json:"room_id"`
	Timestamp int64     `bson:"timestamp" json:"timestamp"`
	Messages  []Message `bson:"messages" json:"messages"`
}

// User is an account document in the "users" collection. The password field
// holds a salted digest: a 20-byte salt followed by the base64-encoded
// SHA-256 of password+salt. Accounts are read-only from this server's
// perspective; there is no signup flow.
type User struct {
	Username string `bson:"username" json:"username"`
	Password string `bson:"password" json:"-"`
}
