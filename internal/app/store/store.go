/*
Package store wraps the MongoDB document store behind a higher-level abstraction
for manipulating the application's persisted objects.

This file defines the Store interface consumed by the handlers and the relay,
plus the MongoDB-backed implementation and its connection setup.
*/
package store

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"groupchat/internal/pkg/logx"
)

// Collection names in the document store.
const (
	usersCollection         = "users"
	chatroomsCollection     = "chatrooms"
	conversationsCollection = "conversations"
)

const connectTimeout = 15 * time.Second

// Store is the persistence contract for rooms, users, and conversation blocks.
// Absent documents are reported as nil results, not errors: NotFound is a
// normal, non-exceptional outcome.
type Store interface {
	// Rooms returns every room document.
	Rooms(ctx context.Context) ([]Room, error)

	// Room returns the room with the given id, or nil if it does not exist.
	Room(ctx context.Context, id string) (*Room, error)

	// AddRoom inserts a new room and returns it with its storage-generated id.
	AddRoom(ctx context.Context, name, image string) (*Room, error)

	// User returns the account with the given username, or nil if it does not exist.
	User(ctx context.Context, username string) (*User, error)

	// AddConversation persists an immutable conversation block.
	AddConversation(ctx context.Context, block ConversationBlock) error

	// LastConversation returns the latest block for the room whose timestamp is
	// strictly earlier than before (epoch ms). A before of zero means "now".
	// It returns nil when no block qualifies.
	LastConversation(ctx context.Context, roomID string, before int64) (*ConversationBlock, error)

	// Ping verifies the store connection is alive.
	Ping(ctx context.Context) error
}

// MongoStore is the MongoDB-backed Store implementation.
type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
	now    func() int64
}

var _ Store = (*MongoStore)(nil)

// Connect establishes the MongoDB connection, pings the deployment, and
// returns the ready MongoStore.
func Connect(ctx context.Context, mongoURL, dbName string) (*MongoStore, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURL))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to document store: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping document store: %w", err)
	}

	logx.Info("Connected to document store.", "url", mongoURL, "db", dbName)

	return &MongoStore{
		client: client,
		db:     client.Database(dbName),
		now:    func() int64 { return time.Now().UnixMilli() },
	}, nil
}

// Close disconnects the underlying MongoDB client.
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// Ping verifies the store connection is alive.
func (s *MongoStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

// Rooms returns every room document in the chatrooms collection.
func (s *MongoStore) Rooms(ctx context.Context) ([]Room, error) {
	cursor, err := s.db.Collection(chatroomsCollection).Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to query chatrooms: %w", err)
	}

	var rooms []Room
	if err := cursor.All(ctx, &rooms); err != nil {
		return nil, fmt.Errorf("failed to decode chatrooms: %w", err)
	}

	return rooms, nil
}

// Room returns the room with the given id, or nil if it does not exist.
func (s *MongoStore) Room(ctx context.Context, id string) (*Room, error) {
	var room Room

	err := s.db.Collection(chatroomsCollection).FindOne(ctx, bson.M{"_id": id}).Decode(&room)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query chatroom %q: %w", id, err)
	}

	return &room, nil
}

// AddRoom inserts a new room document. The id is generated at insert time and
// stored as a stable hex string so it round-trips cleanly through JSON.
func (s *MongoStore) AddRoom(ctx context.Context, name, image string) (*Room, error) {
	room := Room{
		ID:    primitive.NewObjectID().Hex(),
		Name:  name,
		Image: image,
	}

	if _, err := s.db.Collection(chatroomsCollection).InsertOne(ctx, room); err != nil {
		return nil, fmt.Errorf("failed to insert chatroom: %w", err)
	}

	return &room, nil
}

// User returns the account with the given username, or nil if it does not exist.
func (s *MongoStore) User(ctx context.Context, username string) (*User, error) {
	var user User

	err := s.db.Collection(usersCollection).FindOne(ctx, bson.M{"username": username}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user %q: %w", username, err)
	}

	return &user, nil
}

// AddConversation persists an immutable conversation block.
func (s *MongoStore) AddConversation(ctx context.Context, block ConversationBlock) error {
	if block.RoomID == "" || block.Timestamp == 0 || len(block.Messages) == 0 {
		return fmt.Errorf("conversation block for room %q is missing required fields", block.RoomID)
	}

	if _, err := s.db.Collection(conversationsCollection).InsertOne(ctx, block); err != nil {
		return fmt.Errorf("failed to insert conversation block: %w", err)
	}

	return nil
}

// LastConversation fetches the room's conversation blocks and delegates the
// page selection to lastBlockBefore. A before of zero means "now".
func (s *MongoStore) LastConversation(ctx context.Context, roomID string, before int64) (*ConversationBlock, error) {
	cursor, err := s.db.Collection(conversationsCollection).Find(ctx, bson.M{"room_id": roomID})
	if err != nil {
		return nil, fmt.Errorf("failed to query conversations for room %q: %w", roomID, err)
	}

	var blocks []ConversationBlock
	if err := cursor.All(ctx, &blocks); err != nil {
		return nil, fmt.Errorf("failed to decode conversations for room %q: %w", roomID, err)
	}

	if before == 0 {
		before = s.now()
	}

	return lastBlockBefore(blocks, before), nil
}
