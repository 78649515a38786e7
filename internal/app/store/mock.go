package store

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockStore is a testify mock of the Store interface for handler and relay tests.
type MockStore struct {
	mock.Mock
}

var _ Store = (*MockStore)(nil)

func (m *MockStore) Rooms(ctx context.Context) ([]Room, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Room), args.Error(1)
}

func (m *MockStore) Room(ctx context.Context, id string) (*Room, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Room), args.Error(1)
}

func (m *MockStore) AddRoom(ctx context.Context, name, image string) (*Room, error) {
	args := m.Called(ctx, name, image)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Room), args.Error(1)
}

func (m *MockStore) User(ctx context.Context, username string) (*User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*User), args.Error(1)
}

func (m *MockStore) AddConversation(ctx context.Context, block ConversationBlock) error {
	args := m.Called(ctx, block)
	return args.Error(0)
}

func (m *MockStore) LastConversation(ctx context.Context, roomID string, before int64) (*ConversationBlock, error) {
	args := m.Called(ctx, roomID, before)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ConversationBlock), args.Error(1)
}

func (m *MockStore) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
