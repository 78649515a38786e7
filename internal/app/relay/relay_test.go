package relay

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"groupchat/internal/app/store"
)

// newPipelineRelay builds a relay without starting its Run loop. Pipeline
// tests drive handleIngest from the test goroutine, which stands in for the
// single Run goroutine that owns the registry in production.
func newPipelineRelay(cs ConversationStore, blockSize int) *Relay {
	buffers := NewBuffers()
	r := New(cs, buffers, blockSize)
	return r
}

func addTestClient(r *Relay, username string) *Client {
	c := NewClient(r, nil, username)
	r.clients[c.id] = c
	return c
}

func recvPayload(t *testing.T, c *Client) OutboundMessage {
	t.Helper()
	select {
	case payload := <-c.send:
		var msg OutboundMessage
		require.NoError(t, json.Unmarshal(payload, &msg))
		return msg
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for broadcast payload")
		return OutboundMessage{}
	}
}

func assertNoPayload(t *testing.T, c *Client) {
	t.Helper()
	select {
	case payload := <-c.send:
		t.Fatalf("expected no payload, got %s", payload)
	default:
	}
}

func TestIngestBroadcastsToOthersOnly(t *testing.T) {
	mockStore := &store.MockStore{}
	r := newPipelineRelay(mockStore, 10)

	sender := addTestClient(r, "alice")
	receiver := addTestClient(r, "bob")
	other := addTestClient(r, "carol")

	r.handleIngest(inboundEvent{client: sender, msg: InboundMessage{RoomID: "r1", Text: "hello"}})

	got := recvPayload(t, receiver)
	assert.Equal(t, OutboundMessage{RoomID: "r1", Username: "alice", Text: "hello"}, got)

	got = recvPayload(t, other)
	assert.Equal(t, "alice", got.Username)

	assertNoPayload(t, sender)
	mockStore.AssertNotCalled(t, "AddConversation")
}

func TestIngestStampsAuthenticatedIdentity(t *testing.T) {
	mockStore := &store.MockStore{}
	r := newPipelineRelay(mockStore, 10)

	sender := addTestClient(r, "alice")
	receiver := addTestClient(r, "bob")

	// The wire format has no username field at all; whatever identity the
	// client might claim, the broadcast carries the session's username.
	r.handleIngest(inboundEvent{client: sender, msg: InboundMessage{RoomID: "r1", Text: "impersonation attempt"}})

	got := recvPayload(t, receiver)
	assert.Equal(t, "alice", got.Username)
}

func TestIngestSanitizesText(t *testing.T) {
	mockStore := &store.MockStore{}
	r := newPipelineRelay(mockStore, 10)

	sender := addTestClient(r, "alice")
	receiver := addTestClient(r, "bob")

	r.handleIngest(inboundEvent{client: sender, msg: InboundMessage{RoomID: "r1", Text: "<script>"}})

	got := recvPayload(t, receiver)
	assert.Equal(t, "&lt;script&gt;", got.Text, "expected broadcast text to be HTML-escaped")

	assert.Equal(t, "&lt;script&gt;", r.buffers.Snapshot("r1")[0].Text, "expected buffered text to be HTML-escaped")
}

func TestIngestDropsBlankMessages(t *testing.T) {
	mockStore := &store.MockStore{}
	r := newPipelineRelay(mockStore, 10)

	sender := addTestClient(r, "alice")
	receiver := addTestClient(r, "bob")

	for _, text := range []string{"", "   ", "\n\t "} {
		r.handleIngest(inboundEvent{client: sender, msg: InboundMessage{RoomID: "r1", Text: text}})
	}

	assertNoPayload(t, receiver)
	assert.Zero(t, r.buffers.Len("r1"), "expected blank messages never to reach the buffer")
}

func TestIngestFlushesBlockAtThreshold(t *testing.T) {
	const blockSize = 10

	mockStore := &store.MockStore{}
	defer mockStore.AssertExpectations(t)

	var persisted store.ConversationBlock
	mockStore.On("AddConversation", mock.Anything, mock.AnythingOfType("store.ConversationBlock")).
		Run(func(args mock.Arguments) {
			persisted = args.Get(1).(store.ConversationBlock)
		}).
		Return(nil).
		Once()

	r := newPipelineRelay(mockStore, blockSize)
	sender := addTestClient(r, "alice")

	for i := 0; i < blockSize; i++ {
		r.handleIngest(inboundEvent{client: sender, msg: InboundMessage{RoomID: "r1", Text: fmt.Sprintf("message %d", i)}})
	}

	assert.Equal(t, "r1", persisted.RoomID)
	assert.NotZero(t, persisted.Timestamp)
	require.Len(t, persisted.Messages, blockSize)
	for i, msg := range persisted.Messages {
		assert.Equal(t, fmt.Sprintf("message %d", i), msg.Text, "expected block to preserve send order")
		assert.Equal(t, "alice", msg.Username)
	}

	assert.Zero(t, r.buffers.Len("r1"), "expected the buffer to be empty after the flush")
}

func TestPersistenceFailureDoesNotBlockBroadcast(t *testing.T) {
	const blockSize = 2

	mockStore := &store.MockStore{}
	defer mockStore.AssertExpectations(t)
	mockStore.On("AddConversation", mock.Anything, mock.AnythingOfType("store.ConversationBlock")).
		Return(errors.New("document store unavailable")).
		Once()

	r := newPipelineRelay(mockStore, blockSize)
	sender := addTestClient(r, "alice")
	receiver := addTestClient(r, "bob")

	r.handleIngest(inboundEvent{client: sender, msg: InboundMessage{RoomID: "r1", Text: "one"}})
	r.handleIngest(inboundEvent{client: sender, msg: InboundMessage{RoomID: "r1", Text: "two"}})

	// Both messages were broadcast despite the failed flush.
	assert.Equal(t, "one", recvPayload(t, receiver).Text)
	assert.Equal(t, "two", recvPayload(t, receiver).Text)

	// The buffer was reset: the block is lost, chat continues.
	assert.Zero(t, r.buffers.Len("r1"))

	r.handleIngest(inboundEvent{client: sender, msg: InboundMessage{RoomID: "r1", Text: "three"}})
	assert.Equal(t, "three", recvPayload(t, receiver).Text)
}

func TestRunRegistersAndUnregisters(t *testing.T) {
	mockStore := &store.MockStore{}
	r := newPipelineRelay(mockStore, 1000)
	go r.Run()
	defer r.Shutdown()

	sender := NewClient(r, nil, "alice")
	receiver := NewClient(r, nil, "bob")
	r.Register(sender)
	r.Register(receiver)

	// Registration is asynchronous; keep sending until the broadcast proves
	// both connections are in the registry.
	require.Eventually(t, func() bool {
		r.ingest <- inboundEvent{client: sender, msg: InboundMessage{RoomID: "r1", Text: "ping"}}
		select {
		case <-receiver.send:
			return true
		case <-time.After(20 * time.Millisecond):
			return false
		}
	}, 2*time.Second, 10*time.Millisecond, "expected a registered connection to receive broadcasts")

	r.unregister <- receiver

	// Once the relay removes the connection, its send channel is closed.
	require.Eventually(t, func() bool {
		select {
		case _, open := <-receiver.send:
			return !open
		default:
			return false
		}
	}, 2*time.Second, 10*time.Millisecond, "expected the removed connection's send channel to close")
}

func TestDisconnectAfterRegisterAlwaysRemoves(t *testing.T) {
	r := newPipelineRelay(&store.MockStore{}, 10)
	go r.Run()
	defer r.Shutdown()

	// Connect/disconnect churn. Register blocks until the loop has taken the
	// connection, so the disconnect that follows must always find it in the
	// registry and close its send channel; nothing may linger registered.
	for i := 0; i < 100; i++ {
		c := NewClient(r, nil, "alice")
		r.Register(c)
		r.unregister <- c

		require.Eventually(t, func() bool {
			select {
			case _, open := <-c.send:
				return !open
			default:
				return false
			}
		}, time.Second, time.Millisecond, "connection %d survived its disconnect", i)
	}
}

func TestSanitize(t *testing.T) {
	tcases := []struct {
		in   string
		want string
	}{
		{"<script>", "&lt;script&gt;"},
		{"a < b > c", "a &lt; b &gt; c"},
		{"plain text", "plain text"},
		{"<<>>", "&lt;&lt;&gt;&gt;"},
	}

	for _, tc := range tcases {
		assert.Equal(t, tc.want, Sanitize(tc.in))
	}
}
