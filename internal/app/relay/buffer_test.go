package relay

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"groupchat/internal/app/store"
)

func TestAppendFlushesAtBlockSize(t *testing.T) {
	const blockSize = 10
	buffers := NewBuffers()
	buffers.Init("r1")

	var sent []store.Message
	for i := 0; i < blockSize-1; i++ {
		msg := store.Message{Username: "alice", Text: fmt.Sprintf("message %d", i)}
		sent = append(sent, msg)

		block := buffers.Append("r1", msg, blockSize, 12345)
		assert.Nil(t, block, "expected no flush before the block size is reached")
	}
	assert.Equal(t, blockSize-1, buffers.Len("r1"))

	final := store.Message{Username: "alice", Text: "message 9"}
	sent = append(sent, final)

	block := buffers.Append("r1", final, blockSize, 12345)
	require.NotNil(t, block, "expected the tenth message to complete a block")

	assert.Equal(t, "r1", block.RoomID)
	assert.Equal(t, int64(12345), block.Timestamp, "expected the block stamped with the flush time")
	assert.Equal(t, sent, block.Messages, "expected the block to hold all messages in send order")
	assert.Zero(t, buffers.Len("r1"), "expected the buffer to be empty after the flush")
}

func TestAppendKeepsRoomsIndependent(t *testing.T) {
	buffers := NewBuffers()
	buffers.Init("r1")
	buffers.Init("r2")

	buffers.Append("r1", store.Message{Username: "alice", Text: "hello"}, 10, 1)
	buffers.Append("r2", store.Message{Username: "bob", Text: "hey"}, 10, 1)

	assert.Equal(t, 1, buffers.Len("r1"))
	assert.Equal(t, 1, buffers.Len("r2"))
	assert.Equal(t, []store.Message{{Username: "alice", Text: "hello"}}, buffers.Snapshot("r1"))
}

func TestSnapshotIsACopy(t *testing.T) {
	buffers := NewBuffers()
	buffers.Init("r1")
	buffers.Append("r1", store.Message{Username: "alice", Text: "hello"}, 10, 1)

	snap := buffers.Snapshot("r1")
	snap[0].Text = "mutated"

	assert.Equal(t, "hello", buffers.Snapshot("r1")[0].Text, "expected snapshot mutation not to leak into the buffer")
}

func TestInitDoesNotClobberExistingBuffer(t *testing.T) {
	buffers := NewBuffers()
	buffers.Init("r1")
	buffers.Append("r1", store.Message{Username: "alice", Text: "hello"}, 10, 1)

	buffers.Init("r1")

	assert.Equal(t, 1, buffers.Len("r1"), "expected re-init to leave the buffered tail in place")
}

func TestConcurrentAppendsFlushExactlyOnce(t *testing.T) {
	const blockSize = 10
	const total = 100
	buffers := NewBuffers()
	buffers.Init("r1")

	var wg sync.WaitGroup
	var mu sync.Mutex
	var flushed []*store.ConversationBlock

	for i := 0; i < total; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			block := buffers.Append("r1", store.Message{Username: "alice", Text: fmt.Sprintf("m%d", i)}, blockSize, 777)
			if block != nil {
				mu.Lock()
				flushed = append(flushed, block)
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	// No message lost or duplicated across the buffer/block boundary.
	assert.Len(t, flushed, total/blockSize, "expected each full tail to flush exactly once")
	for _, block := range flushed {
		assert.Len(t, block.Messages, blockSize)
	}
	assert.Zero(t, buffers.Len("r1"))
}
