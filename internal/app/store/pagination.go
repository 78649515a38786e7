/*
Package store wraps the MongoDB document store behind a higher-level abstraction
for manipulating the application's persisted objects.

This file implements the history page selection used by backward pagination.
*/
package store

// lastBlockBefore selects the latest block whose timestamp is strictly earlier
// than before. Strict inequality matters: the client echoes the timestamp of
// the block it already holds as the next "before" value, so a block boundary
// match must step back to the previous block rather than return the same page
// again. An arbitrary before value (a message timestamp mid-block, say) is
// tolerated for free, since any block completed before that instant qualifies.
//
// Returns nil when no block qualifies: an empty room, or a before value at or
// under the earliest stored timestamp.
func lastBlockBefore(blocks []ConversationBlock, before int64) *ConversationBlock {
	var best *ConversationBlock

	for i := range blocks {
		b := &blocks[i]
		if b.Timestamp >= before {
			continue
		}
		if best == nil || b.Timestamp > best.Timestamp {
			best = b
		}
	}

	return best
}
