package store

import "sync/atomic"

// subscriptionIDs is the source of unique IDs for subscriptions across all
// stores. IDs are never reused, so a stale unsubscribe can never remove a
// newer registration.
var subscriptionIDs atomic.Uint64

func nextID() uint64 {
	return subscriptionIDs.Add(1)
}
