// Package broadcast fans typed messages out to subscribers.
//
// Broadcaster has three implementations. MemoryBroadcaster delivers within
// the process. RedisBroadcaster and NATSBroadcaster deliver to every process
// subscribed to the same channel or subject, encoding messages as JSON.
//
// Delivery is best effort: a subscriber whose buffer is full misses the
// message rather than blocking the publisher. Consumers that cannot tolerate
// gaps should periodically reconcile with the source of truth.
package broadcast
