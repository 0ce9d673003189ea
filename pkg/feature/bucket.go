package feature

import "github.com/cespare/xxhash/v2"

// Buckets is the number of rollout buckets.
const Buckets = 100

// Bucket maps a user to a rollout bucket in [0, Buckets) for the given flag.
// It is xxHash64 (seed 0) of "flagKey:userID" reduced modulo 100, so any
// implementation of xxHash64 reproduces the same assignment.
func Bucket(flagKey, userID string) int {
	return int(xxhash.Sum64String(flagKey+":"+userID) % Buckets)
}
