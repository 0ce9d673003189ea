// Package audit defines the append-only ledger of configuration changes.
//
// Every successful mutation of a flag or kill switch produces exactly one
// Entry. Entries are never updated or deleted; each carries a SHA-256
// checksum of its content so tampering can be detected with Verify.
//
// Entries are persisted by the store package in the same transaction as the
// change they describe. This package provides the entry model, query
// criteria, ordering, and MemoryLog, the in-process append-only storage used
// by the memory store.
package audit
