// Package store persists flags, kill switches and the audit ledger.
//
// Commit applies one Mutation atomically: the flag or kill switch change and
// its audit entry are stored together or not at all. A failed audit append is
// reported as ErrAuditAppend and leaves no trace of the change.
//
// The memory backend lives here; the PostgreSQL backend is in the postgres
// subpackage.
package store
