package store

import (
	"context"
	"errors"

	"github.com/BrendanKechtban/FeatureFlux/pkg/audit"
	"github.com/BrendanKechtban/FeatureFlux/pkg/feature"
	"github.com/BrendanKechtban/FeatureFlux/pkg/killswitch"
)

// ErrAuditAppend wraps failures to record the audit entry of a mutation.
var ErrAuditAppend = errors.New("store: audit append failed")

// State is the full registry content.
type State struct {
	Flags        []feature.Flag
	KillSwitches []killswitch.KillSwitch
}

// Record is the stored state of a single flag key.
// KillSwitch is nil when the flag never had one.
type Record struct {
	Flag       feature.Flag
	KillSwitch *killswitch.KillSwitch
}

// Mutation is one atomic change plus its audit entry.
type Mutation struct {
	// Flag is written when non-nil: inserted if Create, otherwise updated
	// provided the stored version equals ExpectedVersion.
	Flag            *feature.Flag
	Create          bool
	ExpectedVersion int64

	// KillSwitch is upserted by flag key when non-nil.
	KillSwitch *killswitch.KillSwitch

	Entry audit.Entry
}

// Result holds the persisted values with store-assigned ids and sequence.
type Result struct {
	Flag       *feature.Flag
	KillSwitch *killswitch.KillSwitch
	Entry      audit.Entry
}

// Store is the durable backing of the engine.
type Store interface {
	// Load returns every flag, archived included, and every kill switch.
	Load(ctx context.Context) (State, error)
	// LoadKey returns one flag, archived included, or feature.ErrNotFound.
	LoadKey(ctx context.Context, key string) (Record, error)
	// Commit applies m atomically. It returns feature.ErrAlreadyExists,
	// feature.ErrVersionMismatch, feature.ErrNotFound or ErrAuditAppend.
	Commit(ctx context.Context, m Mutation) (Result, error)
	// QueryAudit returns ledger entries newest first.
	QueryAudit(ctx context.Context, c audit.Criteria) ([]audit.Entry, error)
	Ping(ctx context.Context) error
	Close() error
}
