package engine

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/BrendanKechtban/FeatureFlux/pkg/audit"
	"github.com/BrendanKechtban/FeatureFlux/pkg/broadcast"
	"github.com/BrendanKechtban/FeatureFlux/pkg/feature"
	"github.com/BrendanKechtban/FeatureFlux/pkg/logger"
	"github.com/BrendanKechtban/FeatureFlux/pkg/store"
)

// Engine serves flag reads from snapshots and serializes writes per key.
type Engine struct {
	store    store.Store
	feed     broadcast.Broadcaster[Change]
	ownsFeed bool
	log      *slog.Logger
	now      func() time.Time
	origin   string
	resync   time.Duration

	locks     *keyLocks
	snap      atomic.Pointer[Snapshot]
	publishMu sync.Mutex
}

// New loads the full state from st and returns a ready engine.
// Panics if st is nil.
func New(ctx context.Context, st store.Store, opts ...Option) (*Engine, error) {
	if st == nil {
		panic("engine: store is required")
	}

	e := &Engine{
		store:    st,
		feed:     broadcast.NewMemoryBroadcaster[Change](broadcast.DefaultBufferSize),
		ownsFeed: true,
		log:      logger.Discard(),
		now:      time.Now,
		origin:   uuid.NewString(),
		locks:    newKeyLocks(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.log = e.log.With(logger.Component("engine"))

	state, err := st.Load(ctx)
	if err != nil {
		return nil, errors.Join(ErrFatal, err)
	}
	e.snap.Store(snapshotFromState(0, state))
	return e, nil
}

// Snapshot returns the latest published snapshot.
func (e *Engine) Snapshot() *Snapshot {
	return e.snap.Load()
}

// Version returns the latest published snapshot version.
func (e *Engine) Version() uint64 {
	return e.Snapshot().Version()
}

// Origin returns the instance id stamped on published changes.
func (e *Engine) Origin() string {
	return e.origin
}

// Subscribe streams the changes committed through this engine's feed.
func (e *Engine) Subscribe(ctx context.Context) (broadcast.Subscriber[Change], error) {
	return e.feed.Subscribe(ctx)
}

// Ping checks the backing store.
func (e *Engine) Ping(ctx context.Context) error {
	return e.store.Ping(ctx)
}

// Close releases the in-process change feed. The store is left open.
func (e *Engine) Close() error {
	if e.ownsFeed {
		return e.feed.Close()
	}
	return nil
}

// publish swaps in a copy of the latest snapshot modified by apply.
func (e *Engine) publish(apply func(*Snapshot)) uint64 {
	e.publishMu.Lock()
	defer e.publishMu.Unlock()

	next := e.snap.Load().next()
	apply(next)
	e.snap.Store(next)
	return next.version
}

// commit writes m under the key lock already held by the caller and
// publishes the result. Store conflicts refresh the key before returning.
func (e *Engine) commit(ctx context.Context, key string, m store.Mutation) (store.Result, uint64, error) {
	res, err := e.store.Commit(ctx, m)
	if err != nil {
		switch {
		case errors.Is(err, feature.ErrConflict), errors.Is(err, feature.ErrNotFound):
			// Another replica got there first.
			if rerr := e.refreshLocked(ctx, key); rerr != nil {
				e.log.WarnContext(ctx, "refresh after conflict failed",
					logger.FlagKey(key),
					logger.Error(rerr),
				)
			}
			return store.Result{}, 0, err
		default:
			e.log.ErrorContext(ctx, "mutation not committed",
				logger.FlagKey(key),
				logger.Action(string(m.Entry.Action)),
				logger.Actor(m.Entry.PerformedBy),
				logger.Error(err),
			)
			return store.Result{}, 0, errors.Join(ErrFatal, err)
		}
	}

	version := e.publish(func(s *Snapshot) {
		if res.Flag != nil {
			s.putFlag(*res.Flag)
		}
		if res.KillSwitch != nil {
			s.switches[res.KillSwitch.FlagKey] = *res.KillSwitch
		}
	})

	e.log.InfoContext(ctx, "mutation committed",
		logger.FlagKey(key),
		logger.Action(string(res.Entry.Action)),
		logger.Actor(res.Entry.PerformedBy),
		logger.SnapshotVersion(version),
	)
	return res, version, nil
}

// announce broadcasts a committed change. Feed failures are logged only:
// the change is already durable and replicas catch up on resync.
func (e *Engine) announce(ctx context.Context, key string, action audit.Action, version uint64) {
	c := Change{Version: version, FlagKey: key, Action: action, Origin: e.origin}
	if err := e.feed.Broadcast(context.WithoutCancel(ctx), broadcast.Message[Change]{Data: c}); err != nil {
		e.log.WarnContext(ctx, "change not broadcast",
			logger.FlagKey(key),
			logger.SnapshotVersion(version),
			logger.Error(err),
		)
	}
}
