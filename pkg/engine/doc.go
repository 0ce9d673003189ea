// Package engine is the evaluation and governance core of FeatureFlux.
//
// An Engine owns the flag registry and kill switch controller of one
// process. Reads go to an immutable Snapshot that is swapped atomically
// after every committed change, so evaluation never waits for a writer and
// never sees a half-applied update. Writes are serialized per flag key: two
// mutations of the same key run one after the other, mutations of different
// keys run in parallel. Each write and its audit entry are committed to the
// store as one unit before the new snapshot is published.
//
// Committed changes are announced on a change feed. With a shared feed
// (Redis or NATS) every replica refreshes the changed key from the store;
// Run also reloads the full state periodically to bound staleness when a
// notification is lost.
//
// Usage:
//
//	eng, err := engine.New(ctx, store,
//		engine.WithLogger(log),
//		engine.WithChangeFeed(feed),
//		engine.WithResyncInterval(time.Minute),
//	)
//	if err != nil {
//		return err
//	}
//	go eng.Run(ctx)
//
//	f, err := eng.CreateFlag(ctx, act, feature.Flag{Key: "dark-mode", Name: "Dark mode"})
//	d, err := eng.Evaluate("dark-mode", "alice")
//
// Errors follow the feature package taxonomy (ErrNotFound,
// ErrInvalidArgument, ErrConflict). Failures to persist a change or its
// audit entry are reported as ErrFatal; the change is then not visible.
package engine
