// Package postgres implements store.Store on PostgreSQL through database/sql.
//
// The schema lives in internal/db/migrations. Override lists are text[]
// columns handled with lib/pq arrays; audit rows are inserted in the same
// transaction as the change they describe and are protected from UPDATE and
// DELETE by a trigger.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/BrendanKechtban/FeatureFlux/pkg/audit"
	"github.com/BrendanKechtban/FeatureFlux/pkg/feature"
	"github.com/BrendanKechtban/FeatureFlux/pkg/killswitch"
	"github.com/BrendanKechtban/FeatureFlux/pkg/pg"
	"github.com/BrendanKechtban/FeatureFlux/pkg/store"
)

// Store implements store.Store backed by PostgreSQL.
type Store struct {
	db *sql.DB
}

var _ store.Store = (*Store)(nil)

// New wraps an open database handle. The caller owns db.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close is a no-op; the handle belongs to the caller.
func (s *Store) Close() error {
	return nil
}

func (s *Store) Load(ctx context.Context) (store.State, error) {
	var st store.State

	rows, err := s.db.QueryContext(ctx, querySelectFlags+` ORDER BY id`)
	if err != nil {
		return store.State{}, fmt.Errorf("load flags: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		f, err := scanFlag(rows)
		if err != nil {
			return store.State{}, fmt.Errorf("scan flag: %w", err)
		}
		st.Flags = append(st.Flags, f)
	}
	if err := rows.Err(); err != nil {
		return store.State{}, fmt.Errorf("load flags: %w", err)
	}

	ksRows, err := s.db.QueryContext(ctx, querySelectKillSwitches+` ORDER BY id`)
	if err != nil {
		return store.State{}, fmt.Errorf("load kill switches: %w", err)
	}
	defer ksRows.Close()
	for ksRows.Next() {
		ks, err := scanKillSwitch(ksRows)
		if err != nil {
			return store.State{}, fmt.Errorf("scan kill switch: %w", err)
		}
		st.KillSwitches = append(st.KillSwitches, ks)
	}
	if err := ksRows.Err(); err != nil {
		return store.State{}, fmt.Errorf("load kill switches: %w", err)
	}
	return st, nil
}

func (s *Store) LoadKey(ctx context.Context, key string) (store.Record, error) {
	f, err := scanFlag(s.db.QueryRowContext(ctx, querySelectFlags+` WHERE key = $1`, key))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return store.Record{}, feature.ErrNotFound
		}
		return store.Record{}, fmt.Errorf("load flag %q: %w", key, err)
	}
	rec := store.Record{Flag: f}

	ks, err := scanKillSwitch(s.db.QueryRowContext(ctx, querySelectKillSwitches+` WHERE flag_key = $1`, key))
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return store.Record{}, fmt.Errorf("load kill switch %q: %w", key, err)
	default:
		rec.KillSwitch = &ks
	}
	return rec, nil
}

// Commit writes the mutation and its audit entry in one transaction.
func (s *Store) Commit(ctx context.Context, m store.Mutation) (store.Result, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return store.Result{}, fmt.Errorf("begin: %w", err)
	}

	res, err := commitTx(ctx, tx, m)
	if err != nil {
		_ = tx.Rollback()
		return store.Result{}, err
	}
	if err := tx.Commit(); err != nil {
		return store.Result{}, fmt.Errorf("commit: %w", err)
	}
	return res, nil
}

func commitTx(ctx context.Context, tx *sql.Tx, m store.Mutation) (store.Result, error) {
	var res store.Result

	if m.Flag != nil {
		f := m.Flag.Clone()
		var err error
		if m.Create {
			err = insertFlag(ctx, tx, &f)
		} else {
			err = updateFlag(ctx, tx, &f, m.ExpectedVersion)
		}
		if err != nil {
			return store.Result{}, err
		}
		res.Flag = &f
	}

	if m.KillSwitch != nil {
		ks := *m.KillSwitch
		if err := upsertKillSwitch(ctx, tx, &ks); err != nil {
			return store.Result{}, err
		}
		res.KillSwitch = &ks
	}

	entry := m.Entry
	if err := insertEntry(ctx, tx, &entry); err != nil {
		return store.Result{}, errors.Join(store.ErrAuditAppend, err)
	}
	res.Entry = entry
	return res, nil
}

func insertFlag(ctx context.Context, tx *sql.Tx, f *feature.Flag) error {
	err := tx.QueryRowContext(ctx, queryInsertFlag,
		f.Key, f.Name, f.Description, f.Enabled, f.RolloutPercentage,
		pq.Array(f.TargetUserIDs), pq.Array(f.ExcludedUserIDs),
		f.Archived, f.Version, f.CreatedAt, f.UpdatedAt,
	).Scan(&f.ID)
	if isUniqueViolation(err) {
		return feature.ErrAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("insert flag %q: %w", f.Key, err)
	}
	return nil
}

func updateFlag(ctx context.Context, tx *sql.Tx, f *feature.Flag, expectedVersion int64) error {
	err := tx.QueryRowContext(ctx, queryUpdateFlag,
		f.Key, f.Name, f.Description, f.Enabled, f.RolloutPercentage,
		pq.Array(f.TargetUserIDs), pq.Array(f.ExcludedUserIDs),
		f.Archived, f.Version, f.UpdatedAt, expectedVersion,
	).Scan(&f.ID, &f.CreatedAt)
	if err == nil {
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("update flag %q: %w", f.Key, err)
	}

	var exists bool
	if err := tx.QueryRowContext(ctx, queryFlagExists, f.Key).Scan(&exists); err != nil {
		return fmt.Errorf("check flag %q: %w", f.Key, err)
	}
	if exists {
		return feature.ErrVersionMismatch
	}
	return feature.ErrNotFound
}

func upsertKillSwitch(ctx context.Context, tx *sql.Tx, ks *killswitch.KillSwitch) error {
	err := tx.QueryRowContext(ctx, queryUpsertKillSwitch,
		ks.FlagKey, ks.Active, ks.Reason, ks.ActivatedBy,
		nullTime(ks.ActivatedAt), ks.CreatedAt, ks.UpdatedAt,
	).Scan(&ks.ID, &ks.CreatedAt)
	if pg.IsForeignKeyViolationError(err) || isPQCode(err, "23503") {
		return feature.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("upsert kill switch %q: %w", ks.FlagKey, err)
	}
	return nil
}

func insertEntry(ctx context.Context, tx *sql.Tx, e *audit.Entry) error {
	return tx.QueryRowContext(ctx, queryInsertEntry,
		e.ID, string(e.Action), e.EntityType, e.EntityKey, e.PerformedBy, e.Description,
		nullJSON(e.OldValue), nullJSON(e.NewValue), e.IPAddress, e.RequestID,
		e.Checksum, e.Timestamp,
	).Scan(&e.Seq)
}

func isUniqueViolation(err error) bool {
	return pg.IsDuplicateKeyError(err) || isPQCode(err, "23505")
}

// isPQCode matches errors from the lib/pq driver.
func isPQCode(err error, code pq.ErrorCode) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == code
}
