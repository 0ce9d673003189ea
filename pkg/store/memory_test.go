package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BrendanKechtban/FeatureFlux/pkg/audit"
	"github.com/BrendanKechtban/FeatureFlux/pkg/feature"
	"github.com/BrendanKechtban/FeatureFlux/pkg/killswitch"
	"github.com/BrendanKechtban/FeatureFlux/pkg/store"
)

func entry(t *testing.T, action audit.Action, key string) audit.Entry {
	t.Helper()
	e, err := audit.New(action, key, "alice", "test", time.Now())
	require.NoError(t, err)
	return e
}

func createFlag(t *testing.T, s *store.Memory, key string) feature.Flag {
	t.Helper()
	f := feature.Flag{Key: key, Name: key, Enabled: true, RolloutPercentage: 10}
	res, err := s.Commit(context.Background(), store.Mutation{Flag: &f, Create: true, Entry: entry(t, audit.ActionCreate, key)})
	require.NoError(t, err)
	require.NotNil(t, res.Flag)
	return *res.Flag
}

func TestMemoryCreate(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := store.NewMemory()

	first := createFlag(t, s, "dark-mode")
	second := createFlag(t, s, "new-checkout")
	assert.Equal(t, int64(1), first.ID)
	assert.Equal(t, int64(2), second.ID)

	dup := feature.Flag{Key: "dark-mode", Name: "again"}
	_, err := s.Commit(ctx, store.Mutation{Flag: &dup, Create: true, Entry: entry(t, audit.ActionCreate, "dark-mode")})
	assert.ErrorIs(t, err, feature.ErrAlreadyExists)
	assert.Equal(t, 2, s.Ledger().Len(), "rejected mutation leaves no audit entry")

	rec, err := s.LoadKey(ctx, "dark-mode")
	require.NoError(t, err)
	assert.Equal(t, "dark-mode", rec.Flag.Name)
	assert.Nil(t, rec.KillSwitch)

	_, err = s.LoadKey(ctx, "missing")
	assert.ErrorIs(t, err, feature.ErrNotFound)
}

func TestMemoryUpdateChecksVersion(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := store.NewMemory()
	f := createFlag(t, s, "dark-mode")

	next := f.Clone()
	next.RolloutPercentage = 50
	next.Version = 1

	_, err := s.Commit(ctx, store.Mutation{Flag: &next, ExpectedVersion: 3, Entry: entry(t, audit.ActionUpdate, "dark-mode")})
	assert.ErrorIs(t, err, feature.ErrVersionMismatch)

	res, err := s.Commit(ctx, store.Mutation{Flag: &next, ExpectedVersion: 0, Entry: entry(t, audit.ActionUpdate, "dark-mode")})
	require.NoError(t, err)
	assert.Equal(t, f.ID, res.Flag.ID)
	assert.Equal(t, int64(1), res.Flag.Version)
	assert.Equal(t, int64(2), res.Entry.Seq)

	missing := feature.Flag{Key: "missing", Name: "m"}
	_, err = s.Commit(ctx, store.Mutation{Flag: &missing, Entry: entry(t, audit.ActionUpdate, "missing")})
	assert.ErrorIs(t, err, feature.ErrNotFound)
}

func TestMemoryKillSwitchUpsert(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := store.NewMemory()
	createFlag(t, s, "dark-mode")

	ks := killswitch.KillSwitch{FlagKey: "dark-mode", Active: true, Reason: "incident", ActivatedBy: "alice"}
	res, err := s.Commit(ctx, store.Mutation{KillSwitch: &ks, Entry: entry(t, audit.ActionKillSwitchActivate, "dark-mode")})
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.KillSwitch.ID)

	ks.Active = false
	res, err = s.Commit(ctx, store.Mutation{KillSwitch: &ks, Entry: entry(t, audit.ActionKillSwitchDeactivate, "dark-mode")})
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.KillSwitch.ID, "record is reused")

	st, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, st.Flags, 1)
	require.Len(t, st.KillSwitches, 1)
	assert.False(t, st.KillSwitches[0].Active)
}

func TestMemoryAuditFailureRollsBack(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := store.NewMemory()
	f := createFlag(t, s, "dark-mode")

	boom := errors.New("ledger offline")
	s.Ledger().FailWith(boom)

	next := f.Clone()
	next.Enabled = false
	next.Version = 1
	_, err := s.Commit(ctx, store.Mutation{Flag: &next, ExpectedVersion: 0, Entry: entry(t, audit.ActionToggle, "dark-mode")})
	require.Error(t, err)
	assert.ErrorIs(t, err, store.ErrAuditAppend)
	assert.ErrorIs(t, err, boom)

	rec, err := s.LoadKey(ctx, "dark-mode")
	require.NoError(t, err)
	assert.True(t, rec.Flag.Enabled)
	assert.Equal(t, int64(0), rec.Flag.Version)

	ks := killswitch.KillSwitch{FlagKey: "dark-mode", Active: true, Reason: "x", ActivatedBy: "alice"}
	_, err = s.Commit(ctx, store.Mutation{KillSwitch: &ks, Entry: entry(t, audit.ActionKillSwitchActivate, "dark-mode")})
	require.ErrorIs(t, err, store.ErrAuditAppend)
	rec, err = s.LoadKey(ctx, "dark-mode")
	require.NoError(t, err)
	assert.Nil(t, rec.KillSwitch)
}

func TestMemoryQueryAudit(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := store.NewMemory()
	createFlag(t, s, "a")
	createFlag(t, s, "b")

	entries, err := s.QueryAudit(ctx, audit.Criteria{EntityKey: "b"})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "b", entries[0].EntityKey)
	assert.NoError(t, s.Ping(ctx))
	assert.NoError(t, s.Close())
}
