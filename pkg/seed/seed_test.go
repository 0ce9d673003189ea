package seed_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BrendanKechtban/FeatureFlux/pkg/actor"
	"github.com/BrendanKechtban/FeatureFlux/pkg/audit"
	"github.com/BrendanKechtban/FeatureFlux/pkg/engine"
	"github.com/BrendanKechtban/FeatureFlux/pkg/feature"
	"github.com/BrendanKechtban/FeatureFlux/pkg/killswitch"
	"github.com/BrendanKechtban/FeatureFlux/pkg/seed"
	"github.com/BrendanKechtban/FeatureFlux/pkg/store"
)

const document = `
flags:
  - key: dark-mode
    name: Dark mode
    enabled: true
    rolloutPercentage: 10
    targetUserIds: [alice, " alice "]
    excludedUserIds: [bob]
  - key: new-checkout
    name: New checkout
    killSwitch:
      reason: waiting for payments sign-off
`

func newEngine(t *testing.T) *engine.Engine {
	t.Helper()
	eng, err := engine.New(context.Background(), store.NewMemory())
	require.NoError(t, err)
	t.Cleanup(func() { _ = eng.Close() })
	return eng
}

func TestParse(t *testing.T) {
	t.Parallel()

	f, err := seed.Parse(strings.NewReader(document))
	require.NoError(t, err)
	require.Len(t, f.Flags, 2)
	assert.Equal(t, "dark-mode", f.Flags[0].Key)
	assert.Equal(t, 10, f.Flags[0].RolloutPercentage)
	assert.Equal(t, []string{"alice", " alice "}, f.Flags[0].TargetUserIDs)
	require.NotNil(t, f.Flags[1].KillSwitch)
	assert.Equal(t, "waiting for payments sign-off", f.Flags[1].KillSwitch.Reason)

	invalid := map[string]string{
		"empty":         "",
		"unknown field": "flags:\n  - key: a\n    name: A\n    colour: red\n",
		"missing key":   "flags:\n  - name: A\n",
		"duplicate key": "flags:\n  - key: a\n    name: A\n  - key: a\n    name: B\n",
		"not yaml":      "flags: [",
		"blank reason":  "flags:\n  - key: risky\n    name: Risky\n    enabled: true\n    rolloutPercentage: 100\n    killSwitch:\n      reason: \"  \"\n",
		"no reason":     "flags:\n  - key: risky\n    name: Risky\n    killSwitch: {}\n",
		"bad rollout":   "flags:\n  - key: a\n    name: A\n    rolloutPercentage: 150\n",
		"padded dup":    "flags:\n  - key: a\n    name: A\n  - key: \" a \"\n    name: B\n",
	}
	for name, doc := range invalid {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			_, err := seed.Parse(strings.NewReader(doc))
			assert.ErrorIs(t, err, seed.ErrInvalidSeed)
		})
	}

	t.Run("blank reason names the cause", func(t *testing.T) {
		t.Parallel()
		_, err := seed.Parse(strings.NewReader(invalid["blank reason"]))
		assert.ErrorIs(t, err, killswitch.ErrReasonRequired)
	})
}

func TestLoadFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "flags.yaml")
	require.NoError(t, os.WriteFile(path, []byte(document), 0o600))

	f, err := seed.LoadFile(path)
	require.NoError(t, err)
	assert.Len(t, f.Flags, 2)

	_, err = seed.LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestApply(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	eng := newEngine(t)
	bot := actor.System("seed-bot")

	f, err := seed.Parse(strings.NewReader(document))
	require.NoError(t, err)

	rep, err := seed.Apply(ctx, eng, bot, f, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"dark-mode", "new-checkout"}, rep.Created)
	assert.Empty(t, rep.Skipped)

	dark, err := eng.GetFlag("dark-mode")
	require.NoError(t, err)
	assert.Equal(t, []string{"alice"}, dark.TargetUserIDs)

	ks, err := eng.KillSwitch("new-checkout")
	require.NoError(t, err)
	assert.True(t, ks.Active)
	assert.Equal(t, "seed-bot", ks.ActivatedBy)

	entries, err := eng.AuditLog(ctx, audit.Criteria{PerformedBy: "seed-bot"})
	require.NoError(t, err)
	assert.Len(t, entries, 3)

	t.Run("second run skips existing keys", func(t *testing.T) {
		_, err := eng.ToggleFlag(ctx, bot, "dark-mode", false)
		require.NoError(t, err)

		rep, err := seed.Apply(ctx, eng, bot, f, nil)
		require.NoError(t, err)
		assert.Empty(t, rep.Created)
		assert.Equal(t, []string{"dark-mode", "new-checkout"}, rep.Skipped)

		dark, err := eng.GetFlag("dark-mode")
		require.NoError(t, err)
		assert.False(t, dark.Enabled)
	})

	t.Run("invalid flag stops the run", func(t *testing.T) {
		bad := seed.File{Flags: []seed.Flag{
			{Key: "fresh", Name: "Fresh"},
			{Key: "broken", Name: "Broken", RolloutPercentage: 150},
			{Key: "never", Name: "Never"},
		}}
		rep, err := seed.Apply(ctx, eng, bot, bad, nil)
		require.ErrorIs(t, err, seed.ErrSeedFailed)
		assert.ErrorIs(t, err, feature.ErrInvalidArgument)
		assert.Equal(t, []string{"fresh"}, rep.Created)

		_, err = eng.GetFlag("never")
		assert.ErrorIs(t, err, feature.ErrNotFound)
	})
}
