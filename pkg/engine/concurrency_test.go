package engine_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BrendanKechtban/FeatureFlux/pkg/feature"
)

func TestConcurrentUpdatesOnOneKey(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	eng, st := newEngine(t)

	created, err := eng.CreateFlag(ctx, admin, darkMode())
	require.NoError(t, err)

	const writers = 16
	var (
		wg        sync.WaitGroup
		succeeded atomic.Int32
		conflicts atomic.Int32
	)
	for i := range writers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rollout := i
			_, err := eng.UpdateFlag(ctx, admin, "dark-mode", feature.Patch{RolloutPercentage: &rollout}, created.Version)
			switch {
			case err == nil:
				succeeded.Add(1)
			case errors.Is(err, feature.ErrConflict):
				conflicts.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), succeeded.Load())
	assert.Equal(t, int32(writers-1), conflicts.Load())
	assert.Equal(t, 2, st.Ledger().Len())

	f, err := eng.GetFlag("dark-mode")
	require.NoError(t, err)
	assert.Equal(t, int64(1), f.Version)
}

func TestReadersNeverSeeTornWrites(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	eng, st := newEngine(t)

	// Two configurations that are only ever written together: the flag is
	// either fully rolled out with no targets, or closed with one target.
	open := func(f *feature.Flag) { f.RolloutPercentage = 100; f.TargetUserIDs = nil }
	_, err := eng.CreateFlag(ctx, admin, darkMode(open))
	require.NoError(t, err)

	const keys = 4
	for k := range keys {
		_, err := eng.CreateFlag(ctx, admin, feature.Flag{Key: fmt.Sprintf("other-%d", k), Name: "Other", Enabled: true})
		require.NoError(t, err)
	}

	stop := make(chan struct{})
	var readers sync.WaitGroup
	for range 8 {
		readers.Add(1)
		go func() {
			defer readers.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				f, err := eng.GetFlag("dark-mode")
				if !assert.NoError(t, err) {
					return
				}
				if f.RolloutPercentage == 100 {
					assert.Empty(t, f.TargetUserIDs)
				} else {
					assert.Equal(t, []string{"vip"}, f.TargetUserIDs)
				}
				_, err = eng.Evaluate("dark-mode", "someone")
				assert.NoError(t, err)
			}
		}()
	}

	var writers sync.WaitGroup
	writers.Add(1)
	go func() {
		defer writers.Done()
		for i := range 50 {
			f, err := eng.GetFlag("dark-mode")
			if !assert.NoError(t, err) {
				return
			}
			rollout, targets := 100, []string{}
			if i%2 == 0 {
				rollout, targets = 0, []string{"vip"}
			}
			_, err = eng.UpdateFlag(ctx, admin, "dark-mode", feature.Patch{
				RolloutPercentage: &rollout,
				TargetUserIDs:     &targets,
			}, f.Version)
			assert.NoError(t, err)
		}
	}()
	for k := range keys {
		writers.Add(1)
		go func() {
			defer writers.Done()
			key := fmt.Sprintf("other-%d", k)
			for i := range 25 {
				_, err := eng.ToggleFlag(ctx, admin, key, i%2 == 0)
				assert.NoError(t, err)
			}
		}()
	}
	writers.Wait()
	close(stop)
	readers.Wait()

	assert.Equal(t, 1+keys+50+keys*25, st.Ledger().Len())
	assert.Equal(t, uint64(1+keys+50+keys*25), eng.Version())
}
