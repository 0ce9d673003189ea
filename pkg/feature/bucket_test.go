package feature_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BrendanKechtban/FeatureFlux/pkg/feature"
)

func TestBucketRangeAndStability(t *testing.T) {
	t.Parallel()

	for i := range 5000 {
		userID := fmt.Sprintf("user-%d", i)
		b := feature.Bucket("dark-mode", userID)
		require.GreaterOrEqual(t, b, 0)
		require.Less(t, b, feature.Buckets)
		require.Equal(t, b, feature.Bucket("dark-mode", userID))
	}
}

func TestBucketDependsOnFlagKey(t *testing.T) {
	t.Parallel()

	differs := 0
	for i := range 200 {
		userID := fmt.Sprintf("user-%d", i)
		if feature.Bucket("dark-mode", userID) != feature.Bucket("new-checkout", userID) {
			differs++
		}
	}
	assert.Greater(t, differs, 100, "buckets of different flags should be independent")
}

func TestBucketDistribution(t *testing.T) {
	t.Parallel()

	const users = 100000
	counts := make([]int, feature.Buckets)
	for i := range users {
		counts[feature.Bucket("dark-mode", fmt.Sprintf("user-%d", i))]++
	}

	expected := users / feature.Buckets
	for b, c := range counts {
		assert.InDelta(t, expected, c, float64(expected)*0.2, "bucket %d", b)
	}
}

func TestBucketSeparatorIsPartOfInput(t *testing.T) {
	t.Parallel()

	// "a:b" + ":" + "c" and "a" + ":" + "b:c" hash the same string.
	assert.Equal(t, feature.Bucket("a:b", "c"), feature.Bucket("a", "b:c"))
}
