package statemachine_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BrendanKechtban/FeatureFlux/pkg/statemachine"
)

const (
	Draft     = statemachine.StringState("draft")
	Published = statemachine.StringState("published")
	Archived  = statemachine.StringState("archived")

	Publish = statemachine.StringEvent("publish")
	Archive = statemachine.StringEvent("archive")
)

func TestDefinitionApply(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	var trail []string
	record := func(_ context.Context, from, to statemachine.State, event statemachine.Event, _ any) error {
		trail = append(trail, from.Name()+">"+to.Name()+":"+event.Name())
		return nil
	}

	def := statemachine.MustDefine(
		statemachine.WithTransition(Draft, Published, Publish, statemachine.WithAction(record)),
		statemachine.WithTransition(Published, Archived, Archive),
	)

	next, err := def.Apply(ctx, Draft, Publish, nil)
	require.NoError(t, err)
	assert.Equal(t, Published, next)
	assert.Equal(t, []string{"draft>published:publish"}, trail)

	next, err = def.Apply(ctx, next, Archive, nil)
	require.NoError(t, err)
	assert.Equal(t, Archived, next)

	_, err = def.Apply(ctx, Archived, Publish, nil)
	require.Error(t, err)
	assert.True(t, statemachine.IsNoTransitionAvailableError(err))
	assert.False(t, def.CanApply(ctx, Archived, Publish, nil))
}

func TestDefinitionGuards(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	nonEmpty := func(_ context.Context, _ statemachine.State, _ statemachine.Event, data any) bool {
		s, _ := data.(string)
		return s != ""
	}

	def := statemachine.MustDefine(
		statemachine.WithTransition(Draft, Published, Publish, statemachine.WithGuard(nonEmpty)),
	)

	assert.True(t, def.CanApply(ctx, Draft, Publish, "title"))
	assert.False(t, def.CanApply(ctx, Draft, Publish, ""))

	_, err := def.Apply(ctx, Draft, Publish, "")
	require.Error(t, err)
	assert.True(t, statemachine.IsTransitionRejectedError(err))
}

func TestDefinitionFirstPassingTransitionWins(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	isArchive := func(_ context.Context, _ statemachine.State, _ statemachine.Event, data any) bool {
		return data == "archive"
	}

	def := statemachine.MustDefine(
		statemachine.WithTransition(Draft, Archived, Publish, statemachine.WithGuard(isArchive)),
		statemachine.WithTransition(Draft, Published, Publish),
	)

	next, err := def.Apply(ctx, Draft, Publish, "archive")
	require.NoError(t, err)
	assert.Equal(t, Archived, next)

	next, err = def.Apply(ctx, Draft, Publish, nil)
	require.NoError(t, err)
	assert.Equal(t, Published, next)
}

func TestDefinitionActionFailure(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	def := statemachine.MustDefine(
		statemachine.WithTransition(Draft, Published, Publish,
			statemachine.WithAction(func(context.Context, statemachine.State, statemachine.State, statemachine.Event, any) error {
				return boom
			}),
		),
	)

	next, err := def.Apply(context.Background(), Draft, Publish, nil)
	assert.Nil(t, next)
	assert.ErrorIs(t, err, boom)
}

func TestDefineRejectsNil(t *testing.T) {
	t.Parallel()

	_, err := statemachine.Define(statemachine.WithTransition(nil, Published, Publish))
	assert.ErrorIs(t, err, statemachine.ErrInvalidTransition)

	assert.Panics(t, func() {
		statemachine.MustDefine(statemachine.WithTransition(Draft, nil, Publish))
	})

	def := statemachine.MustDefine()
	_, err = def.Apply(context.Background(), Draft, nil, nil)
	assert.ErrorIs(t, err, statemachine.ErrInvalidEvent)
}
