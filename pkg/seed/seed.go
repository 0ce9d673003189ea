// Package seed loads flag definitions from YAML and creates the ones that
// do not exist yet. Existing keys, live or archived, are left untouched.
//
//	flags:
//	  - key: dark-mode
//	    name: Dark mode
//	    enabled: true
//	    rolloutPercentage: 10
//	    targetUserIds: [alice]
//	    killSwitch:
//	      reason: waiting for design sign-off
package seed

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/BrendanKechtban/FeatureFlux/pkg/actor"
	"github.com/BrendanKechtban/FeatureFlux/pkg/feature"
	"github.com/BrendanKechtban/FeatureFlux/pkg/killswitch"
	"github.com/BrendanKechtban/FeatureFlux/pkg/logger"
)

var (
	ErrInvalidSeed = errors.New("invalid seed file")
	ErrSeedFailed  = errors.New("seeding failed")
)

// File is the document root.
type File struct {
	Flags []Flag `yaml:"flags"`
}

// Flag is one seeded flag. KillSwitch, when set, is activated right after
// the flag is created.
type Flag struct {
	Key               string      `yaml:"key"`
	Name              string      `yaml:"name"`
	Description       string      `yaml:"description"`
	Enabled           bool        `yaml:"enabled"`
	RolloutPercentage int         `yaml:"rolloutPercentage"`
	TargetUserIDs     []string    `yaml:"targetUserIds"`
	ExcludedUserIDs   []string    `yaml:"excludedUserIds"`
	KillSwitch        *KillSwitch `yaml:"killSwitch"`
}

type KillSwitch struct {
	Reason string `yaml:"reason"`
}

func (f Flag) feature() feature.Flag {
	return feature.Flag{
		Key:               f.Key,
		Name:              f.Name,
		Description:       f.Description,
		Enabled:           f.Enabled,
		RolloutPercentage: f.RolloutPercentage,
		TargetUserIDs:     f.TargetUserIDs,
		ExcludedUserIDs:   f.ExcludedUserIDs,
	}
}

// Parse decodes and validates a seed document. Unknown fields, duplicate
// keys, invalid flag fields and blank kill switch reasons are rejected, so
// a file that parses never fails halfway through Apply on its own content.
func Parse(r io.Reader) (File, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f File
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return File{}, fmt.Errorf("%w: empty document", ErrInvalidSeed)
		}
		return File{}, errors.Join(ErrInvalidSeed, err)
	}

	seen := make(map[string]struct{}, len(f.Flags))
	for i, fl := range f.Flags {
		ff := fl.feature()
		ff.Normalize()
		if err := ff.Validate(); err != nil {
			return File{}, fmt.Errorf("%w: flags[%d]: %w", ErrInvalidSeed, i, err)
		}
		if fl.KillSwitch != nil {
			if err := killswitch.ValidateReason(fl.KillSwitch.Reason); err != nil {
				return File{}, fmt.Errorf("%w: flags[%d] %q: %w", ErrInvalidSeed, i, ff.Key, err)
			}
		}
		if _, dup := seen[ff.Key]; dup {
			return File{}, fmt.Errorf("%w: duplicate key %q", ErrInvalidSeed, ff.Key)
		}
		seen[ff.Key] = struct{}{}
	}
	return f, nil
}

// LoadFile reads and parses the seed file at path.
func LoadFile(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("read seed file: %w", err)
	}
	return Parse(bytes.NewReader(data))
}

// Registry is the part of the engine seeding needs.
type Registry interface {
	CreateFlag(ctx context.Context, act actor.Actor, f feature.Flag) (feature.Flag, error)
	ActivateKillSwitch(ctx context.Context, act actor.Actor, flagKey, reason string) (killswitch.KillSwitch, error)
}

// Report lists what Apply did, in file order.
type Report struct {
	Created []string
	Skipped []string
}

// Apply creates every flag of f that does not exist yet. It stops at the
// first other error; flags created before it stay created.
func Apply(ctx context.Context, reg Registry, act actor.Actor, f File, log *slog.Logger) (Report, error) {
	if log == nil {
		log = logger.Discard()
	}
	log = log.With(logger.Component("seed"))

	var rep Report
	for _, fl := range f.Flags {
		_, err := reg.CreateFlag(ctx, act, fl.feature())
		switch {
		case errors.Is(err, feature.ErrAlreadyExists):
			log.DebugContext(ctx, "flag exists, skipped", logger.FlagKey(fl.Key))
			rep.Skipped = append(rep.Skipped, fl.Key)
			continue
		case err != nil:
			return rep, fmt.Errorf("%w: create %q: %w", ErrSeedFailed, fl.Key, err)
		}

		if fl.KillSwitch != nil {
			if _, err := reg.ActivateKillSwitch(ctx, act, fl.Key, fl.KillSwitch.Reason); err != nil {
				return rep, fmt.Errorf("%w: kill switch %q: %w", ErrSeedFailed, fl.Key, err)
			}
		}
		log.InfoContext(ctx, "flag seeded", logger.FlagKey(fl.Key))
		rep.Created = append(rep.Created, fl.Key)
	}
	return rep, nil
}
