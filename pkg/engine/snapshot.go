package engine

import (
	"cmp"
	"errors"
	"maps"
	"slices"
	"strings"

	"github.com/BrendanKechtban/FeatureFlux/pkg/feature"
	"github.com/BrendanKechtban/FeatureFlux/pkg/killswitch"
	"github.com/BrendanKechtban/FeatureFlux/pkg/store"
	"github.com/BrendanKechtban/FeatureFlux/pkg/validator"
)

// Snapshot is an immutable view of the registry at one version.
// All accessors return copies.
type Snapshot struct {
	version  uint64
	flags    map[string]feature.Flag
	ids      map[int64]string
	switches map[string]killswitch.KillSwitch
}

func emptySnapshot() *Snapshot {
	return &Snapshot{
		flags:    make(map[string]feature.Flag),
		ids:      make(map[int64]string),
		switches: make(map[string]killswitch.KillSwitch),
	}
}

// snapshotFromState builds a snapshot holding exactly st.
func snapshotFromState(version uint64, st store.State) *Snapshot {
	s := emptySnapshot()
	s.version = version
	for _, f := range st.Flags {
		s.flags[f.Key] = f.Clone()
		s.ids[f.ID] = f.Key
	}
	for _, ks := range st.KillSwitches {
		s.switches[ks.FlagKey] = ks
	}
	return s
}

// next returns a copy of s at the following version.
func (s *Snapshot) next() *Snapshot {
	return &Snapshot{
		version:  s.version + 1,
		flags:    maps.Clone(s.flags),
		ids:      maps.Clone(s.ids),
		switches: maps.Clone(s.switches),
	}
}

func (s *Snapshot) putFlag(f feature.Flag) {
	s.flags[f.Key] = f.Clone()
	s.ids[f.ID] = f.Key
}

func (s *Snapshot) removeKey(key string) {
	if f, ok := s.flags[key]; ok {
		delete(s.ids, f.ID)
	}
	delete(s.flags, key)
	delete(s.switches, key)
}

// Version increases by one with every published change.
func (s *Snapshot) Version() uint64 {
	return s.version
}

// Flag returns the live flag with the given key.
func (s *Snapshot) Flag(key string) (feature.Flag, error) {
	f, ok := s.flags[key]
	if !ok || f.Archived {
		return feature.Flag{}, feature.ErrNotFound
	}
	return f.Clone(), nil
}

// FlagIncludingArchived returns the flag with the given key, archived or not.
func (s *Snapshot) FlagIncludingArchived(key string) (feature.Flag, error) {
	f, ok := s.flags[key]
	if !ok {
		return feature.Flag{}, feature.ErrNotFound
	}
	return f.Clone(), nil
}

// FlagByID returns the live flag with the given id.
func (s *Snapshot) FlagByID(id int64) (feature.Flag, error) {
	key, ok := s.ids[id]
	if !ok {
		return feature.Flag{}, feature.ErrNotFound
	}
	return s.Flag(key)
}

// Flags lists flags ordered by key. Archived flags are included only on request.
func (s *Snapshot) Flags(includeArchived bool) []feature.Flag {
	out := make([]feature.Flag, 0, len(s.flags))
	for _, f := range s.flags {
		if f.Archived && !includeArchived {
			continue
		}
		out = append(out, f.Clone())
	}
	slices.SortFunc(out, func(a, b feature.Flag) int { return strings.Compare(a.Key, b.Key) })
	return out
}

// KillSwitch returns the switch of a live flag, or its implicit INACTIVE
// record when none was ever stored.
func (s *Snapshot) KillSwitch(flagKey string) (killswitch.KillSwitch, error) {
	if _, err := s.Flag(flagKey); err != nil {
		return killswitch.KillSwitch{}, err
	}
	if ks, ok := s.switches[flagKey]; ok {
		return ks, nil
	}
	return killswitch.Implicit(flagKey), nil
}

// ActiveKillSwitches lists active switches of live flags ordered by flag key.
// Switches of archived flags stay stored but are not listed.
func (s *Snapshot) ActiveKillSwitches() []killswitch.KillSwitch {
	out := make([]killswitch.KillSwitch, 0)
	for key, ks := range s.switches {
		if f, ok := s.flags[key]; ks.Active && ok && !f.Archived {
			out = append(out, ks)
		}
	}
	slices.SortFunc(out, func(a, b killswitch.KillSwitch) int { return cmp.Compare(a.FlagKey, b.FlagKey) })
	return out
}

// Evaluate decides flagKey for userID against this snapshot.
func (s *Snapshot) Evaluate(flagKey, userID string) (feature.Decision, error) {
	f, ok := s.flags[flagKey]
	if !ok || f.Archived {
		return feature.Decision{}, feature.ErrNotFound
	}
	if err := validateUserID(userID); err != nil {
		return feature.Decision{}, err
	}
	return feature.Evaluate(f, s.switches[flagKey].Active, userID), nil
}

// BulkResult holds the outcome of evaluating several flags at one version.
type BulkResult struct {
	Results map[string]feature.Decision `json:"results"`
	Errors  map[string]string           `json:"errors"`
}

// EvaluateBulk evaluates each flagKey for its userID. Failures are collected
// per flag instead of aborting the batch.
func (s *Snapshot) EvaluateBulk(requests map[string]string) BulkResult {
	res := BulkResult{
		Results: make(map[string]feature.Decision, len(requests)),
		Errors:  make(map[string]string),
	}
	for flagKey, userID := range requests {
		d, err := s.Evaluate(flagKey, userID)
		if err != nil {
			res.Errors[flagKey] = errorMessage(err)
			continue
		}
		res.Results[flagKey] = d
	}
	return res
}

func validateUserID(userID string) error {
	err := validator.Apply(
		validator.RequiredString("userId", userID),
		validator.MaxLenString("userId", userID, feature.MaxUserIDLength),
	)
	if err != nil {
		return errors.Join(feature.ErrInvalidArgument, err)
	}
	return nil
}

// errorMessage reduces err to its most specific human readable part.
func errorMessage(err error) string {
	if errs := validator.ExtractValidationErrors(err); errs != nil {
		return errs.Error()
	}
	return err.Error()
}
