package feature

import (
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/BrendanKechtban/FeatureFlux/pkg/validator"
)

// Field limits, matching the storage schema.
const (
	MaxKeyLength         = 100
	MaxNameLength        = 200
	MaxDescriptionLength = 1000
	MaxUserIDLength      = 255
	MaxListSize          = 10000
)

// Flag is the configuration of a single feature flag.
// Values handed out by the engine are copies; mutating them has no effect.
type Flag struct {
	ID                int64     `json:"id"`
	Key               string    `json:"key"`
	Name              string    `json:"name"`
	Description       string    `json:"description"`
	Enabled           bool      `json:"enabled"`
	RolloutPercentage int       `json:"rolloutPercentage"`
	TargetUserIDs     []string  `json:"targetUserIds"`
	ExcludedUserIDs   []string  `json:"excludedUserIds"`
	Archived          bool      `json:"archived"`
	Version           int64     `json:"version"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// Clone returns a deep copy of f.
func (f Flag) Clone() Flag {
	f.TargetUserIDs = slices.Clone(f.TargetUserIDs)
	f.ExcludedUserIDs = slices.Clone(f.ExcludedUserIDs)
	return f
}

// Normalize trims text fields and turns the user lists into sorted sets.
func (f *Flag) Normalize() {
	f.Key = strings.TrimSpace(f.Key)
	f.Name = strings.TrimSpace(f.Name)
	f.Description = strings.TrimSpace(f.Description)
	f.TargetUserIDs = NormalizeIDs(f.TargetUserIDs)
	f.ExcludedUserIDs = NormalizeIDs(f.ExcludedUserIDs)
}

// Validate checks the field constraints shared by create and update.
// The returned error wraps both ErrInvalidArgument and validator.ValidationErrors.
func (f Flag) Validate() error {
	err := validator.Apply(
		validator.RequiredString("key", f.Key),
		validator.ValidSlug("key", f.Key),
		validator.MaxLenString("key", f.Key, MaxKeyLength),
		validator.RequiredString("name", f.Name),
		validator.MaxLenString("name", f.Name, MaxNameLength),
		validator.MaxLenString("description", f.Description, MaxDescriptionLength),
		validator.RangeNum("rolloutPercentage", f.RolloutPercentage, 0, 100),
		validator.MaxLenSlice("targetUserIds", f.TargetUserIDs, MaxListSize),
		validator.EachMaxLen("targetUserIds", f.TargetUserIDs, MaxUserIDLength),
		validator.MaxLenSlice("excludedUserIds", f.ExcludedUserIDs, MaxListSize),
		validator.EachMaxLen("excludedUserIds", f.ExcludedUserIDs, MaxUserIDLength),
	)
	if err != nil {
		return errors.Join(ErrInvalidArgument, err)
	}
	return nil
}

// IsTargeted reports whether userID is on the explicit include list.
func (f Flag) IsTargeted(userID string) bool {
	_, ok := slices.BinarySearch(f.TargetUserIDs, userID)
	return ok
}

// IsExcluded reports whether userID is on the exclude list.
func (f Flag) IsExcluded(userID string) bool {
	_, ok := slices.BinarySearch(f.ExcludedUserIDs, userID)
	return ok
}

// NormalizeIDs trims ids, drops blanks and returns a sorted set.
func NormalizeIDs(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id = strings.TrimSpace(id); id != "" {
			out = append(out, id)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}
