package feature

import (
	"errors"

	"github.com/BrendanKechtban/FeatureFlux/pkg/validator"
)

// Patch is a partial update. Nil fields are left unchanged.
type Patch struct {
	Key               *string   `json:"key,omitempty"`
	Name              *string   `json:"name,omitempty"`
	Description       *string   `json:"description,omitempty"`
	Enabled           *bool     `json:"enabled,omitempty"`
	RolloutPercentage *int      `json:"rolloutPercentage,omitempty"`
	TargetUserIDs     *[]string `json:"targetUserIds,omitempty"`
	ExcludedUserIDs   *[]string `json:"excludedUserIds,omitempty"`
}

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return p.Name == nil && p.Description == nil && p.Enabled == nil &&
		p.RolloutPercentage == nil && p.TargetUserIDs == nil && p.ExcludedUserIDs == nil
}

// Apply returns a copy of f with the patch applied and normalised.
// The key is immutable: a patch naming a different key is rejected.
func (p Patch) Apply(f Flag) (Flag, error) {
	if p.Key != nil && *p.Key != f.Key {
		return Flag{}, errors.Join(ErrInvalidArgument, validator.ValidationErrors{{
			Field:   "key",
			Message: "key cannot be changed",
			Code:    "immutable",
		}})
	}

	next := f.Clone()
	if p.Name != nil {
		next.Name = *p.Name
	}
	if p.Description != nil {
		next.Description = *p.Description
	}
	if p.Enabled != nil {
		next.Enabled = *p.Enabled
	}
	if p.RolloutPercentage != nil {
		next.RolloutPercentage = *p.RolloutPercentage
	}
	if p.TargetUserIDs != nil {
		next.TargetUserIDs = *p.TargetUserIDs
	}
	if p.ExcludedUserIDs != nil {
		next.ExcludedUserIDs = *p.ExcludedUserIDs
	}
	next.Normalize()
	return next, nil
}
