package engine

import "github.com/BrendanKechtban/FeatureFlux/pkg/audit"

// Change announces one committed mutation.
type Change struct {
	// Version is the snapshot version published by the origin replica.
	Version uint64       `json:"version"`
	FlagKey string       `json:"flagKey"`
	Action  audit.Action `json:"action"`
	// Origin identifies the engine instance that committed the change.
	Origin string `json:"origin"`
}
