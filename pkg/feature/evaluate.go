package feature

// Reason names the rule that decided an evaluation.
type Reason string

const (
	ReasonKillSwitch Reason = "KILL_SWITCH"
	ReasonExcluded   Reason = "EXCLUDED"
	ReasonTargeted   Reason = "TARGETED"
	ReasonDisabled   Reason = "DISABLED"
	ReasonRollout    Reason = "ROLLOUT"
)

// Decision is the outcome of evaluating one flag for one user.
type Decision struct {
	FlagKey string `json:"flagKey"`
	UserID  string `json:"userId"`
	Enabled bool   `json:"enabled"`
	Bucket  int    `json:"bucket"`
	Reason  Reason `json:"reason"`
}

// Evaluate decides whether flag is on for userID. killed reports an active
// kill switch for the flag. The first matching rule wins:
//
//  1. active kill switch: off
//  2. user excluded: off
//  3. user targeted: flag.Enabled
//  4. flag disabled: off
//  5. otherwise: bucket < RolloutPercentage
//
// The bucket is always computed and returned.
func Evaluate(flag Flag, killed bool, userID string) Decision {
	d := Decision{
		FlagKey: flag.Key,
		UserID:  userID,
		Bucket:  Bucket(flag.Key, userID),
	}

	switch {
	case killed:
		d.Reason = ReasonKillSwitch
	case flag.IsExcluded(userID):
		d.Reason = ReasonExcluded
	case flag.IsTargeted(userID):
		d.Enabled = flag.Enabled
		d.Reason = ReasonTargeted
	case !flag.Enabled:
		d.Reason = ReasonDisabled
	default:
		d.Enabled = d.Bucket < flag.RolloutPercentage
		d.Reason = ReasonRollout
	}
	return d
}
