package postgres

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/lib/pq"

	"github.com/BrendanKechtban/FeatureFlux/pkg/audit"
	"github.com/BrendanKechtban/FeatureFlux/pkg/feature"
	"github.com/BrendanKechtban/FeatureFlux/pkg/killswitch"
)

// scannable is satisfied by both *sql.Row and *sql.Rows.
type scannable interface {
	Scan(dest ...any) error
}

func scanFlag(row scannable) (feature.Flag, error) {
	var (
		f        feature.Flag
		targets  pq.StringArray
		excluded pq.StringArray
	)
	err := row.Scan(
		&f.ID, &f.Key, &f.Name, &f.Description, &f.Enabled, &f.RolloutPercentage,
		&targets, &excluded, &f.Archived, &f.Version, &f.CreatedAt, &f.UpdatedAt,
	)
	if err != nil {
		return feature.Flag{}, err
	}
	f.TargetUserIDs = append([]string{}, targets...)
	f.ExcludedUserIDs = append([]string{}, excluded...)
	return f, nil
}

func scanKillSwitch(row scannable) (killswitch.KillSwitch, error) {
	var (
		ks          killswitch.KillSwitch
		activatedAt sql.NullTime
	)
	err := row.Scan(
		&ks.ID, &ks.FlagKey, &ks.Active, &ks.Reason, &ks.ActivatedBy,
		&activatedAt, &ks.CreatedAt, &ks.UpdatedAt,
	)
	if err != nil {
		return killswitch.KillSwitch{}, err
	}
	if activatedAt.Valid {
		ks.ActivatedAt = activatedAt.Time
	}
	return ks, nil
}

func scanEntry(row scannable) (audit.Entry, error) {
	var (
		e        audit.Entry
		action   string
		oldValue []byte
		newValue []byte
	)
	err := row.Scan(
		&e.Seq, &e.ID, &action, &e.EntityType, &e.EntityKey, &e.PerformedBy, &e.Description,
		&oldValue, &newValue, &e.IPAddress, &e.RequestID, &e.Checksum, &e.Timestamp,
	)
	if err != nil {
		return audit.Entry{}, err
	}
	e.Action = audit.Action(action)
	e.Timestamp = e.Timestamp.UTC()
	if len(oldValue) > 0 {
		e.OldValue = json.RawMessage(oldValue)
	}
	if len(newValue) > 0 {
		e.NewValue = json.RawMessage(newValue)
	}
	return e, nil
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}

// nullJSON maps an absent value to SQL NULL.
func nullJSON(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}
