package audit

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Action is the kind of change an entry records.
type Action string

const (
	ActionCreate               Action = "CREATE"
	ActionUpdate               Action = "UPDATE"
	ActionDelete               Action = "DELETE"
	ActionToggle               Action = "TOGGLE"
	ActionKillSwitchActivate   Action = "KILLSWITCH_ACTIVATE"
	ActionKillSwitchDeactivate Action = "KILLSWITCH_DEACTIVATE"
)

// Valid reports whether a is a known action.
func (a Action) Valid() bool {
	switch a {
	case ActionCreate, ActionUpdate, ActionDelete, ActionToggle,
		ActionKillSwitchActivate, ActionKillSwitchDeactivate:
		return true
	}
	return false
}

// EntityFeatureFlag is the entity type of every flag and kill switch entry.
const EntityFeatureFlag = "FEATURE_FLAG"

// Entry is one immutable ledger record.
type Entry struct {
	ID          string          `json:"id"`
	Seq         int64           `json:"seq"`
	Action      Action          `json:"action"`
	EntityType  string          `json:"entityType"`
	EntityKey   string          `json:"entityKey"`
	PerformedBy string          `json:"performedBy"`
	Timestamp   time.Time       `json:"timestamp"`
	Description string          `json:"description"`
	OldValue    json.RawMessage `json:"oldValue,omitempty"`
	NewValue    json.RawMessage `json:"newValue,omitempty"`
	IPAddress   string          `json:"ipAddress,omitempty"`
	RequestID   string          `json:"requestId,omitempty"`
	Checksum    string          `json:"checksum"`
}

// Validate checks the fields every entry must carry.
func (e Entry) Validate() error {
	switch {
	case e.ID == "":
		return fmt.Errorf("%w: id is required", ErrEventValidation)
	case !e.Action.Valid():
		return fmt.Errorf("%w: unknown action %q", ErrEventValidation, e.Action)
	case e.EntityKey == "":
		return fmt.Errorf("%w: entity key is required", ErrEventValidation)
	case e.PerformedBy == "":
		return fmt.Errorf("%w: performedBy is required", ErrEventValidation)
	case e.Timestamp.IsZero():
		return fmt.Errorf("%w: timestamp is required", ErrEventValidation)
	}
	return nil
}

// Option sets optional entry fields in New.
type Option func(*draft)

type draft struct {
	entry    Entry
	oldValue any
	newValue any
}

// WithValues records the entity before and after the change. Nil skips a side.
func WithValues(oldValue, newValue any) Option {
	return func(d *draft) {
		d.oldValue = oldValue
		d.newValue = newValue
	}
}

func WithIPAddress(ip string) Option {
	return func(d *draft) { d.entry.IPAddress = ip }
}

func WithRequestID(id string) Option {
	return func(d *draft) { d.entry.RequestID = id }
}

// New builds a sealed flag entry. The timestamp is stored in UTC with
// microsecond precision so it survives a database round trip unchanged.
func New(action Action, entityKey, performedBy, description string, at time.Time, opts ...Option) (Entry, error) {
	d := draft{entry: Entry{
		ID:          uuid.New().String(),
		Action:      action,
		EntityType:  EntityFeatureFlag,
		EntityKey:   entityKey,
		PerformedBy: performedBy,
		Timestamp:   at.UTC().Truncate(time.Microsecond),
		Description: description,
	}}
	for _, opt := range opts {
		opt(&d)
	}

	var err error
	if d.entry.OldValue, err = marshalValue(d.oldValue); err != nil {
		return Entry{}, fmt.Errorf("audit: encode old value: %w", err)
	}
	if d.entry.NewValue, err = marshalValue(d.newValue); err != nil {
		return Entry{}, fmt.Errorf("audit: encode new value: %w", err)
	}
	if err := d.entry.Validate(); err != nil {
		return Entry{}, err
	}

	d.entry.Checksum = Checksum(d.entry)
	return d.entry, nil
}

func marshalValue(v any) (json.RawMessage, error) {
	if v == nil {
		return nil, nil
	}
	return json.Marshal(v)
}
