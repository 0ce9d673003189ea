package audit

import (
	"cmp"
	"slices"
	"time"
)

const (
	DefaultLimit = 50
	MaxLimit     = 1000
)

// Criteria filters ledger queries. Zero fields match everything.
// Results are always newest first.
type Criteria struct {
	EntityKey   string
	PerformedBy string
	Action      Action
	Since       time.Time
	Limit       int
}

// Normalized returns c with Limit clamped to [1, MaxLimit], defaulting to DefaultLimit.
func (c Criteria) Normalized() Criteria {
	switch {
	case c.Limit <= 0:
		c.Limit = DefaultLimit
	case c.Limit > MaxLimit:
		c.Limit = MaxLimit
	}
	return c
}

// Matches reports whether e satisfies the filters of c. Limit is ignored.
func (c Criteria) Matches(e Entry) bool {
	if c.EntityKey != "" && e.EntityKey != c.EntityKey {
		return false
	}
	if c.PerformedBy != "" && e.PerformedBy != c.PerformedBy {
		return false
	}
	if c.Action != "" && e.Action != c.Action {
		return false
	}
	if !c.Since.IsZero() && e.Timestamp.Before(c.Since) {
		return false
	}
	return true
}

// SortNewestFirst orders entries by timestamp descending, breaking ties by
// sequence number descending.
func SortNewestFirst(entries []Entry) {
	slices.SortFunc(entries, func(a, b Entry) int {
		if c := b.Timestamp.Compare(a.Timestamp); c != 0 {
			return c
		}
		return cmp.Compare(b.Seq, a.Seq)
	})
}
