package store

import (
	"context"
	"errors"
	"sync"

	"github.com/BrendanKechtban/FeatureFlux/pkg/audit"
	"github.com/BrendanKechtban/FeatureFlux/pkg/feature"
	"github.com/BrendanKechtban/FeatureFlux/pkg/killswitch"
)

// Memory is a process-local Store. Data is lost on restart.
type Memory struct {
	mu       sync.RWMutex
	flags    map[string]feature.Flag
	switches map[string]killswitch.KillSwitch
	nextFlag int64
	nextKS   int64
	log      *audit.MemoryLog
}

var _ Store = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{
		flags:    make(map[string]feature.Flag),
		switches: make(map[string]killswitch.KillSwitch),
		log:      audit.NewMemoryLog(),
	}
}

// Ledger exposes the underlying audit log.
func (m *Memory) Ledger() *audit.MemoryLog {
	return m.log
}

func (m *Memory) Load(_ context.Context) (State, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	st := State{
		Flags:        make([]feature.Flag, 0, len(m.flags)),
		KillSwitches: make([]killswitch.KillSwitch, 0, len(m.switches)),
	}
	for _, f := range m.flags {
		st.Flags = append(st.Flags, f.Clone())
	}
	for _, ks := range m.switches {
		st.KillSwitches = append(st.KillSwitches, ks)
	}
	return st, nil
}

func (m *Memory) LoadKey(_ context.Context, key string) (Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	f, ok := m.flags[key]
	if !ok {
		return Record{}, feature.ErrNotFound
	}
	rec := Record{Flag: f.Clone()}
	if ks, ok := m.switches[key]; ok {
		rec.KillSwitch = &ks
	}
	return rec, nil
}

func (m *Memory) Commit(_ context.Context, mut Mutation) (Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var res Result

	if mut.Flag != nil {
		f := mut.Flag.Clone()
		existing, ok := m.flags[f.Key]
		switch {
		case mut.Create && ok:
			return Result{}, feature.ErrAlreadyExists
		case mut.Create:
			f.ID = m.nextFlag + 1
		case !ok:
			return Result{}, feature.ErrNotFound
		case existing.Version != mut.ExpectedVersion:
			return Result{}, feature.ErrVersionMismatch
		default:
			f.ID = existing.ID
			f.CreatedAt = existing.CreatedAt
		}
		res.Flag = &f
	}

	if mut.KillSwitch != nil {
		ks := *mut.KillSwitch
		if existing, ok := m.switches[ks.FlagKey]; ok {
			ks.ID = existing.ID
		} else {
			ks.ID = m.nextKS + 1
		}
		res.KillSwitch = &ks
	}

	entry, err := m.log.Append(mut.Entry)
	if err != nil {
		return Result{}, errors.Join(ErrAuditAppend, err)
	}
	res.Entry = entry

	if res.Flag != nil {
		if mut.Create {
			m.nextFlag = res.Flag.ID
		}
		m.flags[res.Flag.Key] = res.Flag.Clone()
	}
	if res.KillSwitch != nil {
		m.nextKS = max(m.nextKS, res.KillSwitch.ID)
		m.switches[res.KillSwitch.FlagKey] = *res.KillSwitch
	}
	return res, nil
}

func (m *Memory) QueryAudit(ctx context.Context, c audit.Criteria) ([]audit.Entry, error) {
	return m.log.Query(ctx, c)
}

func (m *Memory) Ping(context.Context) error { return nil }

func (m *Memory) Close() error { return nil }
