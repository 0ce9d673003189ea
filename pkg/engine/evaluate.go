package engine

import (
	"context"
	"fmt"

	"github.com/BrendanKechtban/FeatureFlux/pkg/audit"
	"github.com/BrendanKechtban/FeatureFlux/pkg/feature"
)

// Evaluate decides flagKey for userID against the latest snapshot.
// It never blocks on writers.
func (e *Engine) Evaluate(flagKey, userID string) (feature.Decision, error) {
	return e.Snapshot().Evaluate(flagKey, userID)
}

// EvaluateBulk evaluates several flags against one snapshot.
func (e *Engine) EvaluateBulk(requests map[string]string) BulkResult {
	return e.Snapshot().EvaluateBulk(requests)
}

// AuditLog returns ledger entries matching c, newest first.
func (e *Engine) AuditLog(ctx context.Context, c audit.Criteria) ([]audit.Entry, error) {
	entries, err := e.store.QueryAudit(ctx, c.Normalized())
	if err != nil {
		return nil, fmt.Errorf("query audit log: %w", err)
	}
	return entries, nil
}
