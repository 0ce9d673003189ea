package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/BrendanKechtban/FeatureFlux/pkg/audit"
)

// QueryAudit returns ledger entries matching c, newest first.
func (s *Store) QueryAudit(ctx context.Context, c audit.Criteria) ([]audit.Entry, error) {
	c = c.Normalized()
	query, args := buildAuditQuery(c)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query audit: %w", err)
	}
	defer rows.Close()

	entries := make([]audit.Entry, 0, min(c.Limit, audit.DefaultLimit))
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query audit: %w", err)
	}
	return entries, nil
}

func buildAuditQuery(c audit.Criteria) (string, []any) {
	var (
		where []string
		args  []any
	)
	add := func(clause string, arg any) {
		args = append(args, arg)
		where = append(where, fmt.Sprintf(clause, len(args)))
	}

	if c.EntityKey != "" {
		add("entity_key = $%d", c.EntityKey)
	}
	if c.PerformedBy != "" {
		add("performed_by = $%d", c.PerformedBy)
	}
	if c.Action != "" {
		add("action = $%d", string(c.Action))
	}
	if !c.Since.IsZero() {
		add("created_at >= $%d", c.Since)
	}

	var b strings.Builder
	b.WriteString("SELECT " + entryColumns + " FROM audit_logs")
	if len(where) > 0 {
		b.WriteString(" WHERE " + strings.Join(where, " AND "))
	}
	args = append(args, c.Limit)
	fmt.Fprintf(&b, " ORDER BY created_at DESC, seq DESC LIMIT $%d", len(args))
	return b.String(), args
}
