package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/rollix/internal/record"
)

// Find retrieves the record stored under key.
// Returns ErrNotFound if there is none.
func (s *Store) Find(ctx context.Context, key record.Key) (record.Object, error) {
	t, err := tableFor(key.Kind)
	if err != nil {
		return nil, err
	}
	args, err := t.keyArgs(key)
	if err != nil {
		return nil, err
	}

	conds := make([]string, len(t.keyColumns))
	for i, c := range t.keyColumns {
		conds[i] = c + " = ?"
	}
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s",
		strings.Join(t.columns, ", "), t.name, strings.Join(conds, " AND "))

	obj, err := t.scan(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("find %s: %w", key, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", key, err)
	}
	return obj, nil
}

// Count returns the number of stored records of a kind.
func (s *Store) Count(ctx context.Context, kind record.Kind) (int, error) {
	t, err := tableFor(kind)
	if err != nil {
		return 0, err
	}
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+t.name).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", kind, err)
	}
	return n, nil
}
