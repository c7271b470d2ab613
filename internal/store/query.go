package store

import (
	"context"
	"fmt"
	"math"

	sq "github.com/Masterminds/squirrel"

	"github.com/roach88/rollix/internal/record"
)

// Filter narrows a page query. Zero-valued fields do not filter.
// Not every field applies to every kind; see Query.Validate.
type Filter struct {
	// IDs restricts the natural key to a set (index, id or marketid).
	// Not valid for positions.
	IDs []uint64
	// Owner selects markets listed by this player.
	Owner *record.PlayerID
	// Bidder selects markets whose current highest bid is this player's.
	Bidder *record.PlayerID
	// Player selects positions held by this player.
	Player *record.PlayerID
	// ExcludeSettled drops markets whose auction has closed.
	ExcludeSettled bool
}

// Query selects one page of a read model.
type Query struct {
	Kind   record.Kind
	Filter Filter
	Skip   int
	// Limit caps the page size; 0 means no limit.
	Limit int
}

// Page is one page of results plus the total number of matching records.
type Page struct {
	Records []record.Object
	Total   int
}

// Validate rejects filters that do not apply to the query's kind.
func (q Query) Validate() error {
	if _, err := tableFor(q.Kind); err != nil {
		return err
	}
	if q.Skip < 0 || q.Limit < 0 {
		return fmt.Errorf("skip and limit must be non-negative")
	}

	f := q.Filter
	isMarket := q.Kind == record.KindMarket
	switch {
	case len(f.IDs) > 0 && q.Kind == record.KindPosition:
		return fmt.Errorf("ids filter does not apply to %s", q.Kind)
	case f.Owner != nil && !isMarket:
		return fmt.Errorf("owner filter does not apply to %s", q.Kind)
	case f.Bidder != nil && !isMarket:
		return fmt.Errorf("bidder filter does not apply to %s", q.Kind)
	case f.ExcludeSettled && !isMarket:
		return fmt.Errorf("settled filter does not apply to %s", q.Kind)
	case f.Player != nil && q.Kind != record.KindPosition:
		return fmt.Errorf("player filter does not apply to %s", q.Kind)
	}
	return nil
}

// where builds the filter predicate for t.
func (q Query) where(t table) sq.And {
	f := q.Filter
	conds := sq.And{}

	if len(f.IDs) > 0 {
		ids := make([]int64, len(f.IDs))
		for i, id := range f.IDs {
			ids[i] = i64(id)
		}
		conds = append(conds, sq.Eq{t.keyColumns[0]: ids})
	}
	if f.Owner != nil {
		conds = append(conds, sq.Eq{"owner1": i64(f.Owner[0]), "owner2": i64(f.Owner[1])})
	}
	if f.Bidder != nil {
		conds = append(conds, sq.Eq{
			"has_bid": 1,
			"bidder1": i64(f.Bidder[0]),
			"bidder2": i64(f.Bidder[1]),
		})
	}
	if f.Player != nil {
		conds = append(conds, sq.Eq{"pid1": i64(f.Player[0]), "pid2": i64(f.Player[1])})
	}
	if f.ExcludeSettled {
		conds = append(conds, sq.NotEq{"settleinfo": i64(record.SettleInfoSettled)})
	}
	return conds
}

// FindPage returns one page of records matching q, ordered by natural key,
// together with the total number of matches.
func (s *Store) FindPage(ctx context.Context, q Query) (Page, error) {
	if err := q.Validate(); err != nil {
		return Page{}, fmt.Errorf("find page: %w", err)
	}
	t, _ := tableFor(q.Kind)
	where := q.where(t)

	count := sq.Select("COUNT(*)").From(t.name)
	sel := sq.Select(t.columns...).From(t.name).OrderBy(t.keyColumns...)
	if len(where) > 0 {
		count = count.Where(where)
		sel = sel.Where(where)
	}

	countSQL, countArgs, err := count.ToSql()
	if err != nil {
		return Page{}, fmt.Errorf("find page: build count: %w", err)
	}

	var total int
	if err := s.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return Page{}, fmt.Errorf("find page: count %s: %w", q.Kind, err)
	}

	if q.Limit > 0 {
		sel = sel.Limit(uint64(q.Limit))
	} else if q.Skip > 0 {
		// SQLite only accepts OFFSET after a LIMIT.
		sel = sel.Limit(math.MaxInt64)
	}
	if q.Skip > 0 {
		sel = sel.Offset(uint64(q.Skip))
	}

	query, args, err := sel.ToSql()
	if err != nil {
		return Page{}, fmt.Errorf("find page: build select: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return Page{}, fmt.Errorf("find page: query %s: %w", q.Kind, err)
	}
	defer rows.Close()

	records := []record.Object{}
	for rows.Next() {
		obj, err := t.scan(rows)
		if err != nil {
			return Page{}, fmt.Errorf("find page: scan %s: %w", q.Kind, err)
		}
		records = append(records, obj)
	}
	if err := rows.Err(); err != nil {
		return Page{}, fmt.Errorf("find page: iterate %s: %w", q.Kind, err)
	}

	return Page{Records: records, Total: total}, nil
}
