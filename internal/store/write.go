package store

import (
	"context"
	"fmt"

	"github.com/roach88/rollix/internal/record"
)

// Upsert stores obj under its natural key, replacing any existing row in
// full. Writing the same object twice leaves the same row.
func (s *Store) Upsert(ctx context.Context, obj record.Object) error {
	var err error
	switch v := obj.(type) {
	case record.IndexedObject:
		err = s.upsertIndexedObject(ctx, v)
	case record.Position:
		err = s.upsertPosition(ctx, v)
	case record.Nugget:
		err = s.upsertNugget(ctx, v)
	case record.Market:
		err = s.upsertMarket(ctx, v)
	default:
		err = fmt.Errorf("unsupported record type %T", obj)
	}
	if err != nil {
		return fmt.Errorf("upsert %s: %w", obj.Key(), err)
	}
	return nil
}

func (s *Store) upsertIndexedObject(ctx context.Context, o record.IndexedObject) error {
	data, err := marshalWords(o.Data)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO indexed_objects (idx, data)
		VALUES (?, ?)
		ON CONFLICT(idx) DO UPDATE SET data = excluded.data
	`, i64(o.Index), data)
	return err
}

func (s *Store) upsertPosition(ctx context.Context, p record.Position) error {
	data, err := marshalWords(p.Data)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO positions (pid1, pid2, object_index, data)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(pid1, pid2, object_index) DO UPDATE SET data = excluded.data
	`, i64(p.PID1), i64(p.PID2), i64(p.ObjectIndex), data)
	return err
}

func (s *Store) upsertNugget(ctx context.Context, n record.Nugget) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO nuggets (id, attributes, cycle, feature, sysprice, marketid)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			attributes = excluded.attributes,
			cycle      = excluded.cycle,
			feature    = excluded.feature,
			sysprice   = excluded.sysprice,
			marketid   = excluded.marketid
	`,
		i64(n.ID),
		i64(n.Attributes),
		i64(n.Cycle),
		i64(n.Feature),
		i64(n.SysPrice),
		i64(n.MarketID),
	)
	return err
}

func (s *Store) upsertMarket(ctx context.Context, m record.Market) error {
	var bid record.Bid
	if m.Bid != nil {
		bid = *m.Bid
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO markets (
			marketid, askprice, settleinfo,
			has_bid, bidprice, bidder1, bidder2,
			owner1, owner2,
			obj_id, obj_attributes, obj_cycle, obj_feature, obj_sysprice, obj_marketid
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(marketid) DO UPDATE SET
			askprice       = excluded.askprice,
			settleinfo     = excluded.settleinfo,
			has_bid        = excluded.has_bid,
			bidprice       = excluded.bidprice,
			bidder1        = excluded.bidder1,
			bidder2        = excluded.bidder2,
			owner1         = excluded.owner1,
			owner2         = excluded.owner2,
			obj_id         = excluded.obj_id,
			obj_attributes = excluded.obj_attributes,
			obj_cycle      = excluded.obj_cycle,
			obj_feature    = excluded.obj_feature,
			obj_sysprice   = excluded.obj_sysprice,
			obj_marketid   = excluded.obj_marketid
	`,
		i64(m.MarketID), i64(m.AskPrice), i64(m.SettleInfo),
		boolInt(m.Bid != nil), i64(bid.Price), i64(bid.Bidder[0]), i64(bid.Bidder[1]),
		i64(m.Owner[0]), i64(m.Owner[1]),
		i64(m.Object.ID), i64(m.Object.Attributes), i64(m.Object.Cycle),
		i64(m.Object.Feature), i64(m.Object.SysPrice), i64(m.Object.MarketID),
	)
	return err
}
