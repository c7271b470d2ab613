package store

import (
	"fmt"

	"github.com/roach88/rollix/internal/record"
)

// table describes how one variant is laid out in SQLite.
type table struct {
	name string
	// columns in scan order.
	columns []string
	// keyColumns in natural-key order; also the page ORDER BY.
	keyColumns []string
	scan       func(rowScanner) (record.Object, error)
}

var tables = map[record.Kind]table{
	record.KindIndexedObject: {
		name:       "indexed_objects",
		columns:    []string{"idx", "data"},
		keyColumns: []string{"idx"},
		scan:       scanIndexedObject,
	},
	record.KindPosition: {
		name:       "positions",
		columns:    []string{"pid1", "pid2", "object_index", "data"},
		keyColumns: []string{"pid1", "pid2", "object_index"},
		scan:       scanPosition,
	},
	record.KindNugget: {
		name:       "nuggets",
		columns:    []string{"id", "attributes", "cycle", "feature", "sysprice", "marketid"},
		keyColumns: []string{"id"},
		scan:       scanNugget,
	},
	record.KindMarket: {
		name: "markets",
		columns: []string{
			"marketid", "askprice", "settleinfo",
			"has_bid", "bidprice", "bidder1", "bidder2",
			"owner1", "owner2",
			"obj_id", "obj_attributes", "obj_cycle", "obj_feature", "obj_sysprice", "obj_marketid",
		},
		keyColumns: []string{"marketid"},
		scan:       scanMarket,
	},
}

func tableFor(kind record.Kind) (table, error) {
	t, ok := tables[kind]
	if !ok {
		return table{}, fmt.Errorf("unknown record kind %q", kind)
	}
	return t, nil
}

// keyArgs converts a natural key into WHERE arguments for keyColumns.
func (t table) keyArgs(key record.Key) ([]any, error) {
	if len(key.Parts) != len(t.keyColumns) {
		return nil, fmt.Errorf("%s key needs %d parts, got %d", key.Kind, len(t.keyColumns), len(key.Parts))
	}
	args := make([]any, len(key.Parts))
	for i, p := range key.Parts {
		args[i] = i64(p)
	}
	return args, nil
}
