package store

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/rollix/internal/record"
	"github.com/roach88/rollix/internal/rollup"
)

// i64 stores a uint64 as its two's-complement bit pattern.
func i64(v uint64) int64 { return int64(v) }

// u64 is the inverse of i64.
func u64(v int64) uint64 { return uint64(v) }

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// marshalWords renders words as canonical JSON numbers for a TEXT column.
func marshalWords(words []uint64) (string, error) {
	if words == nil {
		words = []uint64{}
	}
	data, err := rollup.MarshalCanonical(words)
	if err != nil {
		return "", fmt.Errorf("marshal words: %w", err)
	}
	return string(data), nil
}

// unmarshalWords parses a TEXT column written by marshalWords.
// encoding/json decodes integers straight into uint64 without a float detour.
func unmarshalWords(data string) (record.Words, error) {
	words := record.Words{}
	if data == "" || data == "[]" {
		return words, nil
	}
	var raw []uint64
	if err := json.Unmarshal([]byte(data), &raw); err != nil {
		return nil, fmt.Errorf("unmarshal words: %w", err)
	}
	return record.Words(raw), nil
}

// rowScanner is implemented by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanIndexedObject(row rowScanner) (record.Object, error) {
	var (
		idx  int64
		data string
	)
	if err := row.Scan(&idx, &data); err != nil {
		return nil, err
	}
	words, err := unmarshalWords(data)
	if err != nil {
		return nil, err
	}
	return record.IndexedObject{Index: u64(idx), Data: words}, nil
}

func scanPosition(row rowScanner) (record.Object, error) {
	var (
		pid1, pid2, objectIndex int64
		data                    string
	)
	if err := row.Scan(&pid1, &pid2, &objectIndex, &data); err != nil {
		return nil, err
	}
	words, err := unmarshalWords(data)
	if err != nil {
		return nil, err
	}
	return record.Position{
		PID1:        u64(pid1),
		PID2:        u64(pid2),
		ObjectIndex: u64(objectIndex),
		Data:        words,
	}, nil
}

func scanNugget(row rowScanner) (record.Object, error) {
	var id, attributes, cycle, feature, sysprice, marketid int64
	if err := row.Scan(&id, &attributes, &cycle, &feature, &sysprice, &marketid); err != nil {
		return nil, err
	}
	return record.Nugget{
		ID:         u64(id),
		Attributes: u64(attributes),
		Cycle:      u64(cycle),
		Feature:    u64(feature),
		SysPrice:   u64(sysprice),
		MarketID:   u64(marketid),
	}, nil
}

func scanMarket(row rowScanner) (record.Object, error) {
	var (
		marketid, askprice, settleinfo       int64
		hasBid                               int
		bidprice, bidder1, bidder2           int64
		owner1, owner2                       int64
		objID, objAttr, objCycle, objFeature int64
		objSysprice, objMarketid             int64
	)
	err := row.Scan(
		&marketid, &askprice, &settleinfo,
		&hasBid, &bidprice, &bidder1, &bidder2,
		&owner1, &owner2,
		&objID, &objAttr, &objCycle, &objFeature, &objSysprice, &objMarketid,
	)
	if err != nil {
		return nil, err
	}

	m := record.Market{
		MarketID:   u64(marketid),
		AskPrice:   u64(askprice),
		SettleInfo: u64(settleinfo),
		Owner:      record.PlayerID{u64(owner1), u64(owner2)},
		Object: record.Nugget{
			ID:         u64(objID),
			Attributes: u64(objAttr),
			Cycle:      u64(objCycle),
			Feature:    u64(objFeature),
			SysPrice:   u64(objSysprice),
			MarketID:   u64(objMarketid),
		},
	}
	if hasBid == 1 {
		m.Bid = &record.Bid{
			Price:  u64(bidprice),
			Bidder: record.PlayerID{u64(bidder1), u64(bidder2)},
		}
	}
	return m, nil
}
