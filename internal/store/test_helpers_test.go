package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/rollix/internal/record"
)

// createTestStore creates a new temp-dir store for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestMarket creates an open market listed by owner with no bid.
func createTestMarket(id uint64, owner record.PlayerID) record.Market {
	return record.Market{
		MarketID:   id,
		AskPrice:   100 * id,
		SettleInfo: 0,
		Owner:      owner,
		Object: record.Nugget{
			ID:         id + 1000,
			Attributes: 7,
			Cycle:      3,
			Feature:    1,
			SysPrice:   50,
			MarketID:   id,
		},
	}
}
