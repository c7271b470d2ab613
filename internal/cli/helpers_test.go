package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/rollix/internal/feed"
	"github.com/roach88/rollix/internal/ingest"
	"github.com/roach88/rollix/internal/record"
	"github.com/roach88/rollix/internal/rollup"
	"github.com/roach88/rollix/internal/testutil"
)

// executeCommand runs the root command with args and returns what it wrote
// to stdout.
func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), err
}

// sampleDeliveries is a small feed: a position and a nugget, a market
// listing that nugget, a redelivery of the first event and one commit.
func sampleDeliveries() []ingest.Delivery {
	first := testutil.EventLog(7,
		record.Position{PID1: 10, PID2: 20, ObjectIndex: 5, Data: record.Words{42}},
		record.Nugget{ID: 100, SysPrice: 500},
	)
	second := testutil.EventLog(8,
		record.Market{
			MarketID: 5,
			AskPrice: 1000,
			Owner:    record.PlayerID{10, 20},
			Object:   record.Nugget{ID: 100, MarketID: 5, SysPrice: 500},
		},
		record.Nugget{ID: 100, MarketID: 5, SysPrice: 500},
	)
	return []ingest.Delivery{
		ingest.EventDelivery(testutil.Witness(1), first),
		ingest.EventDelivery(testutil.Witness(2), second),
		ingest.EventDelivery(testutil.Witness(1), first),
		ingest.CommitDelivery(
			[]rollup.Witness{testutil.Witness(1), testutil.Witness(2)},
			rollup.Root{},
			rollup.Root{1},
		),
	}
}

// writeFeed writes deliveries as a JSONL feed file and returns its path.
func writeFeed(t *testing.T, deliveries ...ingest.Delivery) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "feed.jsonl")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	w := feed.NewWriter(f)
	for _, d := range deliveries {
		require.NoError(t, w.Write(d))
	}
	return path
}

// ingestSample ingests sampleDeliveries into a fresh database and returns
// its path.
func ingestSample(t *testing.T) string {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	_, err := executeCommand(t, "ingest", "--db", dbPath, writeFeed(t, sampleDeliveries()...))
	require.NoError(t, err)
	return dbPath
}
