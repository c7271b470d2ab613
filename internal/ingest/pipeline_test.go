package ingest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rollix/internal/frame"
	"github.com/roach88/rollix/internal/projector"
	"github.com/roach88/rollix/internal/record"
	"github.com/roach88/rollix/internal/rollup"
	"github.com/roach88/rollix/internal/testutil"
)

func TestOnEvent_ProjectsFrames(t *testing.T) {
	s := createTestStore(t)
	p := newTestPipeline(t, s)
	ctx := context.Background()

	n := record.Nugget{ID: 3, Attributes: 5, SysPrice: 70}
	pos := record.Position{PID1: 1, PID2: 2, ObjectIndex: 3, Data: record.Words{1}}

	rep := p.OnEvent(ctx, testutil.Witness(1), testutil.EventLog(7, n, pos))

	assert.False(t, rep.Duplicate)
	assert.False(t, rep.Skipped)
	assert.Equal(t, uint64(7), rep.EventID)
	assert.Equal(t, int64(1), rep.Seq)
	assert.True(t, rep.Archived)
	assert.Equal(t, 2, rep.Frames)
	assert.NoError(t, rep.Truncated)
	assert.Equal(t, 2, rep.Summary.Upserted)

	got, err := s.Find(ctx, record.NuggetKey(3))
	require.NoError(t, err)
	assert.Equal(t, n, got)

	got, err = s.Find(ctx, record.PositionKey(1, 2, 3))
	require.NoError(t, err)
	assert.Equal(t, pos, got)

	events, err := s.ReadEvents(ctx, rep.WitnessKey)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, 2, events[0].Frames)
}

func TestOnEvent_DuplicateIsNoop(t *testing.T) {
	s := createTestStore(t)
	p := newTestPipeline(t, s)
	ctx := context.Background()
	w := testutil.Witness(1)

	p.OnEvent(ctx, w, testutil.EventLog(1, record.IndexedObject{Index: 9, Data: record.Words{1}}))
	rep := p.OnEvent(ctx, w, testutil.EventLog(1, record.IndexedObject{Index: 9, Data: record.Words{2}}))

	assert.True(t, rep.Duplicate)
	assert.Zero(t, rep.Seq)

	got, err := s.Find(ctx, record.IndexedObjectKey(9))
	require.NoError(t, err)
	assert.Equal(t, record.Words{1}, got.(record.IndexedObject).Data, "redelivery must not project")
	assert.Equal(t, int64(1), p.Clock().Current())
}

func TestOnEvent_SkipsFailedAndShortLogs(t *testing.T) {
	tests := []struct {
		name  string
		words []uint64
	}{
		{"empty", nil},
		{"failed status", []uint64{1, 7, frame.Header(1, 3), 1, 2, 3}},
		{"no frames", []uint64{0, 7}},
	}
	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := createTestStore(t)
			p := newTestPipeline(t, s)
			ctx := context.Background()

			rep := p.OnEvent(ctx, testutil.Witness(i), tt.words)

			assert.True(t, rep.Skipped)
			assert.Equal(t, 1, p.Tracked(), "skipped transactions are still tracked")
			n, err := s.CountEvents(ctx)
			require.NoError(t, err)
			assert.Zero(t, n)
		})
	}
}

func TestOnEvent_TruncatedTailKeepsEarlierFrames(t *testing.T) {
	s := createTestStore(t)
	p := newTestPipeline(t, s)
	ctx := context.Background()

	words := testutil.EventLog(2, record.IndexedObject{Index: 4, Data: record.Words{8}})
	words = append(words, frame.Header(projector.TagPosition, 5), 1, 2)

	rep := p.OnEvent(ctx, testutil.Witness(1), words)

	require.Error(t, rep.Truncated)
	assert.ErrorIs(t, rep.Truncated, frame.ErrTruncated)
	assert.Equal(t, 1, rep.Frames)
	assert.Equal(t, 1, rep.Summary.Upserted)

	_, err := s.Find(ctx, record.IndexedObjectKey(4))
	assert.NoError(t, err)
}

func TestOnEvent_UnknownTagSkipsOneFrame(t *testing.T) {
	s := createTestStore(t)
	p := newTestPipeline(t, s)
	ctx := context.Background()

	words := frame.Encode(frame.StatusSuccess, 3,
		frame.Frame{Tag: 77, Payload: []uint64{1, 2}},
		testutil.ObjectFrame(record.Nugget{ID: 1}),
	)
	rep := p.OnEvent(ctx, testutil.Witness(1), words)

	assert.Equal(t, 1, rep.Summary.UnknownTags)
	assert.Equal(t, 1, rep.Summary.Upserted)
}

func TestOnBatchCommitted_AdvancesCheckpoint(t *testing.T) {
	s := createTestStore(t)
	genesis := rollup.Root{9}
	p := newTestPipeline(t, s, WithGenesisRoot(genesis))
	ctx := context.Background()
	w := testutil.Witness(1)

	p.OnEvent(ctx, w, testutil.EventLog(1, record.Nugget{ID: 1}))
	require.Equal(t, 1, p.Tracked())

	post := rollup.Root{10}
	require.NoError(t, p.OnBatchCommitted(ctx, []rollup.Witness{w}, genesis, post))

	assert.Equal(t, post, p.Root())
	assert.Zero(t, p.Tracked())

	latest, err := s.LatestCommit(ctx)
	require.NoError(t, err)
	assert.Equal(t, genesis, latest.PreRoot)
	assert.Equal(t, post, latest.PostRoot)
	assert.Equal(t, 1, latest.TxCount)
	assert.Equal(t, "run-test", latest.RunID)
	assert.Equal(t, int64(2), latest.Seq)

	// The same witness is new again after the checkpoint.
	rep := p.OnEvent(ctx, w, testutil.EventLog(1, record.Nugget{ID: 1}))
	assert.False(t, rep.Duplicate)
	assert.False(t, rep.Archived, "identical raw event is archived once")
}

func TestOnBatchCommitted_StoreFailureStillAdvances(t *testing.T) {
	s := createTestStore(t)
	p := newTestPipeline(t, s)
	ctx := context.Background()
	p.OnEvent(ctx, testutil.Witness(1), testutil.EventLog(1, record.Nugget{ID: 1}))

	require.NoError(t, s.Close())

	err := p.OnBatchCommitted(ctx, nil, rollup.Root{}, rollup.Root{5})
	require.Error(t, err)
	assert.Equal(t, rollup.Root{5}, p.Root())
	assert.Zero(t, p.Tracked())
}

func TestResume(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	first := newTestPipeline(t, s, WithGenesisRoot(rollup.Root{1}))
	first.OnEvent(ctx, testutil.Witness(1), testutil.EventLog(1, record.Nugget{ID: 1}))
	require.NoError(t, first.OnBatchCommitted(ctx, nil, rollup.Root{1}, rollup.Root{2}))
	first.OnEvent(ctx, testutil.Witness(2), testutil.EventLog(2, record.Nugget{ID: 2}))

	restarted := newTestPipeline(t, s, WithGenesisRoot(rollup.Root{1}))
	require.NoError(t, restarted.Resume(ctx))

	assert.Equal(t, rollup.Root{2}, restarted.Root())
	assert.Equal(t, int64(3), restarted.Clock().Current())
	assert.Zero(t, restarted.Tracked(), "tracking is not persisted")

	// Reprocessing an already-seen transaction is safe.
	rep := restarted.OnEvent(ctx, testutil.Witness(2), testutil.EventLog(2, record.Nugget{ID: 2}))
	assert.False(t, rep.Duplicate)
	assert.Equal(t, 1, rep.Summary.Upserted)
	n, err := s.Count(ctx, record.KindNugget)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestResume_EmptyStoreKeepsGenesis(t *testing.T) {
	s := createTestStore(t)
	p := newTestPipeline(t, s, WithGenesisRoot(rollup.Root{7}))

	require.NoError(t, p.Resume(context.Background()))
	assert.Equal(t, rollup.Root{7}, p.Root())
	assert.Zero(t, p.Clock().Current())
}

func TestPipeline_StoreFailureDoesNotStopFrames(t *testing.T) {
	s := createTestStore(t)
	p := newTestPipeline(t, s)
	ctx := context.Background()
	require.NoError(t, s.Close())

	rep := p.OnEvent(ctx, testutil.Witness(1), testutil.EventLog(1, record.Nugget{ID: 1}, record.Nugget{ID: 2}))

	assert.False(t, rep.Archived)
	assert.Equal(t, 2, rep.Summary.Failed)
	for _, r := range rep.Summary.Results {
		assert.Equal(t, projector.OutcomeStoreFailed, r.Outcome)
	}
}
