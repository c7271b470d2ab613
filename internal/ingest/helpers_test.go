package ingest

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/rollix/internal/store"
	"github.com/roach88/rollix/internal/testutil"
)

func createTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func newTestPipeline(t *testing.T, s *store.Store, opts ...Option) *Pipeline {
	t.Helper()
	base := []Option{
		WithRunIDGenerator(testutil.NewFixedRunIDGenerator("run-test")),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	}
	return NewPipeline(s, append(base, opts...)...)
}
