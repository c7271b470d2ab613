package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/roach88/rollix/internal/config"
	"github.com/roach88/rollix/internal/feed"
	"github.com/roach88/rollix/internal/ingest"
	"github.com/roach88/rollix/internal/store"
)

// openStore loads the configuration, applies a --db override and opens the
// database.
func (o *RootOptions) openStore(database string) (*store.Store, config.Config, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, config.Config{}, err
	}
	if database != "" {
		cfg.Database = database
	}

	st, err := store.Open(cfg.Database)
	if err != nil {
		return nil, config.Config{}, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	return st, cfg, nil
}

// readFeed parses every delivery in the feed file at path.
func readFeed(path string) ([]ingest.Delivery, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open feed: %w", err)
	}
	defer f.Close()
	return feed.NewReader(f).ReadAll()
}

// enqueueFeed streams the feed file at path into r and returns the number
// of deliveries enqueued.
func enqueueFeed(path string, r *ingest.Runner) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open feed: %w", err)
	}
	defer f.Close()

	reader := feed.NewReader(f)
	n := 0
	for {
		d, err := reader.Next()
		if errors.Is(err, io.EOF) {
			return n, nil
		}
		if err != nil {
			return n, err
		}
		if !r.Enqueue(d) {
			return n, fmt.Errorf("runner stopped after %d deliveries", n)
		}
		n++
	}
}
