package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/rollix/internal/rollup"
)

// RawEvent is one archived transaction event log.
type RawEvent struct {
	WitnessKey string
	Digest     string
	EventID    uint64
	Status     uint64
	Words      []uint64
	// Frames is the number of frames the decoder extracted.
	Frames int
	Seq    int64
}

// Commit is one confirmed batch.
type Commit struct {
	ID       int64
	PreRoot  rollup.Root
	PostRoot rollup.Root
	TxCount  int
	RunID    string
	Seq      int64
}

// WriteEvent archives a raw event log.
// Uses ON CONFLICT DO NOTHING for idempotency - re-archiving the same
// (witness, digest) pair is silently ignored and reports inserted=false.
func (s *Store) WriteEvent(ctx context.Context, ev RawEvent) (inserted bool, err error) {
	words, err := marshalWords(ev.Words)
	if err != nil {
		return false, fmt.Errorf("write event: %w", err)
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO events (witness_key, digest, event_id, status, words, frames, seq)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(witness_key, digest) DO NOTHING
	`,
		ev.WitnessKey,
		ev.Digest,
		i64(ev.EventID),
		i64(ev.Status),
		words,
		ev.Frames,
		ev.Seq,
	)
	if err != nil {
		return false, fmt.Errorf("write event: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("write event: rows affected: %w", err)
	}
	return n > 0, nil
}

// ReadEvents returns the archived events of one witness in seq order.
// Returns an empty slice (not nil) if there are none.
func (s *Store) ReadEvents(ctx context.Context, witnessKey string) ([]RawEvent, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT witness_key, digest, event_id, status, words, frames, seq
		FROM events
		WHERE witness_key = ?
		ORDER BY seq ASC, digest COLLATE BINARY ASC
	`, witnessKey)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	return scanEvents(rows)
}

// ListEvents returns every archived event in arrival order.
// Returns an empty slice (not nil) if there are none.
func (s *Store) ListEvents(ctx context.Context) ([]RawEvent, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT witness_key, digest, event_id, status, words, frames, seq
		FROM events
		ORDER BY seq ASC, witness_key COLLATE BINARY ASC, digest COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	return scanEvents(rows)
}

func scanEvents(rows *sql.Rows) ([]RawEvent, error) {
	defer rows.Close()

	events := []RawEvent{}
	for rows.Next() {
		var (
			ev              RawEvent
			eventID, status int64
			words           string
		)
		if err := rows.Scan(&ev.WitnessKey, &ev.Digest, &eventID, &status, &words, &ev.Frames, &ev.Seq); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		w, err := unmarshalWords(words)
		if err != nil {
			return nil, err
		}
		ev.EventID, ev.Status, ev.Words = u64(eventID), u64(status), w
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}

// CountEvents returns the number of archived event logs.
func (s *Store) CountEvents(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM events").Scan(&n); err != nil {
		return 0, fmt.Errorf("count events: %w", err)
	}
	return n, nil
}

// WriteCommit records a confirmed batch.
// Uses ON CONFLICT(post_root) DO NOTHING - a redelivered batch notification
// for a root already recorded is silently ignored and reports inserted=false.
func (s *Store) WriteCommit(ctx context.Context, c Commit) (inserted bool, err error) {
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO commits (pre_root, post_root, tx_count, run_id, seq)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(post_root) DO NOTHING
	`,
		c.PreRoot.String(),
		c.PostRoot.String(),
		c.TxCount,
		c.RunID,
		c.Seq,
	)
	if err != nil {
		return false, fmt.Errorf("write commit: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("write commit: rows affected: %w", err)
	}
	return n > 0, nil
}

// LatestCommit returns the most recently recorded commit.
// Returns ErrNotFound if no batch has been committed yet.
func (s *Store) LatestCommit(ctx context.Context) (Commit, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, pre_root, post_root, tx_count, run_id, seq
		FROM commits
		ORDER BY id DESC
		LIMIT 1
	`)
	c, err := scanCommit(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Commit{}, fmt.Errorf("latest commit: %w", ErrNotFound)
	}
	if err != nil {
		return Commit{}, fmt.Errorf("latest commit: %w", err)
	}
	return c, nil
}

// ListCommits returns up to limit commits, newest first.
// A limit of 0 returns all commits.
func (s *Store) ListCommits(ctx context.Context, limit int) ([]Commit, error) {
	query := `
		SELECT id, pre_root, post_root, tx_count, run_id, seq
		FROM commits
		ORDER BY id DESC
	`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query commits: %w", err)
	}
	defer rows.Close()

	commits := []Commit{}
	for rows.Next() {
		c, err := scanCommit(rows)
		if err != nil {
			return nil, fmt.Errorf("scan commit: %w", err)
		}
		commits = append(commits, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate commits: %w", err)
	}
	return commits, nil
}

func scanCommit(row rowScanner) (Commit, error) {
	var (
		c         Commit
		pre, post     string
	)
	if err := row.Scan(&c.ID, &pre, &post, &c.TxCount, &c.RunID, &c.Seq); err != nil {
		return Commit{}, err
	}

	var err error
	if c.PreRoot, err = rollup.ParseRoot(pre); err != nil {
		return Commit{}, err
	}
	if c.PostRoot, err = rollup.ParseRoot(post); err != nil {
		return Commit{}, err
	}
	return c, nil
}

// LastSeq returns the highest seq stamped on any archived event or commit,
// or 0 for an empty store. A restarted clock resumes after it.
func (s *Store) LastSeq(ctx context.Context) (int64, error) {
	var seq int64
	err := s.db.QueryRowContext(ctx, `
		SELECT MAX(
			COALESCE((SELECT MAX(seq) FROM events), 0),
			COALESCE((SELECT MAX(seq) FROM commits), 0)
		)
	`).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("last seq: %w", err)
	}
	return seq, nil
}
