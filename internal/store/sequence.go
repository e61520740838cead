package store

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
)

// journalSeq hands out the journal position stamped on every row. Detections
// and backend init outcomes live in separate tables but share this one
// ordering, so "journal inits" and "journal list" can be read side by side
// and an init failure sorts before the rules-path detections it caused.
//
// ent has no atomic counter, so the value lives in a one-row table that is
// bumped with UPDATE ... RETURNING.
type journalSeq struct {
	mu sync.Mutex
	db *sql.DB
}

// openJournalSeq creates the position table if needed. A missing row is
// seeded from the highest position already journaled, so positions keep
// increasing even if the table was dropped by hand.
func openJournalSeq(db *sql.DB) (*journalSeq, error) {
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS journal_position (
		id   INTEGER PRIMARY KEY CHECK (id = 1),
		last INTEGER NOT NULL
	)`); err != nil {
		return nil, fmt.Errorf("create journal position table: %w", err)
	}

	seed := fmt.Sprintf(`INSERT OR IGNORE INTO journal_position (id, last)
		SELECT 1, MAX(
			COALESCE((SELECT MAX(sequence) FROM %s), 0),
			COALESCE((SELECT MAX(sequence) FROM %s), 0))`,
		detectionEventsTable, backendInitEventsTable)
	if _, err := db.Exec(seed); err != nil {
		return nil, fmt.Errorf("seed journal position: %w", err)
	}
	return &journalSeq{db: db}, nil
}

// Next reserves the following journal position.
func (j *journalSeq) Next(ctx context.Context) (int64, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	var pos int64
	if err := j.db.QueryRowContext(ctx,
		`UPDATE journal_position SET last = last + 1 WHERE id = 1 RETURNING last`,
	).Scan(&pos); err != nil {
		return 0, fmt.Errorf("reserve journal position: %w", err)
	}
	return pos, nil
}
