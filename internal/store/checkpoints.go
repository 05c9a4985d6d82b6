package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Checkpoint is one stored state blob for a process.
type Checkpoint struct {
	Proc     string `json:"proc"`
	TakenSeq int64  `json:"taken_seq"`
	Blob     string `json:"blob"`
}

// WriteCheckpoint stores a state blob captured for a process at the
// given trace seq. Duplicate writes of the same capture are ignored.
func (s *Store) WriteCheckpoint(ctx context.Context, runID, proc string, takenSeq int64, blob []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO checkpoints (run_id, proc, taken_seq, blob)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(run_id, proc, taken_seq) DO NOTHING
	`, runID, proc, takenSeq, string(blob))
	if err != nil {
		return fmt.Errorf("write checkpoint: %w", err)
	}
	return nil
}

// LatestCheckpoint returns the most recent checkpoint stored for a
// process in a run, or ErrNotFound if none exists.
func (s *Store) LatestCheckpoint(ctx context.Context, runID, proc string) (*Checkpoint, error) {
	var cp Checkpoint
	err := s.db.QueryRowContext(ctx, `
		SELECT proc, taken_seq, blob FROM checkpoints
		WHERE run_id = ? AND proc = ?
		ORDER BY taken_seq DESC LIMIT 1
	`, runID, proc).Scan(&cp.Proc, &cp.TakenSeq, &cp.Blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("latest checkpoint for %s: %w", proc, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("latest checkpoint for %s: %w", proc, err)
	}
	return &cp, nil
}

// ListCheckpoints returns every checkpoint stored for a run, ordered by
// capture seq then process name.
func (s *Store) ListCheckpoints(ctx context.Context, runID string) ([]Checkpoint, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT proc, taken_seq, blob FROM checkpoints
		WHERE run_id = ? ORDER BY taken_seq, proc
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("list checkpoints: %w", err)
	}
	defer rows.Close()

	var cps []Checkpoint
	for rows.Next() {
		var cp Checkpoint
		if err := rows.Scan(&cp.Proc, &cp.TakenSeq, &cp.Blob); err != nil {
			return nil, fmt.Errorf("list checkpoints: scan: %w", err)
		}
		cps = append(cps, cp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list checkpoints: %w", err)
	}
	return cps, nil
}
