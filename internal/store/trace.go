package store

import (
	"context"
	"fmt"

	"github.com/procsim/procsim/internal/sim"
)

// WriteTrace appends trace events for a run in a single transaction.
// Re-writing the same (run, seq) rows is a no-op, so a retried batch
// does not duplicate events.
func (s *Store) WriteTrace(ctx context.Context, runID string, events []sim.TraceEvent) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write trace: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO trace_events
		(run_id, seq, time, kind, node, proc, msg_type, payload, src, dst, timer)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id, seq) DO NOTHING
	`)
	if err != nil {
		return fmt.Errorf("write trace: prepare: %w", err)
	}
	defer stmt.Close()

	for _, ev := range events {
		_, err := stmt.ExecContext(ctx,
			runID,
			ev.Seq,
			ev.Time,
			string(ev.Kind),
			ev.Node,
			ev.Proc,
			ev.MsgType,
			ev.Payload,
			ev.From,
			ev.To,
			ev.Timer,
		)
		if err != nil {
			return fmt.Errorf("write trace: seq %d: %w", ev.Seq, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write trace: commit: %w", err)
	}
	return nil
}

// ReadTrace returns a run's trace in seq order.
func (s *Store) ReadTrace(ctx context.Context, runID string) ([]sim.TraceEvent, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, time, kind, node, proc, msg_type, payload, src, dst, timer
		FROM trace_events WHERE run_id = ? ORDER BY seq
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("read trace: %w", err)
	}
	defer rows.Close()

	var events []sim.TraceEvent
	for rows.Next() {
		var ev sim.TraceEvent
		var kind string
		err := rows.Scan(&ev.Seq, &ev.Time, &kind, &ev.Node, &ev.Proc,
			&ev.MsgType, &ev.Payload, &ev.From, &ev.To, &ev.Timer)
		if err != nil {
			return nil, fmt.Errorf("read trace: scan: %w", err)
		}
		ev.Kind = sim.TraceEventKind(kind)
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read trace: %w", err)
	}
	return events, nil
}

// CountTraceEvents returns per-kind event counts for a run.
func (s *Store) CountTraceEvents(ctx context.Context, runID string) (map[sim.TraceEventKind]int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT kind, COUNT(*) FROM trace_events
		WHERE run_id = ? GROUP BY kind
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("count trace events: %w", err)
	}
	defer rows.Close()

	counts := make(map[sim.TraceEventKind]int)
	for rows.Next() {
		var kind string
		var n int
		if err := rows.Scan(&kind, &n); err != nil {
			return nil, fmt.Errorf("count trace events: scan: %w", err)
		}
		counts[sim.TraceEventKind(kind)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("count trace events: %w", err)
	}
	return counts, nil
}
