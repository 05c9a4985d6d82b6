package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/procsim/procsim/internal/sim"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleTrace() []sim.TraceEvent {
	return []sim.TraceEvent{
		{Seq: 1, Time: 0, Kind: sim.TraceLocalMessageReceived, Node: "node-1", Proc: "p1", MsgType: "START", Payload: "{}"},
		{Seq: 2, Time: 0, Kind: sim.TraceMessageSent, Node: "node-1", Proc: "p1", MsgType: "PING", Payload: `{"value":"hi"}`, From: "p1", To: "p2"},
		{Seq: 3, Time: 1, Kind: sim.TraceMessageReceived, Node: "node-2", Proc: "p2", MsgType: "PING", Payload: `{"value":"hi"}`, From: "p1", To: "p2"},
		{Seq: 4, Time: 1, Kind: sim.TraceTimerSet, Node: "node-2", Proc: "p2", Timer: "resend"},
	}
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.db")

	s1, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s1.Close())

	s2, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s2.Close())
}

func TestCreateAndGetRun(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	id, err := s.CreateRun(ctx, "pingpong", 42, []byte("name: pingpong\nseed: 42\n"))
	require.NoError(t, err)
	require.NotEmpty(t, id)

	run, err := s.GetRun(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "pingpong", run.Name)
	assert.Equal(t, int64(42), run.Seed)
	assert.Contains(t, run.Scenario, "seed: 42")
	assert.False(t, run.CreatedAt.IsZero())
}

func TestGetRunNotFound(t *testing.T) {
	s := openTestStore(t)

	_, err := s.GetRun(context.Background(), "no-such-run")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestListRunsNewestFirst(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, err := s.CreateRun(ctx, "first", 1, []byte("a"))
	require.NoError(t, err)
	_, err = s.CreateRun(ctx, "second", 2, []byte("b"))
	require.NoError(t, err)

	runs, err := s.ListRuns(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	names := []string{runs[0].Name, runs[1].Name}
	assert.ElementsMatch(t, []string{"first", "second"}, names)
}

func TestWriteAndReadTraceRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	id, err := s.CreateRun(ctx, "trace", 1, []byte("x"))
	require.NoError(t, err)

	events := sampleTrace()
	require.NoError(t, s.WriteTrace(ctx, id, events))

	got, err := s.ReadTrace(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, events, got)
}

func TestWriteTraceIsIdempotent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	id, err := s.CreateRun(ctx, "trace", 1, []byte("x"))
	require.NoError(t, err)

	events := sampleTrace()
	require.NoError(t, s.WriteTrace(ctx, id, events))
	require.NoError(t, s.WriteTrace(ctx, id, events))

	got, err := s.ReadTrace(ctx, id)
	require.NoError(t, err)
	assert.Len(t, got, len(events))
}

func TestWriteTraceEmptyBatch(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.WriteTrace(context.Background(), "whatever", nil))
}

func TestCountTraceEvents(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	id, err := s.CreateRun(ctx, "counts", 1, []byte("x"))
	require.NoError(t, err)
	require.NoError(t, s.WriteTrace(ctx, id, sampleTrace()))

	counts, err := s.CountTraceEvents(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 1, counts[sim.TraceMessageSent])
	assert.Equal(t, 1, counts[sim.TraceMessageReceived])
	assert.Equal(t, 1, counts[sim.TraceTimerSet])
}

func TestCheckpointLifecycle(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	id, err := s.CreateRun(ctx, "cp", 1, []byte("x"))
	require.NoError(t, err)

	require.NoError(t, s.WriteCheckpoint(ctx, id, "p1", 10, []byte(`{"counter":"3"}`)))
	require.NoError(t, s.WriteCheckpoint(ctx, id, "p1", 25, []byte(`{"counter":"7"}`)))
	// Duplicate capture is a no-op.
	require.NoError(t, s.WriteCheckpoint(ctx, id, "p1", 25, []byte(`{"counter":"7"}`)))

	latest, err := s.LatestCheckpoint(ctx, id, "p1")
	require.NoError(t, err)
	assert.Equal(t, int64(25), latest.TakenSeq)
	assert.Equal(t, `{"counter":"7"}`, latest.Blob)

	all, err := s.ListCheckpoints(ctx, id)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, int64(10), all[0].TakenSeq)

	_, err = s.LatestCheckpoint(ctx, id, "nobody")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestTraceRequiresExistingRun(t *testing.T) {
	s := openTestStore(t)

	err := s.WriteTrace(context.Background(), "missing-run", sampleTrace())
	require.Error(t, err, "foreign key should reject orphan trace rows")
}
