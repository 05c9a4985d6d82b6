package harness

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/procsim/procsim/internal/scenario"
	"github.com/procsim/procsim/internal/sim"
	"github.com/procsim/procsim/internal/testutil"
)

func loadScenario(t *testing.T, name string) *scenario.Scenario {
	t.Helper()
	sc, err := scenario.Load(filepath.Join("testdata", name))
	require.NoError(t, err)
	return sc
}

func runScenario(t *testing.T, name string) *Result {
	t.Helper()
	runner := NewRunner(DefaultRegistry(), nil)
	result, err := runner.Run(loadScenario(t, name))
	require.NoError(t, err)
	return result
}

func localPayloads(result *Result, msgType string) []string {
	return testutil.LocalPayloads(result.Trace, msgType)
}

func TestRunPingPongDeliversReply(t *testing.T) {
	result := runScenario(t, "pingpong_reliable.yaml")

	pongs := localPayloads(result, "PONG")
	require.Len(t, pongs, 1)
	assert.JSONEq(t, `{"value":"hi"}`, pongs[0])
	assert.Equal(t, 5.0, result.FinalTime, "the stale resend timer still advances time")
}

func TestRunCrashRestartResumesCounter(t *testing.T) {
	result := runScenario(t, "crash_restart.yaml")

	totals := localPayloads(result, "TOTAL")
	require.Len(t, totals, 2)
	assert.JSONEq(t, `{"value":3}`, totals[0])
	assert.JSONEq(t, `{"value":5}`, totals[1], "restored total continues from the checkpoint")

	require.Len(t, result.Checkpoints, 1)
	cp := result.Checkpoints[0]
	assert.Equal(t, "counter", cp.Proc)
	assert.Contains(t, string(cp.Blob), "total")
	assert.Positive(t, cp.Seq)
}

func TestRunCrashRestartTracesLifecycle(t *testing.T) {
	result := runScenario(t, "crash_restart.yaml")

	lifecycle := testutil.FilterKinds(result.Trace,
		sim.TraceCheckpointTaken, sim.TraceNodeCrashed,
		sim.TraceNodeRecovered, sim.TraceStateRestored)
	assert.Equal(t, []sim.TraceEventKind{
		sim.TraceCheckpointTaken,
		sim.TraceNodeCrashed,
		sim.TraceNodeRecovered,
		sim.TraceStateRestored,
	}, testutil.Kinds(lifecycle))
}

func TestRunIsDeterministic(t *testing.T) {
	first := runScenario(t, "pingpong_reliable.yaml")
	second := runScenario(t, "pingpong_reliable.yaml")
	assert.Equal(t, first.Trace, second.Trace)
}

func TestRunRejectsUnknownKind(t *testing.T) {
	sc := &scenario.Scenario{
		Name: "bad-kind",
		Seed: 1,
		Nodes: []scenario.Node{
			{Name: "n1", Processes: []scenario.Process{{Name: "p1", Kind: "nope"}}},
		},
	}
	runner := NewRunner(DefaultRegistry(), nil)
	_, err := runner.Run(sc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nope")
}

func TestRunRejectsDanglingStepReference(t *testing.T) {
	sc := &scenario.Scenario{
		Name: "dangling",
		Seed: 1,
		Nodes: []scenario.Node{
			{Name: "n1", Processes: []scenario.Process{{Name: "p1", Kind: "counter"}}},
		},
		Steps: []scenario.Step{
			{SendLocal: &scenario.SendLocal{Proc: "ghost", Type: "ADD"}},
		},
	}
	runner := NewRunner(DefaultRegistry(), nil)
	_, err := runner.Run(sc)
	require.Error(t, err)
}
