package testutil

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/procsim/procsim/internal/sim"
)

func TestWriteScenarioFile(t *testing.T) {
	path := WriteScenarioFile(t, "name: x\n")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "name: x\n", string(data))
}

func TestLocalPayloadsFiltersByType(t *testing.T) {
	trace := []sim.TraceEvent{
		{Kind: sim.TraceLocalMessageSent, MsgType: "TOTAL", Payload: `{"value":1}`},
		{Kind: sim.TraceLocalMessageReceived, MsgType: "TOTAL", Payload: `{"value":9}`},
		{Kind: sim.TraceLocalMessageSent, MsgType: "OTHER", Payload: `{}`},
		{Kind: sim.TraceLocalMessageSent, MsgType: "TOTAL", Payload: `{"value":2}`},
	}
	assert.Equal(t, []string{`{"value":1}`, `{"value":2}`}, LocalPayloads(trace, "TOTAL"))
}

func TestFilterKindsPreservesOrder(t *testing.T) {
	trace := []sim.TraceEvent{
		{Seq: 1, Kind: sim.TraceMessageSent},
		{Seq: 2, Kind: sim.TraceNodeCrashed},
		{Seq: 3, Kind: sim.TraceMessageDropped},
		{Seq: 4, Kind: sim.TraceNodeRecovered},
	}
	got := FilterKinds(trace, sim.TraceNodeCrashed, sim.TraceNodeRecovered)
	assert.Equal(t, []sim.TraceEventKind{sim.TraceNodeCrashed, sim.TraceNodeRecovered}, Kinds(got))
}
