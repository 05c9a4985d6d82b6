package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/procsim/procsim/internal/codec"
	"github.com/procsim/procsim/internal/sim"
)

// AssertGolden compares a run's trace against the golden file
// testdata/golden/{result.Name}.golden, serialized as canonical JSON so
// comparisons are byte-stable.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func AssertGolden(t *testing.T, result *Result) error {
	t.Helper()

	data, err := codec.MarshalCanonical(snapshotMap(result))
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, result.Name, data)
	return nil
}

// snapshotMap flattens a Result for canonical serialization, dropping
// empty optional fields.
func snapshotMap(result *Result) map[string]any {
	trace := make([]any, len(result.Trace))
	for i, ev := range result.Trace {
		trace[i] = eventMap(ev)
	}
	return map[string]any{
		"name":  result.Name,
		"seed":  result.Seed,
		"trace": trace,
	}
}

func eventMap(ev sim.TraceEvent) map[string]any {
	m := map[string]any{
		"seq":  ev.Seq,
		"time": ev.Time,
		"kind": string(ev.Kind),
	}
	if ev.Node != "" {
		m["node"] = ev.Node
	}
	if ev.Proc != "" {
		m["proc"] = ev.Proc
	}
	if ev.MsgType != "" {
		m["msg_type"] = ev.MsgType
	}
	if ev.Payload != "" {
		m["payload"] = ev.Payload
	}
	if ev.From != "" {
		m["from"] = ev.From
	}
	if ev.To != "" {
		m["to"] = ev.To
	}
	if ev.Timer != "" {
		m["timer"] = ev.Timer
	}
	return m
}
