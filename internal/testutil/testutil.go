// Package testutil provides shared helpers for simulator tests.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/procsim/procsim/internal/sim"
)

// WriteScenarioFile writes scenario YAML to a temp file and returns its
// path. The file is removed with the test's temp dir.
func WriteScenarioFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// LocalPayloads returns the payloads of local_message_sent events of the
// given message type, in trace order.
func LocalPayloads(trace []sim.TraceEvent, msgType string) []string {
	var payloads []string
	for _, ev := range trace {
		if ev.Kind == sim.TraceLocalMessageSent && ev.MsgType == msgType {
			payloads = append(payloads, ev.Payload)
		}
	}
	return payloads
}

// FilterKinds returns the subsequence of trace events whose kind is one
// of kinds, preserving order.
func FilterKinds(trace []sim.TraceEvent, kinds ...sim.TraceEventKind) []sim.TraceEvent {
	want := make(map[sim.TraceEventKind]bool, len(kinds))
	for _, k := range kinds {
		want[k] = true
	}
	var out []sim.TraceEvent
	for _, ev := range trace {
		if want[ev.Kind] {
			out = append(out, ev)
		}
	}
	return out
}

// Kinds returns just the kind of each trace event, for order assertions.
func Kinds(trace []sim.TraceEvent) []sim.TraceEventKind {
	out := make([]sim.TraceEventKind, len(trace))
	for i, ev := range trace {
		out[i] = ev.Kind
	}
	return out
}
