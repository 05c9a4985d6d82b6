package algos

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/procsim/procsim/internal/mp"
	"github.com/procsim/procsim/internal/sim"
)

func buildGroup(t *testing.T, seed int64, names []string, period float64) *sim.System {
	t.Helper()
	sys := sim.NewSystem(seed)
	for _, name := range names {
		require.NoError(t, sys.AddNode("node-"+name))
		require.NoError(t, sys.AddProcess(name, NewMembership(name, names, period), "node-"+name))
	}
	for _, name := range names {
		require.NoError(t, sys.SendLocal(name, mp.NewMessage("START", nil)))
	}
	return sys
}

func members(t *testing.T, sys *sim.System, proc string) []string {
	t.Helper()
	require.NoError(t, sys.SendLocal(proc, mp.NewMessage("MEMBERS", nil)))
	msgs, err := sys.ReadLocalMessages(proc)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	raw, err := msgs[0].Get("members")
	require.NoError(t, err)
	var out []string
	for _, m := range raw.([]any) {
		out = append(out, m.(string))
	}
	return out
}

func TestAllMembersAliveUnderHealthyNetwork(t *testing.T) {
	names := []string{"m1", "m2", "m3"}
	sys := buildGroup(t, 1, names, 2)

	require.NoError(t, sys.StepForDuration(20))
	for _, name := range names {
		assert.Equal(t, names, members(t, sys, name), "view of %s", name)
	}
}

func TestCrashedMemberIsSuspected(t *testing.T) {
	names := []string{"m1", "m2", "m3"}
	sys := buildGroup(t, 2, names, 2)

	require.NoError(t, sys.StepForDuration(10))
	require.NoError(t, sys.CrashNode("node-m3"))
	// Enough sweeps for the miss counters to pass the threshold.
	require.NoError(t, sys.StepForDuration(20))

	assert.Equal(t, []string{"m1", "m2"}, members(t, sys, "m1"))
	assert.Equal(t, []string{"m1", "m2"}, members(t, sys, "m2"))
}

func TestRecoveredMemberRejoinsView(t *testing.T) {
	names := []string{"m1", "m2"}
	sys := buildGroup(t, 3, names, 2)

	require.NoError(t, sys.StepForDuration(10))
	blob, err := sys.CheckpointProcess("m2")
	require.NoError(t, err)

	require.NoError(t, sys.CrashNode("node-m2"))
	require.NoError(t, sys.StepForDuration(20))
	assert.Equal(t, []string{"m1"}, members(t, sys, "m1"))

	require.NoError(t, sys.RecoverNode("node-m2"))
	restarted := NewMembership("m2", names, 2)
	require.NoError(t, sys.AddProcess("m2", restarted, "node-m2"))
	require.NoError(t, sys.RestoreProcess("m2", blob))
	require.NoError(t, sys.SendLocal("m2", mp.NewMessage("START", nil)))
	require.NoError(t, sys.StepForDuration(10))

	assert.Equal(t, names, members(t, sys, "m1"))
	assert.Equal(t, names, members(t, sys, "m2"))
}

func TestMembershipViewIsDurableMissCountersAreNot(t *testing.T) {
	m := NewMembership("m1", []string{"m1", "m2"}, 1)
	m.bumpMisses("m2")

	blob, err := m.Checkpoint()
	require.NoError(t, err)

	fresh := NewMembership("m1", []string{"m1", "m2"}, 1)
	require.NoError(t, fresh.Restore(blob))

	view, err := fresh.alive.Get()
	require.NoError(t, err)
	assert.True(t, view["m2"])

	_, err = fresh.State().Get("misses_m2")
	assert.True(t, mp.IsFieldNotFound(err), "miss counters are scratch")
}
