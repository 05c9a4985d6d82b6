package mp

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContextTimeIsFixed(t *testing.T) {
	ctx := NewContext(12.5)
	assert.Equal(t, 12.5, ctx.Time())
}

func TestSendPreservesCallOrder(t *testing.T) {
	ctx := NewContext(0)
	require.NoError(t, ctx.Send(NewMessage("FIRST", nil), "p2"))
	require.NoError(t, ctx.Send(NewMessage("SECOND", nil), "p3"))

	out := ctx.Outgoing()
	require.Len(t, out, 2)
	assert.Equal(t, "FIRST", out[0].Type)
	assert.Equal(t, "p2", out[0].To)
	assert.Equal(t, "SECOND", out[1].Type)
	assert.Equal(t, "p3", out[1].To)
}

func TestSendSnapshotsPayloadAtCallTime(t *testing.T) {
	ctx := NewContext(0)
	msg := NewMessage("X", map[string]any{"v": float64(1)})
	require.NoError(t, ctx.Send(msg, "p2"))

	// Mutation after the call must not affect what was buffered.
	msg.Set("v", float64(2))

	out := ctx.Outgoing()
	require.Len(t, out, 1)
	assert.Equal(t, `{"v":1}`, out[0].Payload)
}

func TestSendEmptyDestinationFails(t *testing.T) {
	ctx := NewContext(0)
	err := ctx.Send(NewMessage("X", nil), "")
	require.Error(t, err)
	assert.True(t, IsInvalidArgument(err))
	assert.Empty(t, ctx.Outgoing())
}

func TestSendLocalPreservesCallOrder(t *testing.T) {
	ctx := NewContext(0)
	require.NoError(t, ctx.SendLocal(NewMessage("A", nil)))
	require.NoError(t, ctx.SendLocal(NewMessage("B", nil)))

	local := ctx.OutgoingLocal()
	require.Len(t, local, 2)
	assert.Equal(t, "A", local[0].Type)
	assert.Equal(t, "B", local[1].Type)
}

func TestTimerValidation(t *testing.T) {
	tests := []struct {
		name    string
		timer   string
		delay   float64
		wantErr func(error) bool
	}{
		{"negative_delay", "x", -1, IsOutOfRange},
		{"empty_name", "", 1, IsInvalidArgument},
		{"nan_delay", "x", math.NaN(), IsInvalidArgument},
		{"inf_delay", "x", math.Inf(1), IsInvalidArgument},
	}
	for _, tt := range tests {
		t.Run("set_"+tt.name, func(t *testing.T) {
			ctx := NewContext(0)
			err := ctx.SetTimer(tt.timer, tt.delay)
			require.Error(t, err)
			assert.True(t, tt.wantErr(err))
			assert.Empty(t, ctx.TimerActions())
		})
		t.Run("set_once_"+tt.name, func(t *testing.T) {
			ctx := NewContext(0)
			err := ctx.SetTimerOnce(tt.timer, tt.delay)
			require.Error(t, err)
			assert.True(t, tt.wantErr(err))
			assert.Empty(t, ctx.TimerActions())
		})
	}
}

func TestTimerActionsRecordedInOrder(t *testing.T) {
	ctx := NewContext(0)
	require.NoError(t, ctx.SetTimer("a", 1))
	require.NoError(t, ctx.SetTimerOnce("b", 0))
	require.NoError(t, ctx.CancelTimer("a"))

	actions := ctx.TimerActions()
	require.Len(t, actions, 3)
	assert.Equal(t, TimerAction{Name: "a", Delay: 1, Kind: TimerSet}, actions[0])
	assert.Equal(t, TimerAction{Name: "b", Delay: 0, Kind: TimerSetOnce}, actions[1])
	assert.Equal(t, TimerAction{Name: "a", Delay: -1, Kind: TimerCancel}, actions[2])
}

func TestZeroDelayIsValid(t *testing.T) {
	ctx := NewContext(0)
	assert.NoError(t, ctx.SetTimer("now", 0))
}

func TestCancelTimerEmptyNameFails(t *testing.T) {
	ctx := NewContext(0)
	err := ctx.CancelTimer("")
	assert.True(t, IsInvalidArgument(err))
}

// Two sets of the same timer name are both recorded; collapsing them is
// the host's business, not the buffer's.
func TestBufferIsPurelyAdditive(t *testing.T) {
	ctx := NewContext(0)
	require.NoError(t, ctx.SetTimer("t", 1))
	require.NoError(t, ctx.SetTimer("t", 2))
	assert.Len(t, ctx.TimerActions(), 2)
}
