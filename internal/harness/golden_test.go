package harness

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCounterAddMatchesGolden(t *testing.T) {
	result := runScenario(t, "counter_add.yaml")
	require.NoError(t, AssertGolden(t, result))
}

func TestPingPongMatchesGolden(t *testing.T) {
	result := runScenario(t, "pingpong_reliable.yaml")
	require.NoError(t, AssertGolden(t, result))
}
