package mp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/procsim/procsim/internal/codec"
)

func TestFieldLifecycle(t *testing.T) {
	s := NewState()

	// Absent reads fail.
	_, err := s.Get("missing")
	require.Error(t, err)
	assert.True(t, IsFieldNotFound(err))

	// Plain assignment creates a transient field.
	s.Put("cache", "x")
	assert.True(t, s.Has("cache"))
	assert.False(t, s.IsDurable("cache"))

	// Durable construction creates a durable field.
	s.Declare("counter", float64(0))
	assert.True(t, s.IsDurable("counter"))

	v, err := s.Get("counter")
	require.NoError(t, err)
	assert.Equal(t, float64(0), v)
}

func TestDurabilityStickiness(t *testing.T) {
	s := NewState()
	s.Declare("counter", float64(0))

	// A later plain assignment replaces the value but keeps the field
	// durable.
	s.Put("counter", float64(5))
	assert.True(t, s.IsDurable("counter"))

	v, err := s.Get("counter")
	require.NoError(t, err)
	assert.Equal(t, float64(5), v)
}

func TestTransientStaysTransient(t *testing.T) {
	s := NewState()
	s.Put("cache", "x")
	s.Put("cache", "y")
	assert.False(t, s.IsDurable("cache"))
}

func TestCheckpointIdempotent(t *testing.T) {
	s := NewState()
	s.Declare("counter", float64(5))
	s.Declare("items", []any{"a", "b"})
	s.Put("cache", "scratch")

	first, err := s.Checkpoint()
	require.NoError(t, err)
	second, err := s.Checkpoint()
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestCheckpointIncludesOnlyDurableFields(t *testing.T) {
	s := NewState()
	s.Declare("counter", float64(5))
	s.Put("cache", "y")

	blob, err := s.Checkpoint()
	require.NoError(t, err)
	assert.Equal(t, `{"counter":"5"}`, string(blob))
}

func TestRestoreRoundTrip(t *testing.T) {
	src := NewState()
	src.Declare("counter", float64(5))
	src.Declare("peers", []any{"p2", "p3"})
	src.Put("cache", "y")

	blob, err := src.Checkpoint()
	require.NoError(t, err)

	dst := NewState()
	dst.Put("cache", "z")
	require.NoError(t, dst.Restore(blob))

	counter, err := dst.Get("counter")
	require.NoError(t, err)
	assert.Equal(t, float64(5), counter)
	assert.True(t, dst.IsDurable("counter"))

	peers, err := dst.Get("peers")
	require.NoError(t, err)
	assert.Equal(t, []any{"p2", "p3"}, peers)

	// The transient field did not survive the boundary.
	_, err = dst.Get("cache")
	assert.True(t, IsFieldNotFound(err))
}

func TestRestoreDropsEverythingNotInBlob(t *testing.T) {
	s := NewState()
	s.Declare("old", float64(1))
	s.Put("scratch", "x")

	require.NoError(t, s.Restore([]byte(`{}`)))

	_, err := s.Get("old")
	assert.True(t, IsFieldNotFound(err), "durable field absent from blob must be dropped, not nulled")
	_, err = s.Get("scratch")
	assert.True(t, IsFieldNotFound(err))
}

func TestRestoreIsAllOrNothing(t *testing.T) {
	s := NewState()
	s.Declare("keep", "value")

	// One good entry, one with an unregistered envelope: nothing may
	// change.
	blob := []byte(`{"a":"1","b":"{\"data\":{},\"namespace\":\"no\",\"type\":\"Such\"}"}`)
	err := s.Restore(blob)
	require.Error(t, err)
	assert.True(t, codec.IsUnresolvedType(err))

	v, err := s.Get("keep")
	require.NoError(t, err)
	assert.Equal(t, "value", v)
	assert.False(t, s.Has("a"), "no partial population on failed restore")
}

func TestRestoreBadBlobFails(t *testing.T) {
	s := NewState()
	assert.Error(t, s.Restore([]byte(`not json`)))
}

func TestRegisteredTypeSurvivesCheckpoint(t *testing.T) {
	type replica struct {
		Addr  string `json:"addr"`
		Alive bool   `json:"alive"`
	}
	reg := codec.NewRegistry()
	codec.Register[replica](reg, "membership", "Replica")

	src := NewStateWith(reg)
	src.Declare("leader", replica{Addr: "p1:9000", Alive: true})

	blob, err := src.Checkpoint()
	require.NoError(t, err)

	dst := NewStateWith(reg)
	require.NoError(t, dst.Restore(blob))

	v, err := dst.Get("leader")
	require.NoError(t, err)
	assert.Equal(t, replica{Addr: "p1:9000", Alive: true}, v)
}

func TestDurableHandle(t *testing.T) {
	s := NewState()
	counter := NewDurable(s, "counter", 0)

	counter.Set(5)
	assert.True(t, s.IsDurable("counter"), "plain assignment keeps the field durable")
	assert.Equal(t, 5, counter.MustGet())

	blob, err := s.Checkpoint()
	require.NoError(t, err)
	require.NoError(t, s.Restore(blob))

	// The handle still addresses the restored field, converting the
	// decoded float64 back to int.
	v, err := counter.Get()
	require.NoError(t, err)
	assert.Equal(t, 5, v)
}

func TestDurableHandleAfterDroppingRestore(t *testing.T) {
	s := NewState()
	counter := NewDurable(s, "counter", 7)

	require.NoError(t, s.Restore([]byte(`{}`)))

	_, err := counter.Get()
	assert.True(t, IsFieldNotFound(err))
}
