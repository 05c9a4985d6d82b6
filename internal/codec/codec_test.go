package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type vectorClock struct {
	Counts map[string]int64 `json:"counts"`
}

type logEntry struct {
	Term  int64       `json:"term"`
	Value string      `json:"value"`
	Clock vectorClock `json:"clock"`
}

// customPoint exercises the Marshaler/Unmarshaler path.
type customPoint struct {
	x, y int64
}

func (p customPoint) MarshalState() (map[string]any, error) {
	return map[string]any{"x": p.x, "y": p.y}, nil
}

func (p *customPoint) UnmarshalState(data map[string]any) error {
	p.x = int64(data["x"].(float64))
	p.y = int64(data["y"].(float64))
	return nil
}

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	r := NewRegistry()
	Register[vectorClock](r, "raft", "VectorClock")
	Register[logEntry](r, "raft", "LogEntry")
	Register[customPoint](r, "geo", "Point")
	return r
}

func TestSerializeRoundTripPlainShapes(t *testing.T) {
	r := NewRegistry()
	tests := []struct {
		name string
		val  any
	}{
		{"string", "hello"},
		{"number", float64(42)},
		{"bool", true},
		{"null", nil},
		{"sequence", []any{float64(1), "two", false}},
		{"mapping", map[string]any{"a": float64(1), "b": []any{"x"}}},
		{"deep", map[string]any{"outer": map[string]any{"inner": []any{map[string]any{"k": "v"}}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, err := r.Serialize(tt.val)
			require.NoError(t, err)
			back, err := r.Deserialize(text)
			require.NoError(t, err)
			assert.Equal(t, tt.val, back)
		})
	}
}

func TestSerializeRegisteredTypeProducesEnvelope(t *testing.T) {
	r := newTestRegistry(t)
	text, err := r.Serialize(vectorClock{Counts: map[string]int64{"n1": 3}})
	require.NoError(t, err)

	assert.JSONEq(t, `{"data":{"counts":{"n1":3}},"namespace":"raft","type":"VectorClock"}`, string(text))
}

func TestDeserializeResolvesEnvelope(t *testing.T) {
	r := newTestRegistry(t)
	back, err := r.Deserialize([]byte(`{"data":{"counts":{"n1":3}},"namespace":"raft","type":"VectorClock"}`))
	require.NoError(t, err)

	vc, ok := back.(vectorClock)
	require.True(t, ok, "expected vectorClock, got %T", back)
	assert.Equal(t, int64(3), vc.Counts["n1"])
}

func TestNestedRegisteredTypesRoundTrip(t *testing.T) {
	r := newTestRegistry(t)
	entry := logEntry{
		Term:  7,
		Value: "set x=1",
		Clock: vectorClock{Counts: map[string]int64{"n1": 3, "n2": 5}},
	}

	text, err := r.Serialize(entry)
	require.NoError(t, err)
	// The nested clock must itself be an envelope.
	assert.Contains(t, string(text), `"type":"VectorClock"`)

	back, err := r.Deserialize(text)
	require.NoError(t, err)
	got, ok := back.(logEntry)
	require.True(t, ok, "expected logEntry, got %T", back)
	assert.Equal(t, entry, got)
}

func TestCustomMarshalerRoundTrip(t *testing.T) {
	r := newTestRegistry(t)
	text, err := r.Serialize(customPoint{x: 3, y: -4})
	require.NoError(t, err)
	assert.JSONEq(t, `{"data":{"x":3,"y":-4},"namespace":"geo","type":"Point"}`, string(text))

	back, err := r.Deserialize(text)
	require.NoError(t, err)
	assert.Equal(t, customPoint{x: 3, y: -4}, back)
}

func TestRegisteredTypesInsideContainers(t *testing.T) {
	r := newTestRegistry(t)
	val := []any{
		customPoint{x: 1, y: 2},
		map[string]any{"p": customPoint{x: 3, y: 4}},
	}
	text, err := r.Serialize(val)
	require.NoError(t, err)

	back, err := r.Deserialize(text)
	require.NoError(t, err)
	got := back.([]any)
	assert.Equal(t, customPoint{x: 1, y: 2}, got[0])
	assert.Equal(t, customPoint{x: 3, y: 4}, got[1].(map[string]any)["p"])
}

func TestDeserializeUnknownEnvelopeFails(t *testing.T) {
	r := NewRegistry()
	_, err := r.Deserialize([]byte(`{"data":{},"namespace":"nowhere","type":"Ghost"}`))
	require.Error(t, err)
	assert.True(t, IsUnresolvedType(err))

	var ute *UnresolvedTypeError
	require.ErrorAs(t, err, &ute)
	assert.Equal(t, TypeTag{Namespace: "nowhere", Name: "Ghost"}, ute.Tag)
}

func TestNestedUnknownEnvelopeFails(t *testing.T) {
	r := newTestRegistry(t)
	text := `{"data":{"counts":{"data":{},"namespace":"x","type":"Y"}},"namespace":"raft","type":"VectorClock"}`
	_, err := r.Deserialize([]byte(text))
	assert.True(t, IsUnresolvedType(err))
}

func TestEnvelopeShapeIsExact(t *testing.T) {
	r := NewRegistry()
	tests := []struct {
		name string
		text string
	}{
		{"extra_key", `{"data":{},"namespace":"a","type":"B","more":1}`},
		{"missing_data", `{"namespace":"a","type":"B","other":1}`},
		{"non_string_type", `{"data":{},"namespace":"a","type":2}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			back, err := r.Deserialize([]byte(tt.text))
			require.NoError(t, err, "plain objects must not be treated as envelopes")
			_, isMap := back.(map[string]any)
			assert.True(t, isMap)
		})
	}
}

func TestSerializeUnregisteredStructFails(t *testing.T) {
	r := NewRegistry()
	type secret struct{ A int }
	_, err := r.Serialize(secret{A: 1})
	assert.Error(t, err)
}

func TestSetsAndTuplesDegradeToSequences(t *testing.T) {
	r := NewRegistry()
	// A typed slice (the closest Go has to a tuple) comes back as a plain
	// ordered []any.
	text, err := r.Serialize([2]any{"a", float64(1)})
	require.NoError(t, err)
	back, err := r.Deserialize(text)
	require.NoError(t, err)
	assert.Equal(t, []any{"a", float64(1)}, back)
}

func TestDuplicateRegistrationPanics(t *testing.T) {
	r := NewRegistry()
	Register[vectorClock](r, "raft", "VectorClock")
	assert.Panics(t, func() {
		Register[vectorClock](r, "raft", "VectorClock")
	})
}
