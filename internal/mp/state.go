package mp

import (
	"encoding/json"
	"fmt"

	"github.com/procsim/procsim/internal/codec"
)

// State is the explicit field table behind a process.
//
// Every field is in one of three states:
//   - absent: no entry in the table; reads fail with FIELD_NOT_FOUND
//   - transient: created by Put; discarded at every checkpoint boundary
//   - durable: created by Declare; included in Checkpoint and reconstructed
//     by Restore
//
// Once a field is durable, a later Put replaces its value but keeps it
// durable. Only Restore can drop a durable field, by omitting it from the
// snapshot.
type State struct {
	reg    *codec.Registry
	fields map[string]*fieldSlot
}

type fieldSlot struct {
	durable bool
	value   any
}

// NewState creates a field table bound to the default codec registry.
func NewState() *State {
	return NewStateWith(codec.Default())
}

// NewStateWith creates a field table bound to the given codec registry.
// All types held by durable fields must be resolvable through reg before
// the state is ever checkpointed.
func NewStateWith(reg *codec.Registry) *State {
	return &State{reg: reg, fields: make(map[string]*fieldSlot)}
}

// Put performs a plain assignment. A new field starts transient; an
// existing field keeps its durability, so assigning to a durable field
// replaces the inner value without demoting it.
func (s *State) Put(name string, value any) {
	if slot, ok := s.fields[name]; ok {
		slot.value = value
		return
	}
	s.fields[name] = &fieldSlot{value: value}
}

// Declare creates the named field as durable with the given value.
// Declaring an existing field makes it durable.
func (s *State) Declare(name string, value any) {
	s.fields[name] = &fieldSlot{durable: true, value: value}
}

// Get returns the current value of the named field.
// Reading a durable field transparently returns its inner value.
// Fails with FIELD_NOT_FOUND if the field is absent.
func (s *State) Get(name string) (any, error) {
	slot, ok := s.fields[name]
	if !ok {
		return nil, fieldNotFoundf("no field named %q", name)
	}
	return slot.value, nil
}

// Has reports whether the named field exists, durable or transient.
func (s *State) Has(name string) bool {
	_, ok := s.fields[name]
	return ok
}

// IsDurable reports whether the named field exists and is durable.
func (s *State) IsDurable(name string) bool {
	slot, ok := s.fields[name]
	return ok && slot.durable
}

// Checkpoint serializes exactly the durable fields into one snapshot blob:
// a canonical JSON object mapping field name to codec-serialized text.
// Pure and repeatable; calling it twice without intervening mutation
// yields byte-identical blobs.
func (s *State) Checkpoint() ([]byte, error) {
	snapshot := make(map[string]any, len(s.fields))
	for name, slot := range s.fields {
		if !slot.durable {
			continue
		}
		encoded, err := s.reg.Serialize(slot.value)
		if err != nil {
			return nil, fmt.Errorf("checkpoint field %q: %w", name, err)
		}
		snapshot[name] = string(encoded)
	}
	blob, err := codec.MarshalCanonical(snapshot)
	if err != nil {
		return nil, fmt.Errorf("checkpoint: %w", err)
	}
	return blob, nil
}

// Restore replaces the whole table with the fields in the snapshot blob.
//
// The decoded table is built on the side and swapped in only on success,
// so a snapshot that fails to decode (for example an unregistered type
// envelope) leaves the current fields untouched. After a successful
// restore every restored field is durable and every other field is
// absent - transient fields never survive a checkpoint boundary.
func (s *State) Restore(blob []byte) error {
	var snapshot map[string]string
	if err := json.Unmarshal(blob, &snapshot); err != nil {
		return fmt.Errorf("restore: decode snapshot: %w", err)
	}
	fields := make(map[string]*fieldSlot, len(snapshot))
	for name, encoded := range snapshot {
		value, err := s.reg.Deserialize([]byte(encoded))
		if err != nil {
			return fmt.Errorf("restore field %q: %w", name, err)
		}
		fields[name] = &fieldSlot{durable: true, value: value}
	}
	s.fields = fields
	return nil
}
