package mp

import (
	"encoding/json"
	"fmt"
)

// Durable is a typed handle to a durable field in a State table.
//
// The handle addresses the field by name, so it stays valid across
// Restore: after a restore that kept the field, Get returns the restored
// value; after a restore that dropped it, Get fails with FIELD_NOT_FOUND.
type Durable[T any] struct {
	state *State
	name  string
}

// NewDurable declares name as a durable field holding initial and returns
// a typed handle to it.
func NewDurable[T any](s *State, name string, initial T) Durable[T] {
	s.Declare(name, initial)
	return Durable[T]{state: s, name: name}
}

// Name returns the field name the handle addresses.
func (d Durable[T]) Name() string {
	return d.name
}

// Get returns the field's current value.
//
// Values that went through a checkpoint round trip come back in decoded
// JSON shape (float64 numbers, []any sequences); Get converts them back
// to T through a JSON round trip when a direct assertion fails.
func (d Durable[T]) Get() (T, error) {
	var zero T
	v, err := d.state.Get(d.name)
	if err != nil {
		return zero, err
	}
	if t, ok := v.(T); ok {
		return t, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return zero, fmt.Errorf("field %q: %w", d.name, err)
	}
	var t T
	if err := json.Unmarshal(data, &t); err != nil {
		return zero, fmt.Errorf("field %q holds %T, not %T: %w", d.name, v, zero, err)
	}
	// Cache the converted value so repeated reads skip the round trip.
	d.state.Put(d.name, t)
	return t, nil
}

// MustGet is Get for fields known to exist, such as a field declared in
// the same callback. Panics on error.
func (d Durable[T]) MustGet() T {
	v, err := d.Get()
	if err != nil {
		panic(err)
	}
	return v
}

// Set performs a plain assignment through the handle. On a live durable
// field this replaces the inner value and keeps it durable; if the field
// was dropped by a restore, the assignment recreates it transient, exactly
// as a plain Put would.
func (d Durable[T]) Set(value T) {
	d.state.Put(d.name, value)
}
