package mp

import "github.com/procsim/procsim/internal/codec"

// Process is a participant in the simulated distributed algorithm.
//
// The host invokes exactly one callback per event, passes a fresh Context
// to each, and runs every callback to completion before draining the
// Context. Callbacks are never concurrent for one process instance.
// A returned error propagates to the host unmodified; the host decides
// what it means at the simulation level.
type Process interface {
	// OnLocalMessage is called when a locally injected message arrives.
	OnLocalMessage(msg Message, ctx *Context) error

	// OnMessage is called when a network message arrives from another
	// process.
	OnMessage(msg Message, from string, ctx *Context) error

	// OnTimer is called when a timer set through a Context fires.
	OnTimer(timer string, ctx *Context) error
}

// Checkpointable is the snapshot surface a host may use between
// invocations. Checkpoint and Restore are atomic with respect to callback
// execution: the host never snapshots a process mid-callback.
type Checkpointable interface {
	Checkpoint() ([]byte, error)
	Restore(snapshot []byte) error
}

// Base provides the State table and the Checkpointable surface for
// process implementations; embed it and keep fields through State().
type Base struct {
	state *State
}

// State returns the process field table, creating it on first use.
func (b *Base) State() *State {
	if b.state == nil {
		b.state = NewState()
	}
	return b.state
}

// BindRegistry rebinds the field table to a specific codec registry.
// Must be called before any field is declared.
func (b *Base) BindRegistry(reg *codec.Registry) {
	b.state = NewStateWith(reg)
}

// Checkpoint implements Checkpointable over the durable fields.
func (b *Base) Checkpoint() ([]byte, error) {
	return b.State().Checkpoint()
}

// Restore implements Checkpointable; see State.Restore for the
// all-or-nothing guarantee.
func (b *Base) Restore(snapshot []byte) error {
	return b.State().Restore(snapshot)
}
