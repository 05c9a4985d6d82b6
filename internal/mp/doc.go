// Package mp defines the contract between a simulated message-passing
// process and its host simulator.
//
// A process reacts to three kinds of events - inbound network messages,
// locally injected messages, and fired timers - through the Process
// interface. Side effects are never executed directly: each callback
// receives a fresh Context that buffers outgoing messages and timer
// actions, and the host drains the buffers after the callback returns.
//
// Durable state is explicit. A process keeps its fields in a State table;
// a field created with Declare survives Checkpoint/Restore boundaries,
// while a field created with Put is scratch and is discarded at every such
// boundary. Restore is all-or-nothing: either the decoded snapshot replaces
// the whole table, or the table is left untouched.
//
// Everything here is single-threaded by contract. The host invokes at most
// one callback at a time and never checkpoints a process mid-callback, so
// no locking exists at this layer.
package mp
