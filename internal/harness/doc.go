// Package harness executes scenario documents against the simulator.
//
// A registry maps process kinds named in a scenario to factories that
// build the actual process implementations. The runner walks the
// scenario's steps, driving the system: local message injections, time
// advances, node crashes (with automatic checkpointing) and restarts
// (with automatic restore). The resulting trace is deterministic for a
// given scenario and seed, which is what the golden-file helpers rely
// on.
package harness
