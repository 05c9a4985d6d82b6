// Package scenario loads and validates simulation scenario documents.
//
// A scenario is a YAML file describing the topology (nodes and the
// processes on them), the network model, and a script of steps to drive
// the run: local message injections, time advances, crashes and restarts.
// Documents are validated against an embedded CUE schema before use, so
// shape errors surface with a path and message instead of a nil panic
// deep inside the run.
package scenario
