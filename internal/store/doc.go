// Package store persists simulation runs to SQLite.
//
// A run row records the scenario document and seed that produced it, so
// any stored trace can be replayed bit-for-bit. Trace events are stored
// one row per event keyed by (run, seq), and checkpoint blobs taken at
// crash points are stored alongside so restarts can be audited later.
package store
