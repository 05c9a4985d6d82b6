// Package sim is the discrete-event host that drives mp processes.
//
// A System owns a set of named nodes, each hosting named processes. All
// events - message deliveries, timer firings, locally injected messages -
// flow through one priority queue ordered by (time, seq), where seq is a
// monotonic logical counter that breaks ties deterministically. The whole
// simulation runs in one goroutine; with a fixed seed, every run produces
// the identical event order and trace.
//
// The host side of the process contract lives here: each callback gets a
// fresh mp.Context, the buffered actions are drained and applied after the
// callback returns, timer set/set-once/cancel semantics are resolved
// against the pending-timer table, and crash-and-restart is emulated by
// discarding processes and rehydrating them from checkpoint blobs.
package sim
