// Package algos holds example processes written against the mp contract:
// a retrying ping-pong pair, an eager reliable broadcast, and a
// heartbeat-based membership view. They double as end-to-end exercises of
// the checkpoint/restore protocol: every piece of state that matters is
// durable, everything else is scratch.
package algos
