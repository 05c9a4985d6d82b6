package sim

import (
	"github.com/procsim/procsim/internal/mp"
)

// Node hosts one or more processes and is the unit of crashing: when a
// node crashes every process on it stops receiving events, and recovery
// discards the process instances so the host can rehydrate them from
// checkpoints.
type Node struct {
	name    string
	crashed bool
	procs   map[string]*procEntry
}

type procEntry struct {
	impl mp.Process

	// pendingTimers maps a timer name to the seq of its scheduled firing
	// event. A firing whose seq no longer matches is stale: the timer was
	// overridden or cancelled after scheduling.
	pendingTimers map[string]int64

	// localOutbox collects messages the process sent to the local user,
	// drained by ReadLocalMessages.
	localOutbox []mp.Message
}

func newNode(name string) *Node {
	return &Node{
		name:  name,
		procs: make(map[string]*procEntry),
	}
}

// Name returns the node name.
func (n *Node) Name() string {
	return n.name
}

// IsCrashed reports whether the node is currently crashed.
func (n *Node) IsCrashed() bool {
	return n.crashed
}

// ProcessNames returns the names of processes hosted on this node.
func (n *Node) ProcessNames() []string {
	names := make([]string, 0, len(n.procs))
	for name := range n.procs {
		names = append(names, name)
	}
	return names
}
