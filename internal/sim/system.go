package sim

import (
	"fmt"
	"math/rand"

	"github.com/procsim/procsim/internal/mp"
)

// System models a distributed system of nodes connected by a lossy
// network, driven by one deterministic event loop.
type System struct {
	clock     *Clock
	queue     *eventQueue
	rng       *rand.Rand
	net       *Network
	nodes     map[string]*Node
	procNodes map[string]*Node
	trace     []TraceEvent
	time      float64
}

// NewSystem creates a system with the given random seed. Two systems with
// the same seed and the same inputs produce identical traces.
func NewSystem(seed int64) *System {
	rng := rand.New(rand.NewSource(seed))
	return &System{
		clock:     NewClock(),
		queue:     newEventQueue(),
		rng:       rng,
		net:       newNetwork(rng),
		nodes:     make(map[string]*Node),
		procNodes: make(map[string]*Node),
	}
}

// Network returns the network model for configuring delays, drops, and
// link failures.
func (s *System) Network() *Network {
	return s.net
}

// Time returns the current simulation time.
func (s *System) Time() float64 {
	return s.time
}

// Trace returns the ordered trace of everything that happened so far.
func (s *System) Trace() []TraceEvent {
	return s.trace
}

// AddNode adds a node. Node names must be unique.
func (s *System) AddNode(name string) error {
	if _, exists := s.nodes[name]; exists {
		return fmt.Errorf("node %q already exists", name)
	}
	s.nodes[name] = newNode(name)
	return nil
}

// AddProcess spawns a process on a node. Process names are global: a
// message addressed to a process name finds it regardless of node.
func (s *System) AddProcess(name string, proc mp.Process, node string) error {
	n, ok := s.nodes[node]
	if !ok {
		return fmt.Errorf("unknown node %q", node)
	}
	if _, exists := s.procNodes[name]; exists {
		return fmt.Errorf("process %q already exists", name)
	}
	n.procs[name] = &procEntry{
		impl:          proc,
		pendingTimers: make(map[string]int64),
	}
	s.procNodes[name] = n
	return nil
}

// NodeIsCrashed reports whether the named node is crashed.
func (s *System) NodeIsCrashed(name string) bool {
	n, ok := s.nodes[name]
	return ok && n.crashed
}

// CrashNode marks a node as crashed. Its processes stop receiving
// messages and timers but remain inspectable until the node recovers.
func (s *System) CrashNode(name string) error {
	n, ok := s.nodes[name]
	if !ok {
		return fmt.Errorf("unknown node %q", name)
	}
	if n.crashed {
		return fmt.Errorf("node %q is already crashed", name)
	}
	n.crashed = true
	s.record(TraceEvent{Kind: TraceNodeCrashed, Node: name})
	return nil
}

// RecoverNode brings a crashed node back empty: process instances are
// discarded here rather than at crash time so that a crashed node can
// still be examined. The caller re-adds processes and restores their
// state from checkpoint blobs.
func (s *System) RecoverNode(name string) error {
	n, ok := s.nodes[name]
	if !ok {
		return fmt.Errorf("unknown node %q", name)
	}
	if !n.crashed {
		return fmt.Errorf("node %q is not crashed", name)
	}
	for proc := range n.procs {
		delete(s.procNodes, proc)
	}
	n.procs = make(map[string]*procEntry)
	n.crashed = false
	s.record(TraceEvent{Kind: TraceNodeRecovered, Node: name})
	return nil
}

// CheckpointProcess snapshots the durable state of a process. The process
// must implement mp.Checkpointable.
func (s *System) CheckpointProcess(proc string) ([]byte, error) {
	entry, node, err := s.lookupProc(proc)
	if err != nil {
		return nil, err
	}
	cp, ok := entry.impl.(mp.Checkpointable)
	if !ok {
		return nil, fmt.Errorf("process %q does not support checkpoints", proc)
	}
	blob, err := cp.Checkpoint()
	if err != nil {
		return nil, fmt.Errorf("checkpoint %q: %w", proc, err)
	}
	s.record(TraceEvent{Kind: TraceCheckpointTaken, Node: node.name, Proc: proc})
	return blob, nil
}

// RestoreProcess rehydrates a process from a checkpoint blob.
func (s *System) RestoreProcess(proc string, blob []byte) error {
	entry, node, err := s.lookupProc(proc)
	if err != nil {
		return err
	}
	cp, ok := entry.impl.(mp.Checkpointable)
	if !ok {
		return fmt.Errorf("process %q does not support checkpoints", proc)
	}
	if err := cp.Restore(blob); err != nil {
		return fmt.Errorf("restore %q: %w", proc, err)
	}
	s.record(TraceEvent{Kind: TraceStateRestored, Node: node.name, Proc: proc})
	return nil
}

// SendLocal injects a message from the local user into a process. The
// callback runs synchronously at the current simulation time.
func (s *System) SendLocal(proc string, msg mp.Message) error {
	entry, node, err := s.lookupProc(proc)
	if err != nil {
		return err
	}
	if node.crashed {
		return fmt.Errorf("node %q is crashed", node.name)
	}
	payload, err := msg.Encode()
	if err != nil {
		return err
	}
	s.record(TraceEvent{
		Kind: TraceLocalMessageReceived, Node: node.name, Proc: proc,
		MsgType: msg.Type(), Payload: payload,
	})
	ctx := mp.NewContext(s.time)
	if err := entry.impl.OnLocalMessage(msg, ctx); err != nil {
		return fmt.Errorf("process %q on local message: %w", proc, err)
	}
	return s.applyActions(node, proc, entry, ctx)
}

// ReadLocalMessages drains and returns the messages a process sent to the
// local user, in emission order.
func (s *System) ReadLocalMessages(proc string) ([]mp.Message, error) {
	entry, _, err := s.lookupProc(proc)
	if err != nil {
		return nil, err
	}
	msgs := entry.localOutbox
	entry.localOutbox = nil
	return msgs, nil
}

// Step processes the next scheduled event. Returns false when the queue
// is empty. A callback error aborts the step and propagates to the
// caller; the host decides whether that crashes the process.
func (s *System) Step() (bool, error) {
	e := s.queue.Pop()
	if e == nil {
		return false, nil
	}
	s.time = e.time

	switch e.kind {
	case eventMessageDelivery:
		return true, s.deliverMessage(e)
	case eventTimerFired:
		return true, s.fireTimer(e)
	default:
		return false, fmt.Errorf("unknown event kind %d", e.kind)
	}
}

// Steps processes up to count events. Returns false if the queue drained
// before count steps.
func (s *System) Steps(count int) (bool, error) {
	for i := 0; i < count; i++ {
		more, err := s.Step()
		if err != nil {
			return true, err
		}
		if !more {
			return false, nil
		}
	}
	return true, nil
}

// StepUntilNoEvents runs until the event queue drains or maxSteps events
// have been processed, whichever comes first.
func (s *System) StepUntilNoEvents(maxSteps int) error {
	for i := 0; i < maxSteps; i++ {
		more, err := s.Step()
		if err != nil {
			return err
		}
		if !more {
			return nil
		}
	}
	if s.queue.Len() > 0 {
		return fmt.Errorf("event queue not drained after %d steps", maxSteps)
	}
	return nil
}

// StepForDuration processes events until the next event would be later
// than the current time plus duration.
func (s *System) StepForDuration(duration float64) error {
	deadline := s.time + duration
	for {
		next := s.queue.Peek()
		if next == nil || next.time > deadline {
			// Even with no events, time still passes.
			s.time = deadline
			return nil
		}
		if _, err := s.Step(); err != nil {
			return err
		}
	}
}

// StepUntilLocalMessage runs until the process emits at least one local
// message, then drains and returns them. Fails if maxSteps events pass
// without one.
func (s *System) StepUntilLocalMessage(proc string, maxSteps int) ([]mp.Message, error) {
	entry, _, err := s.lookupProc(proc)
	if err != nil {
		return nil, err
	}
	for i := 0; i < maxSteps; i++ {
		if len(entry.localOutbox) > 0 {
			return s.ReadLocalMessages(proc)
		}
		more, err := s.Step()
		if err != nil {
			return nil, err
		}
		if !more {
			break
		}
	}
	if len(entry.localOutbox) > 0 {
		return s.ReadLocalMessages(proc)
	}
	return nil, fmt.Errorf("no local message from %q", proc)
}

func (s *System) lookupProc(proc string) (*procEntry, *Node, error) {
	node, ok := s.procNodes[proc]
	if !ok {
		return nil, nil, fmt.Errorf("unknown process %q", proc)
	}
	return node.procs[proc], node, nil
}

// applyActions drains a Context after a callback and applies the buffered
// effects in emission order.
func (s *System) applyActions(node *Node, proc string, entry *procEntry, ctx *mp.Context) error {
	for _, out := range ctx.Outgoing() {
		s.sendMessage(node, proc, out)
	}
	for _, local := range ctx.OutgoingLocal() {
		msg, err := mp.DecodeMessage(local.Type, local.Payload)
		if err != nil {
			return fmt.Errorf("process %q local outbox: %w", proc, err)
		}
		entry.localOutbox = append(entry.localOutbox, msg)
		s.record(TraceEvent{
			Kind: TraceLocalMessageSent, Node: node.name, Proc: proc,
			MsgType: local.Type, Payload: local.Payload,
		})
	}
	for _, action := range ctx.TimerActions() {
		s.applyTimerAction(node, proc, entry, action)
	}
	return nil
}

func (s *System) sendMessage(node *Node, proc string, out mp.OutgoingMessage) {
	s.record(TraceEvent{
		Kind: TraceMessageSent, Node: node.name, Proc: proc,
		MsgType: out.Type, Payload: out.Payload, To: out.To,
	})

	dstNode, known := s.procNodes[out.To]
	dropped := !known || s.net.drops()
	if known && !s.net.linkEnabled(node.name, dstNode.name) {
		dropped = true
	}
	if dropped {
		s.record(TraceEvent{
			Kind: TraceMessageDropped, Node: node.name, Proc: proc,
			MsgType: out.Type, Payload: out.Payload, To: out.To,
		})
		return
	}

	s.queue.Push(&event{
		kind:       eventMessageDelivery,
		time:       s.time + s.net.delay(),
		seq:        s.clock.Next(),
		msgType:    out.Type,
		msgPayload: out.Payload,
		srcProc:    proc,
		dstProc:    out.To,
	})
}

// applyTimerAction resolves the host-side timer semantics the Context
// deliberately leaves open: Set overrides an active timer, SetOnce is
// ignored while one is active, Cancel removes it.
func (s *System) applyTimerAction(node *Node, proc string, entry *procEntry, action mp.TimerAction) {
	switch action.Kind {
	case mp.TimerSet, mp.TimerSetOnce:
		if _, active := entry.pendingTimers[action.Name]; active && action.Kind == mp.TimerSetOnce {
			s.record(TraceEvent{Kind: TraceTimerIgnored, Node: node.name, Proc: proc, Timer: action.Name})
			return
		}
		seq := s.clock.Next()
		// Replacing the pending seq orphans any earlier scheduled firing.
		entry.pendingTimers[action.Name] = seq
		s.queue.Push(&event{
			kind:      eventTimerFired,
			time:      s.time + action.Delay,
			seq:       seq,
			dstProc:   proc,
			timerName: action.Name,
		})
		s.record(TraceEvent{Kind: TraceTimerSet, Node: node.name, Proc: proc, Timer: action.Name})
	case mp.TimerCancel:
		if _, active := entry.pendingTimers[action.Name]; active {
			delete(entry.pendingTimers, action.Name)
			s.record(TraceEvent{Kind: TraceTimerCancelled, Node: node.name, Proc: proc, Timer: action.Name})
		}
	}
}

func (s *System) deliverMessage(e *event) error {
	node, ok := s.procNodes[e.dstProc]
	if !ok || node.crashed {
		// In-flight messages to a removed or crashed process are lost.
		s.record(TraceEvent{
			Kind: TraceMessageDropped, From: e.srcProc, To: e.dstProc,
			MsgType: e.msgType, Payload: e.msgPayload,
		})
		return nil
	}
	entry := node.procs[e.dstProc]
	msg, err := mp.DecodeMessage(e.msgType, e.msgPayload)
	if err != nil {
		return fmt.Errorf("deliver to %q: %w", e.dstProc, err)
	}
	s.record(TraceEvent{
		Kind: TraceMessageReceived, Node: node.name, Proc: e.dstProc,
		MsgType: e.msgType, Payload: e.msgPayload, From: e.srcProc,
	})
	ctx := mp.NewContext(s.time)
	if err := entry.impl.OnMessage(msg, e.srcProc, ctx); err != nil {
		return fmt.Errorf("process %q on message: %w", e.dstProc, err)
	}
	return s.applyActions(node, e.dstProc, entry, ctx)
}

func (s *System) fireTimer(e *event) error {
	node, ok := s.procNodes[e.dstProc]
	if !ok || node.crashed {
		return nil
	}
	entry := node.procs[e.dstProc]
	if entry.pendingTimers[e.timerName] != e.seq {
		// Stale firing: the timer was overridden or cancelled after this
		// event was scheduled.
		return nil
	}
	delete(entry.pendingTimers, e.timerName)
	s.record(TraceEvent{Kind: TraceTimerFired, Node: node.name, Proc: e.dstProc, Timer: e.timerName})
	ctx := mp.NewContext(s.time)
	if err := entry.impl.OnTimer(e.timerName, ctx); err != nil {
		return fmt.Errorf("process %q on timer %q: %w", e.dstProc, e.timerName, err)
	}
	return s.applyActions(node, e.dstProc, entry, ctx)
}

func (s *System) record(ev TraceEvent) {
	ev.Seq = s.clock.Next()
	ev.Time = s.time
	s.trace = append(s.trace, ev)
}
