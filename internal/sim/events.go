package sim

// eventKind distinguishes the scheduled event types.
type eventKind int

const (
	eventMessageDelivery eventKind = iota + 1
	eventTimerFired
)

// event is one scheduled entry in the simulation queue.
type event struct {
	kind eventKind
	time float64
	seq  int64

	// Message delivery fields.
	msgType    string
	msgPayload string
	srcProc    string
	dstProc    string

	// Timer fields. seq doubles as the timer's identity: a pending-timer
	// entry that no longer matches it means the firing is stale.
	timerName string
}

// TraceEventKind labels entries in the simulation trace.
type TraceEventKind string

const (
	TraceMessageSent          TraceEventKind = "message_sent"
	TraceMessageReceived      TraceEventKind = "message_received"
	TraceMessageDropped       TraceEventKind = "message_dropped"
	TraceLocalMessageSent     TraceEventKind = "local_message_sent"
	TraceLocalMessageReceived TraceEventKind = "local_message_received"
	TraceTimerSet             TraceEventKind = "timer_set"
	TraceTimerIgnored         TraceEventKind = "timer_ignored"
	TraceTimerCancelled       TraceEventKind = "timer_cancelled"
	TraceTimerFired           TraceEventKind = "timer_fired"
	TraceNodeCrashed          TraceEventKind = "node_crashed"
	TraceNodeRecovered        TraceEventKind = "node_recovered"
	TraceCheckpointTaken      TraceEventKind = "checkpoint_taken"
	TraceStateRestored        TraceEventKind = "state_restored"
)

// TraceEvent is one entry in the ordered simulation trace. The trace is
// what golden tests and the run store consume.
type TraceEvent struct {
	Seq  int64          `json:"seq"`
	Time float64        `json:"time"`
	Kind TraceEventKind `json:"kind"`
	Node string         `json:"node,omitempty"`
	Proc string         `json:"proc,omitempty"`

	// Message fields, when the event concerns a message.
	MsgType string `json:"msg_type,omitempty"`
	Payload string `json:"payload,omitempty"`
	From    string `json:"from,omitempty"`
	To      string `json:"to,omitempty"`

	// Timer name, when the event concerns a timer.
	Timer string `json:"timer,omitempty"`
}
