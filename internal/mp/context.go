package mp

import "math"

// TimerKind distinguishes the buffered timer actions.
type TimerKind int

const (
	// TimerSet sets a timer, overriding any active timer with this name.
	// The override itself is applied by the host, not recorded here.
	TimerSet TimerKind = iota + 1
	// TimerSetOnce sets a timer unless an active one with this name
	// exists; the "ignored if active" decision belongs to the host.
	TimerSetOnce
	// TimerCancel cancels the named timer.
	TimerCancel
)

// OutgoingMessage is a buffered network send: the message type, its payload
// encoded at call time, and the destination process name.
type OutgoingMessage struct {
	Type    string
	Payload string
	To      string
}

// LocalMessage is a buffered send to the local user.
type LocalMessage struct {
	Type    string
	Payload string
}

// TimerAction is a buffered timer request. Delay is -1 for TimerCancel.
type TimerAction struct {
	Name  string
	Delay float64
	Kind  TimerKind
}

// Context buffers the side effects of a single callback invocation.
//
// The host constructs one Context per callback with the current simulation
// time, runs the callback to completion, then drains the three ordered
// lists and applies the effects. A Context never executes anything itself
// and is discarded after draining.
//
// All mutating calls are O(1) appends; no call observes the effect of a
// previous call.
type Context struct {
	time     float64
	outgoing []OutgoingMessage
	local    []LocalMessage
	timers   []TimerAction
}

// NewContext creates a Context fixed at the given simulation time.
func NewContext(time float64) *Context {
	return &Context{time: time}
}

// Time returns the simulation time the Context was constructed with.
func (c *Context) Time() float64 {
	return c.time
}

// Send buffers a message to the named destination process.
// The payload is encoded at call time, so later mutation of msg does not
// affect what was sent. Fails with INVALID_ARGUMENT if to is empty.
func (c *Context) Send(msg Message, to string) error {
	if to == "" {
		return invalidArgumentf("send %q: destination must be a non-empty process name", msg.Type())
	}
	payload, err := msg.Encode()
	if err != nil {
		return err
	}
	c.outgoing = append(c.outgoing, OutgoingMessage{Type: msg.Type(), Payload: payload, To: to})
	return nil
}

// SendLocal buffers a message to the local user.
func (c *Context) SendLocal(msg Message) error {
	payload, err := msg.Encode()
	if err != nil {
		return err
	}
	c.local = append(c.local, LocalMessage{Type: msg.Type(), Payload: payload})
	return nil
}

// SetTimer buffers a timer set that overrides an active timer with the
// same name. Fails with INVALID_ARGUMENT for an empty name or a non-finite
// delay, and with OUT_OF_RANGE for a negative delay.
func (c *Context) SetTimer(name string, delay float64) error {
	if err := validateTimer(name, delay); err != nil {
		return err
	}
	c.timers = append(c.timers, TimerAction{Name: name, Delay: delay, Kind: TimerSet})
	return nil
}

// SetTimerOnce buffers a timer set that the host ignores if an active
// timer with the same name exists. Validation matches SetTimer.
func (c *Context) SetTimerOnce(name string, delay float64) error {
	if err := validateTimer(name, delay); err != nil {
		return err
	}
	c.timers = append(c.timers, TimerAction{Name: name, Delay: delay, Kind: TimerSetOnce})
	return nil
}

// CancelTimer buffers a cancellation of the named timer.
func (c *Context) CancelTimer(name string) error {
	if name == "" {
		return invalidArgumentf("cancel timer: name must be non-empty")
	}
	c.timers = append(c.timers, TimerAction{Name: name, Delay: -1, Kind: TimerCancel})
	return nil
}

// Outgoing returns the buffered network sends in call order.
func (c *Context) Outgoing() []OutgoingMessage {
	return c.outgoing
}

// OutgoingLocal returns the buffered local sends in call order.
func (c *Context) OutgoingLocal() []LocalMessage {
	return c.local
}

// TimerActions returns the buffered timer actions in call order.
func (c *Context) TimerActions() []TimerAction {
	return c.timers
}

func validateTimer(name string, delay float64) error {
	if name == "" {
		return invalidArgumentf("set timer: name must be non-empty")
	}
	if math.IsNaN(delay) || math.IsInf(delay, 0) {
		return invalidArgumentf("set timer %q: delay must be a finite number, got %v", name, delay)
	}
	if delay < 0 {
		return outOfRangef("set timer %q: delay must be non-negative, got %v", name, delay)
	}
	return nil
}
