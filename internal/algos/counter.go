package algos

import (
	"encoding/json"

	"github.com/procsim/procsim/internal/mp"
)

// Counter accumulates a durable running total from locally injected ADD
// messages and reports it back as TOTAL messages. A restarted counter
// resumes from its last checkpointed total.
type Counter struct {
	mp.Base
	total mp.Durable[float64]
}

// NewCounter creates a counter starting at zero.
func NewCounter() *Counter {
	c := &Counter{}
	c.total = mp.NewDurable(c.State(), "total", 0.0)
	return c
}

func (c *Counter) OnLocalMessage(msg mp.Message, ctx *mp.Context) error {
	switch msg.Type() {
	case "ADD":
		raw, err := msg.Get("amount")
		if err != nil {
			return err
		}
		amount, ok := numeric(raw)
		if !ok {
			return nil
		}
		cur, err := c.total.Get()
		if err != nil {
			return err
		}
		cur += amount
		c.total.Set(cur)
		return ctx.SendLocal(mp.NewMessage("TOTAL", map[string]any{"value": cur}))
	case "GET":
		cur, err := c.total.Get()
		if err != nil {
			return err
		}
		return ctx.SendLocal(mp.NewMessage("TOTAL", map[string]any{"value": cur}))
	}
	return nil
}

func (c *Counter) OnMessage(msg mp.Message, from string, ctx *mp.Context) error { return nil }

func (c *Counter) OnTimer(timer string, ctx *mp.Context) error { return nil }

// numeric widens the shapes a payload number can arrive in. Values that
// crossed the wire decode as float64; locally built payloads may still
// carry Go ints.
func numeric(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}
