package algos

import (
	"fmt"

	"github.com/procsim/procsim/internal/mp"
)

const resendTimer = "resend"

// PingClient forwards locally injected PING messages to a server and
// retries until the matching PONG arrives. The pending payload is durable
// so a restarted client resumes retrying.
type PingClient struct {
	mp.Base
	server  string
	timeout float64

	pending mp.Durable[string]
}

// NewPingClient creates a client bound to the named server process.
func NewPingClient(server string, timeout float64) *PingClient {
	c := &PingClient{server: server, timeout: timeout}
	c.pending = mp.NewDurable(c.State(), "pending", "")
	return c
}

func (c *PingClient) OnLocalMessage(msg mp.Message, ctx *mp.Context) error {
	raw, err := msg.Get("value")
	if err != nil {
		return err
	}
	value, ok := raw.(string)
	if !ok {
		return &mp.Error{
			Code:    mp.ErrCodeInvalidArgument,
			Message: fmt.Sprintf("PING value must be a string, got %T", raw),
		}
	}
	c.pending.Set(value)
	if err := c.sendPing(ctx); err != nil {
		return err
	}
	return ctx.SetTimer(resendTimer, c.timeout)
}

func (c *PingClient) OnMessage(msg mp.Message, from string, ctx *mp.Context) error {
	if msg.Type() != "PONG" {
		return nil
	}
	pending, err := c.pending.Get()
	if err != nil {
		return err
	}
	value, err := msg.Get("value")
	if err != nil {
		return err
	}
	if pending == "" || value != pending {
		// Stale reply from an earlier ping.
		return nil
	}
	c.pending.Set("")
	if err := ctx.CancelTimer(resendTimer); err != nil {
		return err
	}
	return ctx.SendLocal(msg)
}

func (c *PingClient) OnTimer(timer string, ctx *mp.Context) error {
	pending, err := c.pending.Get()
	if err != nil {
		return err
	}
	if pending == "" {
		return nil
	}
	if err := c.sendPing(ctx); err != nil {
		return err
	}
	return ctx.SetTimer(resendTimer, c.timeout)
}

func (c *PingClient) sendPing(ctx *mp.Context) error {
	pending, err := c.pending.Get()
	if err != nil {
		return err
	}
	ping := mp.NewMessage("PING", map[string]any{"value": pending})
	return ctx.Send(ping, c.server)
}

// PingServer answers every PING with a PONG echoing the payload. It keeps
// no state at all.
type PingServer struct {
	mp.Base
}

// NewPingServer creates a server.
func NewPingServer() *PingServer {
	return &PingServer{}
}

func (s *PingServer) OnLocalMessage(msg mp.Message, ctx *mp.Context) error { return nil }

func (s *PingServer) OnMessage(msg mp.Message, from string, ctx *mp.Context) error {
	if msg.Type() != "PING" {
		return nil
	}
	value, err := msg.Get("value")
	if err != nil {
		return err
	}
	pong := mp.NewMessage("PONG", map[string]any{"value": value})
	return ctx.Send(pong, from)
}

func (s *PingServer) OnTimer(timer string, ctx *mp.Context) error { return nil }
