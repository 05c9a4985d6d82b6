package algos

import (
	"fmt"

	"github.com/procsim/procsim/internal/mp"
)

// Broadcast is an eager reliable broadcast: a locally injected message is
// forwarded to every peer, and every process re-forwards the first copy
// it sees, so one correct delivery is enough for all correct processes to
// deliver. Delivered message ids are durable, which keeps a restarted
// process from delivering duplicates.
type Broadcast struct {
	mp.Base
	self  string
	peers []string

	delivered mp.Durable[map[string]bool]
	nextID    mp.Durable[float64]
}

// NewBroadcast creates a broadcast process. peers must include every
// other participant but not the process itself.
func NewBroadcast(self string, peers []string) *Broadcast {
	b := &Broadcast{self: self, peers: peers}
	b.delivered = mp.NewDurable(b.State(), "delivered", map[string]bool{})
	b.nextID = mp.NewDurable(b.State(), "next_id", float64(0))
	return b
}

func (b *Broadcast) OnLocalMessage(msg mp.Message, ctx *mp.Context) error {
	text, err := msg.Get("text")
	if err != nil {
		return err
	}
	seq, err := b.nextID.Get()
	if err != nil {
		return err
	}
	b.nextID.Set(seq + 1)
	id := fmt.Sprintf("%s:%d", b.self, int64(seq))
	return b.disseminate(ctx, id, text)
}

func (b *Broadcast) OnMessage(msg mp.Message, from string, ctx *mp.Context) error {
	if msg.Type() != "BCAST" {
		return nil
	}
	raw, err := msg.Get("id")
	if err != nil {
		return err
	}
	id, ok := raw.(string)
	if !ok {
		return &mp.Error{
			Code:    mp.ErrCodeInvalidArgument,
			Message: fmt.Sprintf("BCAST id must be a string, got %T", raw),
		}
	}
	text, err := msg.Get("text")
	if err != nil {
		return err
	}
	return b.disseminate(ctx, id, text)
}

func (b *Broadcast) OnTimer(timer string, ctx *mp.Context) error { return nil }

// disseminate delivers the message locally once and forwards it to all
// peers the first time it is seen.
func (b *Broadcast) disseminate(ctx *mp.Context, id string, text any) error {
	seen, err := b.delivered.Get()
	if err != nil {
		return err
	}
	if seen[id] {
		return nil
	}
	seen[id] = true
	b.delivered.Set(seen)

	deliver := mp.NewMessage("DELIVER", map[string]any{"id": id, "text": text})
	if err := ctx.SendLocal(deliver); err != nil {
		return err
	}
	fwd := mp.NewMessage("BCAST", map[string]any{"id": id, "text": text})
	for _, peer := range b.peers {
		if err := ctx.Send(fwd, peer); err != nil {
			return err
		}
	}
	return nil
}
