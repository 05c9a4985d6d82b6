package algos

import (
	"sort"

	"github.com/procsim/procsim/internal/mp"
)

const heartbeatTimer = "heartbeat"

// Membership maintains a failure-detector view of a fixed group using
// periodic heartbeats. A member that misses sweepAfter consecutive sweeps
// is suspected and dropped from the view until its next heartbeat.
//
// The view itself is durable; the per-sweep miss counters are transient
// scratch and reset to zero after a restart, which only delays suspicion
// by a few sweeps.
type Membership struct {
	mp.Base
	self       string
	group      []string
	period     float64
	sweepAfter float64

	alive mp.Durable[map[string]bool]
}

// NewMembership creates a membership process for the given group. The
// group lists every participant including the process itself.
func NewMembership(self string, group []string, period float64) *Membership {
	m := &Membership{self: self, group: group, period: period, sweepAfter: 3}
	view := map[string]bool{}
	for _, member := range group {
		view[member] = true
	}
	m.alive = mp.NewDurable(m.State(), "alive", view)
	return m
}

func (m *Membership) OnLocalMessage(msg mp.Message, ctx *mp.Context) error {
	switch msg.Type() {
	case "START":
		return ctx.SetTimerOnce(heartbeatTimer, m.period)
	case "MEMBERS":
		return m.reportMembers(ctx)
	}
	return nil
}

func (m *Membership) OnMessage(msg mp.Message, from string, ctx *mp.Context) error {
	if msg.Type() != "HEARTBEAT" {
		return nil
	}
	view, err := m.alive.Get()
	if err != nil {
		return err
	}
	if !view[from] {
		view[from] = true
		m.alive.Set(view)
	}
	m.resetMisses(from)
	return nil
}

func (m *Membership) OnTimer(timer string, ctx *mp.Context) error {
	if timer != heartbeatTimer {
		return nil
	}
	hb := mp.NewMessage("HEARTBEAT", nil)
	for _, member := range m.group {
		if member == m.self {
			continue
		}
		if err := ctx.Send(hb, member); err != nil {
			return err
		}
	}
	if err := m.sweep(); err != nil {
		return err
	}
	return ctx.SetTimer(heartbeatTimer, m.period)
}

// sweep bumps the transient miss counter of every member and suspects
// those past the threshold.
func (m *Membership) sweep() error {
	view, err := m.alive.Get()
	if err != nil {
		return err
	}
	changed := false
	for _, member := range m.group {
		if member == m.self || !view[member] {
			continue
		}
		misses := m.bumpMisses(member)
		if misses >= m.sweepAfter {
			delete(view, member)
			changed = true
		}
	}
	if changed {
		m.alive.Set(view)
	}
	return nil
}

func (m *Membership) reportMembers(ctx *mp.Context) error {
	view, err := m.alive.Get()
	if err != nil {
		return err
	}
	members := make([]any, 0, len(view))
	for member, ok := range view {
		if ok {
			members = append(members, member)
		}
	}
	sort.Slice(members, func(i, j int) bool { return members[i].(string) < members[j].(string) })
	return ctx.SendLocal(mp.NewMessage("MEMBERS", map[string]any{"members": members}))
}

func (m *Membership) bumpMisses(member string) float64 {
	key := "misses_" + member
	var misses float64
	if v, err := m.State().Get(key); err == nil {
		misses = v.(float64)
	}
	misses++
	m.State().Put(key, misses)
	return misses
}

func (m *Membership) resetMisses(member string) {
	m.State().Put("misses_"+member, float64(0))
}
