package sim

import "math/rand"

// Network models the link behavior between nodes: delivery delay drawn
// uniformly from [minDelay, maxDelay], a message drop rate, and explicit
// link disconnections. All randomness comes from the System's seeded
// source, so network behavior replays identically for a given seed.
type Network struct {
	rng      *rand.Rand
	minDelay float64
	maxDelay float64
	dropRate float64
	disabled map[linkKey]bool
}

type linkKey struct {
	from string
	to   string
}

func newNetwork(rng *rand.Rand) *Network {
	return &Network{
		rng:      rng,
		minDelay: 1,
		maxDelay: 1,
		disabled: make(map[linkKey]bool),
	}
}

// SetDelay fixes the delivery delay for all links.
func (n *Network) SetDelay(delay float64) {
	n.minDelay = delay
	n.maxDelay = delay
}

// SetDelays sets the uniform delivery delay range for all links.
func (n *Network) SetDelays(min, max float64) {
	n.minDelay = min
	n.maxDelay = max
}

// SetDropRate sets the probability of losing a message in transit.
func (n *Network) SetDropRate(rate float64) {
	n.dropRate = rate
}

// DisableLink stops delivery from one node to another. Directional:
// disabling a->b leaves b->a intact.
func (n *Network) DisableLink(from, to string) {
	n.disabled[linkKey{from, to}] = true
}

// EnableLink restores delivery from one node to another.
func (n *Network) EnableLink(from, to string) {
	delete(n.disabled, linkKey{from, to})
}

// linkEnabled reports whether messages currently pass from one node to
// another.
func (n *Network) linkEnabled(from, to string) bool {
	return !n.disabled[linkKey{from, to}]
}

// delay draws the delivery delay for one message.
func (n *Network) delay() float64 {
	if n.maxDelay <= n.minDelay {
		return n.minDelay
	}
	return n.minDelay + n.rng.Float64()*(n.maxDelay-n.minDelay)
}

// drops decides whether one message is lost in transit.
func (n *Network) drops() bool {
	return n.dropRate > 0 && n.rng.Float64() < n.dropRate
}
