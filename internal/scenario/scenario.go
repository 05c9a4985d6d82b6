package scenario

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario describes one reproducible simulation run.
type Scenario struct {
	// Name uniquely identifies the scenario; golden files and store runs
	// are keyed by it.
	Name string `yaml:"name"`

	// Description explains what the scenario exercises.
	Description string `yaml:"description,omitempty"`

	// Seed feeds the system PRNG; the same seed replays the same trace.
	Seed int64 `yaml:"seed"`

	// Network optionally tunes delays and loss; zero value means a
	// reliable network with unit delay.
	Network *Network `yaml:"network,omitempty"`

	// Nodes lists the topology, at least one node.
	Nodes []Node `yaml:"nodes"`

	// Steps is the script driving the run, executed in order.
	Steps []Step `yaml:"steps"`
}

// Network tunes the network model for a run.
type Network struct {
	MinDelay *float64 `yaml:"min_delay,omitempty"`
	MaxDelay *float64 `yaml:"max_delay,omitempty"`
	DropRate float64  `yaml:"drop_rate,omitempty"`
}

// Node is one node and the processes it hosts.
type Node struct {
	Name      string    `yaml:"name"`
	Processes []Process `yaml:"processes"`
}

// Process names a process and the registered kind that builds it.
type Process struct {
	Name   string         `yaml:"name"`
	Kind   string         `yaml:"kind"`
	Params map[string]any `yaml:"params,omitempty"`
}

// Step is one scripted action. Exactly one field is set; the schema
// rejects anything else.
type Step struct {
	SendLocal    *SendLocal    `yaml:"send_local,omitempty"`
	RunFor       *RunFor       `yaml:"run_for,omitempty"`
	RunUntilIdle *RunUntilIdle `yaml:"run_until_idle,omitempty"`
	Crash        *NodeRef      `yaml:"crash,omitempty"`
	Restart      *NodeRef      `yaml:"restart,omitempty"`
}

// SendLocal injects a local message into a process.
type SendLocal struct {
	Proc    string         `yaml:"proc"`
	Type    string         `yaml:"type"`
	Payload map[string]any `yaml:"payload,omitempty"`
}

// RunFor advances simulation time by a duration.
type RunFor struct {
	Duration float64 `yaml:"duration"`
}

// RunUntilIdle drains the event queue, bounded by max_steps.
type RunUntilIdle struct {
	MaxSteps int `yaml:"max_steps"`
}

// NodeRef names a node for crash and restart steps.
type NodeRef struct {
	Node string `yaml:"node"`
}

// Load reads, validates, and decodes a scenario file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	return Parse(data)
}

// Parse validates and decodes scenario YAML.
func Parse(data []byte) (*Scenario, error) {
	// Validate the raw document first so schema errors carry YAML paths
	// rather than Go decoding artifacts.
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	if err := Validate(raw); err != nil {
		return nil, err
	}

	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("decode scenario: %w", err)
	}
	return &sc, nil
}
