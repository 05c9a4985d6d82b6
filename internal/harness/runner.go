package harness

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/procsim/procsim/internal/mp"
	"github.com/procsim/procsim/internal/scenario"
	"github.com/procsim/procsim/internal/sim"
)

// CheckpointRecord is one state blob the runner captured before a crash
// step. Seq is the trace seq of the checkpoint event.
type CheckpointRecord struct {
	Proc string
	Seq  int64
	Blob []byte
}

// Result is the outcome of one scenario run.
type Result struct {
	Name        string
	Seed        int64
	FinalTime   float64
	Trace       []sim.TraceEvent
	Checkpoints []CheckpointRecord
}

// Runner executes scenarios against a fresh System per run.
type Runner struct {
	reg    *Registry
	logger *slog.Logger
}

// NewRunner creates a runner. A nil logger discards run logging.
func NewRunner(reg *Registry, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Runner{reg: reg, logger: logger}
}

// Run executes a scenario and returns its trace. The same scenario
// always yields the same Result.
func (r *Runner) Run(sc *scenario.Scenario) (*Result, error) {
	if err := sc.Check(); err != nil {
		return nil, fmt.Errorf("scenario %q: %w", sc.Name, err)
	}

	sys := sim.NewSystem(sc.Seed)
	applyNetwork(sys.Network(), sc.Network)

	nodeSpecs := make(map[string]scenario.Node, len(sc.Nodes))
	for _, node := range sc.Nodes {
		nodeSpecs[node.Name] = node
		if err := sys.AddNode(node.Name); err != nil {
			return nil, err
		}
		if err := r.spawnProcesses(sys, node, nil); err != nil {
			return nil, err
		}
	}

	result := &Result{Name: sc.Name, Seed: sc.Seed}

	// Latest captured blob per process, consumed by restart steps.
	blobs := make(map[string][]byte)

	for i, step := range sc.Steps {
		switch {
		case step.SendLocal != nil:
			sl := step.SendLocal
			r.logger.Debug("send local", "proc", sl.Proc, "type", sl.Type)
			msg := mp.NewMessage(sl.Type, sl.Payload)
			if err := sys.SendLocal(sl.Proc, msg); err != nil {
				return nil, fmt.Errorf("step %d: %w", i, err)
			}

		case step.RunFor != nil:
			r.logger.Debug("run for", "duration", step.RunFor.Duration)
			if err := sys.StepForDuration(step.RunFor.Duration); err != nil {
				return nil, fmt.Errorf("step %d: %w", i, err)
			}

		case step.RunUntilIdle != nil:
			r.logger.Debug("run until idle", "max_steps", step.RunUntilIdle.MaxSteps)
			if err := sys.StepUntilNoEvents(step.RunUntilIdle.MaxSteps); err != nil {
				return nil, fmt.Errorf("step %d: %w", i, err)
			}

		case step.Crash != nil:
			name := step.Crash.Node
			r.logger.Debug("crash node", "node", name)
			// Capture state before the crash so restart can restore it.
			for _, proc := range nodeSpecs[name].Processes {
				blob, err := sys.CheckpointProcess(proc.Name)
				if err != nil {
					return nil, fmt.Errorf("step %d: %w", i, err)
				}
				blobs[proc.Name] = blob
				trace := sys.Trace()
				result.Checkpoints = append(result.Checkpoints, CheckpointRecord{
					Proc: proc.Name,
					Seq:  trace[len(trace)-1].Seq,
					Blob: blob,
				})
			}
			if err := sys.CrashNode(name); err != nil {
				return nil, fmt.Errorf("step %d: %w", i, err)
			}

		case step.Restart != nil:
			name := step.Restart.Node
			r.logger.Debug("restart node", "node", name)
			if err := sys.RecoverNode(name); err != nil {
				return nil, fmt.Errorf("step %d: %w", i, err)
			}
			if err := r.spawnProcesses(sys, nodeSpecs[name], blobs); err != nil {
				return nil, fmt.Errorf("step %d: %w", i, err)
			}

		default:
			return nil, fmt.Errorf("step %d: empty step", i)
		}
	}

	result.FinalTime = sys.Time()
	result.Trace = sys.Trace()
	return result, nil
}

// spawnProcesses builds and adds a node's processes. When blobs is
// non-nil, processes with a captured blob are restored from it.
func (r *Runner) spawnProcesses(sys *sim.System, node scenario.Node, blobs map[string][]byte) error {
	for _, proc := range node.Processes {
		impl, err := r.reg.Build(proc.Kind, proc.Name, proc.Params)
		if err != nil {
			return err
		}
		if err := sys.AddProcess(proc.Name, impl, node.Name); err != nil {
			return err
		}
		if blob, ok := blobs[proc.Name]; ok {
			if err := sys.RestoreProcess(proc.Name, blob); err != nil {
				return err
			}
		}
	}
	return nil
}

func applyNetwork(net *sim.Network, cfg *scenario.Network) {
	if cfg == nil {
		return
	}
	switch {
	case cfg.MinDelay != nil && cfg.MaxDelay != nil:
		net.SetDelays(*cfg.MinDelay, *cfg.MaxDelay)
	case cfg.MinDelay != nil:
		net.SetDelay(*cfg.MinDelay)
	case cfg.MaxDelay != nil:
		net.SetDelay(*cfg.MaxDelay)
	}
	if cfg.DropRate > 0 {
		net.SetDropRate(cfg.DropRate)
	}
}
