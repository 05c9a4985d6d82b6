package harness

import (
	"fmt"
	"sort"

	"github.com/procsim/procsim/internal/algos"
	"github.com/procsim/procsim/internal/mp"
)

// Factory builds a process instance for one scenario process entry.
// name is the process name from the scenario; params is its free-form
// parameter map.
type Factory func(name string, params map[string]any) (mp.Process, error)

// Registry maps process kinds to factories.
type Registry struct {
	factories map[string]Factory
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a factory for a kind. Registering a kind twice is an
// error.
func (r *Registry) Register(kind string, f Factory) error {
	if _, exists := r.factories[kind]; exists {
		return fmt.Errorf("process kind %q already registered", kind)
	}
	r.factories[kind] = f
	return nil
}

// Build constructs a process of the given kind.
func (r *Registry) Build(kind, name string, params map[string]any) (mp.Process, error) {
	f, ok := r.factories[kind]
	if !ok {
		return nil, fmt.Errorf("unknown process kind %q (have %v)", kind, r.Kinds())
	}
	proc, err := f(name, params)
	if err != nil {
		return nil, fmt.Errorf("build %q (kind %q): %w", name, kind, err)
	}
	return proc, nil
}

// Kinds returns the registered kind names, sorted.
func (r *Registry) Kinds() []string {
	kinds := make([]string, 0, len(r.factories))
	for k := range r.factories {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// DefaultRegistry returns a registry with the built-in process kinds.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	must := func(err error) {
		if err != nil {
			panic(err)
		}
	}
	must(r.Register("counter", func(name string, params map[string]any) (mp.Process, error) {
		return algos.NewCounter(), nil
	}))
	must(r.Register("ping-server", func(name string, params map[string]any) (mp.Process, error) {
		return algos.NewPingServer(), nil
	}))
	must(r.Register("ping-client", func(name string, params map[string]any) (mp.Process, error) {
		server, err := stringParam(params, "server")
		if err != nil {
			return nil, err
		}
		timeout, err := floatParam(params, "timeout", 5)
		if err != nil {
			return nil, err
		}
		return algos.NewPingClient(server, timeout), nil
	}))
	must(r.Register("broadcast", func(name string, params map[string]any) (mp.Process, error) {
		peers, err := stringListParam(params, "peers")
		if err != nil {
			return nil, err
		}
		return algos.NewBroadcast(name, peers), nil
	}))
	must(r.Register("membership", func(name string, params map[string]any) (mp.Process, error) {
		group, err := stringListParam(params, "group")
		if err != nil {
			return nil, err
		}
		period, err := floatParam(params, "period", 2)
		if err != nil {
			return nil, err
		}
		return algos.NewMembership(name, group, period), nil
	}))
	return r
}

func stringParam(params map[string]any, key string) (string, error) {
	v, ok := params[key]
	if !ok {
		return "", fmt.Errorf("missing param %q", key)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("param %q: want string, got %T", key, v)
	}
	return s, nil
}

func floatParam(params map[string]any, key string, def float64) (float64, error) {
	v, ok := params[key]
	if !ok {
		return def, nil
	}
	switch n := v.(type) {
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	default:
		return 0, fmt.Errorf("param %q: want number, got %T", key, v)
	}
}

func stringListParam(params map[string]any, key string) ([]string, error) {
	v, ok := params[key]
	if !ok {
		return nil, fmt.Errorf("missing param %q", key)
	}
	list, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("param %q: want list, got %T", key, v)
	}
	out := make([]string, len(list))
	for i, item := range list {
		s, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("param %q[%d]: want string, got %T", key, i, item)
		}
		out[i] = s
	}
	return out, nil
}
