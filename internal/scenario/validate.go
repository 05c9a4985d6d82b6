package scenario

import (
	_ "embed"
	"fmt"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
)

//go:embed schema.cue
var schemaSource string

// ValidationError is one schema or consistency violation in a scenario
// document.
type ValidationError struct {
	Path    string `json:"path,omitempty"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s", e.Path, e.Message)
	}
	return e.Message
}

// Validate checks a decoded scenario document against the embedded CUE
// schema. Returns the first violation found.
func Validate(doc map[string]any) error {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile scenario schema: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath("#Scenario"))
	if !def.Exists() {
		return fmt.Errorf("scenario schema missing #Scenario definition")
	}

	val := ctx.Encode(doc)
	if err := val.Err(); err != nil {
		return fmt.Errorf("encode scenario document: %w", err)
	}

	unified := def.Unify(val)
	if err := unified.Validate(cue.Concrete(true), cue.Final()); err != nil {
		return schemaError(err)
	}
	return nil
}

// Check verifies cross-references the schema cannot express: unique
// node and process names, steps pointing at declared names, and a
// sane delay range.
func (s *Scenario) Check() error {
	nodes := make(map[string]bool, len(s.Nodes))
	procs := make(map[string]bool)
	for _, n := range s.Nodes {
		if nodes[n.Name] {
			return &ValidationError{Path: "nodes", Message: fmt.Sprintf("duplicate node %q", n.Name)}
		}
		nodes[n.Name] = true
		for _, p := range n.Processes {
			if procs[p.Name] {
				return &ValidationError{Path: "nodes", Message: fmt.Sprintf("duplicate process %q", p.Name)}
			}
			procs[p.Name] = true
		}
	}

	if nw := s.Network; nw != nil && nw.MinDelay != nil && nw.MaxDelay != nil && *nw.MinDelay > *nw.MaxDelay {
		return &ValidationError{Path: "network", Message: "min_delay exceeds max_delay"}
	}

	for i, step := range s.Steps {
		path := fmt.Sprintf("steps[%d]", i)
		switch {
		case step.SendLocal != nil:
			if !procs[step.SendLocal.Proc] {
				return &ValidationError{Path: path, Message: fmt.Sprintf("unknown process %q", step.SendLocal.Proc)}
			}
		case step.Crash != nil:
			if !nodes[step.Crash.Node] {
				return &ValidationError{Path: path, Message: fmt.Sprintf("unknown node %q", step.Crash.Node)}
			}
		case step.Restart != nil:
			if !nodes[step.Restart.Node] {
				return &ValidationError{Path: path, Message: fmt.Sprintf("unknown node %q", step.Restart.Node)}
			}
		}
	}
	return nil
}

// schemaError converts a CUE validation error into a ValidationError
// carrying the offending path.
func schemaError(err error) error {
	var cerr cueerrors.Error
	if errList := cueerrors.Errors(err); len(errList) > 0 {
		cerr = errList[0]
	}
	if cerr != nil {
		format, args := cerr.Msg()
		return &ValidationError{
			Path:    pathString(cerr.Path()),
			Message: fmt.Sprintf(format, args...),
		}
	}
	return &ValidationError{Message: err.Error()}
}

func pathString(parts []string) string {
	return strings.Join(parts, ".")
}
