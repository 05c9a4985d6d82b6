package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/procsim/procsim/internal/scenario"
)

// ValidationResult holds validation results for JSON output.
type ValidationResult struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <scenario.yaml>",
		Short: "Validate a scenario without running it",
		Long: `Validate a scenario document against the schema and check its
cross-references (step targets, unique names, delay range) without
executing anything.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	sc, err := scenario.Load(path)
	if err != nil {
		return outputValidationFailure(formatter, err)
	}
	formatter.VerboseLog("schema ok: %s (%d nodes, %d steps)", sc.Name, len(sc.Nodes), len(sc.Steps))

	if err := sc.Check(); err != nil {
		return outputValidationFailure(formatter, err)
	}

	if formatter.Format == "json" {
		return formatter.Success(ValidationResult{Valid: true})
	}
	fmt.Fprintln(formatter.Writer, "✓ scenario valid")
	return nil
}

func outputValidationFailure(formatter *OutputFormatter, err error) error {
	// Schema and cross-reference violations are validation failures;
	// anything else (unreadable file, bad YAML) is a command error.
	code, exit := ErrCodeBadDoc, ExitFailure
	var verr *scenario.ValidationError
	if !errors.As(err, &verr) {
		code, exit = ErrCodeNotFound, ExitCommandError
	}
	_ = formatter.Error(code, err.Error(), nil)
	return NewExitError(exit, fmt.Sprintf("%s: %s", code, err.Error()))
}
