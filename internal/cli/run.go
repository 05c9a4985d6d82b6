package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/procsim/procsim/internal/harness"
	"github.com/procsim/procsim/internal/scenario"
	"github.com/procsim/procsim/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Database string
}

// RunSummary is the success payload of the run command.
type RunSummary struct {
	Name        string  `json:"name"`
	Seed        int64   `json:"seed"`
	FinalTime   float64 `json:"final_time"`
	Events      int     `json:"events"`
	Checkpoints int     `json:"checkpoints"`
	RunID       string  `json:"run_id,omitempty"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <scenario.yaml>",
		Short: "Execute a scenario",
		Long: `Execute a scenario document against a fresh simulated system.

The run is fully deterministic: the same document and seed always
produce the same trace. With --db, the run is recorded (scenario,
trace, and any crash-point checkpoints) for later inspection with
the trace command.

Example:
  procsim run scenarios/pingpong.yaml
  procsim run scenarios/pingpong.yaml --db ./runs.db --verbose`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenario(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "record the run to this SQLite database")

	return cmd
}

func runScenario(opts *RunOptions, path string, cmd *cobra.Command) error {
	logLevel := slog.LevelInfo
	if opts.Verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	raw, err := os.ReadFile(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read scenario", err)
	}
	sc, err := scenario.Parse(raw)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load scenario", err)
	}

	slog.Info("running scenario", "name", sc.Name, "seed", sc.Seed)
	runner := harness.NewRunner(harness.DefaultRegistry(), logger)
	result, err := runner.Run(sc)
	if err != nil {
		return WrapExitError(ExitFailure, "scenario run failed", err)
	}
	slog.Info("run finished", "events", len(result.Trace), "final_time", result.FinalTime)

	summary := RunSummary{
		Name:        result.Name,
		Seed:        result.Seed,
		FinalTime:   result.FinalTime,
		Events:      len(result.Trace),
		Checkpoints: len(result.Checkpoints),
	}

	if opts.Database != "" {
		runID, err := recordRun(context.Background(), opts.Database, raw, result)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to record run", err)
		}
		slog.Info("run recorded", "db", opts.Database, "run_id", runID)
		summary.RunID = runID
	}

	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
	if formatter.Format == "json" {
		return formatter.Success(summary)
	}

	fmt.Fprintf(formatter.Writer, "%s: %d events, final time %g\n", summary.Name, summary.Events, summary.FinalTime)
	if summary.RunID != "" {
		fmt.Fprintf(formatter.Writer, "recorded as run %s\n", summary.RunID)
	}
	return nil
}

// recordRun persists a finished run: the scenario document as written,
// the full trace, and every checkpoint the runner captured.
func recordRun(ctx context.Context, dbPath string, doc []byte, result *harness.Result) (string, error) {
	st, err := store.Open(dbPath)
	if err != nil {
		return "", err
	}
	defer st.Close()

	runID, err := st.CreateRun(ctx, result.Name, result.Seed, doc)
	if err != nil {
		return "", err
	}
	if err := st.WriteTrace(ctx, runID, result.Trace); err != nil {
		return "", err
	}
	for _, cp := range result.Checkpoints {
		if err := st.WriteCheckpoint(ctx, runID, cp.Proc, cp.Seq, cp.Blob); err != nil {
			return "", err
		}
	}
	return runID, nil
}
