package cli

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/procsim/procsim/internal/sim"
	"github.com/procsim/procsim/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
	RunID    string
	Kind     string // optional - filter to one event kind
}

// TraceResult holds the trace output for JSON format.
type TraceResult struct {
	Run    store.Run        `json:"run"`
	Events []sim.TraceEvent `json:"events"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Show the trace of a recorded run",
		Long: `Show the ordered event trace of a run recorded with run --db.

Examples:
  procsim trace --db ./runs.db --run 6a1f...
  procsim trace --db ./runs.db --run 6a1f... --kind message_dropped
  procsim trace --db ./runs.db --run 6a1f... --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "run ID to show (required)")
	_ = cmd.MarkFlagRequired("run")
	cmd.Flags().StringVar(&opts.Kind, "kind", "", "filter to one event kind")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	ctx := context.Background()
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	run, err := st.GetRun(ctx, opts.RunID)
	if errors.Is(err, store.ErrNotFound) {
		_ = formatter.Error(ErrCodeNotFound, fmt.Sprintf("run %s not found", opts.RunID), nil)
		return NewExitError(ExitCommandError, "run not found")
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read run", err)
	}

	events, err := st.ReadTrace(ctx, opts.RunID)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read trace", err)
	}
	if opts.Kind != "" {
		filtered := events[:0]
		for _, ev := range events {
			if string(ev.Kind) == opts.Kind {
				filtered = append(filtered, ev)
			}
		}
		events = filtered
	}

	if formatter.Format == "json" {
		return formatter.Success(TraceResult{Run: *run, Events: events})
	}

	fmt.Fprintf(formatter.Writer, "run %s (%s, seed %d)\n\n", run.ID, run.Name, run.Seed)
	w := tabwriter.NewWriter(formatter.Writer, 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SEQ\tTIME\tKIND\tNODE\tPROC\tDETAIL")
	for _, ev := range events {
		fmt.Fprintf(w, "%d\t%g\t%s\t%s\t%s\t%s\n",
			ev.Seq, ev.Time, ev.Kind, ev.Node, ev.Proc, eventDetail(ev))
	}
	return w.Flush()
}

// eventDetail renders the kind-specific part of a trace line.
func eventDetail(ev sim.TraceEvent) string {
	switch {
	case ev.Timer != "":
		return "timer=" + ev.Timer
	case ev.MsgType != "":
		detail := ev.MsgType + " " + ev.Payload
		if ev.From != "" {
			detail += " from=" + ev.From
		}
		if ev.To != "" {
			detail += " to=" + ev.To
		}
		return detail
	default:
		return ""
	}
}

// RunsResult holds the runs listing for JSON format.
type RunsResult struct {
	Runs []store.Run `json:"runs"`
}

// NewRunsCommand creates the runs listing command.
func NewRunsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:           "runs",
		Short:         "List recorded runs",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRuns(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runRuns(opts *TraceOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	runs, err := st.ListRuns(context.Background())
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list runs", err)
	}

	if formatter.Format == "json" {
		return formatter.Success(RunsResult{Runs: runs})
	}

	w := tabwriter.NewWriter(formatter.Writer, 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tSEED\tCREATED")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", run.ID, run.Name, run.Seed, run.CreatedAt.Format("2006-01-02 15:04:05"))
	}
	return w.Flush()
}
