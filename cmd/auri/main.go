package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"auri/internal/app"
	"auri/internal/batch"
	"auri/internal/console"
	"auri/internal/tui"
)

type ExitCoder interface {
	ExitCode() int
}

type exitError struct {
	code int
	msg  string
}

func (e *exitError) Error() string { return e.msg }
func (e *exitError) ExitCode() int { return e.code }

// unprivileged marks commands that run without root.
const unprivileged = "auri/unprivileged"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		if ex, ok := err.(ExitCoder); ok {
			os.Exit(ex.ExitCode())
		}
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var jsonOutput bool
	var batchMode bool
	var batchSource string

	newSvc := func() (*app.Service, error) {
		return app.New(app.Options{Out: os.Stdout})
	}

	cmd := &cobra.Command{
		Use:           "auri",
		Short:         "Maintenance menu for Arch-based systems",
		Long:          "auri runs predefined maintenance actions interactively, replays a saved batch unattended and manages the systemd timer that schedules it.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if isUnprivileged(cmd) {
				return nil
			}
			return app.CheckPrivilege(cmd.CommandPath(), app.EffectiveUID())
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newSvc()
			if err != nil {
				return err
			}
			if batchMode {
				return runBatch(cmd.Context(), svc, batchSource, jsonOutput)
			}
			return runInteractive(func(ui tui.UI) error {
				return svc.Console(ui).Run(cmd.Context())
			})
		},
	}
	cmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output JSON")
	cmd.Flags().BoolVar(&batchMode, "batch", false, "run the saved selection unattended")
	cmd.Flags().StringVar(&batchSource, "batch-source", app.SourceBatch, "document to replay: batch|scheduler")

	cmd.AddCommand(newActionsCmd(newSvc, &jsonOutput))
	cmd.AddCommand(newRunCmd(newSvc, &jsonOutput))
	cmd.AddCommand(newBatchCmd(newSvc, &jsonOutput))
	cmd.AddCommand(newScheduleCmd(newSvc, &jsonOutput))
	cmd.AddCommand(newReposCmd(newSvc, &jsonOutput))
	cmd.AddCommand(newStatusCmd(newSvc, &jsonOutput))
	cmd.AddCommand(newDoctorCmd(newSvc, &jsonOutput))
	cmd.AddCommand(newVersionCmd(&jsonOutput))

	return cmd
}

func isUnprivileged(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations[unprivileged] == "true" {
			return true
		}
		if c.Name() == "help" || c.Name() == cobra.ShellCompRequestCmd || c.Name() == "completion" {
			return true
		}
	}
	return false
}

func markUnprivileged(cmd *cobra.Command) *cobra.Command {
	if cmd.Annotations == nil {
		cmd.Annotations = map[string]string{}
	}
	cmd.Annotations[unprivileged] = "true"
	return cmd
}

// runInteractive opens the terminal for fn and always restores it.
func runInteractive(fn func(ui tui.UI) error) error {
	t, err := tui.Open(os.Stdin, os.Stdout)
	if err != nil {
		return err
	}
	runErr := fn(t)
	if err := t.Close(); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}

func runBatch(ctx context.Context, svc *app.Service, source string, jsonOutput bool) error {
	rep, err := svc.RunBatch(ctx, source)
	if err != nil {
		return err
	}
	return print(jsonOutput, rep, summarize(rep))
}

func summarize(rep batch.Report) string {
	ok, failed, skipped := rep.Counts()
	lines := []string{fmt.Sprintf("run %s (%s): ok=%d failed=%d skipped=%d", rep.RunID, rep.Source, ok, failed, skipped)}
	for _, r := range rep.Results {
		line := fmt.Sprintf("- %s %s", r.ID, r.Status)
		if r.Status == batch.StatusFailed {
			line += fmt.Sprintf(" (exit %d)", r.ExitCode)
		}
		if r.Reason != "" {
			line += ": " + r.Reason
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func newActionsCmd(newSvc func() (*app.Service, error), jsonOutput *bool) *cobra.Command {
	type row struct {
		ID          string `json:"id"`
		Label       string `json:"label"`
		Destructive bool   `json:"destructive"`
		Interactive bool   `json:"interactive"`
	}
	return markUnprivileged(&cobra.Command{
		Use:     "actions",
		Aliases: []string{"ls", "list"},
		Short:   "List available actions",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newSvc()
			if err != nil {
				return err
			}
			rows := []row{}
			for _, e := range svc.Registry.List() {
				rows = append(rows, row{ID: e.ID, Label: e.Label, Destructive: e.Destructive, Interactive: e.Interactive})
			}
			if *jsonOutput {
				return print(true, rows, "")
			}
			for _, r := range rows {
				flags := []string{}
				if r.Destructive {
					flags = append(flags, "destructive")
				}
				if r.Interactive {
					flags = append(flags, "interactive")
				}
				suffix := ""
				if len(flags) > 0 {
					suffix = " [" + strings.Join(flags, ",") + "]"
				}
				fmt.Printf("%-26s %s%s\n", r.ID, r.Label, suffix)
			}
			return nil
		},
	})
}

func newRunCmd(newSvc func() (*app.Service, error), jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "run <action-id>",
		Short: "Run one action interactively",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newSvc()
			if err != nil {
				return err
			}
			if _, err := svc.Registry.Resolve(args[0]); err != nil {
				return err
			}
			var outcome console.Outcome
			err = runInteractive(func(ui tui.UI) error {
				var runErr error
				outcome, runErr = svc.Console(ui).RunAction(cmd.Context(), args[0])
				return runErr
			})
			if err != nil {
				return err
			}
			if err := print(*jsonOutput, map[string]string{"action": args[0], "outcome": outcome.String()}, args[0]+": "+outcome.String()); err != nil {
				return err
			}
			if outcome == console.OutcomeFailed || outcome == console.OutcomeError {
				return &exitError{code: 1, msg: "ACT_EXEC: " + args[0] + " did not complete"}
			}
			return nil
		},
	}
}

func newBatchCmd(newSvc func() (*app.Service, error), jsonOutput *bool) *cobra.Command {
	batchCmd := &cobra.Command{Use: "batch", Short: "Inspect or run the batch selection"}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Show the batch document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newSvc()
			if err != nil {
				return err
			}
			cfg, err := svc.LoadBatch()
			if err != nil {
				return err
			}
			if *jsonOutput {
				return print(true, cfg, "")
			}
			fmt.Printf("%s\n", svc.Paths.BatchConfig)
			printSelection(svc, cfg.Actions)
			return nil
		},
	}

	var source string
	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run the batch selection unattended",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newSvc()
			if err != nil {
				return err
			}
			return runBatch(cmd.Context(), svc, source, *jsonOutput)
		},
	}
	runCmd.Flags().StringVar(&source, "source", app.SourceBatch, "document to replay: batch|scheduler")

	batchCmd.AddCommand(showCmd, runCmd)
	return batchCmd
}

func printSelection(svc *app.Service, ids []string) {
	if len(ids) == 0 {
		fmt.Println("no actions selected")
		return
	}
	for _, id := range ids {
		if e, ok := svc.Registry.Lookup(id); ok {
			fmt.Printf("- %s (%s)\n", id, e.Label)
		} else {
			fmt.Printf("- %s (unknown, skipped)\n", id)
		}
	}
}

func newScheduleCmd(newSvc func() (*app.Service, error), jsonOutput *bool) *cobra.Command {
	scheduleCmd := &cobra.Command{Use: "schedule", Aliases: []string{"timer"}, Short: "Inspect the scheduled run"}
	scheduleCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the scheduler document and installed timer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newSvc()
			if err != nil {
				return err
			}
			view, err := svc.ScheduleShow()
			if err != nil {
				return err
			}
			if *jsonOutput {
				return print(true, view, "")
			}
			state := "disabled"
			if view.Config.Enabled {
				state = "enabled"
			}
			fmt.Printf("scheduler: %s, interval %s (%s)\n", state, view.Descriptor.Interval, view.Descriptor.Trigger)
			printSelection(svc, view.Config.Actions)
			switch {
			case !view.Units.Installed:
				fmt.Println("timer: not installed")
			case !view.Units.Managed:
				fmt.Printf("timer: installed but not managed by auri (%s)\n", view.Units.Trigger)
			default:
				fmt.Printf("timer: installed (%s)\n", view.Units.Trigger)
			}
			return nil
		},
	})
	return scheduleCmd
}

func newReposCmd(newSvc func() (*app.Service, error), jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:     "repos",
		Aliases: []string{"keyrings"},
		Short:   "Show active repositories and their keyrings",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newSvc()
			if err != nil {
				return err
			}
			plan, err := svc.ReposInspect()
			if err != nil {
				return err
			}
			if *jsonOutput {
				return print(true, plan, "")
			}
			fmt.Printf("active: %s\n", strings.Join(plan.Active, ", "))
			for _, b := range plan.Bindings {
				fmt.Printf("- %s -> %s\n", b.Repo, b.Keyring)
			}
			if len(plan.Unbound) > 0 {
				fmt.Printf("no trusted keyring: %s\n", strings.Join(plan.Unbound, ", "))
			}
			return nil
		},
	}
}

func newStatusCmd(newSvc func() (*app.Service, error), jsonOutput *bool) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show recent unattended runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newSvc()
			if err != nil {
				return err
			}
			runs, err := svc.RecentRuns(limit)
			if err != nil {
				return err
			}
			if *jsonOutput {
				return print(true, runs, "")
			}
			if len(runs) == 0 {
				fmt.Println("no unattended runs recorded")
				return nil
			}
			for _, r := range runs {
				ok, failed, skipped := r.Counts()
				fmt.Printf("%s %s %s ok=%d failed=%d skipped=%d\n", r.StartedAt.Local().Format("2006-01-02 15:04"), r.RunID, r.Source, ok, failed, skipped)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 5, "number of runs to show")
	return cmd
}

func newDoctorCmd(newSvc func() (*app.Service, error), jsonOutput *bool) *cobra.Command {
	return markUnprivileged(&cobra.Command{
		Use:     "doctor",
		Aliases: []string{"diag", "checkup"},
		Short:   "Run diagnostics",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newSvc()
			if err != nil {
				return err
			}
			report := svc.DoctorRun(cmd.Context())
			if *jsonOutput {
				if err := print(true, report, ""); err != nil {
					return err
				}
			} else {
				for _, f := range report.Findings {
					fmt.Printf("[%s] %s: %s\n", f.Level, f.Code, f.Message)
				}
				if report.Healthy {
					fmt.Println("healthy")
				}
			}
			if !report.Healthy {
				return &exitError{code: 1, msg: "DOCTOR_UNHEALTHY: see findings above"}
			}
			return nil
		},
	})
}

func print(jsonOutput bool, payload any, message string) error {
	if jsonOutput {
		blob, err := json.MarshalIndent(payload, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(blob))
		return nil
	}
	if message != "" {
		fmt.Println(message)
	}
	return nil
}
