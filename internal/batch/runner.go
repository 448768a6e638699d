// Package batch replays a list of action identifiers without an operator.
package batch

import (
	"context"
	"crypto/rand"
	"errors"
	"strconv"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"auri/internal/actions"
	"auri/internal/audit"
	"auri/internal/config"
	"auri/internal/executor"
)

// Result statuses.
const (
	StatusOK      = "ok"
	StatusFailed  = "failed"
	StatusSkipped = "skipped"
)

// Skip and failure reasons.
const (
	ReasonUnknown     = "unknown-identifier"
	ReasonInteractive = "interactive-only"
	ReasonCanceled    = "canceled"
)

type Result struct {
	ID       string `json:"id" toml:"id"`
	Status   string `json:"status" toml:"status"`
	ExitCode int    `json:"exit_code" toml:"exit_code"`
	Reason   string `json:"reason,omitempty" toml:"reason,omitempty"`
}

type Report struct {
	RunID      string    `json:"run_id" toml:"run_id"`
	Source     string    `json:"source" toml:"source"`
	StartedAt  time.Time `json:"started_at" toml:"started_at"`
	FinishedAt time.Time `json:"finished_at" toml:"finished_at"`
	Results    []Result  `json:"results" toml:"results"`
}

// Counts returns the number of results per status.
func (r Report) Counts() (ok, failed, skipped int) {
	for _, res := range r.Results {
		switch res.Status {
		case StatusOK:
			ok++
		case StatusFailed:
			failed++
		case StatusSkipped:
			skipped++
		}
	}
	return ok, failed, skipped
}

func (r Report) Failed() bool {
	_, failed, _ := r.Counts()
	return failed > 0
}

// Runner executes every identifier of a document in order. No confirmation
// is asked and no failure stops the run.
type Runner struct {
	Registry *actions.Registry
	Exec     executor.Executor
	Audit    *audit.Logger
	Log      zerolog.Logger
	// Output receives command output; nil discards it.
	Output executor.LineFunc

	now     func() time.Time
	entropy func() string
}

func NewRunner(reg *actions.Registry, exec executor.Executor, logger *audit.Logger, log zerolog.Logger) *Runner {
	return &Runner{
		Registry: reg,
		Exec:     exec,
		Audit:    logger,
		Log:      log.With().Str("component", "batch").Logger(),
	}
}

func (r *Runner) Run(ctx context.Context, source string, cfg config.BatchConfig) Report {
	now := r.now
	if now == nil {
		now = time.Now
	}
	rep := Report{
		RunID:     r.newID(now()),
		Source:    source,
		StartedAt: now().UTC(),
		Results:   make([]Result, 0, len(cfg.Actions)),
	}
	log := r.Log.With().Str("run_id", rep.RunID).Str("source", source).Logger()
	log.Info().Int("actions", len(cfg.Actions)).Msg("batch run started")

	for _, id := range cfg.Actions {
		res := r.runOne(ctx, id)
		rep.Results = append(rep.Results, res)
		r.record(rep.RunID, res)

		ev := log.Info()
		switch res.Status {
		case StatusSkipped:
			ev = log.Warn()
		case StatusFailed:
			ev = log.Error()
		}
		ev.Str("action", id).Str("status", res.Status).Int("exit_code", res.ExitCode).Str("reason", res.Reason).Msg("batch action finished")
	}

	rep.FinishedAt = now().UTC()
	ok, failed, skipped := rep.Counts()
	log.Info().Int("ok", ok).Int("failed", failed).Int("skipped", skipped).Msg("batch run finished")
	status := StatusOK
	if failed > 0 {
		status = StatusFailed
	}
	_ = r.Audit.Log(audit.Event{
		Operation: audit.OpBatch,
		RunID:     rep.RunID,
		Status:    status,
		Fields: map[string]string{
			"source":  source,
			"ok":      strconv.Itoa(ok),
			"failed":  strconv.Itoa(failed),
			"skipped": strconv.Itoa(skipped),
		},
	})
	return rep
}

func (r *Runner) runOne(ctx context.Context, id string) Result {
	entry, ok := r.Registry.Lookup(id)
	if !ok {
		return Result{ID: id, Status: StatusSkipped, ExitCode: -1, Reason: ReasonUnknown}
	}
	if entry.Interactive {
		return Result{ID: id, Status: StatusSkipped, ExitCode: -1, Reason: ReasonInteractive}
	}
	if err := ctx.Err(); err != nil {
		return Result{ID: id, Status: StatusSkipped, ExitCode: -1, Reason: ReasonCanceled}
	}
	code, err := entry.Execute(ctx, actions.Env{Exec: r.Exec, Output: r.Output})
	if err == nil {
		return Result{ID: id, Status: StatusOK, ExitCode: 0}
	}
	var execErr *actions.ExecError
	if errors.As(err, &execErr) {
		return Result{ID: id, Status: StatusFailed, ExitCode: execErr.ExitCode}
	}
	return Result{ID: id, Status: StatusFailed, ExitCode: code, Reason: err.Error()}
}

func (r *Runner) record(runID string, res Result) {
	ev := audit.Event{
		Operation: audit.OpAction,
		Action:    res.ID,
		RunID:     runID,
		Status:    res.Status,
		Message:   res.Reason,
	}
	switch {
	case res.Reason == ReasonUnknown:
		ev.Code = "ACT_UNKNOWN"
	case res.Status == StatusFailed:
		ev.Code = "ACT_EXEC"
	}
	if res.Status != StatusSkipped {
		ev.ExitCode = audit.Exit(res.ExitCode)
	}
	_ = r.Audit.Log(ev)
}

func (r *Runner) newID(t time.Time) string {
	if r.entropy != nil {
		return r.entropy()
	}
	return ulid.MustNew(ulid.Timestamp(t), rand.Reader).String()
}
