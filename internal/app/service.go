// Package app wires the components into the operations the CLI exposes.
package app

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"

	"auri/internal/actions"
	"auri/internal/audit"
	"auri/internal/batch"
	"auri/internal/config"
	"auri/internal/console"
	"auri/internal/doctor"
	"auri/internal/executor"
	"auri/internal/logging"
	"auri/internal/repos"
	"auri/internal/scheduler"
	"auri/internal/store"
	"auri/internal/tui"
)

// Run sources accepted by RunBatch.
const (
	SourceBatch     = "batch"
	SourceScheduler = "scheduler"
)

type Options struct {
	// Paths defaults to the fixed layout, relocated by AURI_ROOT.
	Paths *config.Paths
	// LogWriter receives diagnostics; default stderr.
	LogWriter io.Writer
	// Out receives command output of unattended runs; nil discards it.
	Out io.Writer
	// Executable is written into the service unit; default scheduler.Executable().
	Executable string

	Exec           executor.Executor
	ServiceManager scheduler.ServiceManager
}

type Service struct {
	Paths    config.Paths
	Settings config.Settings
	Log      zerolog.Logger
	Audit    *audit.Logger

	Registry  *actions.Registry
	Exec      executor.Executor
	Store     *config.Store
	Batch     *batch.Runner
	Units     *scheduler.Systemd
	Scheduler *scheduler.Scheduler
	Doctor    *doctor.Service
	Repos     *repos.Reconciler
}

// New builds the service. It reads the settings file but writes nothing.
func New(opts Options) (*Service, error) {
	paths := config.PathsFromEnv()
	if opts.Paths != nil {
		paths = *opts.Paths
	}
	settings, err := config.LoadSettings(paths.Settings)
	if err != nil {
		return nil, err
	}
	log := logging.New(settings.Logging, opts.LogWriter)
	logger := audit.New(paths.ActivityLog)

	exec := opts.Exec
	if exec == nil {
		exec = executor.NewShell(settings.Executor.Shell, logger, log)
	}
	executable := opts.Executable
	if executable == "" {
		executable = scheduler.Executable()
	}

	units := scheduler.NewSystemd(paths.UnitDir, log)
	var manager scheduler.ServiceManager = units
	if opts.ServiceManager != nil {
		manager = opts.ServiceManager
	}

	registry := actions.Default(paths)
	docs := config.NewStore(paths, log)
	docs.Audit = logger

	runner := batch.NewRunner(registry, exec, logger, log)
	if opts.Out != nil {
		out := opts.Out
		runner.Output = func(line string) { _, _ = fmt.Fprintln(out, line) }
	}

	return &Service{
		Paths:     paths,
		Settings:  settings,
		Log:       log,
		Audit:     logger,
		Registry:  registry,
		Exec:      exec,
		Store:     docs,
		Batch:     runner,
		Units:     units,
		Scheduler: scheduler.New(manager, executable, logger, log),
		Doctor: &doctor.Service{
			Paths:      paths,
			Registry:   registry,
			Units:      units,
			Executable: executable,
		},
		Repos: &repos.Reconciler{PacmanConf: paths.PacmanConf, Exec: exec},
	}, nil
}

func (s *Service) LoadBatch() (config.BatchConfig, error) { return s.Store.LoadBatch() }

func (s *Service) SaveBatch(cfg config.BatchConfig) error {
	if err := s.Store.SaveBatch(cfg); err != nil {
		return err
	}
	_ = s.Audit.Log(audit.Event{Operation: audit.OpConfig, Status: "saved", Fields: map[string]string{"path": s.Store.BatchPath}})
	return nil
}

func (s *Service) LoadScheduler() (config.SchedulerConfig, error) { return s.Store.LoadScheduler() }

// SaveScheduler persists cfg and regenerates the timer from it.
func (s *Service) SaveScheduler(ctx context.Context, cfg config.SchedulerConfig) error {
	if err := s.Store.SaveScheduler(cfg); err != nil {
		return err
	}
	_ = s.Audit.Log(audit.Event{Operation: audit.OpConfig, Status: "saved", Fields: map[string]string{"path": s.Store.SchedulerPath}})
	_, err := s.Scheduler.Apply(ctx, cfg)
	return err
}

var _ console.Documents = (*Service)(nil)

// RunBatch replays the selection of the given document. Action failures
// are reported in the returned report, never as an error; errors mean the
// document itself could not be read.
func (s *Service) RunBatch(ctx context.Context, source string) (batch.Report, error) {
	var ids []string
	switch source {
	case "", SourceBatch:
		source = SourceBatch
		cfg, err := s.Store.LoadBatch()
		if err != nil {
			return batch.Report{}, err
		}
		ids = cfg.Actions
	case SourceScheduler:
		cfg, err := s.Store.LoadScheduler()
		if err != nil {
			return batch.Report{}, err
		}
		ids = cfg.Actions
	default:
		return batch.Report{}, fmt.Errorf("BATCH_SOURCE: unknown source %q (want %s or %s)", source, SourceBatch, SourceScheduler)
	}

	rep := s.Batch.Run(ctx, source, config.BatchConfig{Actions: ids})
	recovered, err := store.RecordRun(s.Paths.StateDir, rep)
	switch {
	case err != nil:
		s.Log.Warn().Err(err).Str("run_id", rep.RunID).Msg("run history not updated")
	case recovered:
		s.Log.Warn().Str("code", "STATE_RECOVERED").Str("run_id", rep.RunID).Msg("corrupt run history backed up and restarted")
	}
	return rep, nil
}

// Console returns the interactive screens bound to ui.
func (s *Service) Console(ui tui.UI) *console.Console {
	return console.New(ui, s.Registry, s.Exec, s, s.Settings.Pager.LinesPerPage, s.Log)
}

// RecentRuns returns up to n unattended runs, newest first.
func (s *Service) RecentRuns(n int) ([]batch.Report, error) {
	st, err := store.LoadState(s.Paths.StateDir)
	if err != nil {
		return nil, err
	}
	return store.Recent(st, n), nil
}

// ScheduleView is the saved document next to what is installed.
type ScheduleView struct {
	Config     config.SchedulerConfig `json:"config"`
	Descriptor scheduler.Descriptor   `json:"descriptor"`
	Units      scheduler.Status       `json:"units"`
}

func (s *Service) ScheduleShow() (ScheduleView, error) {
	cfg, err := s.Store.LoadScheduler()
	if err != nil {
		return ScheduleView{}, err
	}
	st, err := s.Units.Status()
	if err != nil {
		return ScheduleView{}, err
	}
	return ScheduleView{Config: cfg, Descriptor: scheduler.Compile(cfg, s.Scheduler.Executable), Units: st}, nil
}

func (s *Service) ReposInspect() (repos.Plan, error) {
	return s.Repos.Inspect()
}

func (s *Service) DoctorRun(ctx context.Context) doctor.Report {
	return s.Doctor.Run(ctx)
}

// Diagnostics lists the document recoveries performed in this process.
func (s *Service) Diagnostics() []config.Diagnostic {
	return s.Store.Diagnostics()
}

// PrivilegeError is returned when a root-only command runs unprivileged.
type PrivilegeError struct {
	Command string
	EUID    int
}

func (e *PrivilegeError) Error() string {
	return fmt.Sprintf("PRIV_REQUIRED: %q must run as root (effective uid %d)", e.Command, e.EUID)
}

func (e *PrivilegeError) ExitCode() int { return 1 }

// CheckPrivilege fails unless euid is 0.
func CheckPrivilege(command string, euid int) error {
	if euid != 0 {
		return &PrivilegeError{Command: command, EUID: euid}
	}
	return nil
}

// EffectiveUID is os.Geteuid, replaceable in tests.
var EffectiveUID = os.Geteuid
