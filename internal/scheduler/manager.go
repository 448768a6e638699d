package scheduler

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"auri/internal/audit"
	"auri/internal/config"
)

// ServiceManager installs and removes the periodic job.
type ServiceManager interface {
	InstallPeriodicUnit(ctx context.Context, d Descriptor) error
	RemovePeriodicUnit(ctx context.Context) error
	ReloadServiceManager(ctx context.Context) error
}

// Scheduler applies saved scheduler documents to the service manager.
type Scheduler struct {
	Manager    ServiceManager
	Executable string
	Audit      *audit.Logger
	Log        zerolog.Logger
}

func New(m ServiceManager, executable string, logger *audit.Logger, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		Manager:    m,
		Executable: executable,
		Audit:      logger,
		Log:        log.With().Str("component", "scheduler").Logger(),
	}
}

// Apply compiles cfg, installs the job when enabled or removes it otherwise,
// then reloads the service manager.
func (s *Scheduler) Apply(ctx context.Context, cfg config.SchedulerConfig) (Descriptor, error) {
	d := Compile(cfg, s.Executable)
	op := "install"
	var err error
	if d.Enabled {
		if err = s.Manager.InstallPeriodicUnit(ctx, d); err != nil {
			err = fmt.Errorf("SCHED_INSTALL: %w", err)
		}
	} else {
		op = "remove"
		if err = s.Manager.RemovePeriodicUnit(ctx); err != nil {
			err = fmt.Errorf("SCHED_REMOVE: %w", err)
		}
	}
	if err == nil {
		if err = s.Manager.ReloadServiceManager(ctx); err != nil {
			err = fmt.Errorf("SCHED_RELOAD: %w", err)
		}
	}

	ev := audit.Event{
		Operation: audit.OpSchedule,
		Status:    "ok",
		Fields: map[string]string{
			"op":       op,
			"interval": string(d.Interval),
			"trigger":  d.Trigger.String(),
		},
	}
	if err != nil {
		ev.Status = "error"
		ev.Message = err.Error()
		s.Log.Error().Err(err).Str("op", op).Msg("scheduler apply failed")
	} else {
		s.Log.Info().Str("op", op).Str("trigger", d.Trigger.String()).Msg("scheduler applied")
	}
	_ = s.Audit.Log(ev)
	return d, err
}
