package scheduler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/coreos/go-systemd/v22/dbus"
	"github.com/coreos/go-systemd/v22/unit"
	"github.com/rs/zerolog"

	"auri/internal/fsutil"
)

// Bus is the subset of the systemd D-Bus API the installer uses. *dbus.Conn
// implements it.
type Bus interface {
	ReloadContext(ctx context.Context) error
	EnableUnitFilesContext(ctx context.Context, files []string, runtime bool, force bool) (bool, []dbus.EnableUnitFileChange, error)
	DisableUnitFilesContext(ctx context.Context, files []string, runtime bool) ([]dbus.DisableUnitFileChange, error)
	StartUnitContext(ctx context.Context, name string, mode string, ch chan<- string) (int, error)
	StopUnitContext(ctx context.Context, name string, mode string, ch chan<- string) (int, error)
	RestartUnitContext(ctx context.Context, name string, mode string, ch chan<- string) (int, error)
	Close()
}

// DialSystem connects to the system manager.
func DialSystem(ctx context.Context) (Bus, error) {
	conn, err := dbus.NewWithContext(ctx)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// Systemd installs the job as unit files in Dir and drives systemd over
// D-Bus. With SkipCommands only the files are touched.
type Systemd struct {
	Dir          string
	Dial         func(ctx context.Context) (Bus, error)
	SkipCommands bool
	Log          zerolog.Logger

	// idle is set when the last removal found no unit files.
	idle bool
}

var _ ServiceManager = (*Systemd)(nil)

func NewSystemd(dir string, log zerolog.Logger) *Systemd {
	return &Systemd{
		Dir:          dir,
		Dial:         DialSystem,
		SkipCommands: os.Getenv(EnvSkipCommands) == "1",
		Log:          log.With().Str("component", "systemd").Logger(),
	}
}

func (s *Systemd) ServicePath() string { return filepath.Join(s.Dir, ServiceName) }
func (s *Systemd) TimerPath() string   { return filepath.Join(s.Dir, TimerName) }

func (s *Systemd) InstallPeriodicUnit(ctx context.Context, d Descriptor) error {
	service, err := d.ServiceUnit()
	if err != nil {
		return err
	}
	timer, err := d.TimerUnit()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return err
	}
	serviceChanged, err := fsutil.WriteIfChanged(s.ServicePath(), service, 0o644)
	if err != nil {
		return err
	}
	timerChanged, err := fsutil.WriteIfChanged(s.TimerPath(), timer, 0o644)
	if err != nil {
		return err
	}
	changed := serviceChanged || timerChanged
	s.idle = false
	s.Log.Debug().Bool("changed", changed).Str("dir", s.Dir).Msg("unit files written")
	if s.SkipCommands {
		return nil
	}

	return s.withBus(ctx, func(bus Bus) error {
		if changed {
			if err := bus.ReloadContext(ctx); err != nil {
				return fmt.Errorf("daemon-reload: %w", err)
			}
		}
		if _, _, err := bus.EnableUnitFilesContext(ctx, []string{TimerName}, false, true); err != nil {
			return fmt.Errorf("enable %s: %w", TimerName, err)
		}
		job := bus.StartUnitContext
		if changed {
			job = bus.RestartUnitContext
		}
		return runJob(ctx, TimerName, job)
	})
}

func (s *Systemd) RemovePeriodicUnit(ctx context.Context) error {
	installed := s.installed()
	s.idle = !installed
	if !s.SkipCommands && installed {
		err := s.withBus(ctx, func(bus Bus) error {
			if err := runJob(ctx, TimerName, bus.StopUnitContext); err != nil {
				s.Log.Warn().Err(err).Msg("stop timer")
			}
			if _, err := bus.DisableUnitFilesContext(ctx, []string{TimerName}, false); err != nil {
				return fmt.Errorf("disable %s: %w", TimerName, err)
			}
			return nil
		})
		if err != nil {
			return err
		}
	}
	for _, path := range []string{s.TimerPath(), s.ServicePath()} {
		if err := fsutil.RemoveIfExists(path); err != nil {
			return err
		}
	}
	return nil
}

// ReloadServiceManager is a no-op after a removal that had nothing to remove.
func (s *Systemd) ReloadServiceManager(ctx context.Context) error {
	if s.SkipCommands || s.idle {
		return nil
	}
	return s.withBus(ctx, func(bus Bus) error { return bus.ReloadContext(ctx) })
}

func (s *Systemd) installed() bool {
	for _, path := range []string{s.TimerPath(), s.ServicePath()} {
		if _, err := os.Stat(path); err == nil {
			return true
		}
	}
	return false
}

func (s *Systemd) withBus(ctx context.Context, fn func(Bus) error) error {
	bus, err := s.Dial(ctx)
	if err != nil {
		return fmt.Errorf("connect to systemd: %w", err)
	}
	defer bus.Close()
	return fn(bus)
}

type jobFunc func(ctx context.Context, name string, mode string, ch chan<- string) (int, error)

func runJob(ctx context.Context, name string, job jobFunc) error {
	ch := make(chan string, 1)
	if _, err := job(ctx, name, "replace", ch); err != nil {
		return err
	}
	select {
	case result := <-ch:
		if result != "done" {
			return fmt.Errorf("%s job %s", name, result)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Status describes the unit files currently on disk.
type Status struct {
	Installed bool     `json:"installed"`
	Managed   bool     `json:"managed"`
	Trigger   Trigger  `json:"trigger"`
	ExecStart string   `json:"exec_start,omitempty"`
	Files     []string `json:"files"`
}

func (s *Systemd) Status() (Status, error) {
	st := Status{Files: []string{s.ServicePath(), s.TimerPath()}}
	timer, err := os.ReadFile(s.TimerPath())
	if errors.Is(err, os.ErrNotExist) {
		return st, nil
	}
	if err != nil {
		return st, err
	}
	service, err := os.ReadFile(s.ServicePath())
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return st, err
	}
	st.Installed = err == nil
	st.Managed = fsutil.IsManagedFile(timer) && (service == nil || fsutil.IsManagedFile(service))

	opts, err := unit.Deserialize(bytes.NewReader(timer))
	if err != nil {
		return st, fmt.Errorf("SCHED_UNIT_PARSE: %s: %w", s.TimerPath(), err)
	}
	for _, o := range opts {
		if o.Section == "Timer" && (o.Name == "OnCalendar" || o.Name == "OnBootSec") {
			st.Trigger = Trigger{Directive: o.Name, Value: o.Value}
		}
	}
	if service != nil {
		opts, err := unit.Deserialize(bytes.NewReader(service))
		if err != nil {
			return st, fmt.Errorf("SCHED_UNIT_PARSE: %s: %w", s.ServicePath(), err)
		}
		for _, o := range opts {
			if o.Section == "Service" && o.Name == "ExecStart" {
				st.ExecStart = o.Value
			}
		}
	}
	return st, nil
}
