// Package doctor reports whether the host is in a state auri can work with.
package doctor

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"strings"

	"auri/internal/actions"
	"auri/internal/batch"
	"auri/internal/config"
	"auri/internal/scheduler"
	"auri/internal/store"
)

type Finding struct {
	Code    string `json:"code"`
	Level   string `json:"level"`
	Message string `json:"message"`
}

type Report struct {
	Healthy  bool      `json:"healthy"`
	Findings []Finding `json:"findings"`
}

// UnitStatus reads the installed timer.
type UnitStatus interface {
	Status() (scheduler.Status, error)
}

// RequiredTools are the external programs the catalog calls.
var RequiredTools = []string{"pacman", "pacman-key", "systemctl", "resolvectl", "reflector", "snapper"}

type Service struct {
	Paths      config.Paths
	Registry   *actions.Registry
	Units      UnitStatus
	Executable string

	IsRoot      func() bool
	LookPath    func(file string) (string, error)
	LockHolders func(ctx context.Context, lockPath string) ([]int32, error)
}

// Run never writes anything: documents are parsed in place.
func (s *Service) Run(ctx context.Context) Report {
	findings := []Finding{}
	add := func(code, level, msg string) {
		findings = append(findings, Finding{Code: code, Level: level, Message: msg})
	}

	isRoot := s.IsRoot
	if isRoot == nil {
		isRoot = func() bool { return os.Geteuid() == 0 }
	}
	if !isRoot() {
		add("PRIV_REQUIRED", "warn", "not running as root; actions and saves will be refused")
	}

	if _, err := config.LoadSettings(s.Paths.Settings); err != nil {
		add("DOC_SETTINGS_INVALID", "error", err.Error())
	}

	var referenced []string
	if data, err := readOptional(s.Paths.BatchConfig); err != nil {
		add("DOC_BATCH_UNREADABLE", "error", err.Error())
	} else if data == nil {
		add("DOC_BATCH_MISSING", "info", s.Paths.BatchConfig+" absent; default is created on first use")
	} else if cfg, err := config.ParseBatch(data); err != nil {
		add("DOC_BATCH_MALFORMED", "warn", s.Paths.BatchConfig+": "+err.Error()+"; default is restored on next load")
	} else {
		referenced = append(referenced, cfg.Actions...)
	}

	var sched *config.SchedulerConfig
	if data, err := readOptional(s.Paths.SchedulerConfig); err != nil {
		add("DOC_SCHEDULER_UNREADABLE", "error", err.Error())
	} else if data == nil {
		add("DOC_SCHEDULER_MISSING", "info", s.Paths.SchedulerConfig+" absent; default is created on first use")
	} else if cfg, diag, err := config.ParseScheduler(data); err != nil {
		add("DOC_SCHEDULER_MALFORMED", "warn", s.Paths.SchedulerConfig+": "+err.Error()+"; default is restored on next load")
	} else {
		if diag != "" {
			add(config.CodeIntervalDefault, "warn", diag)
		}
		referenced = append(referenced, cfg.Actions...)
		sched = &cfg
	}

	if s.Registry != nil {
		seen := map[string]struct{}{}
		for _, id := range s.Registry.Unknown(referenced) {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			add("ACT_UNKNOWN", "warn", "documents reference unknown action "+id+"; it is skipped when run")
		}
	}

	if s.Units != nil {
		findings = append(findings, s.checkTimer(sched)...)
	}

	findings = append(findings, s.checkLock(ctx)...)

	lookPath := s.LookPath
	if lookPath == nil {
		lookPath = exec.LookPath
	}
	for _, tool := range RequiredTools {
		if _, err := lookPath(tool); err != nil {
			add("TOOL_MISSING", "warn", tool+" not found in PATH")
		}
	}

	if st, err := store.LoadState(s.Paths.StateDir); err != nil {
		add("DOC_STATE_INVALID", "error", err.Error())
	} else if last, ok := store.LastRun(st, ""); ok && last.Failed() {
		failed := []string{}
		for _, r := range last.Results {
			if r.Status == batch.StatusFailed {
				failed = append(failed, r.ID)
			}
		}
		add("RUN_FAILED", "warn", "last unattended run "+last.RunID+" had failures: "+strings.Join(failed, ", "))
	}

	healthy := true
	for _, f := range findings {
		if f.Level == "error" {
			healthy = false
			break
		}
	}
	return Report{Healthy: healthy, Findings: findings}
}

func (s *Service) checkTimer(sched *config.SchedulerConfig) []Finding {
	st, err := s.Units.Status()
	if err != nil {
		return []Finding{{Code: "SCHED_STATUS", Level: "error", Message: err.Error()}}
	}
	if sched == nil {
		return nil
	}
	out := []Finding{}
	switch {
	case sched.Enabled && !st.Installed:
		out = append(out, Finding{Code: "SCHED_DRIFT", Level: "warn", Message: "scheduler is enabled but no timer is installed; save the scheduler again"})
	case !sched.Enabled && st.Installed:
		out = append(out, Finding{Code: "SCHED_DRIFT", Level: "warn", Message: "scheduler is disabled but a timer is still installed"})
	case sched.Enabled && st.Installed:
		want := scheduler.Compile(*sched, s.Executable)
		if st.Trigger != want.Trigger {
			out = append(out, Finding{Code: "SCHED_DRIFT", Level: "warn", Message: "timer carries " + st.Trigger.String() + ", document wants " + want.Trigger.String()})
		}
	}
	if st.Installed && !st.Managed {
		out = append(out, Finding{Code: "SCHED_UNMANAGED", Level: "warn", Message: "unit files were not written by auri and are overwritten on save"})
	}
	return out
}

func (s *Service) checkLock(ctx context.Context) []Finding {
	if _, err := os.Stat(s.Paths.PacmanLock); err != nil {
		return nil
	}
	holders := s.LockHolders
	if holders == nil {
		holders = PackageManagerProcesses
	}
	pids, err := holders(ctx, s.Paths.PacmanLock)
	if err != nil {
		return []Finding{{Code: "LOCK_INSPECT", Level: "warn", Message: err.Error()}}
	}
	if len(pids) > 0 {
		return []Finding{{Code: "LOCK_HELD", Level: "info", Message: s.Paths.PacmanLock + " is held by a running package manager"}}
	}
	return []Finding{{Code: "LOCK_STALE", Level: "warn", Message: s.Paths.PacmanLock + " exists but no package manager is running; run remove_lock"}}
}

func readOptional(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	return data, err
}
