// Package scheduler turns the scheduler document into a systemd service and
// timer pair and installs it.
package scheduler

import (
	"bytes"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/coreos/go-systemd/v22/unit"

	"auri/internal/config"
	"auri/internal/fsutil"
)

const (
	ServiceName = "auri.service"
	TimerName   = "auri.timer"

	// EnvExec overrides the executable written into ExecStart.
	EnvExec = "AURI_EXEC"
	// EnvSkipCommands set to 1 writes unit files without talking to systemd.
	EnvSkipCommands = "AURI_SCHEDULER_SKIP_COMMANDS"
)

// Trigger is the single timer directive an interval maps to.
type Trigger struct {
	Directive string `json:"directive"`
	Value     string `json:"value"`
}

func (t Trigger) String() string {
	if t.Directive == "" {
		return ""
	}
	return t.Directive + "=" + t.Value
}

// TriggerFor maps an interval to its timer directive. Unrecognized intervals
// use the weekly calendar.
func TriggerFor(iv config.Interval) Trigger {
	switch iv {
	case config.IntervalOnBoot:
		return Trigger{Directive: "OnBootSec", Value: "1min"}
	case config.IntervalHourly, config.IntervalDaily, config.IntervalWeekly, config.IntervalMonthly:
		return Trigger{Directive: "OnCalendar", Value: string(iv)}
	default:
		return Trigger{Directive: "OnCalendar", Value: string(config.DefaultInterval)}
	}
}

// Descriptor is the compiled periodic job.
type Descriptor struct {
	Interval   config.Interval `json:"interval"`
	Trigger    Trigger         `json:"trigger"`
	Persistent bool            `json:"persistent"`
	ExecStart  string          `json:"exec_start"`
	Enabled    bool            `json:"enabled"`
	Actions    []string        `json:"actions"`
}

// Compile builds the descriptor for cfg. The job replays the scheduler
// document's own selection.
func Compile(cfg config.SchedulerConfig, executable string) Descriptor {
	iv := cfg.Interval
	if !iv.Valid() {
		iv = config.DefaultInterval
	}
	actions := append([]string{}, cfg.Actions...)
	return Descriptor{
		Interval:   iv,
		Trigger:    TriggerFor(iv),
		Persistent: true,
		ExecStart:  shellEscape(executable) + " --batch --batch-source scheduler",
		Enabled:    cfg.Enabled,
		Actions:    actions,
	}
}

func (d Descriptor) ServiceOptions() []*unit.UnitOption {
	return []*unit.UnitOption{
		unit.NewUnitOption("Unit", "Description", "auri unattended maintenance run"),
		unit.NewUnitOption("Unit", "Wants", "network-online.target"),
		unit.NewUnitOption("Unit", "After", "network-online.target"),
		unit.NewUnitOption("Service", "Type", "oneshot"),
		unit.NewUnitOption("Service", "ExecStart", d.ExecStart),
	}
}

func (d Descriptor) TimerOptions() []*unit.UnitOption {
	return []*unit.UnitOption{
		unit.NewUnitOption("Unit", "Description", "Run auri maintenance "+string(d.Interval)),
		unit.NewUnitOption("Timer", d.Trigger.Directive, d.Trigger.Value),
		unit.NewUnitOption("Timer", "Persistent", strconv.FormatBool(d.Persistent)),
		unit.NewUnitOption("Timer", "Unit", ServiceName),
		unit.NewUnitOption("Install", "WantedBy", "timers.target"),
	}
}

func (d Descriptor) ServiceUnit() ([]byte, error) {
	return render(d.ServiceOptions())
}

func (d Descriptor) TimerUnit() ([]byte, error) {
	return render(d.TimerOptions())
}

func render(opts []*unit.UnitOption) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(fsutil.ManagedMarker)
	buf.WriteString("\n")
	if _, err := io.Copy(&buf, unit.Serialize(opts)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Executable is the program the service runs: AURI_EXEC, else the running
// binary, else "auri" from PATH.
func Executable() string {
	if p := os.Getenv(EnvExec); p != "" {
		return p
	}
	exe, err := os.Executable()
	if err != nil {
		return "auri"
	}
	return exe
}

func shellEscape(v string) string {
	if strings.ContainsAny(v, " \t\n\"'\\") {
		return strconv.Quote(v)
	}
	return v
}
