package scheduler

import (
	"bytes"
	"strings"
	"testing"

	"github.com/coreos/go-systemd/v22/unit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"auri/internal/config"
	"auri/internal/fsutil"
)

func TestTriggerTable(t *testing.T) {
	cases := []struct {
		interval config.Interval
		want     string
	}{
		{config.IntervalOnBoot, "OnBootSec=1min"},
		{config.IntervalHourly, "OnCalendar=hourly"},
		{config.IntervalDaily, "OnCalendar=daily"},
		{config.IntervalWeekly, "OnCalendar=weekly"},
		{config.IntervalMonthly, "OnCalendar=monthly"},
		{"fortnightly", "OnCalendar=weekly"},
		{"", "OnCalendar=weekly"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, TriggerFor(tc.interval).String(), string(tc.interval))
	}
}

func TestCompileDaily(t *testing.T) {
	d := Compile(config.SchedulerConfig{Actions: []string{"dns_reset"}, Enabled: true, Interval: config.IntervalDaily}, "/usr/bin/auri")

	assert.Equal(t, config.IntervalDaily, d.Interval)
	assert.Equal(t, Trigger{Directive: "OnCalendar", Value: "daily"}, d.Trigger)
	assert.True(t, d.Persistent)
	assert.True(t, d.Enabled)
	assert.Equal(t, "/usr/bin/auri --batch --batch-source scheduler", d.ExecStart)
	assert.Equal(t, []string{"dns_reset"}, d.Actions)
}

func TestCompileFallsBackToWeekly(t *testing.T) {
	d := Compile(config.SchedulerConfig{Interval: "yearly"}, "auri")
	assert.Equal(t, config.IntervalWeekly, d.Interval)
	assert.Equal(t, "OnCalendar=weekly", d.Trigger.String())
}

func TestCompileQuotesExecutableWithSpaces(t *testing.T) {
	d := Compile(config.SchedulerConfig{Interval: config.IntervalHourly}, "/opt/my tools/auri")
	assert.Equal(t, `"/opt/my tools/auri" --batch --batch-source scheduler`, d.ExecStart)
}

func TestRenderedUnits(t *testing.T) {
	d := Compile(config.SchedulerConfig{Enabled: true, Interval: config.IntervalOnBoot}, "/usr/bin/auri")

	timer, err := d.TimerUnit()
	require.NoError(t, err)
	assert.True(t, fsutil.IsManagedFile(timer))
	text := string(timer)
	assert.Contains(t, text, "[Timer]\nOnBootSec=1min\nPersistent=true\nUnit=auri.service\n")
	assert.Contains(t, text, "[Install]\nWantedBy=timers.target\n")
	assert.NotContains(t, text, "OnCalendar")

	service, err := d.ServiceUnit()
	require.NoError(t, err)
	assert.True(t, fsutil.IsManagedFile(service))
	opts, err := unit.Deserialize(bytes.NewReader(service))
	require.NoError(t, err)
	found := map[string]string{}
	for _, o := range opts {
		found[o.Section+"."+o.Name] = o.Value
	}
	assert.Equal(t, "oneshot", found["Service.Type"])
	assert.Equal(t, "/usr/bin/auri --batch --batch-source scheduler", found["Service.ExecStart"])
}

func TestExecutableOverride(t *testing.T) {
	t.Setenv(EnvExec, "/custom/auri")
	assert.Equal(t, "/custom/auri", Executable())

	t.Setenv(EnvExec, "")
	assert.NotEmpty(t, strings.TrimSpace(Executable()))
}
